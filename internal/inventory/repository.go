package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"boutique-be/internal/db"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

const pgForeignKeyViolation = "23503"

type Repository interface {
	GetVariant(ctx context.Context, q db.DBTX, productID uint, size int) (*Variant, error)
	ListByProduct(ctx context.Context, productID uint) ([]Variant, error)
	ListLowStock(ctx context.Context, below int) ([]Variant, error)

	// Decrement removes amount units in a single conditional statement. It
	// never drives quantity below zero, even under concurrent callers.
	Decrement(ctx context.Context, q db.DBTX, productID uint, size int, amount int) error

	// Increment adds amount units, creating the variant when the size is new.
	Increment(ctx context.Context, productID uint, size int, amount int) (*Variant, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetVariant(ctx context.Context, q db.DBTX, productID uint, size int) (*Variant, error) {
	if q == nil {
		q = r.db
	}

	query, args, err := db.PSQL.
		Select("product_id", "size", "quantity", "updated_at").
		From("product_variants").
		Where(sq.Eq{"product_id": productID, "size": size}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var v Variant
	err = q.QueryRowContext(ctx, query, args...).Scan(&v.ProductID, &v.Size, &v.Quantity, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVariantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *repository) ListByProduct(ctx context.Context, productID uint) ([]Variant, error) {
	query, args, err := db.PSQL.
		Select("product_id", "size", "quantity", "updated_at").
		From("product_variants").
		Where(sq.Eq{"product_id": productID}).
		OrderBy("size ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.list(ctx, query, args)
}

func (r *repository) ListLowStock(ctx context.Context, below int) ([]Variant, error) {
	query, args, err := db.PSQL.
		Select("product_id", "size", "quantity", "updated_at").
		From("product_variants").
		Where(sq.Lt{"quantity": below}).
		OrderBy("quantity ASC", "product_id ASC", "size ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.list(ctx, query, args)
}

func (r *repository) list(ctx context.Context, query string, args []any) ([]Variant, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variants []Variant
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ProductID, &v.Size, &v.Quantity, &v.UpdatedAt); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

func (r *repository) Decrement(ctx context.Context, q db.DBTX, productID uint, size int, amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if q == nil {
		q = r.db
	}

	query, args, err := db.PSQL.
		Update("product_variants").
		Set("quantity", sq.Expr("quantity - ?", amount)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"product_id": productID, "size": size}).
		Where(sq.GtOrEq{"quantity": amount}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if affected == 1 {
		return nil
	}

	// Nothing matched: either the variant is missing or it is short.
	v, err := r.GetVariant(ctx, q, productID, size)
	if err != nil {
		return err
	}
	return &ShortageError{
		ProductID: productID,
		Size:      size,
		Requested: amount,
		Available: v.Quantity,
	}
}

func (r *repository) Increment(ctx context.Context, productID uint, size int, amount int) (*Variant, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if amount > MaxRestock {
		return nil, ErrRestockLimit
	}
	if !ValidSize(size) {
		return nil, ErrInvalidSize
	}

	query, args, err := db.PSQL.
		Insert("product_variants").
		Columns("product_id", "size", "quantity").
		Values(productID, size, amount).
		Suffix("ON CONFLICT (product_id, size) DO UPDATE SET quantity = product_variants.quantity + EXCLUDED.quantity, updated_at = NOW()").
		Suffix("RETURNING product_id, size, quantity, updated_at").
		ToSql()
	if err != nil {
		return nil, err
	}

	var v Variant
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&v.ProductID, &v.Size, &v.Quantity, &v.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgForeignKeyViolation {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("restock: %w", err)
	}
	return &v, nil
}

package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"boutique-be/internal/db"
	"boutique-be/internal/logger"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"
)

type Repository interface {
	List(ctx context.Context, opts ListOptions) ([]Product, error)
	GetByID(ctx context.Context, id uint) (*Product, error)
	GetCatalogEntries(ctx context.Context, ids []uint) (map[uint]CatalogEntry, error)
	Create(ctx context.Context, input NewProduct) (*Product, error)
	Update(ctx context.Context, id uint, input UpdateProduct) (*Product, error)
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

var productColumns = []string{
	"p.id", "p.name", "p.description", "p.price", "p.image_url",
	"p.category", "p.color", "p.featured", "p.created_at", "p.updated_at",
	"COALESCE(SUM(v.quantity), 0) AS total_stock",
}

func scanProduct(row interface{ Scan(...any) error }) (*Product, error) {
	var p Product
	if err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL,
		&p.Category, &p.Color, &p.Featured, &p.CreatedAt, &p.UpdatedAt,
		&p.TotalStock,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func baseSelect() sq.SelectBuilder {
	return db.PSQL.
		Select(productColumns...).
		From("products p").
		LeftJoin("product_variants v ON v.product_id = p.id").
		GroupBy("p.id")
}

func (r *repository) List(ctx context.Context, opts ListOptions) ([]Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "List"),
	)

	q := baseSelect()
	if opts.Category != "" {
		q = q.Where(sq.Eq{"p.category": opts.Category})
	}
	if opts.Color != "" {
		q = q.Where(sq.Eq{"p.color": opts.Color})
	}
	if opts.Featured != nil {
		q = q.Where(sq.Eq{"p.featured": *opts.Featured})
	}
	q = q.OrderBy("p.created_at DESC", "p.id DESC")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit).Offset(opts.Offset)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	log.Debug("executing product list query", zap.String("query", query), zap.Any("args", args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			log.Error("failed to scan product row", zap.Error(err))
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Product, error) {
	query, args, err := baseSelect().Where(sq.Eq{"p.id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return p, err
}

func (r *repository) GetCatalogEntries(ctx context.Context, ids []uint) (map[uint]CatalogEntry, error) {
	entries := make(map[uint]CatalogEntry, len(ids))
	if len(ids) == 0 {
		return entries, nil
	}

	query, args, err := db.PSQL.
		Select("id", "name", "price").
		From("products").
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var e CatalogEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.Price); err != nil {
			return nil, err
		}
		entries[e.ID] = e
	}
	return entries, rows.Err()
}

func (r *repository) Create(ctx context.Context, input NewProduct) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Create"),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return nil, err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	query, args, err := db.PSQL.
		Insert("products").
		Columns("name", "description", "price", "image_url", "category", "color", "featured").
		Values(input.Name, input.Description, input.Price, input.ImageURL, input.Category, input.Color, input.Featured).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, err
	}

	p := &Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		ImageURL:    input.ImageURL,
		Category:    input.Category,
		Color:       input.Color,
		Featured:    input.Featured,
	}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		log.Error("failed to insert product", zap.Error(err))
		return nil, err
	}

	if len(input.Sizes) > 0 {
		ins := db.PSQL.Insert("product_variants").Columns("product_id", "size", "quantity")
		for _, s := range input.Sizes {
			ins = ins.Values(p.ID, s.Size, s.Quantity)
		}
		query, args, err = ins.ToSql()
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			log.Error("failed to insert variants", zap.Error(err))
			return nil, fmt.Errorf("insert variants: %w", err)
		}
		for _, s := range input.Sizes {
			p.TotalStock += s.Quantity
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit product", zap.Error(err))
		return nil, err
	}
	committed = true

	log.Info("product created", zap.Uint("product_id", p.ID))
	return p, nil
}

func (r *repository) Update(ctx context.Context, id uint, input UpdateProduct) (*Product, error) {
	set := map[string]any{"updated_at": sq.Expr("NOW()")}
	if input.Name != nil {
		set["name"] = *input.Name
	}
	if input.Description != nil {
		set["description"] = *input.Description
	}
	if input.Price != nil {
		set["price"] = *input.Price
	}
	if input.ImageURL != nil {
		set["image_url"] = *input.ImageURL
	}
	if input.Category != nil {
		set["category"] = *input.Category
	}
	if input.Color != nil {
		set["color"] = *input.Color
	}
	if input.Featured != nil {
		set["featured"] = *input.Featured
	}

	query, args, err := db.PSQL.
		Update("products").
		SetMap(set).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrProductNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	query, args, err := db.PSQL.Delete("products").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&n)
	return n, err
}

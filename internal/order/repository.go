package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"boutique-be/internal/cart"
	"boutique-be/internal/db"
	"boutique-be/internal/inventory"
	"boutique-be/internal/payment"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const pgUniqueViolation = "23505"

type Repository interface {
	// Commit writes the order, its lines, the stock decrements and the
	// payment consumption in one transaction. On any short line nothing is
	// written and *InsufficientStockError is returned.
	Commit(ctx context.Context, o *Order) error

	GetByID(ctx context.Context, id uint) (*Order, error)
	GetByPaymentReference(ctx context.Context, ref string) (*Order, error)
	List(ctx context.Context, filter ListFilter) ([]Order, error)

	// UpdateStatus only applies when the stored status is still from.
	UpdateStatus(ctx context.Context, id uint, from, to Status) error
	Stats(ctx context.Context) (*Stats, error)
}

type repository struct {
	db        *sql.DB
	inventory inventory.Repository
	payments  payment.Repository
}

func NewRepository(db *sql.DB, inv inventory.Repository, payments payment.Repository) Repository {
	return &repository{db: db, inventory: inv, payments: payments}
}

var orderColumns = []string{
	"id", "user_id", "total", "shipping_method", "shipping_cost", "tax",
	"amount_charged", "currency", "status",
	"first_name", "last_name", "email", "address", "city", "postal_code", "country", "phone",
	"payment_reference", "created_at", "updated_at",
}

func scanOrder(row interface{ Scan(...any) error }) (*Order, error) {
	var o Order
	var phone sql.NullString
	a := &o.ShippingAddress
	if err := row.Scan(
		&o.ID, &o.UserID, &o.Total, &o.ShippingMethod, &o.ShippingCost, &o.Tax,
		&o.AmountCharged, &o.Currency, &o.Status,
		&a.FirstName, &a.LastName, &a.Email, &a.Address, &a.City, &a.PostalCode, &a.Country, &phone,
		&o.PaymentReference, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if phone.Valid {
		a.Phone = &phone.String
	}
	return &o, nil
}

// demand sums quantities per variant and orders them by (product, size) so
// concurrent commits lock rows in the same order.
func demand(lines []Line) ([]cart.Key, map[cart.Key]int) {
	totals := make(map[cart.Key]int, len(lines))
	keys := make([]cart.Key, 0, len(lines))
	for _, l := range lines {
		k := cart.Key{ProductID: l.ProductID, Size: l.Size}
		if _, seen := totals[k]; !seen {
			keys = append(keys, k)
		}
		totals[k] += l.Quantity
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ProductID != keys[j].ProductID {
			return keys[i].ProductID < keys[j].ProductID
		}
		return keys[i].Size < keys[j].Size
	})
	return keys, totals
}

func (r *repository) Commit(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer tx.Rollback()

	keys, totals := demand(o.Lines)
	var short []ShortLine
	for _, k := range keys {
		err := r.inventory.Decrement(ctx, tx, k.ProductID, k.Size, totals[k])
		if err == nil {
			continue
		}

		var shortage *inventory.ShortageError
		switch {
		case errors.As(err, &shortage):
			short = append(short, ShortLine{
				ProductID: k.ProductID,
				Size:      k.Size,
				Requested: totals[k],
				Available: shortage.Available,
			})
		case errors.Is(err, inventory.ErrVariantNotFound):
			short = append(short, ShortLine{ProductID: k.ProductID, Size: k.Size, Requested: totals[k]})
		default:
			return err
		}
	}
	if len(short) > 0 {
		return &InsufficientStockError{Lines: short}
	}

	a := o.ShippingAddress
	query, args, err := db.PSQL.
		Insert("orders").
		Columns(
			"user_id", "total", "shipping_method", "shipping_cost", "tax",
			"amount_charged", "currency", "status",
			"first_name", "last_name", "email", "address", "city", "postal_code", "country", "phone",
			"payment_reference",
		).
		Values(
			o.UserID, o.Total, o.ShippingMethod, o.ShippingCost, o.Tax,
			o.AmountCharged, o.Currency, o.Status,
			a.FirstName, a.LastName, a.Email, a.Address, a.City, a.PostalCode, a.Country, a.Phone,
			o.PaymentReference,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return err
	}

	err = tx.QueryRowContext(ctx, query, args...).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return ErrDuplicatePayment
		}
		return fmt.Errorf("insert order: %w", err)
	}

	items := db.PSQL.
		Insert("order_items").
		Columns("order_id", "product_id", "size", "quantity", "price", "name")
	for _, l := range o.Lines {
		items = items.Values(o.ID, l.ProductID, l.Size, l.Quantity, l.Price, l.Name)
	}
	query, args, err = items.ToSql()
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}

	if err = r.payments.MarkConsumed(ctx, tx, o.PaymentReference, o.ID); err != nil {
		return fmt.Errorf("consume payment: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

func (r *repository) getOne(ctx context.Context, where sq.Eq) (*Order, error) {
	query, args, err := db.PSQL.
		Select(orderColumns...).
		From("orders").
		Where(where).
		ToSql()
	if err != nil {
		return nil, err
	}

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if o.Lines, err = r.lines(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) lines(ctx context.Context, orderID uint) ([]Line, error) {
	query, args, err := db.PSQL.
		Select("product_id", "size", "quantity", "price", "name").
		From("order_items").
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ProductID, &l.Size, &l.Quantity, &l.Price, &l.Name); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Order, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

func (r *repository) GetByPaymentReference(ctx context.Context, ref string) (*Order, error) {
	return r.getOne(ctx, sq.Eq{"payment_reference": ref})
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Order, error) {
	builder := db.PSQL.
		Select(orderColumns...).
		From("orders").
		OrderBy("created_at DESC", "id DESC")

	if filter.UserID != nil {
		builder = builder.Where(sq.Eq{"user_id": *filter.UserID})
	}
	if filter.Status != nil {
		builder = builder.Where(sq.Eq{"status": *filter.Status})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		builder = builder.Offset(filter.Offset)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *repository) UpdateStatus(ctx context.Context, id uint, from, to Status) error {
	query, args, err := db.PSQL.
		Update("orders").
		Set("status", to).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "status": from}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInvalidStatusTransition
	}
	return nil
}

func (r *repository) Stats(ctx context.Context) (*Stats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(total), 0)
		FROM orders
		GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &Stats{ByStatus: map[Status]int64{}}
	for rows.Next() {
		var status Status
		var count int64
		var sum decimal.Decimal
		if err := rows.Scan(&status, &count, &sum); err != nil {
			return nil, err
		}
		stats.ByStatus[status] = count
		stats.Orders += count
		if status == StatusCompleted {
			stats.Revenue = sum
		}
	}
	return stats, rows.Err()
}

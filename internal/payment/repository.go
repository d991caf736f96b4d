package payment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"boutique-be/internal/db"

	sq "github.com/Masterminds/squirrel"
)

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByIntentID(ctx context.Context, intentID string) (*Payment, error)

	// UpdateStatus moves a payment that has not been consumed or refunded.
	// Rows already in a terminal state are left untouched without error.
	UpdateStatus(ctx context.Context, intentID string, status Status) error

	// MarkConsumed links the payment to its order inside the commit
	// transaction. It fails with ErrPaymentClosed when a refund got there first.
	MarkConsumed(ctx context.Context, q db.DBTX, intentID string, orderID uint) error

	// ClaimRefund moves the payment to refunding so no order can consume it
	// while the provider refund is in flight.
	ClaimRefund(ctx context.Context, intentID string) error
	// ReleaseRefund undoes a claim after the provider refund failed.
	ReleaseRefund(ctx context.Context, intentID string, to Status) error
	MarkRefunded(ctx context.Context, intentID string) error

	// ListUnconsumed returns payments created before the cutoff that never
	// produced an order.
	ListUnconsumed(ctx context.Context, before time.Time) ([]Payment, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

var paymentColumns = []string{
	"id", "intent_id", "user_id", "amount_minor", "currency",
	"status", "order_id", "quote", "created_at", "updated_at",
}

func scanPayment(row interface{ Scan(...any) error }) (*Payment, error) {
	var p Payment
	var orderID sql.NullInt64
	var quote sql.NullString
	if err := row.Scan(
		&p.ID, &p.IntentID, &p.UserID, &p.AmountMinor, &p.Currency,
		&p.Status, &orderID, &quote, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if orderID.Valid {
		id := uint(orderID.Int64)
		p.OrderID = &id
	}
	if quote.Valid {
		p.Quote = []byte(quote.String)
	}
	return &p, nil
}

func (r *repository) Create(ctx context.Context, p *Payment) error {
	if p.Status == "" {
		p.Status = StatusCreated
	}

	// jsonb rejects the bytea encoding lib/pq uses for []byte.
	var quote any
	if len(p.Quote) > 0 {
		quote = string(p.Quote)
	}

	query, args, err := db.PSQL.
		Insert("payments").
		Columns("intent_id", "user_id", "amount_minor", "currency", "status", "quote").
		Values(p.IntentID, p.UserID, p.AmountMinor, p.Currency, p.Status, quote).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return err
	}

	return r.db.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *repository) GetByIntentID(ctx context.Context, intentID string) (*Payment, error) {
	query, args, err := db.PSQL.
		Select(paymentColumns...).
		From("payments").
		Where(sq.Eq{"intent_id": intentID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	p, err := scanPayment(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	return p, err
}

func (r *repository) exists(ctx context.Context, q db.DBTX, intentID string) (bool, error) {
	query, args, err := db.PSQL.
		Select("1").
		Prefix("SELECT EXISTS (").
		From("payments").
		Where(sq.Eq{"intent_id": intentID}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, err
	}

	var found bool
	err = q.QueryRowContext(ctx, query, args...).Scan(&found)
	return found, err
}

// closedOrMissing explains an update that matched no row.
func (r *repository) closedOrMissing(ctx context.Context, q db.DBTX, intentID string) error {
	found, err := r.exists(ctx, q, intentID)
	if err != nil {
		return err
	}
	if !found {
		return ErrPaymentNotFound
	}
	return ErrPaymentClosed
}

func (r *repository) UpdateStatus(ctx context.Context, intentID string, status Status) error {
	query, args, err := db.PSQL.
		Update("payments").
		Set("status", status).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"intent_id": intentID}).
		Where(sq.NotEq{"status": []Status{StatusConsumed, StatusRefunded, StatusRefunding}}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	if err := r.closedOrMissing(ctx, r.db, intentID); !errors.Is(err, ErrPaymentClosed) {
		return err
	}
	return nil
}

func (r *repository) MarkConsumed(ctx context.Context, q db.DBTX, intentID string, orderID uint) error {
	if q == nil {
		q = r.db
	}

	query, args, err := db.PSQL.
		Update("payments").
		Set("status", StatusConsumed).
		Set("order_id", orderID).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"intent_id": intentID}).
		Where(sq.NotEq{"status": []Status{StatusRefunded, StatusRefunding}}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.closedOrMissing(ctx, q, intentID)
	}
	return nil
}

func (r *repository) ClaimRefund(ctx context.Context, intentID string) error {
	query, args, err := db.PSQL.
		Update("payments").
		Set("status", StatusRefunding).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"intent_id": intentID}).
		Where(sq.NotEq{"status": []Status{StatusConsumed, StatusRefunded, StatusRefunding}}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.closedOrMissing(ctx, r.db, intentID)
	}
	return nil
}

func (r *repository) ReleaseRefund(ctx context.Context, intentID string, to Status) error {
	query, args, err := db.PSQL.
		Update("payments").
		Set("status", to).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"intent_id": intentID, "status": StatusRefunding}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *repository) MarkRefunded(ctx context.Context, intentID string) error {
	query, args, err := db.PSQL.
		Update("payments").
		Set("status", StatusRefunded).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"intent_id": intentID}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *repository) ListUnconsumed(ctx context.Context, before time.Time) ([]Payment, error) {
	query, args, err := db.PSQL.
		Select(paymentColumns...).
		From("payments").
		Where(sq.Eq{"status": []Status{StatusCreated, StatusSucceeded}}).
		Where(sq.Eq{"order_id": nil}).
		Where(sq.Lt{"created_at": before}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

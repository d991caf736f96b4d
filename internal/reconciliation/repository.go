package reconciliation

import (
	"context"
	"database/sql"
	"errors"

	"boutique-be/internal/db"

	sq "github.com/Masterminds/squirrel"
)

type Repository interface {
	// Create stores a case. A second open case for the same payment is
	// ignored and reported as created=false.
	Create(ctx context.Context, c *Case) (created bool, err error)
	Get(ctx context.Context, id string) (*Case, error)
	// GetOpenByReference returns the open case of a payment, if any.
	GetOpenByReference(ctx context.Context, ref string) (*Case, error)
	ListOpen(ctx context.Context, limit uint64) ([]Case, error)
	Close(ctx context.Context, id string, status Status, note string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

var caseColumns = []string{
	"id", "payment_reference", "user_id", "amount_minor", "currency",
	"kind", "reason", "status", "note", "created_at", "closed_at",
}

func scanCase(row interface{ Scan(...any) error }) (*Case, error) {
	var c Case
	var closedAt sql.NullTime
	if err := row.Scan(
		&c.ID, &c.PaymentReference, &c.UserID, &c.AmountMinor, &c.Currency,
		&c.Kind, &c.Reason, &c.Status, &c.Note, &c.CreatedAt, &closedAt,
	); err != nil {
		return nil, err
	}
	if closedAt.Valid {
		c.ClosedAt = &closedAt.Time
	}
	return &c, nil
}

func (r *repository) Create(ctx context.Context, c *Case) (bool, error) {
	query, args, err := db.PSQL.
		Insert("payment_reconciliations").
		Columns("id", "payment_reference", "user_id", "amount_minor", "currency", "kind", "reason", "status").
		Values(c.ID, c.PaymentReference, c.UserID, c.AmountMinor, c.Currency, c.Kind, c.Reason, c.Status).
		Suffix("ON CONFLICT DO NOTHING RETURNING created_at").
		ToSql()
	if err != nil {
		return false, err
	}

	err = r.db.QueryRowContext(ctx, query, args...).Scan(&c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *repository) Get(ctx context.Context, id string) (*Case, error) {
	query, args, err := db.PSQL.
		Select(caseColumns...).
		From("payment_reconciliations").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	c, err := scanCase(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCaseNotFound
	}
	return c, err
}

func (r *repository) GetOpenByReference(ctx context.Context, ref string) (*Case, error) {
	query, args, err := db.PSQL.
		Select(caseColumns...).
		From("payment_reconciliations").
		Where(sq.Eq{"payment_reference": ref, "status": StatusOpen}).
		ToSql()
	if err != nil {
		return nil, err
	}

	c, err := scanCase(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCaseNotFound
	}
	return c, err
}

func (r *repository) ListOpen(ctx context.Context, limit uint64) ([]Case, error) {
	q := db.PSQL.
		Select(caseColumns...).
		From("payment_reconciliations").
		Where(sq.Eq{"status": StatusOpen}).
		OrderBy("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cases := []Case{}
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, *c)
	}
	return cases, rows.Err()
}

func (r *repository) Close(ctx context.Context, id string, status Status, note string) error {
	query, args, err := db.PSQL.
		Update("payment_reconciliations").
		Set("status", status).
		Set("note", note).
		Set("closed_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "status": StatusOpen}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return ErrCaseClosed
	}
	return nil
}

package reconciliation

import (
	"context"
	"errors"
	"time"

	"boutique-be/internal/logger"
	"boutique-be/internal/metrics"
	"boutique-be/internal/payment"
	"boutique-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	// Record opens a case. It never requires an admin: checkout calls it.
	Record(ctx context.Context, c Case) (*Case, error)
	ListOpen(ctx context.Context, limit uint64) ([]Case, error)
	Refund(ctx context.Context, id string) (*Case, error)
	Resolve(ctx context.Context, id string, note string) (*Case, error)
	SweepOrphans(ctx context.Context, olderThan time.Duration) (SweepResult, error)
}

type service struct {
	repo     Repository
	payments payment.Repository
	gateway  payment.Gateway
	metrics  *metrics.Checkout
	now      func() time.Time
}

func NewService(repo Repository, payments payment.Repository, gateway payment.Gateway, m *metrics.Checkout) Service {
	if m == nil {
		m = metrics.NewCheckout()
	}
	return &service{
		repo:     repo,
		payments: payments,
		gateway:  gateway,
		metrics:  m,
		now:      time.Now,
	}
}

func (s *service) Record(ctx context.Context, c Case) (*Case, error) {
	stored, _, err := s.open(ctx, c)
	return stored, err
}

// open stores a new case, or returns the case already open for the same
// payment with created=false.
func (s *service) open(ctx context.Context, c Case) (*Case, bool, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "RecordReconciliation"),
		zap.String("payment_reference", c.PaymentReference),
		zap.String("kind", string(c.Kind)),
	)

	if c.PaymentReference == "" {
		return nil, false, ErrMissingReference
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Status = StatusOpen

	created, err := s.repo.Create(ctx, &c)
	if err != nil {
		log.Error("failed to record reconciliation case",
			zap.Bool("reconciliation_required", true),
			zap.Int64("amount_minor", c.AmountMinor),
			zap.Error(err),
		)
		return nil, false, err
	}
	if !created {
		existing, err := s.repo.GetOpenByReference(ctx, c.PaymentReference)
		if err != nil {
			log.Error("reconciliation case exists but could not be loaded", zap.Error(err))
			return nil, false, err
		}
		log.Info("reconciliation case already open", zap.String("case_id", existing.ID))
		return existing, false, nil
	}

	log.Error("reconciliation case opened",
		zap.Bool("reconciliation_required", true),
		zap.String("case_id", c.ID),
		zap.Uint("user_id", c.UserID),
		zap.Int64("amount_minor", c.AmountMinor),
		zap.String("reason", c.Reason),
	)
	return &c, true, nil
}

func (s *service) ListOpen(ctx context.Context, limit uint64) ([]Case, error) {
	if !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}
	return s.repo.ListOpen(ctx, limit)
}

// Refund returns the money of an open case through the gateway. Payments
// that already produced an order are never refunded from here.
func (s *service) Refund(ctx context.Context, id string) (*Case, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "RefundReconciliation"),
		zap.String("case_id", id),
	)

	if !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}

	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != StatusOpen {
		return nil, ErrCaseClosed
	}

	p, err := s.payments.GetByIntentID(ctx, c.PaymentReference)
	if err != nil && !errors.Is(err, payment.ErrPaymentNotFound) {
		return nil, err
	}

	// The claim keeps a late checkout from consuming the payment while the
	// provider refund is in flight.
	claimed := false
	if p != nil {
		switch err := s.payments.ClaimRefund(ctx, c.PaymentReference); {
		case errors.Is(err, payment.ErrPaymentClosed):
			log.Warn("refund refused: payment already consumed or refunded", zap.String("payment_reference", c.PaymentReference))
			return nil, ErrPaymentConsumed
		case errors.Is(err, payment.ErrPaymentNotFound):
		case err != nil:
			return nil, err
		default:
			claimed = true
		}
	}

	refund, err := s.gateway.Refund(ctx, c.PaymentReference, string(c.Kind))
	if err != nil {
		if claimed {
			if rerr := s.payments.ReleaseRefund(ctx, c.PaymentReference, p.Status); rerr != nil {
				log.Warn("failed to release refund claim", zap.Error(rerr))
			}
		}
		s.metrics.RefundFailures.Inc()
		log.Error("operator refund failed", zap.Error(err))
		return nil, err
	}
	s.metrics.Refunds.Inc()

	if err := s.payments.MarkRefunded(ctx, c.PaymentReference); err != nil {
		log.Warn("failed to mark payment refunded", zap.Error(err))
	}

	note := "refunded: " + refund.ID
	if err := s.repo.Close(ctx, id, StatusRefunded, note); err != nil {
		log.Error("refund issued but case not closed", zap.String("refund_id", refund.ID), zap.Error(err))
		return nil, err
	}

	log.Info("reconciliation case refunded", zap.String("refund_id", refund.ID))
	return s.repo.Get(ctx, id)
}

func (s *service) Resolve(ctx context.Context, id string, note string) (*Case, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ResolveReconciliation"),
		zap.String("case_id", id),
	)

	if !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}

	if err := s.repo.Close(ctx, id, StatusResolved, note); err != nil {
		return nil, err
	}

	log.Info("reconciliation case resolved")
	return s.repo.Get(ctx, id)
}

// SweepOrphans finds payments with no order older than the cutoff and asks
// the gateway about each one. Paid intents become cases; cancelled ones are
// marked failed locally.
func (s *service) SweepOrphans(ctx context.Context, olderThan time.Duration) (SweepResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "SweepOrphans"),
		zap.Duration("older_than", olderThan),
	)

	var res SweepResult

	cutoff := s.now().Add(-olderThan)
	pending, err := s.payments.ListUnconsumed(ctx, cutoff)
	if err != nil {
		log.Error("failed to list unconsumed payments", zap.Error(err))
		return res, err
	}

	for _, p := range pending {
		res.Checked++

		intent, err := s.gateway.GetIntent(ctx, p.IntentID)
		if err != nil {
			res.Failed++
			log.Warn("failed to check intent", zap.String("intent_id", p.IntentID), zap.Error(err))
			continue
		}

		switch intent.Status {
		case payment.IntentSucceeded:
			_, created, err := s.open(ctx, Case{
				PaymentReference: p.IntentID,
				UserID:           p.UserID,
				AmountMinor:      intent.AmountMinor,
				Currency:         intent.Currency,
				Kind:             KindOrphanedPayment,
				Reason:           "payment succeeded without an order",
			})
			if err != nil {
				res.Failed++
				continue
			}
			if created {
				res.Opened++
			}
		case payment.IntentCanceled:
			if err := s.payments.UpdateStatus(ctx, p.IntentID, payment.StatusFailed); err != nil {
				log.Warn("failed to mark cancelled intent", zap.String("intent_id", p.IntentID), zap.Error(err))
			}
		}
	}

	log.Info("orphan sweep finished",
		zap.Int("checked", res.Checked),
		zap.Int("opened", res.Opened),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

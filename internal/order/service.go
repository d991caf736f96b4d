package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"boutique-be/internal/cart"
	"boutique-be/internal/db"
	"boutique-be/internal/inventory"
	"boutique-be/internal/logger"
	"boutique-be/internal/metrics"
	"boutique-be/internal/payment"
	"boutique-be/internal/pricing"
	"boutique-be/internal/product"
	"boutique-be/internal/reconciliation"
	"boutique-be/internal/utils"

	"go.uber.org/zap"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100

	// commitTimeout bounds the work done after a payment is verified. The
	// commit is detached from the caller so a dropped connection cannot
	// abort it halfway.
	commitTimeout = 30 * time.Second
)

type Service interface {
	CreatePaymentIntent(ctx context.Context, in IntentInput) (*IntentResult, error)
	PlaceOrder(ctx context.Context, in PlaceOrderInput) (*Order, error)
	GetOrder(ctx context.Context, id uint) (*Order, error)
	ListOrders(ctx context.Context, filter ListFilter) ([]Order, error)
	RecentOrders(ctx context.Context, limit uint64) ([]Order, error)
	UpdateStatus(ctx context.Context, id uint, status Status) (*Order, error)
	Stats(ctx context.Context) (*Stats, error)
}

// Catalog prices checkout lines.
type Catalog interface {
	CatalogEntries(ctx context.Context, ids []uint) (map[uint]product.CatalogEntry, error)
}

// StockReader gives an advisory stock read before a payment is created.
type StockReader interface {
	GetVariant(ctx context.Context, q db.DBTX, productID uint, size int) (*inventory.Variant, error)
}

// Reconciler records payments that need an operator.
type Reconciler interface {
	Record(ctx context.Context, c reconciliation.Case) (*reconciliation.Case, error)
}

type Deps struct {
	Repo       Repository
	Catalog    Catalog
	Stock      StockReader
	Payments   payment.Repository
	Gateway    payment.Gateway
	Calculator *pricing.Calculator
	Reconciler Reconciler
	Metrics    *metrics.Checkout
	Currency   string
}

type service struct {
	repo       Repository
	catalog    Catalog
	stock      StockReader
	payments   payment.Repository
	gateway    payment.Gateway
	calculator *pricing.Calculator
	reconciler Reconciler
	metrics    *metrics.Checkout
	currency   string
}

func NewService(d Deps) Service {
	s := &service{
		repo:       d.Repo,
		catalog:    d.Catalog,
		stock:      d.Stock,
		payments:   d.Payments,
		gateway:    d.Gateway,
		calculator: d.Calculator,
		reconciler: d.Reconciler,
		metrics:    d.Metrics,
		currency:   strings.ToLower(d.Currency),
	}
	if s.calculator == nil {
		s.calculator = pricing.NewCalculator(pricing.DefaultConfig())
	}
	if s.metrics == nil {
		s.metrics = metrics.NewCheckout()
	}
	if s.currency == "" {
		s.currency = "eur"
	}
	return s
}

// quote prices items against the catalog. Client prices must equal the
// current catalog price.
func (s *service) quote(ctx context.Context, items []cart.Item, method pricing.ShippingMethod) ([]Line, pricing.Totals, error) {
	c, err := cart.FromItems(items)
	if err != nil {
		return nil, pricing.Totals{}, invalid("items", err)
	}

	cartLines := c.Lines()
	ids := make([]uint, 0, len(cartLines))
	for _, l := range cartLines {
		ids = append(ids, l.ProductID)
	}

	entries, err := s.catalog.CatalogEntries(ctx, ids)
	if err != nil {
		return nil, pricing.Totals{}, fmt.Errorf("load catalog prices: %w", err)
	}

	lines := make([]Line, 0, len(cartLines))
	for _, l := range cartLines {
		e, ok := entries[l.ProductID]
		if !ok {
			return nil, pricing.Totals{}, &ValidationError{
				Field:   "items",
				Message: fmt.Sprintf("product %d does not exist", l.ProductID),
				Err:     ErrUnknownProduct,
			}
		}
		if !e.Price.Equal(l.Price) {
			return nil, pricing.Totals{}, &ValidationError{
				Field:   "items",
				Message: fmt.Sprintf("price of product %d is now %s", l.ProductID, e.Price.StringFixed(2)),
				Err:     ErrPriceChanged,
			}
		}
		lines = append(lines, Line{
			ProductID: l.ProductID,
			Size:      l.Size,
			Quantity:  l.Quantity,
			Price:     e.Price,
			Name:      e.Name,
		})
	}

	totals, err := s.calculator.Calculate(c.PricingLines(), method)
	switch {
	case errors.Is(err, pricing.ErrUnknownShippingMethod), errors.Is(err, pricing.ErrFreeShippingNotEligible):
		return nil, pricing.Totals{}, invalid("shippingMethod", err)
	case err != nil:
		return nil, pricing.Totals{}, invalid("items", err)
	}
	return lines, totals, nil
}

// precheck reports lines that are already short. It takes no locks; the
// commit transaction is the authority.
func (s *service) precheck(ctx context.Context, lines []Line) error {
	keys, totals := demand(lines)
	var short []ShortLine
	for _, k := range keys {
		v, err := s.stock.GetVariant(ctx, nil, k.ProductID, k.Size)
		if errors.Is(err, inventory.ErrVariantNotFound) {
			short = append(short, ShortLine{ProductID: k.ProductID, Size: k.Size, Requested: totals[k]})
			continue
		}
		if err != nil {
			return err
		}
		if v.Quantity < totals[k] {
			short = append(short, ShortLine{ProductID: k.ProductID, Size: k.Size, Requested: totals[k], Available: v.Quantity})
		}
	}
	if len(short) > 0 {
		return &InsufficientStockError{Lines: short}
	}
	return nil
}

func (s *service) CreatePaymentIntent(ctx context.Context, in IntentInput) (*IntentResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreatePaymentIntent"),
	)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	currency := strings.ToLower(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = s.currency
	}
	if currency != s.currency {
		return nil, invalid("currency", payment.ErrInvalidCurrency)
	}

	lines, totals, err := s.quote(ctx, in.Items, in.ShippingMethod)
	if err != nil {
		return nil, err
	}

	amount := pricing.MinorUnits(totals.Total)
	if amount <= 0 {
		return nil, invalid("items", payment.ErrInvalidAmount)
	}
	if in.AmountMinorUnits != nil && *in.AmountMinorUnits != amount {
		log.Warn("client amount differs from server total",
			zap.Int64("client_amount", *in.AmountMinorUnits),
			zap.Int64("server_amount", amount),
		)
		return nil, &ValidationError{
			Field:   "amountMinorUnits",
			Message: fmt.Sprintf("expected %d", amount),
			Err:     ErrPaymentMismatch,
		}
	}

	if err := s.precheck(ctx, lines); err != nil {
		return nil, err
	}

	intent, err := s.gateway.CreateIntent(ctx, amount, currency, map[string]string{
		"user_id": strconv.FormatUint(uint64(userID), 10),
	})
	if err != nil {
		log.Error("failed to create payment intent", zap.Error(err))
		return nil, err
	}

	quote, err := json.Marshal(paidCart{ShippingMethod: in.ShippingMethod, Lines: lines, Totals: totals})
	if err != nil {
		return nil, fmt.Errorf("encode quote: %w", err)
	}

	if err := s.payments.Create(ctx, &payment.Payment{
		IntentID:    intent.ID,
		UserID:      userID,
		AmountMinor: amount,
		Currency:    currency,
		Status:      payment.StatusCreated,
		Quote:       quote,
	}); err != nil {
		log.Error("failed to record payment", zap.String("intent_id", intent.ID), zap.Error(err))
		return nil, err
	}

	s.metrics.IntentsCreated.Inc()
	log.Info("payment intent created",
		zap.String("intent_id", intent.ID),
		zap.Int64("amount_minor", amount),
	)

	return &IntentResult{
		ClientContinuationToken: intent.ClientSecret,
		IntentID:                intent.ID,
		AmountMinorUnits:        amount,
		Currency:                currency,
		Totals:                  totals,
	}, nil
}

func validateAddress(a ShippingAddress) error {
	required := []struct{ field, value string }{
		{"shippingAddress.firstName", a.FirstName},
		{"shippingAddress.lastName", a.LastName},
		{"shippingAddress.email", a.Email},
		{"shippingAddress.address", a.Address},
		{"shippingAddress.city", a.City},
		{"shippingAddress.postalCode", a.PostalCode},
		{"shippingAddress.country", a.Country},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field, Message: "is required"}
		}
	}
	if _, err := mail.ParseAddress(a.Email); err != nil {
		return &ValidationError{Field: "shippingAddress.email", Message: "is not a valid email"}
	}
	return nil
}

func (s *service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "PlaceOrder"),
		zap.String("payment_reference", in.PaymentReference),
	)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	ref := strings.TrimSpace(in.PaymentReference)
	if ref == "" {
		return nil, &ValidationError{Field: "paymentReference", Message: "is required"}
	}
	if err := validateAddress(in.ShippingAddress); err != nil {
		return nil, err
	}

	submitted, err := cart.FromItems(in.Items)
	if err != nil {
		return nil, invalid("items", err)
	}

	existing, err := s.repo.GetByPaymentReference(ctx, ref)
	switch {
	case err == nil:
		return s.replay(log, existing, userID)
	case !errors.Is(err, ErrOrderNotFound):
		log.Error("failed to look up order by payment", zap.Error(err))
		return nil, err
	}

	p, err := s.payments.GetByIntentID(ctx, ref)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		log.Warn("payment belongs to another user")
		return nil, payment.ErrPaymentNotFound
	}

	intent, err := s.gateway.GetIntent(ctx, ref)
	if err != nil {
		log.Error("failed to verify payment", zap.Error(err))
		return nil, err
	}
	if !intent.Succeeded() || p.Status == payment.StatusRefunded || p.Status == payment.StatusRefunding {
		s.metrics.PaymentRejected.Inc()
		log.Info("payment not completed", zap.String("intent_status", string(intent.Status)))
		return nil, ErrPaymentNotSucceeded
	}

	// Money has been taken from here on. Every failure below ends in a
	// refund or a reconciliation case.
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()

	var paid paidCart
	if len(p.Quote) > 0 {
		if err := json.Unmarshal(p.Quote, &paid); err != nil {
			return nil, s.requireReconciliation(commitCtx, log, p, fmt.Errorf("%w: %v", ErrQuoteMissing, err))
		}
	}
	if len(paid.Lines) == 0 {
		return nil, s.requireReconciliation(commitCtx, log, p, ErrQuoteMissing)
	}

	amount := pricing.MinorUnits(paid.Totals.Total)
	if intent.AmountMinor != amount || p.AmountMinor != amount || !strings.EqualFold(intent.Currency, p.Currency) {
		s.metrics.PaymentRejected.Inc()
		log.Warn("payment does not match order",
			zap.Int64("charged", intent.AmountMinor),
			zap.Int64("expected", amount),
			zap.String("currency", intent.Currency),
		)
		return nil, s.requireReconciliation(commitCtx, log, p,
			fmt.Errorf("%w: charged %d, order total %d", ErrPaymentMismatch, intent.AmountMinor, amount))
	}

	if !paid.matches(submitted, in.ShippingMethod) {
		log.Warn("submitted cart differs from the paid cart, committing the paid cart",
			zap.Int("submitted_lines", len(submitted.Lines())),
			zap.Int("paid_lines", len(paid.Lines)),
		)
	}

	o := &Order{
		UserID:           userID,
		Total:            paid.Totals.Subtotal,
		ShippingMethod:   paid.ShippingMethod,
		ShippingCost:     paid.Totals.ShippingCost,
		Tax:              paid.Totals.Tax,
		AmountCharged:    paid.Totals.Total,
		Currency:         p.Currency,
		Status:           StatusPending,
		ShippingAddress:  in.ShippingAddress,
		PaymentReference: ref,
		Lines:            paid.Lines,
	}

	timer := metrics.StartTimer()
	err = s.repo.Commit(commitCtx, o)
	s.metrics.CommitDuration.Observe(timer.Duration())

	var stockErr *InsufficientStockError
	switch {
	case err == nil:
		s.metrics.OrdersCommitted.Inc()
		log.Info("order committed",
			zap.Uint("order_id", o.ID),
			zap.Int64("amount_minor", amount),
		)
		return o, nil

	case errors.Is(err, ErrDuplicatePayment):
		// A concurrent submit of the same payment won the insert.
		existing, gerr := s.repo.GetByPaymentReference(commitCtx, ref)
		if gerr != nil {
			return nil, s.requireReconciliation(commitCtx, log, p, gerr)
		}
		return s.replay(log, existing, userID)

	case errors.Is(err, payment.ErrPaymentClosed):
		// A refund claimed the payment between verification and commit.
		s.metrics.PaymentRejected.Inc()
		log.Warn("payment refunded before the order committed", zap.Error(err))
		return nil, ErrPaymentNotSucceeded

	case errors.As(err, &stockErr):
		s.metrics.InsufficientStock.Inc()
		log.Warn("insufficient stock at commit", zap.Any("lines", stockErr.Lines))
		stockErr.Refunded = s.refund(commitCtx, log, p)
		return nil, stockErr

	default:
		return nil, s.requireReconciliation(commitCtx, log, p, err)
	}
}

func (s *service) replay(log *zap.Logger, o *Order, userID uint) (*Order, error) {
	if o.UserID != userID {
		log.Warn("payment reference used by another user's order")
		return nil, payment.ErrPaymentNotFound
	}
	s.metrics.IdempotentReplays.Inc()
	log.Info("returning existing order for payment", zap.Uint("order_id", o.ID))
	return o, nil
}

// refund returns the money for an order that could not be fulfilled. A
// failed refund is handed to an operator.
func (s *service) refund(ctx context.Context, log *zap.Logger, p *payment.Payment) bool {
	if err := s.payments.ClaimRefund(ctx, p.IntentID); err != nil {
		if errors.Is(err, payment.ErrPaymentClosed) {
			log.Warn("payment already closed, skipping automatic refund")
			return false
		}
		log.Error("failed to claim payment for refund", zap.Error(err))
		s.record(ctx, log, p, reconciliation.KindRefundFailed, err)
		return false
	}

	r, err := s.gateway.Refund(ctx, p.IntentID, "insufficient_stock")
	if err != nil {
		if rerr := s.payments.ReleaseRefund(ctx, p.IntentID, p.Status); rerr != nil {
			log.Warn("failed to release refund claim", zap.Error(rerr))
		}
		s.metrics.RefundFailures.Inc()
		log.Error("automatic refund failed", zap.Bool("reconciliation_required", true), zap.Error(err))
		s.record(ctx, log, p, reconciliation.KindRefundFailed, err)
		return false
	}

	s.metrics.Refunds.Inc()
	if err := s.payments.MarkRefunded(ctx, p.IntentID); err != nil {
		log.Warn("failed to mark payment refunded", zap.Error(err))
	}
	log.Info("payment refunded", zap.String("refund_id", r.ID))
	return true
}

func (s *service) requireReconciliation(ctx context.Context, log *zap.Logger, p *payment.Payment, cause error) error {
	s.metrics.ReconciliationRequired.Inc()
	log.Error("payment captured but order not committed",
		zap.Bool("reconciliation_required", true),
		zap.Uint("user_id", p.UserID),
		zap.Int64("amount_minor", p.AmountMinor),
		zap.Error(cause),
	)

	rerr := &ReconciliationRequiredError{PaymentReference: p.IntentID, Err: cause}
	if c := s.record(ctx, log, p, reconciliation.KindCommitFailed, cause); c != nil {
		rerr.CaseID = c.ID
	}
	return rerr
}

func (s *service) record(ctx context.Context, log *zap.Logger, p *payment.Payment, kind reconciliation.Kind, cause error) *reconciliation.Case {
	if s.reconciler == nil {
		return nil
	}
	c, err := s.reconciler.Record(ctx, reconciliation.Case{
		PaymentReference: p.IntentID,
		UserID:           p.UserID,
		AmountMinor:      p.AmountMinor,
		Currency:         p.Currency,
		Kind:             kind,
		Reason:           cause.Error(),
	})
	if err != nil {
		log.Error("failed to open reconciliation case", zap.Bool("reconciliation_required", true), zap.Error(err))
		return nil
	}
	return c
}

func (s *service) GetOrder(ctx context.Context, id uint) (*Order, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID && !utils.IsAdmin(ctx) {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *service) ListOrders(ctx context.Context, filter ListFilter) ([]Order, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !utils.IsAdmin(ctx) {
		filter.UserID = &userID
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if filter.Limit == 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	return s.repo.List(ctx, filter)
}

func (s *service) RecentOrders(ctx context.Context, limit uint64) ([]Order, error) {
	if !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}
	if limit == 0 || limit > maxListLimit {
		limit = 5
	}
	return s.repo.List(ctx, ListFilter{Limit: limit})
}

func (s *service) UpdateStatus(ctx context.Context, id uint, status Status) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateOrderStatus"),
		zap.Uint("order_id", id),
	)

	if !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransitionTo(status) {
		return nil, ErrInvalidStatusTransition
	}

	if err := s.repo.UpdateStatus(ctx, id, o.Status, status); err != nil {
		log.Warn("failed to update order status", zap.Error(err))
		return nil, err
	}

	log.Info("order status updated",
		zap.String("from", string(o.Status)),
		zap.String("to", string(status)),
	)
	o.Status = status
	return o, nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	if !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}
	return s.repo.Stats(ctx)
}

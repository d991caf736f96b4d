package metrics

// Checkout counts the outcomes of payment and order placement.
type Checkout struct {
	IntentsCreated         Counter
	OrdersCommitted        Counter
	IdempotentReplays      Counter
	InsufficientStock      Counter
	PaymentRejected        Counter
	ReconciliationRequired Counter
	Refunds                Counter
	RefundFailures         Counter

	CommitDuration Gauge
}

type CheckoutSnapshot struct {
	IntentsCreated         uint64 `json:"intentsCreated"`
	OrdersCommitted        uint64 `json:"ordersCommitted"`
	IdempotentReplays      uint64 `json:"idempotentReplays"`
	InsufficientStock      uint64 `json:"insufficientStock"`
	PaymentRejected        uint64 `json:"paymentRejected"`
	ReconciliationRequired uint64 `json:"reconciliationRequired"`
	Refunds                uint64 `json:"refunds"`
	RefundFailures         uint64 `json:"refundFailures"`
	LastCommitMillis       int64  `json:"lastCommitMillis"`
	MaxCommitMillis        int64  `json:"maxCommitMillis"`
}

func NewCheckout() *Checkout {
	return &Checkout{}
}

func (c *Checkout) Snapshot() CheckoutSnapshot {
	return CheckoutSnapshot{
		IntentsCreated:         c.IntentsCreated.Load(),
		OrdersCommitted:        c.OrdersCommitted.Load(),
		IdempotentReplays:      c.IdempotentReplays.Load(),
		InsufficientStock:      c.InsufficientStock.Load(),
		PaymentRejected:        c.PaymentRejected.Load(),
		ReconciliationRequired: c.ReconciliationRequired.Load(),
		Refunds:                c.Refunds.Load(),
		RefundFailures:         c.RefundFailures.Load(),
		LastCommitMillis:       c.CommitDuration.Last().Milliseconds(),
		MaxCommitMillis:        c.CommitDuration.Max().Milliseconds(),
	}
}

package reconciliation

import (
	"time"
)

type Kind string

const (
	// KindCommitFailed: the payment succeeded but the order could not be
	// written for an infrastructure reason.
	KindCommitFailed Kind = "commit_failed"
	// KindRefundFailed: stock ran out after payment and the refund failed.
	KindRefundFailed Kind = "refund_failed"
	// KindOrphanedPayment: found by the sweeper, paid but never ordered.
	KindOrphanedPayment Kind = "orphaned_payment"
)

type Status string

const (
	StatusOpen     Status = "open"
	StatusRefunded Status = "refunded"
	StatusResolved Status = "resolved"
)

type Case struct {
	ID               string     `json:"id"`
	PaymentReference string     `json:"paymentReference"`
	UserID           uint       `json:"userId"`
	AmountMinor      int64      `json:"amountMinor"`
	Currency         string     `json:"currency"`
	Kind             Kind       `json:"kind"`
	Reason           string     `json:"reason"`
	Status           Status     `json:"status"`
	Note             string     `json:"note,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	ClosedAt         *time.Time `json:"closedAt,omitempty"`
}

type SweepResult struct {
	Checked int `json:"checked"`
	Opened  int `json:"opened"`
	Failed  int `json:"failed"`
}

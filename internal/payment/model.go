package payment

import (
	"time"
)

type Status string

const (
	StatusCreated   Status = "created"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusConsumed  Status = "consumed"
	StatusRefunded  Status = "refunded"

	// StatusRefunding marks a payment claimed by a refund in flight.
	StatusRefunding Status = "refunding"
)

// Payment is the local record of one intent created for a user.
type Payment struct {
	ID          uint
	IntentID    string
	UserID      uint
	AmountMinor int64
	Currency    string
	Status      Status
	OrderID     *uint
	// Quote is the priced cart the intent was created for, as JSON.
	Quote       []byte
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

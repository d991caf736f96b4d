package payment

import (
	"context"
)

// Gateway is the external payment provider. Amounts are always integer
// minor units of Currency.
type Gateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*Intent, error)
	GetIntent(ctx context.Context, intentID string) (*Intent, error)
	Refund(ctx context.Context, intentID string, reason string) (*Refund, error)
	VerifyWebhook(payload []byte, signatureHeader string) (*Event, error)
}

type IntentStatus string

const (
	IntentRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentRequiresConfirmation  IntentStatus = "requires_confirmation"
	IntentRequiresAction        IntentStatus = "requires_action"
	IntentProcessing            IntentStatus = "processing"
	IntentSucceeded             IntentStatus = "succeeded"
	IntentCanceled              IntentStatus = "canceled"
)

// Intent is the provider's view of a payment. ClientSecret is the
// continuation token the storefront uses to confirm the payment.
type Intent struct {
	ID           string            `json:"id"`
	AmountMinor  int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Status       IntentStatus      `json:"status"`
	ClientSecret string            `json:"client_secret"`
	Metadata     map[string]string `json:"metadata"`
}

func (i *Intent) Succeeded() bool {
	return i.Status == IntentSucceeded
}

type Refund struct {
	ID          string `json:"id"`
	IntentID    string `json:"payment_intent"`
	AmountMinor int64  `json:"amount"`
	Status      string `json:"status"`
}

const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
	EventIntentCanceled  = "payment_intent.canceled"
)

// Event is a verified webhook notification.
type Event struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Intent Intent `json:"-"`
}

package payment

import (
	"errors"
	"fmt"
)

var (
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrPaymentClosed     = errors.New("payment already refunded or consumed")
	ErrInvalidSignature  = errors.New("invalid webhook signature")
	ErrSignatureExpired  = errors.New("webhook signature timestamp outside tolerance")
	ErrMissingSecret     = errors.New("webhook secret not configured")
	ErrInvalidAmount     = errors.New("payment amount must be positive")
	ErrInvalidCurrency   = errors.New("invalid currency")
	ErrMalformedResponse = errors.New("malformed gateway response")
)

// GatewayError is any failure reported by, or on the way to, the payment
// provider. StatusCode is zero when no response was received.
type GatewayError struct {
	StatusCode int
	Code       string
	Reason     string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("payment gateway error (status %d, code %s): %s", e.StatusCode, e.Code, e.Reason)
	}
	return fmt.Sprintf("payment gateway error (status %d): %s", e.StatusCode, e.Reason)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

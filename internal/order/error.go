package order

import (
	"errors"
	"fmt"
	"strings"

	"boutique-be/internal/inventory"
)

var (
	// -- Authorization --
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden: admin access required")

	// -- Resource State --
	ErrOrderNotFound           = errors.New("order not found")
	ErrInvalidStatus           = errors.New("invalid order status")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrDuplicatePayment        = errors.New("payment reference already used")

	// -- Payment --
	ErrPaymentNotSucceeded = errors.New("payment has not succeeded")
	ErrPaymentMismatch     = errors.New("payment does not match the order total")
	ErrQuoteMissing        = errors.New("payment has no usable stored quote")

	// -- Catalog --
	ErrUnknownProduct = errors.New("product does not exist")
	ErrPriceChanged   = errors.New("price changed since the cart was built")
)

// ValidationError is malformed input rejected before any side effect.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: err.Error(), Err: err}
}

type ShortLine struct {
	ProductID uint `json:"productId"`
	Size      int  `json:"size"`
	Requested int  `json:"requested"`
	Available int  `json:"available"`
}

// InsufficientStockError lists every line that failed re-validation. No
// stock was decremented and no order exists when it is returned.
type InsufficientStockError struct {
	Lines []ShortLine

	// Refunded reports whether the captured payment was returned.
	Refunded bool
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		parts = append(parts, fmt.Sprintf("product %d size %d (requested %d, available %d)",
			l.ProductID, l.Size, l.Requested, l.Available))
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

func (e *InsufficientStockError) Unwrap() error {
	return inventory.ErrInsufficientStock
}

// ReconciliationRequiredError means money was collected but no order could
// be written. It is never a stock problem.
type ReconciliationRequiredError struct {
	PaymentReference string
	CaseID           string
	Err              error
}

func (e *ReconciliationRequiredError) Error() string {
	return fmt.Sprintf("reconciliation required for payment %s: %v", e.PaymentReference, e.Err)
}

func (e *ReconciliationRequiredError) Unwrap() error {
	return e.Err
}

package inventory

import (
	"errors"
	"fmt"
)

var (
	// -- Validation & Input --
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrInvalidSize   = errors.New("size must be between 2 and 10")
	ErrRestockLimit  = errors.New("restock amount exceeds limit")

	// -- Resource State --
	ErrVariantNotFound   = errors.New("variant not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")

	// -- Permission --
	ErrForbidden = errors.New("forbidden: admin access required")
)

// ShortageError reports the live quantity of a variant that could not
// cover a decrement. It matches ErrInsufficientStock with errors.Is.
type ShortageError struct {
	ProductID uint
	Size      int
	Requested int
	Available int
}

func (e *ShortageError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d size %d: requested %d, available %d",
		e.ProductID, e.Size, e.Requested, e.Available)
}

func (e *ShortageError) Unwrap() error {
	return ErrInsufficientStock
}

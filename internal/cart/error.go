package cart

import "errors"

var (
	// -- Validation & Input --
	ErrInvalidQuantity = errors.New("invalid cart quantity")
	ErrInvalidSize     = errors.New("invalid size")
	ErrInvalidProduct  = errors.New("invalid product id")
	ErrInvalidPrice    = errors.New("invalid price")
	ErrQuantityTooHigh = errors.New("quantity exceeds the per-line limit")

	// -- Resource State --
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrCartEmpty        = errors.New("cart is empty")
)

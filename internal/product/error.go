package product

import "errors"

var (
	// -- Validation & Input --
	ErrInvalidName     = errors.New("name cannot be empty")
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrInvalidSize     = errors.New("size must be between 2 and 10")
	ErrInvalidStock    = errors.New("stock cannot be negative")
	ErrDuplicateSize   = errors.New("duplicate size")
	ErrNothingToUpdate = errors.New("no fields to update")

	// -- Resource State --
	ErrProductNotFound = errors.New("product not found")

	// -- Permission --
	ErrForbidden = errors.New("forbidden: admin access required")
)

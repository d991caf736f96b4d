package pricing

import "errors"

var (
	ErrUnknownShippingMethod   = errors.New("unknown shipping method")
	ErrFreeShippingNotEligible = errors.New("subtotal does not qualify for free shipping")
	ErrInvalidLine             = errors.New("invalid pricing line")
)

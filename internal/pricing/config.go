package pricing

import (
	"github.com/shopspring/decimal"
)

type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "standard"
	ShippingExpress  ShippingMethod = "express"
	ShippingFree     ShippingMethod = "free"
)

func (m ShippingMethod) Valid() bool {
	switch m {
	case ShippingStandard, ShippingExpress, ShippingFree:
		return true
	}
	return false
}

type FlatRate struct {
	Fee decimal.Decimal
}

type FreeShipping struct {
	// Free shipping is offered only when the subtotal is strictly above this.
	ThresholdSubtotal decimal.Decimal
}

// Config holds every shipping option and the tax rate used by the Calculator.
type Config struct {
	Standard FlatRate
	Express  FlatRate
	Free     FreeShipping
	TaxRate  decimal.Decimal
}

func DefaultConfig() Config {
	return Config{
		Standard: FlatRate{Fee: decimal.RequireFromString("4.99")},
		Express:  FlatRate{Fee: decimal.RequireFromString("9.99")},
		Free:     FreeShipping{ThresholdSubtotal: decimal.NewFromInt(100)},
		TaxRate:  decimal.RequireFromString("0.20"),
	}
}

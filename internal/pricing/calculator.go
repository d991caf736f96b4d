package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Line struct {
	Price    decimal.Decimal
	Quantity int
}

type Totals struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
}

// Calculator turns cart lines and a shipping method into totals. It keeps no
// state between calls.
type Calculator struct {
	cfg Config
}

func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

func (c *Calculator) Config() Config {
	return c.cfg
}

func (c *Calculator) Calculate(lines []Line, method ShippingMethod) (Totals, error) {
	if len(lines) == 0 {
		return Totals{
			Subtotal:     decimal.Zero,
			ShippingCost: decimal.Zero,
			Tax:          decimal.Zero,
			Total:        decimal.Zero,
		}, nil
	}

	subtotal := decimal.Zero
	for i, l := range lines {
		if l.Quantity < 1 || l.Price.IsNegative() {
			return Totals{}, fmt.Errorf("%w: line %d", ErrInvalidLine, i)
		}
		subtotal = subtotal.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	shipping, err := c.ShippingCost(subtotal, method)
	if err != nil {
		return Totals{}, err
	}

	tax := subtotal.Mul(c.cfg.TaxRate).Round(2)

	return Totals{
		Subtotal:     subtotal,
		ShippingCost: shipping,
		Tax:          tax,
		Total:        subtotal.Add(shipping).Add(tax),
	}, nil
}

func (c *Calculator) ShippingCost(subtotal decimal.Decimal, method ShippingMethod) (decimal.Decimal, error) {
	switch method {
	case ShippingStandard:
		return c.cfg.Standard.Fee, nil
	case ShippingExpress:
		return c.cfg.Express.Fee, nil
	case ShippingFree:
		if !c.FreeShippingEligible(subtotal) {
			return decimal.Zero, ErrFreeShippingNotEligible
		}
		return decimal.Zero, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownShippingMethod, method)
	}
}

func (c *Calculator) FreeShippingEligible(subtotal decimal.Decimal) bool {
	return subtotal.GreaterThan(c.cfg.Free.ThresholdSubtotal)
}

// MinorUnits converts an amount to integer cents. Round is half away from
// zero, i.e. half-up for the non-negative totals charged here.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// FromMinorUnits is the inverse of MinorUnits.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

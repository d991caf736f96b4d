package cart

import (
	"fmt"

	"boutique-be/internal/pricing"

	"github.com/shopspring/decimal"
)

// Cart is an ordered collection of lines keyed by (product, size). It lives
// with the caller and is never persisted.
type Cart struct {
	lines []Line
}

func New() *Cart {
	return &Cart{}
}

// FromItems builds a cart out of checkout items, merging repeated
// (product, size) pairs.
func FromItems(items []Item) (*Cart, error) {
	if len(items) == 0 {
		return nil, ErrCartEmpty
	}

	c := New()
	for i, it := range items {
		if err := validate(it.ProductID, it.Size, it.Quantity); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if it.Price.IsNegative() {
			return nil, fmt.Errorf("item %d: %w", i, ErrInvalidPrice)
		}
		if idx := c.index(Key{it.ProductID, it.Size}); idx >= 0 {
			if !c.lines[idx].Price.Equal(it.Price) {
				return nil, fmt.Errorf("item %d: %w: conflicting prices for the same variant", i, ErrInvalidPrice)
			}
			merged := c.lines[idx].Quantity + it.Quantity
			if merged < 1 || merged > MaxLineQuantity {
				return nil, fmt.Errorf("item %d: %w", i, ErrQuantityTooHigh)
			}
			c.lines[idx].Quantity = merged
			continue
		}
		c.lines = append(c.lines, Line{
			ProductID: it.ProductID,
			Size:      it.Size,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	return c, nil
}

func validate(productID uint, size, qty int) error {
	if productID == 0 {
		return ErrInvalidProduct
	}
	if size < MinSize || size > MaxSize {
		return ErrInvalidSize
	}
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if qty > MaxLineQuantity {
		return ErrQuantityTooHigh
	}
	return nil
}

func (c *Cart) index(k Key) int {
	for i, l := range c.lines {
		if l.Key() == k {
			return i
		}
	}
	return -1
}

// Add puts a line in the cart or increases an existing one. Quantities are
// clamped to MaxQuantity when a snapshot is known.
func (c *Cart) Add(l Line) error {
	if err := validate(l.ProductID, l.Size, l.Quantity); err != nil {
		return err
	}
	if idx := c.index(l.Key()); idx >= 0 {
		existing := &c.lines[idx]
		existing.Quantity = clamp(existing.Quantity+l.Quantity, l.MaxQuantity)
		if l.MaxQuantity > 0 {
			existing.MaxQuantity = l.MaxQuantity
		}
		return nil
	}
	l.Quantity = clamp(l.Quantity, l.MaxQuantity)
	c.lines = append(c.lines, l)
	return nil
}

// SetQuantity replaces the quantity of a line; zero removes it.
func (c *Cart) SetQuantity(k Key, qty int) error {
	idx := c.index(k)
	if idx < 0 {
		return ErrCartItemNotFound
	}
	if qty < 0 {
		return ErrInvalidQuantity
	}
	if qty == 0 {
		return c.Remove(k)
	}
	c.lines[idx].Quantity = clamp(qty, c.lines[idx].MaxQuantity)
	return nil
}

func (c *Cart) Remove(k Key) error {
	idx := c.index(k)
	if idx < 0 {
		return ErrCartItemNotFound
	}
	c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
	return nil
}

func (c *Cart) Clear() {
	c.lines = nil
}

func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

func (c *Cart) PricingLines() []pricing.Line {
	out := make([]pricing.Line, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, pricing.Line{Price: l.Price, Quantity: l.Quantity})
	}
	return out
}

func clamp(qty, max int) int {
	if max > 0 && qty > max {
		return max
	}
	return qty
}

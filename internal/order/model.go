package order

import (
	"time"

	"boutique-be/internal/cart"
	"boutique-be/internal/pricing"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusShipped   Status = "shipped"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending: {StatusShipped, StatusCancelled},
	StatusShipped: {StatusCompleted, StatusCancelled},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusShipped, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Line struct {
	ProductID uint            `json:"productId"`
	Size      int             `json:"size"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Name      string          `json:"name,omitempty"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type ShippingAddress struct {
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Email      string  `json:"email"`
	Address    string  `json:"address"`
	City       string  `json:"city"`
	PostalCode string  `json:"postalCode"`
	Country    string  `json:"country"`
	Phone      *string `json:"phone,omitempty"`
}

// Order is immutable once committed apart from Status. Total is the sum of
// its lines at the captured prices.
type Order struct {
	ID               uint                   `json:"id"`
	UserID           uint                   `json:"userId"`
	Total            decimal.Decimal        `json:"total"`
	ShippingMethod   pricing.ShippingMethod `json:"shippingMethod"`
	ShippingCost     decimal.Decimal        `json:"shippingCost"`
	Tax              decimal.Decimal        `json:"tax"`
	AmountCharged    decimal.Decimal        `json:"amountCharged"`
	Currency         string                 `json:"currency"`
	Status           Status                 `json:"status"`
	ShippingAddress  ShippingAddress        `json:"shippingAddress"`
	PaymentReference string                 `json:"paymentReference"`
	CreatedAt        time.Time              `json:"createdAt"`
	UpdatedAt        time.Time              `json:"updatedAt"`
	Lines            []Line                 `json:"lines,omitempty"`
}

type IntentInput struct {
	Items          []cart.Item            `json:"items"`
	ShippingMethod pricing.ShippingMethod `json:"shippingMethod"`
	Currency       string                 `json:"currency"`

	// AmountMinorUnits is the client's own total. When present it must
	// match the server total exactly.
	AmountMinorUnits *int64 `json:"amountMinorUnits,omitempty"`
}

type IntentResult struct {
	ClientContinuationToken string         `json:"clientContinuationToken"`
	IntentID                string         `json:"intentId"`
	AmountMinorUnits        int64          `json:"amountMinorUnits"`
	Currency                string         `json:"currency"`
	Totals                  pricing.Totals `json:"totals"`
}

type PlaceOrderInput struct {
	PaymentReference string                 `json:"paymentReference"`
	ShippingAddress  ShippingAddress        `json:"shippingAddress"`
	Items            []cart.Item            `json:"items"`
	ShippingMethod   pricing.ShippingMethod `json:"shippingMethod"`
}

// paidCart is the priced cart a payment intent was created for. It is
// stored with the payment and is what an order commits once paid.
type paidCart struct {
	ShippingMethod pricing.ShippingMethod `json:"shippingMethod"`
	Lines          []Line                 `json:"lines"`
	Totals         pricing.Totals         `json:"totals"`
}

// matches reports whether a submitted cart asks for the same lines and
// shipping method as the paid one. Prices are not compared.
func (p paidCart) matches(c *cart.Cart, method pricing.ShippingMethod) bool {
	if p.ShippingMethod != method {
		return false
	}
	submitted := c.Lines()
	if len(submitted) != len(p.Lines) {
		return false
	}
	want := make(map[cart.Key]int, len(p.Lines))
	for _, l := range p.Lines {
		want[cart.Key{ProductID: l.ProductID, Size: l.Size}] = l.Quantity
	}
	for _, l := range submitted {
		if want[l.Key()] != l.Quantity {
			return false
		}
	}
	return true
}

type ListFilter struct {
	UserID *uint
	Status *Status
	Limit  uint64
	Offset uint64
}

type Stats struct {
	Orders   int64            `json:"orders"`
	Revenue  decimal.Decimal  `json:"revenue"`
	ByStatus map[Status]int64 `json:"byStatus"`
}

package cart

import (
	"github.com/shopspring/decimal"
)

// Sizes a variant may carry.
const (
	MinSize = 2
	MaxSize = 10
)

// MaxLineQuantity caps one (product, size) line after merging.
const MaxLineQuantity = 99

type Key struct {
	ProductID uint
	Size      int
}

type Line struct {
	ProductID uint            `json:"productId"`
	Size      int             `json:"size"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Name      string          `json:"name,omitempty"`

	// MaxQuantity is the stock seen when the line was selected. It bounds
	// the UI only; stock is checked again when the order is committed.
	MaxQuantity int `json:"maxQuantity,omitempty"`
}

func (l Line) Key() Key {
	return Key{ProductID: l.ProductID, Size: l.Size}
}

// Item is the wire shape of a line sent by the client at checkout.
type Item struct {
	ProductID uint            `json:"productId"`
	Size      int             `json:"size"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

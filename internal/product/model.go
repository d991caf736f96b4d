package product

import (
	"time"

	"boutique-be/internal/inventory"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uint                `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Price       decimal.Decimal     `json:"price"`
	ImageURL    string              `json:"image"`
	Category    string              `json:"category"`
	Color       string              `json:"color"`
	Featured    bool                `json:"featured"`
	Sizes       []inventory.Variant `json:"sizes"`
	TotalStock  int                 `json:"totalStock"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

type SizeStock struct {
	Size     int `json:"size"`
	Quantity int `json:"quantity"`
}

type NewProduct struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image"`
	Category    string          `json:"category"`
	Color       string          `json:"color"`
	Featured    bool            `json:"featured"`
	Sizes       []SizeStock     `json:"sizes"`
}

// UpdateProduct carries only the fields to change. Stock is managed through
// restock, never through product updates.
type UpdateProduct struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	ImageURL    *string          `json:"image,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Color       *string          `json:"color,omitempty"`
	Featured    *bool            `json:"featured,omitempty"`
}

func (u UpdateProduct) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Price == nil && u.ImageURL == nil &&
		u.Category == nil && u.Color == nil && u.Featured == nil
}

type ListOptions struct {
	Category string
	Color    string
	Featured *bool
	Limit    uint64
	Offset   uint64
}

// CatalogEntry is what checkout needs to price a line.
type CatalogEntry struct {
	ID    uint
	Name  string
	Price decimal.Decimal
}

package inventory

import "time"

const (
	MinSize = 2
	MaxSize = 10

	// MaxRestock caps a single admin restock.
	MaxRestock = 10000

	// LowStockThreshold marks a variant as running low on the dashboard.
	LowStockThreshold = 5
)

type Variant struct {
	ProductID uint      `json:"productId"`
	Size      int       `json:"size"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

func ValidSize(size int) bool {
	return size >= MinSize && size <= MaxSize
}

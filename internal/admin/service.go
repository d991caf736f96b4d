package admin

import (
	"context"
	"errors"
	"fmt"

	"boutique-be/internal/inventory"
	"boutique-be/internal/logger"
	"boutique-be/internal/metrics"
	"boutique-be/internal/order"
	"boutique-be/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrForbidden = errors.New("forbidden: admin access required")

type Dashboard struct {
	Users            int64                    `json:"users"`
	Orders           int64                    `json:"orders"`
	OrdersByStatus   map[order.Status]int64   `json:"ordersByStatus"`
	Revenue          decimal.Decimal          `json:"revenue"`
	Products         int64                    `json:"products"`
	LowStockProducts int                      `json:"lowStockProducts"`
	Checkout         metrics.CheckoutSnapshot `json:"checkout"`
}

type Counter interface {
	Count(ctx context.Context) (int64, error)
}

type OrderStats interface {
	Stats(ctx context.Context) (*order.Stats, error)
}

type LowStock interface {
	LowStock(ctx context.Context) ([]inventory.Variant, error)
}

type Service interface {
	Stats(ctx context.Context) (*Dashboard, error)
}

type service struct {
	users    Counter
	products Counter
	orders   OrderStats
	stock    LowStock
	metrics  *metrics.Checkout
}

func NewService(users, products Counter, orders OrderStats, stock LowStock, m *metrics.Checkout) Service {
	if m == nil {
		m = metrics.NewCheckout()
	}
	return &service{users: users, products: products, orders: orders, stock: stock, metrics: m}
}

func (s *service) Stats(ctx context.Context) (*Dashboard, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "DashboardStats"),
	)

	if !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}

	users, err := s.users.Count(ctx)
	if err != nil {
		log.Error("failed to count users", zap.Error(err))
		return nil, fmt.Errorf("count users: %w", err)
	}

	products, err := s.products.Count(ctx)
	if err != nil {
		log.Error("failed to count products", zap.Error(err))
		return nil, fmt.Errorf("count products: %w", err)
	}

	orders, err := s.orders.Stats(ctx)
	if err != nil {
		log.Error("failed to load order stats", zap.Error(err))
		return nil, fmt.Errorf("order stats: %w", err)
	}

	low, err := s.stock.LowStock(ctx)
	if err != nil {
		log.Error("failed to load low stock", zap.Error(err))
		return nil, fmt.Errorf("low stock: %w", err)
	}
	lowProducts := make(map[uint]struct{}, len(low))
	for _, v := range low {
		lowProducts[v.ProductID] = struct{}{}
	}

	return &Dashboard{
		Users:            users,
		Orders:           orders.Orders,
		OrdersByStatus:   orders.ByStatus,
		Revenue:          orders.Revenue,
		Products:         products,
		LowStockProducts: len(lowProducts),
		Checkout:         s.metrics.Snapshot(),
	}, nil
}

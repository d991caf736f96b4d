package admin

import (
	"context"
	"errors"
	"testing"

	"boutique-be/internal/inventory"
	"boutique-be/internal/metrics"
	"boutique-be/internal/order"
	"boutique-be/internal/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCounter struct {
	mock.Mock
}

func (m *MockCounter) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockOrderStats struct {
	mock.Mock
}

func (m *MockOrderStats) Stats(ctx context.Context) (*order.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Stats), args.Error(1)
}

type MockLowStock struct {
	mock.Mock
}

func (m *MockLowStock) LowStock(ctx context.Context) ([]inventory.Variant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.Variant), args.Error(1)
}

func adminCtx() context.Context {
	return utils.SetUserContext(context.Background(), 1, "admin@example.com", utils.RoleAdmin)
}

func TestService_Stats(t *testing.T) {
	t.Run("Forbidden for shoppers", func(t *testing.T) {
		svc := NewService(nil, nil, nil, nil, nil)
		ctx := utils.SetUserContext(context.Background(), 4, "", utils.RoleUser)

		_, err := svc.Stats(ctx)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("Success", func(t *testing.T) {
		users, products := new(MockCounter), new(MockCounter)
		orders, stock := new(MockOrderStats), new(MockLowStock)
		m := metrics.NewCheckout()
		m.OrdersCommitted.Add(3)
		ctx := adminCtx()

		users.On("Count", ctx).Return(int64(12), nil)
		products.On("Count", ctx).Return(int64(8), nil)
		orders.On("Stats", ctx).Return(&order.Stats{
			Orders:   5,
			Revenue:  decimal.RequireFromString("300.50"),
			ByStatus: map[order.Status]int64{order.StatusCompleted: 3, order.StatusPending: 2},
		}, nil)
		stock.On("LowStock", ctx).Return([]inventory.Variant{
			{ProductID: 1, Size: 4, Quantity: 2},
			{ProductID: 1, Size: 5, Quantity: 0},
			{ProductID: 3, Size: 9, Quantity: 1},
		}, nil)

		d, err := NewService(users, products, orders, stock, m).Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(12), d.Users)
		assert.Equal(t, int64(8), d.Products)
		assert.Equal(t, int64(5), d.Orders)
		assert.Equal(t, 2, d.LowStockProducts)
		assert.True(t, decimal.RequireFromString("300.50").Equal(d.Revenue))
		assert.Equal(t, uint64(3), d.Checkout.OrdersCommitted)
	})

	t.Run("Propagates storage errors", func(t *testing.T) {
		users := new(MockCounter)
		users.On("Count", mock.Anything).Return(int64(0), errors.New("db down"))

		_, err := NewService(users, nil, nil, nil, nil).Stats(adminCtx())
		assert.ErrorContains(t, err, "count users")
	})
}

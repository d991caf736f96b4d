package order

import (
	"context"
	"time"

	"boutique-be/internal/db"
	"boutique-be/internal/inventory"
	"boutique-be/internal/payment"
	"boutique-be/internal/product"
	"boutique-be/internal/reconciliation"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Commit(ctx context.Context, o *Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uint) (*Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) GetByPaymentReference(ctx context.Context, ref string) (*Order, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, filter ListFilter) ([]Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Order), args.Error(1)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, id uint, from, to Status) error {
	return m.Called(ctx, id, from, to).Error(0)
}

func (m *MockRepository) Stats(ctx context.Context) (*Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Stats), args.Error(1)
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) CatalogEntries(ctx context.Context, ids []uint) (map[uint]product.CatalogEntry, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint]product.CatalogEntry), args.Error(1)
}

type MockStock struct {
	mock.Mock
}

func (m *MockStock) GetVariant(ctx context.Context, q db.DBTX, productID uint, size int) (*inventory.Variant, error) {
	args := m.Called(ctx, q, productID, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Variant), args.Error(1)
}

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Record(ctx context.Context, c reconciliation.Case) (*reconciliation.Case, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconciliation.Case), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPaymentRepository) GetByIntentID(ctx context.Context, intentID string) (*payment.Payment, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) UpdateStatus(ctx context.Context, intentID string, status payment.Status) error {
	return m.Called(ctx, intentID, status).Error(0)
}

func (m *MockPaymentRepository) MarkConsumed(ctx context.Context, q db.DBTX, intentID string, orderID uint) error {
	return m.Called(ctx, q, intentID, orderID).Error(0)
}

func (m *MockPaymentRepository) MarkRefunded(ctx context.Context, intentID string) error {
	return m.Called(ctx, intentID).Error(0)
}

func (m *MockPaymentRepository) ClaimRefund(ctx context.Context, intentID string) error {
	return m.Called(ctx, intentID).Error(0)
}

func (m *MockPaymentRepository) ReleaseRefund(ctx context.Context, intentID string, to payment.Status) error {
	return m.Called(ctx, intentID, to).Error(0)
}

func (m *MockPaymentRepository) ListUnconsumed(ctx context.Context, before time.Time) ([]payment.Payment, error) {
	args := m.Called(ctx, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Payment), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*payment.Intent, error) {
	args := m.Called(ctx, amountMinor, currency, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

func (m *MockGateway) GetIntent(ctx context.Context, intentID string) (*payment.Intent, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

func (m *MockGateway) Refund(ctx context.Context, intentID string, reason string) (*payment.Refund, error) {
	args := m.Called(ctx, intentID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Refund), args.Error(1)
}

func (m *MockGateway) VerifyWebhook(payload []byte, header string) (*payment.Event, error) {
	args := m.Called(payload, header)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Event), args.Error(1)
}

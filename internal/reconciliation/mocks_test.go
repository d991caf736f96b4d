package reconciliation

import (
	"context"
	"time"

	"boutique-be/internal/db"
	"boutique-be/internal/payment"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, c *Case) (bool, error) {
	args := m.Called(ctx, c)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) Get(ctx context.Context, id string) (*Case, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Case), args.Error(1)
}

func (m *MockRepository) GetOpenByReference(ctx context.Context, ref string) (*Case, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Case), args.Error(1)
}

func (m *MockRepository) ListOpen(ctx context.Context, limit uint64) ([]Case, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Case), args.Error(1)
}

func (m *MockRepository) Close(ctx context.Context, id string, status Status, note string) error {
	return m.Called(ctx, id, status, note).Error(0)
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

package inventory

import (
	"context"
	"errors"

	"boutique-be/internal/logger"
	"boutique-be/internal/utils"

	"go.uber.org/zap"
)

type Service interface {
	Stock(ctx context.Context, productID uint, size int) (*Variant, error)
	ListByProduct(ctx context.Context, productID uint) ([]Variant, error)
	LowStock(ctx context.Context) ([]Variant, error)
	Restock(ctx context.Context, productID uint, size int, amount int) (*Variant, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Stock(ctx context.Context, productID uint, size int) (*Variant, error) {
	if !ValidSize(size) {
		return nil, ErrInvalidSize
	}
	return s.repo.GetVariant(ctx, nil, productID, size)
}

func (s *service) ListByProduct(ctx context.Context, productID uint) ([]Variant, error) {
	return s.repo.ListByProduct(ctx, productID)
}

func (s *service) LowStock(ctx context.Context) ([]Variant, error) {
	if !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}
	return s.repo.ListLowStock(ctx, LowStockThreshold)
}

func (s *service) Restock(ctx context.Context, productID uint, size int, amount int) (*Variant, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Restock"),
		zap.Uint("product_id", productID),
		zap.Int("size", size),
		zap.Int("amount", amount),
	)

	if !utils.IsAdmin(ctx) {
		log.Warn("restock rejected: not an admin")
		return nil, ErrForbidden
	}

	v, err := s.repo.Increment(ctx, productID, size, amount)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidSize),
			errors.Is(err, ErrRestockLimit), errors.Is(err, ErrProductNotFound):
			log.Warn("restock rejected", zap.Error(err))
		default:
			log.Error("restock failed", zap.Error(err))
		}
		return nil, err
	}

	log.Info("variant restocked", zap.Int("quantity", v.Quantity))
	return v, nil
}

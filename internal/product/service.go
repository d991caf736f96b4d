package product

import (
	"context"
	"errors"
	"strings"
	"time"

	"boutique-be/internal/inventory"
	"boutique-be/internal/logger"
	"boutique-be/internal/utils"

	"go.uber.org/zap"
)

type Service interface {
	List(ctx context.Context, opts ListOptions) ([]Product, error)
	Get(ctx context.Context, id uint) (*Product, error)
	CatalogEntries(ctx context.Context, ids []uint) (map[uint]CatalogEntry, error)
	Create(ctx context.Context, input NewProduct) (*Product, error)
	Update(ctx context.Context, id uint, input UpdateProduct) (*Product, error)
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

type service struct {
	repo      Repository
	inventory inventory.Repository
	cache     Cache
}

func NewService(repo Repository, inv inventory.Repository, cache Cache) Service {
	if cache == nil {
		cache = NewNoopCache()
	}
	return &service{repo: repo, inventory: inv, cache: cache}
}

func (s *service) List(ctx context.Context, opts ListOptions) ([]Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ListProducts"),
	)

	start := time.Now()

	if opts.Limit > 100 {
		opts.Limit = 100
	}

	products, err := s.repo.List(ctx, opts)
	if err != nil {
		log.Error("failed to fetch product list", zap.Error(err))
		return nil, err
	}

	log.Info("get product list success",
		zap.Int("count", len(products)),
		zap.Duration("duration", time.Since(start)),
	)
	return products, nil
}

// Get returns a product with its sizes. The catalog row is read through the
// cache; stock is always read live.
func (s *service) Get(ctx context.Context, id uint) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "GetProduct"),
		zap.Uint("product_id", id),
	)

	p, err := s.cache.Get(ctx, id)
	if err != nil {
		log.Warn("product cache read failed", zap.Error(err))
		p = nil
	}

	if p == nil {
		p, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		p.Sizes = nil
		if err := s.cache.Set(ctx, p); err != nil {
			log.Warn("product cache write failed", zap.Error(err))
		}
	} else {
		log.Debug("product cache hit")
	}

	sizes, err := s.inventory.ListByProduct(ctx, id)
	if err != nil {
		log.Error("failed to load product sizes", zap.Error(err))
		return nil, err
	}
	p.Sizes = sizes
	p.TotalStock = 0
	for _, v := range sizes {
		p.TotalStock += v.Quantity
	}
	return p, nil
}

func (s *service) CatalogEntries(ctx context.Context, ids []uint) (map[uint]CatalogEntry, error) {
	return s.repo.GetCatalogEntries(ctx, ids)
}

func validateSizes(sizes []SizeStock) error {
	seen := make(map[int]bool, len(sizes))
	for _, sz := range sizes {
		if !inventory.ValidSize(sz.Size) {
			return ErrInvalidSize
		}
		if sz.Quantity < 0 {
			return ErrInvalidStock
		}
		if seen[sz.Size] {
			return ErrDuplicateSize
		}
		seen[sz.Size] = true
	}
	return nil
}

func (s *service) Create(ctx context.Context, input NewProduct) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateProduct"),
	)

	if !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}

	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, ErrInvalidName
	}
	if input.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if err := validateSizes(input.Sizes); err != nil {
		return nil, err
	}

	p, err := s.repo.Create(ctx, input)
	if err != nil {
		log.Error("failed to create product", zap.Error(err))
		return nil, err
	}

	log.Info("product created", zap.Uint("product_id", p.ID))
	return p, nil
}

// Update never touches order lines: they carry their own captured price.
func (s *service) Update(ctx context.Context, id uint, input UpdateProduct) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateProduct"),
		zap.Uint("product_id", id),
	)

	if !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}
	if input.Empty() {
		return nil, ErrNothingToUpdate
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, ErrInvalidName
	}
	if input.Price != nil && input.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	p, err := s.repo.Update(ctx, id, input)
	if err != nil {
		if !errors.Is(err, ErrProductNotFound) {
			log.Error("failed to update product", zap.Error(err))
		}
		return nil, err
	}

	s.invalidate(ctx, id)
	log.Info("product updated")
	return p, nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "DeleteProduct"),
		zap.Uint("product_id", id),
	)

	if !utils.IsAdmin(ctx) {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, ErrProductNotFound) {
			log.Error("failed to delete product", zap.Error(err))
		}
		return err
	}

	s.invalidate(ctx, id)
	log.Info("product deleted")
	return nil
}

func (s *service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *service) invalidate(ctx context.Context, id uint) {
	if err := s.cache.Delete(ctx, id); err != nil {
		logger.FromCtx(ctx).Warn("product cache invalidation failed",
			zap.Uint("product_id", id), zap.Error(err))
	}
}

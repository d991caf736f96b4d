package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const detailTTL = 5 * time.Minute

// Cache holds product detail reads. A miss is (nil, nil).
type Cache interface {
	Get(ctx context.Context, id uint) (*Product, error)
	Set(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uint) error
}

type redisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisCache(client redis.Cmdable) Cache {
	return &redisCache{client: client, ttl: detailTTL}
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func cacheKey(id uint) string {
	return fmt.Sprintf("product:%d", id)
}

func (c *redisCache) Get(ctx context.Context, id uint) (*Product, error) {
	raw, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var p Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product: %w", err)
	}
	return &p, nil
}

func (c *redisCache) Set(ctx context.Context, p *Product) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(p.ID), raw, c.ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, id uint) error {
	return c.client.Del(ctx, cacheKey(id)).Err()
}

type noopCache struct{}

// NewNoopCache is used when no REDIS_URL is configured.
func NewNoopCache() Cache {
	return noopCache{}
}

func (noopCache) Get(context.Context, uint) (*Product, error) { return nil, nil }
func (noopCache) Set(context.Context, *Product) error         { return nil }
func (noopCache) Delete(context.Context, uint) error          { return nil }

// Package rediscache adds a Redis read-through cache in front of the product repository of any provider.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firecms/cms/pkg/persistence"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a product may be served stale after an out-of-band write.
const DefaultTTL = 10 * time.Minute

const keyPrefix = "cms:product:"

// Persistence decorates another provider. Documents are never cached.
type Persistence struct {
	inner       persistence.Persistence
	client      *redis.Client
	productRepo *ProductRepository
}

// NewClient creates a client from a redis:// or rediss:// URL.
func NewClient(redisURL string) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	options.DialTimeout = 5 * time.Second
	options.ReadTimeout = 3 * time.Second
	options.WriteTimeout = 3 * time.Second

	return redis.NewClient(options), nil
}

// NewPersistence wraps inner. A non-positive ttl falls back to DefaultTTL.
func NewPersistence(logger *slog.Logger, inner persistence.Persistence, client *redis.Client, ttl time.Duration) *Persistence {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Persistence{
		inner:  inner,
		client: client,
		productRepo: &ProductRepository{
			inner:  inner.ProductRepository(),
			client: client,
			ttl:    ttl,
			logger: logger.With("module", "rediscache"),
		},
	}
}

func (p *Persistence) ProductRepository() persistence.ProductRepository {
	return p.productRepo
}

func (p *Persistence) DocumentRepository() persistence.DocumentRepository {
	return p.inner.DocumentRepository()
}

// HealthCheck requires both the cache and the wrapped provider to be reachable.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	return p.inner.HealthCheck(ctx)
}

func (p *Persistence) Close(ctx context.Context) error {
	return errors.Join(p.client.Close(), p.inner.Close(ctx))
}

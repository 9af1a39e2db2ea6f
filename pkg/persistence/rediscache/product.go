package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/firecms/cms/pkg/models"
	"github.com/firecms/cms/pkg/persistence"
	"github.com/redis/go-redis/v9"
)

// ProductRepository serves GetByID from Redis when it can. Cache failures are logged
// and the wrapped repository answers instead.
//
// Every write bumps a per-product generation key. A miss fills the cache inside a
// WATCH on that key, so a fill that raced with a write is discarded instead of
// caching the record the write replaced.
type ProductRepository struct {
	inner  persistence.ProductRepository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func key(id string) string {
	return keyPrefix + id
}

func generationKey(id string) string {
	return keyPrefix + id + ":gen"
}

func (pr *ProductRepository) GetAll(ctx context.Context) ([]*models.Product, error) {
	return pr.inner.GetAll(ctx)
}

func (pr *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	cached, err := pr.client.Get(ctx, key(id)).Bytes()

	switch {
	case err == nil:
		var product models.Product
		if err := json.Unmarshal(cached, &product); err == nil {
			return &product, nil
		}

		pr.logger.WarnContext(ctx, "discarding undecodable cache entry", "product_id", id)
	case !errors.Is(err, redis.Nil):
		pr.logger.WarnContext(ctx, "product cache read failed", "product_id", id, "error", err)
	}

	var (
		product  *models.Product
		innerErr error
	)

	err = pr.client.Watch(ctx, func(tx *redis.Tx) error {
		product, innerErr = pr.inner.GetByID(ctx, id)
		if innerErr != nil {
			return nil
		}

		payload, err := json.Marshal(product)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(id), payload, pr.ttl)

			return nil
		})

		return err
	}, generationKey(id))

	if innerErr != nil {
		return nil, innerErr
	}

	switch {
	case err == nil:
	case errors.Is(err, redis.TxFailedErr):
		pr.logger.DebugContext(ctx, "product changed while filling cache, not caching", "product_id", id)
	default:
		pr.logger.WarnContext(ctx, "product cache write failed", "product_id", id, "error", err)
	}

	if product != nil {
		return product, nil
	}

	// Redis failed before the callback ran.
	return pr.inner.GetByID(ctx, id)
}

func (pr *ProductRepository) Save(ctx context.Context, product *models.Product) error {
	err := pr.inner.Save(ctx, product)
	if err != nil {
		return err
	}

	pr.invalidate(ctx, product.ID)

	return nil
}

func (pr *ProductRepository) Delete(ctx context.Context, id string) error {
	err := pr.inner.Delete(ctx, id)
	if err != nil {
		return err
	}

	pr.invalidate(ctx, id)

	return nil
}

// invalidate drops the cached entry and bumps the generation so in-flight fills abort.
func (pr *ProductRepository) invalidate(ctx context.Context, id string) {
	_, err := pr.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(id))
		pipe.Del(ctx, key(id))

		return nil
	})
	if err != nil {
		pr.logger.ErrorContext(ctx, "product cache invalidation failed", "product_id", id, "error", err)
	}
}

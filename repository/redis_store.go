package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iilkane/Legerity/models"
)

// IdempotencyStore remembers which order a checkout key produced.
type IdempotencyStore interface {
	Get(ctx context.Context, userID uuid.UUID, key string) (uuid.UUID, bool, error)
	Set(ctx context.Context, userID uuid.UUID, key string, orderID uuid.UUID, ttl time.Duration) error
}

type RedisIdempotencyStore struct {
	client *redis.Client
}

func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

func (s *RedisIdempotencyStore) idemKey(userID uuid.UUID, key string) string {
	return "idem:checkout:" + userID.String() + ":" + key
}

func (s *RedisIdempotencyStore) Get(ctx context.Context, userID uuid.UUID, key string) (uuid.UUID, bool, error) {
	val, err := s.client.Get(ctx, s.idemKey(userID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	orderID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("idempotency entry %q: %w", val, err)
	}
	return orderID, true, nil
}

func (s *RedisIdempotencyStore) Set(ctx context.Context, userID uuid.UUID, key string, orderID uuid.UUID, ttl time.Duration) error {
	return s.client.Set(ctx, s.idemKey(userID, key), orderID.String(), ttl).Err()
}

const productCachePrefix = "product:detail:"

// cachedProduct keeps category_id, which the API encoding of Product omits.
type cachedProduct struct {
	*models.Product
	CategoryID uuid.UUID `json:"category_id"`
}

// CachedCatalogRepository serves product detail from Redis and falls back to
// the wrapped repository. Entries live for ttl unless Invalidate drops them
// first. Cache failures only cost a database read.
type CachedCatalogRepository struct {
	CatalogRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
	// OnHit and OnMiss, when set, observe cache effectiveness.
	OnHit  func()
	OnMiss func()
}

func NewCachedCatalogRepository(inner CatalogRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedCatalogRepository {
	return &CachedCatalogRepository{
		CatalogRepository: inner,
		client:            client,
		ttl:               ttl,
		logger:            logger,
	}
}

func productCacheKey(id uuid.UUID) string {
	return productCachePrefix + id.String()
}

func (c *CachedCatalogRepository) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	key := productCacheKey(id)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var product models.Product
		entry := cachedProduct{Product: &product}
		if err := json.Unmarshal(raw, &entry); err == nil && product.ID == id {
			product.CategoryID = entry.CategoryID
			if c.OnHit != nil {
				c.OnHit()
			}
			return &product, nil
		}
		c.logger.Warn("Discarding unreadable cached product", zap.String("product_id", id.String()))
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("Product cache read failed", zap.Error(err))
	}
	if c.OnMiss != nil {
		c.OnMiss()
	}

	product, err := c.CatalogRepository.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(cachedProduct{Product: product, CategoryID: product.CategoryID}); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("Failed to cache product", zap.Error(err))
		}
	}
	return product, nil
}

// Invalidate drops the cached detail of ids, e.g. after their stock changed.
func (c *CachedCatalogRepository) Invalidate(ctx context.Context, ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, productCacheKey(id))
	}
	return c.client.Del(ctx, keys...).Err()
}

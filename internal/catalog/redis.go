package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
)

const listKey = "catalog:products"

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
	jitter  time.Duration
}

// NewRedisCache stores entries for baseTTL plus up to a fifth of it in random
// jitter so entries written together do not expire together.
func NewRedisCache(client *redis.Client, baseTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: baseTTL,
		jitter:  baseTTL / 5,
	}
}

func (r *RedisCache) GetProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := r.get(ctx, listKey, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *RedisCache) SetProducts(ctx context.Context, products []domain.Product) error {
	return r.set(ctx, listKey, products)
}

func (r *RedisCache) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	if err := r.get(ctx, productKey(id), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *RedisCache) SetProduct(ctx context.Context, product *domain.Product) error {
	return r.set(ctx, productKey(product.ID), product)
}

// Invalidate drops the listing and the named products.
func (r *RedisCache) Invalidate(ctx context.Context, productIDs ...string) error {
	keys := []string{listKey}
	for _, id := range productIDs {
		keys = append(keys, productKey(id))
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisCache) get(ctx context.Context, key string, dst any) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal %s failed: %w", key, err)
	}
	return nil
}

func (r *RedisCache) set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}

	ttl := r.baseTTL
	if r.jitter > 0 {
		ttl += time.Duration(rand.Int63n(int64(r.jitter)))
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func productKey(id string) string {
	return fmt.Sprintf("catalog:product:%s", id)
}

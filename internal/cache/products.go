// Package cache is a read-through Redis cache for product lookups. A nil
// *ProductCache is a no-op, so the catalog runs without Redis configured.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/storefront/internal/models"
)

const productTTL = 5 * time.Minute

func ConnectRedis(addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

type ProductCache struct {
	rdb *redis.Client
}

func NewProductCache(rdb *redis.Client) *ProductCache {
	return &ProductCache{rdb: rdb}
}

func (c *ProductCache) Get(ctx context.Context, id uint) (*models.Product, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}

	data, err := c.rdb.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		return nil, false
	}

	var p models.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (c *ProductCache) Set(ctx context.Context, p models.Product) {
	if c == nil || c.rdb == nil {
		return
	}
	if data, err := json.Marshal(p); err == nil {
		c.rdb.Set(ctx, productKey(p.ID), data, productTTL)
	}
}

func (c *ProductCache) Invalidate(ctx context.Context, id uint) {
	if c == nil || c.rdb == nil {
		return
	}
	c.rdb.Del(ctx, productKey(id))
}

func productKey(id uint) string {
	return fmt.Sprintf("product:%d", id)
}

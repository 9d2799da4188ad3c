package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/egannguyen/tica-shop/internal/entity"
	"github.com/egannguyen/tica-shop/internal/repository"
	goredis "github.com/redis/go-redis/v9"
)

const (
	activeKey    = "catalog:products:active"
	productKeyFm = "catalog:product:%d"
)

type cachedProductRepository struct {
	next repository.ProductRepository
	rdb  goredis.Cmdable
	ttl  time.Duration
}

// NewCachedProductRepository wraps next with a read-through Redis cache.
// Cache failures are logged and never surface to callers.
func NewCachedProductRepository(next repository.ProductRepository, rdb goredis.Cmdable, ttl time.Duration) repository.ProductRepository {
	return &cachedProductRepository{next: next, rdb: rdb, ttl: ttl}
}

func (c *cachedProductRepository) FindActive(ctx context.Context) ([]entity.Product, error) {
	var products []entity.Product
	if c.load(ctx, activeKey, &products) {
		return products, nil
	}

	products, err := c.next.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, activeKey, products)
	return products, nil
}

func (c *cachedProductRepository) FindByID(ctx context.Context, id int64) (*entity.Product, error) {
	key := fmt.Sprintf(productKeyFm, id)

	var p entity.Product
	if c.load(ctx, key, &p) {
		return &p, nil
	}

	found, err := c.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, found)
	return found, nil
}

func (c *cachedProductRepository) Seed(ctx context.Context, products []entity.Product) error {
	if err := c.next.Seed(ctx, products); err != nil {
		return err
	}

	keys := []string{activeKey}
	for _, p := range products {
		keys = append(keys, fmt.Sprintf(productKeyFm, p.ID))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("Failed to invalidate catalog cache", "err", err)
	}
	return nil
}

func (c *cachedProductRepository) load(ctx context.Context, key string, dst any) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false
	}
	if err != nil {
		slog.Warn("Catalog cache read failed", "key", key, "err", err)
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		slog.Warn("Discarding undecodable catalog cache entry", "key", key, "err", err)
		return false
	}
	return true
}

func (c *cachedProductRepository) store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		slog.Warn("Failed to encode catalog cache entry", "key", key, "err", err)
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		slog.Warn("Catalog cache write failed", "key", key, "err", err)
	}
}

// NewClient parses a redis:// URL and verifies the server is reachable.
func NewClient(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

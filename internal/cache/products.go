package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/domain"
)

const (
	// keyProductList holds one cached listing per normalized search term.
	keyProductList = "products:list:%s"
	// keyProductGen is bumped on every write so stale listings are never read.
	keyProductGen = "products:gen"
)

// ProductLists caches product listings in Redis. Invalidate bumps a
// generation counter instead of scanning keys; old entries expire by TTL.
type ProductLists struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

func NewProductLists(rdb *redis.Client, ttl time.Duration, logger *log.Logger) *ProductLists {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &ProductLists{rdb: rdb, ttl: ttl, logger: logger}
}

// Get returns the cached listing for query. ok is false on a miss or any
// Redis error.
func (c *ProductLists) Get(ctx context.Context, query string) ([]domain.Product, bool) {
	key, err := c.key(ctx, query)
	if err != nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Printf("product cache: get key=%s error=%v", key, err)
		}
		return nil, false
	}
	var products []domain.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		c.logger.Printf("product cache: decode key=%s error=%v", key, err)
		return nil, false
	}
	return products, true
}

func (c *ProductLists) Set(ctx context.Context, query string, products []domain.Product) {
	key, err := c.key(ctx, query)
	if err != nil {
		return
	}
	raw, err := json.Marshal(products)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Printf("product cache: set key=%s error=%v", key, err)
	}
}

// Invalidate makes every cached listing stale.
func (c *ProductLists) Invalidate(ctx context.Context) {
	if err := c.rdb.Incr(ctx, keyProductGen).Err(); err != nil {
		c.logger.Printf("product cache: invalidate error=%v", err)
	}
}

func (c *ProductLists) key(ctx context.Context, query string) (string, error) {
	gen, err := c.rdb.Get(ctx, keyProductGen).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Printf("product cache: read generation error=%v", err)
		return "", err
	}
	term := strings.ToLower(strings.TrimSpace(query))
	return fmt.Sprintf(keyProductList, fmt.Sprintf("%d:%s", gen, term)), nil
}

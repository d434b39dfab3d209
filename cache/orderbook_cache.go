package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"raceledger/models"
	"raceledger/service"

	"github.com/redis/go-redis/v9"
)

// OrderBookCache implements service.ExchangeCache with one JSON value per
// pair. Writers invalidate on every order mutation, so a short TTL is only
// a backstop against stale entries surviving a missed invalidation.
type OrderBookCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewOrderBookCache creates an OrderBookCache backed by the given client
func NewOrderBookCache(c *Client, ttl time.Duration) *OrderBookCache {
	return &OrderBookCache{
		rdb: c.rdb,
		ttl: ttl,
	}
}

func bookKey(pair string) string { return "book:" + pair }

// GetOrderBook returns the cached order book for a pair, or
// models.ErrNotFound on a miss.
func (c *OrderBookCache) GetOrderBook(ctx context.Context, pair string) (*models.OrderBook, error) {
	raw, err := c.rdb.Get(ctx, bookKey(pair)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get order book %s: %w", pair, err)
	}

	var book models.OrderBook
	if err := json.Unmarshal(raw, &book); err != nil {
		return nil, fmt.Errorf("redis: decode order book %s: %w", pair, err)
	}
	return &book, nil
}

// SetOrderBook stores the order book for a pair
func (c *OrderBookCache) SetOrderBook(ctx context.Context, pair string, book *models.OrderBook) error {
	raw, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("redis: encode order book %s: %w", pair, err)
	}
	if err := c.rdb.Set(ctx, bookKey(pair), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set order book %s: %w", pair, err)
	}
	return nil
}

// InvalidateOrderBook drops the cached order book for a pair
func (c *OrderBookCache) InvalidateOrderBook(ctx context.Context, pair string) error {
	if err := c.rdb.Del(ctx, bookKey(pair)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate order book %s: %w", pair, err)
	}
	return nil
}

// Compile-time interface check.
var _ service.ExchangeCache = (*OrderBookCache)(nil)

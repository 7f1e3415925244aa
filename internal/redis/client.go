package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vralytics/portfolio-service/internal/config"
	"github.com/vralytics/portfolio-service/internal/models"
)

// ErrCacheMiss is returned when a symbol has no cached quote
var ErrCacheMiss = redis.Nil

// Client wraps the Redis client with quote caching operations
type Client struct {
	rdb *redis.Client
}

// New creates a new Redis client
func New(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks if Redis is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func quoteKey(symbol string) string {
	return fmt.Sprintf("quote:%s", symbol)
}

// SetQuote caches a quote with TTL
func (c *Client) SetQuote(ctx context.Context, quote *models.Quote, ttl time.Duration) error {
	jsonData, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}
	return c.rdb.Set(ctx, quoteKey(quote.Symbol), jsonData, ttl).Err()
}

// GetQuote retrieves a cached quote. Returns ErrCacheMiss when the symbol
// is not cached.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	jsonData, err := c.rdb.Get(ctx, quoteKey(symbol)).Bytes()
	if err != nil {
		return nil, err
	}

	var quote models.Quote
	if err := json.Unmarshal(jsonData, &quote); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quote: %w", err)
	}
	return &quote, nil
}

// Delete removes cached quotes
func (c *Client) Delete(ctx context.Context, symbols ...string) error {
	keys := make([]string, len(symbols))
	for i, s := range symbols {
		keys[i] = quoteKey(s)
	}
	return c.rdb.Del(ctx, keys...).Err()
}

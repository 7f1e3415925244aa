package quotes

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/vralytics/portfolio-service/internal/models"
	"github.com/vralytics/portfolio-service/internal/redis"
)

// Cache is the quote cache interface, satisfied by the redis client
type Cache interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// Store is the persisted quote interface, satisfied by the database
type Store interface {
	GetQuote(symbol string) (*models.Quote, error)
}

// Source resolves quotes from the cache first, falling back to the last
// persisted price. Both layers are maintained by the external market-data
// feed; this service only reads them.
type Source struct {
	cache Cache
	store Store
}

// NewSource creates a quote source. cache may be nil, in which case every
// lookup goes straight to the store.
func NewSource(cache Cache, store Store) *Source {
	return &Source{cache: cache, store: store}
}

// GetQuote returns the current quote for a symbol, or an error when neither
// the cache nor the store has a price. Callers (the valuation aggregator)
// treat that error as "price unavailable" and fall back per position.
func (s *Source) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if s.cache != nil {
		quote, err := s.cache.GetQuote(ctx, symbol)
		if err == nil {
			return quote, nil
		}
		// Cache miss is normal; anything else is worth a log line
		// before trying the store.
		if !errors.Is(err, redis.ErrCacheMiss) {
			log.Printf("Quote cache lookup failed for %s: %v", symbol, err)
		}
	}

	quote, err := s.store.GetQuote(symbol)
	if err != nil {
		return nil, fmt.Errorf("no quote available for %s: %w", symbol, err)
	}
	return quote, nil
}

package quotes

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vralytics/portfolio-service/internal/models"
	"github.com/vralytics/portfolio-service/internal/redis"
)

type mockCache struct {
	quotes map[string]*models.Quote
	err    error
}

func (m *mockCache) GetQuote(_ context.Context, symbol string) (*models.Quote, error) {
	if m.err != nil {
		return nil, m.err
	}
	if q, ok := m.quotes[symbol]; ok {
		return q, nil
	}
	return nil, redis.ErrCacheMiss
}

type mockStore struct {
	quotes map[string]*models.Quote
}

func (m *mockStore) GetQuote(symbol string) (*models.Quote, error) {
	if q, ok := m.quotes[symbol]; ok {
		return q, nil
	}
	return nil, errors.New("quote not found for symbol: " + symbol)
}

func quote(symbol, price string) *models.Quote {
	return &models.Quote{Symbol: symbol, CurrentPrice: decimal.RequireFromString(price)}
}

func TestSource_CacheHit(t *testing.T) {
	cache := &mockCache{quotes: map[string]*models.Quote{"AAPL": quote("AAPL", "110")}}
	store := &mockStore{quotes: map[string]*models.Quote{"AAPL": quote("AAPL", "105")}}
	src := NewSource(cache, store)

	q, err := src.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, q.CurrentPrice.Equal(decimal.RequireFromString("110")),
		"cache price wins over the persisted one")
}

func TestSource_CacheMissFallsBackToStore(t *testing.T) {
	cache := &mockCache{quotes: map[string]*models.Quote{}}
	store := &mockStore{quotes: map[string]*models.Quote{"AAPL": quote("AAPL", "105")}}
	src := NewSource(cache, store)

	q, err := src.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, q.CurrentPrice.Equal(decimal.RequireFromString("105")))
}

func TestSource_CacheErrorFallsBackToStore(t *testing.T) {
	cache := &mockCache{err: errors.New("redis timeout")}
	store := &mockStore{quotes: map[string]*models.Quote{"AAPL": quote("AAPL", "105")}}
	src := NewSource(cache, store)

	q, err := src.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, q.CurrentPrice.Equal(decimal.RequireFromString("105")))
}

func TestSource_NilCacheGoesToStore(t *testing.T) {
	store := &mockStore{quotes: map[string]*models.Quote{"AAPL": quote("AAPL", "105")}}
	src := NewSource(nil, store)

	q, err := src.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, q.CurrentPrice.Equal(decimal.RequireFromString("105")))
}

func TestSource_UnknownSymbolErrors(t *testing.T) {
	src := NewSource(nil, &mockStore{quotes: map[string]*models.Quote{}})

	_, err := src.GetQuote(context.Background(), "ZZZZ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no quote available for ZZZZ")
}

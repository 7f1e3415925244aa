package portfolio

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vralytics/portfolio-service/internal/models"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockPositionStore struct {
	positions map[string][]*models.Position
	err       error
}

func (m *mockPositionStore) ListPositions(userID string) ([]*models.Position, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.positions[userID], nil
}

type mockBalanceStore struct {
	balances map[string]decimal.Decimal
	err      error
}

func (m *mockBalanceStore) GetVCash(userID string) (decimal.Decimal, error) {
	if m.err != nil {
		return decimal.Zero, m.err
	}
	return m.balances[userID], nil
}

// mockHistoryStore keys rows by (user, date), mirroring the unique index
// the real store enforces
type mockHistoryStore struct {
	mu       sync.Mutex
	rows     map[string]*models.NetWorthObservation
	nextID   int
	writeErr error
	readErr  error
}

func newMockHistoryStore() *mockHistoryStore {
	return &mockHistoryStore{rows: map[string]*models.NetWorthObservation{}}
}

func (m *mockHistoryStore) UpsertObservation(obs *models.NetWorthObservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}

	key := obs.UserID + "|" + obs.Date
	if existing, ok := m.rows[key]; ok {
		existing.NetWorth = obs.NetWorth
		existing.VCash = obs.VCash
		existing.PortfolioValue = obs.PortfolioValue
		obs.ID = existing.ID
		obs.CreatedAt = existing.CreatedAt
		return nil
	}

	m.nextID++
	obs.ID = m.nextID
	obs.CreatedAt = time.Now()
	stored := *obs
	m.rows[key] = &stored
	return nil
}

func (m *mockHistoryStore) GetHistory(userID string, days int) ([]*models.NetWorthObservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}

	var all []*models.NetWorthObservation
	for _, obs := range m.rows {
		if obs.UserID == userID {
			all = append(all, obs)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Date < all[j].Date })
	if len(all) > days {
		all = all[len(all)-days:]
	}
	return all, nil
}

type mockQuotes struct {
	prices map[string]string
}

func (m *mockQuotes) GetQuote(_ context.Context, symbol string) (*models.Quote, error) {
	price, ok := m.prices[symbol]
	if !ok {
		return nil, errors.New("quote not found")
	}
	return &models.Quote{Symbol: symbol, CurrentPrice: decimal.RequireFromString(price)}, nil
}

type mockPublisher struct {
	mu     sync.Mutex
	events []*models.NetWorthObservation
	err    error
}

func (m *mockPublisher) PublishNetWorthRecorded(_ context.Context, obs *models.NetWorthObservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, obs)
	return nil
}

func newTestService(positions *mockPositionStore, balances *mockBalanceStore, history *mockHistoryStore, quotes *mockQuotes, publisher *mockPublisher) *Service {
	if publisher == nil {
		return NewService(positions, balances, history, quotes, nil)
	}
	return NewService(positions, balances, history, quotes, publisher)
}

func mustDate(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// ---------------------------------------------------------------------------
// RecordSnapshot tests
// ---------------------------------------------------------------------------

func TestRecordSnapshot_FirstObservation(t *testing.T) {
	positions := &mockPositionStore{positions: map[string][]*models.Position{}}
	balances := &mockBalanceStore{balances: map[string]decimal.Decimal{
		"u1": decimal.RequireFromString("5000"),
	}}
	history := newMockHistoryStore()
	quotes := &mockQuotes{prices: map[string]string{}}
	publisher := &mockPublisher{}

	svc := newTestService(positions, balances, history, quotes, publisher)

	obs, err := svc.RecordSnapshot(context.Background(), "u1", mustDate("2025-01-10"))
	require.NoError(t, err)

	assert.Equal(t, "2025-01-10", obs.Date)
	assert.True(t, obs.NetWorth.Equal(decimal.RequireFromString("5000")))
	assert.True(t, obs.VCash.Equal(decimal.RequireFromString("5000")))
	assert.True(t, obs.PortfolioValue.IsZero())

	got := svc.History("u1", 30)
	require.Len(t, got, 1)
	assert.Equal(t, "2025-01-10", got[0].Date)
	assert.True(t, got[0].NetWorth.Equal(decimal.RequireFromString("5000")))

	require.Len(t, publisher.events, 1)
	assert.Equal(t, "u1", publisher.events[0].UserID)
}

func TestRecordSnapshot_SameDayOverwrites(t *testing.T) {
	positions := &mockPositionStore{positions: map[string][]*models.Position{
		"u1": {{UserID: "u1", Symbol: "AAPL", Quantity: decimal.NewFromInt(2), AvgBuyPrice: decimal.NewFromInt(100)}},
	}}
	balances := &mockBalanceStore{balances: map[string]decimal.Decimal{
		"u1": decimal.RequireFromString("5000"),
	}}
	history := newMockHistoryStore()
	quotes := &mockQuotes{prices: map[string]string{"AAPL": "100"}}

	svc := newTestService(positions, balances, history, quotes, nil)

	asOf := mustDate("2025-01-10")
	_, err := svc.RecordSnapshot(context.Background(), "u1", asOf)
	require.NoError(t, err)

	// Price moves within the same day; the second snapshot must replace
	// the first row, not add another.
	quotes.prices["AAPL"] = "200"
	_, err = svc.RecordSnapshot(context.Background(), "u1", asOf)
	require.NoError(t, err)

	got := svc.History("u1", 30)
	require.Len(t, got, 1)
	assert.True(t, got[0].NetWorth.Equal(decimal.RequireFromString("5400")),
		"net_worth = %s, want the second snapshot's value", got[0].NetWorth)
	assert.True(t, got[0].PortfolioValue.Equal(decimal.RequireFromString("400")))
}

func TestRecordSnapshot_PriorDaysUntouched(t *testing.T) {
	positions := &mockPositionStore{positions: map[string][]*models.Position{}}
	balances := &mockBalanceStore{balances: map[string]decimal.Decimal{
		"u1": decimal.RequireFromString("5000"),
	}}
	history := newMockHistoryStore()
	quotes := &mockQuotes{prices: map[string]string{}}

	svc := newTestService(positions, balances, history, quotes, nil)

	_, err := svc.RecordSnapshot(context.Background(), "u1", mustDate("2025-01-10"))
	require.NoError(t, err)

	balances.balances["u1"] = decimal.RequireFromString("7500")
	_, err = svc.RecordSnapshot(context.Background(), "u1", mustDate("2025-01-11"))
	require.NoError(t, err)

	got := svc.History("u1", 30)
	require.Len(t, got, 2)
	assert.Equal(t, "2025-01-10", got[0].Date)
	assert.True(t, got[0].NetWorth.Equal(decimal.RequireFromString("5000")),
		"day one's row must be unchanged by day two's write")
	assert.Equal(t, "2025-01-11", got[1].Date)
	assert.True(t, got[1].NetWorth.Equal(decimal.RequireFromString("7500")))
}

func TestRecordSnapshot_WriteFailureSurfaces(t *testing.T) {
	positions := &mockPositionStore{positions: map[string][]*models.Position{}}
	balances := &mockBalanceStore{balances: map[string]decimal.Decimal{}}
	history := newMockHistoryStore()
	history.writeErr = errors.New("connection refused")
	quotes := &mockQuotes{prices: map[string]string{}}

	svc := newTestService(positions, balances, history, quotes, nil)

	_, err := svc.RecordSnapshot(context.Background(), "u1", mustDate("2025-01-10"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record net worth")
}

func TestRecordSnapshot_PublishFailureDoesNotFail(t *testing.T) {
	positions := &mockPositionStore{positions: map[string][]*models.Position{}}
	balances := &mockBalanceStore{balances: map[string]decimal.Decimal{}}
	history := newMockHistoryStore()
	quotes := &mockQuotes{prices: map[string]string{}}
	publisher := &mockPublisher{err: errors.New("broker down")}

	svc := newTestService(positions, balances, history, quotes, publisher)

	obs, err := svc.RecordSnapshot(context.Background(), "u1", mustDate("2025-01-10"))
	require.NoError(t, err, "a lost event must not fail the snapshot")
	require.NotNil(t, obs)

	got := svc.History("u1", 30)
	assert.Len(t, got, 1)
}

func TestRecordSnapshot_NetWorthCombinesCashAndPositions(t *testing.T) {
	positions := &mockPositionStore{positions: map[string][]*models.Position{
		"u1": {
			{UserID: "u1", Symbol: "AAPL", Quantity: decimal.NewFromInt(10), AvgBuyPrice: decimal.NewFromInt(100)},
			{UserID: "u1", Symbol: "MSFT", Quantity: decimal.NewFromInt(5), AvgBuyPrice: decimal.NewFromInt(200)},
		},
	}}
	balances := &mockBalanceStore{balances: map[string]decimal.Decimal{
		"u1": decimal.RequireFromString("3000"),
	}}
	history := newMockHistoryStore()
	quotes := &mockQuotes{prices: map[string]string{"AAPL": "110", "MSFT": "190"}}

	svc := newTestService(positions, balances, history, quotes, nil)

	obs, err := svc.RecordSnapshot(context.Background(), "u1", mustDate("2025-01-10"))
	require.NoError(t, err)

	assert.True(t, obs.PortfolioValue.Equal(decimal.RequireFromString("2050")))
	assert.True(t, obs.VCash.Equal(decimal.RequireFromString("3000")))
	assert.True(t, obs.NetWorth.Equal(decimal.RequireFromString("5050")))
}

// ---------------------------------------------------------------------------
// History tests
// ---------------------------------------------------------------------------

func TestHistory_AscendingRegardlessOfWriteOrder(t *testing.T) {
	positions := &mockPositionStore{positions: map[string][]*models.Position{}}
	balances := &mockBalanceStore{balances: map[string]decimal.Decimal{}}
	history := newMockHistoryStore()
	quotes := &mockQuotes{prices: map[string]string{}}

	svc := newTestService(positions, balances, history, quotes, nil)

	for _, d := range []string{"2025-01-12", "2025-01-10", "2025-01-11"} {
		_, err := svc.RecordSnapshot(context.Background(), "u1", mustDate(d))
		require.NoError(t, err)
	}

	got := svc.History("u1", 30)
	require.Len(t, got, 3)
	assert.Equal(t, "2025-01-10", got[0].Date)
	assert.Equal(t, "2025-01-11", got[1].Date)
	assert.Equal(t, "2025-01-12", got[2].Date)
}

func TestHistory_EmptyForNewUser(t *testing.T) {
	svc := newTestService(
		&mockPositionStore{positions: map[string][]*models.Position{}},
		&mockBalanceStore{balances: map[string]decimal.Decimal{}},
		newMockHistoryStore(),
		&mockQuotes{prices: map[string]string{}},
		nil,
	)

	got := svc.History("nobody", 30)
	require.NotNil(t, got)
	assert.Len(t, got, 0, "no implicit seeding on empty read")
}

func TestHistory_ReadFailureDegradesToEmpty(t *testing.T) {
	history := newMockHistoryStore()
	history.readErr = errors.New("connection refused")

	svc := newTestService(
		&mockPositionStore{positions: map[string][]*models.Position{}},
		&mockBalanceStore{balances: map[string]decimal.Decimal{}},
		history,
		&mockQuotes{prices: map[string]string{}},
		nil,
	)

	got := svc.History("u1", 30)
	require.NotNil(t, got)
	assert.Len(t, got, 0)
}

func TestHistory_DefaultsWindowWhenDaysNotPositive(t *testing.T) {
	positions := &mockPositionStore{positions: map[string][]*models.Position{}}
	balances := &mockBalanceStore{balances: map[string]decimal.Decimal{}}
	history := newMockHistoryStore()
	quotes := &mockQuotes{prices: map[string]string{}}

	svc := newTestService(positions, balances, history, quotes, nil)

	_, err := svc.RecordSnapshot(context.Background(), "u1", mustDate("2025-01-10"))
	require.NoError(t, err)

	got := svc.History("u1", 0)
	assert.Len(t, got, 1)
}

// ---------------------------------------------------------------------------
// Valuation tests
// ---------------------------------------------------------------------------

func TestValuation_PositionLoadFailureSurfaces(t *testing.T) {
	positions := &mockPositionStore{err: errors.New("connection refused")}

	svc := newTestService(
		positions,
		&mockBalanceStore{balances: map[string]decimal.Decimal{}},
		newMockHistoryStore(),
		&mockQuotes{prices: map[string]string{}},
		nil,
	)

	_, err := svc.Valuation(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load positions")
}

package portfolio

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vralytics/portfolio-service/internal/models"
	"github.com/vralytics/portfolio-service/internal/valuation"
)

// DefaultHistoryDays is the chart window used when the caller does not ask
// for a specific range
const DefaultHistoryDays = 30

// PositionStore provides read access to a user's positions
type PositionStore interface {
	ListPositions(userID string) ([]*models.Position, error)
}

// BalanceStore provides read access to a user's virtual cash balance
type BalanceStore interface {
	GetVCash(userID string) (decimal.Decimal, error)
}

// HistoryStore persists daily net-worth observations
type HistoryStore interface {
	UpsertObservation(obs *models.NetWorthObservation) error
	GetHistory(userID string, days int) ([]*models.NetWorthObservation, error)
}

// EventPublisher publishes net-worth events for downstream consumers
type EventPublisher interface {
	PublishNetWorthRecorded(ctx context.Context, obs *models.NetWorthObservation) error
}

// Service is the caller-facing portfolio API: valuation, daily net-worth
// snapshots, and history reads
type Service struct {
	positions PositionStore
	balances  BalanceStore
	history   HistoryStore
	quotes    valuation.QuoteSource
	publisher EventPublisher
}

// NewService creates a portfolio service. publisher may be nil when event
// publishing is disabled.
func NewService(
	positions PositionStore,
	balances BalanceStore,
	history HistoryStore,
	quotes valuation.QuoteSource,
	publisher EventPublisher,
) *Service {
	return &Service{
		positions: positions,
		balances:  balances,
		history:   history,
		quotes:    quotes,
		publisher: publisher,
	}
}

// Valuation computes the user's current portfolio valuation from their
// positions and live quotes
func (s *Service) Valuation(ctx context.Context, userID string) (*models.ValuationSnapshot, error) {
	positions, err := s.positions.ListPositions(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions for %s: %w", userID, err)
	}

	return valuation.Compute(ctx, positions, s.quotes), nil
}

// RecordSnapshot computes the user's net worth and writes the observation
// for the given as-of date. Calling it again on the same date overwrites
// that date's row; prior dates are never touched.
//
// The as-of date is an explicit parameter so the write path stays
// deterministic under test; the HTTP layer passes the current local
// wall-clock time. Store write failures are returned to the caller —
// silently dropping an observation would corrupt the user's trend series.
func (s *Service) RecordSnapshot(ctx context.Context, userID string, asOf time.Time) (*models.NetWorthObservation, error) {
	snap, err := s.Valuation(ctx, userID)
	if err != nil {
		return nil, err
	}

	vCash, err := s.balances.GetVCash(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load balance for %s: %w", userID, err)
	}

	obs := &models.NetWorthObservation{
		UserID:         userID,
		Date:           asOf.Format(models.DateLayout),
		NetWorth:       vCash.Add(snap.TotalCurrentValue),
		VCash:          vCash,
		PortfolioValue: snap.TotalCurrentValue,
	}

	if err := s.history.UpsertObservation(obs); err != nil {
		return nil, fmt.Errorf("failed to record net worth for %s: %w", userID, err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishNetWorthRecorded(ctx, obs); err != nil {
			// The observation is already durable; a lost event only
			// delays downstream analytics.
			log.Printf("Failed to publish net worth event for %s: %v", userID, err)
		}
	}

	return obs, nil
}

// History returns up to days of the user's most recent observations in
// ascending date order. Read failures degrade to an empty series — the UI
// treats "no data yet" and "history unavailable" the same way.
func (s *Service) History(userID string, days int) []*models.NetWorthObservation {
	if days <= 0 {
		days = DefaultHistoryDays
	}

	history, err := s.history.GetHistory(userID, days)
	if err != nil {
		log.Printf("Failed to load net worth history for %s: %v", userID, err)
		return []*models.NetWorthObservation{}
	}
	if history == nil {
		history = []*models.NetWorthObservation{}
	}

	return history
}

// Positions returns the user's current holdings
func (s *Service) Positions(userID string) ([]*models.Position, error) {
	positions, err := s.positions.ListPositions(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions for %s: %w", userID, err)
	}
	if positions == nil {
		positions = []*models.Position{}
	}
	return positions, nil
}

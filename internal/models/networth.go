package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used as the history upsert key.
// Dates are derived from the caller's local wall clock, not UTC, so an
// observation recorded just before midnight lands on the day the user saw.
const DateLayout = "2006-01-02"

// ValuationSnapshot is the aggregate value of a user's positions at one
// instant. Derived on every call, never persisted as-is.
type ValuationSnapshot struct {
	TotalCurrentValue    decimal.Decimal `json:"total_current_value"`
	TotalCostBasis       decimal.Decimal `json:"total_cost_basis"`
	ProfitLoss           decimal.Decimal `json:"profit_loss"`
	ProfitLossPercentage decimal.Decimal `json:"profit_loss_percentage"`
}

// NetWorthObservation is one persisted daily record of a user's net worth.
// At most one row exists per (user_id, date).
type NetWorthObservation struct {
	ID             int             `json:"id"`
	UserID         string          `json:"user_id"`
	Date           string          `json:"date"`
	NetWorth       decimal.Decimal `json:"net_worth"`
	VCash          decimal.Decimal `json:"v_cash"`
	PortfolioValue decimal.Decimal `json:"portfolio_value"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NetWorthEvent is published to Kafka after a snapshot is recorded
type NetWorthEvent struct {
	EventType string              `json:"event_type"`
	Source    string              `json:"source"`
	Timestamp string              `json:"timestamp"`
	Data      NetWorthObservation `json:"data"`
}

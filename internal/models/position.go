package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position represents one user's holding in a single symbol
type Position struct {
	ID          int             `json:"id"`
	UserID      string          `json:"user_id"`
	Symbol      string          `json:"symbol"`
	Quantity    decimal.Decimal `json:"quantity"`
	AvgBuyPrice decimal.Decimal `json:"avg_buy_price"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CostBasis returns what the user paid for this position
func (p *Position) CostBasis() decimal.Decimal {
	return p.AvgBuyPrice.Mul(p.Quantity)
}

// PositionsEvent represents a Kafka message with a full position snapshot
// for one user, emitted by the trade-execution service
type PositionsEvent struct {
	EventType string             `json:"event_type"`
	Source    string             `json:"source"`
	Timestamp string             `json:"timestamp"`
	Data      PositionsEventData `json:"data"`
}

// PositionsEventData contains the user's positions and cash balance
type PositionsEventData struct {
	UserID    string         `json:"user_id"`
	Positions []PositionData `json:"positions"`
	VCash     string         `json:"v_cash"`
}

// PositionData represents a single position in a snapshot event
type PositionData struct {
	Symbol          string `json:"symbol"`
	Quantity        string `json:"quantity"`
	AverageBuyPrice string `json:"average_buy_price"`
	UpdatedAt       string `json:"updated_at"`
}

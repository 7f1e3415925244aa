package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a point-in-time price for one symbol
type Quote struct {
	Symbol       string          `json:"symbol"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

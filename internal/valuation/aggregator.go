package valuation

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/vralytics/portfolio-service/internal/models"
)

// QuoteSource provides live prices for symbols. A lookup may fail for any
// symbol at any time (provider outage, unknown symbol).
type QuoteSource interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

var hundred = decimal.NewFromInt(100)

// positionValue is one position's contribution to the totals
type positionValue struct {
	currentValue decimal.Decimal
	costBasis    decimal.Decimal
}

// Compute turns a user's positions plus live quotes into a valuation
// snapshot. Quote lookups fan out concurrently, one per position, and the
// accumulation waits for all of them.
//
// A failed lookup never aborts the aggregation: the affected position falls
// back to its cost basis, contributing zero P&L, so one flaky price feed
// does not block the user from seeing an approximate portfolio value.
// There is no partial-failure signal to the caller; that is part of the
// interface contract.
func Compute(ctx context.Context, positions []*models.Position, quotes QuoteSource) *models.ValuationSnapshot {
	values := make([]positionValue, len(positions))

	var wg sync.WaitGroup
	for i, p := range positions {
		wg.Add(1)
		go func(i int, p *models.Position) {
			defer wg.Done()
			values[i] = valuePosition(ctx, p, quotes)
		}(i, p)
	}
	wg.Wait()

	totalCurrentValue := decimal.Zero
	totalCostBasis := decimal.Zero
	for _, v := range values {
		totalCurrentValue = totalCurrentValue.Add(v.currentValue)
		totalCostBasis = totalCostBasis.Add(v.costBasis)
	}

	profitLoss := totalCurrentValue.Sub(totalCostBasis)

	// Zero cost basis (no holdings) yields exactly 0%, never a
	// division error.
	profitLossPct := decimal.Zero
	if totalCostBasis.IsPositive() {
		profitLossPct = profitLoss.Div(totalCostBasis).Mul(hundred)
	}

	return &models.ValuationSnapshot{
		TotalCurrentValue:    totalCurrentValue,
		TotalCostBasis:       totalCostBasis,
		ProfitLoss:           profitLoss,
		ProfitLossPercentage: profitLossPct,
	}
}

// valuePosition prices one position, falling back to cost basis when the
// quote is unavailable
func valuePosition(ctx context.Context, p *models.Position, quotes QuoteSource) positionValue {
	costBasis := p.CostBasis()

	quote, err := quotes.GetQuote(ctx, p.Symbol)
	if err != nil || quote == nil {
		return positionValue{currentValue: costBasis, costBasis: costBasis}
	}

	return positionValue{
		currentValue: quote.CurrentPrice.Mul(p.Quantity),
		costBasis:    costBasis,
	}
}

package database

import (
	"database/sql"
	"fmt"

	"github.com/vralytics/portfolio-service/internal/models"
)

// SaveQuote inserts or updates the persisted price for a symbol
func (db *DB) SaveQuote(q *models.Quote) error {
	query := `
		INSERT INTO quotes (symbol, current_price, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (symbol)
		DO UPDATE SET
			current_price = EXCLUDED.current_price,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := db.conn.Exec(query, q.Symbol, q.CurrentPrice, q.UpdatedAt); err != nil {
		return fmt.Errorf("failed to save quote %s: %w", q.Symbol, err)
	}
	return nil
}

// GetQuote retrieves the last persisted price for a symbol
func (db *DB) GetQuote(symbol string) (*models.Quote, error) {
	query := `
		SELECT symbol, current_price, updated_at
		FROM quotes
		WHERE symbol = $1
	`
	var q models.Quote
	err := db.conn.QueryRow(query, symbol).Scan(&q.Symbol, &q.CurrentPrice, &q.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("quote not found for symbol: %s", symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	return &q, nil
}

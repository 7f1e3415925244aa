package database

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

// GetVCash returns the user's virtual cash balance. A user with no balance
// row yet has zero cash.
func (db *DB) GetVCash(userID string) (decimal.Decimal, error) {
	query := `SELECT v_cash FROM balances WHERE user_id = $1`

	var vCash decimal.Decimal
	err := db.conn.QueryRow(query, userID).Scan(&vCash)
	if err == sql.ErrNoRows {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}

	return vCash, nil
}

// UpsertBalance sets the user's virtual cash balance
func (db *DB) UpsertBalance(userID string, vCash decimal.Decimal) error {
	query := `
		INSERT INTO balances (user_id, v_cash, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET
			v_cash = EXCLUDED.v_cash,
			updated_at = NOW()
	`
	if _, err := db.conn.Exec(query, userID, vCash); err != nil {
		return fmt.Errorf("failed to upsert balance: %w", err)
	}
	return nil
}

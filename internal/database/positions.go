package database

import (
	"fmt"
	"time"

	"github.com/vralytics/portfolio-service/internal/models"
)

// ListPositions retrieves all positions held by a user
func (db *DB) ListPositions(userID string) ([]*models.Position, error) {
	query := `
		SELECT id, user_id, symbol, quantity, avg_buy_price, created_at, updated_at
		FROM positions
		WHERE user_id = $1
		ORDER BY symbol ASC
	`
	rows, err := db.conn.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		var p models.Position
		err := rows.Scan(
			&p.ID, &p.UserID, &p.Symbol, &p.Quantity, &p.AvgBuyPrice,
			&p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read positions: %w", err)
	}

	return positions, nil
}

// ReplaceUserPositions atomically replaces one user's positions with a new
// set. This is used when receiving a positions snapshot from the
// trade-execution service.
func (db *DB) ReplaceUserPositions(userID string, positions []*models.Position) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Delete the user's existing positions
	_, err = tx.Exec(`DELETE FROM positions WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete existing positions: %w", err)
	}

	insertQuery := `
		INSERT INTO positions (user_id, symbol, quantity, avg_buy_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	now := time.Now()
	for _, p := range positions {
		err := tx.QueryRow(insertQuery,
			userID, p.Symbol, p.Quantity, p.AvgBuyPrice, now, now,
		).Scan(&p.ID)
		if err != nil {
			return fmt.Errorf("failed to insert position %s: %w", p.Symbol, err)
		}
		p.UserID = userID
		p.CreatedAt = now
		p.UpdatedAt = now
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

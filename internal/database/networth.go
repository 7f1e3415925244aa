package database

import (
	"fmt"

	"github.com/vralytics/portfolio-service/internal/models"
)

// UpsertObservation writes one net-worth row for (user_id, date). If a row
// for that key already exists its values are overwritten in place, so
// repeated calls on the same calendar day leave exactly one row. The
// conflict target is the unique index on (user_id, date), which makes the
// write atomic at the store level — two concurrent calls for the same
// user/day cannot both insert.
func (db *DB) UpsertObservation(obs *models.NetWorthObservation) error {
	query := `
		INSERT INTO net_worth_history (user_id, date, net_worth, v_cash, portfolio_value, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id, date)
		DO UPDATE SET
			net_worth = EXCLUDED.net_worth,
			v_cash = EXCLUDED.v_cash,
			portfolio_value = EXCLUDED.portfolio_value
		RETURNING id, created_at
	`
	err := db.conn.QueryRow(query,
		obs.UserID, obs.Date, obs.NetWorth, obs.VCash, obs.PortfolioValue,
	).Scan(&obs.ID, &obs.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert net worth observation: %w", err)
	}
	return nil
}

// GetHistory returns up to `days` of the user's most recent observations,
// sorted by date ascending. Chart consumers depend on the ascending order.
func (db *DB) GetHistory(userID string, days int) ([]*models.NetWorthObservation, error) {
	query := `
		SELECT id, user_id, to_char(date, 'YYYY-MM-DD'), net_worth, v_cash, portfolio_value, created_at
		FROM (
			SELECT id, user_id, date, net_worth, v_cash, portfolio_value, created_at
			FROM net_worth_history
			WHERE user_id = $1
			ORDER BY date DESC
			LIMIT $2
		) recent
		ORDER BY date ASC
	`
	rows, err := db.conn.Query(query, userID, days)
	if err != nil {
		return nil, fmt.Errorf("failed to get net worth history: %w", err)
	}
	defer rows.Close()

	var history []*models.NetWorthObservation
	for rows.Next() {
		var obs models.NetWorthObservation
		err := rows.Scan(
			&obs.ID, &obs.UserID, &obs.Date, &obs.NetWorth, &obs.VCash,
			&obs.PortfolioValue, &obs.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan net worth observation: %w", err)
		}
		history = append(history, &obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read net worth history: %w", err)
	}

	return history, nil
}

package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradeforge/propdesk/internal/apperrors"
	"github.com/tradeforge/propdesk/internal/models"
)

const selectTrade = `
	SELECT id, challenge_id, scrip, exchange, trade_type, quantity,
	       entry_price, entry_time, status, exit_price, exit_time, pnl, created_at
	FROM trades`

// CreateTrade inserts a new trade record
func (db *DB) CreateTrade(t *models.Trade) error {
	query := `
		INSERT INTO trades (
			challenge_id, scrip, exchange, trade_type, quantity,
			entry_price, entry_time, status, exit_price, exit_time, pnl, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	now := time.Now()
	if t.Status == "" {
		t.Status = models.TradeStatusOpen
	}
	entryTime := t.EntryTime
	if entryTime.IsZero() {
		entryTime = now
	}

	err := db.conn.QueryRow(query,
		t.ChallengeID, t.Scrip, t.Exchange, t.TradeType, t.Quantity,
		t.EntryPrice, entryTime, t.Status, t.ExitPrice, t.ExitTime, t.Pnl, now,
	).Scan(&t.ID)

	if err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}
	t.EntryTime = entryTime
	t.CreatedAt = now
	return nil
}

// GetTrade retrieves a trade by ID
func (db *DB) GetTrade(id int) (*models.Trade, error) {
	query := selectTrade + ` WHERE id = $1`
	return db.scanSingleTrade(db.conn.QueryRow(query, id), id)
}

func (db *DB) scanSingleTrade(row *sql.Row, id int) (*models.Trade, error) {
	var t models.Trade
	var exitPrice sql.NullString
	var exitTime sql.NullTime

	err := row.Scan(
		&t.ID, &t.ChallengeID, &t.Scrip, &t.Exchange, &t.TradeType, &t.Quantity,
		&t.EntryPrice, &t.EntryTime, &t.Status, &exitPrice, &exitTime, &t.Pnl, &t.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("trade", fmt.Sprintf("%d", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}

	if exitPrice.Valid {
		price, _ := decimal.NewFromString(exitPrice.String)
		t.ExitPrice = &price
	}
	if exitTime.Valid {
		t.ExitTime = &exitTime.Time
	}

	return &t, nil
}

// GetOpenTradesByChallenge retrieves all OPEN trades for a challenge
func (db *DB) GetOpenTradesByChallenge(challengeID int) ([]*models.Trade, error) {
	query := selectTrade + `
		WHERE challenge_id = $1 AND status = 'OPEN'
		ORDER BY entry_time ASC
	`
	return db.scanTrades(db.conn.Query(query, challengeID))
}

// GetTradesByChallenge retrieves a page of trades for a challenge,
// optionally filtered by status. Clamping of page/limit is the
// caller's responsibility.
func (db *DB) GetTradesByChallenge(challengeID int, status string, page, limit int) ([]*models.Trade, error) {
	offset := (page - 1) * limit

	if status != "" {
		query := selectTrade + `
			WHERE challenge_id = $1 AND status = $2
			ORDER BY entry_time DESC
			LIMIT $3 OFFSET $4
		`
		return db.scanTrades(db.conn.Query(query, challengeID, status, limit, offset))
	}

	query := selectTrade + `
		WHERE challenge_id = $1
		ORDER BY entry_time DESC
		LIMIT $2 OFFSET $3
	`
	return db.scanTrades(db.conn.Query(query, challengeID, limit, offset))
}

func (db *DB) scanTrades(rows *sql.Rows, err error) ([]*models.Trade, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []*models.Trade
	for rows.Next() {
		var t models.Trade
		var exitPrice sql.NullString
		var exitTime sql.NullTime

		err := rows.Scan(
			&t.ID, &t.ChallengeID, &t.Scrip, &t.Exchange, &t.TradeType, &t.Quantity,
			&t.EntryPrice, &t.EntryTime, &t.Status, &exitPrice, &exitTime, &t.Pnl, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}

		if exitPrice.Valid {
			price, _ := decimal.NewFromString(exitPrice.String)
			t.ExitPrice = &price
		}
		if exitTime.Valid {
			t.ExitTime = &exitTime.Time
		}

		trades = append(trades, &t)
	}

	return trades, nil
}

// GetRealizedPnlTotal returns the cumulative realized P&L across all
// CLOSED trades of a challenge.
func (db *DB) GetRealizedPnlTotal(challengeID int) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(pnl), 0)
		FROM trades
		WHERE challenge_id = $1 AND status = 'CLOSED'
	`
	var total decimal.Decimal
	if err := db.conn.QueryRow(query, challengeID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to get realized pnl total: %w", err)
	}
	return total, nil
}

// GetRealizedPnlWindow returns realized P&L and trade count for CLOSED
// trades whose exit time falls in [from, to).
func (db *DB) GetRealizedPnlWindow(challengeID int, from, to time.Time) (decimal.Decimal, int, error) {
	query := `
		SELECT COALESCE(SUM(pnl), 0), COUNT(*)
		FROM trades
		WHERE challenge_id = $1 AND status = 'CLOSED'
		  AND exit_time >= $2 AND exit_time < $3
	`
	var total decimal.Decimal
	var count int
	if err := db.conn.QueryRow(query, challengeID, from, to).Scan(&total, &count); err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to get windowed realized pnl: %w", err)
	}
	return total, count, nil
}

// CloseTrade marks a trade CLOSED with its exit price, time and
// realized P&L.
func (db *DB) CloseTrade(id int, exitPrice, pnl decimal.Decimal, exitTime time.Time) error {
	query := `
		UPDATE trades SET status = 'CLOSED', exit_price = $2, exit_time = $3, pnl = $4
		WHERE id = $1 AND status = 'OPEN'
	`
	result, err := db.conn.Exec(query, id, exitPrice, exitTime, pnl)
	if err != nil {
		return fmt.Errorf("failed to close trade: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return apperrors.NewConflictError(fmt.Sprintf("trade %d is not open", id))
	}
	return nil
}

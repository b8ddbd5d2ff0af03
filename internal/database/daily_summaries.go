package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradeforge/propdesk/internal/models"
)

// GetDailySummary retrieves the rollup row for a challenge and day, or
// nil when no row exists yet (a missing row is not an error: summary
// jobs create rows lazily).
func (db *DB) GetDailySummary(challengeID int, day time.Time) (*models.DailyTradeSummary, error) {
	query := `
		SELECT id, challenge_id, summary_date, trades_count, realized_pnl, fees,
		       winning_trades, losing_trades, created_at, updated_at
		FROM daily_trade_summaries
		WHERE challenge_id = $1 AND summary_date = $2
	`
	var s models.DailyTradeSummary
	err := db.conn.QueryRow(query, challengeID, day.Format("2006-01-02")).Scan(
		&s.ID, &s.ChallengeID, &s.SummaryDate, &s.TradesCount, &s.RealizedPnl, &s.Fees,
		&s.WinningTrades, &s.LosingTrades, &s.CreatedAt, &s.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily summary: %w", err)
	}
	return &s, nil
}

// UpsertDailySummary writes the full rollup row for a challenge day
func (db *DB) UpsertDailySummary(s *models.DailyTradeSummary) error {
	query := `
		INSERT INTO daily_trade_summaries (
			challenge_id, summary_date, trades_count, realized_pnl, fees,
			winning_trades, losing_trades, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (challenge_id, summary_date) DO UPDATE SET
			trades_count = EXCLUDED.trades_count,
			realized_pnl = EXCLUDED.realized_pnl,
			fees = EXCLUDED.fees,
			winning_trades = EXCLUDED.winning_trades,
			losing_trades = EXCLUDED.losing_trades,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`
	now := time.Now()
	err := db.conn.QueryRow(query,
		s.ChallengeID, s.SummaryDate.Format("2006-01-02"), s.TradesCount, s.RealizedPnl, s.Fees,
		s.WinningTrades, s.LosingTrades, now, now,
	).Scan(&s.ID)

	if err != nil {
		return fmt.Errorf("failed to upsert daily summary: %w", err)
	}
	s.UpdatedAt = now
	return nil
}

// ApplyTradeToDailySummary folds one closed trade into the rollup row
// for its day, creating the row if needed.
func (db *DB) ApplyTradeToDailySummary(challengeID int, day time.Time, pnl decimal.Decimal) error {
	query := `
		INSERT INTO daily_trade_summaries (
			challenge_id, summary_date, trades_count, realized_pnl, fees,
			winning_trades, losing_trades, created_at, updated_at
		) VALUES ($1, $2, 1, $3, 0, $4, $5, $6, $6)
		ON CONFLICT (challenge_id, summary_date) DO UPDATE SET
			trades_count = daily_trade_summaries.trades_count + 1,
			realized_pnl = daily_trade_summaries.realized_pnl + EXCLUDED.realized_pnl,
			winning_trades = daily_trade_summaries.winning_trades + EXCLUDED.winning_trades,
			losing_trades = daily_trade_summaries.losing_trades + EXCLUDED.losing_trades,
			updated_at = EXCLUDED.updated_at
	`
	winning, losing := 0, 0
	if pnl.IsPositive() {
		winning = 1
	} else if pnl.IsNegative() {
		losing = 1
	}

	_, err := db.conn.Exec(query, challengeID, day.Format("2006-01-02"), pnl, winning, losing, time.Now())
	if err != nil {
		return fmt.Errorf("failed to apply trade to daily summary: %w", err)
	}
	return nil
}

package database

import (
	"database/sql"
	"fmt"

	"github.com/tradeforge/propdesk/internal/apperrors"
	"github.com/tradeforge/propdesk/internal/models"
)

// GetChallengePlan retrieves a plan by ID
func (db *DB) GetChallengePlan(id int) (*models.ChallengePlan, error) {
	query := `
		SELECT id, name, account_size, profit_target_pct, max_loss_pct, daily_loss_pct,
		       duration_days, fee, profit_split, level, is_active, created_at
		FROM challenge_plans
		WHERE id = $1
	`
	var p models.ChallengePlan
	err := db.conn.QueryRow(query, id).Scan(
		&p.ID, &p.Name, &p.AccountSize, &p.ProfitTargetPct, &p.MaxLossPct, &p.DailyLossPct,
		&p.DurationDays, &p.Fee, &p.ProfitSplit, &p.Level, &p.IsActive, &p.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("challenge plan", fmt.Sprintf("%d", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge plan: %w", err)
	}
	return &p, nil
}

// GetActiveChallengePlans retrieves the purchasable plan catalog
func (db *DB) GetActiveChallengePlans() ([]*models.ChallengePlan, error) {
	query := `
		SELECT id, name, account_size, profit_target_pct, max_loss_pct, daily_loss_pct,
		       duration_days, fee, profit_split, level, is_active, created_at
		FROM challenge_plans
		WHERE is_active = true
		ORDER BY level ASC, account_size ASC
	`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query challenge plans: %w", err)
	}
	defer rows.Close()

	var plans []*models.ChallengePlan
	for rows.Next() {
		var p models.ChallengePlan
		err := rows.Scan(
			&p.ID, &p.Name, &p.AccountSize, &p.ProfitTargetPct, &p.MaxLossPct, &p.DailyLossPct,
			&p.DurationDays, &p.Fee, &p.ProfitSplit, &p.Level, &p.IsActive, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge plan: %w", err)
		}
		plans = append(plans, &p)
	}

	return plans, nil
}

package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradeforge/propdesk/internal/apperrors"
	"github.com/tradeforge/propdesk/internal/models"
)

// CreateChallenge inserts a new PENDING challenge for a user
func (db *DB) CreateChallenge(c *models.Challenge) error {
	query := `
		INSERT INTO challenges (
			user_id, plan_id, status, start_date, end_date, demo_account_id,
			current_pnl, max_drawdown, violation_count, violation_details,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	now := time.Now()
	if c.Status == "" {
		c.Status = models.ChallengeStatusPending
	}

	err := db.conn.QueryRow(query,
		c.UserID, c.PlanID, c.Status, c.StartDate, c.EndDate, nullString(c.DemoAccountID),
		c.CurrentPnl, c.MaxDrawdown, c.ViolationCount, nullString(c.ViolationDetails),
		now, now,
	).Scan(&c.ID)

	if err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

// GetChallenge retrieves a challenge by ID
func (db *DB) GetChallenge(id int) (*models.Challenge, error) {
	query := selectChallenge + ` WHERE id = $1`
	return db.scanSingleChallenge(db.conn.QueryRow(query, id), fmt.Sprintf("%d", id))
}

// GetOpenChallengeByUser retrieves the user's single PENDING/ACTIVE
// challenge, or a NotFoundError when the user has none.
func (db *DB) GetOpenChallengeByUser(userID int) (*models.Challenge, error) {
	query := selectChallenge + ` WHERE user_id = $1 AND status IN ('PENDING', 'ACTIVE')`
	return db.scanSingleChallenge(db.conn.QueryRow(query, userID), fmt.Sprintf("user %d", userID))
}

const selectChallenge = `
	SELECT id, user_id, plan_id, status, start_date, end_date, demo_account_id,
	       current_pnl, max_drawdown, violation_count, violation_details,
	       created_at, updated_at
	FROM challenges`

func (db *DB) scanSingleChallenge(row *sql.Row, key string) (*models.Challenge, error) {
	var c models.Challenge
	var startDate, endDate sql.NullTime
	var demoAccountID, violationDetails sql.NullString

	err := row.Scan(
		&c.ID, &c.UserID, &c.PlanID, &c.Status, &startDate, &endDate, &demoAccountID,
		&c.CurrentPnl, &c.MaxDrawdown, &c.ViolationCount, &violationDetails,
		&c.CreatedAt, &c.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("challenge", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}

	if startDate.Valid {
		c.StartDate = &startDate.Time
	}
	if endDate.Valid {
		c.EndDate = &endDate.Time
	}
	if demoAccountID.Valid {
		c.DemoAccountID = demoAccountID.String
	}
	if violationDetails.Valid {
		c.ViolationDetails = violationDetails.String
	}

	return &c, nil
}

// ResetChallengeToPlan re-targets an open challenge at a different
// plan, wiping all progress fields back to a fresh PENDING state.
func (db *DB) ResetChallengeToPlan(challengeID, planID int) (*models.Challenge, error) {
	query := `
		UPDATE challenges SET
			plan_id = $2,
			status = 'PENDING',
			start_date = NULL,
			end_date = NULL,
			demo_account_id = NULL,
			current_pnl = 0,
			max_drawdown = 0,
			violation_count = 0,
			violation_details = NULL,
			updated_at = $3
		WHERE id = $1
	`
	result, err := db.conn.Exec(query, challengeID, planID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to reset challenge: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, apperrors.NewNotFoundError("challenge", fmt.Sprintf("%d", challengeID))
	}

	return db.GetChallenge(challengeID)
}

// UpdateChallengeProgress persists the running P&L figures for a challenge
func (db *DB) UpdateChallengeProgress(id int, currentPnl, maxDrawdown decimal.Decimal) error {
	query := `
		UPDATE challenges SET current_pnl = $2, max_drawdown = $3, updated_at = $4
		WHERE id = $1
	`
	result, err := db.conn.Exec(query, id, currentPnl, maxDrawdown, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update challenge progress: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError("challenge", fmt.Sprintf("%d", id))
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

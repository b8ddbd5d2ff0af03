package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Challenge status constants
const (
	ChallengeStatusPending = "PENDING"
	ChallengeStatusActive  = "ACTIVE"
	ChallengeStatusPassed  = "PASSED"
	ChallengeStatusFailed  = "FAILED"
)

// ChallengePlan is an immutable catalog entry describing an evaluation
// product: account size, risk limits and pricing. Plans are created by
// operators and read-only to the engine.
type ChallengePlan struct {
	ID              int             `json:"id"`
	Name            string          `json:"name"`
	AccountSize     decimal.Decimal `json:"account_size"`
	ProfitTargetPct decimal.Decimal `json:"profit_target_pct"`
	MaxLossPct      decimal.Decimal `json:"max_loss_pct"`
	DailyLossPct    decimal.Decimal `json:"daily_loss_pct"`
	DurationDays    int             `json:"duration_days"`
	Fee             decimal.Decimal `json:"fee"`
	ProfitSplit     decimal.Decimal `json:"profit_split"`
	Level           int             `json:"level"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Challenge is a user's single evaluation run against a purchased plan.
// At most one challenge per user may be PENDING or ACTIVE at any time.
type Challenge struct {
	ID               int             `json:"id"`
	UserID           int             `json:"user_id"`
	PlanID           int             `json:"plan_id"`
	Status           string          `json:"status"`
	StartDate        *time.Time      `json:"start_date,omitempty"`
	EndDate          *time.Time      `json:"end_date,omitempty"`
	DemoAccountID    string          `json:"demo_account_id,omitempty"`
	CurrentPnl       decimal.Decimal `json:"current_pnl"`
	MaxDrawdown      decimal.Decimal `json:"max_drawdown"`
	ViolationCount   int             `json:"violation_count"`
	ViolationDetails string          `json:"violation_details,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// IsOpen reports whether the challenge still occupies the user's
// single pending/active slot.
func (c *Challenge) IsOpen() bool {
	return c.Status == ChallengeStatusPending || c.Status == ChallengeStatusActive
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyTradeSummary is a cached day-level rollup for a challenge, one
// row per (challenge, calendar day in the exchange timezone). Rows are
// upserted by background jobs, never computed synchronously.
type DailyTradeSummary struct {
	ID            int             `json:"id"`
	ChallengeID   int             `json:"challenge_id"`
	SummaryDate   time.Time       `json:"summary_date"`
	TradesCount   int             `json:"trades_count"`
	RealizedPnl   decimal.Decimal `json:"realized_pnl"`
	Fees          decimal.Decimal `json:"fees"`
	WinningTrades int             `json:"winning_trades"`
	LosingTrades  int             `json:"losing_trades"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// AccountSummary is the consolidated point-in-time view of a
// challenge's trading state returned by the summary aggregator.
type AccountSummary struct {
	ChallengeID      int                `json:"challenge_id"`
	Status           string             `json:"status"`
	AccountSize      decimal.Decimal    `json:"account_size"`
	DailySummary     *DailyTradeSummary `json:"daily_summary,omitempty"`
	OpenTradesCount  int                `json:"open_trades_count"`
	DayTradesCount   int                `json:"day_trades_count"`
	RealizedPnlTotal decimal.Decimal    `json:"realized_pnl_total"`
	RealizedPnlDay   decimal.Decimal    `json:"realized_pnl_day"`
	UnrealizedPnl    decimal.Decimal    `json:"unrealized_pnl"`
	CapitalUsed      decimal.Decimal    `json:"capital_used"`
	CapitalAvailable decimal.Decimal    `json:"capital_available"`
	DayPnlPct        decimal.Decimal    `json:"day_pnl_pct"`
	MarketOpen       bool               `json:"market_open"`
	AsOf             time.Time          `json:"as_of"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade type constants
const (
	TradeTypeBuy  = "BUY"
	TradeTypeSell = "SELL"
)

// Trade status constants
const (
	TradeStatusOpen   = "OPEN"
	TradeStatusClosed = "CLOSED"
)

// Trade is a single simulated order fill belonging to a challenge.
// ExitPrice, ExitTime and Pnl are only set once the trade is CLOSED.
type Trade struct {
	ID          int             `json:"id"`
	ChallengeID int             `json:"challenge_id"`
	Scrip       string          `json:"scrip"`
	Exchange    string          `json:"exchange"`
	TradeType   string          `json:"trade_type"`
	Quantity    int64           `json:"quantity"`
	EntryPrice  decimal.Decimal `json:"entry_price"`
	EntryTime   time.Time       `json:"entry_time"`
	Status      string          `json:"status"`
	ExitPrice   *decimal.Decimal `json:"exit_price,omitempty"`
	ExitTime    *time.Time      `json:"exit_time,omitempty"`
	Pnl         decimal.Decimal `json:"pnl"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Direction returns +1 for BUY and -1 for SELL, the sign convention
// used by all P&L calculations.
func (t *Trade) Direction() decimal.Decimal {
	if t.TradeType == TradeTypeSell {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketDataRecord is the per-scrip synthetic price tape. It is
// mutated only by the market simulator while the market is open.
type MarketDataRecord struct {
	ID          int             `json:"id"`
	Scrip       string          `json:"scrip"`
	Exchange    string          `json:"exchange"`
	Ltp         decimal.Decimal `json:"ltp"`
	High        decimal.Decimal `json:"high"`
	Low         decimal.Decimal `json:"low"`
	Close       decimal.Decimal `json:"close"`
	Volume      int64           `json:"volume"`
	LastUpdated time.Time       `json:"last_updated"`
}

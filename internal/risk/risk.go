// Package risk holds the pure P&L and capital calculations. Nothing
// here touches the network or the database.
package risk

import (
	"github.com/shopspring/decimal"

	"github.com/tradeforge/propdesk/internal/models"
)

var hundred = decimal.NewFromInt(100)

// RequiredCapital is the notional a trade ties up at the given price.
func RequiredCapital(quantity int64, price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(quantity))
}

// UnrealizedPnl values an open trade against the last traded price.
// BUY gains when the price rises, SELL when it falls.
func UnrealizedPnl(t *models.Trade, ltp decimal.Decimal) decimal.Decimal {
	return t.Direction().
		Mul(ltp.Sub(t.EntryPrice)).
		Mul(decimal.NewFromInt(t.Quantity))
}

// RealizedPnl values a closed trade against its exit price. It is zero
// for anything not CLOSED with an exit price set.
func RealizedPnl(t *models.Trade) decimal.Decimal {
	if t.Status != models.TradeStatusClosed || t.ExitPrice == nil {
		return decimal.Zero
	}
	return t.Direction().
		Mul(t.ExitPrice.Sub(t.EntryPrice)).
		Mul(decimal.NewFromInt(t.Quantity))
}

// Capital describes a challenge's capital position. Available is the
// unfloored accounting figure; AvailableDisplay is floored at zero for
// presentation. Threshold checks must use the unfloored value.
type Capital struct {
	Used             decimal.Decimal
	Available        decimal.Decimal
	AvailableDisplay decimal.Decimal
}

// CapitalAvailable computes accountSize - capitalUsed - realizedLossToDate,
// where realizedLossToDate is |cumulative realized P&L| when negative,
// else zero.
func CapitalAvailable(accountSize, capitalUsed, realizedPnlTotal decimal.Decimal) Capital {
	realizedLoss := decimal.Zero
	if realizedPnlTotal.IsNegative() {
		realizedLoss = realizedPnlTotal.Abs()
	}

	available := accountSize.Sub(capitalUsed).Sub(realizedLoss)

	display := available
	if display.IsNegative() {
		display = decimal.Zero
	}

	return Capital{
		Used:             capitalUsed,
		Available:        available,
		AvailableDisplay: display,
	}
}

// DayPnlPct is the day's combined realized and unrealized P&L as a
// percentage of account size, rounded to 4 decimal places for
// reporting.
func DayPnlPct(realizedPnlDay, unrealizedPnl, accountSize decimal.Decimal) decimal.Decimal {
	if accountSize.IsZero() {
		return decimal.Zero
	}
	return realizedPnlDay.Add(unrealizedPnl).
		Div(accountSize).
		Mul(hundred).
		Round(4)
}

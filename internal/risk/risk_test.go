package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/tradeforge/propdesk/internal/models"
)

func TestRequiredCapital(t *testing.T) {
	got := RequiredCapital(10, decimal.NewFromFloat(2500.50))
	assert.True(t, decimal.NewFromFloat(25005).Equal(got))

	assert.True(t, RequiredCapital(0, decimal.NewFromInt(100)).IsZero())
}

func TestUnrealizedPnl(t *testing.T) {
	tests := []struct {
		name      string
		tradeType string
		entry     float64
		ltp       float64
		quantity  int64
		want      float64
	}{
		{"buy in profit", models.TradeTypeBuy, 100, 110, 5, 50},
		{"buy in loss", models.TradeTypeBuy, 100, 92.5, 4, -30},
		{"sell in profit", models.TradeTypeSell, 100, 90, 3, 30},
		{"sell in loss", models.TradeTypeSell, 100, 105, 2, -10},
		{"flat", models.TradeTypeBuy, 100, 100, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trade := &models.Trade{
				TradeType:  tt.tradeType,
				Quantity:   tt.quantity,
				EntryPrice: decimal.NewFromFloat(tt.entry),
			}
			got := UnrealizedPnl(trade, decimal.NewFromFloat(tt.ltp))
			assert.True(t, decimal.NewFromFloat(tt.want).Equal(got),
				"want %v got %v", tt.want, got)
		})
	}
}

func TestRealizedPnl(t *testing.T) {
	exit := decimal.NewFromFloat(120)

	t.Run("closed buy", func(t *testing.T) {
		trade := &models.Trade{
			TradeType:  models.TradeTypeBuy,
			Quantity:   10,
			EntryPrice: decimal.NewFromFloat(100),
			Status:     models.TradeStatusClosed,
			ExitPrice:  &exit,
		}
		assert.True(t, decimal.NewFromInt(200).Equal(RealizedPnl(trade)))
	})

	t.Run("closed sell", func(t *testing.T) {
		trade := &models.Trade{
			TradeType:  models.TradeTypeSell,
			Quantity:   10,
			EntryPrice: decimal.NewFromFloat(100),
			Status:     models.TradeStatusClosed,
			ExitPrice:  &exit,
		}
		assert.True(t, decimal.NewFromInt(-200).Equal(RealizedPnl(trade)))
	})

	t.Run("open trade is zero", func(t *testing.T) {
		trade := &models.Trade{
			TradeType:  models.TradeTypeBuy,
			Quantity:   10,
			EntryPrice: decimal.NewFromFloat(100),
			Status:     models.TradeStatusOpen,
		}
		assert.True(t, RealizedPnl(trade).IsZero())
	})

	t.Run("closed without exit price is zero", func(t *testing.T) {
		trade := &models.Trade{
			TradeType:  models.TradeTypeBuy,
			Quantity:   10,
			EntryPrice: decimal.NewFromFloat(100),
			Status:     models.TradeStatusClosed,
		}
		assert.True(t, RealizedPnl(trade).IsZero())
	})
}

func TestCapitalAvailable(t *testing.T) {
	accountSize := decimal.NewFromInt(100000)

	t.Run("profit does not increase available capital", func(t *testing.T) {
		capital := CapitalAvailable(accountSize, decimal.NewFromInt(20000), decimal.NewFromInt(5000))
		assert.True(t, decimal.NewFromInt(80000).Equal(capital.Available))
		assert.True(t, decimal.NewFromInt(80000).Equal(capital.AvailableDisplay))
	})

	t.Run("realized loss reduces available capital", func(t *testing.T) {
		capital := CapitalAvailable(accountSize, decimal.NewFromInt(20000), decimal.NewFromInt(-5000))
		assert.True(t, decimal.NewFromInt(75000).Equal(capital.Available))
	})

	t.Run("display is floored at zero, accounting value is not", func(t *testing.T) {
		capital := CapitalAvailable(accountSize, decimal.NewFromInt(90000), decimal.NewFromInt(-20000))
		assert.True(t, decimal.NewFromInt(-10000).Equal(capital.Available))
		assert.True(t, capital.AvailableDisplay.IsZero())
	})
}

func TestDayPnlPct(t *testing.T) {
	t.Run("combined realized and unrealized", func(t *testing.T) {
		got := DayPnlPct(decimal.NewFromInt(1500), decimal.NewFromInt(500), decimal.NewFromInt(100000))
		assert.True(t, decimal.NewFromInt(2).Equal(got), "got %v", got)
	})

	t.Run("rounds to four decimal places", func(t *testing.T) {
		got := DayPnlPct(decimal.NewFromInt(1), decimal.Zero, decimal.NewFromInt(300000))
		assert.Equal(t, "0.0003", got.String())
	})

	t.Run("zero account size", func(t *testing.T) {
		got := DayPnlPct(decimal.NewFromInt(1500), decimal.NewFromInt(500), decimal.Zero)
		assert.True(t, got.IsZero())
	})
}

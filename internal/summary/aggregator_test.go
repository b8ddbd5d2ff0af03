package summary

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge/propdesk/internal/models"
	"github.com/tradeforge/propdesk/internal/pricing"
	"github.com/tradeforge/propdesk/internal/simulator"
)

func TestDayWindow(t *testing.T) {
	t.Run("utc evening belongs to the next exchange day", func(t *testing.T) {
		// 18:30 UTC on the 15th is already 00:00 on the 16th at the exchange.
		at := time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)
		from, to := DayWindow(at)

		assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, simulator.ExchangeTZ), from)
		assert.Equal(t, time.Date(2024, 3, 17, 0, 0, 0, 0, simulator.ExchangeTZ), to)
	})

	t.Run("utc morning stays on the same exchange day", func(t *testing.T) {
		at := time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC)
		from, to := DayWindow(at)

		assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, simulator.ExchangeTZ), from)
		assert.Equal(t, 24*time.Hour, to.Sub(from))
	})

	t.Run("window is half open", func(t *testing.T) {
		at := time.Date(2024, 3, 15, 12, 0, 0, 0, simulator.ExchangeTZ)
		from, to := DayWindow(at)

		assert.False(t, at.Before(from))
		assert.True(t, at.Before(to))
	})
}

type fakeSummaryRepo struct {
	challenge     *models.Challenge
	plan          *models.ChallengePlan
	daily         *models.DailyTradeSummary
	openTrades    []*models.Trade
	realizedTotal decimal.Decimal
	realizedDay   decimal.Decimal
	dayCount      int

	windowFrom time.Time
	windowTo   time.Time
}

func (f *fakeSummaryRepo) GetChallenge(id int) (*models.Challenge, error) {
	return f.challenge, nil
}

func (f *fakeSummaryRepo) GetChallengePlan(id int) (*models.ChallengePlan, error) {
	return f.plan, nil
}

func (f *fakeSummaryRepo) GetDailySummary(challengeID int, day time.Time) (*models.DailyTradeSummary, error) {
	return f.daily, nil
}

func (f *fakeSummaryRepo) GetOpenTradesByChallenge(challengeID int) ([]*models.Trade, error) {
	return f.openTrades, nil
}

func (f *fakeSummaryRepo) GetRealizedPnlTotal(challengeID int) (decimal.Decimal, error) {
	return f.realizedTotal, nil
}

func (f *fakeSummaryRepo) GetRealizedPnlWindow(challengeID int, from, to time.Time) (decimal.Decimal, int, error) {
	f.windowFrom = from
	f.windowTo = to
	return f.realizedDay, f.dayCount, nil
}

type fakeResolver struct {
	prices map[string]decimal.Decimal
	calls  int
	reqs   []pricing.Request
}

func (f *fakeResolver) Resolve(ctx context.Context, reqs []pricing.Request) map[string]decimal.Decimal {
	f.calls++
	f.reqs = reqs
	if f.prices != nil {
		return f.prices
	}
	// Behave like the real resolver: total map of fallbacks.
	out := make(map[string]decimal.Decimal, len(reqs))
	for _, r := range reqs {
		out[r.Scrip] = r.Fallback
	}
	return out
}

func baseRepo() *fakeSummaryRepo {
	return &fakeSummaryRepo{
		challenge: &models.Challenge{ID: 7, PlanID: 2, Status: models.ChallengeStatusActive},
		plan: &models.ChallengePlan{
			ID:          2,
			AccountSize: decimal.NewFromInt(100000),
		},
	}
}

func TestSummaryWithOpenTrades(t *testing.T) {
	repo := baseRepo()
	repo.realizedTotal = decimal.NewFromInt(-2000)
	repo.realizedDay = decimal.NewFromInt(500)
	repo.dayCount = 3
	repo.openTrades = []*models.Trade{
		{
			Scrip: "RELIANCE", Exchange: "NSE",
			TradeType: models.TradeTypeBuy, Quantity: 10,
			EntryPrice: decimal.NewFromInt(2500),
			Status:     models.TradeStatusOpen,
		},
	}

	resolver := &fakeResolver{prices: map[string]decimal.Decimal{
		"RELIANCE": decimal.NewFromInt(2600),
	}}
	agg := NewAggregator(repo, resolver, zerolog.Nop())

	at := time.Date(2024, 3, 15, 12, 0, 0, 0, simulator.ExchangeTZ)
	got, err := agg.Summary(context.Background(), 7, at)
	require.NoError(t, err)

	assert.Equal(t, 7, got.ChallengeID)
	assert.Equal(t, models.ChallengeStatusActive, got.Status)
	assert.Equal(t, 1, got.OpenTradesCount)
	assert.Equal(t, 3, got.DayTradesCount)

	// 10 * 2600 tied up at the live price.
	assert.True(t, decimal.NewFromInt(26000).Equal(got.CapitalUsed))
	// (2600 - 2500) * 10 unrealized.
	assert.True(t, decimal.NewFromInt(1000).Equal(got.UnrealizedPnl))
	// 100000 - 26000 - 2000 realized loss.
	assert.True(t, decimal.NewFromInt(72000).Equal(got.CapitalAvailable))
	// (500 + 1000) / 100000 * 100
	assert.True(t, decimal.NewFromFloat(1.5).Equal(got.DayPnlPct), "got %v", got.DayPnlPct)
	assert.True(t, got.MarketOpen)
	assert.Equal(t, at, got.AsOf)
}

func TestSummaryNoOpenTradesSkipsPriceResolution(t *testing.T) {
	repo := baseRepo()
	repo.realizedTotal = decimal.NewFromInt(3000)
	resolver := &fakeResolver{}
	agg := NewAggregator(repo, resolver, zerolog.Nop())

	got, err := agg.Summary(context.Background(), 7, time.Date(2024, 3, 16, 12, 0, 0, 0, simulator.ExchangeTZ))
	require.NoError(t, err)

	assert.Zero(t, resolver.calls, "no open trades means no price lookups")
	assert.Zero(t, got.OpenTradesCount)
	assert.True(t, got.CapitalUsed.IsZero())
	assert.True(t, got.UnrealizedPnl.IsZero())
	// Profit never inflates available capital past the account size.
	assert.True(t, decimal.NewFromInt(100000).Equal(got.CapitalAvailable))
	assert.False(t, got.MarketOpen, "saturday")
}

func TestSummaryUsesEntryPriceAsFallback(t *testing.T) {
	repo := baseRepo()
	repo.openTrades = []*models.Trade{
		{
			Scrip: "TCS", Exchange: "NSE",
			TradeType: models.TradeTypeSell, Quantity: 5,
			EntryPrice: decimal.NewFromInt(3800),
			Status:     models.TradeStatusOpen,
		},
	}
	resolver := &fakeResolver{} // echoes fallbacks
	agg := NewAggregator(repo, resolver, zerolog.Nop())

	got, err := agg.Summary(context.Background(), 7, time.Now())
	require.NoError(t, err)

	require.Len(t, resolver.reqs, 1)
	assert.True(t, decimal.NewFromInt(3800).Equal(resolver.reqs[0].Fallback), "fallback must be the entry price")

	// At the entry price the trade is flat but still ties up capital.
	assert.True(t, got.UnrealizedPnl.IsZero())
	assert.True(t, decimal.NewFromInt(19000).Equal(got.CapitalUsed))
}

func TestSummaryQueriesTheExchangeDayWindow(t *testing.T) {
	repo := baseRepo()
	agg := NewAggregator(repo, &fakeResolver{}, zerolog.Nop())

	at := time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)
	_, err := agg.Summary(context.Background(), 7, at)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, simulator.ExchangeTZ), repo.windowFrom)
	assert.Equal(t, time.Date(2024, 3, 17, 0, 0, 0, 0, simulator.ExchangeTZ), repo.windowTo)
}

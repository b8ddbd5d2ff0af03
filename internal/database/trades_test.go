package database

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge/propdesk/internal/apperrors"
	"github.com/tradeforge/propdesk/internal/models"
)

func createTestChallenge(t *testing.T, testDB *TestDB, userID int) *models.Challenge {
	t.Helper()
	plan := testDB.CreateTestPlan(t, "Starter", 100000, true)
	c := &models.Challenge{UserID: userID, PlanID: plan.ID}
	require.NoError(t, testDB.CreateChallenge(c))
	return c
}

func TestTradesRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("CreateTrade creates open trade", func(t *testing.T) {
		testDB.TruncateAll(t)
		c := createTestChallenge(t, testDB, 42)

		trade := &models.Trade{
			ChallengeID: c.ID,
			Scrip:       "RELIANCE",
			Exchange:    "NSE",
			TradeType:   models.TradeTypeBuy,
			Quantity:    10,
			EntryPrice:  decimal.NewFromFloat(2500.50),
		}
		err := testDB.CreateTrade(trade)
		require.NoError(t, err)

		assert.NotZero(t, trade.ID)
		assert.Equal(t, models.TradeStatusOpen, trade.Status)
		assert.False(t, trade.EntryTime.IsZero())
	})

	t.Run("GetTrade retrieves trade", func(t *testing.T) {
		testDB.TruncateAll(t)
		c := createTestChallenge(t, testDB, 42)

		trade := &models.Trade{
			ChallengeID: c.ID, Scrip: "TCS", Exchange: "NSE",
			TradeType: models.TradeTypeSell, Quantity: 5,
			EntryPrice: decimal.NewFromInt(3800),
		}
		require.NoError(t, testDB.CreateTrade(trade))

		retrieved, err := testDB.GetTrade(trade.ID)
		require.NoError(t, err)
		assert.Equal(t, "TCS", retrieved.Scrip)
		assert.Equal(t, models.TradeTypeSell, retrieved.TradeType)
		assert.Nil(t, retrieved.ExitPrice)
		assert.Nil(t, retrieved.ExitTime)
	})

	t.Run("CloseTrade sets exit fields", func(t *testing.T) {
		testDB.TruncateAll(t)
		c := createTestChallenge(t, testDB, 42)

		trade := &models.Trade{
			ChallengeID: c.ID, Scrip: "INFY", Exchange: "NSE",
			TradeType: models.TradeTypeBuy, Quantity: 10,
			EntryPrice: decimal.NewFromInt(1500),
		}
		require.NoError(t, testDB.CreateTrade(trade))

		exitTime := time.Now()
		err := testDB.CloseTrade(trade.ID, decimal.NewFromInt(1550), decimal.NewFromInt(500), exitTime)
		require.NoError(t, err)

		closed, err := testDB.GetTrade(trade.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TradeStatusClosed, closed.Status)
		require.NotNil(t, closed.ExitPrice)
		assert.True(t, decimal.NewFromInt(1550).Equal(*closed.ExitPrice))
		require.NotNil(t, closed.ExitTime)
		assert.True(t, decimal.NewFromInt(500).Equal(closed.Pnl))
	})

	t.Run("CloseTrade twice is a conflict", func(t *testing.T) {
		testDB.TruncateAll(t)
		c := createTestChallenge(t, testDB, 42)

		trade := &models.Trade{
			ChallengeID: c.ID, Scrip: "INFY", Exchange: "NSE",
			TradeType: models.TradeTypeBuy, Quantity: 10,
			EntryPrice: decimal.NewFromInt(1500),
		}
		require.NoError(t, testDB.CreateTrade(trade))
		require.NoError(t, testDB.CloseTrade(trade.ID, decimal.NewFromInt(1550), decimal.NewFromInt(500), time.Now()))

		err := testDB.CloseTrade(trade.ID, decimal.NewFromInt(1560), decimal.NewFromInt(600), time.Now())
		var conflict *apperrors.ConflictError
		require.ErrorAs(t, err, &conflict)
	})

	t.Run("GetOpenTradesByChallenge returns only open", func(t *testing.T) {
		testDB.TruncateAll(t)
		c := createTestChallenge(t, testDB, 42)

		open := &models.Trade{
			ChallengeID: c.ID, Scrip: "A", Exchange: "NSE",
			TradeType: models.TradeTypeBuy, Quantity: 1, EntryPrice: decimal.NewFromInt(100),
		}
		closed := &models.Trade{
			ChallengeID: c.ID, Scrip: "B", Exchange: "NSE",
			TradeType: models.TradeTypeBuy, Quantity: 1, EntryPrice: decimal.NewFromInt(100),
		}
		require.NoError(t, testDB.CreateTrade(open))
		require.NoError(t, testDB.CreateTrade(closed))
		require.NoError(t, testDB.CloseTrade(closed.ID, decimal.NewFromInt(110), decimal.NewFromInt(10), time.Now()))

		trades, err := testDB.GetOpenTradesByChallenge(c.ID)
		require.NoError(t, err)
		require.Len(t, trades, 1)
		assert.Equal(t, "A", trades[0].Scrip)
	})

	t.Run("GetTradesByChallenge paginates", func(t *testing.T) {
		testDB.TruncateAll(t)
		c := createTestChallenge(t, testDB, 42)

		base := time.Now().Add(-time.Hour)
		for i := 0; i < 5; i++ {
			trade := &models.Trade{
				ChallengeID: c.ID, Scrip: "PAGE", Exchange: "NSE",
				TradeType: models.TradeTypeBuy, Quantity: 1,
				EntryPrice: decimal.NewFromInt(100),
				EntryTime:  base.Add(time.Duration(i) * time.Minute),
			}
			require.NoError(t, testDB.CreateTrade(trade))
		}

		page1, err := testDB.GetTradesByChallenge(c.ID, "", 1, 2)
		require.NoError(t, err)
		require.Len(t, page1, 2)

		page3, err := testDB.GetTradesByChallenge(c.ID, "", 3, 2)
		require.NoError(t, err)
		assert.Len(t, page3, 1)

		// Newest first.
		assert.True(t, page1[0].EntryTime.After(page1[1].EntryTime))
	})

	t.Run("GetTradesByChallenge filters by status", func(t *testing.T) {
		testDB.TruncateAll(t)
		c := createTestChallenge(t, testDB, 42)

		open := &models.Trade{
			ChallengeID: c.ID, Scrip: "A", Exchange: "NSE",
			TradeType: models.TradeTypeBuy, Quantity: 1, EntryPrice: decimal.NewFromInt(100),
		}
		closed := &models.Trade{
			ChallengeID: c.ID, Scrip: "B", Exchange: "NSE",
			TradeType: models.TradeTypeBuy, Quantity: 1, EntryPrice: decimal.NewFromInt(100),
		}
		require.NoError(t, testDB.CreateTrade(open))
		require.NoError(t, testDB.CreateTrade(closed))
		require.NoError(t, testDB.CloseTrade(closed.ID, decimal.NewFromInt(90), decimal.NewFromInt(-10), time.Now()))

		closedTrades, err := testDB.GetTradesByChallenge(c.ID, models.TradeStatusClosed, 1, 10)
		require.NoError(t, err)
		require.Len(t, closedTrades, 1)
		assert.Equal(t, "B", closedTrades[0].Scrip)
	})

	t.Run("GetRealizedPnlTotal sums closed trades only", func(t *testing.T) {
		testDB.TruncateAll(t)
		c := createTestChallenge(t, testDB, 42)

		for i, pnl := range []int64{500, -200} {
			trade := &models.Trade{
				ChallengeID: c.ID, Scrip: "X", Exchange: "NSE",
				TradeType: models.TradeTypeBuy, Quantity: 1,
				EntryPrice: decimal.NewFromInt(100 + int64(i)),
			}
			require.NoError(t, testDB.CreateTrade(trade))
			require.NoError(t, testDB.CloseTrade(trade.ID, decimal.NewFromInt(100), decimal.NewFromInt(pnl), time.Now()))
		}
		openTrade := &models.Trade{
			ChallengeID: c.ID, Scrip: "Y", Exchange: "NSE",
			TradeType: models.TradeTypeBuy, Quantity: 1,
			EntryPrice: decimal.NewFromInt(100),
			Pnl:        decimal.NewFromInt(9999), // must be ignored while open
		}
		require.NoError(t, testDB.CreateTrade(openTrade))

		total, err := testDB.GetRealizedPnlTotal(c.ID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(300).Equal(total), "got %v", total)
	})

	t.Run("GetRealizedPnlTotal with no trades is zero", func(t *testing.T) {
		testDB.TruncateAll(t)
		c := createTestChallenge(t, testDB, 42)

		total, err := testDB.GetRealizedPnlTotal(c.ID)
		require.NoError(t, err)
		assert.True(t, total.IsZero())
	})

	t.Run("GetRealizedPnlWindow is half open", func(t *testing.T) {
		testDB.TruncateAll(t)
		c := createTestChallenge(t, testDB, 42)

		from := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
		to := from.Add(24 * time.Hour)

		exits := []struct {
			at  time.Time
			pnl int64
		}{
			{from, 100},                      // boundary start: included
			{from.Add(12 * time.Hour), 200},  // inside
			{to, 400},                        // boundary end: excluded
			{from.Add(-time.Second), 800},    // before: excluded
		}

		for _, e := range exits {
			trade := &models.Trade{
				ChallengeID: c.ID, Scrip: "W", Exchange: "NSE",
				TradeType: models.TradeTypeBuy, Quantity: 1,
				EntryPrice: decimal.NewFromInt(100),
			}
			require.NoError(t, testDB.CreateTrade(trade))
			require.NoError(t, testDB.CloseTrade(trade.ID, decimal.NewFromInt(100), decimal.NewFromInt(e.pnl), e.at))
		}

		total, count, err := testDB.GetRealizedPnlWindow(c.ID, from, to)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.True(t, decimal.NewFromInt(300).Equal(total), "got %v", total)
	})
}

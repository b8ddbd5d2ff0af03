package database

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge/propdesk/internal/models"
)

func TestDailySummariesRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	t.Run("GetDailySummary returns nil for missing row", func(t *testing.T) {
		testDB.TruncateAll(t)
		c := createTestChallenge(t, testDB, 42)

		s, err := testDB.GetDailySummary(c.ID, day)
		require.NoError(t, err)
		assert.Nil(t, s, "missing rollup row is not an error")
	})

	t.Run("UpsertDailySummary inserts and replaces", func(t *testing.T) {
		testDB.TruncateAll(t)
		c := createTestChallenge(t, testDB, 42)

		s := &models.DailyTradeSummary{
			ChallengeID: c.ID,
			SummaryDate: day,
			TradesCount: 3,
			RealizedPnl: decimal.NewFromInt(1200),
		}
		require.NoError(t, testDB.UpsertDailySummary(s))
		assert.NotZero(t, s.ID)

		s.TradesCount = 4
		s.RealizedPnl = decimal.NewFromInt(900)
		require.NoError(t, testDB.UpsertDailySummary(s))

		retrieved, err := testDB.GetDailySummary(c.ID, day)
		require.NoError(t, err)
		require.NotNil(t, retrieved)
		assert.Equal(t, 4, retrieved.TradesCount)
		assert.True(t, decimal.NewFromInt(900).Equal(retrieved.RealizedPnl))
	})

	t.Run("ApplyTradeToDailySummary accumulates", func(t *testing.T) {
		testDB.TruncateAll(t)
		c := createTestChallenge(t, testDB, 42)

		require.NoError(t, testDB.ApplyTradeToDailySummary(c.ID, day, decimal.NewFromInt(500)))
		require.NoError(t, testDB.ApplyTradeToDailySummary(c.ID, day, decimal.NewFromInt(-200)))
		require.NoError(t, testDB.ApplyTradeToDailySummary(c.ID, day, decimal.Zero))

		s, err := testDB.GetDailySummary(c.ID, day)
		require.NoError(t, err)
		require.NotNil(t, s)

		assert.Equal(t, 3, s.TradesCount)
		assert.True(t, decimal.NewFromInt(300).Equal(s.RealizedPnl), "got %v", s.RealizedPnl)
		assert.Equal(t, 1, s.WinningTrades)
		assert.Equal(t, 1, s.LosingTrades, "flat trades count as neither")
	})

	t.Run("summaries are per day", func(t *testing.T) {
		testDB.TruncateAll(t)
		c := createTestChallenge(t, testDB, 42)

		nextDay := day.Add(24 * time.Hour)
		require.NoError(t, testDB.ApplyTradeToDailySummary(c.ID, day, decimal.NewFromInt(500)))
		require.NoError(t, testDB.ApplyTradeToDailySummary(c.ID, nextDay, decimal.NewFromInt(700)))

		first, err := testDB.GetDailySummary(c.ID, day)
		require.NoError(t, err)
		require.NotNil(t, first)
		assert.Equal(t, 1, first.TradesCount)

		second, err := testDB.GetDailySummary(c.ID, nextDay)
		require.NoError(t, err)
		require.NotNil(t, second)
		assert.True(t, decimal.NewFromInt(700).Equal(second.RealizedPnl))
	})
}

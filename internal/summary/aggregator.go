// Package summary assembles the consolidated point-in-time view of a
// challenge's trading state.
package summary

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/tradeforge/propdesk/internal/models"
	"github.com/tradeforge/propdesk/internal/pricing"
	"github.com/tradeforge/propdesk/internal/risk"
	"github.com/tradeforge/propdesk/internal/simulator"
)

// DayWindow returns [start-of-day, start-of-day+24h) around the given
// instant in the fixed exchange timezone. The boundary is the
// exchange's midnight, not UTC midnight.
func DayWindow(at time.Time) (time.Time, time.Time) {
	local := at.In(simulator.ExchangeTZ)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, simulator.ExchangeTZ)
	return start, start.Add(24 * time.Hour)
}

// repository is the slice of the database the aggregator needs.
type repository interface {
	GetChallenge(id int) (*models.Challenge, error)
	GetChallengePlan(id int) (*models.ChallengePlan, error)
	GetDailySummary(challengeID int, day time.Time) (*models.DailyTradeSummary, error)
	GetOpenTradesByChallenge(challengeID int) ([]*models.Trade, error)
	GetRealizedPnlTotal(challengeID int) (decimal.Decimal, error)
	GetRealizedPnlWindow(challengeID int, from, to time.Time) (decimal.Decimal, int, error)
}

// priceResolver is the slice of the pricing resolver the aggregator needs.
type priceResolver interface {
	Resolve(ctx context.Context, reqs []pricing.Request) map[string]decimal.Decimal
}

// Aggregator builds account summaries.
type Aggregator struct {
	repo   repository
	prices priceResolver
	log    zerolog.Logger
}

// NewAggregator creates a new summary aggregator
func NewAggregator(repo repository, prices priceResolver, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		repo:   repo,
		prices: prices,
		log:    log.With().Str("component", "summary").Logger(),
	}
}

// Summary builds the consolidated view of a challenge as of the given
// instant (use time.Now() for "now").
func (a *Aggregator) Summary(ctx context.Context, challengeID int, at time.Time) (*models.AccountSummary, error) {
	challenge, err := a.repo.GetChallenge(challengeID)
	if err != nil {
		return nil, err
	}

	plan, err := a.repo.GetChallengePlan(challenge.PlanID)
	if err != nil {
		return nil, err
	}

	from, to := DayWindow(at)

	var (
		daily          *models.DailyTradeSummary
		openTrades     []*models.Trade
		realizedTotal  decimal.Decimal
		realizedDay    decimal.Decimal
		dayTradesCount int
	)

	var g errgroup.Group
	g.Go(func() error {
		var err error
		daily, err = a.repo.GetDailySummary(challengeID, from)
		return err
	})
	g.Go(func() error {
		var err error
		openTrades, err = a.repo.GetOpenTradesByChallenge(challengeID)
		return err
	})
	g.Go(func() error {
		var err error
		realizedTotal, err = a.repo.GetRealizedPnlTotal(challengeID)
		return err
	})
	g.Go(func() error {
		var err error
		realizedDay, dayTradesCount, err = a.repo.GetRealizedPnlWindow(challengeID, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	capitalUsed := decimal.Zero
	unrealized := decimal.Zero

	if len(openTrades) > 0 {
		reqs := make([]pricing.Request, 0, len(openTrades))
		for _, t := range openTrades {
			reqs = append(reqs, pricing.Request{
				Scrip:    t.Scrip,
				Exchange: t.Exchange,
				Fallback: t.EntryPrice,
			})
		}
		ltps := a.prices.Resolve(ctx, reqs)

		for _, t := range openTrades {
			ltp := ltps[t.Scrip]
			capitalUsed = capitalUsed.Add(risk.RequiredCapital(t.Quantity, ltp))
			unrealized = unrealized.Add(risk.UnrealizedPnl(t, ltp))
		}
	}

	capital := risk.CapitalAvailable(plan.AccountSize, capitalUsed, realizedTotal)

	return &models.AccountSummary{
		ChallengeID:      challenge.ID,
		Status:           challenge.Status,
		AccountSize:      plan.AccountSize,
		DailySummary:     daily,
		OpenTradesCount:  len(openTrades),
		DayTradesCount:   dayTradesCount,
		RealizedPnlTotal: realizedTotal,
		RealizedPnlDay:   realizedDay,
		UnrealizedPnl:    unrealized,
		CapitalUsed:      capitalUsed,
		CapitalAvailable: capital.AvailableDisplay,
		DayPnlPct:        risk.DayPnlPct(realizedDay, unrealized, plan.AccountSize),
		MarketOpen:       simulator.IsMarketOpen(at),
		AsOf:             at,
	}, nil
}

package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradeforge/propdesk/internal/models"
	"github.com/tradeforge/propdesk/internal/simulator"
)

// tickPublisher emits the market tick event. May be nil.
type tickPublisher interface {
	PublishPricesUpdated(ctx context.Context, scrips []string) error
}

// MarketTickJob advances the synthetic tape on schedule. The simulator
// itself is the market-hours gate; outside hours each run is a no-op.
type MarketTickJob struct {
	sim      *simulator.Simulator
	producer tickPublisher
	log      zerolog.Logger
}

// NewMarketTickJob creates the price tick job
func NewMarketTickJob(sim *simulator.Simulator, producer tickPublisher, log zerolog.Logger) *MarketTickJob {
	return &MarketTickJob{
		sim:      sim,
		producer: producer,
		log:      log.With().Str("job", "market-tick").Logger(),
	}
}

// Name returns the job name
func (j *MarketTickJob) Name() string { return "market-tick" }

// Run advances all known scrips once
func (j *MarketTickJob) Run() error {
	updated, err := j.sim.Tick(nil)
	if err != nil {
		return err
	}
	if len(updated) == 0 {
		return nil
	}

	if j.producer != nil {
		scrips := scripNames(updated)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := j.producer.PublishPricesUpdated(ctx, scrips); err != nil {
			j.log.Error().Err(err).Msg("Failed to publish prices updated event")
		}
	}
	return nil
}

func scripNames(records []*models.MarketDataRecord) []string {
	names := make([]string, 0, len(records))
	for _, m := range records {
		names = append(names, m.Scrip)
	}
	return names
}

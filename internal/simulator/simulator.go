// Package simulator maintains the synthetic price tape: a bounded
// random walk per scrip, advanced only during market hours.
package simulator

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tradeforge/propdesk/internal/models"
)

// Default tick bounds.
const (
	DefaultMinPct = 0.005
	DefaultMaxPct = 0.02

	volumeJitterPct = 0.02
)

// ExchangeTZ is the fixed UTC+5:30 offset all market-hours and
// day-window logic uses. Deliberately a fixed zone, not a tzdata
// lookup: the behaviour must not depend on host timezone data.
var ExchangeTZ = time.FixedZone("UTC+5:30", 5*3600+30*60)

// IsMarketOpen reports whether the simulated market trades at the
// given instant: Mon-Fri, 09:15-15:30 in the exchange timezone.
func IsMarketOpen(now time.Time) bool {
	local := now.In(ExchangeTZ)

	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	minutes := local.Hour()*60 + local.Minute()
	openAt := 9*60 + 15
	closeAt := 15*60 + 30
	return minutes >= openAt && minutes < closeAt
}

// repository is the slice of the database the simulator needs.
type repository interface {
	GetAllMarketData() ([]*models.MarketDataRecord, error)
	GetMarketDataByScrips(scrips []string) ([]*models.MarketDataRecord, error)
	UpdateMarketDataBatch(records []*models.MarketDataRecord) error
}

// Simulator advances the price tape.
type Simulator struct {
	repo   repository
	log    zerolog.Logger
	minPct float64
	maxPct float64

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// New creates a simulator with the given tick bounds. Pass zero bounds
// to use the defaults.
func New(repo repository, minPct, maxPct float64, log zerolog.Logger) *Simulator {
	if minPct <= 0 {
		minPct = DefaultMinPct
	}
	if maxPct <= 0 {
		maxPct = DefaultMaxPct
	}
	return &Simulator{
		repo:   repo,
		log:    log.With().Str("component", "simulator").Logger(),
		minPct: minPct,
		maxPct: maxPct,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
	}
}

// Advance computes the next price of a random-walk step: a uniformly
// random direction, a magnitude uniform in [minPct, maxPct], clamped
// at zero and rounded to 2 decimal places.
func Advance(basePrice decimal.Decimal, minPct, maxPct float64, rng *rand.Rand) decimal.Decimal {
	magnitude := minPct + rng.Float64()*(maxPct-minPct)
	if rng.Intn(2) == 0 {
		magnitude = -magnitude
	}

	next := basePrice.Mul(decimal.NewFromFloat(1 + magnitude)).Round(2)
	if next.IsNegative() {
		return decimal.Zero
	}
	return next
}

// Tick advances the tape for the given scrips (all known scrips when
// empty) and persists the whole batch in one transaction. Outside
// market hours it is a no-op: repeated closed-market calls leave every
// record untouched.
func (s *Simulator) Tick(scrips []string) ([]*models.MarketDataRecord, error) {
	if !IsMarketOpen(s.now()) {
		s.log.Debug().Msg("Market closed, skipping tick")
		return nil, nil
	}

	var records []*models.MarketDataRecord
	var err error
	if len(scrips) == 0 {
		records, err = s.repo.GetAllMarketData()
	} else {
		records, err = s.repo.GetMarketDataByScrips(scrips)
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	for _, m := range records {
		s.apply(m)
	}
	s.mu.Unlock()

	if err := s.repo.UpdateMarketDataBatch(records); err != nil {
		return nil, err
	}

	s.log.Debug().Int("scrips", len(records)).Msg("Price tick applied")
	return records, nil
}

// apply mutates one record with a new price and volume drift. Caller
// holds s.mu for rng access.
func (s *Simulator) apply(m *models.MarketDataRecord) {
	next := Advance(m.Ltp, s.minPct, s.maxPct, s.rng)

	m.Ltp = next
	m.Close = next
	if next.GreaterThan(m.High) {
		m.High = next
	}
	if next.LessThan(m.Low) {
		m.Low = next
	}

	jitter := (s.rng.Float64()*2 - 1) * volumeJitterPct
	volume := int64(float64(m.Volume) * (1 + jitter))
	if volume < 0 {
		volume = 0
	}
	m.Volume = volume
}

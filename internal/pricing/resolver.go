// Package pricing resolves one authoritative live price per symbol,
// hiding broker transience behind a fallback contract: callers always
// get a price for every symbol they asked about.
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tradeforge/propdesk/internal/broker"
)

// Request is one (scrip, exchange, fallback price) tuple.
type Request struct {
	Scrip    string
	Exchange string
	Fallback decimal.Decimal
}

var errStaleSession = errors.New("broker session stale")

// sessionSource is the slice of the session manager the resolver needs.
type sessionSource interface {
	GetSession(ctx context.Context, forceRefresh bool) (*broker.Session, error)
}

// quoteAPI is the slice of the broker client the resolver needs.
type quoteAPI interface {
	Quote(ctx context.Context, session *broker.Session, exchangeTokens map[string][]string) (int, []byte, error)
}

// Resolver turns price requests into a total price map.
type Resolver struct {
	sessions sessionSource
	api      quoteAPI
	cache    Cache // nil disables caching
	log      zerolog.Logger
}

// NewResolver creates a new price resolver
func NewResolver(sessions sessionSource, api quoteAPI, cache Cache, log zerolog.Logger) *Resolver {
	return &Resolver{
		sessions: sessions,
		api:      api,
		cache:    cache,
		log:      log.With().Str("component", "price-resolver").Logger(),
	}
}

// quoteResponse is the broker quote envelope.
type quoteResponse struct {
	Status bool `json:"status"`
	Data   struct {
		Fetched []struct {
			TradingSymbol string  `json:"tradingSymbol"`
			Exchange      string  `json:"exchange"`
			Ltp           float64 `json:"ltp"`
		} `json:"fetched"`
	} `json:"data"`
}

// Resolve returns a price for every requested symbol: the live broker
// price when available, the caller-supplied fallback otherwise. A
// stale session is retried exactly once with a forced refresh; any
// further failure falls back rather than propagating.
func (r *Resolver) Resolve(ctx context.Context, reqs []Request) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(reqs))
	pending := make(map[string][]string) // exchange -> scrips
	seen := make(map[string]bool)

	for _, req := range reqs {
		if _, ok := out[req.Scrip]; !ok {
			out[req.Scrip] = req.Fallback
		}

		key := req.Exchange + ":" + req.Scrip
		if seen[key] {
			continue
		}
		seen[key] = true

		if r.cache != nil {
			if price, ok := r.cache.Get(ctx, key); ok {
				out[req.Scrip] = price
				continue
			}
		}
		pending[req.Exchange] = append(pending[req.Exchange], req.Scrip)
	}

	if len(pending) == 0 {
		return out
	}

	prices, err := r.fetchWithRetry(ctx, pending)
	if err != nil {
		r.log.Warn().Err(err).Msg("Live price fetch failed, using fallback prices")
		return out
	}

	for scrip, price := range prices {
		out[scrip] = price
	}
	return out
}

// fetchWithRetry performs one quote call, retrying exactly once with a
// forced session refresh when the first response is stale-session.
func (r *Resolver) fetchWithRetry(ctx context.Context, exchangeTokens map[string][]string) (map[string]decimal.Decimal, error) {
	prices, err := r.fetchOnce(ctx, exchangeTokens, false)
	if !errors.Is(err, errStaleSession) {
		return prices, err
	}

	r.log.Info().Msg("Stale broker session, retrying with forced refresh")
	prices, err = r.fetchOnce(ctx, exchangeTokens, true)
	if errors.Is(err, errStaleSession) {
		return nil, fmt.Errorf("session still stale after refresh")
	}
	return prices, err
}

func (r *Resolver) fetchOnce(ctx context.Context, exchangeTokens map[string][]string, forceRefresh bool) (map[string]decimal.Decimal, error) {
	session, err := r.sessions.GetSession(ctx, forceRefresh)
	if err != nil {
		return nil, fmt.Errorf("failed to get broker session: %w", err)
	}

	status, body, err := r.api.Quote(ctx, session, exchangeTokens)
	if err != nil {
		return nil, fmt.Errorf("quote request failed: %w", err)
	}

	switch broker.Classify(status, body) {
	case broker.OutcomeSessionExpired:
		return nil, errStaleSession
	case broker.OutcomeMalformed:
		// A fresh session would not fix malformed output.
		return nil, fmt.Errorf("malformed quote response")
	case broker.OutcomeUpstreamError:
		return nil, fmt.Errorf("broker reported quote failure (status %d)", status)
	}

	var resp quoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse quote response: %w", err)
	}

	prices := make(map[string]decimal.Decimal, len(resp.Data.Fetched))
	for _, q := range resp.Data.Fetched {
		price := decimal.NewFromFloat(q.Ltp)
		prices[q.TradingSymbol] = price

		if r.cache != nil {
			r.cache.Set(ctx, q.Exchange+":"+q.TradingSymbol, price)
		}
	}
	return prices, nil
}

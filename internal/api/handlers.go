// Package api exposes the HTTP surface of the evaluation engine.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradeforge/propdesk/internal/apperrors"
	"github.com/tradeforge/propdesk/internal/broker"
	"github.com/tradeforge/propdesk/internal/challenge"
	"github.com/tradeforge/propdesk/internal/database"
	"github.com/tradeforge/propdesk/internal/models"
	"github.com/tradeforge/propdesk/internal/simulator"
	"github.com/tradeforge/propdesk/internal/summary"
)

const (
	defaultTradesLimit = 20
	maxTradesLimit     = 100
)

// Handler holds the service dependencies for all HTTP endpoints.
type Handler struct {
	db         *database.DB
	sessions   *broker.SessionManager
	brokerAPI  *broker.Client
	sim        *simulator.Simulator
	aggregator *summary.Aggregator
	challenges *challenge.Service
	verifier   TokenVerifier
	cronSecret string
	devMode    bool
	log        zerolog.Logger
}

// NewHandler creates a new API handler
func NewHandler(
	db *database.DB,
	sessions *broker.SessionManager,
	brokerAPI *broker.Client,
	sim *simulator.Simulator,
	aggregator *summary.Aggregator,
	challenges *challenge.Service,
	verifier TokenVerifier,
	cronSecret string,
	devMode bool,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		db:         db,
		sessions:   sessions,
		brokerAPI:  brokerAPI,
		sim:        sim,
		aggregator: aggregator,
		challenges: challenges,
		verifier:   verifier,
		cronSecret: cronSecret,
		devMode:    devMode,
		log:        log.With().Str("component", "api").Logger(),
	}
}

// HealthCheck reports liveness and database reachability.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if err := h.db.Ping(); err != nil {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, map[string]string{"status": status})
}

// GetSession establishes (or reuses) the broker session and reports it.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.GetSession(r.Context(), false)
	if err != nil {
		respondError(w, h.log, h.devMode, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated":  true,
		"clientCode":     session.ClientCode,
		"tokenExpiresAt": session.TokenExpiresAt,
	})
}

// UpdateBrokerCredentials replaces the broker login secrets and
// invalidates the cached session. Admin only.
func (h *Handler) UpdateBrokerCredentials(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok || identity.Role != RoleAdmin {
		respondError(w, h.log, h.devMode, apperrors.NewForbiddenError("admin role required"))
		return
	}

	var req struct {
		APIKey     string `json:"apiKey"`
		ClientCode string `json:"clientCode"`
		MPin       string `json:"mpin"`
		TotpSecret string `json:"totpSecret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, h.devMode, apperrors.NewValidationError("body", "invalid JSON"))
		return
	}
	if req.APIKey == "" || req.ClientCode == "" || req.MPin == "" || req.TotpSecret == "" {
		respondError(w, h.log, h.devMode, apperrors.NewValidationError("body", "all credential fields are required"))
		return
	}

	err := h.sessions.UpdateCredentials(r.Context(), broker.Credentials{
		APIKey:     req.APIKey,
		ClientCode: req.ClientCode,
		MPin:       req.MPin,
		TotpSecret: req.TotpSecret,
	})
	if err != nil {
		respondError(w, h.log, h.devMode, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "credentials updated"})
}

// GetHistorical proxies a candle query to the broker, refreshing the
// session once if the broker reports it stale.
func (h *Handler) GetHistorical(w http.ResponseWriter, r *http.Request) {
	var req broker.HistoricalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, h.devMode, apperrors.NewValidationError("body", "invalid JSON"))
		return
	}
	if req.Exchange == "" || req.SymbolToken == "" || req.Interval == "" {
		respondError(w, h.log, h.devMode, apperrors.NewValidationError("body", "exchange, symboltoken and interval are required"))
		return
	}

	body, err := h.proxyBrokerCall(r.Context(), func(s *broker.Session) (int, []byte, error) {
		return h.brokerAPI.Candles(r.Context(), s, req)
	})
	if err != nil {
		respondError(w, h.log, h.devMode, err)
		return
	}

	writeRawJSON(w, body)
}

// SearchScrip proxies an instrument search to the broker.
func (h *Handler) SearchScrip(w http.ResponseWriter, r *http.Request) {
	var req broker.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, h.devMode, apperrors.NewValidationError("body", "invalid JSON"))
		return
	}
	if req.Exchange == "" || req.SearchScrip == "" {
		respondError(w, h.log, h.devMode, apperrors.NewValidationError("body", "exchange and searchscrip are required"))
		return
	}

	body, err := h.proxyBrokerCall(r.Context(), func(s *broker.Session) (int, []byte, error) {
		return h.brokerAPI.SearchScrip(r.Context(), s, req)
	})
	if err != nil {
		respondError(w, h.log, h.devMode, err)
		return
	}

	writeRawJSON(w, body)
}

// proxyBrokerCall runs a secure broker call with the stale-session
// policy: classify the response, and on a stale session force exactly
// one refresh and retry. Any failure after that is an upstream error.
func (h *Handler) proxyBrokerCall(ctx context.Context, call func(*broker.Session) (int, []byte, error)) ([]byte, error) {
	session, err := h.sessions.GetSession(ctx, false)
	if err != nil {
		return nil, err
	}

	status, body, err := call(session)
	if err != nil {
		return nil, apperrors.NewBrokerUpstreamError(true, status, "", err)
	}

	switch broker.Classify(status, body) {
	case broker.OutcomeOK:
		return body, nil
	case broker.OutcomeMalformed:
		return nil, apperrors.NewBrokerUpstreamError(true, status, string(body), nil)
	case broker.OutcomeUpstreamError:
		return nil, apperrors.NewBrokerUpstreamError(false, status, string(body), nil)
	}

	// Stale session: one forced refresh, one retry.
	session, err = h.sessions.GetSession(ctx, true)
	if err != nil {
		return nil, err
	}

	status, body, err = call(session)
	if err != nil {
		return nil, apperrors.NewBrokerUpstreamError(true, status, "", err)
	}

	switch broker.Classify(status, body) {
	case broker.OutcomeOK:
		return body, nil
	case broker.OutcomeMalformed:
		return nil, apperrors.NewBrokerUpstreamError(true, status, string(body), nil)
	default:
		return nil, apperrors.NewBrokerUpstreamError(false, status, string(body), nil)
	}
}

// UpdateMarketData advances the synthetic tape once. Guarded by the
// cron secret or an admin identity; outside market hours it reports an
// empty update without touching anything.
func (h *Handler) UpdateMarketData(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scrips []string `json:"scrips"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, h.log, h.devMode, apperrors.NewValidationError("body", "invalid JSON"))
			return
		}
	}

	updated, err := h.sim.Tick(req.Scrips)
	if err != nil {
		respondError(w, h.log, h.devMode, err)
		return
	}
	if updated == nil {
		updated = []*models.MarketDataRecord{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"marketOpen": simulator.IsMarketOpen(time.Now()),
		"updated":    updated,
	})
}

// GetMarketData lists the current synthetic tape.
func (h *Handler) GetMarketData(w http.ResponseWriter, r *http.Request) {
	records, err := h.db.GetAllMarketData()
	if err != nil {
		respondError(w, h.log, h.devMode, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"marketData": records})
}

// GetChallengePlans lists the plans open for selection.
func (h *Handler) GetChallengePlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.db.GetActiveChallengePlans()
	if err != nil {
		respondError(w, h.log, h.devMode, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"plans": plans})
}

// SelectChallenge points the caller's evaluation slot at a plan.
func (h *Handler) SelectChallenge(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		respondError(w, h.log, h.devMode, apperrors.NewAuthError("missing identity"))
		return
	}

	var req struct {
		PlanID int `json:"planId"`
		UserID int `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, h.devMode, apperrors.NewValidationError("body", "invalid JSON"))
		return
	}
	if req.PlanID <= 0 {
		respondError(w, h.log, h.devMode, apperrors.NewValidationError("planId", "must be a positive integer"))
		return
	}

	userID := identity.UserID
	if req.UserID != 0 && req.UserID != identity.UserID {
		if identity.Role != RoleAdmin {
			respondError(w, h.log, h.devMode, apperrors.NewForbiddenError("cannot select a plan for another user"))
			return
		}
		userID = req.UserID
	}

	result, err := h.challenges.SelectPlan(r.Context(), userID, req.PlanID)
	if err != nil {
		respondError(w, h.log, h.devMode, err)
		return
	}

	code := http.StatusOK
	if !result.AlreadySelected && !result.Reset {
		code = http.StatusCreated
	}
	respondJSON(w, code, result)
}

// GetTradingSummary returns the consolidated account summary for a
// challenge, as of now or an explicit ?date=YYYY-MM-DD.
func (h *Handler) GetTradingSummary(w http.ResponseWriter, r *http.Request) {
	challengeID, err := h.authorizedChallengeID(r)
	if err != nil {
		respondError(w, h.log, h.devMode, err)
		return
	}

	at := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		day, err := time.ParseInLocation("2006-01-02", raw, simulator.ExchangeTZ)
		if err != nil {
			respondError(w, h.log, h.devMode, apperrors.NewValidationError("date", "must be YYYY-MM-DD"))
			return
		}
		at = day
	}

	result, err := h.aggregator.Summary(r.Context(), challengeID, at)
	if err != nil {
		respondError(w, h.log, h.devMode, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetTrades returns a page of trades for a challenge.
func (h *Handler) GetTrades(w http.ResponseWriter, r *http.Request) {
	challengeID, err := h.authorizedChallengeID(r)
	if err != nil {
		respondError(w, h.log, h.devMode, err)
		return
	}

	q := r.URL.Query()

	status := q.Get("status")
	if status != "" && status != "OPEN" && status != "CLOSED" {
		respondError(w, h.log, h.devMode, apperrors.NewValidationError("status", "must be OPEN or CLOSED"))
		return
	}

	page := clampPage(parseIntDefault(q.Get("page"), 1))
	limit := clampLimit(parseIntDefault(q.Get("limit"), defaultTradesLimit))

	trades, err := h.db.GetTradesByChallenge(challengeID, status, page, limit)
	if err != nil {
		respondError(w, h.log, h.devMode, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"trades": trades,
		"page":   page,
		"limit":  limit,
		"count":  len(trades),
	})
}

// authorizedChallengeID parses ?challengeId= and verifies the caller
// owns the challenge (admins see everything).
func (h *Handler) authorizedChallengeID(r *http.Request) (int, error) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		return 0, apperrors.NewAuthError("missing identity")
	}

	challengeID, err := strconv.Atoi(r.URL.Query().Get("challengeId"))
	if err != nil || challengeID <= 0 {
		return 0, apperrors.NewValidationError("challengeId", "must be a positive integer")
	}

	c, err := h.db.GetChallenge(challengeID)
	if err != nil {
		return 0, err
	}
	if identity.Role != RoleAdmin && c.UserID != identity.UserID {
		return 0, apperrors.NewForbiddenError("challenge belongs to another user")
	}

	return challengeID, nil
}

func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func clampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > maxTradesLimit {
		return maxTradesLimit
	}
	return limit
}

func parseIntDefault(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// writeRawJSON relays an upstream JSON body verbatim.
func writeRawJSON(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

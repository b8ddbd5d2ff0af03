package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", handler.HealthCheck).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()

	// Tape advancement is driven by the external cron (or an admin),
	// not by end users.
	api.HandleFunc("/market-data/update", handler.requireCronOrAdmin(handler.UpdateMarketData)).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(handler.authenticate)

	authed.HandleFunc("/session", handler.GetSession).Methods(http.MethodGet)
	authed.HandleFunc("/session/credentials", handler.UpdateBrokerCredentials).Methods(http.MethodPut)

	authed.HandleFunc("/historical", handler.GetHistorical).Methods(http.MethodPost)
	authed.HandleFunc("/search", handler.SearchScrip).Methods(http.MethodPost)

	authed.HandleFunc("/market-data", handler.GetMarketData).Methods(http.MethodGet)

	authed.HandleFunc("/challenge-plans", handler.GetChallengePlans).Methods(http.MethodGet)
	authed.HandleFunc("/challenges/select", handler.SelectChallenge).Methods(http.MethodPost)

	authed.HandleFunc("/trading/summary", handler.GetTradingSummary).Methods(http.MethodGet)
	authed.HandleFunc("/trading/trades", handler.GetTrades).Methods(http.MethodGet)

	return router
}

package models

import "time"

// Event type constants
const (
	EventChallengeSelected = "CHALLENGE_SELECTED"
	EventChallengeReset    = "CHALLENGE_RESET"
	EventTradeClosed       = "TRADE_CLOSED"
	EventPricesUpdated     = "PRICES_UPDATED"
)

// ChallengeEvent is published when a user selects or resets a challenge.
type ChallengeEvent struct {
	EventType string     `json:"event_type"`
	UserID    int        `json:"user_id"`
	PlanID    int        `json:"plan_id"`
	Challenge *Challenge `json:"challenge,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// TradeEvent is published when a trade is squared off. The daily
// summary consumer folds these into DailyTradeSummary rows.
type TradeEvent struct {
	EventType string    `json:"event_type"`
	Trade     *Trade    `json:"trade,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// MarketDataEvent is published after a simulator tick is committed.
type MarketDataEvent struct {
	EventType string    `json:"event_type"`
	Scrips    []string  `json:"scrips"`
	Timestamp time.Time `json:"timestamp"`
}

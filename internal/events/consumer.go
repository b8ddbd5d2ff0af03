package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/tradeforge/propdesk/internal/models"
	"github.com/tradeforge/propdesk/internal/simulator"
)

// SummaryRepository defines the daily summary writes the consumer performs
type SummaryRepository interface {
	ApplyTradeToDailySummary(challengeID int, day time.Time, pnl decimal.Decimal) error
}

// Consumer folds TRADE_CLOSED events into the daily summary rollups.
// The day a trade belongs to is determined by its exit time in the
// exchange timezone, matching the aggregator's day window.
type Consumer struct {
	reader *kafka.Reader
	repo   SummaryRepository
	log    zerolog.Logger
}

// NewConsumer creates a new Kafka consumer for trade events
func NewConsumer(brokers []string, topic, groupID string, repo SummaryRepository, log zerolog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader: reader,
		repo:   repo,
		log:    log.With().Str("component", "summary-consumer").Logger(),
	}
}

// Start begins consuming messages until the context is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	c.log.Info().Str("topic", c.reader.Config().Topic).Msg("Starting trade event consumer")

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("Trade event consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				c.log.Error().Err(err).Msg("Error reading message")
				continue
			}

			if err := c.processMessage(msg); err != nil {
				c.log.Error().Err(err).Msg("Error processing message")
			}
		}
	}
}

func (c *Consumer) processMessage(msg kafka.Message) error {
	var event models.TradeEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal trade event: %w", err)
	}

	if event.EventType != models.EventTradeClosed {
		return nil
	}
	if event.Trade == nil || event.Trade.ExitTime == nil {
		return fmt.Errorf("trade closed event missing trade or exit time")
	}

	t := event.Trade
	local := t.ExitTime.In(simulator.ExchangeTZ)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, simulator.ExchangeTZ)

	if err := c.repo.ApplyTradeToDailySummary(t.ChallengeID, day, t.Pnl); err != nil {
		return err
	}

	c.log.Debug().
		Int("challenge_id", t.ChallengeID).
		Str("day", day.Format("2006-01-02")).
		Msg("Applied closed trade to daily summary")
	return nil
}

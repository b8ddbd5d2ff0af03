// Package events publishes and consumes the service's Kafka events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tradeforge/propdesk/internal/models"
)

// Producer handles publishing events to Kafka
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a new Kafka producer for the given topic
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{writer: writer}
}

// PublishChallengeSelected publishes a challenge selected event
func (p *Producer) PublishChallengeSelected(ctx context.Context, userID, planID int, c *models.Challenge) error {
	event := models.ChallengeEvent{
		EventType: models.EventChallengeSelected,
		UserID:    userID,
		PlanID:    planID,
		Challenge: c,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, strconv.Itoa(userID), event)
}

// PublishChallengeReset publishes a challenge reset event
func (p *Producer) PublishChallengeReset(ctx context.Context, userID, planID int, c *models.Challenge) error {
	event := models.ChallengeEvent{
		EventType: models.EventChallengeReset,
		UserID:    userID,
		PlanID:    planID,
		Challenge: c,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, strconv.Itoa(userID), event)
}

// PublishTradeClosed publishes a trade closed event
func (p *Producer) PublishTradeClosed(ctx context.Context, t *models.Trade) error {
	event := models.TradeEvent{
		EventType: models.EventTradeClosed,
		Trade:     t,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, strconv.Itoa(t.ChallengeID), event)
}

// PublishPricesUpdated publishes a market tick event
func (p *Producer) PublishPricesUpdated(ctx context.Context, scrips []string) error {
	event := models.MarketDataEvent{
		EventType: models.EventPricesUpdated,
		Scrips:    scrips,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, "market", event)
}

func (p *Producer) publish(ctx context.Context, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

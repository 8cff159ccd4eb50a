package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/trogers1052/trade-journal/internal/models"
	"go.uber.org/zap"
)

// Notifier is told when a user's journal changed
type Notifier interface {
	Notify(ctx context.Context, userID string)
}

// messageReader is the subset of *kafka.Reader the consumer uses
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
	Config() kafka.ReaderConfig
}

// Consumer turns trade change events into feed notifications.
// Every server instance should use its own group ID so each one sees every event.
type Consumer struct {
	reader   messageReader
	notifier Notifier
	logger   *zap.Logger
}

// NewConsumer creates a new Kafka consumer for trade events
func NewConsumer(brokers []string, topic, groupID string, notifier Notifier, logger *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        500 * time.Millisecond,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader:   reader,
		notifier: notifier,
		logger:   logger,
	}
}

// Start consumes messages until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("starting kafka consumer", zap.String("topic", c.reader.Config().Topic))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("kafka consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return c.reader.Close()
				}
				c.logger.Warn("failed to read message", zap.Error(err))
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				c.logger.Warn("skipping message",
					zap.Int("partition", msg.Partition),
					zap.Int64("offset", msg.Offset),
					zap.Error(err),
				)
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var event models.TradeEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal trade event: %w", err)
	}

	switch event.EventType {
	case models.EventTradeCreated, models.EventTradeUpdated, models.EventTradeDeleted:
	default:
		c.logger.Debug("ignoring event type", zap.String("event_type", event.EventType))
		return nil
	}

	if event.UserID == "" {
		return fmt.Errorf("event %s for trade %s has no user_id", event.EventType, event.TradeID)
	}

	c.logger.Debug("trade event received",
		zap.String("event_type", event.EventType),
		zap.String("user_id", event.UserID),
		zap.String("trade_id", event.TradeID),
	)
	c.notifier.Notify(ctx, event.UserID)
	return nil
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}

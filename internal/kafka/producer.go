package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/trogers1052/trade-journal/internal/models"
)

// messageWriter is the subset of *kafka.Writer the producer uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes trade change events to Kafka
type Producer struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
		now:    time.Now,
	}
}

// PublishTradeCreated publishes a trade created event
func (p *Producer) PublishTradeCreated(ctx context.Context, trade *models.Trade) error {
	return p.publish(ctx, models.TradeEvent{
		EventType: models.EventTradeCreated,
		UserID:    trade.UserID,
		TradeID:   trade.ID,
		Trade:     trade,
		Timestamp: p.now().UTC(),
	})
}

// PublishTradeUpdated publishes a trade updated event
func (p *Producer) PublishTradeUpdated(ctx context.Context, trade *models.Trade) error {
	return p.publish(ctx, models.TradeEvent{
		EventType: models.EventTradeUpdated,
		UserID:    trade.UserID,
		TradeID:   trade.ID,
		Trade:     trade,
		Timestamp: p.now().UTC(),
	})
}

// PublishTradeDeleted publishes a trade deleted event
func (p *Producer) PublishTradeDeleted(ctx context.Context, userID, tradeID string) error {
	return p.publish(ctx, models.TradeEvent{
		EventType: models.EventTradeDeleted,
		UserID:    userID,
		TradeID:   tradeID,
		Timestamp: p.now().UTC(),
	})
}

// publish keys every message by user so one user's events stay ordered on a partition
func (p *Producer) publish(ctx context.Context, event models.TradeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.UserID),
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

package models

import "time"

// Trade event type constants
const (
	EventTradeCreated = "TRADE_CREATED"
	EventTradeUpdated = "TRADE_UPDATED"
	EventTradeDeleted = "TRADE_DELETED"
)

// TradeEvent represents a Kafka event for a change to a user's journal
type TradeEvent struct {
	EventType string    `json:"event_type"`
	UserID    string    `json:"user_id"`
	TradeID   string    `json:"trade_id"`
	Trade     *Trade    `json:"trade,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

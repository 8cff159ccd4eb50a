package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format trades are closed on (YYYY-MM-DD)
const DateLayout = "2006-01-02"

// Trade represents one closed position in a user's journal.
// Profit is derived on every read and never stored.
type Trade struct {
	ID         string           `json:"id"`
	UserID     string           `json:"user_id"`
	Symbol     string           `json:"symbol"`
	EntryPrice decimal.Decimal  `json:"entry_price"`
	ExitPrice  decimal.Decimal  `json:"exit_price"`
	Quantity   decimal.Decimal  `json:"quantity"`
	Date       string           `json:"date"`
	Costs      *decimal.Decimal `json:"costs,omitempty"`
	Profit     decimal.Decimal  `json:"profit"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Clone returns a deep copy of the trade
func (t *Trade) Clone() *Trade {
	c := *t
	if t.Costs != nil {
		costs := *t.Costs
		c.Costs = &costs
	}
	return &c
}

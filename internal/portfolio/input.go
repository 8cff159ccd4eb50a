package portfolio

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/trade-journal/internal/models"
	"go.uber.org/multierr"
)

// ErrInvalidInput marks every validation failure of a trade submission
var ErrInvalidInput = errors.New("invalid trade input")

// Storage limits of the trades table. Values past them would be rounded or
// rejected by the database, so they are refused here instead.
const (
	MaxSymbolLength = 20
	PriceScale      = 4
	QuantityScale   = 6
)

var (
	// prices and costs are NUMERIC(18,4), quantity NUMERIC(18,6)
	maxPrice    = decimal.New(1, 18-PriceScale)
	maxQuantity = decimal.New(1, 18-QuantityScale)
)

// TradeInput holds the user-editable fields of a trade submission.
// FeeDiscount is optional; nil means the service default applies.
type TradeInput struct {
	Symbol      string           `json:"symbol"`
	EntryPrice  decimal.Decimal  `json:"entry_price"`
	ExitPrice   decimal.Decimal  `json:"exit_price"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Date        string           `json:"date"`
	FeeDiscount *decimal.Decimal `json:"fee_discount,omitempty"`
}

// RawTradeInput is a trade submission as entered in a form, before parsing
type RawTradeInput struct {
	Symbol      string
	EntryPrice  string
	ExitPrice   string
	Quantity    string
	Date        string
	FeeDiscount string
}

// ParseTradeInput converts raw form values into a validated TradeInput.
// Non-numeric values are rejected rather than treated as zero.
func ParseTradeInput(raw RawTradeInput) (TradeInput, error) {
	var err error
	in := TradeInput{Symbol: raw.Symbol, Date: strings.TrimSpace(raw.Date)}

	parse := func(field, value string) decimal.Decimal {
		d, perr := decimal.NewFromString(strings.TrimSpace(value))
		if perr != nil {
			err = multierr.Append(err, fmt.Errorf("%w: %s %q is not a number", ErrInvalidInput, field, value))
			return decimal.Zero
		}
		return d
	}

	in.EntryPrice = parse("entry_price", raw.EntryPrice)
	in.ExitPrice = parse("exit_price", raw.ExitPrice)
	in.Quantity = parse("quantity", raw.Quantity)
	if strings.TrimSpace(raw.FeeDiscount) != "" {
		discount := parse("fee_discount", raw.FeeDiscount)
		in.FeeDiscount = &discount
	}
	if err != nil {
		return TradeInput{}, err
	}

	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return TradeInput{}, err
	}
	return in, nil
}

// Normalize trims the symbol and date and upper-cases the symbol
func (in TradeInput) Normalize() TradeInput {
	in.Symbol = strings.ToUpper(strings.TrimSpace(in.Symbol))
	in.Date = strings.TrimSpace(in.Date)
	return in
}

// Validate reports every violation in the input at once
func (in TradeInput) Validate() error {
	var err error
	symbol := strings.TrimSpace(in.Symbol)
	if symbol == "" {
		err = multierr.Append(err, fmt.Errorf("%w: symbol is required", ErrInvalidInput))
	} else if utf8.RuneCountInString(symbol) > MaxSymbolLength {
		err = multierr.Append(err, fmt.Errorf("%w: symbol must be at most %d characters", ErrInvalidInput, MaxSymbolLength))
	}
	err = multierr.Append(err, checkAmount("entry_price", in.EntryPrice, PriceScale, maxPrice))
	err = multierr.Append(err, checkAmount("exit_price", in.ExitPrice, PriceScale, maxPrice))
	err = multierr.Append(err, checkAmount("quantity", in.Quantity, QuantityScale, maxQuantity))
	if in.EntryPrice.IsPositive() && in.Quantity.IsPositive() {
		if in.EntryPrice.Mul(in.Quantity).GreaterThanOrEqual(maxPrice) || in.ExitPrice.Mul(in.Quantity).GreaterThanOrEqual(maxPrice) {
			err = multierr.Append(err, fmt.Errorf("%w: trade value must be below %s", ErrInvalidInput, maxPrice))
		}
	}
	if _, perr := time.Parse(models.DateLayout, in.Date); perr != nil {
		err = multierr.Append(err, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, in.Date))
	}
	if in.FeeDiscount != nil {
		if derr := ValidateFeeDiscount(*in.FeeDiscount); derr != nil {
			err = multierr.Append(err, derr)
		}
	}
	return err
}

func checkAmount(field string, d decimal.Decimal, scale int32, limit decimal.Decimal) error {
	switch {
	case !d.IsPositive():
		return fmt.Errorf("%w: %s must be positive", ErrInvalidInput, field)
	case !d.Round(scale).Equal(d):
		return fmt.Errorf("%w: %s allows at most %d decimal places", ErrInvalidInput, field, scale)
	case d.GreaterThanOrEqual(limit):
		return fmt.Errorf("%w: %s must be below %s", ErrInvalidInput, field, limit)
	}
	return nil
}

// ValidateFeeDiscount checks the discount lies in (0, 1]
func ValidateFeeDiscount(d decimal.Decimal) error {
	if !d.IsPositive() || d.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: fee_discount must be in (0, 1], got %s", ErrInvalidInput, d)
	}
	return nil
}

// Discount returns the input's fee discount or fallback when none was given
func (in TradeInput) Discount(fallback decimal.Decimal) decimal.Decimal {
	if in.FeeDiscount != nil {
		return *in.FeeDiscount
	}
	return fallback
}

// Apply writes the input's fields onto t and recomputes its costs and profit
// with the given discount. Stored costs are never reused.
func (in TradeInput) Apply(t *models.Trade, feeDiscount decimal.Decimal) {
	t.Symbol = in.Symbol
	t.EntryPrice = in.EntryPrice
	t.ExitPrice = in.ExitPrice
	t.Quantity = in.Quantity
	t.Date = in.Date

	costs := ComputeCosts(in.EntryPrice, in.ExitPrice, in.Quantity, feeDiscount)
	t.Costs = &costs
	t.Profit = DeriveProfit(t)
}

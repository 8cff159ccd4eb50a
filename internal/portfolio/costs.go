// Package portfolio computes transaction costs, trade profit and the
// aggregated journal statistics. It performs no I/O.
package portfolio

import (
	"github.com/shopspring/decimal"
	"github.com/trogers1052/trade-journal/internal/models"
)

var (
	// FeeRate is the nominal brokerage fee charged on each leg
	FeeRate = decimal.RequireFromString("0.001425")
	// TaxRate is the transaction tax charged on the sell leg
	TaxRate = decimal.RequireFromString("0.003")
	// DefaultFeeDiscount applies when no discount is supplied
	DefaultFeeDiscount = decimal.RequireFromString("0.28")

	minFee = decimal.NewFromInt(1)
)

// CostBreakdown itemizes the costs of a round trip
type CostBreakdown struct {
	BuyFee  decimal.Decimal `json:"buy_fee"`
	SellFee decimal.Decimal `json:"sell_fee"`
	Tax     decimal.Decimal `json:"tax"`
	Total   decimal.Decimal `json:"total"`
}

// CostLegs computes each leg of the transaction costs. Fees are truncated to
// whole units with a minimum of one unit per leg; the tax is truncated with no minimum.
func CostLegs(entryPrice, exitPrice, quantity, feeDiscount decimal.Decimal) CostBreakdown {
	buyNotional := entryPrice.Mul(quantity)
	sellNotional := exitPrice.Mul(quantity)

	buyFee := decimal.Max(minFee, buyNotional.Mul(FeeRate).Mul(feeDiscount).Floor())
	sellFee := decimal.Max(minFee, sellNotional.Mul(FeeRate).Mul(feeDiscount).Floor())
	tax := sellNotional.Mul(TaxRate).Floor()

	return CostBreakdown{
		BuyFee:  buyFee,
		SellFee: sellFee,
		Tax:     tax,
		Total:   buyFee.Add(sellFee).Add(tax),
	}
}

// ComputeCosts returns the total transaction costs (fees + tax) of a round trip
func ComputeCosts(entryPrice, exitPrice, quantity, feeDiscount decimal.Decimal) decimal.Decimal {
	return CostLegs(entryPrice, exitPrice, quantity, feeDiscount).Total
}

// LegacyFallbackCosts is the continuous approximation older clients displayed for
// trades stored without costs. It ignores truncation and the minimum fee.
// Read paths use TradeCosts instead; this is kept for comparison tooling.
func LegacyFallbackCosts(entryPrice, exitPrice, quantity decimal.Decimal) decimal.Decimal {
	buy := entryPrice.Mul(quantity).Mul(FeeRate).Mul(DefaultFeeDiscount)
	sell := exitPrice.Mul(quantity).Mul(FeeRate).Mul(DefaultFeeDiscount)
	tax := exitPrice.Mul(quantity).Mul(TaxRate)
	return buy.Add(sell).Add(tax)
}

// TradeCosts returns the persisted costs of a trade, or recomputes them with
// DefaultFeeDiscount when none were stored.
func TradeCosts(t *models.Trade) decimal.Decimal {
	if t.Costs != nil {
		return *t.Costs
	}
	return ComputeCosts(t.EntryPrice, t.ExitPrice, t.Quantity, DefaultFeeDiscount)
}

// DeriveProfit computes (exit - entry) * quantity - costs
func DeriveProfit(t *models.Trade) decimal.Decimal {
	return t.ExitPrice.Sub(t.EntryPrice).Mul(t.Quantity).Sub(TradeCosts(t))
}

// Hydrate fills in the costs of trades stored without them and re-derives every profit.
// Stored profit values are always overwritten.
func Hydrate(trades []*models.Trade) {
	for _, t := range trades {
		if t.Costs == nil {
			costs := TradeCosts(t)
			t.Costs = &costs
		}
		t.Profit = DeriveProfit(t)
	}
}

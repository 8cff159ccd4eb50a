package portfolio

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/trogers1052/trade-journal/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeCosts(t *testing.T) {
	testCases := []struct {
		name     string
		entry    string
		exit     string
		qty      string
		discount string
		buyFee   string
		sellFee  string
		tax      string
		total    string
	}{
		{
			name:  "board lot at 28 percent discount",
			entry: "100", exit: "110", qty: "1000", discount: "0.28",
			buyFee: "39", sellFee: "43", tax: "330", total: "412",
		},
		{
			name:  "full fee without discount",
			entry: "100", exit: "110", qty: "1000", discount: "1",
			buyFee: "142", sellFee: "156", tax: "330", total: "628",
		},
		{
			name:  "odd lot hits minimum fee on both legs",
			entry: "20", exit: "21", qty: "10", discount: "0.28",
			buyFee: "1", sellFee: "1", tax: "0", total: "2",
		},
		{
			name:  "losing trade still pays tax on exit notional",
			entry: "50", exit: "40", qty: "500", discount: "0.28",
			buyFee: "9", sellFee: "7", tax: "60", total: "76",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			legs := CostLegs(d(tc.entry), d(tc.exit), d(tc.qty), d(tc.discount))
			assert.True(t, d(tc.buyFee).Equal(legs.BuyFee), "buy fee: got %s", legs.BuyFee)
			assert.True(t, d(tc.sellFee).Equal(legs.SellFee), "sell fee: got %s", legs.SellFee)
			assert.True(t, d(tc.tax).Equal(legs.Tax), "tax: got %s", legs.Tax)
			assert.True(t, d(tc.total).Equal(legs.Total), "total: got %s", legs.Total)

			total := ComputeCosts(d(tc.entry), d(tc.exit), d(tc.qty), d(tc.discount))
			assert.True(t, legs.Total.Equal(total))
			assert.True(t, total.Equal(total.Floor()), "costs should be integer valued")
		})
	}
}

func TestLegacyFallbackCosts(t *testing.T) {
	// 39.9 + 43.89 + 330, no truncation
	got := LegacyFallbackCosts(d("100"), d("110"), d("1000"))
	assert.True(t, d("413.79").Equal(got), "got %s", got)
}

func TestTradeCosts(t *testing.T) {
	t.Run("persisted costs are used as stored", func(t *testing.T) {
		costs := d("50")
		trade := &models.Trade{EntryPrice: d("100"), ExitPrice: d("110"), Quantity: d("1000"), Costs: &costs}
		assert.True(t, d("50").Equal(TradeCosts(trade)))
	})

	t.Run("missing costs fall back to the default discount with the same rules", func(t *testing.T) {
		trade := &models.Trade{EntryPrice: d("100"), ExitPrice: d("110"), Quantity: d("1000")}
		assert.True(t, d("412").Equal(TradeCosts(trade)))
	})
}

func TestDeriveProfit(t *testing.T) {
	costs := d("50")
	win := &models.Trade{EntryPrice: d("100"), ExitPrice: d("110"), Quantity: d("1000"), Costs: &costs}
	assert.True(t, d("9950").Equal(DeriveProfit(win)))

	lossCosts := d("20")
	loss := &models.Trade{EntryPrice: d("50"), ExitPrice: d("40"), Quantity: d("500"), Costs: &lossCosts}
	assert.True(t, d("-5020").Equal(DeriveProfit(loss)))
}

func TestHydrate(t *testing.T) {
	costs := d("50")
	trades := []*models.Trade{
		// stale stored profit must be ignored
		{EntryPrice: d("100"), ExitPrice: d("110"), Quantity: d("1000"), Costs: &costs, Profit: d("123456")},
		{EntryPrice: d("100"), ExitPrice: d("110"), Quantity: d("1000")},
	}

	Hydrate(trades)

	assert.True(t, d("9950").Equal(trades[0].Profit))
	if assert.NotNil(t, trades[1].Costs) {
		assert.True(t, d("412").Equal(*trades[1].Costs))
	}
	assert.True(t, d("9588").Equal(trades[1].Profit))
}

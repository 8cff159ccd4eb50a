package portfolio

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/trade-journal/internal/models"
)

func profitTrade(id, date, profit string) *models.Trade {
	return &models.Trade{ID: id, Date: date, Profit: d(profit)}
}

func hydratedTrade(entry, exit, qty, costs, date string) *models.Trade {
	c := d(costs)
	t := &models.Trade{EntryPrice: d(entry), ExitPrice: d(exit), Quantity: d(qty), Costs: &c, Date: date}
	t.Profit = DeriveProfit(t)
	return t
}

func TestComputeStats(t *testing.T) {
	ref := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)

	t.Run("empty journal yields zeros and an empty curve", func(t *testing.T) {
		stats := ComputeStats(nil, ref)

		assert.Equal(t, 0, stats.Count)
		assert.True(t, stats.TotalProfit.IsZero())
		assert.True(t, stats.DayProfit.IsZero())
		assert.True(t, stats.MonthProfit.IsZero())
		assert.True(t, stats.YearProfit.IsZero())
		assert.True(t, stats.WinRate.IsZero())
		assert.True(t, stats.PF.IsZero())
		assert.True(t, stats.AvgWin.IsZero())
		assert.True(t, stats.AvgLoss.IsZero())
		assert.True(t, stats.PayoffRatio.IsZero())
		require.NotNil(t, stats.ChartData)
		assert.Empty(t, stats.ChartData)

		data, err := json.Marshal(stats)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"chart_data":[]`)
	})

	t.Run("one win and one loss", func(t *testing.T) {
		trades := []*models.Trade{
			hydratedTrade("100", "110", "1000", "50", "2024-01-01"),
			hydratedTrade("50", "40", "500", "20", "2024-01-02"),
		}

		stats := ComputeStats(trades, ref)

		assert.Equal(t, 2, stats.Count)
		assert.True(t, d("4930").Equal(stats.TotalProfit), "total: %s", stats.TotalProfit)
		assert.True(t, d("50").Equal(stats.WinRate), "win rate: %s", stats.WinRate)
		assert.Equal(t, "1.982", stats.PF.StringFixed(3))
		assert.True(t, d("9950").Equal(stats.AvgWin))
		assert.True(t, d("5020").Equal(stats.AvgLoss))
		assert.Equal(t, "1.98", stats.PayoffRatio.StringFixed(2))

		assert.True(t, d("-5020").Equal(stats.DayProfit), "day: %s", stats.DayProfit)
		assert.True(t, d("4930").Equal(stats.MonthProfit))
		assert.True(t, d("4930").Equal(stats.YearProfit))

		require.Len(t, stats.ChartData, 2)
		assert.Equal(t, "2024-01-01", stats.ChartData[0].Date)
		assert.True(t, d("9950").Equal(stats.ChartData[0].Balance))
		assert.Equal(t, "2024-01-02", stats.ChartData[1].Date)
		assert.True(t, d("4930").Equal(stats.ChartData[1].Balance))
	})

	t.Run("profit factor is 99 when nothing lost", func(t *testing.T) {
		stats := ComputeStats([]*models.Trade{
			profitTrade("a", "2024-01-01", "100"),
			profitTrade("b", "2024-01-01", "0"),
		}, ref)

		assert.True(t, d("99").Equal(stats.PF))
		assert.True(t, d("50").Equal(stats.WinRate))
		assert.True(t, stats.AvgLoss.IsZero())
		assert.True(t, stats.PayoffRatio.IsZero())
	})

	t.Run("profit factor is 0 when only break-even trades", func(t *testing.T) {
		stats := ComputeStats([]*models.Trade{
			profitTrade("a", "2024-01-01", "0"),
			profitTrade("b", "2024-01-02", "0"),
		}, ref)

		assert.True(t, stats.PF.IsZero())
		assert.True(t, stats.WinRate.IsZero())
		assert.Equal(t, 2, stats.Count)
	})

	t.Run("profit factor is 0 when only losses", func(t *testing.T) {
		stats := ComputeStats([]*models.Trade{profitTrade("a", "2024-01-01", "-10")}, ref)

		assert.True(t, stats.PF.IsZero())
		assert.True(t, d("10").Equal(stats.AvgLoss))
	})

	t.Run("period sums follow the reference date", func(t *testing.T) {
		trades := []*models.Trade{
			profitTrade("a", "2024-01-02", "1"),
			profitTrade("b", "2024-01-15", "10"),
			profitTrade("c", "2024-03-01", "100"),
			profitTrade("d", "2023-01-02", "1000"),
		}

		stats := ComputeStats(trades, ref)

		assert.True(t, d("1").Equal(stats.DayProfit))
		assert.True(t, d("11").Equal(stats.MonthProfit))
		assert.True(t, d("111").Equal(stats.YearProfit))
		assert.True(t, d("1111").Equal(stats.TotalProfit))
	})

	t.Run("reference location decides the calendar day", func(t *testing.T) {
		taipei := time.FixedZone("Asia/Taipei", 8*60*60)
		// 2024-01-02 20:00 UTC is already 2024-01-03 in Taipei
		late := time.Date(2024, 1, 2, 20, 0, 0, 0, time.UTC)
		trades := []*models.Trade{profitTrade("a", "2024-01-03", "5")}

		assert.True(t, ComputeStats(trades, late).DayProfit.IsZero())
		assert.True(t, d("5").Equal(ComputeStats(trades, late.In(taipei)).DayProfit))
	})

	t.Run("wins minus losses equals total", func(t *testing.T) {
		trades := []*models.Trade{
			profitTrade("a", "2024-01-05", "120.5"),
			profitTrade("b", "2024-01-01", "-30.25"),
			profitTrade("c", "2024-01-03", "0"),
			profitTrade("d", "2024-01-03", "-7"),
			profitTrade("e", "2024-01-04", "44"),
		}

		stats := ComputeStats(trades, ref)

		grossWin := stats.AvgWin.Mul(decimal.NewFromInt(2))
		grossLoss := stats.AvgLoss.Mul(decimal.NewFromInt(2))
		assert.True(t, grossWin.Sub(grossLoss).Equal(stats.TotalProfit))
		assert.True(t, stats.ChartData[len(stats.ChartData)-1].Balance.Equal(stats.TotalProfit))
	})

	t.Run("is idempotent and does not reorder its input", func(t *testing.T) {
		trades := []*models.Trade{
			profitTrade("late", "2024-01-09", "3"),
			profitTrade("early", "2024-01-01", "-1"),
		}

		first, err := json.Marshal(ComputeStats(trades, ref))
		require.NoError(t, err)
		second, err := json.Marshal(ComputeStats(trades, ref))
		require.NoError(t, err)

		assert.JSONEq(t, string(first), string(second))
		assert.Equal(t, "late", trades[0].ID)
		assert.Equal(t, "early", trades[1].ID)
	})
}

func TestEquityCurve(t *testing.T) {
	t.Run("same-day trades keep input order", func(t *testing.T) {
		curve := EquityCurve([]*models.Trade{
			profitTrade("b", "2024-01-02", "5"),
			profitTrade("a1", "2024-01-01", "1"),
			profitTrade("a2", "2024-01-01", "-3"),
		})

		require.Len(t, curve, 3)
		assert.True(t, d("1").Equal(curve[0].Balance))
		assert.True(t, d("-2").Equal(curve[1].Balance))
		assert.True(t, d("3").Equal(curve[2].Balance))
	})

	t.Run("non-negative profits give a non-decreasing curve", func(t *testing.T) {
		curve := EquityCurve([]*models.Trade{
			profitTrade("a", "2024-01-03", "0"),
			profitTrade("b", "2024-01-01", "2"),
			profitTrade("c", "2024-01-02", "7"),
		})

		for i := 1; i < len(curve); i++ {
			assert.False(t, curve[i].Balance.LessThan(curve[i-1].Balance))
		}
	})

	t.Run("a single loss makes the curve decrease", func(t *testing.T) {
		curve := EquityCurve([]*models.Trade{
			profitTrade("a", "2024-01-01", "2"),
			profitTrade("b", "2024-01-02", "-1"),
		})

		assert.True(t, curve[1].Balance.LessThan(curve[0].Balance))
	})
}

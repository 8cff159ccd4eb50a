package portfolio

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/trade-journal/internal/models"
)

var (
	hundred = decimal.NewFromInt(100)

	// NoLossProfitFactor is reported when there are winning trades but no losing ones
	NoLossProfitFactor = decimal.NewFromInt(99)
)

// ComputeStats aggregates trades into journal statistics. Each trade must already
// carry its derived profit. Day, month and year sums are matched against the calendar
// date of ref in ref's location. The input slice is not modified.
func ComputeStats(trades []*models.Trade, ref time.Time) *models.PortfolioStats {
	stats := &models.PortfolioStats{
		TotalProfit: decimal.Zero,
		DayProfit:   decimal.Zero,
		MonthProfit: decimal.Zero,
		YearProfit:  decimal.Zero,
		WinRate:     decimal.Zero,
		PF:          decimal.Zero,
		AvgWin:      decimal.Zero,
		AvgLoss:     decimal.Zero,
		PayoffRatio: decimal.Zero,
		Count:       len(trades),
		ChartData:   []models.ChartPoint{},
	}
	if len(trades) == 0 {
		return stats
	}

	today := ref.Format(models.DateLayout)
	thisMonth := today[:7]
	thisYear := today[:4]

	grossProfit := decimal.Zero
	grossLoss := decimal.Zero
	var wins, losses int

	for _, t := range trades {
		stats.TotalProfit = stats.TotalProfit.Add(t.Profit)

		if t.Date == today {
			stats.DayProfit = stats.DayProfit.Add(t.Profit)
		}
		if strings.HasPrefix(t.Date, thisMonth) {
			stats.MonthProfit = stats.MonthProfit.Add(t.Profit)
		}
		if strings.HasPrefix(t.Date, thisYear) {
			stats.YearProfit = stats.YearProfit.Add(t.Profit)
		}

		switch t.Profit.Sign() {
		case 1:
			wins++
			grossProfit = grossProfit.Add(t.Profit)
		case -1:
			losses++
			grossLoss = grossLoss.Add(t.Profit.Abs())
		}
	}

	stats.WinRate = decimal.NewFromInt(int64(wins)).
		Div(decimal.NewFromInt(int64(len(trades)))).
		Mul(hundred)

	switch {
	case !grossLoss.IsZero():
		stats.PF = grossProfit.Div(grossLoss)
	case grossProfit.IsPositive():
		stats.PF = NoLossProfitFactor
	}

	if wins > 0 {
		stats.AvgWin = grossProfit.Div(decimal.NewFromInt(int64(wins)))
	}
	if losses > 0 {
		stats.AvgLoss = grossLoss.Div(decimal.NewFromInt(int64(losses)))
	}
	if !stats.AvgLoss.IsZero() {
		stats.PayoffRatio = stats.AvgWin.Div(stats.AvgLoss)
	}

	stats.ChartData = EquityCurve(trades)
	return stats
}

// EquityCurve returns the running balance over trades ordered by date.
// Trades closed on the same date keep their input order.
func EquityCurve(trades []*models.Trade) []models.ChartPoint {
	ordered := slices.Clone(trades)
	slices.SortStableFunc(ordered, func(a, b *models.Trade) int {
		return strings.Compare(a.Date, b.Date)
	})

	points := make([]models.ChartPoint, 0, len(ordered))
	balance := decimal.Zero
	for _, t := range ordered {
		balance = balance.Add(t.Profit)
		points = append(points, models.ChartPoint{Date: t.Date, Balance: balance})
	}
	return points
}

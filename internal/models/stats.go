package models

import "github.com/shopspring/decimal"

// ChartPoint is one step of the equity curve
type ChartPoint struct {
	Date    string          `json:"date"`
	Balance decimal.Decimal `json:"balance"`
}

// PortfolioStats holds the aggregated statistics of a set of trades
type PortfolioStats struct {
	TotalProfit decimal.Decimal `json:"total_profit"`
	DayProfit   decimal.Decimal `json:"day_profit"`
	MonthProfit decimal.Decimal `json:"month_profit"`
	YearProfit  decimal.Decimal `json:"year_profit"`
	WinRate     decimal.Decimal `json:"win_rate"`
	PF          decimal.Decimal `json:"pf"`
	AvgWin      decimal.Decimal `json:"avg_win"`
	AvgLoss     decimal.Decimal `json:"avg_loss"`
	PayoffRatio decimal.Decimal `json:"payoff_ratio"`
	Count       int             `json:"count"`
	ChartData   []ChartPoint    `json:"chart_data"`
}

// PortfolioView is a full snapshot of a journal together with its statistics
type PortfolioView struct {
	Trades []*Trade        `json:"trades"`
	Stats  *PortfolioStats `json:"stats"`
}

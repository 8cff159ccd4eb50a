package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/trogers1052/trade-journal/internal/chart"
	"github.com/trogers1052/trade-journal/internal/client"
	"github.com/trogers1052/trade-journal/internal/logger"
	"github.com/trogers1052/trade-journal/internal/models"
	"github.com/trogers1052/trade-journal/internal/portfolio"
)

type statsCmd struct {
	file     string
	date     string
	timezone string
	server   string
	token    string
	email    string
	password string
	currency string
	png      string
	asJSON   bool
}

func (*statsCmd) Name() string     { return "stats" }
func (*statsCmd) Synopsis() string { return "compute portfolio statistics from a file or a server" }
func (*statsCmd) Usage() string {
	return `tradectl stats -file <trades.json> [-date YYYY-MM-DD] [-tz UTC]
tradectl stats -server <url> (-token <token> | -email <email> -password <password>)

  Offline mode reads a JSON array of trades and computes the statistics as of
  -date (default today in -tz). Trades without costs are priced with the
  default fee discount. Remote mode fetches the signed-in user's statistics.
`
}

func (c *statsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "JSON file holding an array of trades")
	f.StringVar(&c.date, "date", "", "reference date for day/month/year sums (default today)")
	f.StringVar(&c.timezone, "tz", "UTC", "time zone that decides the current day")
	f.StringVar(&c.server, "server", "", "journal server URL, e.g. http://localhost:8080")
	f.StringVar(&c.token, "token", "", "session token for -server")
	f.StringVar(&c.email, "email", "", "sign in with this email when no -token is given")
	f.StringVar(&c.password, "password", "", "password for -email")
	f.StringVar(&c.currency, "currency", "TWD", "ISO currency code used for display")
	f.StringVar(&c.png, "png", "", "also write the equity curve to this PNG file")
	f.BoolVar(&c.asJSON, "json", false, "print the statistics as JSON")
}

func (c *statsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if (c.file == "") == (c.server == "") {
		fmt.Fprintln(os.Stderr, "Error: exactly one of -file or -server is required.")
		return subcommands.ExitUsageError
	}

	var stats *models.PortfolioStats
	var err error
	if c.file != "" {
		stats, err = c.offline()
	} else {
		stats, err = c.remote(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := c.print(os.Stdout, stats); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.png != "" {
		if err := writeChart(c.png, stats.ChartData); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}

func (c *statsCmd) offline() (*models.PortfolioStats, error) {
	trades, err := readTrades(c.file)
	if err != nil {
		return nil, err
	}
	ref, err := referenceInstant(c.date, c.timezone, time.Now())
	if err != nil {
		return nil, err
	}
	portfolio.Hydrate(trades)
	return portfolio.ComputeStats(trades, ref), nil
}

func (c *statsCmd) remote(ctx context.Context) (*models.PortfolioStats, error) {
	log, err := logger.New("warn", "console")
	if err != nil {
		return nil, err
	}

	cl := client.New(c.server, c.token, log)
	if c.token == "" {
		if c.email == "" {
			return nil, fmt.Errorf("-token or -email is required with -server")
		}
		if _, err := cl.Login(ctx, c.email, c.password); err != nil {
			return nil, err
		}
	}
	return cl.Stats(ctx)
}

func readTrades(path string) ([]*models.Trade, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trades file: %w", err)
	}
	defer f.Close()

	trades := []*models.Trade{}
	if err := json.NewDecoder(f).Decode(&trades); err != nil {
		return nil, fmt.Errorf("failed to decode trades file %s: %w", path, err)
	}
	for i, t := range trades {
		if _, err := time.Parse(models.DateLayout, t.Date); err != nil {
			return nil, fmt.Errorf("trade %d (%s): date %q must be YYYY-MM-DD", i, t.Symbol, t.Date)
		}
	}
	return trades, nil
}

// referenceInstant resolves -date and -tz; an empty date means now
func referenceInstant(date, timezone string, now time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time zone %q: %w", timezone, err)
	}
	if date == "" {
		return now.In(loc), nil
	}
	ref, err := time.ParseInLocation(models.DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return ref, nil
}

func (c *statsCmd) print(w io.Writer, s *models.PortfolioStats) error {
	if c.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	fmt.Fprintf(w, "Trades:        %d\n", s.Count)
	fmt.Fprintf(w, "Total profit:  %s\n", formatMoney(s.TotalProfit, c.currency))
	fmt.Fprintf(w, "Today:         %s\n", formatMoney(s.DayProfit, c.currency))
	fmt.Fprintf(w, "This month:    %s\n", formatMoney(s.MonthProfit, c.currency))
	fmt.Fprintf(w, "This year:     %s\n", formatMoney(s.YearProfit, c.currency))
	fmt.Fprintf(w, "Win rate:      %s%%\n", s.WinRate.StringFixed(1))
	fmt.Fprintf(w, "Profit factor: %s\n", s.PF.StringFixed(2))
	fmt.Fprintf(w, "Avg win:       %s\n", formatMoney(s.AvgWin, c.currency))
	fmt.Fprintf(w, "Avg loss:      %s\n", formatMoney(s.AvgLoss, c.currency))
	fmt.Fprintf(w, "Payoff ratio:  %s\n", s.PayoffRatio.StringFixed(2))
	return nil
}

func writeChart(path string, points []models.ChartPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := chart.RenderEquityCurve(points, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

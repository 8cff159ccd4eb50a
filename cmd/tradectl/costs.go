package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/trogers1052/trade-journal/internal/models"
	"github.com/trogers1052/trade-journal/internal/portfolio"
)

type costsCmd struct {
	entry    string
	exit     string
	qty      string
	discount string
	currency string
	legacy   bool
}

func (*costsCmd) Name() string     { return "costs" }
func (*costsCmd) Synopsis() string { return "price the fees and tax of a round-trip trade" }
func (*costsCmd) Usage() string {
	return `tradectl costs -entry <price> -exit <price> -qty <shares> [-discount 0.28] [-legacy]

  Prints the buy fee, sell fee, transaction tax and total costs of a closed
  trade. With -legacy the continuous approximation once used for trades
  saved without costs is printed alongside for comparison.
`
}

func (c *costsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.entry, "entry", "", "entry price per share")
	f.StringVar(&c.exit, "exit", "", "exit price per share")
	f.StringVar(&c.qty, "qty", "", "number of shares")
	f.StringVar(&c.discount, "discount", portfolio.DefaultFeeDiscount.String(), "broker fee discount in (0, 1]")
	f.StringVar(&c.currency, "currency", "TWD", "ISO currency code used for display")
	f.BoolVar(&c.legacy, "legacy", false, "also print the legacy fallback estimate")
}

func (c *costsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.entry == "" || c.exit == "" || c.qty == "" {
		fmt.Fprintln(os.Stderr, "Error: -entry, -exit and -qty are required.")
		return subcommands.ExitUsageError
	}
	if err := c.run(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *costsCmd) run(w io.Writer) error {
	in, err := portfolio.ParseTradeInput(portfolio.RawTradeInput{
		Symbol:      "PREVIEW",
		EntryPrice:  c.entry,
		ExitPrice:   c.exit,
		Quantity:    c.qty,
		Date:        time.Now().Format(models.DateLayout),
		FeeDiscount: c.discount,
	})
	if err != nil {
		return err
	}

	legs := portfolio.CostLegs(in.EntryPrice, in.ExitPrice, in.Quantity, in.Discount(portfolio.DefaultFeeDiscount))
	gross := in.ExitPrice.Sub(in.EntryPrice).Mul(in.Quantity)

	fmt.Fprintf(w, "Buy fee:   %s\n", formatMoney(legs.BuyFee, c.currency))
	fmt.Fprintf(w, "Sell fee:  %s\n", formatMoney(legs.SellFee, c.currency))
	fmt.Fprintf(w, "Tax:       %s\n", formatMoney(legs.Tax, c.currency))
	fmt.Fprintf(w, "Costs:     %s\n", formatMoney(legs.Total, c.currency))
	fmt.Fprintf(w, "Profit:    %s\n", formatMoney(gross.Sub(legs.Total), c.currency))

	if c.legacy {
		legacy := portfolio.LegacyFallbackCosts(in.EntryPrice, in.ExitPrice, in.Quantity)
		fmt.Fprintf(w, "Legacy:    %s (difference %s)\n",
			formatMoney(legacy, c.currency),
			formatMoney(legacy.Sub(legs.Total), c.currency))
	}
	return nil
}

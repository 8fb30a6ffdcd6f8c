package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	stocks "github.com/andrewoftoronto/stocks-new"
	"github.com/google/subcommands"
)

type updateCmd struct {
	price string
	date  string
}

func (*updateCmd) Name() string { return "update" }
func (*updateCmd) Synopsis() string {
	return "apply an update cycle at the given price and print recommendations"
}
func (*updateCmd) Usage() string {
	return `stocks update -price <amount> [-d <date>]

  Records the current price, updates every stage, redistributes shares and
  prints the resulting buy and sell recommendations.
`
}

func (c *updateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.price, "price", "", "The asset's current price. Required.")
	f.StringVar(&c.date, "d", "", "Date of the update (YYYY-MM-DD). Defaults to now.")
}

func (c *updateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		fmt.Println("no arguments expected")
		return subcommands.ExitUsageError
	}
	if c.price == "" {
		fmt.Fprintln(os.Stderr, "the -price flag is required")
		return subcommands.ExitUsageError
	}

	asset, err := LoadAsset()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	price, err := stocks.ParseMoney(c.price, asset.Currency)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	now := time.Now()
	if c.date != "" {
		now, err = time.Parse("2006-01-02", c.date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	asset.Price = price
	sell, buy := asset.UpdateStrategy(now)
	printRecommendations(asset.Name, sell, buy)

	if err := SaveAsset(asset); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func printRecommendations(name string, sell *stocks.Shares, buy int) {
	if buy > 0 {
		fmt.Printf("%s: buy %d shares\n", name, buy)
	}
	if sell != nil && sell.Len() > 0 {
		fmt.Printf("%s: sell %s\n", name, sell)
	}
	if buy == 0 && (sell == nil || sell.Len() == 0) {
		fmt.Printf("%s: nothing to do\n", name)
	}
}

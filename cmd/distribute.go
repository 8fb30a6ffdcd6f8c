package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	stocks "github.com/andrewoftoronto/stocks-new"
	"github.com/google/subcommands"
)

type distributeCmd struct {
	price string
}

func (*distributeCmd) Name() string { return "distribute" }
func (*distributeCmd) Synopsis() string {
	return "distribute owned shares among the current targets and print the report"
}
func (*distributeCmd) Usage() string {
	return `stocks distribute [-price <amount>]

  Distributes the bound and unbound shares among the asset's current targets
  and prints which targets are satisfied, using what shares.
`
}

func (c *distributeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.price, "price", "", "Override the current price for this run.")
}

func (c *distributeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		fmt.Println("no arguments expected")
		return subcommands.ExitUsageError
	}

	asset, err := LoadAsset()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if c.price != "" {
		price, err := stocks.ParseMoney(c.price, asset.Currency)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
		asset.Price = price
	}

	report := asset.Distribute(nil)
	fmt.Printf("%s at %s:\n", asset.Name, asset.Price)
	printReport(report)

	if err := SaveAsset(asset); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

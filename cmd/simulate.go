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

type simulateCmd struct {
	save bool
}

func (*simulateCmd) Name() string { return "simulate" }
func (*simulateCmd) Synopsis() string {
	return "replay a series of prices through the update cycle"
}
func (*simulateCmd) Usage() string {
	return `stocks simulate [-save] <price>...

  Replays the given prices as one update per day starting today and prints
  the recommendations of each step. A dry run unless -save is given.
`
}

func (c *simulateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.save, "save", false, "Persist the final state instead of discarding it.")
}

func (c *simulateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "at least one price is expected")
		return subcommands.ExitUsageError
	}

	asset, err := LoadAsset()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	now := time.Now()
	for _, arg := range f.Args() {
		price, err := stocks.ParseMoney(arg, asset.Currency)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
		asset.Price = price
		sell, buy := asset.UpdateStrategy(now)
		fmt.Printf("%s at %s:\n  ", now.Format("2006-01-02"), price)
		printRecommendations(asset.Name, sell, buy)
		now = now.AddDate(0, 0, 1)
	}

	if !c.save {
		return subcommands.ExitSuccess
	}
	if err := SaveAsset(asset); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	stocks "github.com/andrewoftoronto/stocks-new"
	"github.com/google/subcommands"
)

type targetsCmd struct{}

func (*targetsCmd) Name() string     { return "targets" }
func (*targetsCmd) Synopsis() string { return "list the asset's current targets" }
func (*targetsCmd) Usage() string {
	return `stocks targets

  Lists the targets generated by the asset's stages during the last update,
  ascending by sell price.
`
}
func (*targetsCmd) SetFlags(*flag.FlagSet) {}

func (c *targetsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		fmt.Println("no arguments expected")
		return subcommands.ExitUsageError
	}

	asset, err := LoadAsset()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	// Targets are transient, so regenerate them from the stages rather than
	// relying on a previous update having run.
	var targets []*stocks.Target
	for _, stage := range asset.Stages() {
		targets = append(targets, stage.GenerateTargets()...)
	}
	sort.SliceStable(targets, func(i, j int) bool {
		return targets[i].SellPrice.LessThan(targets[j].SellPrice)
	})

	if len(targets) == 0 {
		fmt.Println("no targets")
		return subcommands.ExitSuccess
	}
	for _, t := range targets {
		fmt.Println(" ", t)
	}
	return subcommands.ExitSuccess
}

// Package cmd implements the CLI application to manage a traded asset.
package cmd

import (
	"flag"
	"fmt"
	"os"

	stocks "github.com/andrewoftoronto/stocks-new"
	"github.com/google/subcommands"
)

// Commands lists the subcommands. A main package registers each one on a
// commander and executes the user-selected one.
var Commands = []subcommands.Command{
	&distributeCmd{},
	&targetsCmd{},
	&updateCmd{},
	&simulateCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to
// use global variables.

var assetFile = flag.String("asset-file", "asset.json", "Path to the asset state file (JSON format)")

// LoadAsset reads the asset state from the app asset file.
func LoadAsset() (*stocks.Asset, error) {
	f, err := os.Open(*assetFile)
	if err != nil {
		return nil, fmt.Errorf("cannot open asset file %q: %w", *assetFile, err)
	}
	defer f.Close()
	return stocks.DecodeAsset(f)
}

// SaveAsset writes the asset state back to the app asset file.
func SaveAsset(a *stocks.Asset) error {
	f, err := os.Create(*assetFile)
	if err != nil {
		return fmt.Errorf("cannot write asset file %q: %w", *assetFile, err)
	}
	if err := stocks.EncodeAsset(f, a); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printReport(report *stocks.DistributionReport) {
	for _, assignment := range report.Assignments {
		fmt.Printf("  %s: %s (profit %s)\n", assignment.Target, assignment.Shares, assignment.Profit)
	}
	fmt.Printf("  unbound: %s\n", report.Unbound)
	if report.HasBuysNeeded {
		fmt.Printf("  buys needed to satisfy buyable targets: %d\n", report.BuysNeeded)
	} else if report.AllSatisfied {
		fmt.Println("  all targets satisfied")
	}
}

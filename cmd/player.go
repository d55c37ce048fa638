package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-ctf-metrics/internal/report"
)

// playerCmd is the cobra command for cross-match aggregate analysis of one or more players.
var playerCmd = &cobra.Command{
	Use:   "player <name> [<name>...]",
	Short: "Cross-match analysis for one or more players",
	Long: `Sum every stored match for the given players and print their baseline
and episode metrics side by side. Names match case-insensitively; the most
frequent spelling is shown.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlayer,
}

func runPlayer(cmd *cobra.Command, args []string) error {
	db, err := openDB(false)
	if err != nil {
		return err
	}
	defer db.Close()

	aggs, err := db.PlayerAggregates(args)
	if err != nil {
		return fmt.Errorf("query aggregates: %w", err)
	}
	if len(aggs) == 0 {
		fmt.Fprintf(os.Stderr, "No data found for %v\n", args)
		return nil
	}
	if len(aggs) < len(args) {
		fmt.Fprintf(os.Stderr, "Found %d of %d players\n", len(aggs), len(args))
	}

	fmt.Fprintln(os.Stdout)
	report.PrintAggregateTable(os.Stdout, aggs)
	return nil
}

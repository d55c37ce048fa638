package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-ctf-metrics/internal/report"
)

var trendCmd = &cobra.Command{
	Use:   "trend <name>",
	Short: "Chronological per-match performance trend for a player",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrend,
}

func runTrend(cmd *cobra.Command, args []string) error {
	db, err := openDB(false)
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := db.GetAllPlayerMatchStats(args)
	if err != nil {
		return fmt.Errorf("query stats: %w", err)
	}
	if len(stats) == 0 {
		fmt.Println("no matches found")
		return nil
	}

	report.PrintTrendTable(os.Stdout, stats)
	return nil
}

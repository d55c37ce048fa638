package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-ctf-metrics/internal/export"
)

var (
	exportOut      string
	exportFormat   string
	exportMinGames int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export per-player aggregates as CSV or JSON",
	Long: `Write one row per player with baseline counters, episode counters and
derived percentages, summed over every stored match.

Example:
  ctfmetrics export --format csv --min-games 20 --out players.csv`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "-", "output file ('-' for stdout)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or json")
	exportCmd.Flags().IntVar(&exportMinGames, "min-games", 0, "skip players with fewer matches")
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFormat != "csv" && exportFormat != "json" {
		return fmt.Errorf("unknown format %q: want csv or json", exportFormat)
	}

	db, err := openDB(false)
	if err != nil {
		return err
	}
	defer db.Close()

	aggs, err := db.PlayerAggregates(nil)
	if err != nil {
		return fmt.Errorf("query aggregates: %w", err)
	}
	aggs = filterMinGames(aggs, exportMinGames)

	var w io.Writer = os.Stdout
	if exportOut != "-" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOut, err)
		}
		defer f.Close()
		w = f
	}

	switch exportFormat {
	case "json":
		ov, err := db.GetDBOverview()
		if err != nil {
			return fmt.Errorf("get overview: %w", err)
		}
		err = export.WriteJSON(w, aggs, ov.TotalMatches, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("write json: %w", err)
		}
	default:
		if err := export.WriteCSV(w, aggs); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	if exportOut != "-" {
		fmt.Fprintf(os.Stderr, "Wrote %d players to %s\n", len(aggs), exportOut)
	}
	return nil
}

package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

// summaryCmd is the cobra command for displaying a high-level database overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the database",
	Long: `Display aggregate statistics about all matches stored in the database:
match count, date range, episode volume, processing runs and a per-map
breakdown of results.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := openDB(false)
	if err != nil {
		return err
	}
	defer db.Close()

	ov, err := db.GetDBOverview()
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if ov.TotalMatches == 0 {
		fmt.Fprintln(os.Stdout, "No matches stored yet. Run 'ctfmetrics process --matches <file> --maps <file>' to add some.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "\n=== Database Summary ===\n\n")
	fmt.Fprintf(os.Stdout, "  Matches stored : %d\n", ov.TotalMatches)
	fmt.Fprintf(os.Stdout, "  Date range     : %s → %s\n", ov.EarliestMatch, ov.LatestMatch)
	fmt.Fprintf(os.Stdout, "  Unique maps    : %d\n", ov.UniqueMaps)
	fmt.Fprintf(os.Stdout, "  Players seen   : %d\n", ov.UniquePlayers)
	fmt.Fprintf(os.Stdout, "  Episodes       : %d\n", ov.TotalEpisodes)
	fmt.Fprintf(os.Stdout, "  Runs           : %d\n", ov.Runs)
	fmt.Fprintf(os.Stdout, "  Failed matches : %d\n", ov.Failures)

	maps, err := db.GetMapStats()
	if err != nil {
		return fmt.Errorf("get map stats: %w", err)
	}
	fmt.Fprintf(os.Stdout, "\n--- Maps ---\n\n")
	mt := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
	mt.Header("MAP", "MATCHES", "RED WINS", "BLUE WINS", "TIES", "CAPS/MATCH", "RED WIN%")
	for _, m := range maps {
		decided := m.RedWins + m.BlueWins
		redPct := 0.0
		if decided > 0 {
			redPct = 100.0 * float64(m.RedWins) / float64(decided)
		}
		capsPer := 0.0
		if m.Matches > 0 {
			capsPer = float64(m.Captures) / float64(m.Matches)
		}
		mt.Append(
			m.MapName,
			fmt.Sprintf("%d", m.Matches),
			fmt.Sprintf("%d", m.RedWins),
			fmt.Sprintf("%d", m.BlueWins),
			fmt.Sprintf("%d", m.Ties),
			fmt.Sprintf("%.1f", capsPer),
			fmt.Sprintf("%.0f%%", redPct),
		)
	}
	mt.Render()
	return nil
}

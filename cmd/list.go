package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored matches",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openDB(false)
	if err != nil {
		return err
	}
	defer db.Close()

	matches, err := db.ListMatches()
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	if len(matches) == 0 {
		fmt.Fprintln(os.Stdout, "No matches stored yet. Run 'ctfmetrics process --matches <file> --maps <file>' to add some.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-10s  %-20s  %-10s  %7s  %s\n",
		"MATCH", "MAP", "DATE", "SCORE", "TEAMS")
	fmt.Fprintf(os.Stdout, "%-10s  %-20s  %-10s  %7s  %s\n",
		"──────────", "────────────────────", "──────────", "───────", "─────")
	for _, m := range matches {
		score := fmt.Sprintf("%d-%d", m.RedScore, m.BlueScore)
		fmt.Fprintf(os.Stdout, "%-10s  %-20s  %-10s  %7s  %s vs %s\n",
			m.MatchID, m.MapName, m.MatchDate, score, m.RedName, m.BlueName)
	}
	return nil
}

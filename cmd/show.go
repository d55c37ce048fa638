package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-ctf-metrics/internal/report"
	"github.com/pable/go-ctf-metrics/internal/storage"
)

var showPlayer string

var showCmd = &cobra.Command{
	Use:   "show <match-id>",
	Short: "Show stored stats for one match",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showPlayer, "player", "", "highlight player by name")
}

func runShow(cmd *cobra.Command, args []string) error {
	db, err := openDB(false)
	if err != nil {
		return err
	}
	defer db.Close()
	return showMatch(db, args[0], showPlayer)
}

// showMatch prints the header, baseline table and episode table of a stored match.
func showMatch(db *storage.DB, matchID, focus string) error {
	m, err := db.GetMatch(matchID)
	if err != nil {
		return fmt.Errorf("query match: %w", err)
	}
	if m == nil {
		fmt.Fprintf(os.Stderr, "No match stored with id %q\n", matchID)
		return nil
	}
	stats, err := db.GetPlayerMatchStats(m.MatchID)
	if err != nil {
		return fmt.Errorf("get player stats: %w", err)
	}

	report.PrintMatchSummary(os.Stdout, *m)
	report.PrintPlayerTable(os.Stdout, stats, focus)
	report.PrintEpisodeTable(os.Stdout, stats, focus)
	return nil
}

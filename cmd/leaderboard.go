package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-ctf-metrics/internal/model"
	"github.com/pable/go-ctf-metrics/internal/report"
)

var (
	leaderboardSort     string
	leaderboardMinGames int
	leaderboardLimit    int
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Rank every stored player by one metric",
	Args:  cobra.NoArgs,
	RunE:  runLeaderboard,
}

func init() {
	leaderboardCmd.Flags().StringVar(&leaderboardSort, "sort", "games",
		"sort key: "+strings.Join(report.SortKeys(), ", "))
	leaderboardCmd.Flags().IntVar(&leaderboardMinGames, "min-games", 10, "hide players with fewer matches")
	leaderboardCmd.Flags().IntVar(&leaderboardLimit, "limit", 25, "rows to show (0 = all)")
}

// filterMinGames keeps players with at least minGames matches.
func filterMinGames(aggs []model.PlayerAggregate, minGames int) []model.PlayerAggregate {
	out := aggs[:0]
	for _, a := range aggs {
		if a.Matches >= minGames {
			out = append(out, a)
		}
	}
	return out
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	db, err := openDB(false)
	if err != nil {
		return err
	}
	defer db.Close()

	aggs, err := db.PlayerAggregates(nil)
	if err != nil {
		return fmt.Errorf("query aggregates: %w", err)
	}
	aggs = filterMinGames(aggs, leaderboardMinGames)
	if err := report.SortAggregates(aggs, leaderboardSort); err != nil {
		return err
	}
	if len(aggs) == 0 {
		fmt.Fprintf(os.Stdout, "No players with at least %d matches.\n", leaderboardMinGames)
		return nil
	}
	if leaderboardLimit > 0 && len(aggs) > leaderboardLimit {
		aggs = aggs[:leaderboardLimit]
	}

	report.PrintAggregateTable(os.Stdout, aggs)
	return nil
}

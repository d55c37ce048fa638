package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the metrics database",
	Long: `Run an arbitrary SQL query against the metrics database and print results as a table.

Schema overview:
  runs(id, started_at, matches, failures, skipped)
  matches(match_id, hash, map_name, match_date, duration, red_name, blue_name,
    red_score, blue_score, run_id)
  player_match_stats(match_id, name, team, time, cap_diff, captures, grabs, hold,
    drops, pops, returns, tags, prevent, pups_total, block, button,
    pups_available, hold_against, long_holds, flaccids, handoffs, good_handoffs,
    captures_off_handoffs, quick_returns, key_returns, returns_in_base)
  episodes(match_id, team, seq, holder, start_time, end_time, end_kind, end_player,
    long_hold, flaccid, quick_return, handoff_from, good_handoff,
    capture_off_handoff, key_returner, return_in_base)
  failed_matches(run_id, match_id, reason)

Note: match_id is stored as TEXT. Names compare case-sensitively unless you
add COLLATE NOCASE: WHERE name = 'Alice' COLLATE NOCASE`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := openDB(false)
	if err != nil {
		return err
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}

	table := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))

	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)

	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}


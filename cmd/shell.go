package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-ctf-metrics/internal/report"
	"github.com/pable/go-ctf-metrics/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cHeader   = color.New(color.FgCyan, color.Bold)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the database. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

// flagValue returns the argument following name in args, if any.
func flagValue(args []string, name string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == name {
			return args[i+1]
		}
	}
	return ""
}

func runShell(_ *cobra.Command, _ []string) error {
	db, err := openDB(false)
	if err != nil {
		return err
	}
	defer db.Close()

	cGreeting.Println("ctfmetrics shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("ctfmetrics")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		cmd, args := tokens[0], tokens[1:]

		switch cmd {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "list":
			shellList(db)
		case "runs":
			shellRuns(db)
		case "show":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: show <match-id> [--player <name>]")
				continue
			}
			if err := showMatch(db, args[0], flagValue(args, "--player")); err != nil {
				cError.Fprintf(os.Stderr, "error: %v\n", err)
			}
		case "episodes":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: episodes <match-id> [--player <name>]")
				continue
			}
			shellEpisodes(db, args[0], flagValue(args, "--player"))
		case "player":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: player <name> [<name>...]")
				continue
			}
			shellPlayer(db, args)
		case "top":
			key := "games"
			if len(args) > 0 {
				key = args[0]
			}
			shellTop(db, key)
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", cmd)
		}
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"list", "list all stored matches"},
		{"runs", "list processing runs, newest first"},
		{"show <match-id>", "show a match's stats"},
		{"show <match-id> --player <name>", "same, highlighting one player"},
		{"episodes <match-id> [--player <name>]", "per-possession drill-down"},
		{"player <name> [...]", "cross-match analysis for one or more players"},
		{"top [" + strings.Join(report.SortKeys(), "|") + "]", "leaderboard, players with 10+ matches"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-40s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func shellList(db *storage.DB) {
	matches, err := db.ListMatches()
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(matches) == 0 {
		cMuted.Println("No matches stored yet.")
		return
	}
	cHeader.Fprintf(os.Stdout, "%-10s  %-20s  %-10s  %7s  %s\n",
		"MATCH", "MAP", "DATE", "SCORE", "TEAMS")
	cMuted.Fprintf(os.Stdout, "%-10s  %-20s  %-10s  %7s  %s\n",
		"──────────", "────────────────────", "──────────", "───────", "─────")
	for _, m := range matches {
		score := fmt.Sprintf("%d-%d", m.RedScore, m.BlueScore)
		fmt.Fprintf(os.Stdout, "%-10s  %-20s  %-10s  %7s  %s vs %s\n",
			m.MatchID, m.MapName, m.MatchDate, score, m.RedName, m.BlueName)
	}
}

func shellRuns(db *storage.DB) {
	runs, err := db.ListRuns()
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(runs) == 0 {
		cMuted.Println("No runs recorded yet.")
		return
	}
	cHeader.Fprintf(os.Stdout, "%-36s  %-20s  %9s  %6s  %7s\n",
		"RUN", "STARTED", "PROCESSED", "FAILED", "SKIPPED")
	for _, r := range runs {
		fmt.Fprintf(os.Stdout, "%-36s  %-20s  %9d  %6d  %7d\n",
			r.ID, r.StartedAt, r.Matches, r.Failures, r.Skipped)
	}
}

func shellEpisodes(db *storage.DB, matchID, focus string) {
	eps, err := db.GetEpisodes(matchID)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	eps, err = filterEpisodes(eps, focus, "", "")
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(eps) == 0 {
		fmt.Fprintf(os.Stderr, "no episodes for match %q\n", matchID)
		return
	}
	report.PrintEpisodeLog(os.Stdout, eps, focus)
}

func shellPlayer(db *storage.DB, names []string) {
	aggs, err := db.PlayerAggregates(names)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(aggs) == 0 {
		fmt.Fprintf(os.Stderr, "no data for %v\n", names)
		return
	}
	fmt.Fprintln(os.Stdout)
	report.PrintAggregateTable(os.Stdout, aggs)
}

func shellTop(db *storage.DB, key string) {
	aggs, err := db.PlayerAggregates(nil)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	aggs = filterMinGames(aggs, 10)
	if err := report.SortAggregates(aggs, key); err != nil {
		cWarn.Fprintf(os.Stderr, "%v\n", err)
		return
	}
	if len(aggs) > 25 {
		aggs = aggs[:25]
	}
	cHeader.Fprintf(os.Stdout, "\n--- Top by %s ---\n\n", key)
	report.PrintAggregateTable(os.Stdout, aggs)
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-ctf-metrics/internal/report"
)

var (
	failuresRun string
	failuresAll bool
)

var failuresCmd = &cobra.Command{
	Use:   "failures",
	Short: "List matches a processing run could not classify",
	Long: `Show the failed-match record of a run: which matches produced no rows
and why. Defaults to the most recent run.`,
	Args: cobra.NoArgs,
	RunE: runFailures,
}

func init() {
	failuresCmd.Flags().StringVar(&failuresRun, "run", "", "run id (default: latest run)")
	failuresCmd.Flags().BoolVar(&failuresAll, "all", false, "show failures from every run")
}

func runFailures(cmd *cobra.Command, args []string) error {
	db, err := openDB(false)
	if err != nil {
		return err
	}
	defer db.Close()

	runID := failuresRun
	if !failuresAll && runID == "" {
		runs, err := db.ListRuns()
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stdout, "No runs recorded yet.")
			return nil
		}
		report.PrintRunSummary(os.Stdout, runs[0])
		runID = runs[0].ID
	}
	if failuresAll {
		runID = ""
	}

	failures, err := db.ListFailures(runID)
	if err != nil {
		return fmt.Errorf("list failures: %w", err)
	}
	if len(failures) == 0 {
		fmt.Fprintln(os.Stdout, "No failed matches.")
		return nil
	}
	fmt.Fprintln(os.Stdout)
	report.PrintFailures(os.Stdout, failures)
	return nil
}

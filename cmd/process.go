package cmd

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-ctf-metrics/internal/aggregator"
	"github.com/pable/go-ctf-metrics/internal/model"
	"github.com/pable/go-ctf-metrics/internal/parser"
	"github.com/pable/go-ctf-metrics/internal/pipeline"
	"github.com/pable/go-ctf-metrics/internal/report"
	"github.com/pable/go-ctf-metrics/internal/storage"
)

var (
	processMatches     string
	processMaps        string
	processIDs         []string
	processForce       bool
	processWorkers     int
	processMetricsFile string
	processTimeLimit   int
	processAllowGroups bool
	processPlayer      string
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Classify matches from bulk files and store metrics",
	Long: `Read a bulk matches file and its bulk maps file (plain, .gz or .zst),
rebuild every flag possession, classify it and store per-player rows.

Matches already stored with identical content are skipped unless --force is
given. A match that cannot be classified is recorded as a failure for the run
and produces no rows.`,
	Args: cobra.NoArgs,
	RunE: runProcess,
}

func init() {
	f := processCmd.Flags()
	f.StringVar(&processMatches, "matches", "", "bulk matches file")
	f.StringVar(&processMaps, "maps", "", "bulk maps file")
	f.StringSliceVar(&processIDs, "match", nil, "only process these match ids")
	f.BoolVar(&processForce, "force", false, "reprocess matches that are already stored")
	f.IntVar(&processWorkers, "workers", 0, "matches processed concurrently (default: number of CPUs)")
	f.StringVar(&processMetricsFile, "metrics-file", "", "write run counters in Prometheus textfile format")
	f.IntVar(&processTimeLimit, "time-limit", 8, "only accept matches with this time limit in minutes (0 = any)")
	f.BoolVar(&processAllowGroups, "allow-groups", false, "accept matches played in private groups")
	f.StringVar(&processPlayer, "player", "", "highlight player when a single match is processed")
	_ = processCmd.MarkFlagRequired("matches")
	_ = processCmd.MarkFlagRequired("maps")
}

// applyProcessFlags lets explicit flags win over the layered config.
func applyProcessFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = resolveWorkers(processWorkers)
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = processMetricsFile
	}
	if flags.Changed("time-limit") {
		cfg.TimeLimit = processTimeLimit
	}
	if flags.Changed("allow-groups") {
		cfg.AllowGroups = processAllowGroups
	}
}

// resolveWorkers maps a zero worker count to one worker per CPU.
func resolveWorkers(n int) int {
	if n == 0 {
		return runtime.NumCPU()
	}
	return n
}

func runProcess(cmd *cobra.Command, args []string) error {
	applyProcessFlags(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}

	db, err := openDB(true)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("loading bulk files", zap.String("matches", processMatches), zap.String("maps", processMaps))
	bulk, err := parser.OpenBulk(processMatches, processMaps, parser.Eligibility{
		TimeLimit:   cfg.TimeLimit,
		AllowGroups: cfg.AllowGroups,
	})
	if err != nil {
		return fmt.Errorf("load bulk files: %w", err)
	}

	ids := processIDs
	if len(ids) == 0 {
		ids = parser.MatchIDs(bulk.Matches)
	}

	run := model.RunSummary{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := db.InsertRun(run); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	opts := pipeline.Options{
		Workers:   cfg.Workers,
		RunID:     run.ID,
		Aggregate: aggregator.Options{StrictGeometry: cfg.StrictGeometry},
		Logger:    logger,
		Metrics:   pipeline.NewMetrics(),
	}
	if !processForce {
		opts.Known = db.MatchExists
	}

	fmt.Fprintf(os.Stdout, "Processing %d matches with %d workers...\n", len(ids), cfg.Workers)
	res, err := pipeline.Run(cmd.Context(), ids, bulk, opts)
	if err != nil {
		return err
	}

	failures, err := storeResult(db, run.ID, res)
	if err != nil {
		return err
	}

	run.Matches, run.Failures, run.Skipped = len(res.Matches), len(res.Failures), len(res.Skipped)
	if err := db.InsertRun(run); err != nil {
		return fmt.Errorf("update run: %w", err)
	}

	if cfg.MetricsFile != "" {
		if err := opts.Metrics.WriteMetrics(cfg.MetricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	if len(ids) == 1 && len(res.Matches) == 1 {
		m := res.Matches[0]
		report.PrintMatchSummary(os.Stdout, m.Summary)
		report.PrintPlayerTable(os.Stdout, m.Stats, processPlayer)
		report.PrintEpisodeTable(os.Stdout, m.Stats, processPlayer)
	}
	report.PrintRunSummary(os.Stdout, run)
	if len(failures) > 0 {
		fmt.Fprintln(os.Stdout)
		report.PrintFailures(os.Stdout, failures)
	}
	return nil
}

// storeResult writes every classified match and records failures. A failed
// match loses any rows stored by an earlier run so it contributes nothing.
func storeResult(db *storage.DB, runID string, res *pipeline.Result) ([]model.FailedMatch, error) {
	for _, m := range res.Matches {
		if err := db.InsertMatch(m.Summary, m.Stats, m.Episodes); err != nil {
			return nil, fmt.Errorf("insert match %s: %w", m.Summary.MatchID, err)
		}
	}
	failures := make([]model.FailedMatch, 0, len(res.Failures))
	for _, f := range res.Failures {
		if err := db.DeleteMatch(f.MatchID); err != nil {
			return nil, fmt.Errorf("delete failed match %s: %w", f.MatchID, err)
		}
		failures = append(failures, model.FailedMatch{RunID: runID, MatchID: f.MatchID, Reason: f.Err.Error()})
	}
	if err := db.InsertFailures(failures); err != nil {
		return nil, fmt.Errorf("insert failures: %w", err)
	}
	return failures, nil
}

// Package pipeline processes a batch of matches with one worker per match.
// Per-match work is independent; results are merged behind a single mutex.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pable/go-ctf-metrics/internal/aggregator"
	"github.com/pable/go-ctf-metrics/internal/model"
	"github.com/pable/go-ctf-metrics/internal/parser"
)

// Source yields decoded matches by id. Errors wrapping parser.ErrIneligible
// mark a match as skipped rather than failed.
type Source interface {
	Load(id string) (*model.RawMatch, error)
}

// Options configures a Run.
type Options struct {
	Workers   int
	RunID     string
	Aggregate aggregator.Options

	// Known reports whether a match with the same id and content hash is
	// already stored. Known matches are skipped.
	Known func(matchID, hash string) (bool, error)

	Logger  *zap.Logger
	Metrics *Metrics
}

// MatchResult is one successfully classified match.
type MatchResult struct {
	Summary  model.MatchSummary
	Stats    []model.PlayerMatchStats
	Episodes []model.EpisodeRecord
}

// Failure records why a match produced no rows.
type Failure struct {
	MatchID string
	Err     error
}

// Result collects the outcome of every requested match, each slice sorted by
// match id.
type Result struct {
	RunID    string
	Matches  []MatchResult
	Failures []Failure
	Skipped  []string
}

type outcome int

const (
	outcomeProcessed outcome = iota
	outcomeFailed
	outcomeSkipped
)

// Run processes ids concurrently. Individual match errors are collected in
// the Result; only context cancellation aborts the run.
func Run(ctx context.Context, ids []string, src Source, opts Options) (*Result, error) {
	if src == nil {
		return nil, errors.New("pipeline: nil source")
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("run_id", opts.RunID))

	res := &Result{RunID: opts.RunID}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			mr, o, err := processOne(id, src, opts)
			opts.Metrics.observe(o, time.Since(start).Seconds())

			mu.Lock()
			defer mu.Unlock()
			switch o {
			case outcomeProcessed:
				res.Matches = append(res.Matches, *mr)
				log.Debug("match processed", zap.String("match_id", id), zap.Int("players", len(mr.Stats)))
			case outcomeSkipped:
				res.Skipped = append(res.Skipped, id)
				log.Debug("match skipped", zap.String("match_id", id), zap.Error(err))
			case outcomeFailed:
				res.Failures = append(res.Failures, Failure{MatchID: id, Err: err})
				log.Warn("match failed", zap.String("match_id", id), zap.Error(err))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("run %s: %w", opts.RunID, err)
	}

	sort.Slice(res.Matches, func(i, j int) bool {
		return parser.LessID(res.Matches[i].Summary.MatchID, res.Matches[j].Summary.MatchID)
	})
	sort.Slice(res.Failures, func(i, j int) bool { return parser.LessID(res.Failures[i].MatchID, res.Failures[j].MatchID) })
	sort.Slice(res.Skipped, func(i, j int) bool { return parser.LessID(res.Skipped[i], res.Skipped[j]) })

	log.Info("run complete",
		zap.Int("processed", len(res.Matches)),
		zap.Int("failed", len(res.Failures)),
		zap.Int("skipped", len(res.Skipped)),
	)
	return res, nil
}

func processOne(id string, src Source, opts Options) (*MatchResult, outcome, error) {
	raw, err := src.Load(id)
	if errors.Is(err, parser.ErrIneligible) {
		return nil, outcomeSkipped, err
	}
	if err != nil {
		return nil, outcomeFailed, err
	}

	if opts.Known != nil {
		known, err := opts.Known(raw.MatchID, raw.Hash)
		if err != nil {
			return nil, outcomeFailed, fmt.Errorf("check stored match %s: %w", id, err)
		}
		if known {
			return nil, outcomeSkipped, fmt.Errorf("match %s already stored", id)
		}
	}

	stats, episodes, err := aggregator.Aggregate(raw, opts.Aggregate)
	if err != nil {
		return nil, outcomeFailed, err
	}
	return &MatchResult{
		Summary:  aggregator.Summary(raw, opts.RunID),
		Stats:    stats,
		Episodes: episodes,
	}, outcomeProcessed, nil
}

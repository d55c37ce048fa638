package aggregator

import (
	"fmt"

	"github.com/pable/go-ctf-metrics/internal/classifier"
	"github.com/pable/go-ctf-metrics/internal/episode"
	"github.com/pable/go-ctf-metrics/internal/model"
	"github.com/pable/go-ctf-metrics/internal/spatial"
	"github.com/pable/go-ctf-metrics/internal/timeline"
)

// Options tunes per-match processing.
type Options struct {
	// StrictGeometry rejects maps with more than one stand tile per team.
	StrictGeometry bool
}

// Aggregate computes PlayerMatchStats for every roster player who joined a
// team, plus the classified episodes behind them. Any error leaves the match
// without rows.
func Aggregate(raw *model.RawMatch, opts Options) ([]model.PlayerMatchStats, []model.EpisodeRecord, error) {
	if raw == nil {
		return nil, nil, fmt.Errorf("nil RawMatch")
	}

	// ---- Pass 1: canonical flag timeline. ----

	events, err := timeline.Normalize(raw.Events, raw.TeamNames)
	if err != nil {
		return nil, nil, fmt.Errorf("match %s: %w", raw.MatchID, err)
	}
	joined, teams := timeline.Joined(raw.Events, raw.TeamNames)

	// ---- Pass 2: map geometry and deaths. ----

	stands, err := spatial.LocateFlagStands(raw.Tiles, opts.StrictGeometry)
	if err != nil {
		return nil, nil, fmt.Errorf("match %s: %w", raw.MatchID, err)
	}
	splats, err := spatial.CollectSplats(raw.Splats, raw.TeamNames)
	if err != nil {
		return nil, nil, fmt.Errorf("match %s: %w", raw.MatchID, err)
	}

	// ---- Pass 3: episodes and classification. ----

	eps, err := episode.Build(raw.MatchID, events, raw.Duration)
	if err != nil {
		return nil, nil, err
	}
	records := classifier.Tag(eps, stands, splats)
	tally := classifier.Credit(records, classifier.NewTally(joined))
	for i := range records {
		records[i].MatchID = raw.MatchID
	}

	// ---- Pass 4: merge with the recording's own counters. ----

	joinedSet := make(map[string]bool, len(joined))
	for _, p := range joined {
		joinedSet[p] = true
	}

	var pupsAvailable int
	holdByTeam := make(map[model.Team]float64)
	for _, p := range raw.Players {
		pupsAvailable += p.Stats.PupsTotal
		holdByTeam[teams[p.Name]] += p.Stats.Hold
	}

	var out []model.PlayerMatchStats
	for _, p := range raw.Players {
		if !joinedSet[p.Name] {
			continue
		}
		team := teams[p.Name]
		s := model.PlayerMatchStats{
			MatchID:       raw.MatchID,
			MapName:       raw.MapName,
			Name:          p.Name,
			Team:          team,
			BaselineStats: p.Stats,
			PupsAvailable: pupsAvailable,
			HoldAgainst:   holdByTeam[team.Opponent()],
		}
		if es, ok := tally[p.Name]; ok {
			s.EpisodeStats = *es
		}
		out = append(out, s)
	}
	return out, records, nil
}

// Summary builds the stored header for raw.
func Summary(raw *model.RawMatch, runID string) model.MatchSummary {
	return model.MatchSummary{
		MatchID:   raw.MatchID,
		Hash:      raw.Hash,
		MapName:   raw.MapName,
		MatchDate: raw.MatchDate,
		Duration:  raw.Duration,
		RedName:   raw.TeamNames.Red,
		BlueName:  raw.TeamNames.Blue,
		RedScore:  raw.RedScore,
		BlueScore: raw.BlueScore,
		RunID:     runID,
	}
}

package model

import (
	"sort"
	"strings"
)

// AggregatePlayers folds per-match rows into one PlayerAggregate per player.
// Names are matched case-insensitively and each aggregate takes the spelling
// used most often (alphabetically first on ties). Output is sorted by name.
func AggregatePlayers(rows []PlayerMatchStats) []PlayerAggregate {
	type acc struct {
		agg       PlayerAggregate
		spellings map[string]int
	}
	byKey := make(map[string]*acc)
	for _, r := range rows {
		key := strings.ToLower(r.Name)
		a, ok := byKey[key]
		if !ok {
			a = &acc{spellings: make(map[string]int)}
			byKey[key] = a
		}
		a.spellings[r.Name]++
		a.agg.Matches++
		if r.Team == TeamRed {
			a.agg.RedGames++
		}
		a.agg.BaselineStats.Add(r.BaselineStats)
		a.agg.EpisodeStats.Add(r.EpisodeStats)
		a.agg.PupsAvailable += r.PupsAvailable
		a.agg.HoldAgainst += r.HoldAgainst
	}

	out := make([]PlayerAggregate, 0, len(byKey))
	for _, a := range byKey {
		a.agg.Name = modeSpelling(a.spellings)
		out = append(out, a.agg)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

func modeSpelling(counts map[string]int) string {
	var best string
	bestN := -1
	for name, n := range counts {
		if n > bestN || (n == bestN && name < best) {
			best, bestN = name, n
		}
	}
	return best
}

// Package classifier tags flag-possession episodes with tactical categories
// and tallies them per player.
package classifier

import (
	"math"

	"github.com/pable/go-ctf-metrics/internal/episode"
	"github.com/pable/go-ctf-metrics/internal/model"
	"github.com/pable/go-ctf-metrics/internal/spatial"
)

// Empirical thresholds, in seconds.
const (
	LongHoldSeconds        = 20.0
	FlaccidSeconds         = 2.0
	HandoffHoldSeconds     = 3.0
	HandoffGapSeconds      = 2.0
	GoodHandoffSeconds     = 5.0
	KeyReturnWindowSeconds = 3.0
)

// Tally maps player name to their classified-episode counters.
type Tally map[string]*model.EpisodeStats

// NewTally seeds a zero row for every listed player.
func NewTally(players []string) Tally {
	t := make(Tally, len(players))
	for _, p := range players {
		t[p] = &model.EpisodeStats{}
	}
	return t
}

// row returns player's counters, creating them on first use. Synthetic
// GameEnds terminations carry no player and are never credited.
func (t Tally) row(player string) *model.EpisodeStats {
	if player == "" {
		return &model.EpisodeStats{}
	}
	s, ok := t[player]
	if !ok {
		s = &model.EpisodeStats{}
		t[player] = s
	}
	return s
}

// Classify tags every episode and credits the holder, the previous holder or
// the returning player per category.
func Classify(eps episode.Episodes, stands model.FlagStands, splats []model.Splat, tally Tally) Tally {
	return Credit(Tag(eps, stands, splats), tally)
}

// Tag classifies each team's episodes, Red first, in chronological order.
func Tag(eps episode.Episodes, stands model.FlagStands, splats []model.Splat) []model.EpisodeRecord {
	var out []model.EpisodeRecord
	for _, team := range model.Teams {
		out = append(out, tagTeam(team, eps[team], eps.Ends(team.Opponent()), stands.For(team.Opponent()), splats)...)
	}
	return out
}

func tagTeam(team model.Team, eps []model.Episode, opponentEnds []model.Event, enemyStand model.Point, splats []model.Splat) []model.EpisodeRecord {
	out := make([]model.EpisodeRecord, len(eps))
	for i, ep := range eps {
		dur := episode.Round2(math.Abs(ep.Duration()))
		r := model.EpisodeRecord{
			Team:      team,
			Seq:       i + 1,
			Holder:    ep.Start.Player,
			Start:     ep.Start.Time,
			End:       ep.End.Time,
			EndKind:   ep.End.Kind,
			EndPlayer: ep.End.Player,
		}

		r.LongHold = dur >= LongHoldSeconds
		if dur < FlaccidSeconds {
			r.Flaccid = true
			r.QuickReturn = ep.End.Kind == model.KindReturn
		}

		if i > 0 {
			prev := eps[i-1]
			prevDur := episode.Round2(math.Abs(prev.Duration()))
			gap := episode.Round2(math.Abs(ep.Start.Time - prev.End.Time))
			if prevDur < HandoffHoldSeconds && gap < HandoffGapSeconds {
				r.HandoffFrom = prev.Start.Player
				r.GoodHandoff = dur >= GoodHandoffSeconds
				r.CaptureOffHandoff = ep.End.Kind == model.KindCapture
			}
		}

		switch ep.End.Kind {
		case model.KindCapture:
			if ret, ok := keyReturn(ep.End, opponentEnds); ok {
				r.KeyReturner = ret.Player
			}
		case model.KindReturn:
			if s, ok := splatAt(ep.End.Time, team, splats); ok && spatial.InBase(s.Pos, enemyStand) {
				r.ReturnInBase = true
			}
		}
		out[i] = r
	}
	return out
}

// Credit adds each record's categories to the credited players' rows.
func Credit(records []model.EpisodeRecord, tally Tally) Tally {
	if tally == nil {
		tally = make(Tally)
	}
	for _, r := range records {
		if r.LongHold {
			tally.row(r.Holder).LongHolds++
		}
		if r.Flaccid {
			tally.row(r.Holder).Flaccids++
		}
		if r.QuickReturn {
			tally.row(r.EndPlayer).QuickReturns++
		}
		if r.HandoffFrom != "" {
			tally.row(r.HandoffFrom).Handoffs++
			if r.GoodHandoff {
				tally.row(r.HandoffFrom).GoodHandoffs++
			}
			if r.CaptureOffHandoff {
				tally.row(r.EndPlayer).CapturesOffHandoffs++
			}
		}
		if r.KeyReturner != "" {
			tally.row(r.KeyReturner).KeyReturns++
		}
		if r.ReturnInBase {
			tally.row(r.EndPlayer).ReturnsInBase++
		}
	}
	return tally
}

// keyReturn finds the opposing team's Return closest to, and not after, the
// capture. It qualifies when it happened less than KeyReturnWindowSeconds earlier.
func keyReturn(capture model.Event, opponentEnds []model.Event) (model.Event, bool) {
	var best model.Event
	bestDiff := math.Inf(1)
	for _, e := range opponentEnds {
		if e.Kind != model.KindReturn || e.Time > capture.Time {
			continue
		}
		d := episode.Round2(math.Abs(capture.Time - e.Time))
		if d < bestDiff {
			best, bestDiff = e, d
		}
	}
	if math.IsInf(bestDiff, 1) || bestDiff >= KeyReturnWindowSeconds {
		return model.Event{}, false
	}
	return best, true
}

// splatAt returns the first death of a team member recorded at exactly t.
func splatAt(t float64, team model.Team, splats []model.Splat) (model.Splat, bool) {
	for _, s := range splats {
		if s.Time == t && s.Team == team {
			return s, true
		}
	}
	return model.Splat{}, false
}

// Package episode reconstructs flag-possession episodes from a normalized
// event stream: every Grab is paired with the Drop, Capture or Return that
// ended it.
package episode

import (
	"errors"
	"fmt"
	"math"

	"github.com/pable/go-ctf-metrics/internal/model"
)

// DedupeWindowSeconds is the gap below which two consecutive end events are
// treated as one.
const DedupeWindowSeconds = 0.25

// ErrEventDimensionMismatch is returned when a team's grabs and terminations
// cannot be paired one to one.
var ErrEventDimensionMismatch = errors.New("event dimension mismatch")

// DimensionMismatchError identifies the match and team that failed to pair.
type DimensionMismatchError struct {
	MatchID string
	Team    model.Team
	Starts  int
	Ends    int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s while processing match %s: %s has %d grabs and %d terminations",
		ErrEventDimensionMismatch, e.MatchID, e.Team, e.Starts, e.Ends)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrEventDimensionMismatch }

// Episodes holds each team's episodes in chronological order.
type Episodes map[model.Team][]model.Episode

// Ends returns the terminating events of team's episodes.
func (e Episodes) Ends(team model.Team) []model.Event {
	eps := e[team]
	out := make([]model.Event, len(eps))
	for i, ep := range eps {
		out[i] = ep.End
	}
	return out
}

// Round2 rounds v to two decimals. Differences of clock-derived seconds are
// compared after rounding so conversion jitter cannot flip a threshold.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// split partitions events into per-team grabs and terminations. A Return ends
// the opposing team's hold; when that team's latest termination is a Drop at
// the same instant the Return replaces it.
func split(events []model.Event) (starts, ends map[model.Team][]model.Event) {
	starts = make(map[model.Team][]model.Event, 2)
	ends = make(map[model.Team][]model.Event, 2)

	for _, e := range events {
		switch e.Kind {
		case model.KindGrab:
			starts[e.Team] = append(starts[e.Team], e)
		case model.KindDrop, model.KindCapture:
			ends[e.Team] = append(ends[e.Team], e)
		case model.KindReturn:
			holder := e.Team.Opponent()
			list := ends[holder]
			if n := len(list); n > 0 && list[n-1].Kind == model.KindDrop && list[n-1].Time == e.Time {
				list[n-1] = e
			} else {
				ends[holder] = append(list, e)
			}
		}
	}
	return starts, ends
}

// dedupeOnce marks near-duplicate consecutive terminations and removes them
// in a single pass. It reports whether anything was removed.
func dedupeOnce(ends []model.Event) ([]model.Event, bool) {
	drop := make(map[int]bool)
	for i := 1; i < len(ends); i++ {
		if Round2(ends[i].Time-ends[i-1].Time) >= DedupeWindowSeconds {
			continue
		}
		switch {
		case ends[i-1].Kind == model.KindDrop:
			drop[i-1] = true
		case ends[i].Kind == model.KindDrop:
			drop[i] = true
		default:
			drop[i] = true
		}
	}
	if len(drop) == 0 {
		return ends, false
	}
	out := make([]model.Event, 0, len(ends)-len(drop))
	for i, e := range ends {
		if !drop[i] {
			out = append(out, e)
		}
	}
	return out, true
}

// Dedupe removes spurious terminations recorded within DedupeWindowSeconds of
// the previous one. Passes repeat until none remain, so Dedupe(Dedupe(x)) == Dedupe(x).
func Dedupe(ends []model.Event) []model.Event {
	for {
		var removed bool
		ends, removed = dedupeOnce(ends)
		if !removed {
			return ends
		}
	}
}

// Build pairs each team's grabs with their terminations. A hold still open
// when the clock ran out is closed by a synthetic GameEnds event at duration.
func Build(matchID string, events []model.Event, duration float64) (Episodes, error) {
	starts, ends := split(events)

	for _, team := range model.Teams {
		ends[team] = Dedupe(ends[team])
		if len(ends[team]) < len(starts[team]) {
			ends[team] = append(ends[team], model.Event{Time: duration, Kind: model.KindGameEnds})
		}
	}

	for _, team := range model.Teams {
		if len(starts[team]) != len(ends[team]) {
			return nil, &DimensionMismatchError{
				MatchID: matchID,
				Team:    team,
				Starts:  len(starts[team]),
				Ends:    len(ends[team]),
			}
		}
	}

	out := make(Episodes, 2)
	for _, team := range model.Teams {
		eps := make([]model.Episode, len(starts[team]))
		for i := range starts[team] {
			eps[i] = model.Episode{Team: team, Start: starts[team][i], End: ends[team][i]}
		}
		out[team] = eps
	}
	return out, nil
}

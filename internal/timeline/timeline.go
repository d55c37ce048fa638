// Package timeline turns a decoded match timeline into the canonical flag
// event stream the episode builder consumes.
package timeline

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pable/go-ctf-metrics/internal/model"
)

var (
	// ErrBadClock is returned for a timestamp not in minutes:seconds.fraction form.
	ErrBadClock = errors.New("malformed match clock")

	// ErrUnresolvableTeam is returned when a flag event's player never joined
	// either of the match's teams.
	ErrUnresolvableTeam = errors.New("unresolvable team")
)

// UnresolvableTeamError names the player whose team could not be resolved.
// Joined holds the team name the player joined, empty if they never joined.
type UnresolvableTeamError struct {
	Player string
	Label  string
	Clock  string
	Joined string
}

func (e *UnresolvableTeamError) Error() string {
	if e.Joined != "" {
		return fmt.Sprintf("%s: player %q (%s at %s) joined unknown team %q", ErrUnresolvableTeam, e.Player, e.Label, e.Clock, e.Joined)
	}
	return fmt.Sprintf("%s: player %q (%s at %s) never joined a team", ErrUnresolvableTeam, e.Player, e.Label, e.Clock)
}

func (e *UnresolvableTeamError) Unwrap() error { return ErrUnresolvableTeam }

// flagLabels maps every recognized flag label to its canonical kind.
// Temporary-flag variants are folded into the opponent-flag kinds.
var flagLabels = map[string]model.EventKind{
	model.LabelGrab:             model.KindGrab,
	model.LabelDrop:             model.KindDrop,
	model.LabelCapture:          model.KindCapture,
	model.LabelReturn:           model.KindReturn,
	model.LabelGrabTemporary:    model.KindGrab,
	model.LabelDropTemporary:    model.KindDrop,
	model.LabelCaptureTemporary: model.KindCapture,
}

// ParseClock converts "mm:ss.fff" into seconds. The fraction is read as an
// exact decimal; a clock without a fraction is accepted.
func ParseClock(s string) (float64, error) {
	s = strings.TrimSpace(s)
	minStr, secStr, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	minutes, err := strconv.Atoi(minStr)
	if err != nil || minutes < 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	wholeStr, fracStr, _ := strings.Cut(secStr, ".")
	seconds, err := strconv.Atoi(wholeStr)
	if err != nil || seconds < 0 || seconds > 59 {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	var frac float64
	if fracStr != "" {
		if len(fracStr) > 6 {
			return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
		}
		n, err := strconv.Atoi(fracStr)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
		}
		// Scale to microseconds so "1.5" and "1.500000" agree bit for bit.
		micros := n
		for i := len(fracStr); i < 6; i++ {
			micros *= 10
		}
		frac = float64(micros) / 1e6
	}
	return float64(minutes*60+seconds) + frac, nil
}

// joinSuffix returns the team name following the join prefix. Team names may
// contain spaces ("Join team Red Team").
func joinSuffix(label string) (string, bool) {
	if !strings.HasPrefix(label, model.LabelJoinPrefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(label, model.LabelJoinPrefix)), true
}

// firstJoin returns the team name player first joined, if any.
func firstJoin(raw []model.RawEvent, player string) string {
	for _, e := range raw {
		if suffix, ok := joinSuffix(e.Label); ok && e.Player == player {
			return suffix
		}
	}
	return ""
}

// TeamIndex maps each player to the team of their first Join event.
// Later joins do not overwrite.
func TeamIndex(raw []model.RawEvent, names model.TeamNames) map[string]model.Team {
	idx := make(map[string]model.Team)
	for _, e := range raw {
		suffix, ok := joinSuffix(e.Label)
		if !ok {
			continue
		}
		if _, seen := idx[e.Player]; seen {
			continue
		}
		idx[e.Player] = names.Resolve(suffix)
	}
	return idx
}

// Joined returns the players that produced a Join event, in first-join order,
// together with their team.
func Joined(raw []model.RawEvent, names model.TeamNames) ([]string, map[string]model.Team) {
	idx := TeamIndex(raw, names)
	seen := make(map[string]bool, len(idx))
	var order []string
	for _, e := range raw {
		if _, ok := joinSuffix(e.Label); !ok || seen[e.Player] {
			continue
		}
		seen[e.Player] = true
		order = append(order, e.Player)
	}
	return order, idx
}

// Normalize filters raw to flag events, canonicalizes their kind, converts
// clocks to seconds, attaches the acting player's team and sorts by
// (time, label).
func Normalize(raw []model.RawEvent, names model.TeamNames) ([]model.Event, error) {
	teams := TeamIndex(raw, names)

	out := make([]model.Event, 0, len(raw))
	for _, e := range raw {
		kind, ok := flagLabels[e.Label]
		if !ok {
			continue
		}
		t, err := ParseClock(e.Clock)
		if err != nil {
			return nil, err
		}
		team := teams[e.Player]
		if team == model.TeamUnknown {
			return nil, &UnresolvableTeamError{Player: e.Player, Label: e.Label, Clock: e.Clock, Joined: firstJoin(raw, e.Player)}
		}
		out = append(out, model.Event{Time: t, Kind: kind, Player: e.Player, Team: team})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].Kind.Label() < out[j].Kind.Label()
	})
	return out, nil
}

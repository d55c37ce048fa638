package timeline

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/pable/go-ctf-metrics/internal/model"
)

var names = model.TeamNames{Red: "Red", Blue: "Blue"}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"00:00.000", 0},
		{"00:06.990", 6.99},
		{"01:05.5", 65.5},
		{"07:59.999", 479.999},
		{"02:10", 130},
	}
	for _, c := range cases {
		got, err := ParseClock(c.in)
		if err != nil {
			t.Fatalf("ParseClock(%q): %v", c.in, err)
		}
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("ParseClock(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseClock_Malformed(t *testing.T) {
	for _, in := range []string{"", "12", "aa:10.0", "01:xx", "01:61.0", "01:10.1234567"} {
		if _, err := ParseClock(in); !errors.Is(err, ErrBadClock) {
			t.Errorf("ParseClock(%q): expected ErrBadClock, got %v", in, err)
		}
	}
}

// TestParseClock_FractionWidth: differently padded fractions must map to the same float.
func TestParseClock_FractionWidth(t *testing.T) {
	a, _ := ParseClock("00:04.5")
	b, _ := ParseClock("00:04.500000")
	if a != b {
		t.Errorf("expected equal values, got %v and %v", a, b)
	}
}

func TestTeamIndex_FirstJoinWins(t *testing.T) {
	raw := []model.RawEvent{
		{Clock: "00:00.000", Label: "Join team Red", Player: "alice"},
		{Clock: "00:00.000", Label: "Join team Blue", Player: "bob"},
		{Clock: "03:00.000", Label: "Join team Blue", Player: "alice"},
	}
	idx := TeamIndex(raw, names)
	if idx["alice"] != model.TeamRed {
		t.Errorf("alice: expected Red (first join), got %s", idx["alice"])
	}
	if idx["bob"] != model.TeamBlue {
		t.Errorf("bob: expected Blue, got %s", idx["bob"])
	}
}

func TestJoined_Order(t *testing.T) {
	raw := []model.RawEvent{
		{Clock: "00:00.000", Label: "Join team Blue", Player: "bob"},
		{Clock: "00:01.000", Label: "Grab Opponent flag", Player: "bob"},
		{Clock: "00:02.000", Label: "Join team Red", Player: "alice"},
		{Clock: "00:03.000", Label: "Join team Red", Player: "bob"},
	}
	order, _ := Joined(raw, names)
	if len(order) != 2 || order[0] != "bob" || order[1] != "alice" {
		t.Errorf("unexpected join order %v", order)
	}
}

func TestNormalize_FoldsTemporaryFlagAndSorts(t *testing.T) {
	raw := []model.RawEvent{
		{Clock: "00:00.000", Label: "Join team Red", Player: "alice"},
		{Clock: "00:00.000", Label: "Join team Blue", Player: "bob"},
		{Clock: "00:05.000", Label: "Capture Temporary flag", Player: "alice"},
		{Clock: "00:01.000", Label: "Grab Temporary flag", Player: "alice"},
		{Clock: "00:03.000", Label: "Pop", Player: "bob"},
		{Clock: "00:05.000", Label: "Grab Opponent flag", Player: "bob"},
	}
	events, err := Normalize(raw, names)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 flag events, got %d", len(events))
	}
	if events[0].Kind != model.KindGrab || events[0].Time != 1 || events[0].Team != model.TeamRed {
		t.Errorf("unexpected first event %+v", events[0])
	}
	// Same timestamp: "Capture Opponent flag" < "Grab Opponent flag" lexically.
	if events[1].Kind != model.KindCapture || events[2].Kind != model.KindGrab {
		t.Errorf("expected capture before grab at t=5, got %s then %s", events[1].Kind, events[2].Kind)
	}
	if events[2].Team != model.TeamBlue {
		t.Errorf("expected bob on Blue, got %s", events[2].Team)
	}
}

func TestNormalize_UnresolvableTeam(t *testing.T) {
	raw := []model.RawEvent{
		{Clock: "00:00.000", Label: "Join team Red", Player: "alice"},
		{Clock: "00:02.000", Label: "Grab Opponent flag", Player: "ghost"},
	}
	_, err := Normalize(raw, names)
	if !errors.Is(err, ErrUnresolvableTeam) {
		t.Fatalf("expected ErrUnresolvableTeam, got %v", err)
	}
	var ute *UnresolvableTeamError
	if !errors.As(err, &ute) || ute.Player != "ghost" {
		t.Errorf("expected error naming ghost, got %v", err)
	}
}

func TestNormalize_UnknownTeamSuffix(t *testing.T) {
	raw := []model.RawEvent{
		{Clock: "00:00.000", Label: "Join team Green", Player: "alice"},
		{Clock: "00:02.000", Label: "Return", Player: "alice"},
	}
	_, err := Normalize(raw, names)
	if !errors.Is(err, ErrUnresolvableTeam) {
		t.Fatalf("expected ErrUnresolvableTeam, got %v", err)
	}
	var ute *UnresolvableTeamError
	if !errors.As(err, &ute) || ute.Joined != "Green" || !strings.Contains(err.Error(), `joined unknown team "Green"`) {
		t.Errorf("expected error naming the unknown team, got %v", err)
	}
}

func TestNormalize_MultiWordTeamNames(t *testing.T) {
	teams := model.TeamNames{Red: "Red Team", Blue: "The Blue Team"}
	raw := []model.RawEvent{
		{Clock: "00:00.000", Label: "Join team Red Team", Player: "a"},
		{Clock: "00:00.000", Label: "Join team The Blue Team ", Player: "b"},
		{Clock: "00:01.000", Label: "Grab Opponent flag", Player: "a"},
		{Clock: "00:02.000", Label: "Return", Player: "b"},
	}
	events, err := Normalize(raw, teams)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 || events[0].Team != model.TeamRed || events[1].Team != model.TeamBlue {
		t.Errorf("unexpected events %+v", events)
	}

	joined, idx := Joined(raw, teams)
	if len(joined) != 2 || idx["b"] != model.TeamBlue {
		t.Errorf("unexpected join index %v / %v", joined, idx)
	}
}

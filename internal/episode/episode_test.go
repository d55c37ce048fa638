package episode

import (
	"errors"
	"testing"

	"github.com/pable/go-ctf-metrics/internal/model"
)

func ev(t float64, kind model.EventKind, player string, team model.Team) model.Event {
	return model.Event{Time: t, Kind: kind, Player: player, Team: team}
}

// ---- Split ----

// TestBuild_ReturnEndsOpposingHold: a Blue return terminates Red's episode.
func TestBuild_ReturnEndsOpposingHold(t *testing.T) {
	events := []model.Event{
		ev(3, model.KindGrab, "red1", model.TeamRed),
		ev(4, model.KindReturn, "blue1", model.TeamBlue),
	}
	eps, err := Build("m1", events, 480)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	red := eps[model.TeamRed]
	if len(red) != 1 {
		t.Fatalf("expected 1 red episode, got %d", len(red))
	}
	if red[0].End.Kind != model.KindReturn || red[0].End.Player != "blue1" {
		t.Errorf("expected red episode ended by blue1's return, got %+v", red[0].End)
	}
	if len(eps[model.TeamBlue]) != 0 {
		t.Errorf("expected no blue episodes, got %d", len(eps[model.TeamBlue]))
	}
}

// TestBuild_ReturnReplacesSimultaneousDrop: Drop and Return at the same instant are one termination.
func TestBuild_ReturnReplacesSimultaneousDrop(t *testing.T) {
	events := []model.Event{
		ev(1, model.KindGrab, "red1", model.TeamRed),
		ev(9, model.KindDrop, "red1", model.TeamRed),
		ev(9, model.KindReturn, "blue1", model.TeamBlue),
	}
	eps, err := Build("m1", events, 480)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	end := eps[model.TeamRed][0].End
	if end.Kind != model.KindReturn || end.Player != "blue1" {
		t.Errorf("expected the return to replace the drop, got %+v", end)
	}
}

func TestBuild_ReturnWithoutPriorEnds(t *testing.T) {
	events := []model.Event{
		ev(2, model.KindReturn, "blue1", model.TeamBlue),
	}
	_, err := Build("m1", events, 480)
	if !errors.Is(err, ErrEventDimensionMismatch) {
		t.Fatalf("expected mismatch for a return with no grab, got %v", err)
	}
}

// ---- Dedupe ----

func TestDedupe_Window(t *testing.T) {
	within := []model.Event{
		ev(10.00, model.KindCapture, "a", model.TeamRed),
		ev(10.20, model.KindCapture, "b", model.TeamRed),
	}
	if got := Dedupe(within); len(got) != 1 || got[0].Player != "a" {
		t.Errorf("0.20s apart: expected later event removed, got %+v", got)
	}

	outside := []model.Event{
		ev(10.00, model.KindCapture, "a", model.TeamRed),
		ev(10.30, model.KindCapture, "b", model.TeamRed),
	}
	if got := Dedupe(outside); len(got) != 2 {
		t.Errorf("0.30s apart: expected no removal, got %d events", len(got))
	}
}

func TestDedupe_PrefersDroppingDrop(t *testing.T) {
	earlierDrop := []model.Event{
		ev(5.0, model.KindDrop, "a", model.TeamRed),
		ev(5.1, model.KindCapture, "a", model.TeamRed),
	}
	if got := Dedupe(earlierDrop); len(got) != 1 || got[0].Kind != model.KindCapture {
		t.Errorf("expected earlier drop discarded, got %+v", got)
	}

	laterDrop := []model.Event{
		ev(5.0, model.KindReturn, "b", model.TeamBlue),
		ev(5.1, model.KindDrop, "a", model.TeamRed),
	}
	if got := Dedupe(laterDrop); len(got) != 1 || got[0].Kind != model.KindReturn {
		t.Errorf("expected later drop discarded, got %+v", got)
	}
}

// Removing the drop in Capture@10.0, Drop@10.1, Capture@10.2 brings the two
// captures within the window of each other. A single pass stops at two ends;
// Dedupe keeps going until one remains.
func TestDedupe_RepeatsUntilStable(t *testing.T) {
	ends := []model.Event{
		ev(10.0, model.KindCapture, "a", model.TeamRed),
		ev(10.1, model.KindDrop, "b", model.TeamRed),
		ev(10.2, model.KindCapture, "c", model.TeamRed),
	}
	single, removed := dedupeOnce(ends)
	if !removed || len(single) != 2 {
		t.Fatalf("single pass: expected 2 ends, got %+v", single)
	}
	got := Dedupe(ends)
	if len(got) != 1 || got[0].Player != "a" {
		t.Errorf("expected only the first capture to survive, got %+v", got)
	}
}

func TestDedupe_Idempotent(t *testing.T) {
	ends := []model.Event{
		ev(1.0, model.KindCapture, "a", model.TeamRed),
		ev(1.1, model.KindDrop, "b", model.TeamRed),
		ev(1.2, model.KindCapture, "c", model.TeamRed),
		ev(4.0, model.KindDrop, "d", model.TeamRed),
		ev(4.1, model.KindReturn, "e", model.TeamBlue),
		ev(9.0, model.KindCapture, "f", model.TeamRed),
	}
	once := Dedupe(ends)
	twice := Dedupe(once)
	if len(once) != len(twice) {
		t.Fatalf("dedupe not idempotent: %d then %d events", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("index %d changed on second pass: %+v vs %+v", i, once[i], twice[i])
		}
	}
	for i := 1; i < len(once); i++ {
		if Round2(once[i].Time-once[i-1].Time) < DedupeWindowSeconds {
			t.Errorf("events %d and %d still within the window", i-1, i)
		}
	}
}

// ---- Fallback & validation ----

func TestBuild_GameEndsFallback(t *testing.T) {
	events := []model.Event{
		ev(470, model.KindGrab, "blue1", model.TeamBlue),
	}
	eps, err := Build("m1", events, 480)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	end := eps[model.TeamBlue][0].End
	if end.Kind != model.KindGameEnds || end.Time != 480 || end.Player != "" {
		t.Errorf("expected synthetic game end at 480, got %+v", end)
	}
}

func TestBuild_DimensionMismatch(t *testing.T) {
	events := []model.Event{
		ev(1, model.KindGrab, "red1", model.TeamRed),
		ev(2, model.KindGrab, "red2", model.TeamRed),
		ev(3, model.KindGrab, "red3", model.TeamRed),
		ev(4, model.KindCapture, "red3", model.TeamRed),
	}
	_, err := Build("m42", events, 480)
	if !errors.Is(err, ErrEventDimensionMismatch) {
		t.Fatalf("expected ErrEventDimensionMismatch, got %v", err)
	}
	var dme *DimensionMismatchError
	if !errors.As(err, &dme) {
		t.Fatalf("expected *DimensionMismatchError, got %T", err)
	}
	if dme.MatchID != "m42" || dme.Team != model.TeamRed || dme.Starts != 3 || dme.Ends != 2 {
		t.Errorf("unexpected error detail %+v", dme)
	}
}

// TestBuild_CountsMatch: every successful build pairs grabs and terminations one to one.
func TestBuild_CountsMatch(t *testing.T) {
	events := []model.Event{
		ev(0, model.KindGrab, "blue1", model.TeamBlue),
		ev(3, model.KindGrab, "red1", model.TeamRed),
		ev(4, model.KindReturn, "blue2", model.TeamBlue),
		ev(10, model.KindDrop, "blue1", model.TeamBlue),
		ev(10.5, model.KindGrab, "blue2", model.TeamBlue),
		ev(25, model.KindCapture, "blue2", model.TeamBlue),
		ev(30, model.KindGrab, "red2", model.TeamRed),
	}
	eps, err := Build("m1", events, 480)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(eps[model.TeamBlue]) != 2 || len(eps[model.TeamRed]) != 2 {
		t.Fatalf("unexpected episode counts blue=%d red=%d", len(eps[model.TeamBlue]), len(eps[model.TeamRed]))
	}
	for _, team := range model.Teams {
		for _, e := range eps[team] {
			if e.Start.Time > e.End.Time {
				t.Errorf("%s episode ends before it starts: %+v", team, e)
			}
		}
	}
	if ends := eps.Ends(model.TeamBlue); ends[1].Kind != model.KindCapture {
		t.Errorf("expected second blue episode to end in capture, got %s", ends[1].Kind)
	}
}

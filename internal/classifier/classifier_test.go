package classifier

import (
	"testing"

	"github.com/pable/go-ctf-metrics/internal/episode"
	"github.com/pable/go-ctf-metrics/internal/model"
)

// Stands used by every scenario: Red at tile (1,1), Blue at tile (1,10).
var stands = model.FlagStands{
	Red:  model.Point{X: 60, Y: 60},
	Blue: model.Point{X: 420, Y: 60},
}

func ep(team model.Team, holder string, start float64, endKind model.EventKind, ender string, end float64) model.Episode {
	endTeam := team
	if endKind == model.KindReturn {
		endTeam = team.Opponent()
	}
	return model.Episode{
		Team:  team,
		Start: model.Event{Time: start, Kind: model.KindGrab, Player: holder, Team: team},
		End:   model.Event{Time: end, Kind: endKind, Player: ender, Team: endTeam},
	}
}

func classify(eps episode.Episodes, splats []model.Splat) Tally {
	return Classify(eps, stands, splats, nil)
}

func get(t Tally, player string) model.EpisodeStats {
	if s, ok := t[player]; ok {
		return *s
	}
	return model.EpisodeStats{}
}

// ---- Long holds ----

func TestLongHold_Boundary(t *testing.T) {
	at := classify(episode.Episodes{
		model.TeamBlue: {ep(model.TeamBlue, "blue1", 0, model.KindCapture, "blue1", 20.00)},
	}, nil)
	if get(at, "blue1").LongHolds != 1 {
		t.Error("20.00s hold should be a long hold")
	}

	below := classify(episode.Episodes{
		model.TeamBlue: {ep(model.TeamBlue, "blue1", 0, model.KindCapture, "blue1", 19.99)},
	}, nil)
	if get(below, "blue1").LongHolds != 0 {
		t.Error("19.99s hold should not be a long hold")
	}
}

// ---- Flaccids & quick returns ----

func TestFlaccid_QuickReturn(t *testing.T) {
	tally := classify(episode.Episodes{
		model.TeamRed: {ep(model.TeamRed, "red1", 5.00, model.KindReturn, "blue1", 6.99)},
	}, nil)
	if get(tally, "red1").Flaccids != 1 {
		t.Error("1.99s hold should be flaccid")
	}
	if get(tally, "blue1").QuickReturns != 1 {
		t.Error("returner of a flaccid hold should get a quick return")
	}

	notQuick := classify(episode.Episodes{
		model.TeamRed: {ep(model.TeamRed, "red1", 5.00, model.KindReturn, "blue1", 7.00)},
	}, nil)
	if get(notQuick, "red1").Flaccids != 0 || get(notQuick, "blue1").QuickReturns != 0 {
		t.Error("2.00s hold should not be flaccid")
	}
}

func TestFlaccid_DropIsNotQuickReturn(t *testing.T) {
	tally := classify(episode.Episodes{
		model.TeamRed: {ep(model.TeamRed, "red1", 5.00, model.KindDrop, "red1", 6.00)},
	}, nil)
	if get(tally, "red1").Flaccids != 1 || get(tally, "red1").QuickReturns != 0 {
		t.Errorf("unexpected tally %+v", get(tally, "red1"))
	}
}

// ---- Handoffs ----

func TestHandoff_GoodAndCapture(t *testing.T) {
	tally := classify(episode.Episodes{
		model.TeamBlue: {
			ep(model.TeamBlue, "blue1", 10, model.KindDrop, "blue1", 12.5),
			ep(model.TeamBlue, "blue2", 13.0, model.KindCapture, "blue2", 30),
		},
	}, nil)
	b1 := get(tally, "blue1")
	if b1.Handoffs != 1 || b1.GoodHandoffs != 1 {
		t.Errorf("blue1: expected 1 handoff and 1 good handoff, got %+v", b1)
	}
	if get(tally, "blue2").CapturesOffHandoffs != 1 {
		t.Error("blue2 should get a capture off handoff")
	}
}

func TestHandoff_Thresholds(t *testing.T) {
	cases := []struct {
		name             string
		prevEnd, nextBeg float64
		nextEnd          float64
		wantHandoff      bool
		wantGood         bool
	}{
		{"prev hold too long", 13.0, 13.5, 30, false, false},
		{"gap too long", 12.0, 14.0, 30, false, false},
		{"short follow-up", 12.0, 12.5, 17.49, true, false},
		{"follow-up exactly 5s", 12.0, 12.5, 17.5, true, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tally := classify(episode.Episodes{
				model.TeamBlue: {
					ep(model.TeamBlue, "blue1", 10, model.KindDrop, "blue1", c.prevEnd),
					ep(model.TeamBlue, "blue2", c.nextBeg, model.KindDrop, "blue2", c.nextEnd),
				},
			}, nil)
			b1 := get(tally, "blue1")
			if (b1.Handoffs == 1) != c.wantHandoff {
				t.Errorf("handoff: got %d, want %v", b1.Handoffs, c.wantHandoff)
			}
			if (b1.GoodHandoffs == 1) != c.wantGood {
				t.Errorf("good handoff: got %d, want %v", b1.GoodHandoffs, c.wantGood)
			}
			if get(tally, "blue2").CapturesOffHandoffs != 0 {
				t.Error("no capture, no capture off handoff")
			}
		})
	}
}

// ---- Key returns ----

func TestKeyReturn_NearestPrecedingReturn(t *testing.T) {
	tally := classify(episode.Episodes{
		model.TeamBlue: {ep(model.TeamBlue, "blue1", 20, model.KindCapture, "blue1", 50)},
		model.TeamRed: {
			ep(model.TeamRed, "red1", 30, model.KindReturn, "blue2", 40),
			ep(model.TeamRed, "red2", 45, model.KindReturn, "blue3", 48),
			ep(model.TeamRed, "red3", 50.5, model.KindReturn, "blue4", 51),
		},
	}, nil)
	if get(tally, "blue3").KeyReturns != 1 {
		t.Error("blue3's return 2s before the capture should be a key return")
	}
	if get(tally, "blue2").KeyReturns != 0 || get(tally, "blue4").KeyReturns != 0 {
		t.Error("only the nearest preceding return qualifies")
	}
}

func TestKeyReturn_Window(t *testing.T) {
	tally := classify(episode.Episodes{
		model.TeamBlue: {ep(model.TeamBlue, "blue1", 20, model.KindCapture, "blue1", 50)},
		model.TeamRed:  {ep(model.TeamRed, "red1", 30, model.KindReturn, "blue2", 47)},
	}, nil)
	if get(tally, "blue2").KeyReturns != 0 {
		t.Error("a return exactly 3s before the capture is outside the window")
	}
}

// ---- Returns in base ----

func TestReturnInBase_Boundary(t *testing.T) {
	eps := episode.Episodes{
		model.TeamRed: {ep(model.TeamRed, "red1", 3, model.KindReturn, "blue1", 10)},
	}

	// Red carried Blue's flag and died exactly 220 units from Blue's stand.
	inside := classify(eps, []model.Splat{
		{Time: 10, Pos: model.Point{X: 420, Y: 280}, Player: "red1", Team: model.TeamRed},
	})
	if get(inside, "blue1").ReturnsInBase != 1 {
		t.Error("splat 220.0 units from the enemy stand should count")
	}

	outside := classify(eps, []model.Splat{
		{Time: 10, Pos: model.Point{X: 420, Y: 280.01}, Player: "red1", Team: model.TeamRed},
	})
	if get(outside, "blue1").ReturnsInBase != 0 {
		t.Error("splat 220.01 units away should not count")
	}
}

func TestReturnInBase_RequiresHolderTeamSplat(t *testing.T) {
	tally := classify(episode.Episodes{
		model.TeamRed: {ep(model.TeamRed, "red1", 3, model.KindReturn, "blue1", 10)},
	}, []model.Splat{
		{Time: 10, Pos: model.Point{X: 420, Y: 60}, Player: "blue9", Team: model.TeamBlue},
		{Time: 11, Pos: model.Point{X: 420, Y: 60}, Player: "red1", Team: model.TeamRed},
	})
	if get(tally, "blue1").ReturnsInBase != 0 {
		t.Error("neither splat belongs to the holder's team at the return time")
	}
}

// ---- Game end ----

func TestGameEnds_NotCredited(t *testing.T) {
	tally := classify(episode.Episodes{
		model.TeamBlue: {{
			Team:  model.TeamBlue,
			Start: model.Event{Time: 479, Kind: model.KindGrab, Player: "blue1", Team: model.TeamBlue},
			End:   model.Event{Time: 480, Kind: model.KindGameEnds},
		}},
	}, nil)
	if _, ok := tally[""]; ok {
		t.Error("synthetic game end must not create a row")
	}
	if get(tally, "blue1").Flaccids != 1 {
		t.Error("holder still gets the flaccid")
	}
}

// ---- End to end ----

func TestScenario_BlueLongHoldRedFlaccid(t *testing.T) {
	eps := episode.Episodes{
		model.TeamBlue: {ep(model.TeamBlue, "blue1", 0, model.KindCapture, "blue1", 25)},
		model.TeamRed:  {ep(model.TeamRed, "red1", 3, model.KindReturn, "blue2", 4)},
	}
	splats := []model.Splat{
		{Time: 4, Pos: model.Point{X: 400, Y: 100}, Player: "red1", Team: model.TeamRed},
	}
	tally := Classify(eps, stands, splats, NewTally([]string{"blue1", "blue2", "red1", "red2"}))

	if got := get(tally, "blue1"); got.LongHolds != 1 || got.Flaccids != 0 {
		t.Errorf("blue1: expected one long hold, got %+v", got)
	}
	if got := get(tally, "red1"); got.Flaccids != 1 || got.LongHolds != 0 {
		t.Errorf("red1: expected one flaccid, got %+v", got)
	}
	if got := get(tally, "blue2"); got.ReturnsInBase != 1 || got.QuickReturns != 1 {
		t.Errorf("blue2: expected a quick return in base, got %+v", got)
	}
	if got := get(tally, "red2"); got != (model.EpisodeStats{}) {
		t.Errorf("red2: expected zero row, got %+v", got)
	}
	if len(tally) != 4 {
		t.Errorf("expected 4 rows, got %d", len(tally))
	}
}

// ---- Per-episode records ----

func TestTag_Records(t *testing.T) {
	eps := episode.Episodes{
		model.TeamBlue: {
			ep(model.TeamBlue, "blue1", 10, model.KindDrop, "blue1", 11),
			ep(model.TeamBlue, "blue2", 12, model.KindCapture, "blue2", 40),
		},
		model.TeamRed: {ep(model.TeamRed, "red1", 30, model.KindReturn, "blue3", 38)},
	}
	recs := Tag(eps, stands, nil)
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}

	red := recs[0]
	if red.Team != model.TeamRed || red.Seq != 1 || red.Holder != "red1" || red.EndPlayer != "blue3" {
		t.Errorf("unexpected red record %+v", red)
	}

	first, second := recs[1], recs[2]
	if !first.Flaccid || first.HandoffFrom != "" || first.Seq != 1 {
		t.Errorf("unexpected first blue record %+v", first)
	}
	if second.HandoffFrom != "blue1" || !second.GoodHandoff || !second.CaptureOffHandoff || !second.LongHold {
		t.Errorf("second blue record should complete a good handoff into a capture: %+v", second)
	}
	if second.KeyReturner != "blue3" {
		t.Errorf("blue3's return 2s before the capture should be key, got %q", second.KeyReturner)
	}
	if second.Duration() != 28 {
		t.Errorf("expected duration 28, got %v", second.Duration())
	}
}

func TestCredit_MatchesClassify(t *testing.T) {
	eps := episode.Episodes{
		model.TeamBlue: {ep(model.TeamBlue, "blue1", 0, model.KindCapture, "blue1", 25)},
		model.TeamRed:  {ep(model.TeamRed, "red1", 3, model.KindReturn, "blue2", 4)},
	}
	direct := Classify(eps, stands, nil, nil)
	viaRecords := Credit(Tag(eps, stands, nil), nil)
	for _, p := range []string{"blue1", "blue2", "red1"} {
		if get(direct, p) != get(viaRecords, p) {
			t.Errorf("%s: Classify %+v != Credit(Tag) %+v", p, get(direct, p), get(viaRecords, p))
		}
	}
}

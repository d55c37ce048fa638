package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pable/go-ctf-metrics/internal/model"
)

func sampleStats() []model.PlayerMatchStats {
	return []model.PlayerMatchStats{
		{
			Name: "Alice", Team: model.TeamRed,
			BaselineStats: model.BaselineStats{Time: 480, Captures: 1, Grabs: 3, Returns: 4},
			EpisodeStats:  model.EpisodeStats{Flaccids: 1, QuickReturns: 1, ReturnsInBase: 3},
		},
		{Name: "Bob", Team: model.TeamBlue},
	}
}

func TestPrintTables_ContainRows(t *testing.T) {
	var buf bytes.Buffer
	PrintPlayerTable(&buf, sampleStats(), "alice")
	PrintEpisodeTable(&buf, sampleStats(), "")
	out := buf.String()

	for _, want := range []string{"Alice", "Bob", "Red", "Blue", "33.3%", "75.0%", ">"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintMatchSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintMatchSummary(&buf, model.MatchSummary{
		MatchID: "101", MapName: "Bombing Run", Duration: 479.5, RedName: "Red", BlueName: "Blue",
		RedScore: 1, BlueScore: 3, Hash: "0123456789abcdef",
	})
	out := buf.String()
	for _, want := range []string{"101", "Bombing Run", "7:59", "0123456789ab"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q: %s", want, out)
		}
	}
	if strings.Contains(out, "0123456789abc") {
		t.Error("hash should be truncated to 12 characters")
	}
}

func TestSortAggregates(t *testing.T) {
	aggs := []model.PlayerAggregate{
		{Name: "bob", BaselineStats: model.BaselineStats{Captures: 2}},
		{Name: "Carol", BaselineStats: model.BaselineStats{Captures: 5}},
		{Name: "alice", BaselineStats: model.BaselineStats{Captures: 2}},
	}
	if err := SortAggregates(aggs, "caps"); err != nil {
		t.Fatalf("SortAggregates: %v", err)
	}
	if aggs[0].Name != "Carol" || aggs[1].Name != "alice" || aggs[2].Name != "bob" {
		t.Errorf("unexpected order %s %s %s", aggs[0].Name, aggs[1].Name, aggs[2].Name)
	}
	if err := SortAggregates(aggs, "elo"); err == nil {
		t.Error("expected error for unknown sort column")
	}
}

func TestEpisodeTags(t *testing.T) {
	e := model.EpisodeRecord{LongHold: true, HandoffFrom: "bob", GoodHandoff: true, CaptureOffHandoff: true, KeyReturner: "carol"}
	if got := episodeTags(e); got != "LONG HANDOFF<bob GOOD CAP_OH KEY:carol" {
		t.Errorf("unexpected tags %q", got)
	}
	if got := episodeTags(model.EpisodeRecord{}); got != "—" {
		t.Errorf("expected placeholder for untagged episode, got %q", got)
	}
}

func TestClockFrac(t *testing.T) {
	if got := clockFrac(75.5); got != "1:15.50" {
		t.Errorf("expected 1:15.50, got %q", got)
	}
	if got := clockFrac(3.25); got != "0:03.25" {
		t.Errorf("expected 0:03.25, got %q", got)
	}
}

func TestPrintEpisodeLog_Focus(t *testing.T) {
	var buf bytes.Buffer
	PrintEpisodeLog(&buf, []model.EpisodeRecord{
		{Team: model.TeamRed, Seq: 1, Holder: "alice", Start: 3, End: 4, EndKind: model.KindReturn, EndPlayer: "bob", QuickReturn: true, Flaccid: true},
	}, "BOB")
	out := buf.String()
	for _, want := range []string{"alice", "bob", "Return", "1.00s", "FLACCID QR", ">"} {
		if !strings.Contains(out, want) {
			t.Errorf("episode log missing %q:\n%s", want, out)
		}
	}
}

package model

import "testing"

func TestTeam_Opponent(t *testing.T) {
	if TeamRed.Opponent() != TeamBlue || TeamBlue.Opponent() != TeamRed {
		t.Error("red and blue should oppose each other")
	}
	if TeamUnknown.Opponent() != TeamUnknown {
		t.Error("unknown team has no opponent")
	}
}

func TestPlayerMatchStats_Derived(t *testing.T) {
	s := PlayerMatchStats{
		BaselineStats: BaselineStats{
			Time: 470, Captures: 2, Grabs: 8, Hold: 64, Drops: 5, Pops: 7,
			Returns: 4, Tags: 10, Prevent: 30, PupsTotal: 3, Block: 12, Button: 26,
		},
		EpisodeStats:  EpisodeStats{Flaccids: 2, Handoffs: 3, GoodHandoffs: 1, QuickReturns: 1, ReturnsInBase: 3},
		PupsAvailable: 12,
		HoldAgainst:   90,
	}

	checks := []struct {
		name      string
		got, want float64
	}{
		{"Minutes", s.Minutes(), 7.8},
		{"Support", float64(s.Support()), 9},
		{"NDPops", float64(s.NDPops()), 2},
		{"NRTags", float64(s.NRTags()), 6},
		{"KF", float64(s.KF()), 1},
		{"K/D", s.KDRatio(), 1.43},
		{"Pup%", s.PupPct(), 25},
		{"Score%", s.ScorePct(), 25},
		{"Hold/Grab", s.HoldPerGrab(), 8},
		{"Prevent/Return", s.PreventPerReturn(), 7.5},
		{"Prevent/HoldAgainst", s.PreventPerHoldAgainst(), 0.33},
		{"Flaccid%", s.FlaccidPct(), 25},
		{"Chain%", s.ChainPct(), 33.33},
		{"QR%", s.QRPct(), 25},
		{"RIB%", s.RIBPct(), 75},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestPlayerMatchStats_ZeroDenominators(t *testing.T) {
	var s PlayerMatchStats
	if s.KDRatio() != 0 || s.PupPct() != 0 || s.ChainPct() != 0 || s.RIBPct() != 0 || s.PreventPerHoldAgainst() != 0 {
		t.Error("ratios with a zero denominator should be 0")
	}
}

func TestAggregatePlayers(t *testing.T) {
	rows := []PlayerMatchStats{
		{Name: "Ball", Team: TeamRed, BaselineStats: BaselineStats{Time: 480, Captures: 1, Grabs: 4}},
		{Name: "ball", Team: TeamBlue, BaselineStats: BaselineStats{Time: 480, Captures: 2, Grabs: 4}, EpisodeStats: EpisodeStats{LongHolds: 1}},
		{Name: "Ball", Team: TeamRed, BaselineStats: BaselineStats{Time: 240}, HoldAgainst: 10},
		{Name: "Alpha", Team: TeamBlue, PupsAvailable: 5},
	}
	aggs := AggregatePlayers(rows)
	if len(aggs) != 2 {
		t.Fatalf("expected 2 players, got %d", len(aggs))
	}
	if aggs[0].Name != "Alpha" || aggs[0].PupsAvailable != 5 {
		t.Errorf("unexpected first aggregate %+v", aggs[0])
	}
	b := aggs[1]
	if b.Name != "Ball" {
		t.Errorf("expected most frequent spelling Ball, got %q", b.Name)
	}
	if b.Matches != 3 || b.RedGames != 2 || b.Captures != 3 || b.Grabs != 8 || b.LongHolds != 1 || b.HoldAgainst != 10 {
		t.Errorf("unexpected sums %+v", b)
	}
	if b.Minutes() != 20 || b.ScorePct() != 37.5 {
		t.Errorf("unexpected derived values: minutes=%v score%%=%v", b.Minutes(), b.ScorePct())
	}
}

func TestModeSpelling_TieBreak(t *testing.T) {
	if got := modeSpelling(map[string]int{"bob": 1, "Bob": 1}); got != "Bob" {
		t.Errorf("expected alphabetically first spelling, got %q", got)
	}
}

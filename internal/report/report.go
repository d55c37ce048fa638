package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-ctf-metrics/internal/model"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

func marker(name, focus string) string {
	if focus != "" && strings.EqualFold(name, focus) {
		return ">"
	}
	return " "
}

func f1(v float64) string  { return fmt.Sprintf("%.1f", v) }
func f2(v float64) string  { return fmt.Sprintf("%.2f", v) }
func pct(v float64) string { return fmt.Sprintf("%.1f%%", v) }

// PrintMatchSummary prints a one-line summary header for the match.
func PrintMatchSummary(w io.Writer, s model.MatchSummary) {
	hash := s.Hash
	if len(hash) > 12 {
		hash = hash[:12]
	}
	fmt.Fprintf(w, "\nMatch: %s  |  Map: %s  |  Date: %s  |  Score: %s %d – %s %d  |  Length: %s  |  Hash: %s\n\n",
		s.MatchID, s.MapName, s.MatchDate, s.RedName, s.RedScore, s.BlueName, s.BlueScore, clock(s.Duration), hash)
}

func clock(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// PrintPlayerTable prints the recording's own counters plus derived ratios.
// If focus is non-empty, that player's row is marked with ">".
func PrintPlayerTable(w io.Writer, stats []model.PlayerMatchStats, focus string) {
	table := newTable(w)
	table.Header(
		" ", "NAME", "TEAM", "MIN", "CAPS", "GRABS", "SCORE%", "HOLD", "HOLD/G", "DROPS",
		"POPS", "TAGS", "K/D", "RET", "PREV", "PREV/RET", "PUP%", "SUPPORT",
	)
	for _, s := range stats {
		table.Append(
			marker(s.Name, focus),
			s.Name,
			s.Team.String(),
			f1(s.Minutes()),
			strconv.Itoa(s.Captures),
			strconv.Itoa(s.Grabs),
			pct(s.ScorePct()),
			f1(s.Hold),
			f2(s.HoldPerGrab()),
			strconv.Itoa(s.Drops),
			strconv.Itoa(s.Pops),
			strconv.Itoa(s.Tags),
			f2(s.KDRatio()),
			strconv.Itoa(s.Returns),
			f1(s.Prevent),
			f2(s.PreventPerReturn()),
			pct(s.PupPct()),
			strconv.Itoa(s.Support()),
		)
	}
	table.Render()
}

// PrintEpisodeTable prints the classified-episode counters.
// Columns: LONG | FLAC | FLAC% | HAND | GOOD | CHAIN% | CAP_OH | QR | QR% | KEY | RIB | RIB%
func PrintEpisodeTable(w io.Writer, stats []model.PlayerMatchStats, focus string) {
	table := newTable(w)
	table.Header(
		" ", "NAME", "TEAM", "LONG", "FLAC", "FLAC%", "HAND", "GOOD", "CHAIN%",
		"CAP_OH", "QR", "QR%", "KEY", "RIB", "RIB%",
	)
	for _, s := range stats {
		table.Append(
			marker(s.Name, focus),
			s.Name,
			s.Team.String(),
			strconv.Itoa(s.LongHolds),
			strconv.Itoa(s.Flaccids),
			pct(s.FlaccidPct()),
			strconv.Itoa(s.Handoffs),
			strconv.Itoa(s.GoodHandoffs),
			pct(s.ChainPct()),
			strconv.Itoa(s.CapturesOffHandoffs),
			strconv.Itoa(s.QuickReturns),
			pct(s.QRPct()),
			strconv.Itoa(s.KeyReturns),
			strconv.Itoa(s.ReturnsInBase),
			pct(s.RIBPct()),
		)
	}
	table.Render()
}

// PrintAggregateTable prints per-player totals across every stored match.
func PrintAggregateTable(w io.Writer, aggs []model.PlayerAggregate) {
	table := newTable(w)
	table.Header(
		"PLAYER", "GAMES", "RED", "MIN", "CAPS", "GRABS", "SCORE%", "CAPS/MIN", "K/D",
		"LONG", "FLAC%", "CHAIN%", "CAP_OH", "KEY", "QR%", "RIB%",
	)
	for _, a := range aggs {
		table.Append(
			a.Name,
			strconv.Itoa(a.Matches),
			strconv.Itoa(a.RedGames),
			f1(a.Minutes()),
			strconv.Itoa(a.Captures),
			strconv.Itoa(a.Grabs),
			pct(a.ScorePct()),
			f2(a.PerMinute(float64(a.Captures))),
			f2(a.KDRatio()),
			strconv.Itoa(a.LongHolds),
			pct(a.FlaccidPct()),
			pct(a.ChainPct()),
			strconv.Itoa(a.CapturesOffHandoffs),
			strconv.Itoa(a.KeyReturns),
			pct(a.QRPct()),
			pct(a.RIBPct()),
		)
	}
	table.Render()
}

// sortKeys maps leaderboard column names to the value they sort by.
var sortKeys = map[string]func(a *model.PlayerAggregate) float64{
	"games":    func(a *model.PlayerAggregate) float64 { return float64(a.Matches) },
	"minutes":  func(a *model.PlayerAggregate) float64 { return a.Minutes() },
	"caps":     func(a *model.PlayerAggregate) float64 { return float64(a.Captures) },
	"score":    func(a *model.PlayerAggregate) float64 { return a.ScorePct() },
	"capsmin":  func(a *model.PlayerAggregate) float64 { return a.PerMinute(float64(a.Captures)) },
	"kd":       func(a *model.PlayerAggregate) float64 { return a.KDRatio() },
	"long":     func(a *model.PlayerAggregate) float64 { return float64(a.LongHolds) },
	"flaccid":  func(a *model.PlayerAggregate) float64 { return a.FlaccidPct() },
	"chain":    func(a *model.PlayerAggregate) float64 { return a.ChainPct() },
	"handoffs": func(a *model.PlayerAggregate) float64 { return float64(a.Handoffs) },
	"key":      func(a *model.PlayerAggregate) float64 { return float64(a.KeyReturns) },
	"qr":       func(a *model.PlayerAggregate) float64 { return a.QRPct() },
	"rib":      func(a *model.PlayerAggregate) float64 { return a.RIBPct() },
}

// SortKeys lists the accepted leaderboard sort columns.
func SortKeys() []string {
	keys := make([]string, 0, len(sortKeys))
	for k := range sortKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SortAggregates orders aggs descending by key, ties broken by name.
func SortAggregates(aggs []model.PlayerAggregate, key string) error {
	fn, ok := sortKeys[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("unknown sort column %q (want one of %s)", key, strings.Join(SortKeys(), ", "))
	}
	sort.SliceStable(aggs, func(i, j int) bool {
		vi, vj := fn(&aggs[i]), fn(&aggs[j])
		if vi != vj {
			return vi > vj
		}
		return strings.ToLower(aggs[i].Name) < strings.ToLower(aggs[j].Name)
	})
	return nil
}

// PrintFailures lists matches that produced no rows and why.
func PrintFailures(w io.Writer, failures []model.FailedMatch) {
	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
	table.Header("RUN", "MATCH", "REASON")
	for _, f := range failures {
		table.Append(shortID(f.RunID), f.MatchID, f.Reason)
	}
	table.Render()
}

// PrintRunSummary prints the outcome counts of one run.
func PrintRunSummary(w io.Writer, r model.RunSummary) {
	fmt.Fprintf(w, "\nRun %s  |  processed: %d  |  failed: %d  |  skipped: %d\n",
		shortID(r.ID), r.Matches, r.Failures, r.Skipped)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// episodeTags renders the categories of one episode, naming the credited
// player where it is not the holder.
func episodeTags(e model.EpisodeRecord) string {
	var tags []string
	if e.LongHold {
		tags = append(tags, "LONG")
	}
	if e.Flaccid {
		tags = append(tags, "FLACCID")
	}
	if e.QuickReturn {
		tags = append(tags, "QR")
	}
	if e.HandoffFrom != "" {
		h := "HANDOFF<" + e.HandoffFrom
		if e.GoodHandoff {
			h += " GOOD"
		}
		tags = append(tags, h)
	}
	if e.CaptureOffHandoff {
		tags = append(tags, "CAP_OH")
	}
	if e.KeyReturner != "" {
		tags = append(tags, "KEY:"+e.KeyReturner)
	}
	if e.ReturnInBase {
		tags = append(tags, "RIB")
	}
	if len(tags) == 0 {
		return "—"
	}
	return strings.Join(tags, " ")
}

// PrintEpisodeLog prints one row per possession, in match order.
// Rows involving focus (as holder or credited player) are marked with ">".
func PrintEpisodeLog(w io.Writer, episodes []model.EpisodeRecord, focus string) {
	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
	table.Header(" ", "TEAM", "#", "HOLDER", "START", "END", "HELD", "ENDED", "BY", "TAGS")
	for _, e := range episodes {
		mark := " "
		if focus != "" {
			for _, p := range []string{e.Holder, e.EndPlayer, e.HandoffFrom, e.KeyReturner} {
				if strings.EqualFold(p, focus) {
					mark = ">"
				}
			}
		}
		by := e.EndPlayer
		if by == "" {
			by = "—"
		}
		table.Append(
			mark,
			e.Team.String(),
			strconv.Itoa(e.Seq),
			e.Holder,
			clockFrac(e.Start),
			clockFrac(e.End),
			fmt.Sprintf("%.2fs", e.Duration()),
			e.EndKind.String(),
			by,
			episodeTags(e),
		)
	}
	table.Render()
}

func clockFrac(seconds float64) string {
	m := int(seconds) / 60
	return fmt.Sprintf("%d:%05.2f", m, seconds-float64(m*60))
}

// PrintTrendTable prints one row per match for a single player, oldest first.
func PrintTrendTable(w io.Writer, stats []model.PlayerMatchStats) {
	table := newTable(w)
	table.Header("MATCH", "MAP", "TEAM", "MIN", "CAPS", "GRABS", "HOLD", "K/D",
		"LONG", "FLAC%", "CHAIN%", "KEY", "QR%", "RIB%")
	for _, s := range stats {
		table.Append(
			s.MatchID,
			s.MapName,
			s.Team.String(),
			f1(s.Minutes()),
			strconv.Itoa(s.Captures),
			strconv.Itoa(s.Grabs),
			f1(s.Hold),
			f2(s.KDRatio()),
			strconv.Itoa(s.LongHolds),
			pct(s.FlaccidPct()),
			pct(s.ChainPct()),
			strconv.Itoa(s.KeyReturns),
			pct(s.QRPct()),
			pct(s.RIBPct()),
		)
	}
	table.Render()
}

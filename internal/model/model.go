package model

import "strings"

// Team represents which side a player is on.
type Team int

const (
	TeamUnknown Team = 0
	TeamRed     Team = 1
	TeamBlue    Team = 2
)

// Teams lists the two playing sides in a stable order.
var Teams = [2]Team{TeamRed, TeamBlue}

func (t Team) String() string {
	switch t {
	case TeamRed:
		return "Red"
	case TeamBlue:
		return "Blue"
	default:
		return "?"
	}
}

// Opponent returns the other playing side, or TeamUnknown.
func (t Team) Opponent() Team {
	switch t {
	case TeamRed:
		return TeamBlue
	case TeamBlue:
		return TeamRed
	default:
		return TeamUnknown
	}
}

// ParseTeam maps a stored side label back to a Team.
func ParseTeam(s string) Team {
	switch strings.ToLower(s) {
	case "red":
		return TeamRed
	case "blue":
		return TeamBlue
	default:
		return TeamUnknown
	}
}

// TeamNames carries the display names the recording uses for each side.
// Join labels end with one of these names.
type TeamNames struct {
	Red, Blue string
}

// Resolve returns the side whose name equals suffix.
func (n TeamNames) Resolve(suffix string) Team {
	switch suffix {
	case n.Red:
		return TeamRed
	case n.Blue:
		return TeamBlue
	default:
		return TeamUnknown
	}
}

// EventKind is a canonical flag-possession transition.
type EventKind int

const (
	KindUnknown EventKind = iota
	KindGrab
	KindDrop
	KindCapture
	KindReturn
	KindJoin
	KindGameEnds
)

// Recording labels.
const (
	LabelGrab     = "Grab Opponent flag"
	LabelDrop     = "Drop Opponent flag"
	LabelCapture  = "Capture Opponent flag"
	LabelReturn   = "Return"
	LabelGameEnds = "Game ends"

	LabelGrabTemporary    = "Grab Temporary flag"
	LabelDropTemporary    = "Drop Temporary flag"
	LabelCaptureTemporary = "Capture Temporary flag"

	LabelJoinPrefix = "Join team"
)

// Label returns the recording label for k. Events sharing a timestamp are
// ordered lexically by this label.
func (k EventKind) Label() string {
	switch k {
	case KindGrab:
		return LabelGrab
	case KindDrop:
		return LabelDrop
	case KindCapture:
		return LabelCapture
	case KindReturn:
		return LabelReturn
	case KindJoin:
		return LabelJoinPrefix
	case KindGameEnds:
		return LabelGameEnds
	default:
		return ""
	}
}

func (k EventKind) String() string {
	switch k {
	case KindGrab:
		return "Grab"
	case KindDrop:
		return "Drop"
	case KindCapture:
		return "Capture"
	case KindReturn:
		return "Return"
	case KindJoin:
		return "Join"
	case KindGameEnds:
		return "GameEnds"
	default:
		return "Unknown"
	}
}

// ParseEventKind is the inverse of EventKind.String.
func ParseEventKind(s string) EventKind {
	for k := KindGrab; k <= KindGameEnds; k++ {
		if k.String() == s {
			return k
		}
	}
	return KindUnknown
}

// ---- Raw records emitted by the parser ----

// RawEvent is one timeline entry as the decoder reports it.
type RawEvent struct {
	Clock  string // "mm:ss.fff"
	Label  string
	Player string
}

// RawSplat is a death location as the decoder reports it.
type RawSplat struct {
	Clock  string
	X, Y   float64
	Player string
	Team   string // team name
}

// BaselineStats are the per-player counters the recording already tracks.
// Time-valued fields are in seconds.
type BaselineStats struct {
	Time      float64
	CapDiff   int
	Captures  int
	Grabs     int
	Hold      float64
	Drops     int
	Pops      int
	Returns   int
	Tags      int
	Prevent   float64
	PupsTotal int
	Block     float64
	Button    float64
}

// Add sums o into s.
func (s *BaselineStats) Add(o BaselineStats) {
	s.Time += o.Time
	s.CapDiff += o.CapDiff
	s.Captures += o.Captures
	s.Grabs += o.Grabs
	s.Hold += o.Hold
	s.Drops += o.Drops
	s.Pops += o.Pops
	s.Returns += o.Returns
	s.Tags += o.Tags
	s.Prevent += o.Prevent
	s.PupsTotal += o.PupsTotal
	s.Block += o.Block
	s.Button += o.Button
}

type RawPlayer struct {
	Name  string
	Stats BaselineStats
}

type RawMatch struct {
	MatchID   string
	Hash      string
	MapID     string
	MapName   string
	MatchDate string
	Duration  float64 // seconds
	TeamNames TeamNames
	RedScore  int
	BlueScore int
	Players   []RawPlayer
	Events    []RawEvent
	Splats    []RawSplat
	Tiles     [][]int
}

// ---- Derived match structures ----

// Event is a normalized flag event. Synthetic GameEnds events carry no
// player and TeamUnknown.
type Event struct {
	Time   float64
	Kind   EventKind
	Player string
	Team   Team
}

// Episode is one flag possession: a Grab and the event that terminated it.
type Episode struct {
	Team  Team
	Start Event
	End   Event
}

// Duration returns End.Time - Start.Time in seconds.
func (e Episode) Duration() float64 {
	return e.End.Time - e.Start.Time
}

// Point is a 2D map position in world units.
type Point struct{ X, Y float64 }

// FlagStands holds the center of each team's flag stand tile.
type FlagStands struct {
	Red, Blue Point
}

// For returns the stand belonging to t.
func (f FlagStands) For(t Team) Point {
	if t == TeamBlue {
		return f.Blue
	}
	return f.Red
}

type Splat struct {
	Time   float64
	Pos    Point
	Player string
	Team   Team
}

// EpisodeStats holds the classified-episode counters for one player.
type EpisodeStats struct {
	LongHolds           int
	Flaccids            int
	Handoffs            int
	GoodHandoffs        int
	CapturesOffHandoffs int
	QuickReturns        int
	KeyReturns          int
	ReturnsInBase       int
}

// Add accumulates o into s.
func (s *EpisodeStats) Add(o EpisodeStats) {
	s.LongHolds += o.LongHolds
	s.Flaccids += o.Flaccids
	s.Handoffs += o.Handoffs
	s.GoodHandoffs += o.GoodHandoffs
	s.CapturesOffHandoffs += o.CapturesOffHandoffs
	s.QuickReturns += o.QuickReturns
	s.KeyReturns += o.KeyReturns
	s.ReturnsInBase += o.ReturnsInBase
}

// EpisodeRecord is one possession as stored for drill-down, with the
// categories it was classified into. Credit for a category goes to the
// player named alongside it (holder, HandoffFrom, EndPlayer or KeyReturner).
type EpisodeRecord struct {
	MatchID   string
	Team      Team
	Seq       int // 1-based within the team
	Holder    string
	Start     float64
	End       float64
	EndKind   EventKind
	EndPlayer string

	LongHold          bool
	Flaccid           bool
	QuickReturn       bool
	HandoffFrom       string // previous holder when this grab completed a handoff
	GoodHandoff       bool
	CaptureOffHandoff bool
	KeyReturner       string // teammate whose return enabled this capture
	ReturnInBase      bool
}

// Duration is the hold time in seconds.
func (r EpisodeRecord) Duration() float64 { return r.End - r.Start }

// ---- Aggregated metrics ----

type PlayerMatchStats struct {
	MatchID string
	MapName string // populated when queried across matches (JOIN with matches table)
	Name    string
	Team    Team

	BaselineStats
	EpisodeStats

	// Match-level context.
	PupsAvailable int
	HoldAgainst   float64
}

// Minutes is time played rounded to one decimal.
func (s *PlayerMatchStats) Minutes() float64 {
	return round(s.Time/60.0, 1)
}

// Support weighs button and block time: one point per 5s of button, two per 5s of block.
func (s *PlayerMatchStats) Support() int {
	return int(s.Button)/5 + (int(s.Block)/5)*2
}

func (s *PlayerMatchStats) NDPops() int { return s.Pops - s.Drops }
func (s *PlayerMatchStats) NRTags() int { return s.Tags - s.Returns }
func (s *PlayerMatchStats) KF() int     { return s.Grabs - (s.Drops + s.Captures) }

func (s *PlayerMatchStats) KDRatio() float64 {
	return ratio(float64(s.Tags), float64(s.Pops))
}

func (s *PlayerMatchStats) PupPct() float64 {
	return pct(float64(s.PupsTotal), float64(s.PupsAvailable))
}

func (s *PlayerMatchStats) ScorePct() float64 {
	return pct(float64(s.Captures), float64(s.Grabs))
}

func (s *PlayerMatchStats) HoldPerGrab() float64 {
	return ratio(s.Hold, float64(s.Grabs))
}

func (s *PlayerMatchStats) PreventPerReturn() float64 {
	return ratio(s.Prevent, float64(s.Returns))
}

func (s *PlayerMatchStats) PreventPerHoldAgainst() float64 {
	return ratio(s.Prevent, s.HoldAgainst)
}

func (s *PlayerMatchStats) FlaccidPct() float64 {
	return pct(float64(s.Flaccids), float64(s.Grabs))
}

func (s *PlayerMatchStats) ChainPct() float64 {
	return pct(float64(s.GoodHandoffs), float64(s.Handoffs))
}

func (s *PlayerMatchStats) QRPct() float64 {
	return pct(float64(s.QuickReturns), float64(s.Returns))
}

func (s *PlayerMatchStats) RIBPct() float64 {
	return pct(float64(s.ReturnsInBase), float64(s.Returns))
}

// PlayerAggregate holds stats for a single player summed across all stored matches.
// Players are keyed case-insensitively; Name is the most frequent spelling.
type PlayerAggregate struct {
	Name     string
	Matches  int
	RedGames int

	BaselineStats
	EpisodeStats

	PupsAvailable int
	HoldAgainst   float64
}

func (a *PlayerAggregate) Minutes() float64 { return round(a.Time/60.0, 1) }

func (a *PlayerAggregate) KDRatio() float64 {
	return ratio(float64(a.Tags), float64(a.Pops))
}

func (a *PlayerAggregate) ScorePct() float64 {
	return pct(float64(a.Captures), float64(a.Grabs))
}

func (a *PlayerAggregate) NDPops() int { return a.Pops - a.Drops }
func (a *PlayerAggregate) NRTags() int { return a.Tags - a.Returns }
func (a *PlayerAggregate) KF() int     { return a.Grabs - (a.Drops + a.Captures) }

func (a *PlayerAggregate) PupPct() float64 {
	return pct(float64(a.PupsTotal), float64(a.PupsAvailable))
}

func (a *PlayerAggregate) HoldPerGrab() float64 {
	return ratio(a.Hold, float64(a.Grabs))
}

func (a *PlayerAggregate) PreventPerReturn() float64 {
	return ratio(a.Prevent, float64(a.Returns))
}

func (a *PlayerAggregate) PreventPerHoldAgainst() float64 {
	return ratio(a.Prevent, a.HoldAgainst)
}

func (a *PlayerAggregate) FlaccidPct() float64 {
	return pct(float64(a.Flaccids), float64(a.Grabs))
}

func (a *PlayerAggregate) ChainPct() float64 {
	return pct(float64(a.GoodHandoffs), float64(a.Handoffs))
}

func (a *PlayerAggregate) QRPct() float64 {
	return pct(float64(a.QuickReturns), float64(a.Returns))
}

func (a *PlayerAggregate) RIBPct() float64 {
	return pct(float64(a.ReturnsInBase), float64(a.Returns))
}

// PerMinute divides v by minutes played, 0 when no time was recorded.
func (a *PlayerAggregate) PerMinute(v float64) float64 {
	return ratio(v, a.Minutes())
}

// MatchSummary is a lightweight record for list/show commands.
type MatchSummary struct {
	MatchID   string
	Hash      string
	MapName   string
	MatchDate string
	Duration  float64
	RedName   string
	BlueName  string
	RedScore  int
	BlueScore int
	RunID     string
}

// FailedMatch records a match that could not be processed in a run.
type FailedMatch struct {
	RunID   string
	MatchID string
	Reason  string
}

// RunSummary describes one batch invocation.
type RunSummary struct {
	ID        string
	StartedAt string
	Matches   int
	Failures  int
	Skipped   int
}

package parser

import (
	"compress/gzip"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/pable/go-ctf-metrics/internal/model"
)

var (
	ErrMatchNotFound = errors.New("match not found in bulk file")
	ErrMapNotFound   = errors.New("map not found in bulk file")
	// ErrIneligible marks matches that are skipped rather than failed.
	ErrIneligible = errors.New("match not eligible")
)

// ---- Bulk JSON records ----

type rawTeam struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type rawStats struct {
	Time      float64 `json:"time"`
	CapDiff   int     `json:"capDiff"`
	Captures  int     `json:"captures"`
	Grabs     int     `json:"grabs"`
	Hold      float64 `json:"hold"`
	Drops     int     `json:"drops"`
	Pops      int     `json:"pops"`
	Returns   int     `json:"returns"`
	Tags      int     `json:"tags"`
	Prevent   float64 `json:"prevent"`
	PupsTotal int     `json:"pupsTotal"`
	Block     float64 `json:"block"`
	Button    float64 `json:"button"`
}

type rawPlayer struct {
	Name  string   `json:"name"`
	Stats rawStats `json:"stats"`
}

type rawEvent struct {
	Time   string `json:"time"`
	Label  string `json:"label"`
	Player string `json:"player"`
}

type rawSplat struct {
	Time   string  `json:"time"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Player string  `json:"player"`
	Team   string  `json:"team"`
}

// BulkMatch is one decoded recording inside a bulk matches file.
type BulkMatch struct {
	MapID     json.Number `json:"mapId"`
	Date      int64       `json:"date"`
	TimeLimit int         `json:"timeLimit"`
	Group     string      `json:"group"`
	Duration  float64     `json:"duration"`
	Teams     []rawTeam   `json:"teams"`
	Players   []rawPlayer `json:"players"`
	Events    []rawEvent  `json:"events"`
	Splats    []rawSplat  `json:"splats"`

	raw json.RawMessage
}

// UnmarshalJSON keeps the original bytes for hashing.
func (m *BulkMatch) UnmarshalJSON(b []byte) error {
	type plain BulkMatch
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*m = BulkMatch(p)
	m.raw = append(json.RawMessage(nil), b...)
	return nil
}

// BulkMap is one map inside a bulk maps file.
type BulkMap struct {
	Name  string  `json:"name"`
	Tiles [][]int `json:"tiles"`
}

// Eligibility filters which matches are processed at all.
type Eligibility struct {
	TimeLimit   int // minutes; 0 disables the check
	AllowGroups bool
}

// openDecompressed opens path, transparently handling .gz and .zst files.
func openDecompressed(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return readCloser{Reader: dec, close: func() error { dec.Close(); return f.Close() }}, nil
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return readCloser{Reader: gz, close: func() error { gz.Close(); return f.Close() }}, nil
	default:
		return f, nil
	}
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r readCloser) Close() error { return r.close() }

func loadJSON(path string, out interface{}) error {
	rc, err := openDecompressed(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer rc.Close()
	if err := json.NewDecoder(rc).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// LoadBulkMatches reads a bulk matches file keyed by match id.
func LoadBulkMatches(path string) (map[string]BulkMatch, error) {
	var out map[string]BulkMatch
	if err := loadJSON(path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadBulkMaps reads a bulk maps file keyed by map id.
func LoadBulkMaps(path string) (map[string]BulkMap, error) {
	var out map[string]BulkMap
	if err := loadJSON(path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MatchIDs returns the ids of a bulk file sorted numerically where possible.
func MatchIDs(matches map[string]BulkMatch) []string {
	ids := make([]string, 0, len(matches))
	for id := range matches {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return LessID(ids[i], ids[j]) })
	return ids
}

// LessID orders match ids numerically when both parse as integers.
func LessID(a, b string) bool {
	x, errA := strconv.ParseInt(a, 10, 64)
	y, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		return x < y
	}
	return a < b
}

// Bulk serves matches out of a loaded pair of bulk files.
type Bulk struct {
	Matches map[string]BulkMatch
	Maps    map[string]BulkMap
	Filter  Eligibility
}

// OpenBulk loads both bulk files.
func OpenBulk(matchesPath, mapsPath string, filter Eligibility) (*Bulk, error) {
	matches, err := LoadBulkMatches(matchesPath)
	if err != nil {
		return nil, err
	}
	maps, err := LoadBulkMaps(mapsPath)
	if err != nil {
		return nil, err
	}
	return &Bulk{Matches: matches, Maps: maps, Filter: filter}, nil
}

// Load decodes the match with the given id.
func (b *Bulk) Load(id string) (*model.RawMatch, error) {
	return Decode(id, b.Matches, b.Maps, b.Filter)
}

// Decode turns the bulk record for id into a RawMatch with its map attached.
func Decode(id string, matches map[string]BulkMatch, maps map[string]BulkMap, filter Eligibility) (*model.RawMatch, error) {
	m, ok := matches[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, id)
	}
	if filter.TimeLimit > 0 && m.TimeLimit != filter.TimeLimit {
		return nil, fmt.Errorf("%w: match %s has time limit %d, want %d", ErrIneligible, id, m.TimeLimit, filter.TimeLimit)
	}
	if !filter.AllowGroups && m.Group != "" {
		return nil, fmt.Errorf("%w: match %s was played in group %q", ErrIneligible, id, m.Group)
	}
	if len(m.Teams) != 2 {
		return nil, fmt.Errorf("match %s: expected 2 teams, got %d", id, len(m.Teams))
	}

	mapID := m.MapID.String()
	mp, ok := maps[mapID]
	if !ok {
		return nil, fmt.Errorf("%w: map %s for match %s", ErrMapNotFound, mapID, id)
	}

	raw := &model.RawMatch{
		MatchID:   id,
		Hash:      HashMatch(m.raw),
		MapID:     mapID,
		MapName:   mp.Name,
		MatchDate: time.Unix(m.Date, 0).UTC().Format("2006-01-02"),
		Duration:  m.Duration,
		TeamNames: model.TeamNames{Red: teamName(m.Teams[0].Name, "Red"), Blue: teamName(m.Teams[1].Name, "Blue")},
		RedScore:  m.Teams[0].Score,
		BlueScore: m.Teams[1].Score,
		Tiles:     mp.Tiles,
	}
	for _, p := range m.Players {
		raw.Players = append(raw.Players, model.RawPlayer{
			Name: p.Name,
			Stats: model.BaselineStats{
				Time:      p.Stats.Time,
				CapDiff:   p.Stats.CapDiff,
				Captures:  p.Stats.Captures,
				Grabs:     p.Stats.Grabs,
				Hold:      p.Stats.Hold,
				Drops:     p.Stats.Drops,
				Pops:      p.Stats.Pops,
				Returns:   p.Stats.Returns,
				Tags:      p.Stats.Tags,
				Prevent:   p.Stats.Prevent,
				PupsTotal: p.Stats.PupsTotal,
				Block:     p.Stats.Block,
				Button:    p.Stats.Button,
			},
		})
	}
	for _, e := range m.Events {
		raw.Events = append(raw.Events, model.RawEvent{Clock: e.Time, Label: e.Label, Player: e.Player})
	}
	for _, s := range m.Splats {
		raw.Splats = append(raw.Splats, model.RawSplat{Clock: s.Time, X: s.X, Y: s.Y, Player: s.Player, Team: s.Team})
	}
	return raw, nil
}

func teamName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

// HashMatch is the idempotency key for a stored match: sha256 over its JSON.
func HashMatch(b []byte) string {
	h := sha256.Sum256(b)
	return fmt.Sprintf("%x", h[:])
}

// Package export writes cumulative per-player statistics for use outside
// the tool: CSV for spreadsheets, JSON for scripts.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/pable/go-ctf-metrics/internal/model"
)

// Header is the CSV column order.
var Header = []string{
	"Player", "Games", "Red Games", "Minutes", "CD",
	"Captures", "Grabs", "Hold", "Drops", "Pops", "Returns", "Tags", "Prevent",
	"Pups", "Pups Available", "Block", "Button", "Hold Against",
	"Long Holds", "Flaccids", "Handoffs", "Good Handoffs", "Captures off Handoffs",
	"Quick Returns", "Key Returns", "Returns in Base",
	"K/D", "Pup%", "Score%", "NDPops", "NRTags", "KF",
	"Hold/Grab", "Prevent/Return", "Prevent/Hold Against",
	"Flaccid%", "Chain%", "QR%", "RIB%",
	"CD/Min", "Captures/Min", "Grabs/Min", "Hold/Min", "Drops/Min",
	"Pops/Min", "Returns/Min", "Tags/Min", "Prevent/Min", "Pups/Min",
}

func itoa(v int) string { return strconv.Itoa(v) }

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// perMinuteSources lists the values behind the "/Min" columns, in Header order.
func perMinuteSources(a *model.PlayerAggregate) []float64 {
	return []float64{
		float64(a.CapDiff), float64(a.Captures), float64(a.Grabs), a.Hold, float64(a.Drops),
		float64(a.Pops), float64(a.Returns), float64(a.Tags), a.Prevent, float64(a.PupsTotal),
	}
}

// perMinuteKeys names the per_minute entries of the JSON export.
var perMinuteKeys = []string{
	"cap_diff", "captures", "grabs", "hold", "drops",
	"pops", "returns", "tags", "prevent", "pups",
}

// WriteCSV writes one row per aggregate after the Header row.
func WriteCSV(w io.Writer, aggs []model.PlayerAggregate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, a := range aggs {
		row := []string{
			a.Name, itoa(a.Matches), itoa(a.RedGames), ftoa(a.Minutes()), itoa(a.CapDiff),
			itoa(a.Captures), itoa(a.Grabs), ftoa(a.Hold), itoa(a.Drops), itoa(a.Pops),
			itoa(a.Returns), itoa(a.Tags), ftoa(a.Prevent),
			itoa(a.PupsTotal), itoa(a.PupsAvailable), ftoa(a.Block), ftoa(a.Button), ftoa(a.HoldAgainst),
			itoa(a.LongHolds), itoa(a.Flaccids), itoa(a.Handoffs), itoa(a.GoodHandoffs), itoa(a.CapturesOffHandoffs),
			itoa(a.QuickReturns), itoa(a.KeyReturns), itoa(a.ReturnsInBase),
			ftoa(a.KDRatio()), ftoa(a.PupPct()), ftoa(a.ScorePct()), itoa(a.NDPops()), itoa(a.NRTags()), itoa(a.KF()),
			ftoa(a.HoldPerGrab()), ftoa(a.PreventPerReturn()), ftoa(a.PreventPerHoldAgainst()),
			ftoa(a.FlaccidPct()), ftoa(a.ChainPct()), ftoa(a.QRPct()), ftoa(a.RIBPct()),
		}
		for _, v := range perMinuteSources(&a) {
			row = append(row, ftoa(a.PerMinute(v)))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// playerJSON is the schema of one entry in the JSON export.
type playerJSON struct {
	Name          string              `json:"name"`
	Games         int                 `json:"games"`
	RedGames      int                 `json:"red_games"`
	Minutes       float64             `json:"minutes"`
	Baseline      model.BaselineStats `json:"baseline"`
	Episodes      model.EpisodeStats  `json:"episodes"`
	PupsAvailable int                 `json:"pups_available"`
	HoldAgainst   float64             `json:"hold_against"`
	KD            float64             `json:"kd"`
	PupPct        float64             `json:"pup_pct"`
	ScorePct      float64             `json:"score_pct"`
	NDPops        int                 `json:"nd_pops"`
	NRTags        int                 `json:"nr_tags"`
	KF            int                 `json:"kf"`
	HoldPerGrab   float64             `json:"hold_per_grab"`
	PreventPerRet float64             `json:"prevent_per_return"`
	PreventPerHA  float64             `json:"prevent_per_hold_against"`
	FlaccidPct    float64             `json:"flaccid_pct"`
	ChainPct      float64             `json:"chain_pct"`
	QRPct         float64             `json:"qr_pct"`
	RIBPct        float64             `json:"rib_pct"`
	PerMinute     map[string]float64  `json:"per_minute"`
}

type fileJSON struct {
	GeneratedAt string       `json:"generated_at"`
	MatchCount  int          `json:"match_count"`
	Players     []playerJSON `json:"players"`
}

// WriteJSON writes aggs as an indented JSON document stamped with now.
func WriteJSON(w io.Writer, aggs []model.PlayerAggregate, matchCount int, now time.Time) error {
	doc := fileJSON{
		GeneratedAt: now.UTC().Format(time.RFC3339),
		MatchCount:  matchCount,
		Players:     make([]playerJSON, 0, len(aggs)),
	}
	for _, a := range aggs {
		perMin := make(map[string]float64, len(perMinuteKeys))
		for i, v := range perMinuteSources(&a) {
			perMin[perMinuteKeys[i]] = a.PerMinute(v)
		}
		doc.Players = append(doc.Players, playerJSON{
			Name:          a.Name,
			Games:         a.Matches,
			RedGames:      a.RedGames,
			Minutes:       a.Minutes(),
			Baseline:      a.BaselineStats,
			Episodes:      a.EpisodeStats,
			PupsAvailable: a.PupsAvailable,
			HoldAgainst:   a.HoldAgainst,
			KD:            a.KDRatio(),
			PupPct:        a.PupPct(),
			ScorePct:      a.ScorePct(),
			NDPops:        a.NDPops(),
			NRTags:        a.NRTags(),
			KF:            a.KF(),
			HoldPerGrab:   a.HoldPerGrab(),
			PreventPerRet: a.PreventPerReturn(),
			PreventPerHA:  a.PreventPerHoldAgainst(),
			FlaccidPct:    a.FlaccidPct(),
			ChainPct:      a.ChainPct(),
			QRPct:         a.QRPct(),
			RIBPct:        a.RIBPct(),
			PerMinute:     perMin,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

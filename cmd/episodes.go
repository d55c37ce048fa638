package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-ctf-metrics/internal/model"
	"github.com/pable/go-ctf-metrics/internal/report"
)

var (
	episodesPlayer string
	episodesTeam   string
	episodesTag    string
)

// episodesCmd is the per-possession drill-down for one match.
var episodesCmd = &cobra.Command{
	Use:   "episodes <match-id>",
	Short: "Per-possession drill-down for one match",
	Long: `List every flag possession of a stored match with how it ended and the
categories it was classified into.

Tags: long, flaccid, qr, handoff, good, caphandoff, key, rib.`,
	Args: cobra.ExactArgs(1),
	RunE: runEpisodes,
}

func init() {
	episodesCmd.Flags().StringVar(&episodesPlayer, "player", "", "only episodes involving this player")
	episodesCmd.Flags().StringVar(&episodesTeam, "team", "", "filter by grabbing team: red or blue")
	episodesCmd.Flags().StringVar(&episodesTag, "tag", "", "only episodes carrying this tag")
}

// involves reports whether name held the flag or was credited in e.
func involves(e model.EpisodeRecord, name string) bool {
	for _, p := range []string{e.Holder, e.EndPlayer, e.HandoffFrom, e.KeyReturner} {
		if strings.EqualFold(p, name) {
			return true
		}
	}
	return false
}

func hasTag(e model.EpisodeRecord, tag string) (bool, error) {
	switch tag {
	case "long":
		return e.LongHold, nil
	case "flaccid":
		return e.Flaccid, nil
	case "qr":
		return e.QuickReturn, nil
	case "handoff":
		return e.HandoffFrom != "", nil
	case "good":
		return e.GoodHandoff, nil
	case "caphandoff":
		return e.CaptureOffHandoff, nil
	case "key":
		return e.KeyReturner != "", nil
	case "rib":
		return e.ReturnInBase, nil
	}
	return false, fmt.Errorf("unknown tag %q", tag)
}

// filterEpisodes applies --player, --team and --tag.
func filterEpisodes(eps []model.EpisodeRecord, player, team, tag string) ([]model.EpisodeRecord, error) {
	team = strings.ToLower(team)
	if team != "" && team != "red" && team != "blue" {
		return nil, fmt.Errorf("invalid team %q: want red or blue", team)
	}
	tag = strings.ToLower(tag)

	var out []model.EpisodeRecord
	for _, e := range eps {
		if player != "" && !involves(e, player) {
			continue
		}
		if team != "" && strings.ToLower(e.Team.String()) != team {
			continue
		}
		if tag != "" {
			ok, err := hasTag(e, tag)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out = append(out, e)
	}
	return out, nil
}

func runEpisodes(cmd *cobra.Command, args []string) error {
	db, err := openDB(false)
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := db.GetMatch(args[0])
	if err != nil {
		return fmt.Errorf("query match: %w", err)
	}
	if m == nil {
		fmt.Fprintf(os.Stderr, "No match stored with id %q\n", args[0])
		return nil
	}

	eps, err := db.GetEpisodes(m.MatchID)
	if err != nil {
		return fmt.Errorf("get episodes: %w", err)
	}
	eps, err = filterEpisodes(eps, episodesPlayer, episodesTeam, episodesTag)
	if err != nil {
		return err
	}
	if len(eps) == 0 {
		fmt.Fprintln(os.Stderr, "No episodes match the given filters.")
		return nil
	}

	report.PrintMatchSummary(os.Stdout, *m)
	report.PrintEpisodeLog(os.Stdout, eps, episodesPlayer)
	return nil
}

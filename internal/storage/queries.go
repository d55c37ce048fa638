package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/pable/go-ctf-metrics/internal/model"
)

// statColumns lists player_match_stats columns after (match_id, name, team),
// in the order scanStats and statValues use.
const statColumns = `time, cap_diff, captures, grabs, hold, drops, pops, returns, tags,
	prevent, pups_total, block, button,
	pups_available, hold_against,
	long_holds, flaccids, handoffs, good_handoffs, captures_off_handoffs,
	quick_returns, key_returns, returns_in_base`

func statValues(s model.PlayerMatchStats) []any {
	return []any{
		s.Time, s.CapDiff, s.Captures, s.Grabs, s.Hold, s.Drops, s.Pops, s.Returns, s.Tags,
		s.Prevent, s.PupsTotal, s.Block, s.Button,
		s.PupsAvailable, s.HoldAgainst,
		s.LongHolds, s.Flaccids, s.Handoffs, s.GoodHandoffs, s.CapturesOffHandoffs,
		s.QuickReturns, s.KeyReturns, s.ReturnsInBase,
	}
}

func statPointers(s *model.PlayerMatchStats) []any {
	return []any{
		&s.Time, &s.CapDiff, &s.Captures, &s.Grabs, &s.Hold, &s.Drops, &s.Pops, &s.Returns, &s.Tags,
		&s.Prevent, &s.PupsTotal, &s.Block, &s.Button,
		&s.PupsAvailable, &s.HoldAgainst,
		&s.LongHolds, &s.Flaccids, &s.Handoffs, &s.GoodHandoffs, &s.CapturesOffHandoffs,
		&s.QuickReturns, &s.KeyReturns, &s.ReturnsInBase,
	}
}

// ---- Runs ----

// InsertRun records (or updates) a batch run. Uses INSERT OR REPLACE so the
// counters can be written again once the run finishes.
func (db *DB) InsertRun(r model.RunSummary) error {
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO runs(id, started_at, matches, failures, skipped)
		VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt, r.Matches, r.Failures, r.Skipped,
	)
	return err
}

// ListRuns returns every run, newest first.
func (db *DB) ListRuns() ([]model.RunSummary, error) {
	rows, err := db.conn.Query(`
		SELECT id, started_at, matches, failures, skipped
		FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RunSummary
	for rows.Next() {
		var r model.RunSummary
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Matches, &r.Failures, &r.Skipped); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ---- Matches ----

// MatchExists returns true if the match is stored with the same content hash.
func (db *DB) MatchExists(matchID, hash string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM matches WHERE match_id = ? AND hash = ?", matchID, hash).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertMatch stores a match header, its player rows and its episodes in one
// transaction, replacing any earlier copy of the match.
func (db *DB) InsertMatch(summary model.MatchSummary, stats []model.PlayerMatchStats, episodes []model.EpisodeRecord) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"player_match_stats", "episodes"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE match_id = ?", summary.MatchID); err != nil {
			return fmt.Errorf("clear %s for %s: %w", table, summary.MatchID, err)
		}
	}
	_, err = tx.Exec(`
		INSERT OR REPLACE INTO matches(match_id, hash, map_name, match_date, duration,
			red_name, blue_name, red_score, blue_score, run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.MatchID, summary.Hash, summary.MapName, summary.MatchDate, summary.Duration,
		summary.RedName, summary.BlueName, summary.RedScore, summary.BlueScore, summary.RunID,
	)
	if err != nil {
		return fmt.Errorf("insert match %s: %w", summary.MatchID, err)
	}
	if err := insertPlayerMatchStats(tx, summary.MatchID, stats); err != nil {
		return err
	}
	if err := insertEpisodes(tx, summary.MatchID, episodes); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteMatch removes a match header, its player rows and its episodes in one
// transaction. Deleting a match that is not stored is not an error.
func (db *DB) DeleteMatch(matchID string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"player_match_stats", "episodes", "matches"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE match_id = ?", matchID); err != nil {
			return fmt.Errorf("delete %s for %s: %w", table, matchID, err)
		}
	}
	return tx.Commit()
}

// insertPlayerMatchStats bulk-inserts player rows inside tx.
func insertPlayerMatchStats(tx *sql.Tx, matchID string, stats []model.PlayerMatchStats) error {
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO player_match_stats(match_id, name, team, ` + statColumns + `)
		VALUES (` + placeholders(3+len(statValues(model.PlayerMatchStats{}))) + `)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range stats {
		args := append([]any{matchID, s.Name, s.Team.String()}, statValues(s)...)
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("insert player_match_stats for %s/%s: %w", matchID, s.Name, err)
		}
	}
	return nil
}

// insertEpisodes bulk-inserts classified episodes inside tx.
func insertEpisodes(tx *sql.Tx, matchID string, episodes []model.EpisodeRecord) error {
	if len(episodes) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO episodes(
			match_id, team, seq, holder, start_time, end_time, end_kind, end_player,
			long_hold, flaccid, quick_return, handoff_from, good_handoff,
			capture_off_handoff, key_returner, return_in_base
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range episodes {
		_, err = stmt.Exec(
			matchID, e.Team.String(), e.Seq, e.Holder, e.Start, e.End, e.EndKind.String(), e.EndPlayer,
			boolInt(e.LongHold), boolInt(e.Flaccid), boolInt(e.QuickReturn), e.HandoffFrom, boolInt(e.GoodHandoff),
			boolInt(e.CaptureOffHandoff), e.KeyReturner, boolInt(e.ReturnInBase),
		)
		if err != nil {
			return fmt.Errorf("insert episodes for %s/%s#%d: %w", matchID, e.Team, e.Seq, err)
		}
	}
	return nil
}

// GetEpisodes returns a match's episodes in chronological order.
func (db *DB) GetEpisodes(matchID string) ([]model.EpisodeRecord, error) {
	rows, err := db.conn.Query(`
		SELECT team, seq, holder, start_time, end_time, end_kind, end_player,
		       long_hold, flaccid, quick_return, handoff_from, good_handoff,
		       capture_off_handoff, key_returner, return_in_base
		FROM episodes WHERE match_id = ?
		ORDER BY start_time, team DESC, seq`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.EpisodeRecord
	for rows.Next() {
		var e model.EpisodeRecord
		var teamStr, kindStr string
		var long, flaccid, qr, good, capOH, rib int
		if err := rows.Scan(
			&teamStr, &e.Seq, &e.Holder, &e.Start, &e.End, &kindStr, &e.EndPlayer,
			&long, &flaccid, &qr, &e.HandoffFrom, &good,
			&capOH, &e.KeyReturner, &rib,
		); err != nil {
			return nil, err
		}
		e.MatchID = matchID
		e.Team = model.ParseTeam(teamStr)
		e.EndKind = model.ParseEventKind(kindStr)
		e.LongHold, e.Flaccid, e.QuickReturn = long != 0, flaccid != 0, qr != 0
		e.GoodHandoff, e.CaptureOffHandoff, e.ReturnInBase = good != 0, capOH != 0, rib != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

const matchColumns = `match_id, hash, map_name, match_date, duration,
	red_name, blue_name, red_score, blue_score, run_id`

func scanMatch(sc interface{ Scan(...any) error }, s *model.MatchSummary) error {
	return sc.Scan(&s.MatchID, &s.Hash, &s.MapName, &s.MatchDate, &s.Duration,
		&s.RedName, &s.BlueName, &s.RedScore, &s.BlueScore, &s.RunID)
}

// ListMatches returns all stored match summaries, newest first.
func (db *DB) ListMatches() ([]model.MatchSummary, error) {
	rows, err := db.conn.Query(`SELECT ` + matchColumns + `
		FROM matches ORDER BY match_date DESC, CAST(match_id AS INTEGER) DESC, match_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MatchSummary
	for rows.Next() {
		var s model.MatchSummary
		if err := scanMatch(rows, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetMatch returns the match with the given id, or nil if it is not stored.
func (db *DB) GetMatch(matchID string) (*model.MatchSummary, error) {
	var s model.MatchSummary
	err := scanMatch(db.conn.QueryRow(`SELECT `+matchColumns+` FROM matches WHERE match_id = ?`, matchID), &s)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ---- Player stats ----

// GetPlayerMatchStats returns all player rows for a match, Red first.
func (db *DB) GetPlayerMatchStats(matchID string) ([]model.PlayerMatchStats, error) {
	return db.queryStats(`
		SELECT p.match_id, m.map_name, p.name, p.team, `+prefixed("p.", statColumns)+`
		FROM player_match_stats p
		JOIN matches m ON m.match_id = p.match_id
		WHERE p.match_id = ?
		ORDER BY p.team DESC, p.name COLLATE NOCASE`, matchID)
}

// GetAllPlayerMatchStats returns every stored row for the named players
// (case-insensitive), or for all players when names is empty.
func (db *DB) GetAllPlayerMatchStats(names []string) ([]model.PlayerMatchStats, error) {
	rows, err := db.queryStats(`
		SELECT p.match_id, m.map_name, p.name, p.team, ` + prefixed("p.", statColumns) + `
		FROM player_match_stats p
		JOIN matches m ON m.match_id = p.match_id
		ORDER BY m.match_date, CAST(p.match_id AS INTEGER), p.match_id`)
	if err != nil || len(names) == 0 {
		return rows, err
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.ToLower(n)] = true
	}
	out := rows[:0]
	for _, r := range rows {
		if want[strings.ToLower(r.Name)] {
			out = append(out, r)
		}
	}
	return out, nil
}

// PlayerAggregates sums stats across matches per player. Names are folded
// case-insensitively and the most frequent spelling is reported.
func (db *DB) PlayerAggregates(names []string) ([]model.PlayerAggregate, error) {
	rows, err := db.GetAllPlayerMatchStats(names)
	if err != nil {
		return nil, err
	}
	return model.AggregatePlayers(rows), nil
}

func (db *DB) queryStats(query string, args ...any) ([]model.PlayerMatchStats, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PlayerMatchStats
	for rows.Next() {
		var s model.PlayerMatchStats
		var teamStr string
		dest := append([]any{&s.MatchID, &s.MapName, &s.Name, &teamStr}, statPointers(&s)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		s.Team = model.ParseTeam(teamStr)
		out = append(out, s)
	}
	return out, rows.Err()
}

// ---- Failures ----

// InsertFailures records the matches a run could not process.
func (db *DB) InsertFailures(failures []model.FailedMatch) error {
	if len(failures) == 0 {
		return nil
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO failed_matches(run_id, match_id, reason) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range failures {
		if _, err := stmt.Exec(f.RunID, f.MatchID, f.Reason); err != nil {
			return fmt.Errorf("insert failed_matches for %s: %w", f.MatchID, err)
		}
	}
	return tx.Commit()
}

// InsertFailure records a single failed match.
func (db *DB) InsertFailure(f model.FailedMatch) error {
	return db.InsertFailures([]model.FailedMatch{f})
}

// ListFailures returns the failures of runID, or of every run when runID is empty.
func (db *DB) ListFailures(runID string) ([]model.FailedMatch, error) {
	query := `SELECT run_id, match_id, reason FROM failed_matches`
	var args []any
	if runID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY run_id, CAST(match_id AS INTEGER), match_id`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.FailedMatch
	for rows.Next() {
		var f model.FailedMatch
		if err := rows.Scan(&f.RunID, &f.MatchID, &f.Reason); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ---- Ad-hoc queries ----

// QueryRaw runs an arbitrary query and returns its column names and rows
// rendered as strings. NULL becomes "NULL".
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			switch x := v.(type) {
			case nil:
				row[i] = "NULL"
			case []byte:
				row[i] = string(x)
			default:
				row[i] = fmt.Sprint(x)
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// prefixed qualifies a comma-separated column list with a table alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

package storage

// Overview holds database-wide counts for the summary command.
type Overview struct {
	TotalMatches  int
	EarliestMatch string // "YYYY-MM-DD"
	LatestMatch   string
	UniqueMaps    int
	UniquePlayers int
	TotalEpisodes int
	Runs          int
	Failures      int
}

// MapStat holds per-map results across stored matches.
type MapStat struct {
	MapName  string
	Matches  int
	RedWins  int
	BlueWins int
	Ties     int
	Captures int
}

// GetDBOverview returns high-level counts over every table.
func (db *DB) GetDBOverview() (Overview, error) {
	var ov Overview
	err := db.conn.QueryRow(`
		SELECT COUNT(1), COALESCE(MIN(match_date), ''), COALESCE(MAX(match_date), ''),
		       COUNT(DISTINCT map_name)
		FROM matches`).
		Scan(&ov.TotalMatches, &ov.EarliestMatch, &ov.LatestMatch, &ov.UniqueMaps)
	if err != nil {
		return ov, err
	}
	err = db.conn.QueryRow(`
		SELECT (SELECT COUNT(DISTINCT lower(name)) FROM player_match_stats),
		       (SELECT COUNT(1) FROM episodes),
		       (SELECT COUNT(1) FROM runs),
		       (SELECT COUNT(1) FROM failed_matches)`).
		Scan(&ov.UniquePlayers, &ov.TotalEpisodes, &ov.Runs, &ov.Failures)
	return ov, err
}

// GetMapStats returns per-map outcomes ordered by match count descending.
func (db *DB) GetMapStats() ([]MapStat, error) {
	rows, err := db.conn.Query(`
		SELECT map_name, COUNT(1),
		       SUM(CASE WHEN red_score > blue_score THEN 1 ELSE 0 END),
		       SUM(CASE WHEN blue_score > red_score THEN 1 ELSE 0 END),
		       SUM(CASE WHEN red_score = blue_score THEN 1 ELSE 0 END),
		       SUM(red_score + blue_score)
		FROM matches
		GROUP BY map_name
		ORDER BY COUNT(1) DESC, map_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MapStat
	for rows.Next() {
		var m MapStat
		if err := rows.Scan(&m.MapName, &m.Matches, &m.RedWins, &m.BlueWins, &m.Ties, &m.Captures); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

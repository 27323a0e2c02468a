package data

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/sportlines/totalcast/pkg/engine"
)

const (
	// GameDateFormat is the canonical date layout for game_log rows.
	GameDateFormat = "2006-01-02"

	regulationMinutes = 240

	insertGameLogSQL = `INSERT INTO game_log (
		team, season, game_date, opponent, home, minutes,
		fg2a, fg2m, fg3a, fg3m, fta, ftm, oreb, dreb, tov,
		pace, ortg, drtg, points, opp_points
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (team, season, game_date, opponent) DO NOTHING`

	selectGameLogSQL = `SELECT
		team, season, game_date, opponent, home, minutes,
		fg2a, fg2m, fg3a, fg3m, fta, ftm, oreb, dreb, tov,
		pace, ortg, drtg, points, opp_points,
		opp_def_rank, opp_fg3_def_rank, opp_pace
	FROM game_log`

	tierBucketSQL = `SELECT
		COUNT(*),
		AVG(2.0 * fg2m),
		AVG(3.0 * fg3m),
		AVG(1.0 * ftm),
		AVG(1.0 * points)
	FROM game_log
	WHERE team = ?
	AND season = ?
	AND game_date < ?
	AND opp_def_rank BETWEEN ? AND ?`

	backfillGameLogSQL = `UPDATE game_log SET
		opp_def_rank = (
			SELECT def_rank FROM team_season
			WHERE team = game_log.opponent
			AND season = game_log.season
			AND split = 'all'
		),
		opp_fg3_def_rank = (
			SELECT fg3_def_rank FROM team_season
			WHERE team = game_log.opponent
			AND season = game_log.season
			AND split = 'all'
		),
		opp_pace = (
			SELECT pace FROM team_season
			WHERE team = game_log.opponent
			AND season = game_log.season
			AND split = 'all'
		)
	WHERE season = ?
	AND opp_def_rank IS NULL`
)

// GameLog is one team's box score line for one game. Opponent context
// columns are zero until a backfill pass runs for the season.
type GameLog struct {
	Team          string  `json:"team" yaml:"team"`
	Season        int     `json:"season" yaml:"season"`
	GameDate      string  `json:"game_date" yaml:"game_date"`
	Opponent      string  `json:"opponent" yaml:"opponent"`
	Home          bool    `json:"home" yaml:"home"`
	Minutes       int     `json:"minutes" yaml:"minutes"`
	FG2A          int     `json:"fg2a" yaml:"fg2a"`
	FG2M          int     `json:"fg2m" yaml:"fg2m"`
	FG3A          int     `json:"fg3a" yaml:"fg3a"`
	FG3M          int     `json:"fg3m" yaml:"fg3m"`
	FTA           int     `json:"fta" yaml:"fta"`
	FTM           int     `json:"ftm" yaml:"ftm"`
	OREB          int     `json:"oreb" yaml:"oreb"`
	DREB          int     `json:"dreb" yaml:"dreb"`
	TOV           int     `json:"tov" yaml:"tov"`
	Pace          float64 `json:"pace" yaml:"pace"`
	ORTG          float64 `json:"ortg" yaml:"ortg"`
	DRTG          float64 `json:"drtg" yaml:"drtg"`
	Points        int     `json:"points" yaml:"points"`
	OppPoints     int     `json:"opp_points" yaml:"opp_points"`
	OppDefRank    int     `json:"opp_def_rank,omitempty" yaml:"opp_def_rank,omitempty"`
	OppFG3DefRank int     `json:"opp_fg3_def_rank,omitempty" yaml:"opp_fg3_def_rank,omitempty"`
	OppPace       float64 `json:"opp_pace,omitempty" yaml:"opp_pace,omitempty"`
}

// FieldGoalAttempts returns combined two and three point attempts.
func (g *GameLog) FieldGoalAttempts() int {
	return g.FG2A + g.FG3A
}

// Possessions estimates the game's possessions for this team using the
// given free throw possession weight.
func (g *GameLog) Possessions(ftWeight float64) float64 {
	return engine.EstimatePossessions(
		float64(g.FieldGoalAttempts()),
		float64(g.FTA),
		float64(g.OREB),
		float64(g.TOV),
		ftWeight,
	)
}

// ActualPossessions derives possessions from the reported pace, which is
// normalized per 48 minutes.
func (g *GameLog) ActualPossessions() float64 {
	minutes := g.Minutes
	if minutes <= 0 {
		minutes = regulationMinutes
	}
	return g.Pace * float64(minutes) / float64(regulationMinutes)
}

// Validate checks the row is internally consistent before it is saved.
func (g *GameLog) Validate() error {
	if g == nil {
		return fmt.Errorf("nil game log")
	}
	if g.Team == "" || g.Opponent == "" {
		return fmt.Errorf("missing team or opponent")
	}
	if g.Team == g.Opponent {
		return fmt.Errorf("team playing itself: %s", g.Team)
	}
	if g.Season <= 0 {
		return fmt.Errorf("invalid season: %d", g.Season)
	}
	if _, err := time.Parse(GameDateFormat, g.GameDate); err != nil {
		return fmt.Errorf("invalid game date %q: %w", g.GameDate, err)
	}
	for _, c := range []struct {
		name     string
		made, at int
	}{
		{"fg2", g.FG2M, g.FG2A},
		{"fg3", g.FG3M, g.FG3A},
		{"ft", g.FTM, g.FTA},
	} {
		if c.at < 0 || c.made < 0 {
			return fmt.Errorf("negative %s counts", c.name)
		}
		if c.made > c.at {
			return fmt.Errorf("%s made %d exceeds attempts %d", c.name, c.made, c.at)
		}
	}
	if g.OREB < 0 || g.DREB < 0 || g.TOV < 0 {
		return fmt.Errorf("negative rebound or turnover counts")
	}
	if g.Pace <= 0 {
		return fmt.Errorf("invalid pace: %.2f", g.Pace)
	}
	if want := 2*g.FG2M + 3*g.FG3M + g.FTM; g.Points != want {
		return fmt.Errorf("points %d do not reconcile with makes (%d)", g.Points, want)
	}
	if g.OppPoints < 0 {
		return fmt.Errorf("negative opponent points")
	}
	return nil
}

// ImportResult summarizes one SaveGameLogs call.
type ImportResult struct {
	Received int      `json:"received" yaml:"received"`
	Inserted int      `json:"inserted" yaml:"inserted"`
	Skipped  int      `json:"skipped" yaml:"skipped"`
	Rejected []string `json:"rejected,omitempty" yaml:"rejected,omitempty"`
}

// SaveGameLogs inserts the given logs in one transaction. Rows that
// already exist are skipped, rows that fail validation are rejected and
// reported without failing the batch.
func (s *Store) SaveGameLogs(ctx context.Context, logs []*GameLog) (*ImportResult, error) {
	if s == nil || s.db == nil {
		return nil, errStoreNotInitialized
	}

	res := &ImportResult{Received: len(logs)}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.rebind(insertGameLogSQL))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare game log insert: %w", err)
	}
	defer stmt.Close()

	for _, gl := range logs {
		if err := gl.Validate(); err != nil {
			res.Rejected = append(res.Rejected, err.Error())
			continue
		}

		r, err := stmt.ExecContext(ctx,
			gl.Team, gl.Season, gl.GameDate, gl.Opponent,
			boolToInt(gl.Home), gl.Minutes,
			gl.FG2A, gl.FG2M, gl.FG3A, gl.FG3M, gl.FTA, gl.FTM,
			gl.OREB, gl.DREB, gl.TOV,
			gl.Pace, gl.ORTG, gl.DRTG, gl.Points, gl.OppPoints,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert game log for %s on %s: %w",
				gl.Team, gl.GameDate, err)
		}

		n, err := r.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to read insert result: %w", err)
		}
		if n > 0 {
			res.Inserted++
		} else {
			res.Skipped++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit game logs: %w", err)
	}

	slog.Debug("game logs saved",
		"received", res.Received,
		"inserted", res.Inserted,
		"skipped", res.Skipped,
		"rejected", len(res.Rejected))

	return res, nil
}

// GetTeamGameLogs returns all of a team's logs for a season in date order.
func (s *Store) GetTeamGameLogs(ctx context.Context, team string, season int) ([]*GameLog, error) {
	q := selectGameLogSQL + ` WHERE team = ? AND season = ? ORDER BY game_date`
	return s.queryGameLogs(ctx, q, team, season)
}

// GetSeasonGameLogs returns every team's logs for a season between the
// given dates inclusive, in date order.
func (s *Store) GetSeasonGameLogs(ctx context.Context, season int, from, to string) ([]*GameLog, error) {
	q := selectGameLogSQL + ` WHERE season = ? AND game_date >= ? AND game_date <= ?
		ORDER BY game_date, team`
	return s.queryGameLogs(ctx, q, season, from, to)
}

// GetRecentGameLogs returns up to limit logs played strictly before the
// given date, most recent first.
func (s *Store) GetRecentGameLogs(ctx context.Context, team string, season int, before string, limit int) ([]*GameLog, error) {
	q := selectGameLogSQL + ` WHERE team = ? AND season = ? AND game_date < ?
		ORDER BY game_date DESC LIMIT ?`
	return s.queryGameLogs(ctx, q, team, season, before, limit)
}

func (s *Store) queryGameLogs(ctx context.Context, query string, args ...any) ([]*GameLog, error) {
	if s == nil || s.db == nil {
		return nil, errStoreNotInitialized
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query game logs: %w", err)
	}
	defer rows.Close()

	var logs []*GameLog
	for rows.Next() {
		gl, err := scanGameLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, gl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read game logs: %w", err)
	}

	return logs, nil
}

func scanGameLog(rows *sql.Rows) (*GameLog, error) {
	var (
		gl      GameLog
		home    int
		defRank sql.NullInt64
		fg3Rank sql.NullInt64
		oppPace sql.NullFloat64
	)

	err := rows.Scan(
		&gl.Team, &gl.Season, &gl.GameDate, &gl.Opponent, &home, &gl.Minutes,
		&gl.FG2A, &gl.FG2M, &gl.FG3A, &gl.FG3M, &gl.FTA, &gl.FTM,
		&gl.OREB, &gl.DREB, &gl.TOV,
		&gl.Pace, &gl.ORTG, &gl.DRTG, &gl.Points, &gl.OppPoints,
		&defRank, &fg3Rank, &oppPace,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan game log: %w", err)
	}

	gl.Home = home != 0
	gl.OppDefRank = int(defRank.Int64)
	gl.OppFG3DefRank = int(fg3Rank.Int64)
	gl.OppPace = oppPace.Float64

	return &gl, nil
}

// GetTierBucketOverall averages a team's scoring components across prior
// games against opponents whose overall defensive rank falls in the tier.
func (s *Store) GetTierBucketOverall(ctx context.Context, team string, season int, before string, tier engine.DefenseTier) (*engine.TierBucket, error) {
	lo, hi := engine.TierRankRange(tier)
	return s.queryTierBucket(ctx, tierBucketSQL, team, season, before, lo, hi)
}

// GetTierBucketBoth is GetTierBucketOverall narrowed to opponents whose
// three point defensive rank also falls in the given tier.
func (s *Store) GetTierBucketBoth(ctx context.Context, team string, season int, before string, overall, three engine.DefenseTier) (*engine.TierBucket, error) {
	lo, hi := engine.TierRankRange(overall)
	lo3, hi3 := engine.TierRankRange(three)
	q := tierBucketSQL + ` AND opp_fg3_def_rank BETWEEN ? AND ?`
	return s.queryTierBucket(ctx, q, team, season, before, lo, hi, lo3, hi3)
}

func (s *Store) queryTierBucket(ctx context.Context, query string, args ...any) (*engine.TierBucket, error) {
	if s == nil || s.db == nil {
		return nil, errStoreNotInitialized
	}

	var (
		b        engine.TierBucket
		twoPt    sql.NullFloat64
		threePt  sql.NullFloat64
		ft       sql.NullFloat64
		combined sql.NullFloat64
	)

	row := s.db.QueryRowContext(ctx, s.rebind(query), args...)
	if err := row.Scan(&b.Games, &twoPt, &threePt, &ft, &combined); err != nil {
		return nil, fmt.Errorf("failed to query tier bucket: %w", err)
	}

	b.TwoPtPPG = twoPt.Float64
	b.ThreePtPPG = threePt.Float64
	b.FTPPG = ft.Float64
	b.PPG = combined.Float64

	return &b, nil
}

// GetLastGameDate returns the date of the team's most recent game before
// the given date, or ErrNotFound when the team has not played yet.
func (s *Store) GetLastGameDate(ctx context.Context, team string, season int, before string) (string, error) {
	if s == nil || s.db == nil {
		return "", errStoreNotInitialized
	}

	q := `SELECT game_date FROM game_log
		WHERE team = ? AND season = ? AND game_date < ?
		ORDER BY game_date DESC LIMIT 1`

	var date string
	err := s.db.QueryRowContext(ctx, s.rebind(q), team, season, before).Scan(&date)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("no games for %s before %s: %w", team, before, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query last game date: %w", err)
	}

	return date, nil
}

// GetRecentHomeWins counts wins within the team's last n home games
// played before the given date.
func (s *Store) GetRecentHomeWins(ctx context.Context, team string, season int, before string, n int) (int, error) {
	if s == nil || s.db == nil {
		return 0, errStoreNotInitialized
	}

	q := `SELECT COUNT(*) FROM (
		SELECT points, opp_points FROM game_log
		WHERE team = ? AND season = ? AND home = 1 AND game_date < ?
		ORDER BY game_date DESC LIMIT ?
	) recent WHERE points > opp_points`

	var wins int
	if err := s.db.QueryRowContext(ctx, s.rebind(q), team, season, before, n).Scan(&wins); err != nil {
		return 0, fmt.Errorf("failed to count recent home wins: %w", err)
	}

	return wins, nil
}

// BackfillOpponentContext stamps opponent defensive ranks and pace onto
// game_log rows from the season's aggregate table. Rows already stamped
// are left alone, so the pass is safe to repeat after each rebuild.
func (s *Store) BackfillOpponentContext(ctx context.Context, season int) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errStoreNotInitialized
	}

	r, err := s.db.ExecContext(ctx, s.rebind(backfillGameLogSQL), season)
	if err != nil {
		return 0, fmt.Errorf("failed to backfill opponent context: %w", err)
	}

	n, err := r.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read backfill result: %w", err)
	}

	slog.Debug("opponent context backfilled", "season", season, "rows", n)

	return n, nil
}

// PlayedGame is a completed matchup seen from the home side, used for
// backtesting against final totals.
type PlayedGame struct {
	GameDate   string `json:"game_date" yaml:"game_date"`
	Home       string `json:"home" yaml:"home"`
	Away       string `json:"away" yaml:"away"`
	HomePoints int    `json:"home_points" yaml:"home_points"`
	AwayPoints int    `json:"away_points" yaml:"away_points"`
}

// Total returns the game's combined final score.
func (p *PlayedGame) Total() float64 {
	return float64(p.HomePoints + p.AwayPoints)
}

// GetPlayedGames lists completed games in a date range, one row per game.
func (s *Store) GetPlayedGames(ctx context.Context, season int, from, to string) ([]*PlayedGame, error) {
	if s == nil || s.db == nil {
		return nil, errStoreNotInitialized
	}

	q := `SELECT game_date, team, opponent, points, opp_points
		FROM game_log
		WHERE season = ? AND home = 1 AND game_date >= ? AND game_date <= ?
		ORDER BY game_date, team`

	rows, err := s.db.QueryContext(ctx, s.rebind(q), season, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query played games: %w", err)
	}
	defer rows.Close()

	var games []*PlayedGame
	for rows.Next() {
		var g PlayedGame
		if err := rows.Scan(&g.GameDate, &g.Home, &g.Away, &g.HomePoints, &g.AwayPoints); err != nil {
			return nil, fmt.Errorf("failed to scan played game: %w", err)
		}
		games = append(games, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read played games: %w", err)
	}

	return games, nil
}

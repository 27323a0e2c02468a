package data

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/sportlines/totalcast/pkg/engine"
	"golang.org/x/sync/errgroup"
)

const (
	rebuildConcurrency = 8

	upsertAggregateSQL = `INSERT INTO team_season (
		team, season, split, games, win_pct, ppg, opp_ppg, pace, ortg, drtg,
		fg2_pct, fg3_pct, ft_pct, fg2a_pg, fg3a_pg, fta_pg,
		two_pt_share, three_pt_share, ft_share,
		tov_pg, tov_pct, oreb_pct, ft_rate,
		opp_fg2_pct, opp_fg3_pct, opp_tov_pct, opp_oreb_pct, opp_ft_rate,
		updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (team, season, split) DO UPDATE SET
		games = excluded.games,
		win_pct = excluded.win_pct,
		ppg = excluded.ppg,
		opp_ppg = excluded.opp_ppg,
		pace = excluded.pace,
		ortg = excluded.ortg,
		drtg = excluded.drtg,
		fg2_pct = excluded.fg2_pct,
		fg3_pct = excluded.fg3_pct,
		ft_pct = excluded.ft_pct,
		fg2a_pg = excluded.fg2a_pg,
		fg3a_pg = excluded.fg3a_pg,
		fta_pg = excluded.fta_pg,
		two_pt_share = excluded.two_pt_share,
		three_pt_share = excluded.three_pt_share,
		ft_share = excluded.ft_share,
		tov_pg = excluded.tov_pg,
		tov_pct = excluded.tov_pct,
		oreb_pct = excluded.oreb_pct,
		ft_rate = excluded.ft_rate,
		opp_fg2_pct = excluded.opp_fg2_pct,
		opp_fg3_pct = excluded.opp_fg3_pct,
		opp_tov_pct = excluded.opp_tov_pct,
		opp_oreb_pct = excluded.opp_oreb_pct,
		opp_ft_rate = excluded.opp_ft_rate,
		updated_at = excluded.updated_at`

	selectAggregateSQL = `SELECT
		team, season, split, games, win_pct, ppg, opp_ppg, pace, ortg, drtg,
		fg2_pct, fg3_pct, ft_pct, fg2a_pg, fg3a_pg, fta_pg,
		two_pt_share, three_pt_share, ft_share,
		tov_pg, tov_pct, oreb_pct, ft_rate,
		opp_fg2_pct, opp_fg3_pct, opp_tov_pct, opp_oreb_pct, opp_ft_rate,
		def_rank, fg3_def_rank, updated_at
	FROM team_season`

	leagueAveragesSQL = `SELECT
		COUNT(*),
		AVG(ppg), AVG(pace), AVG(ortg),
		AVG(fg2_pct), AVG(fg3_pct), AVG(ft_pct),
		AVG(tov_pct), AVG(oreb_pct), AVG(ft_rate),
		AVG(two_pt_share), AVG(three_pt_share), AVG(ft_share)
	FROM team_season
	WHERE season = ? AND split = ?`

	updateDefRankSQL = `UPDATE team_season SET def_rank = ?
		WHERE team = ? AND season = ?`

	updateFG3RankSQL = `UPDATE team_season SET fg3_def_rank = ?
		WHERE team = ? AND season = ?`
)

// TeamSeasonAggregate is one team's rolled-up season row for a split.
type TeamSeasonAggregate struct {
	Team   string
	Season int
	Split  string

	engine.SeasonStats

	DefRank    int
	FG3DefRank int
	UpdatedAt  string
}

// RebuildSeasonAggregates recomputes every team's all/home/away rows for
// the season from its game logs, then reassigns defensive ranks across
// the league. The free throw possession weight feeds the possession
// estimate used for ratings and turnover percentages.
func (s *Store) RebuildSeasonAggregates(ctx context.Context, season int, ftWeight float64) (int, error) {
	if s == nil || s.db == nil {
		return 0, errStoreNotInitialized
	}

	logs, err := s.queryGameLogs(ctx, selectGameLogSQL+` WHERE season = ? ORDER BY game_date`, season)
	if err != nil {
		return 0, err
	}
	if len(logs) == 0 {
		return 0, fmt.Errorf("no game logs for season %d: %w", season, ErrNotFound)
	}

	byTeam := make(map[string][]*GameLog)
	opposite := make(map[string]*GameLog, len(logs))
	for _, gl := range logs {
		byTeam[gl.Team] = append(byTeam[gl.Team], gl)
		opposite[gl.Team+"|"+gl.GameDate] = gl
	}

	teams := make([]string, 0, len(byTeam))
	for team := range byTeam {
		teams = append(teams, team)
	}
	sort.Strings(teams)

	// The opposing side of each log is looked up by (opponent, date) so
	// allowed percentages come from real box lines, not estimates.
	oppRow := func(gl *GameLog) *GameLog {
		return opposite[gl.Opponent+"|"+gl.GameDate]
	}

	aggs := make([][]*TeamSeasonAggregate, len(teams))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rebuildConcurrency)

	for i, team := range teams {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows := make([]*TeamSeasonAggregate, 0, 3)
			for _, split := range []string{SplitAll, SplitHome, SplitAway} {
				agg := computeAggregate(team, season, split, byTeam[team], oppRow, ftWeight)
				if agg.Games > 0 {
					rows = append(rows, agg)
				}
			}
			aggs[i] = rows
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("failed to compute aggregates: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.rebind(upsertAggregateSQL))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare aggregate upsert: %w", err)
	}
	defer stmt.Close()

	updatedAt := time.Now().UTC().Format(time.RFC3339)

	count := 0
	for _, rows := range aggs {
		for _, a := range rows {
			_, err := stmt.ExecContext(ctx,
				a.Team, a.Season, a.Split, a.Games, a.WinPct, a.PPG, a.OppPPG,
				a.Pace, a.ORTG, a.DRTG,
				a.FG2Pct, a.FG3Pct, a.FTPct, a.FG2APG, a.FG3APG, a.FTAPG,
				a.TwoPtShare, a.ThreePtShare, a.FTShare,
				a.TOVPerGame, a.TOVPct, a.OREBPct, a.FTRate,
				a.OppFG2Pct, a.OppFG3Pct, a.OppTOVPct, a.OppOREBPct, a.OppFTRate,
				updatedAt,
			)
			if err != nil {
				return 0, fmt.Errorf("failed to upsert aggregate for %s/%s: %w", a.Team, a.Split, err)
			}
			count++
		}
	}

	if err := s.assignRanks(ctx, tx, season, aggs); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit aggregates: %w", err)
	}

	slog.Debug("season aggregates rebuilt", "season", season, "teams", len(teams), "rows", count)

	return count, nil
}

// assignRanks orders league defenses from the freshly computed 'all'
// rows and stamps 1-based ranks back onto every split row.
func (s *Store) assignRanks(ctx context.Context, tx *sql.Tx, season int, aggs [][]*TeamSeasonAggregate) error {
	all := make([]*TeamSeasonAggregate, 0, len(aggs))
	for _, rows := range aggs {
		for _, a := range rows {
			if a.Split == SplitAll {
				all = append(all, a)
			}
		}
	}

	type rankUpdate struct {
		query string
		less  func(a, b *TeamSeasonAggregate) bool
	}

	updates := []rankUpdate{
		{updateDefRankSQL, func(a, b *TeamSeasonAggregate) bool {
			if a.DRTG != b.DRTG {
				return a.DRTG < b.DRTG
			}
			return a.Team < b.Team
		}},
		{updateFG3RankSQL, func(a, b *TeamSeasonAggregate) bool {
			if a.OppFG3Pct != b.OppFG3Pct {
				return a.OppFG3Pct < b.OppFG3Pct
			}
			return a.Team < b.Team
		}},
	}

	for _, u := range updates {
		sort.SliceStable(all, func(i, j int) bool { return u.less(all[i], all[j]) })

		stmt, err := tx.PrepareContext(ctx, s.rebind(u.query))
		if err != nil {
			return fmt.Errorf("failed to prepare rank update: %w", err)
		}

		for i, a := range all {
			if _, err := stmt.ExecContext(ctx, i+1, a.Team, season); err != nil {
				stmt.Close()
				return fmt.Errorf("failed to update rank for %s: %w", a.Team, err)
			}
		}

		stmt.Close()
	}

	return nil
}

// computeAggregate rolls a team's logs for one split into a season row.
func computeAggregate(team string, season int, split string, logs []*GameLog, oppRow func(*GameLog) *GameLog, ftWeight float64) *TeamSeasonAggregate {
	a := &TeamSeasonAggregate{Team: team, Season: season, Split: split}

	var (
		wins                   int
		points, oppPoints      float64
		pace                   float64
		fg2m, fg2a, fg3m, fg3a float64
		ftm, fta               float64
		oreb, dreb, tov        float64
		poss                   float64

		oFG2M, oFG2A, oFG3M, oFG3A float64
		oFTA, oFGA                 float64
		oOREB, oDREB, oTOV         float64
		oPoss                      float64
	)

	for _, gl := range logs {
		switch split {
		case SplitHome:
			if !gl.Home {
				continue
			}
		case SplitAway:
			if gl.Home {
				continue
			}
		}

		a.Games++
		if gl.Points > gl.OppPoints {
			wins++
		}

		points += float64(gl.Points)
		oppPoints += float64(gl.OppPoints)
		pace += gl.Pace
		fg2m += float64(gl.FG2M)
		fg2a += float64(gl.FG2A)
		fg3m += float64(gl.FG3M)
		fg3a += float64(gl.FG3A)
		ftm += float64(gl.FTM)
		fta += float64(gl.FTA)
		oreb += float64(gl.OREB)
		dreb += float64(gl.DREB)
		tov += float64(gl.TOV)
		poss += gl.Possessions(ftWeight)

		if opp := oppRow(gl); opp != nil {
			oFG2M += float64(opp.FG2M)
			oFG2A += float64(opp.FG2A)
			oFG3M += float64(opp.FG3M)
			oFG3A += float64(opp.FG3A)
			oFTA += float64(opp.FTA)
			oFGA += float64(opp.FieldGoalAttempts())
			oOREB += float64(opp.OREB)
			oDREB += float64(opp.DREB)
			oTOV += float64(opp.TOV)
			oPoss += opp.Possessions(ftWeight)
		}
	}

	if a.Games == 0 {
		return a
	}

	games := float64(a.Games)

	a.WinPct = float64(wins) / games
	a.PPG = points / games
	a.OppPPG = oppPoints / games
	a.Pace = pace / games
	a.ORTG = rate(100*points, poss)
	a.DRTG = rate(100*oppPoints, oPoss)

	a.FG2Pct = rate(100*fg2m, fg2a)
	a.FG3Pct = rate(100*fg3m, fg3a)
	a.FTPct = rate(100*ftm, fta)
	a.FG2APG = fg2a / games
	a.FG3APG = fg3a / games
	a.FTAPG = fta / games

	a.TwoPtShare = rate(2*fg2m, points)
	a.ThreePtShare = rate(3*fg3m, points)
	a.FTShare = rate(ftm, points)

	a.TOVPerGame = tov / games
	a.TOVPct = rate(100*tov, poss)
	a.OREBPct = rate(100*oreb, oreb+oDREB)
	a.FTRate = rate(fta, fg2a+fg3a)

	a.OppFG2Pct = rate(100*oFG2M, oFG2A)
	a.OppFG3Pct = rate(100*oFG3M, oFG3A)
	a.OppTOVPct = rate(100*oTOV, oPoss)
	a.OppOREBPct = rate(100*oOREB, oOREB+dreb)
	a.OppFTRate = rate(oFTA, oFGA)

	return a
}

func rate(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// GetTeamSeasonAggregate loads one team's row for the given split.
func (s *Store) GetTeamSeasonAggregate(ctx context.Context, team string, season int, split string) (*TeamSeasonAggregate, error) {
	if s == nil || s.db == nil {
		return nil, errStoreNotInitialized
	}

	q := selectAggregateSQL + ` WHERE team = ? AND season = ? AND split = ?`

	var a TeamSeasonAggregate
	err := s.db.QueryRowContext(ctx, s.rebind(q), team, season, split).Scan(
		&a.Team, &a.Season, &a.Split, &a.Games, &a.WinPct, &a.PPG, &a.OppPPG,
		&a.Pace, &a.ORTG, &a.DRTG,
		&a.FG2Pct, &a.FG3Pct, &a.FTPct, &a.FG2APG, &a.FG3APG, &a.FTAPG,
		&a.TwoPtShare, &a.ThreePtShare, &a.FTShare,
		&a.TOVPerGame, &a.TOVPct, &a.OREBPct, &a.FTRate,
		&a.OppFG2Pct, &a.OppFG3Pct, &a.OppTOVPct, &a.OppOREBPct, &a.OppFTRate,
		&a.DefRank, &a.FG3DefRank, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no %s aggregate for %s in season %d: %w", split, team, season, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query aggregate: %w", err)
	}

	return &a, nil
}

// GetLeagueAverages returns league-wide per-team means over the season's
// 'all' rows.
func (s *Store) GetLeagueAverages(ctx context.Context, season int) (*engine.LeagueAverages, error) {
	if s == nil || s.db == nil {
		return nil, errStoreNotInitialized
	}

	var (
		teams int
		la    engine.LeagueAverages

		ppg, pace, ortg         sql.NullFloat64
		fg2, fg3, ft            sql.NullFloat64
		tovPct, orebPct, ftRate sql.NullFloat64
		twoSh, threeSh, ftSh    sql.NullFloat64
	)

	row := s.db.QueryRowContext(ctx, s.rebind(leagueAveragesSQL), season, SplitAll)
	err := row.Scan(&teams,
		&ppg, &pace, &ortg,
		&fg2, &fg3, &ft,
		&tovPct, &orebPct, &ftRate,
		&twoSh, &threeSh, &ftSh,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query league averages: %w", err)
	}
	if teams == 0 {
		return nil, fmt.Errorf("no aggregates for season %d: %w", season, ErrNotFound)
	}

	la.PPG = ppg.Float64
	la.Pace = pace.Float64
	la.ORTG = ortg.Float64
	la.FG2Pct = fg2.Float64
	la.FG3Pct = fg3.Float64
	la.FTPct = ft.Float64
	la.TOVPct = tovPct.Float64
	la.OREBPct = orebPct.Float64
	la.FTRate = ftRate.Float64
	la.TwoPtShare = twoSh.Float64
	la.ThreePtShare = threeSh.Float64
	la.FTShare = ftSh.Float64

	return &la, nil
}

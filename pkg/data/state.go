package data

import (
	"context"
	"database/sql"
	"fmt"
)

const (
	seasonListSQL = `SELECT DISTINCT season FROM game_log ORDER BY season`

	seasonLogStateSQL = `SELECT
		COUNT(*),
		COUNT(DISTINCT team),
		MIN(game_date),
		MAX(game_date),
		SUM(CASE WHEN opp_def_rank IS NOT NULL THEN 1 ELSE 0 END)
	FROM game_log WHERE season = ?`

	seasonAggStateSQL = `SELECT COUNT(*) FROM team_season WHERE season = ?`

	seasonCoeffStateSQL = `SELECT
		COUNT(*),
		COALESCE(MAX(CASE WHEN is_active = 1 THEN version END), 0)
	FROM coefficient_set WHERE season = ?`
)

// SeasonState summarizes what the store holds for one season.
type SeasonState struct {
	Season          int    `json:"season" yaml:"season"`
	GameLogs        int    `json:"game_logs" yaml:"gameLogs"`
	Teams           int    `json:"teams" yaml:"teams"`
	FirstDate       string `json:"first_date,omitempty" yaml:"firstDate,omitempty"`
	LastDate        string `json:"last_date,omitempty" yaml:"lastDate,omitempty"`
	Backfilled      int    `json:"backfilled" yaml:"backfilled"`
	Aggregates      int    `json:"aggregates" yaml:"aggregates"`
	CoefficientSets int    `json:"coefficient_sets" yaml:"coefficientSets"`
	ActiveVersion   int    `json:"active_version" yaml:"activeVersion"`
}

// DataState is the store-wide inventory grouped by season.
type DataState struct {
	Driver  string         `json:"driver" yaml:"driver"`
	Seasons []*SeasonState `json:"seasons" yaml:"seasons"`
}

// GetDataState reports row counts, date coverage, backfill progress and
// calibration versions for every season with data.
func (s *Store) GetDataState(ctx context.Context) (*DataState, error) {
	if s == nil || s.db == nil {
		return nil, errStoreNotInitialized
	}

	rows, err := s.db.QueryContext(ctx, seasonListSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to list seasons: %w", err)
	}
	defer rows.Close()

	var seasons []int
	for rows.Next() {
		var season int
		if err := rows.Scan(&season); err != nil {
			return nil, fmt.Errorf("failed to scan season: %w", err)
		}
		seasons = append(seasons, season)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read seasons: %w", err)
	}

	state := &DataState{Driver: s.driver}

	for _, season := range seasons {
		ss, err := s.seasonState(ctx, season)
		if err != nil {
			return nil, err
		}
		state.Seasons = append(state.Seasons, ss)
	}

	return state, nil
}

func (s *Store) seasonState(ctx context.Context, season int) (*SeasonState, error) {
	ss := &SeasonState{Season: season}

	var (
		first, last sql.NullString
		backfilled  sql.NullInt64
	)

	row := s.db.QueryRowContext(ctx, s.rebind(seasonLogStateSQL), season)
	if err := row.Scan(&ss.GameLogs, &ss.Teams, &first, &last, &backfilled); err != nil {
		return nil, fmt.Errorf("failed to query log state for %d: %w", season, err)
	}
	ss.FirstDate = first.String
	ss.LastDate = last.String
	ss.Backfilled = int(backfilled.Int64)

	row = s.db.QueryRowContext(ctx, s.rebind(seasonAggStateSQL), season)
	if err := row.Scan(&ss.Aggregates); err != nil {
		return nil, fmt.Errorf("failed to query aggregate state for %d: %w", season, err)
	}

	row = s.db.QueryRowContext(ctx, s.rebind(seasonCoeffStateSQL), season)
	if err := row.Scan(&ss.CoefficientSets, &ss.ActiveVersion); err != nil {
		return nil, fmt.Errorf("failed to query coefficient state for %d: %w", season, err)
	}

	return ss, nil
}

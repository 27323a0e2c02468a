package data

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sportlines/totalcast/pkg/engine"
)

// MinPossessionR2 is the fit quality a calibration must reach before it
// can be activated. Sets below it are rejected so a thin or noisy
// training window never displaces the running weights.
const MinPossessionR2 = 0.70

const (
	insertCoefficientSQL = `INSERT INTO coefficient_set (
		id, season, version, a2, b2, a3, b3,
		ft_poss_weight, tov_team_weight, tov_opp_weight,
		trained_from, trained_to, games,
		r2_shooting2, r2_shooting3, r2_possession,
		is_active, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	deactivateCoefficientSQL = `UPDATE coefficient_set SET is_active = 0
		WHERE season = ? AND is_active = 1`

	selectCoefficientSQL = `SELECT
		id, season, version, a2, b2, a3, b3,
		ft_poss_weight, tov_team_weight, tov_opp_weight,
		trained_from, trained_to, games,
		r2_shooting2, r2_shooting3, r2_possession,
		is_active, created_at
	FROM coefficient_set`

	nextVersionSQL = `SELECT COALESCE(MAX(version), 0) + 1
		FROM coefficient_set WHERE season = ?`
)

// CoefficientSet is one stored calibration for a season.
type CoefficientSet struct {
	ID      string `json:"id" yaml:"id"`
	Season  int    `json:"season" yaml:"season"`
	Version int    `json:"version" yaml:"version"`

	A2                 float64 `json:"a2" yaml:"a2"`
	B2                 float64 `json:"b2" yaml:"b2"`
	A3                 float64 `json:"a3" yaml:"a3"`
	B3                 float64 `json:"b3" yaml:"b3"`
	FTPossessionWeight float64 `json:"ft_possession_weight" yaml:"ftPossessionWeight"`
	TOVTeamWeight      float64 `json:"tov_team_weight" yaml:"tovTeamWeight"`
	TOVOppWeight       float64 `json:"tov_opp_weight" yaml:"tovOppWeight"`

	TrainedFrom string `json:"trained_from" yaml:"trainedFrom"`
	TrainedTo   string `json:"trained_to" yaml:"trainedTo"`
	Games       int    `json:"games" yaml:"games"`

	R2Shooting2  float64 `json:"r2_shooting2" yaml:"r2Shooting2"`
	R2Shooting3  float64 `json:"r2_shooting3" yaml:"r2Shooting3"`
	R2Possession float64 `json:"r2_possession" yaml:"r2Possession"`

	IsActive  bool   `json:"is_active" yaml:"isActive"`
	CreatedAt string `json:"created_at" yaml:"createdAt"`
}

// Engine converts the stored row to the weights the pipeline consumes.
func (c *CoefficientSet) Engine() engine.Coefficients {
	return engine.Coefficients{
		A2:                 c.A2,
		B2:                 c.B2,
		A3:                 c.A3,
		B3:                 c.B3,
		FTPossessionWeight: c.FTPossessionWeight,
		TOVTeamWeight:      c.TOVTeamWeight,
		TOVOppWeight:       c.TOVOppWeight,
	}
}

// Validate checks the set is structurally sound before persisting.
func (c *CoefficientSet) Validate() error {
	if c == nil {
		return fmt.Errorf("nil coefficient set")
	}
	if c.Season <= 0 {
		return fmt.Errorf("invalid season: %d", c.Season)
	}
	if c.Games <= 0 {
		return fmt.Errorf("invalid training game count: %d", c.Games)
	}
	if c.FTPossessionWeight <= 0 || c.FTPossessionWeight >= 1 {
		return fmt.Errorf("free throw possession weight out of range: %.3f", c.FTPossessionWeight)
	}
	if c.TOVTeamWeight < 0 || c.TOVOppWeight < 0 {
		return fmt.Errorf("negative turnover blend weight")
	}
	if sum := c.TOVTeamWeight + c.TOVOppWeight; math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("turnover blend weights sum to %.3f, want 1", sum)
	}
	return nil
}

// SaveCoefficientSet persists the set as the season's new active
// calibration: the prior active row is deactivated and the new one
// inserted with the next version, all in one transaction. Sets whose
// possession fit falls below MinPossessionR2 are rejected with
// ErrQualityGate and the stored state is left untouched.
func (s *Store) SaveCoefficientSet(ctx context.Context, cs *CoefficientSet) error {
	if s == nil || s.db == nil {
		return errStoreNotInitialized
	}

	if err := cs.Validate(); err != nil {
		return fmt.Errorf("invalid coefficient set: %w", err)
	}

	if cs.R2Possession < MinPossessionR2 {
		return fmt.Errorf("possession fit r2 %.3f below %.2f: %w",
			cs.R2Possession, MinPossessionR2, ErrQualityGate)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var version int
	if err := tx.QueryRowContext(ctx, s.rebind(nextVersionSQL), cs.Season).Scan(&version); err != nil {
		return fmt.Errorf("failed to assign version: %w", err)
	}

	if _, err := tx.ExecContext(ctx, s.rebind(deactivateCoefficientSQL), cs.Season); err != nil {
		return fmt.Errorf("failed to deactivate prior set: %w", err)
	}

	if cs.ID == "" {
		cs.ID = uuid.NewString()
	}
	cs.Version = version
	cs.IsActive = true
	cs.CreatedAt = time.Now().UTC().Format(time.RFC3339)

	_, err = tx.ExecContext(ctx, s.rebind(insertCoefficientSQL),
		cs.ID, cs.Season, cs.Version, cs.A2, cs.B2, cs.A3, cs.B3,
		cs.FTPossessionWeight, cs.TOVTeamWeight, cs.TOVOppWeight,
		cs.TrainedFrom, cs.TrainedTo, cs.Games,
		cs.R2Shooting2, cs.R2Shooting3, cs.R2Possession,
		boolToInt(cs.IsActive), cs.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert coefficient set: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit coefficient set: %w", err)
	}

	slog.Debug("coefficient set activated",
		"season", cs.Season,
		"version", cs.Version,
		"games", cs.Games,
		"r2_possession", cs.R2Possession)

	return nil
}

// GetActiveCoefficientSet returns the season's active calibration, or
// ErrNotFound when none has been saved yet.
func (s *Store) GetActiveCoefficientSet(ctx context.Context, season int) (*CoefficientSet, error) {
	if s == nil || s.db == nil {
		return nil, errStoreNotInitialized
	}

	q := selectCoefficientSQL + ` WHERE season = ? AND is_active = 1`

	cs, err := scanCoefficientRow(s.db.QueryRowContext(ctx, s.rebind(q), season))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no active coefficient set for season %d: %w", season, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query active coefficient set: %w", err)
	}

	return cs, nil
}

// ListCoefficientSets returns the season's calibrations, newest first.
func (s *Store) ListCoefficientSets(ctx context.Context, season int) ([]*CoefficientSet, error) {
	if s == nil || s.db == nil {
		return nil, errStoreNotInitialized
	}

	q := selectCoefficientSQL + ` WHERE season = ? ORDER BY version DESC`

	rows, err := s.db.QueryContext(ctx, s.rebind(q), season)
	if err != nil {
		return nil, fmt.Errorf("failed to query coefficient sets: %w", err)
	}
	defer rows.Close()

	var sets []*CoefficientSet
	for rows.Next() {
		cs, err := scanCoefficientRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coefficient set: %w", err)
		}
		sets = append(sets, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read coefficient sets: %w", err)
	}

	return sets, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCoefficientRow(row rowScanner) (*CoefficientSet, error) {
	var (
		cs     CoefficientSet
		active int
	)

	err := row.Scan(
		&cs.ID, &cs.Season, &cs.Version, &cs.A2, &cs.B2, &cs.A3, &cs.B3,
		&cs.FTPossessionWeight, &cs.TOVTeamWeight, &cs.TOVOppWeight,
		&cs.TrainedFrom, &cs.TrainedTo, &cs.Games,
		&cs.R2Shooting2, &cs.R2Shooting3, &cs.R2Possession,
		&active, &cs.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	cs.IsActive = active != 0

	return &cs, nil
}

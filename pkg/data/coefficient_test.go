package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCoefficientSet(season int) *CoefficientSet {
	return &CoefficientSet{
		Season:             season,
		A2:                 0.62,
		B2:                 0.38,
		A3:                 0.55,
		B3:                 0.45,
		FTPossessionWeight: 0.44,
		TOVTeamWeight:      0.70,
		TOVOppWeight:       0.30,
		TrainedFrom:        "2024-11-01",
		TrainedTo:          "2025-01-31",
		Games:              412,
		R2Shooting2:        0.41,
		R2Shooting3:        0.33,
		R2Possession:       0.86,
	}
}

func (s *Store) countActive(t *testing.T, season int) int {
	t.Helper()

	var n int
	err := s.db.QueryRow(
		s.rebind(`SELECT COUNT(*) FROM coefficient_set WHERE season = ? AND is_active = 1`),
		season,
	).Scan(&n)
	require.NoError(t, err)

	return n
}

func TestSaveCoefficientSetActivates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cs := testCoefficientSet(2025)
	require.NoError(t, s.SaveCoefficientSet(ctx, cs))

	assert.NotEmpty(t, cs.ID)
	assert.Equal(t, 1, cs.Version)
	assert.True(t, cs.IsActive)
	assert.NotEmpty(t, cs.CreatedAt)

	active, err := s.GetActiveCoefficientSet(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, cs.ID, active.ID)
	assert.InDelta(t, 0.62, active.A2, 0.0001)
	assert.InDelta(t, 0.86, active.R2Possession, 0.0001)
	assert.Equal(t, 412, active.Games)
}

func TestSaveCoefficientSetSwapsActive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		cs := testCoefficientSet(2025)
		cs.A2 = 0.5 + float64(i)*0.05
		require.NoError(t, s.SaveCoefficientSet(ctx, cs))
		assert.Equal(t, i+1, cs.Version)
	}

	// every swap leaves exactly one active row
	assert.Equal(t, 1, s.countActive(t, 2025))

	active, err := s.GetActiveCoefficientSet(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, 3, active.Version)
	assert.InDelta(t, 0.60, active.A2, 0.0001)

	sets, err := s.ListCoefficientSets(ctx, 2025)
	require.NoError(t, err)
	require.Len(t, sets, 3)
	assert.Equal(t, 3, sets[0].Version)
	assert.Equal(t, 1, sets[2].Version)
	assert.False(t, sets[1].IsActive)
	assert.False(t, sets[2].IsActive)
}

func TestSaveCoefficientSetSeasonsAreIndependent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCoefficientSet(ctx, testCoefficientSet(2024)))
	require.NoError(t, s.SaveCoefficientSet(ctx, testCoefficientSet(2025)))

	assert.Equal(t, 1, s.countActive(t, 2024))
	assert.Equal(t, 1, s.countActive(t, 2025))

	active, err := s.GetActiveCoefficientSet(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, 1, active.Version)
}

func TestSaveCoefficientSetQualityGate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	good := testCoefficientSet(2025)
	require.NoError(t, s.SaveCoefficientSet(ctx, good))

	weak := testCoefficientSet(2025)
	weak.R2Possession = 0.69

	err := s.SaveCoefficientSet(ctx, weak)
	assert.ErrorIs(t, err, ErrQualityGate)

	// the rejected set never displaces the running calibration
	active, err := s.GetActiveCoefficientSet(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, good.ID, active.ID)
	assert.Equal(t, 1, active.Version)

	sets, err := s.ListCoefficientSets(ctx, 2025)
	require.NoError(t, err)
	assert.Len(t, sets, 1)
}

func TestGetActiveCoefficientSetNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetActiveCoefficientSet(context.Background(), 2025)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCoefficientSetValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CoefficientSet)
		wantErr bool
	}{
		{"valid", func(c *CoefficientSet) {}, false},
		{"bad season", func(c *CoefficientSet) { c.Season = 0 }, true},
		{"no games", func(c *CoefficientSet) { c.Games = 0 }, true},
		{"ft weight zero", func(c *CoefficientSet) { c.FTPossessionWeight = 0 }, true},
		{"ft weight one", func(c *CoefficientSet) { c.FTPossessionWeight = 1 }, true},
		{"negative blend", func(c *CoefficientSet) { c.TOVTeamWeight, c.TOVOppWeight = -0.1, 1.1 }, true},
		{"blend not normalized", func(c *CoefficientSet) { c.TOVTeamWeight = 0.8 }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cs := testCoefficientSet(2025)
			tc.mutate(cs)
			err := cs.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCoefficientSetEngine(t *testing.T) {
	cs := testCoefficientSet(2025)
	c := cs.Engine()

	assert.InDelta(t, cs.A2, c.A2, 0.0001)
	assert.InDelta(t, cs.B2, c.B2, 0.0001)
	assert.InDelta(t, cs.A3, c.A3, 0.0001)
	assert.InDelta(t, cs.B3, c.B3, 0.0001)
	assert.InDelta(t, cs.FTPossessionWeight, c.FTPossessionWeight, 0.0001)
	assert.InDelta(t, cs.TOVTeamWeight, c.TOVTeamWeight, 0.0001)
	assert.InDelta(t, cs.TOVOppWeight, c.TOVOppWeight, 0.0001)
}

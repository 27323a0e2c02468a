package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// TestPostgresStore runs the full data flow against a real postgres to
// keep the rebound queries honest. Requires a container runtime.
func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx := context.Background()

	pgc, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("totalcast"),
		tcpostgres.WithUsername("totalcast"),
		tcpostgres.WithPassword("totalcast"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, testcontainers.TerminateContainer(pgc))
	})

	dsn, err := pgc.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := Open(DriverPostgres, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.Init(ctx)) // idempotent here too
	require.NoError(t, s.Ping(ctx))

	res, err := s.SaveGameLogs(ctx, []*GameLog{
		scoredLog("BOS", "NYK", "2025-01-10", true, 112, 104),
		scoredLog("NYK", "BOS", "2025-01-10", false, 104, 112),
		scoredLog("NYK", "PHI", "2025-01-12", true, 108, 100),
		scoredLog("PHI", "NYK", "2025-01-12", false, 100, 108),
		scoredLog("PHI", "BOS", "2025-01-14", true, 96, 120),
		scoredLog("BOS", "PHI", "2025-01-14", false, 120, 96),
	})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Inserted)

	// duplicate import is a no-op
	res, err = s.SaveGameLogs(ctx, []*GameLog{
		scoredLog("BOS", "NYK", "2025-01-10", true, 112, 104),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)

	count, err := s.RebuildSeasonAggregates(ctx, 2025, 0.44)
	require.NoError(t, err)
	assert.Equal(t, 9, count)

	n, err := s.BackfillOpponentContext(ctx, 2025)
	require.NoError(t, err)
	assert.EqualValues(t, 6, n)

	bos, err := s.GetTeamSeasonAggregate(ctx, "BOS", 2025, SplitAll)
	require.NoError(t, err)
	assert.Equal(t, 2, bos.Games)
	assert.InDelta(t, 116.0, bos.PPG, 0.001)
	assert.Equal(t, 1, bos.DefRank)

	la, err := s.GetLeagueAverages(ctx, 2025)
	require.NoError(t, err)
	assert.InDelta(t, (116.0+106+98)/3, la.PPG, 0.001)

	require.NoError(t, s.SaveCoefficientSet(ctx, testCoefficientSet(2025)))
	require.NoError(t, s.SaveCoefficientSet(ctx, testCoefficientSet(2025)))

	active, err := s.GetActiveCoefficientSet(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, 2, active.Version)
	assert.Equal(t, 1, s.countActive(t, 2025))

	b := NewContextBuilder(s, nil, 0)
	mc, err := b.BuildMatchup(ctx, 2025, "2025-01-16", "BOS", "NYK")
	require.NoError(t, err)
	assert.Equal(t, 2, mc.Home.Season.Games)

	state, err := s.GetDataState(ctx)
	require.NoError(t, err)
	require.Len(t, state.Seasons, 1)
	assert.Equal(t, 6, state.Seasons[0].GameLogs)
	assert.Equal(t, 2, state.Seasons[0].ActiveVersion)
}

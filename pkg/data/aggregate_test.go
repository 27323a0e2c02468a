package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedMiniLeague saves three teams with one home and one road game each,
// both sides of every game, and returns the store.
//
//	2025-01-10  BOS 112 @home vs NYK 104
//	2025-01-12  NYK 108 @home vs PHI 100
//	2025-01-14  PHI  96 @home vs BOS 120
func seedMiniLeague(t *testing.T) *Store {
	t.Helper()

	s := newTestStore(t)

	_, err := s.SaveGameLogs(context.Background(), []*GameLog{
		scoredLog("BOS", "NYK", "2025-01-10", true, 112, 104),
		scoredLog("NYK", "BOS", "2025-01-10", false, 104, 112),
		scoredLog("NYK", "PHI", "2025-01-12", true, 108, 100),
		scoredLog("PHI", "NYK", "2025-01-12", false, 100, 108),
		scoredLog("PHI", "BOS", "2025-01-14", true, 96, 120),
		scoredLog("BOS", "PHI", "2025-01-14", false, 120, 96),
	})
	require.NoError(t, err)

	return s
}

func TestRebuildSeasonAggregates(t *testing.T) {
	s := seedMiniLeague(t)
	ctx := context.Background()

	count, err := s.RebuildSeasonAggregates(ctx, 2025, 0.44)
	require.NoError(t, err)
	assert.Equal(t, 9, count) // 3 teams x all/home/away

	bos, err := s.GetTeamSeasonAggregate(ctx, "BOS", 2025, SplitAll)
	require.NoError(t, err)

	assert.Equal(t, 2, bos.Games)
	assert.InDelta(t, 1.0, bos.WinPct, 0.001)
	assert.InDelta(t, 116.0, bos.PPG, 0.001)
	assert.InDelta(t, 100.0, bos.OppPPG, 0.001)
	assert.InDelta(t, 100.0, bos.Pace, 0.001)

	// scoredLog always attempts twice its makes from two
	assert.InDelta(t, 50.0, bos.FG2Pct, 0.001)
	assert.InDelta(t, 100.0*20/56, bos.FG3Pct, 0.001)
	assert.InDelta(t, 80.0, bos.FTPct, 0.001)

	// shares of 232 points: 140 twos, 60 threes, 32 free throws
	assert.InDelta(t, 140.0/232, bos.TwoPtShare, 0.0001)
	assert.InDelta(t, 60.0/232, bos.ThreePtShare, 0.0001)
	assert.InDelta(t, 32.0/232, bos.FTShare, 0.0001)
	assert.InDelta(t, 1.0, bos.TwoPtShare+bos.ThreePtShare+bos.FTShare, 0.0001)

	assert.InDelta(t, 14.0, bos.TOVPerGame, 0.001)
	assert.InDelta(t, 100.0*28/221.6, bos.TOVPct, 0.01)
	assert.InDelta(t, 25.0, bos.OREBPct, 0.001) // 20 oreb vs 60 opp dreb
	assert.InDelta(t, 40.0/196, bos.FTRate, 0.0001)

	// ratings derive from estimated possessions at the 0.44 weight
	assert.InDelta(t, 100.0*232/221.6, bos.ORTG, 0.01)
	assert.InDelta(t, 100.0*200/193.6, bos.DRTG, 0.01)

	// allowed percentages come from the opposing box lines
	assert.InDelta(t, 50.0, bos.OppFG2Pct, 0.001)
	assert.InDelta(t, 100.0*20/56, bos.OppFG3Pct, 0.001)
	assert.InDelta(t, 40.0/164, bos.OppFTRate, 0.0001)

	home, err := s.GetTeamSeasonAggregate(ctx, "BOS", 2025, SplitHome)
	require.NoError(t, err)
	assert.Equal(t, 1, home.Games)
	assert.InDelta(t, 112.0, home.PPG, 0.001)

	away, err := s.GetTeamSeasonAggregate(ctx, "BOS", 2025, SplitAway)
	require.NoError(t, err)
	assert.Equal(t, 1, away.Games)
	assert.InDelta(t, 120.0, away.PPG, 0.001)
}

func TestRebuildAssignsDefensiveRanks(t *testing.T) {
	s := seedMiniLeague(t)
	ctx := context.Background()

	_, err := s.RebuildSeasonAggregates(ctx, 2025, 0.44)
	require.NoError(t, err)

	wantDef := map[string]int{"BOS": 1, "PHI": 2, "NYK": 3}
	// identical allowed three point rates tie, broken alphabetically
	wantFG3 := map[string]int{"BOS": 1, "NYK": 2, "PHI": 3}

	for team, rank := range wantDef {
		agg, err := s.GetTeamSeasonAggregate(ctx, team, 2025, SplitAll)
		require.NoError(t, err)
		assert.Equal(t, rank, agg.DefRank, "def rank for %s", team)
		assert.Equal(t, wantFG3[team], agg.FG3DefRank, "fg3 rank for %s", team)

		// split rows carry the same league-wide ranks
		home, err := s.GetTeamSeasonAggregate(ctx, team, 2025, SplitHome)
		require.NoError(t, err)
		assert.Equal(t, rank, home.DefRank)
	}
}

func TestRebuildIsRepeatable(t *testing.T) {
	s := seedMiniLeague(t)
	ctx := context.Background()

	_, err := s.RebuildSeasonAggregates(ctx, 2025, 0.44)
	require.NoError(t, err)

	first, err := s.GetTeamSeasonAggregate(ctx, "NYK", 2025, SplitAll)
	require.NoError(t, err)

	_, err = s.RebuildSeasonAggregates(ctx, 2025, 0.44)
	require.NoError(t, err)

	second, err := s.GetTeamSeasonAggregate(ctx, "NYK", 2025, SplitAll)
	require.NoError(t, err)

	assert.Equal(t, first.Games, second.Games)
	assert.InDelta(t, first.PPG, second.PPG, 0.0001)
	assert.Equal(t, first.DefRank, second.DefRank)
}

func TestRebuildNoLogs(t *testing.T) {
	s := newTestStore(t)

	_, err := s.RebuildSeasonAggregates(context.Background(), 1999, 0.44)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetTeamSeasonAggregateNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetTeamSeasonAggregate(context.Background(), "BOS", 2025, SplitAll)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetLeagueAverages(t *testing.T) {
	s := seedMiniLeague(t)
	ctx := context.Background()

	_, err := s.GetLeagueAverages(ctx, 2025)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.RebuildSeasonAggregates(ctx, 2025, 0.44)
	require.NoError(t, err)

	la, err := s.GetLeagueAverages(ctx, 2025)
	require.NoError(t, err)

	assert.InDelta(t, (116.0+106+98)/3, la.PPG, 0.001)
	assert.InDelta(t, 100.0, la.Pace, 0.001)
	assert.InDelta(t, 50.0, la.FG2Pct, 0.001)
	assert.InDelta(t, 100.0*20/56, la.FG3Pct, 0.001)
	assert.Greater(t, la.TOVPct, 0.0)
	assert.Greater(t, la.OREBPct, 0.0)
	assert.Greater(t, la.FTRate, 0.0)
	assert.InDelta(t, 1.0, la.TwoPtShare+la.ThreePtShare+la.FTShare, 0.0001)
}

func TestBackfillOpponentContext(t *testing.T) {
	s := seedMiniLeague(t)
	ctx := context.Background()

	_, err := s.RebuildSeasonAggregates(ctx, 2025, 0.44)
	require.NoError(t, err)

	n, err := s.BackfillOpponentContext(ctx, 2025)
	require.NoError(t, err)
	assert.EqualValues(t, 6, n)

	logs, err := s.GetTeamGameLogs(ctx, "BOS", 2025)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	// BOS opened against NYK, ranked third on defense
	assert.Equal(t, "NYK", logs[0].Opponent)
	assert.Equal(t, 3, logs[0].OppDefRank)
	assert.Equal(t, 2, logs[0].OppFG3DefRank)
	assert.InDelta(t, 100.0, logs[0].OppPace, 0.001)

	assert.Equal(t, "PHI", logs[1].Opponent)
	assert.Equal(t, 2, logs[1].OppDefRank)

	// stamped rows are left alone on the next pass
	n, err = s.BackfillOpponentContext(ctx, 2025)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestRateGuardsZeroDenominator(t *testing.T) {
	assert.Equal(t, 0.0, rate(10, 0))
	assert.InDelta(t, 2.5, rate(10, 4), 0.001)
}

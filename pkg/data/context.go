package data

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sportlines/totalcast/pkg/engine"
)

const (
	defaultRecentWindow = 10
	last5Window         = 5
	homeWinsWindow      = 3
	maxRestDays         = 7
)

// AggregateReader is the subset of store reads a matchup build repeats
// across requests, split out so a cache can sit in front of them.
type AggregateReader interface {
	GetTeamSeasonAggregate(ctx context.Context, team string, season int, split string) (*TeamSeasonAggregate, error)
	GetLeagueAverages(ctx context.Context, season int) (*engine.LeagueAverages, error)
}

// ContextBuilder assembles prediction inputs for a matchup from stored
// game logs and aggregates.
type ContextBuilder struct {
	store        *Store
	aggs         AggregateReader
	recentWindow int
}

// NewContextBuilder creates a builder reading logs from store and
// aggregates from aggs. A nil aggs reads aggregates from the store
// directly; recentWindow <= 0 selects the default last-10 window.
func NewContextBuilder(store *Store, aggs AggregateReader, recentWindow int) *ContextBuilder {
	if aggs == nil {
		aggs = store
	}
	if recentWindow <= 0 {
		recentWindow = defaultRecentWindow
	}
	return &ContextBuilder{store: store, aggs: aggs, recentWindow: recentWindow}
}

// BuildMatchup loads everything a prediction needs for home vs away on
// the given date. Missing season aggregates or league averages fail with
// engine.ErrDataUnavailable; missing splits, recents and tier buckets
// degrade to their fallbacks.
func (b *ContextBuilder) BuildMatchup(ctx context.Context, season int, gameDate, home, away string) (*engine.MatchupContext, error) {
	if home == "" || away == "" {
		return nil, fmt.Errorf("home and away teams are required")
	}
	if home == away {
		return nil, fmt.Errorf("%s cannot play itself", home)
	}
	if _, err := time.Parse(GameDateFormat, gameDate); err != nil {
		return nil, fmt.Errorf("invalid game date %q: %w", gameDate, err)
	}

	league, err := b.aggs.GetLeagueAverages(ctx, season)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: no league averages for season %d", engine.ErrDataUnavailable, season)
		}
		return nil, err
	}

	homeAll, err := b.requiredAggregate(ctx, home, season)
	if err != nil {
		return nil, err
	}
	awayAll, err := b.requiredAggregate(ctx, away, season)
	if err != nil {
		return nil, err
	}

	homeSide, err := b.buildSide(ctx, season, gameDate, homeAll, awayAll, SplitHome)
	if err != nil {
		return nil, err
	}
	awaySide, err := b.buildSide(ctx, season, gameDate, awayAll, homeAll, SplitAway)
	if err != nil {
		return nil, err
	}

	slog.Debug("matchup context built",
		"season", season,
		"date", gameDate,
		"home", home,
		"away", away)

	return &engine.MatchupContext{
		Season:   season,
		GameDate: gameDate,
		Home:     *homeSide,
		Away:     *awaySide,
		League:   *league,
	}, nil
}

func (b *ContextBuilder) requiredAggregate(ctx context.Context, team string, season int) (*TeamSeasonAggregate, error) {
	agg, err := b.aggs.GetTeamSeasonAggregate(ctx, team, season, SplitAll)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: no season aggregate for %s in %d", engine.ErrDataUnavailable, team, season)
		}
		return nil, err
	}
	return agg, nil
}

func (b *ContextBuilder) buildSide(ctx context.Context, season int, gameDate string, own, opp *TeamSeasonAggregate, split string) (*engine.TeamContext, error) {
	tc := &engine.TeamContext{
		Team:       own.Team,
		Season:     own.SeasonStats,
		DefRank:    own.DefRank,
		FG3DefRank: own.FG3DefRank,
	}

	loc, err := b.aggs.GetTeamSeasonAggregate(ctx, own.Team, season, split)
	switch {
	case errors.Is(err, ErrNotFound):
		// No split sample yet, the full season row stands in.
		tc.Location = own.SeasonStats
	case err != nil:
		return nil, err
	default:
		tc.Location = loc.SeasonStats
	}

	recent, err := b.store.GetRecentGameLogs(ctx, own.Team, season, gameDate, b.recentWindow)
	if err != nil {
		return nil, err
	}
	tc.Recent = rollupRecent(recent)
	tc.Last5Pace = recentPace(recent, last5Window)

	if opp.DefRank > 0 {
		overall := engine.TierForRank(opp.DefRank)

		if opp.FG3DefRank > 0 {
			three := engine.ThreePointTierForRank(opp.FG3DefRank)
			both, err := b.store.GetTierBucketBoth(ctx, own.Team, season, gameDate, overall, three)
			if err != nil {
				return nil, err
			}
			tc.TierBoth = bucketOrNil(both)
		}

		byOverall, err := b.store.GetTierBucketOverall(ctx, own.Team, season, gameDate, overall)
		if err != nil {
			return nil, err
		}
		tc.TierOverall = bucketOrNil(byOverall)
	}

	vsElite, err := b.store.GetTierBucketOverall(ctx, own.Team, season, gameDate, engine.TierElite)
	if err != nil {
		return nil, err
	}
	tc.VsElite = bucketOrNil(vsElite)

	tc.RestDays, err = b.restDays(ctx, own.Team, season, gameDate)
	if err != nil {
		return nil, err
	}

	tc.LastThreeHomeWins, err = b.store.GetRecentHomeWins(ctx, own.Team, season, gameDate, homeWinsWindow)
	if err != nil {
		return nil, err
	}

	return tc, nil
}

// restDays counts full off days between the team's previous game and the
// matchup date: 0 is a back-to-back. Teams without a prior game are
// treated as neutral rest.
func (b *ContextBuilder) restDays(ctx context.Context, team string, season int, gameDate string) (int, error) {
	last, err := b.store.GetLastGameDate(ctx, team, season, gameDate)
	if errors.Is(err, ErrNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}

	prev, err := time.Parse(GameDateFormat, last)
	if err != nil {
		return 0, fmt.Errorf("invalid stored game date %q: %w", last, err)
	}
	next, err := time.Parse(GameDateFormat, gameDate)
	if err != nil {
		return 0, fmt.Errorf("invalid game date %q: %w", gameDate, err)
	}

	days := int(next.Sub(prev).Hours()/24) - 1
	if days < 0 {
		days = 0
	}
	if days > maxRestDays {
		days = maxRestDays
	}

	return days, nil
}

func rollupRecent(logs []*GameLog) *engine.RecentStats {
	if len(logs) == 0 {
		return nil
	}

	var (
		pace, twoPt, threePt, ft float64
		fg3m, fg3a, tov          float64
	)
	for _, gl := range logs {
		pace += gl.Pace
		twoPt += float64(2 * gl.FG2M)
		threePt += float64(3 * gl.FG3M)
		ft += float64(gl.FTM)
		fg3m += float64(gl.FG3M)
		fg3a += float64(gl.FG3A)
		tov += float64(gl.TOV)
	}

	n := float64(len(logs))

	return &engine.RecentStats{
		Games:      len(logs),
		Pace:       pace / n,
		TwoPtPPG:   twoPt / n,
		ThreePtPPG: threePt / n,
		FTPPG:      ft / n,
		FG3Pct:     rate(100*fg3m, fg3a),
		TOVPerGame: tov / n,
	}
}

// recentPace averages pace over the most recent n logs. The slice is
// already newest first.
func recentPace(logs []*GameLog, n int) float64 {
	if len(logs) == 0 {
		return 0
	}
	if len(logs) > n {
		logs = logs[:n]
	}

	var pace float64
	for _, gl := range logs {
		pace += gl.Pace
	}

	return pace / float64(len(logs))
}

func bucketOrNil(b *engine.TierBucket) *engine.TierBucket {
	if b == nil || b.Games == 0 {
		return nil
	}
	return b
}

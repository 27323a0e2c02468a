package data

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sportlines/totalcast/pkg/cache"
	"github.com/sportlines/totalcast/pkg/engine"
)

// CachedReader serves aggregate reads from an in-process TTL cache,
// falling through to the wrapped reader on miss. Backtests hit the same
// team rows once per game, so the cache removes most repeat queries.
type CachedReader struct {
	reader AggregateReader
	aggs   *cache.Cache[*TeamSeasonAggregate]
	league *cache.Cache[*engine.LeagueAverages]
}

// NewCachedReader wraps reader with caches bounded to maxEntries rows
// per kind, each entry expiring after ttl.
func NewCachedReader(reader AggregateReader, maxEntries int, ttl time.Duration) *CachedReader {
	opts := []cache.Option{
		cache.WithMaxEntries(maxEntries),
		cache.WithTTL(ttl),
	}
	return &CachedReader{
		reader: reader,
		aggs:   cache.New[*TeamSeasonAggregate](opts...),
		league: cache.New[*engine.LeagueAverages](opts...),
	}
}

// GetTeamSeasonAggregate implements AggregateReader.
func (r *CachedReader) GetTeamSeasonAggregate(ctx context.Context, team string, season int, split string) (*TeamSeasonAggregate, error) {
	key := fmt.Sprintf("%s|%d|%s", team, season, split)

	if agg, ok := r.aggs.Get(key); ok {
		return agg, nil
	}

	agg, err := r.reader.GetTeamSeasonAggregate(ctx, team, season, split)
	if err != nil {
		return nil, err
	}
	r.aggs.Set(key, agg)

	return agg, nil
}

// GetLeagueAverages implements AggregateReader.
func (r *CachedReader) GetLeagueAverages(ctx context.Context, season int) (*engine.LeagueAverages, error) {
	key := strconv.Itoa(season)

	if la, ok := r.league.Get(key); ok {
		return la, nil
	}

	la, err := r.reader.GetLeagueAverages(ctx, season)
	if err != nil {
		return nil, err
	}
	r.league.Set(key, la)

	return la, nil
}

// Purge drops every cached row. Call after a rebuild so stale aggregates
// never outlive the tables they mirror.
func (r *CachedReader) Purge() {
	r.aggs.Purge()
	r.league.Purge()
}

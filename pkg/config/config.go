package config

import (
	"fmt"
	"time"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all runtime settings. Values are layered from defaults,
// an optional YAML file, and TOTALCAST_* environment variables.
type Config struct {
	// DBDriver selects the storage backend: sqlite or postgres.
	DBDriver string `koanf:"db_driver"`
	// DBPath is the sqlite file path. Empty means $HOME/.totalcast/data.db.
	DBPath string `koanf:"db_path"`
	// DBDSN is the postgres connection string, required when DBDriver is postgres.
	DBDSN string `koanf:"db_dsn"`

	LogLevel string `koanf:"log_level"`

	// Season is the default season (labeled by its ending year, e.g. 2025
	// for 2024-25) used when a command does not pass one.
	Season int `koanf:"season"`

	// TrainingMonths bounds the default calibration window.
	TrainingMonths int `koanf:"training_months"`

	// RecentGames is the last-N window used for recency blending.
	RecentGames int `koanf:"recent_games"`

	CacheEnabled    bool `koanf:"cache_enabled"`
	CacheEntries    int  `koanf:"cache_entries"`
	CacheTTLMinutes int  `koanf:"cache_ttl_minutes"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		DBDriver:        DriverSQLite,
		LogLevel:        "info",
		Season:          CurrentSeason(time.Now()),
		TrainingMonths:  6,
		RecentGames:     10,
		CacheEnabled:    true,
		CacheEntries:    256,
		CacheTTLMinutes: 15,
	}
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DBDSN == "" {
			return fmt.Errorf("db_dsn is required when db_driver is %s", DriverPostgres)
		}
	default:
		return fmt.Errorf("unsupported db_driver: %s", c.DBDriver)
	}
	if c.Season < 1947 {
		return fmt.Errorf("invalid season: %d", c.Season)
	}
	if c.TrainingMonths < 1 {
		return fmt.Errorf("training_months must be positive, got %d", c.TrainingMonths)
	}
	if c.RecentGames < 3 {
		return fmt.Errorf("recent_games must be at least 3, got %d", c.RecentGames)
	}
	if c.CacheEnabled && (c.CacheEntries < 1 || c.CacheTTLMinutes < 1) {
		return fmt.Errorf("cache_entries and cache_ttl_minutes must be positive when cache is enabled")
	}
	return nil
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

// CurrentSeason labels a season by the year it ends in. Seasons start in
// October, so from October on the season is the following calendar year.
func CurrentSeason(now time.Time) int {
	if now.Month() >= time.October {
		return now.Year() + 1
	}
	return now.Year()
}

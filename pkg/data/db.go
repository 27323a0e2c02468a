package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	// DataFileName is the default sqlite file name inside the app home dir.
	DataFileName = "totalcast.db"

	// DriverSQLite and DriverPostgres double as database/sql driver names.
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// SplitAll, SplitHome and SplitAway name the aggregate rows kept per team.
	SplitAll  = "all"
	SplitHome = "home"
	SplitAway = "away"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrQualityGate is returned when a coefficient set fails the fit
	// quality threshold and must not be activated.
	ErrQualityGate = errors.New("coefficient quality below threshold")

	errStoreNotInitialized = errors.New("store not initialized")
)

// Store wraps a sql.DB for one of the supported drivers. All queries are
// written with ? placeholders and rebound for postgres at execution time.
type Store struct {
	db     *sql.DB
	driver string
}

// Open creates a Store for the given driver. For sqlite the dsn is the
// database file path, for postgres a connection string.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported db driver: %s", driver)
	}

	if dsn == "" {
		return nil, errors.New("empty dsn")
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if driver == DriverSQLite {
		// modernc sqlite serializes writes internally, a single
		// connection avoids table lock errors on concurrent rebuilds.
		db.SetMaxOpenConns(1)
	}

	slog.Debug("database opened", "driver", driver)

	return &Store{db: db, driver: driver}, nil
}

// Init applies the schema. Safe to call on every start.
func (s *Store) Init(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errStoreNotInitialized
	}

	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	slog.Debug("schema applied", "statements", len(schemaStatements))

	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errStoreNotInitialized
	}
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders to $1..$n for postgres. The sqlite
// driver takes the query unchanged.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/sportlines/totalcast/pkg/config"
	"github.com/sportlines/totalcast/pkg/data"
	"github.com/sportlines/totalcast/pkg/logging"
	urfave "github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const (
	dirMode      = 0700
	appConfigKey = "app-config"

	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	outputFormat = formatJSON

	debugFlag = &urfave.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}

	dbFilePathFlag = &urfave.StringFlag{
		Name:  "db",
		Usage: "Path to the Sqlite database file (defaults to $HOME/.totalcast/totalcast.db)",
	}

	formatFlag = &urfave.StringFlag{
		Name:  "format",
		Usage: "Output format [json, yaml]",
		Value: formatJSON,
	}

	seasonFlag = &urfave.IntFlag{
		Name:  "season",
		Usage: "Season by its ending year, e.g. 2026 for 2025-26 (optional, defaults to the current season)",
	}
)

// Execute creates and runs the CLI application.
func Execute() {
	app, err := newApp()
	if err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	Config *config.Config
	Store  *data.Store
	Reader data.AggregateReader
}

func getConfig(c *urfave.Context) *appConfig {
	return c.App.Metadata[appConfigKey].(*appConfig)
}

// season resolves the effective season for a command: the --season flag
// when set, the configured default otherwise.
func (a *appConfig) season(c *urfave.Context) int {
	if s := c.Int(seasonFlag.Name); s > 0 {
		return s
	}
	return a.Config.Season
}

func newApp() (*urfave.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logging.SetDefaultCLILogger(cfg.LogLevel)

	return &urfave.App{
		Name:                 "totalcast",
		Version:              fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Compiled:             time.Now(),
		EnableBashCompletion: true,
		HideHelpCommand:      true,
		Usage:                "CLI for projecting NBA game totals from historical box scores",
		Flags: []urfave.Flag{
			debugFlag,
			dbFilePathFlag,
			formatFlag,
		},
		Commands: []*urfave.Command{
			importCmd,
			aggregateCmd,
			calibrateCmd,
			coefficientsCmd,
			predictCmd,
			paceCmd,
			backtestCmd,
			dataCmd,
		},
		Before: func(c *urfave.Context) error {
			if c.Bool(debugFlag.Name) {
				cfg.LogLevel = "debug"
				logging.SetDefaultCLILogger(cfg.LogLevel)
			}

			f := c.String(formatFlag.Name)
			if f == formatYAML || f == "yml" {
				outputFormat = formatYAML
			}

			if dbPath := c.String(dbFilePathFlag.Name); dbPath != "" {
				cfg.DBPath = dbPath
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}

			if err := store.Init(commandContext(c)); err != nil {
				return fmt.Errorf("initializing database: %w", err)
			}

			var reader data.AggregateReader = store
			if cfg.CacheEnabled {
				reader = data.NewCachedReader(store, cfg.CacheEntries, cfg.CacheTTL())
			}

			c.App.Metadata[appConfigKey] = &appConfig{
				Config: cfg,
				Store:  store,
				Reader: reader,
			}
			return nil
		},
		After: func(c *urfave.Context) error {
			if a, ok := c.App.Metadata[appConfigKey].(*appConfig); ok && a.Store != nil {
				if err := a.Store.Close(); err != nil {
					slog.Warn("error closing database", "error", err)
				}
			}
			return nil
		},
	}, nil
}

func openStore(cfg *config.Config) (*data.Store, error) {
	dsn := cfg.DBDSN
	if cfg.DBDriver == config.DriverSQLite {
		dsn = cfg.DBPath
		if dsn == "" {
			dsn = path.Join(getHomeDir(), data.DataFileName)
		}
	}

	store, err := data.Open(cfg.DBDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return store, nil
}

func getHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		slog.Debug("error getting home dir, using current dir instead", "error", err)
		return "."
	}

	dirPath := filepath.Join(home, ".totalcast")
	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dirPath)
		if err := os.Mkdir(dirPath, dirMode); err != nil {
			slog.Debug("error creating dir", "path", dirPath, "home", home, "error", err)
			return home
		}
	}
	return dirPath
}

func encode(v any) error {
	if outputFormat == formatYAML {
		return yaml.NewEncoder(os.Stdout).Encode(v)
	}
	e := json.NewEncoder(os.Stdout)
	e.SetIndent("", "  ")
	return e.Encode(v)
}

// today returns the current date in the game-date format.
func today() string {
	return time.Now().Format(data.GameDateFormat)
}

func commandContext(c *urfave.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}

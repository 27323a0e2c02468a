package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sportlines/totalcast/pkg/data"
	"github.com/sportlines/totalcast/pkg/engine"
	"github.com/urfave/cli/v2"
)

var (
	importFileFlag = &cli.StringFlag{
		Name:  "file",
		Usage: "Path to the game log CSV file",
	}

	backfillFlag = &cli.BoolFlag{
		Name:  "backfill",
		Usage: "Backfill opponent pace and defensive ranks onto imported game logs",
	}

	importCmd = &cli.Command{
		Name:    "import",
		Aliases: []string{"i"},
		Usage:   "Import game log box scores from a local CSV file",
		UsageText: `totalcast import --file games.csv                   # import box scores
   totalcast import --backfill --season 2026           # fill opponent context
   totalcast import --file games.csv --backfill        # both in one pass`,
		Action: cmdImport,
		Flags: []cli.Flag{
			importFileFlag,
			backfillFlag,
			seasonFlag,
		},
	}

	aggregateCmd = &cli.Command{
		Name:    "aggregate",
		Aliases: []string{"a"},
		Usage:   "Rebuild season aggregates and league ranks from game logs",
		Action:  cmdAggregate,
		Flags: []cli.Flag{
			seasonFlag,
		},
	}
)

// importReport is the import command output.
type importReport struct {
	File       string   `json:"file,omitempty" yaml:"file,omitempty"`
	Received   int      `json:"received,omitempty" yaml:"received,omitempty"`
	Inserted   int      `json:"inserted,omitempty" yaml:"inserted,omitempty"`
	Skipped    int      `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Rejected   []string `json:"rejected,omitempty" yaml:"rejected,omitempty"`
	Backfilled int64    `json:"backfilled,omitempty" yaml:"backfilled,omitempty"`
	Duration   string   `json:"duration" yaml:"duration"`
}

func cmdImport(c *cli.Context) error {
	file := c.String(importFileFlag.Name)
	backfill := c.Bool(backfillFlag.Name)

	if file == "" && !backfill {
		return cli.ShowSubcommandHelp(c)
	}

	start := time.Now()
	ctx := commandContext(c)
	cfg := getConfig(c)

	rep := &importReport{File: file}

	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", file, err)
		}
		defer f.Close()

		parsed, err := data.ParseGameLogCSV(f)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", file, err)
		}

		slog.Info("importing game logs", "file", file, "rows", len(parsed.Logs))

		res, err := cfg.Store.SaveGameLogs(ctx, parsed.Logs)
		if err != nil {
			return fmt.Errorf("failed to save game logs: %w", err)
		}

		rep.Received = res.Received + len(parsed.Rejected)
		rep.Inserted = res.Inserted
		rep.Skipped = res.Skipped
		rep.Rejected = append(parsed.Rejected, res.Rejected...)
	}

	if backfill {
		season := cfg.season(c)
		slog.Info("backfilling opponent context", "season", season)

		n, err := cfg.Store.BackfillOpponentContext(ctx, season)
		if err != nil {
			return fmt.Errorf("failed to backfill opponent context: %w", err)
		}
		rep.Backfilled = n
	}

	rep.Duration = time.Since(start).String()

	if err := encode(rep); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}

	return nil
}

type aggregateReport struct {
	Season   int     `json:"season" yaml:"season"`
	Teams    int     `json:"teams" yaml:"teams"`
	FTWeight float64 `json:"ft_weight" yaml:"ftWeight"`
	Duration string  `json:"duration" yaml:"duration"`
}

func cmdAggregate(c *cli.Context) error {
	start := time.Now()
	ctx := commandContext(c)
	cfg := getConfig(c)
	season := cfg.season(c)

	// The possession estimate inside the rollup uses the season's learned
	// free throw weight when a calibration exists.
	ftWeight := engine.DefaultCoefficients().FTPossessionWeight
	cs, err := cfg.Store.GetActiveCoefficientSet(ctx, season)
	switch {
	case errors.Is(err, data.ErrNotFound):
		slog.Debug("no active calibration, using default ft weight", "season", season)
	case err != nil:
		return err
	default:
		ftWeight = cs.FTPossessionWeight
	}

	teams, err := cfg.Store.RebuildSeasonAggregates(ctx, season, ftWeight)
	if err != nil {
		return fmt.Errorf("failed to rebuild aggregates for %d: %w", season, err)
	}

	if cached, ok := cfg.Reader.(*data.CachedReader); ok {
		cached.Purge()
	}

	if err := encode(&aggregateReport{
		Season:   season,
		Teams:    teams,
		FTWeight: ftWeight,
		Duration: time.Since(start).String(),
	}); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}

	return nil
}

package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/sportlines/totalcast/pkg/data"
	"github.com/sportlines/totalcast/pkg/learner"
	"github.com/urfave/cli/v2"
)

var (
	fromFlag = &cli.StringFlag{
		Name:  "from",
		Usage: "Training window start date (YYYY-MM-DD, defaults to training_months back)",
	}

	toFlag = &cli.StringFlag{
		Name:  "to",
		Usage: "Training window end date (YYYY-MM-DD, defaults to today)",
	}

	dryRunFlag = &cli.BoolFlag{
		Name:  "dry-run",
		Usage: "Fit coefficients and report them without saving or activating",
	}

	calibrateCmd = &cli.Command{
		Name:    "calibrate",
		Aliases: []string{"c"},
		Usage:   "Fit and activate a new coefficient set from a training window",
		UsageText: `totalcast calibrate --season 2026                         # default window
   totalcast calibrate --from 2025-11-01 --to 2026-01-31     # explicit window
   totalcast calibrate --dry-run                             # fit only, no save`,
		Action: cmdCalibrate,
		Flags: []cli.Flag{
			seasonFlag,
			fromFlag,
			toFlag,
			dryRunFlag,
		},
	}

	coefficientsCmd = &cli.Command{
		Name:    "coefficients",
		Aliases: []string{"coeff"},
		Usage:   "List coefficient set operations",
		Subcommands: []*cli.Command{
			{
				Name:    "active",
				Usage:   "Show the season's active coefficient set",
				Aliases: []string{"a"},
				Action:  cmdCoefficientsActive,
				Flags: []cli.Flag{
					seasonFlag,
				},
			},
			{
				Name:    "list",
				Usage:   "List the season's coefficient sets, newest first",
				Aliases: []string{"l"},
				Action:  cmdCoefficientsList,
				Flags: []cli.Flag{
					seasonFlag,
				},
			},
		},
	}
)

// trainingWindow resolves the calibration date range, defaulting to the
// configured number of months ending today.
func trainingWindow(c *cli.Context, months int) (from, to string) {
	from = c.String(fromFlag.Name)
	to = c.String(toFlag.Name)

	now := time.Now()
	if to == "" {
		to = now.Format(data.GameDateFormat)
	}
	if from == "" {
		from = now.AddDate(0, -months, 0).Format(data.GameDateFormat)
	}
	return from, to
}

func cmdCalibrate(c *cli.Context) error {
	cfg := getConfig(c)
	ctx := commandContext(c)
	season := cfg.season(c)
	from, to := trainingWindow(c, cfg.Config.TrainingMonths)

	slog.Info("calibrating", "season", season, "from", from, "to", to)

	l := learner.New(cfg.Store)

	var (
		cs  *data.CoefficientSet
		err error
	)
	if c.Bool(dryRunFlag.Name) {
		cs, err = l.Learn(ctx, season, from, to)
	} else {
		cs, err = learner.NewRunner(l).CalibrateSeason(ctx, season, from, to)
	}
	if err != nil {
		return fmt.Errorf("calibration failed: %w", err)
	}

	if err := encode(cs); err != nil {
		return fmt.Errorf("error encoding coefficient set: %w", err)
	}

	return nil
}

func cmdCoefficientsActive(c *cli.Context) error {
	cfg := getConfig(c)

	cs, err := cfg.Store.GetActiveCoefficientSet(commandContext(c), cfg.season(c))
	if err != nil {
		return err
	}

	if err := encode(cs); err != nil {
		return fmt.Errorf("error encoding coefficient set: %w", err)
	}

	return nil
}

func cmdCoefficientsList(c *cli.Context) error {
	cfg := getConfig(c)

	sets, err := cfg.Store.ListCoefficientSets(commandContext(c), cfg.season(c))
	if err != nil {
		return err
	}

	if err := encode(sets); err != nil {
		return fmt.Errorf("error encoding coefficient sets: %w", err)
	}

	return nil
}

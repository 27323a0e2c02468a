package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sportlines/totalcast/pkg/data"
	"github.com/sportlines/totalcast/pkg/engine"
	"github.com/urfave/cli/v2"
)

var (
	homeTeamFlag = &cli.StringFlag{
		Name:     "home",
		Usage:    "Home team abbreviation",
		Required: true,
	}

	awayTeamFlag = &cli.StringFlag{
		Name:     "away",
		Usage:    "Away team abbreviation",
		Required: true,
	}

	gameDateFlag = &cli.StringFlag{
		Name:  "date",
		Usage: "Game date (YYYY-MM-DD, defaults to today)",
	}

	lineFlag = &cli.Float64Flag{
		Name:  "line",
		Usage: "Reference total line to recommend against (optional)",
	}

	defaultCoefficientsFlag = &cli.BoolFlag{
		Name:  "default-coefficients",
		Usage: "Use the neutral default coefficients instead of the season's active calibration",
	}

	predictCmd = &cli.Command{
		Name:    "predict",
		Aliases: []string{"p"},
		Usage:   "Project the combined game total for a matchup",
		UsageText: `totalcast predict --home BOS --away DEN --line 228.5
   totalcast predict --home BOS --away DEN --date 2026-01-15
   totalcast predict --home BOS --away DEN --default-coefficients`,
		Action: cmdPredict,
		Flags: []cli.Flag{
			homeTeamFlag,
			awayTeamFlag,
			gameDateFlag,
			lineFlag,
			seasonFlag,
			defaultCoefficientsFlag,
		},
	}

	paceCmd = &cli.Command{
		Name:   "pace",
		Usage:  "Project the game pace for a matchup without a full prediction",
		Action: cmdPace,
		Flags: []cli.Flag{
			homeTeamFlag,
			awayTeamFlag,
			gameDateFlag,
			seasonFlag,
		},
	}
)

// resolveCoefficients returns the weights a prediction should run with:
// the season's active calibration, or the neutral defaults when the
// caller explicitly asks for them.
func resolveCoefficients(ctx context.Context, cfg *appConfig, season int, useDefaults bool) (engine.Coefficients, error) {
	if useDefaults {
		slog.Debug("using default coefficients", "season", season)
		return engine.DefaultCoefficients(), nil
	}

	cs, err := cfg.Store.GetActiveCoefficientSet(ctx, season)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return engine.Coefficients{}, fmt.Errorf(
				"%w (run calibrate first or pass --%s)", err, defaultCoefficientsFlag.Name)
		}
		return engine.Coefficients{}, err
	}

	slog.Debug("using active coefficients",
		"season", cs.Season,
		"version", cs.Version,
		"r2_possession", cs.R2Possession)

	return cs.Engine(), nil
}

func buildMatchup(c *cli.Context) (*engine.MatchupContext, error) {
	cfg := getConfig(c)
	season := cfg.season(c)

	gameDate := c.String(gameDateFlag.Name)
	if gameDate == "" {
		gameDate = today()
	}

	builder := data.NewContextBuilder(cfg.Store, cfg.Reader, cfg.Config.RecentGames)

	return builder.BuildMatchup(commandContext(c), season,
		gameDate, c.String(homeTeamFlag.Name), c.String(awayTeamFlag.Name))
}

func cmdPredict(c *cli.Context) error {
	cfg := getConfig(c)
	ctx := commandContext(c)

	m, err := buildMatchup(c)
	if err != nil {
		return fmt.Errorf("failed to build matchup: %w", err)
	}
	m.Line = c.Float64(lineFlag.Name)

	coeffs, err := resolveCoefficients(ctx, cfg, cfg.season(c), c.Bool(defaultCoefficientsFlag.Name))
	if err != nil {
		return err
	}

	res, err := engine.NewPredictor(coeffs).PredictTotal(*m)
	if err != nil {
		return fmt.Errorf("prediction failed: %w", err)
	}

	if err := encode(res); err != nil {
		return fmt.Errorf("error encoding prediction: %w", err)
	}

	return nil
}

func cmdPace(c *cli.Context) error {
	m, err := buildMatchup(c)
	if err != nil {
		return fmt.Errorf("failed to build matchup: %w", err)
	}

	pace := engine.ProjectPace(paceInputsFor(m.Home), paceInputsFor(m.Away))

	if err := encode(pace); err != nil {
		return fmt.Errorf("error encoding pace projection: %w", err)
	}

	return nil
}

func paceInputsFor(t engine.TeamContext) engine.PaceInputs {
	return engine.PaceInputs{
		SeasonPace: t.Season.Pace,
		Last5Pace:  t.Last5Pace,
		TOVPerGame: t.Season.TOVPerGame,
		FTRate:     t.Season.FTRate,
		DefRank:    t.DefRank,
	}
}

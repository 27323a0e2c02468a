package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/sportlines/totalcast/pkg/data"
	"github.com/sportlines/totalcast/pkg/engine"
	"github.com/urfave/cli/v2"
)

const (
	// Backtest buckets group games by predicted total in 10 point bands.
	bucketWidth = 10.0
	bucketMin   = 190.0
	bucketMax   = 250.0
)

var (
	backtestCmd = &cli.Command{
		Name:    "backtest",
		Aliases: []string{"b"},
		Usage:   "Replay played games and score predictions against final totals",
		UsageText: `totalcast backtest --season 2026 --from 2026-01-01 --to 2026-02-01
   totalcast backtest --season 2026 --default-coefficients`,
		Action: cmdBacktest,
		Flags: []cli.Flag{
			seasonFlag,
			fromFlag,
			toFlag,
			defaultCoefficientsFlag,
		},
	}
)

// backtestBucket scores one band of predicted totals. A well calibrated
// model keeps MeanActual close to MeanPredicted in every band.
type backtestBucket struct {
	Label         string  `json:"label" yaml:"label"`
	Games         int     `json:"games" yaml:"games"`
	MeanPredicted float64 `json:"mean_predicted" yaml:"meanPredicted"`
	MeanActual    float64 `json:"mean_actual" yaml:"meanActual"`
}

type backtestGame struct {
	GameDate  string  `json:"game_date" yaml:"gameDate"`
	Home      string  `json:"home" yaml:"home"`
	Away      string  `json:"away" yaml:"away"`
	Predicted float64 `json:"predicted" yaml:"predicted"`
	Actual    float64 `json:"actual" yaml:"actual"`
	Error     float64 `json:"error" yaml:"error"`
}

type backtestReport struct {
	Season  int    `json:"season" yaml:"season"`
	From    string `json:"from" yaml:"from"`
	To      string `json:"to" yaml:"to"`
	Games   int    `json:"games" yaml:"games"`
	Skipped int    `json:"skipped" yaml:"skipped"`

	MAE             float64 `json:"mae" yaml:"mae"`
	MeanSignedError float64 `json:"mean_signed_error" yaml:"meanSignedError"`

	Buckets []*backtestBucket `json:"buckets" yaml:"buckets"`
	Worst   []*backtestGame   `json:"worst,omitempty" yaml:"worst,omitempty"`

	Duration string `json:"duration" yaml:"duration"`
}

func cmdBacktest(c *cli.Context) error {
	start := time.Now()
	cfg := getConfig(c)
	ctx := commandContext(c)
	season := cfg.season(c)
	from, to := trainingWindow(c, cfg.Config.TrainingMonths)

	coeffs, err := resolveCoefficients(ctx, cfg, season, c.Bool(defaultCoefficientsFlag.Name))
	if err != nil {
		return err
	}

	games, err := cfg.Store.GetPlayedGames(ctx, season, from, to)
	if err != nil {
		return fmt.Errorf("failed to load played games: %w", err)
	}
	if len(games) == 0 {
		return fmt.Errorf("no played games for season %d between %s and %s", season, from, to)
	}

	builder := data.NewContextBuilder(cfg.Store, cfg.Reader, cfg.Config.RecentGames)
	predictor := engine.NewPredictor(coeffs)

	rep := &backtestReport{Season: season, From: from, To: to}

	var (
		absSum, signedSum float64
		scored            []*backtestGame
	)
	for _, g := range games {
		// Contexts are built as of the game date, so only games and
		// splits that preceded tip-off feed each prediction.
		m, err := builder.BuildMatchup(ctx, season, g.GameDate, g.Home, g.Away)
		if err != nil {
			if errors.Is(err, engine.ErrDataUnavailable) {
				slog.Debug("skipping game", "date", g.GameDate, "home", g.Home, "away", g.Away, "error", err)
				rep.Skipped++
				continue
			}
			return err
		}

		res, err := predictor.PredictTotal(*m)
		if err != nil {
			if errors.Is(err, engine.ErrDataUnavailable) {
				rep.Skipped++
				continue
			}
			return err
		}

		diff := res.ProjectedTotal - g.Total()
		absSum += math.Abs(diff)
		signedSum += diff
		rep.Games++

		scored = append(scored, &backtestGame{
			GameDate:  g.GameDate,
			Home:      g.Home,
			Away:      g.Away,
			Predicted: res.ProjectedTotal,
			Actual:    g.Total(),
			Error:     diff,
		})
	}

	if rep.Games == 0 {
		return fmt.Errorf("no scorable games for season %d between %s and %s (skipped %d)",
			season, from, to, rep.Skipped)
	}

	n := float64(rep.Games)
	rep.MAE = absSum / n
	rep.MeanSignedError = signedSum / n
	rep.Buckets = bucketize(scored)
	rep.Worst = worstGames(scored, 5)
	rep.Duration = time.Since(start).String()

	slog.Info("backtest complete",
		"games", rep.Games,
		"skipped", rep.Skipped,
		"mae", rep.MAE,
		"bias", rep.MeanSignedError)

	if err := encode(rep); err != nil {
		return fmt.Errorf("error encoding backtest report: %w", err)
	}

	return nil
}

func bucketize(games []*backtestGame) []*backtestBucket {
	byBound := make(map[float64]*backtestBucket)

	for _, g := range games {
		lo := bucketLowerBound(g.Predicted)
		b, ok := byBound[lo]
		if !ok {
			b = &backtestBucket{Label: bucketLabel(g.Predicted)}
			byBound[lo] = b
		}
		b.Games++
		b.MeanPredicted += g.Predicted
		b.MeanActual += g.Actual
	}

	bounds := make([]float64, 0, len(byBound))
	for lo := range byBound {
		bounds = append(bounds, lo)
	}
	sort.Float64s(bounds)

	buckets := make([]*backtestBucket, 0, len(bounds))
	for _, lo := range bounds {
		b := byBound[lo]
		n := float64(b.Games)
		b.MeanPredicted /= n
		b.MeanActual /= n
		buckets = append(buckets, b)
	}
	return buckets
}

func bucketLowerBound(predicted float64) float64 {
	if predicted < bucketMin {
		return math.Inf(-1)
	}
	if predicted >= bucketMax {
		return bucketMax
	}
	return bucketMin + math.Floor((predicted-bucketMin)/bucketWidth)*bucketWidth
}

func bucketLabel(predicted float64) string {
	if predicted < bucketMin {
		return fmt.Sprintf("<%.0f", bucketMin)
	}
	if predicted >= bucketMax {
		return fmt.Sprintf("%.0f+", bucketMax)
	}
	lo := bucketLowerBound(predicted)
	return fmt.Sprintf("%.0f-%.0f", lo, lo+bucketWidth)
}

// worstGames returns the n largest misses by absolute error.
func worstGames(games []*backtestGame, n int) []*backtestGame {
	sorted := make([]*backtestGame, len(games))
	copy(sorted, games)

	sort.Slice(sorted, func(i, j int) bool {
		return math.Abs(sorted[i].Error) > math.Abs(sorted[j].Error)
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

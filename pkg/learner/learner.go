package learner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sportlines/totalcast/pkg/data"
	"github.com/sportlines/totalcast/pkg/engine"
)

const (
	// minTrainingGames is the smallest usable training window, counted
	// in team-game lines.
	minTrainingGames = 40

	// Bounds keeping a stored free throw weight sane even on odd fits.
	minFTWeight = 0.10
	maxFTWeight = 0.90
)

// Learner fits a season's coefficient set from played games.
type Learner struct {
	store *data.Store
}

func New(store *data.Store) *Learner {
	return &Learner{store: store}
}

// samples are the per-game observations each fit consumes.
type samples struct {
	fg2X1, fg2X2, fg2Y, fg2W []float64
	fg3X1, fg3X2, fg3Y, fg3W []float64

	possX, possY []float64

	tovTeam, tovOpp, tovActual []float64

	games   int
	skipped int
}

// Learn fits coefficients from the season's games between from and to
// inclusive. Fits that cannot be estimated fall back to the neutral
// defaults with a zero quality score, which the store's gate will
// reject on save.
func (l *Learner) Learn(ctx context.Context, season int, from, to string) (*data.CoefficientSet, error) {
	if err := validateWindow(from, to); err != nil {
		return nil, err
	}

	logs, err := l.store.GetSeasonGameLogs(ctx, season, from, to)
	if err != nil {
		return nil, err
	}

	smp, err := l.collectSamples(ctx, season, logs)
	if err != nil {
		return nil, err
	}
	if smp.games < minTrainingGames {
		return nil, fmt.Errorf("insufficient training data: %d game lines between %s and %s, need %d",
			smp.games, from, to, minTrainingGames)
	}

	defaults := engine.DefaultCoefficients()
	cs := &data.CoefficientSet{
		Season:             season,
		TrainedFrom:        from,
		TrainedTo:          to,
		Games:              smp.games,
		A2:                 defaults.A2,
		B2:                 defaults.B2,
		A3:                 defaults.A3,
		B3:                 defaults.B3,
		FTPossessionWeight: defaults.FTPossessionWeight,
		TOVTeamWeight:      defaults.TOVTeamWeight,
		TOVOppWeight:       defaults.TOVOppWeight,
	}

	if f := wlsTwoPredictor(smp.fg2X1, smp.fg2X2, smp.fg2Y, smp.fg2W); f.ok {
		cs.A2, cs.B2, cs.R2Shooting2 = f.a, f.b, f.r2
	}
	if f := wlsTwoPredictor(smp.fg3X1, smp.fg3X2, smp.fg3Y, smp.fg3W); f.ok {
		cs.A3, cs.B3, cs.R2Shooting3 = f.a, f.b, f.r2
	}
	if f := olsThroughOrigin(smp.possX, smp.possY); f.ok {
		cs.FTPossessionWeight = clampWeight(f.a, minFTWeight, maxFTWeight)
		cs.R2Possession = f.r2
	}
	if b := fitTurnoverBlend(smp.tovTeam, smp.tovOpp, smp.tovActual); b.ok {
		cs.TOVTeamWeight = b.teamWeight
		cs.TOVOppWeight = b.oppWeight
	}

	slog.Debug("coefficients fitted",
		"season", season,
		"from", from,
		"to", to,
		"games", smp.games,
		"skipped", smp.skipped,
		"ft_weight", cs.FTPossessionWeight,
		"r2_shooting2", cs.R2Shooting2,
		"r2_shooting3", cs.R2Shooting3,
		"r2_possession", cs.R2Possession,
		"tov_team_weight", cs.TOVTeamWeight)

	return cs, nil
}

// Calibrate fits and activates a new coefficient set for the season.
// The store's quality gate decides whether the fit may go live.
func (l *Learner) Calibrate(ctx context.Context, season int, from, to string) (*data.CoefficientSet, error) {
	cs, err := l.Learn(ctx, season, from, to)
	if err != nil {
		return nil, err
	}

	if err := l.store.SaveCoefficientSet(ctx, cs); err != nil {
		return nil, err
	}

	return cs, nil
}

func (l *Learner) collectSamples(ctx context.Context, season int, logs []*data.GameLog) (*samples, error) {
	smp := &samples{}
	aggs := make(map[string]*data.TeamSeasonAggregate)

	// The engine applies a2/b2 and a3/b3 to team-vs-league and
	// opponent-allowed-vs-league deltas, so the fit must see the same
	// centered predictors, not raw percentages.
	league, err := l.store.GetLeagueAverages(ctx, season)
	if err != nil {
		if !errors.Is(err, data.ErrNotFound) {
			return nil, err
		}
		league = nil
	}

	lookup := func(team string) (*data.TeamSeasonAggregate, error) {
		if a, ok := aggs[team]; ok {
			return a, nil
		}
		a, err := l.store.GetTeamSeasonAggregate(ctx, team, season, data.SplitAll)
		if err != nil {
			if errors.Is(err, data.ErrNotFound) {
				aggs[team] = nil
				return nil, nil
			}
			return nil, err
		}
		aggs[team] = a
		return a, nil
	}

	for _, gl := range logs {
		team, err := lookup(gl.Team)
		if err != nil {
			return nil, err
		}
		opp, err := lookup(gl.Opponent)
		if err != nil {
			return nil, err
		}
		if team == nil || opp == nil {
			smp.skipped++
			continue
		}

		smp.games++

		if league != nil && gl.FG2A > 0 && team.FG2Pct > 0 && opp.OppFG2Pct > 0 {
			smp.fg2X1 = append(smp.fg2X1, team.FG2Pct-league.FG2Pct)
			smp.fg2X2 = append(smp.fg2X2, opp.OppFG2Pct-league.FG2Pct)
			smp.fg2Y = append(smp.fg2Y, 100*float64(gl.FG2M)/float64(gl.FG2A)-league.FG2Pct)
			smp.fg2W = append(smp.fg2W, float64(gl.FG2A))
		}

		if league != nil && gl.FG3A > 0 && team.FG3Pct > 0 && opp.OppFG3Pct > 0 {
			smp.fg3X1 = append(smp.fg3X1, team.FG3Pct-league.FG3Pct)
			smp.fg3X2 = append(smp.fg3X2, opp.OppFG3Pct-league.FG3Pct)
			smp.fg3Y = append(smp.fg3Y, 100*float64(gl.FG3M)/float64(gl.FG3A)-league.FG3Pct)
			smp.fg3W = append(smp.fg3W, float64(gl.FG3A))
		}

		actual := gl.ActualPossessions()
		if actual > 0 {
			// what the free throws must explain once shots, boards
			// and giveaways are accounted for
			base := float64(gl.FieldGoalAttempts()) - float64(gl.OREB) + float64(gl.TOV)
			smp.possX = append(smp.possX, float64(gl.FTA))
			smp.possY = append(smp.possY, actual-base)

			if team.TOVPct > 0 && opp.OppTOVPct > 0 {
				smp.tovTeam = append(smp.tovTeam, team.TOVPct)
				smp.tovOpp = append(smp.tovOpp, opp.OppTOVPct)
				smp.tovActual = append(smp.tovActual, 100*float64(gl.TOV)/actual)
			}
		}
	}

	return smp, nil
}

func validateWindow(from, to string) error {
	start, err := time.Parse(data.GameDateFormat, from)
	if err != nil {
		return fmt.Errorf("invalid from date %q: %w", from, err)
	}
	end, err := time.Parse(data.GameDateFormat, to)
	if err != nil {
		return fmt.Errorf("invalid to date %q: %w", to, err)
	}
	if end.Before(start) {
		return fmt.Errorf("training window ends before it starts: %s to %s", from, to)
	}
	return nil
}

func clampWeight(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

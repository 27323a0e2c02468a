package engine

import "log/slog"

const (
	shootoutTeamWeight  = 1.0
	shootoutOppWeight   = 0.8
	shootoutTrendWeight = 0.6
	shootoutPaceWeight  = 0.5

	shootoutPaceBaseline = 100.0

	restedDays = 2

	shootoutTierHigh = 10.0
	shootoutTierMid  = 6.0
	shootoutTierLow  = 3.0

	shootoutMultHigh = 0.8
	shootoutMultMid  = 0.6
	shootoutMultLow  = 0.4
)

// ShootoutInputs feed one side's dynamic shootout score. Percentages are
// percent units; deltas are computed against the league mean.
type ShootoutInputs struct {
	TeamFG3Pct       float64
	RecentFG3Pct     float64
	OppAllowedFG3Pct float64
	LeagueFG3Pct     float64
	GamePace         float64
	RestDays         int
}

// ShootoutScore combines 3PT ability, opponent 3PT defense, the
// recent-vs-season trend, pace, and rest into a raw score, then maps it
// through the tier multipliers. Raw scores of 3 or less contribute
// nothing; the result is never negative.
func ShootoutScore(in ShootoutInputs) (raw, points float64) {
	teamDelta := in.TeamFG3Pct - in.LeagueFG3Pct
	if teamDelta < 0 {
		teamDelta = 0
	}

	oppDelta := in.OppAllowedFG3Pct - in.LeagueFG3Pct
	if oppDelta < 0 {
		oppDelta = 0
	}

	var trend float64
	if in.RecentFG3Pct > 0 {
		trend = in.RecentFG3Pct - in.TeamFG3Pct
		if trend < 0 {
			trend = 0
		}
	}

	var paceFactor float64
	if in.GamePace > shootoutPaceBaseline {
		paceFactor = in.GamePace - shootoutPaceBaseline
	}

	var rest float64
	switch {
	case in.RestDays >= restedDays:
		rest = 1.0
	case in.RestDays == 0:
		rest = -1.0
	}

	raw = shootoutTeamWeight*teamDelta +
		shootoutOppWeight*oppDelta +
		shootoutTrendWeight*trend +
		shootoutPaceWeight*paceFactor +
		rest

	points = raw * shootoutMultiplier(raw)
	if points < 0 {
		points = 0
	}

	slog.Debug("shootout score",
		"team_delta", teamDelta,
		"opp_delta", oppDelta,
		"trend", trend,
		"pace_factor", paceFactor,
		"rest", rest,
		"raw", raw,
		"points", points)

	return raw, points
}

func shootoutMultiplier(raw float64) float64 {
	switch {
	case raw > shootoutTierHigh:
		return shootoutMultHigh
	case raw > shootoutTierMid:
		return shootoutMultMid
	case raw > shootoutTierLow:
		return shootoutMultLow
	default:
		return 0
	}
}

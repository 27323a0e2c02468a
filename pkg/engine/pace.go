package engine

import "log/slog"

const (
	paceSeasonWeight = 0.60
	paceRecentWeight = 0.40

	paceFloor   = 92.0
	paceCeiling = 108.0

	paceMismatchMinor = 5.0
	paceMismatchMajor = 8.0

	tovBaselinePerGame = 15.0
	tovPaceLift        = 0.3

	ftRateBaseline  = 0.25
	ftRatePaceScale = 10.0

	eliteDefensePaceDrag = 1.5
)

// PaceInputs are one team's contribution to the game-pace projection.
type PaceInputs struct {
	SeasonPace float64
	Last5Pace  float64
	TOVPerGame float64
	FTRate     float64
	DefRank    int
}

// TeamPace is the blended per-team pace and its parts.
type TeamPace struct {
	Season  float64 `json:"season" yaml:"season"`
	Last5   float64 `json:"last5" yaml:"last5"`
	Blended float64 `json:"blended" yaml:"blended"`
}

// PaceProjection is the projected game pace with its full step breakdown.
type PaceProjection struct {
	Home TeamPace `json:"home" yaml:"home"`
	Away TeamPace `json:"away" yaml:"away"`

	Base            float64 `json:"base" yaml:"base"`
	MismatchPenalty float64 `json:"mismatch_penalty" yaml:"mismatchPenalty"`
	TurnoverImpact  float64 `json:"turnover_impact" yaml:"turnoverImpact"`
	FTPenalty       float64 `json:"ft_penalty" yaml:"ftPenalty"`
	EliteDefPenalty float64 `json:"elite_def_penalty" yaml:"eliteDefPenalty"`

	Raw     float64 `json:"raw" yaml:"raw"`
	Pace    float64 `json:"pace" yaml:"pace"`
	Clamped bool    `json:"clamped,omitempty" yaml:"clamped,omitempty"`
}

// ProjectPace blends both teams' season and last-5 pace, applies the
// mismatch, turnover, free-throw-rate, and elite-defense modifiers in fixed
// order, and clamps the result to [92,108]. It always returns a value for
// finite inputs.
func ProjectPace(home, away PaceInputs) PaceProjection {
	h := blendTeamPace(home)
	a := blendTeamPace(away)

	p := PaceProjection{
		Home: h,
		Away: a,
		Base: (h.Blended + a.Blended) / 2,
	}

	diff := h.Blended - a.Blended
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff > paceMismatchMajor:
		p.MismatchPenalty = -2.0
	case diff > paceMismatchMinor:
		p.MismatchPenalty = -1.0
	}

	meanTOV := (home.TOVPerGame + away.TOVPerGame) / 2
	if meanTOV > tovBaselinePerGame {
		p.TurnoverImpact = (meanTOV - tovBaselinePerGame) * tovPaceLift
	}

	meanFTRate := (home.FTRate + away.FTRate) / 2
	if meanFTRate > ftRateBaseline {
		p.FTPenalty = -ftRatePaceScale * (meanFTRate - ftRateBaseline)
	}

	if isEliteRank(home.DefRank) || isEliteRank(away.DefRank) {
		p.EliteDefPenalty = -eliteDefensePaceDrag
	}

	p.Raw = p.Base + p.MismatchPenalty + p.TurnoverImpact + p.FTPenalty + p.EliteDefPenalty
	p.Pace = clamp(p.Raw, paceFloor, paceCeiling)
	p.Clamped = p.Pace != p.Raw

	slog.Debug("pace projected",
		"base", p.Base,
		"mismatch", p.MismatchPenalty,
		"turnover", p.TurnoverImpact,
		"ft", p.FTPenalty,
		"elite_def", p.EliteDefPenalty,
		"pace", p.Pace)

	return p
}

func blendTeamPace(in PaceInputs) TeamPace {
	recent := in.Last5Pace
	if recent <= 0 {
		recent = in.SeasonPace
	}
	return TeamPace{
		Season:  in.SeasonPace,
		Last5:   recent,
		Blended: paceSeasonWeight*in.SeasonPace + paceRecentWeight*recent,
	}
}

func isEliteRank(rank int) bool {
	return rank >= minRank && rank <= eliteMaxRank
}

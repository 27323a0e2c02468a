package engine

import (
	"fmt"
	"log/slog"
)

const (
	totalFloor   = 150.0
	totalCeiling = 310.0

	// A side must trail its season scoring by this margin against elite
	// defenses before the underperformance dampener fires.
	underperformMargin   = 1.0
	underperformMinGames = 2
)

// Adjustment names, in application order.
const (
	AdjustDefenseQuality  = "defense-quality"
	AdjustShootout        = "shootout"
	AdjustHomeEdge        = "home-edge"
	AdjustRoadPenalty     = "road-penalty"
	AdjustEmptyPossession = "empty-possession"
)

// Predictor runs the full projection pipeline with an injected coefficient
// set. Use DefaultCoefficients when no learned set should apply.
type Predictor struct {
	coeffs Coefficients
}

func NewPredictor(c Coefficients) *Predictor {
	return &Predictor{coeffs: c}
}

// PredictTotal projects the combined game total for a matchup. Missing
// required aggregates fail with ErrDataUnavailable; missing optional
// inputs degrade through the bucket fallback chain and are tagged on the
// result.
func (p *Predictor) PredictTotal(m MatchupContext) (*PredictionResult, error) {
	if err := validateContext(m); err != nil {
		return nil, err
	}

	pace := ProjectPace(paceInputs(m.Home), paceInputs(m.Away))

	home := p.projectSide(m, m.Home, m.Away, pace.Pace, pace.Home.Blended, true)
	away := p.projectSide(m, m.Away, m.Home, pace.Pace, pace.Away.Blended, false)

	homeUnder := underperforms(m.Home, m.Away.DefRank)
	awayUnder := underperforms(m.Away, m.Home.DefRank)
	home.Underperforms = homeUnder
	away.Underperforms = awayUnder

	compression := Compress(CompressionInputs{
		GamePace:          pace.Pace,
		MeanORTG:          (m.Home.Season.ORTG + m.Away.Season.ORTG) / 2,
		ShootoutFired:     shootoutFired(home) || shootoutFired(away),
		HomeDefRank:       m.Home.DefRank,
		AwayDefRank:       m.Away.DefRank,
		HomeUnderperforms: homeUnder,
		AwayUnderperforms: awayUnder,
	})

	raw := home.Total + away.Total
	projected := clamp(raw*compression.Factor, totalFloor, totalCeiling)

	result := &PredictionResult{
		Season:         m.Season,
		GameDate:       m.GameDate,
		Home:           home,
		Away:           away,
		Pace:           pace,
		Compression:    compression,
		RawTotal:       raw,
		ProjectedTotal: projected,
		TotalClamped:   projected != raw*compression.Factor,
		Line:           m.Line,
		Recommendation: recommend(projected, m.Line),
		Confidence:     confidenceFrom(home.Breakdown, away.Breakdown),
		DataQuality:    qualityTags(home, away),
	}

	slog.Debug("prediction composed",
		"home", m.Home.Team,
		"away", m.Away.Team,
		"raw", raw,
		"factor", compression.Factor,
		"projected", projected,
		"recommendation", result.Recommendation)

	return result, nil
}

func validateContext(m MatchupContext) error {
	for _, side := range []TeamContext{m.Home, m.Away} {
		if side.Team == "" {
			return fmt.Errorf("%w: team not set", ErrDataUnavailable)
		}
		if side.Season.Games == 0 {
			return fmt.Errorf("%w: no season aggregate for %s", ErrDataUnavailable, side.Team)
		}
		if side.Location.Games == 0 {
			return fmt.Errorf("%w: no home/away split for %s", ErrDataUnavailable, side.Team)
		}
	}
	if m.League.PPG <= 0 || m.League.FG3Pct <= 0 {
		return fmt.Errorf("%w: league averages not available", ErrDataUnavailable)
	}
	return nil
}

func paceInputs(t TeamContext) PaceInputs {
	return PaceInputs{
		SeasonPace: t.Season.Pace,
		Last5Pace:  t.Last5Pace,
		TOVPerGame: t.Season.TOVPerGame,
		FTRate:     t.Season.FTRate,
		DefRank:    t.DefRank,
	}
}

func (p *Predictor) projectSide(m MatchupContext, team, opp TeamContext, gamePace, teamPace float64, isHome bool) SideProjection {
	breakdown := ProjectScoringBreakdown(BreakdownRequest{
		Team:           team.Team,
		GamePace:       gamePace,
		TeamPace:       teamPace,
		OppOverallTier: TierForRank(opp.DefRank),
		OppThreeTier:   ThreePointTierForRank(opp.FG3DefRank),
		Season:         team.Season,
		Location:       team.Location,
		OppSeason:      opp.Season,
		Recent:         team.Recent,
		TierBoth:       team.TierBoth,
		TierOverall:    team.TierOverall,
		BaselinePPG:    team.Location.PPG,
		League:         m.League,
		Coefficients:   p.coeffs,
	})

	recentFG3 := 0.0
	if team.Recent != nil {
		recentFG3 = team.Recent.FG3Pct
	}
	_, shootoutPts := ShootoutScore(ShootoutInputs{
		TeamFG3Pct:       team.Season.FG3Pct,
		RecentFG3Pct:     recentFG3,
		OppAllowedFG3Pct: opp.Season.OppFG3Pct,
		LeagueFG3Pct:     m.League.FG3Pct,
		GamePace:         gamePace,
		RestDays:         team.RestDays,
	})

	adjustments := []Adjustment{
		{Name: AdjustDefenseQuality, Points: DefenseQualityAdjustment(opp.DefRank)},
		{Name: AdjustShootout, Points: shootoutPts},
	}

	if isHome {
		adjustments = append(adjustments, Adjustment{
			Name: AdjustHomeEdge,
			Points: HomeEdge(HomeEdgeInputs{
				HomeWinPct:        team.Location.WinPct,
				OppRoadWinPct:     opp.Location.WinPct,
				LastThreeHomeWins: team.LastThreeHomeWins,
			}),
		})
	} else {
		adjustments = append(adjustments, Adjustment{
			Name:   AdjustRoadPenalty,
			Points: RoadPenalty(team.Location.WinPct),
		})
	}

	adjustments = append(adjustments, Adjustment{
		Name:   AdjustEmptyPossession,
		Points: EmptyPossessionDelta(team.Season, opp.Season, m.League, p.coeffs),
	})

	side := SideProjection{
		Team:        team.Team,
		Breakdown:   breakdown,
		Adjustments: adjustments,
	}
	for _, adj := range adjustments {
		side.AdjustmentTotal += adj.Points
	}
	side.Total = breakdown.Total + side.AdjustmentTotal
	return side
}

// underperforms reports whether a team historically scores below its
// season average against elite defenses and faces one now.
func underperforms(team TeamContext, oppDefRank int) bool {
	if TierForRank(oppDefRank) != TierElite || oppDefRank < minRank {
		return false
	}
	if team.VsElite == nil || team.VsElite.Games < underperformMinGames {
		return false
	}
	return team.VsElite.PPG < team.Season.PPG-underperformMargin
}

func shootoutFired(side SideProjection) bool {
	if side.Breakdown.ShootoutBonus > 0 {
		return true
	}
	for _, adj := range side.Adjustments {
		if adj.Name == AdjustShootout && adj.Points > 0 {
			return true
		}
	}
	return false
}

func qualityTags(home, away SideProjection) []string {
	tags := []string{
		fmt.Sprintf("home:%s:%s", home.Breakdown.Source, home.Breakdown.Quality),
		fmt.Sprintf("away:%s:%s", away.Breakdown.Source, away.Breakdown.Quality),
	}
	for _, n := range home.Breakdown.Notes {
		tags = append(tags, "home:"+n)
	}
	for _, n := range away.Breakdown.Notes {
		tags = append(tags, "away:"+n)
	}
	return tags
}

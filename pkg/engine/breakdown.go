package engine

import "log/slog"

const (
	excellentBucketGames = 3

	fgPaceSensitivity = 0.3
	ftPaceSensitivity = 0.15

	// Season-side weights for the recency blend. 3PT leans harder on the
	// season rate, its game-to-game variance being the highest.
	recencyTwoPtSeasonWeight   = 0.60
	recencyThreePtSeasonWeight = 0.70
	recencyFTSeasonWeight      = 0.50

	shootoutBadOverallBonus = 3.0
	shootoutBadThreeBonus   = 2.0

	shootoutTwoPtShare   = 0.25
	shootoutThreePtShare = 0.55
	shootoutFTShare      = 0.20
)

// Bucket sources reported in Breakdown.Source, in fallback order.
const (
	SourceTierMatchup = "tier-matchup"
	SourceOverallTier = "overall-tier"
	SourceSeasonSplit = "season-split"
	SourceLeagueMix   = "league-mix"
)

// BreakdownRequest carries one team's inputs for a scoring projection
// against a specific opponent at a location.
type BreakdownRequest struct {
	Team string

	// GamePace is the projected pace for this game; TeamPace is the
	// team's own blended pace the bucket rates are anchored to.
	GamePace float64
	TeamPace float64

	OppOverallTier DefenseTier
	OppThreeTier   DefenseTier

	Season    SeasonStats
	Location  SeasonStats
	OppSeason SeasonStats

	Recent      *RecentStats
	TierBoth    *TierBucket
	TierOverall *TierBucket

	// BaselinePPG seeds the league-mix fallback when no team history is
	// usable. Zero falls back to the league PPG.
	BaselinePPG float64

	League       LeagueAverages
	Coefficients Coefficients
}

// BreakdownStage is the component state after one pipeline stage.
type BreakdownStage struct {
	Name    string  `json:"name" yaml:"name"`
	TwoPt   float64 `json:"two_pt" yaml:"twoPt"`
	ThreePt float64 `json:"three_pt" yaml:"threePt"`
	FT      float64 `json:"ft" yaml:"ft"`
	Total   float64 `json:"total" yaml:"total"`
}

// Breakdown is the projected points by shot type for one team. The three
// components sum to Total after every stage, not only at the end.
type Breakdown struct {
	TwoPt   float64 `json:"two_pt" yaml:"twoPt"`
	ThreePt float64 `json:"three_pt" yaml:"threePt"`
	FT      float64 `json:"ft" yaml:"ft"`
	Total   float64 `json:"total" yaml:"total"`

	Quality       DataQuality      `json:"quality" yaml:"quality"`
	Source        string           `json:"source" yaml:"source"`
	ShootoutBonus float64          `json:"shootout_bonus,omitempty" yaml:"shootoutBonus,omitempty"`
	Notes         []string         `json:"notes,omitempty" yaml:"notes,omitempty"`
	Stages        []BreakdownStage `json:"stages" yaml:"stages"`
}

type components struct {
	two, three, ft float64
}

func (c components) total() float64 {
	return c.two + c.three + c.ft
}

// ProjectScoringBreakdown projects a team's points by shot type through
// the bucket fallback chain, the opponent shooting adjustment, pace
// scaling, recency blending, and the shootout bonus. Pure function over
// its inputs; no side effects.
func ProjectScoringBreakdown(r BreakdownRequest) Breakdown {
	b := Breakdown{}

	comp := selectBucket(r, &b)
	b.record("bucket", comp)

	comp = adjustShooting(r, comp, &b)
	b.record("shooting-adjust", comp)

	comp = scaleForPace(r, comp)
	b.record("pace-scale", comp)

	comp = blendRecent(r, comp, &b)
	b.record("recency-blend", comp)

	comp = applyShootoutBonus(r, comp, &b)
	b.record("shootout-bonus", comp)

	b.TwoPt = comp.two
	b.ThreePt = comp.three
	b.FT = comp.ft
	b.Total = comp.total()

	slog.Debug("scoring breakdown",
		"team", r.Team,
		"source", b.Source,
		"quality", b.Quality,
		"two_pt", b.TwoPt,
		"three_pt", b.ThreePt,
		"ft", b.FT,
		"total", b.Total)

	return b
}

func (b *Breakdown) record(name string, c components) {
	b.Stages = append(b.Stages, BreakdownStage{
		Name:    name,
		TwoPt:   c.two,
		ThreePt: c.three,
		FT:      c.ft,
		Total:   c.total(),
	})
}

// selectBucket walks the fallback chain: both tiers matched, overall tier
// only, season split averages, league-average mix of the baseline.
func selectBucket(r BreakdownRequest, b *Breakdown) components {
	if r.TierBoth != nil && r.TierBoth.Games > 0 {
		b.Source = SourceTierMatchup
		b.Quality = DataLimited
		if r.TierBoth.Games >= excellentBucketGames {
			b.Quality = DataExcellent
		}
		return components{r.TierBoth.TwoPtPPG, r.TierBoth.ThreePtPPG, r.TierBoth.FTPPG}
	}

	if r.TierOverall != nil && r.TierOverall.Games > 0 {
		b.Source = SourceOverallTier
		b.Quality = DataLimited
		return components{r.TierOverall.TwoPtPPG, r.TierOverall.ThreePtPPG, r.TierOverall.FTPPG}
	}

	if r.Location.Games > 0 && r.Location.PPG > 0 {
		b.Source = SourceSeasonSplit
		b.Quality = DataFallback
		return components{
			r.Location.PPG * r.Location.TwoPtShare,
			r.Location.PPG * r.Location.ThreePtShare,
			r.Location.PPG * r.Location.FTShare,
		}
	}

	baseline := r.BaselinePPG
	if baseline <= 0 {
		baseline = r.League.PPG
	}
	b.Source = SourceLeagueMix
	b.Quality = DataFallback
	b.Notes = append(b.Notes, "no team history, using league-average shot mix")
	return components{
		baseline * r.League.TwoPtShare,
		baseline * r.League.ThreePtShare,
		baseline * r.League.FTShare,
	}
}

// adjustShooting rescales the 2PT and 3PT components by the expected shot
// percentage against this opponent: league mean plus the learned blend of
// the team-vs-league and opponent-allowed-vs-league deltas. Blended rates
// clamp to [0,100] before use.
func adjustShooting(r BreakdownRequest, c components, b *Breakdown) components {
	cf := r.Coefficients

	if r.Season.FG2Pct > 0 {
		expected := clampPct(r.League.FG2Pct +
			cf.A2*(r.Season.FG2Pct-r.League.FG2Pct) +
			cf.B2*(r.OppSeason.OppFG2Pct-r.League.FG2Pct))
		c.two *= expected / r.Season.FG2Pct
	}

	if r.Season.FG3Pct > 0 {
		expected := clampPct(r.League.FG3Pct +
			cf.A3*(r.Season.FG3Pct-r.League.FG3Pct) +
			cf.B3*(r.OppSeason.OppFG3Pct-r.League.FG3Pct))
		c.three *= expected / r.Season.FG3Pct
	}

	if r.Season.FG2Pct <= 0 && r.Season.FG3Pct <= 0 {
		b.Notes = append(b.Notes, "no season shooting rates, skipping opponent adjustment")
	}

	return c
}

// scaleForPace scales field-goal points by the pace delta and free-throw
// points at half sensitivity.
func scaleForPace(r BreakdownRequest, c components) components {
	delta := r.GamePace - r.TeamPace
	fgScale := 1 + (delta/100)*fgPaceSensitivity
	ftScale := 1 + (delta/100)*ftPaceSensitivity

	c.two *= fgScale
	c.three *= fgScale
	c.ft *= ftScale
	return c
}

func blendRecent(r BreakdownRequest, c components, b *Breakdown) components {
	if r.Recent == nil || r.Recent.Games == 0 {
		b.Notes = append(b.Notes, "no recent games for recency blend")
		return c
	}

	c.two = recencyTwoPtSeasonWeight*c.two + (1-recencyTwoPtSeasonWeight)*r.Recent.TwoPtPPG
	c.three = recencyThreePtSeasonWeight*c.three + (1-recencyThreePtSeasonWeight)*r.Recent.ThreePtPPG
	c.ft = recencyFTSeasonWeight*c.ft + (1-recencyFTSeasonWeight)*r.Recent.FTPPG
	return c
}

// applyShootoutBonus adds flat bonus points against bottom-tier defenses,
// split across the three components in fixed proportions so they re-sum.
func applyShootoutBonus(r BreakdownRequest, c components, b *Breakdown) components {
	var bonus float64
	if r.OppOverallTier == TierBad {
		bonus += shootoutBadOverallBonus
	}
	if r.OppThreeTier == TierBad {
		bonus += shootoutBadThreeBonus
	}
	if bonus == 0 {
		return c
	}

	b.ShootoutBonus = bonus
	c.two += bonus * shootoutTwoPtShare
	c.three += bonus * shootoutThreePtShare
	c.ft += bonus * shootoutFTShare
	return c
}

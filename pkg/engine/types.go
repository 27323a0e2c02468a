package engine

// SeasonStats is the rolled-up view of a team over a season or a
// home/away split. Shooting percentages are in percent units (0-100),
// shares are fractions of total points (0-1), FTRate is FTA per FGA.
type SeasonStats struct {
	Games        int
	WinPct       float64
	PPG          float64
	OppPPG       float64
	Pace         float64
	ORTG         float64
	DRTG         float64
	FG2Pct       float64
	FG3Pct       float64
	FTPct        float64
	FG2APG       float64
	FG3APG       float64
	FTAPG        float64
	TwoPtShare   float64
	ThreePtShare float64
	FTShare      float64
	TOVPerGame   float64
	TOVPct       float64
	OREBPct      float64
	FTRate       float64

	// Allowed/forced counterparts, from the opposing side of the
	// team's games.
	OppFG2Pct  float64
	OppFG3Pct  float64
	OppTOVPct  float64
	OppOREBPct float64
	OppFTRate  float64
}

// RecentStats is a last-N rollup used for recency blending.
type RecentStats struct {
	Games      int
	Pace       float64
	TwoPtPPG   float64
	ThreePtPPG float64
	FTPPG      float64
	FG3Pct     float64
	TOVPerGame float64
}

// TierBucket aggregates a team's historical games against defenses of a
// given tier.
type TierBucket struct {
	Games      int
	TwoPtPPG   float64
	ThreePtPPG float64
	FTPPG      float64
	PPG        float64
}

// TeamContext carries one side's inputs for a prediction.
type TeamContext struct {
	Team     string
	Season   SeasonStats
	Location SeasonStats

	Recent    *RecentStats
	Last5Pace float64

	// Buckets of the team's games split by the current opponent's
	// defensive tiers. Nil when no qualifying games exist.
	TierBoth    *TierBucket
	TierOverall *TierBucket
	VsElite     *TierBucket

	DefRank    int
	FG3DefRank int

	RestDays          int
	LastThreeHomeWins int
}

// LeagueAverages holds league-wide per-team means for the season.
type LeagueAverages struct {
	PPG          float64
	Pace         float64
	ORTG         float64
	FG2Pct       float64
	FG3Pct       float64
	FTPct        float64
	TOVPct       float64
	OREBPct      float64
	FTRate       float64
	TwoPtShare   float64
	ThreePtShare float64
	FTShare      float64
}

// MatchupContext is the request-scoped input to PredictTotal.
type MatchupContext struct {
	Season   int
	GameDate string
	Home     TeamContext
	Away     TeamContext
	League   LeagueAverages

	// Line is the reference total; 0 means no line was supplied.
	Line float64
}

// Coefficients are the learned pipeline weights consumed per request.
type Coefficients struct {
	A2                 float64 `json:"a2" yaml:"a2"`
	B2                 float64 `json:"b2" yaml:"b2"`
	A3                 float64 `json:"a3" yaml:"a3"`
	B3                 float64 `json:"b3" yaml:"b3"`
	FTPossessionWeight float64 `json:"ft_possession_weight" yaml:"ftPossessionWeight"`
	TOVTeamWeight      float64 `json:"tov_team_weight" yaml:"tovTeamWeight"`
	TOVOppWeight       float64 `json:"tov_opp_weight" yaml:"tovOppWeight"`
}

// DefaultCoefficients returns the neutral weights used when no learned set
// is injected: shooting deltas split evenly, the classic 0.44 free-throw
// possession weight, and a 70/30 team/opponent turnover blend.
func DefaultCoefficients() Coefficients {
	return Coefficients{
		A2:                 0.5,
		B2:                 0.5,
		A3:                 0.5,
		B3:                 0.5,
		FTPossessionWeight: 0.44,
		TOVTeamWeight:      0.70,
		TOVOppWeight:       0.30,
	}
}

// DataQuality tags the evidence level behind a projection bucket.
type DataQuality string

const (
	DataExcellent DataQuality = "excellent"
	DataLimited   DataQuality = "limited"
	DataFallback  DataQuality = "fallback"
)

// Recommendation values returned against a reference line.
const (
	RecommendOver   = "over"
	RecommendUnder  = "under"
	RecommendPass   = "pass"
	RecommendNoLine = "no-line"
)

// Adjustment is one named point delta applied to a side.
type Adjustment struct {
	Name   string  `json:"name" yaml:"name"`
	Points float64 `json:"points" yaml:"points"`
}

// SideProjection is one team's share of the prediction.
type SideProjection struct {
	Team            string       `json:"team" yaml:"team"`
	Breakdown       Breakdown    `json:"breakdown" yaml:"breakdown"`
	Adjustments     []Adjustment `json:"adjustments" yaml:"adjustments"`
	AdjustmentTotal float64      `json:"adjustment_total" yaml:"adjustmentTotal"`
	Underperforms   bool         `json:"underperforms" yaml:"underperforms"`
	Total           float64      `json:"total" yaml:"total"`
}

// PredictionResult is the final output of the pipeline.
type PredictionResult struct {
	Season         int            `json:"season" yaml:"season"`
	GameDate       string         `json:"game_date,omitempty" yaml:"gameDate,omitempty"`
	Home           SideProjection `json:"home" yaml:"home"`
	Away           SideProjection `json:"away" yaml:"away"`
	Pace           PaceProjection `json:"pace" yaml:"pace"`
	Compression    Compression    `json:"compression" yaml:"compression"`
	RawTotal       float64        `json:"raw_total" yaml:"rawTotal"`
	ProjectedTotal float64        `json:"projected_total" yaml:"projectedTotal"`
	TotalClamped   bool           `json:"total_clamped,omitempty" yaml:"totalClamped,omitempty"`
	Line           float64        `json:"line,omitempty" yaml:"line,omitempty"`
	Recommendation string         `json:"recommendation" yaml:"recommendation"`
	Confidence     float64        `json:"confidence" yaml:"confidence"`
	DataQuality    []string       `json:"data_quality,omitempty" yaml:"dataQuality,omitempty"`
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampPct keeps a blended percentage inside [0,100].
func clampPct(v float64) float64 {
	return clamp(v, 0, 100)
}

package engine

const (
	epiOREBWeight = 0.3
	epiFTRWeight  = 10.0
	epiPointScale = 0.35
	epiDeltaCap   = 2.5
)

// EstimatePossessions applies the possession formula with a learned
// free-throw weight: FGA + w*FTA - OREB + TOV.
func EstimatePossessions(fga, fta, oreb, tov, ftWeight float64) float64 {
	return fga + ftWeight*fta - oreb + tov
}

// EmptyPossessionIndex blends a team's turnover, offensive-rebound, and
// free-throw rates with the opponent's forced/allowed counterparts using
// the learned blend weights, and folds them into a single wasted-possession
// measure in turnover-percent units. Higher means more empty trips.
func EmptyPossessionIndex(team, opp SeasonStats, league LeagueAverages, c Coefficients) float64 {
	tov := c.TOVTeamWeight*team.TOVPct + c.TOVOppWeight*opp.OppTOVPct
	oreb := c.TOVTeamWeight*team.OREBPct + c.TOVOppWeight*opp.OppOREBPct
	ftr := c.TOVTeamWeight*team.FTRate + c.TOVOppWeight*opp.OppFTRate

	// Second-chance boards and trips to the line both rescue otherwise
	// empty possessions.
	return tov - (oreb-league.OREBPct)*epiOREBWeight - (ftr-league.FTRate)*epiFTRWeight
}

// EmptyPossessionDelta converts the index's deviation from league average
// into a small bounded point delta for one side.
func EmptyPossessionDelta(team, opp SeasonStats, league LeagueAverages, c Coefficients) float64 {
	idx := EmptyPossessionIndex(team, opp, league, c)
	delta := -(idx - league.TOVPct) * epiPointScale
	return clamp(delta, -epiDeltaCap, epiDeltaCap)
}

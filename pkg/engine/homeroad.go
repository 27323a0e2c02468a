package engine

const (
	winPctNeutral = 0.50

	homeEdgeCap = 6.0

	homeEdgeLinear    = 6.0
	homeEdgeQuadratic = 8.0
	roadWeaknessScale = 3.0

	homeMomentumSweep = 0.6
	homeMomentumPair  = 0.3

	roadPenaltyFloor = -7.0

	// Road penalty knees. Below 0.50 the penalty steepens at each knee.
	roadKneeMid = 0.40
	roadKneeLow = 0.30

	roadSlopeUpper = 10.0 // per win-pct unit, 0.50..0.40
	roadSlopeMid   = 16.0 // 0.40..0.30
	roadSlopeLower = 18.0 // below 0.30
)

// HomeEdgeInputs feed the home-side advantage curve.
type HomeEdgeInputs struct {
	// HomeWinPct is the team's win percentage in home games.
	HomeWinPct float64
	// OppRoadWinPct is the opponent's win percentage on the road.
	OppRoadWinPct float64
	// LastThreeHomeWins counts wins over the team's last three home games.
	LastThreeHomeWins int
}

// HomeEdge returns the home side's point bonus in [0,6]. The curve grows
// quadratically in home win percentage above .500, adds a term for
// opponent road weakness, and a small last-three momentum kicker. Neutral
// (0) for a .500 home team against a .500 road team.
func HomeEdge(in HomeEdgeInputs) float64 {
	excess := in.HomeWinPct - winPctNeutral
	if excess < 0 {
		excess = 0
	}

	edge := excess*homeEdgeLinear + excess*excess*homeEdgeQuadratic

	if weak := winPctNeutral - in.OppRoadWinPct; weak > 0 {
		edge += weak * roadWeaknessScale
	}

	switch {
	case in.LastThreeHomeWins >= 3:
		edge += homeMomentumSweep
	case in.LastThreeHomeWins == 2:
		edge += homeMomentumPair
	}

	return clamp(edge, 0, homeEdgeCap)
}

// RoadPenalty returns the away side's point penalty in [-7,0]. Teams at or
// above .500 on the road take no penalty; below that the slope steepens at
// the .40 and .30 knees.
func RoadPenalty(roadWinPct float64) float64 {
	if roadWinPct >= winPctNeutral {
		return 0
	}

	var penalty float64
	switch {
	case roadWinPct >= roadKneeMid:
		penalty = (winPctNeutral - roadWinPct) * roadSlopeUpper
	case roadWinPct >= roadKneeLow:
		penalty = (winPctNeutral-roadKneeMid)*roadSlopeUpper +
			(roadKneeMid-roadWinPct)*roadSlopeMid
	default:
		penalty = (winPctNeutral-roadKneeMid)*roadSlopeUpper +
			(roadKneeMid-roadKneeLow)*roadSlopeMid +
			(roadKneeLow-roadWinPct)*roadSlopeLower
	}

	return clamp(-penalty, roadPenaltyFloor, 0)
}

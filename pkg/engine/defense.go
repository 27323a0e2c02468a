package engine

const (
	eliteDefAdjAtBest  = -6.0
	eliteDefAdjAtWorst = -4.0
	badDefAdjAtBest    = 3.0
	badDefAdjAtWorst   = 5.0
)

// DefenseQualityAdjustment converts the opponent's overall defensive rank
// into a point delta. Elite defenses suppress scoring on a -6.0 to -4.0
// ramp, average defenses are neutral, bad defenses add +3.0 to +5.0.
// Monotone non-decreasing over ranks 1..30.
func DefenseQualityAdjustment(oppDefRank int) float64 {
	rank := clampRank(oppDefRank)
	switch TierForRank(rank) {
	case TierElite:
		// rank 1 -> -6.0, rank 10 -> -4.0
		span := float64(eliteMaxRank - minRank)
		return eliteDefAdjAtBest + float64(rank-minRank)*(eliteDefAdjAtWorst-eliteDefAdjAtBest)/span
	case TierBad:
		// rank 20 -> +3.0, rank 30 -> +5.0
		lo, hi := TierRankRange(TierBad)
		span := float64(hi - lo)
		return badDefAdjAtBest + float64(rank-lo)*(badDefAdjAtWorst-badDefAdjAtBest)/span
	default:
		return 0
	}
}

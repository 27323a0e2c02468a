package engine

// DefenseTier classifies a 1-30 defensive rank. The same boundaries apply
// to overall defense and to 3PT defense: 1-10 elite, 11-19 average,
// 20-30 bad. The three ranges partition the full rank space.
type DefenseTier int

const (
	TierElite DefenseTier = iota
	TierAverage
	TierBad
)

const (
	minRank        = 1
	eliteMaxRank   = 10
	averageMaxRank = 19
	maxRank        = 30
)

func (t DefenseTier) String() string {
	switch t {
	case TierElite:
		return "elite"
	case TierAverage:
		return "average"
	case TierBad:
		return "bad"
	default:
		return "unknown"
	}
}

// TierForRank maps an overall defensive rank to its tier. Out-of-range
// ranks clamp into [1,30] first.
func TierForRank(rank int) DefenseTier {
	rank = clampRank(rank)
	switch {
	case rank <= eliteMaxRank:
		return TierElite
	case rank <= averageMaxRank:
		return TierAverage
	default:
		return TierBad
	}
}

// ThreePointTierForRank maps a 3PT-defense rank to its tier. Boundaries are
// shared with TierForRank.
func ThreePointTierForRank(rank int) DefenseTier {
	return TierForRank(rank)
}

// TierRankRange returns the inclusive rank bounds covered by a tier.
func TierRankRange(t DefenseTier) (lo, hi int) {
	switch t {
	case TierElite:
		return minRank, eliteMaxRank
	case TierAverage:
		return eliteMaxRank + 1, averageMaxRank
	default:
		return averageMaxRank + 1, maxRank
	}
}

func clampRank(rank int) int {
	if rank < minRank {
		return minRank
	}
	if rank > maxRank {
		return maxRank
	}
	return rank
}

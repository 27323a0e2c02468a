package engine

const (
	confidenceExcellent = 0.90
	confidenceLimited   = 0.75
	confidenceFallback  = 0.60

	confidenceNotePenalty = 0.03
	confidenceFloor       = 0.30
	confidenceCeiling     = 0.95

	// recommendDeadZone is the band around the line where no side is
	// worth taking.
	recommendDeadZone = 3.0
)

func qualityConfidence(q DataQuality) float64 {
	switch q {
	case DataExcellent:
		return confidenceExcellent
	case DataLimited:
		return confidenceLimited
	default:
		return confidenceFallback
	}
}

// confidenceFrom folds both sides' bucket quality and any degradation
// notes into a single [0.30,0.95] score.
func confidenceFrom(home, away Breakdown) float64 {
	conf := (qualityConfidence(home.Quality) + qualityConfidence(away.Quality)) / 2
	conf -= float64(len(home.Notes)+len(away.Notes)) * confidenceNotePenalty
	return clamp(conf, confidenceFloor, confidenceCeiling)
}

// recommend compares a projected total against a reference line with a
// dead-zone. A zero line means none was supplied.
func recommend(projected, line float64) string {
	if line <= 0 {
		return RecommendNoLine
	}
	switch diff := projected - line; {
	case diff > recommendDeadZone:
		return RecommendOver
	case diff < -recommendDeadZone:
		return RecommendUnder
	default:
		return RecommendPass
	}
}

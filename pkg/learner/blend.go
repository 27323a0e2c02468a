package learner

import "math"

const (
	blendMin  = 0.50
	blendMax  = 0.90
	blendStep = 0.05
)

// blendResult is the turnover blend picked by grid search.
type blendResult struct {
	teamWeight float64
	oppWeight  float64
	mae        float64
	ok         bool
}

// fitTurnoverBlend searches team weights from 0.50 to 0.90 for the mix
// of a team's own turnover rate and the rate its opponent forces that
// best predicts the realized game turnover rate.
func fitTurnoverBlend(teamRate, oppForcedRate, actual []float64) blendResult {
	n := len(actual)
	if n < minFitSamples || len(teamRate) != n || len(oppForcedRate) != n {
		return blendResult{}
	}

	best := blendResult{}
	pred := make([]float64, n)

	steps := int(math.Round((blendMax - blendMin) / blendStep))
	for step := 0; step <= steps; step++ {
		w := math.Round((blendMin+float64(step)*blendStep)*100) / 100

		for i := 0; i < n; i++ {
			pred[i] = w*teamRate[i] + (1-w)*oppForcedRate[i]
		}

		mae := meanAbsError(pred, actual)
		if !best.ok || mae < best.mae {
			best = blendResult{
				teamWeight: w,
				oppWeight:  1 - w,
				mae:        mae,
				ok:         true,
			}
		}
	}

	return best
}

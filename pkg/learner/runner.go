package learner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sportlines/totalcast/pkg/data"
	"golang.org/x/sync/singleflight"
)

// Calibrator fits and persists one season calibration.
type Calibrator interface {
	Calibrate(ctx context.Context, season int, from, to string) (*data.CoefficientSet, error)
}

// Runner deduplicates concurrent calibration requests. Identical
// season and window runs share a single execution and its result, so
// the store never sees two overlapping swaps for the same request.
type Runner struct {
	cal Calibrator
	sf  singleflight.Group
}

func NewRunner(cal Calibrator) *Runner {
	return &Runner{cal: cal}
}

// CalibrateSeason runs one calibration per distinct (season, window),
// no matter how many callers ask at once.
func (r *Runner) CalibrateSeason(ctx context.Context, season int, from, to string) (*data.CoefficientSet, error) {
	key := fmt.Sprintf("%d|%s|%s", season, from, to)

	v, err, shared := r.sf.Do(key, func() (any, error) {
		return r.cal.Calibrate(ctx, season, from, to)
	})
	if err != nil {
		return nil, err
	}

	if shared {
		slog.Debug("calibration result shared", "key", key)
	}

	return v.(*data.CoefficientSet), nil
}

package engine

import "errors"

// ErrDataUnavailable marks a prediction request missing a required input.
// Optional inputs degrade through the bucket fallback chain instead and are
// surfaced as data-quality tags, never as errors.
var ErrDataUnavailable = errors.New("required matchup data unavailable")

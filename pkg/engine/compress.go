package engine

import "log/slog"

const (
	signalPaceHigh      = 102.0
	signalORTGStrong    = 114.0
	signalWeakDefRank   = 21
	slugfestPaceCeiling = 98.0
	slugfestDefRank     = 12

	stackFactorFour = 0.94
	stackFactorTri  = 0.97
	stackFactorPair = 0.99

	slugfestFactorBoth   = 0.95
	slugfestFactorSingle = 0.98

	underperformDampener = 0.97
)

// CompressionInputs summarize the game-level signals that feed the
// anti-inflation pass.
type CompressionInputs struct {
	GamePace      float64
	MeanORTG      float64
	ShootoutFired bool
	HomeDefRank   int
	AwayDefRank   int

	HomeUnderperforms bool
	AwayUnderperforms bool
}

// Compression is the multiplicative dampening applied to the combined
// total.
type Compression struct {
	Signals        []string `json:"signals,omitempty" yaml:"signals,omitempty"`
	StackFactor    float64  `json:"stack_factor" yaml:"stackFactor"`
	SlugfestFactor float64  `json:"slugfest_factor" yaml:"slugfestFactor"`
	DampenerFactor float64  `json:"dampener_factor" yaml:"dampenerFactor"`
	Factor         float64  `json:"factor" yaml:"factor"`
}

// Compress counts co-occurring optimistic signals and converts them, the
// defensive-slugfest check, and the historical-underperformance check into
// one combined factor. Stacked same-direction signals compound error, so
// more agreement means more dampening.
func Compress(in CompressionInputs) Compression {
	c := Compression{
		StackFactor:    1.0,
		SlugfestFactor: 1.0,
		DampenerFactor: 1.0,
	}

	if in.GamePace >= signalPaceHigh {
		c.Signals = append(c.Signals, "pace-high")
	}
	if in.MeanORTG >= signalORTGStrong {
		c.Signals = append(c.Signals, "offense-strong")
	}
	if in.ShootoutFired {
		c.Signals = append(c.Signals, "three-point-hot")
	}
	if in.HomeDefRank >= signalWeakDefRank || in.AwayDefRank >= signalWeakDefRank {
		c.Signals = append(c.Signals, "defense-weak")
	}

	switch len(c.Signals) {
	case 4:
		c.StackFactor = stackFactorFour
	case 3:
		c.StackFactor = stackFactorTri
	case 2:
		c.StackFactor = stackFactorPair
	}

	slowPace := in.GamePace < slugfestPaceCeiling
	bothStingy := isStrongDefRank(in.HomeDefRank) && isStrongDefRank(in.AwayDefRank)
	switch {
	case slowPace && bothStingy:
		c.SlugfestFactor = slugfestFactorBoth
	case slowPace || bothStingy:
		c.SlugfestFactor = slugfestFactorSingle
	}

	if in.HomeUnderperforms {
		c.DampenerFactor *= underperformDampener
	}
	if in.AwayUnderperforms {
		c.DampenerFactor *= underperformDampener
	}

	c.Factor = c.StackFactor * c.SlugfestFactor * c.DampenerFactor

	slog.Debug("compression",
		"signals", len(c.Signals),
		"stack", c.StackFactor,
		"slugfest", c.SlugfestFactor,
		"dampener", c.DampenerFactor,
		"factor", c.Factor)

	return c
}

func isStrongDefRank(rank int) bool {
	return rank >= minRank && rank <= slugfestDefRank
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func neutralPaceInputs(pace float64) PaceInputs {
	return PaceInputs{
		SeasonPace: pace,
		Last5Pace:  pace,
		TOVPerGame: 14.0,
		FTRate:     0.24,
		DefRank:    15,
	}
}

func TestProjectPace_Neutral(t *testing.T) {
	p := ProjectPace(neutralPaceInputs(100), neutralPaceInputs(100))

	assert.InDelta(t, 100.0, p.Pace, 0.0001)
	assert.Zero(t, p.MismatchPenalty)
	assert.Zero(t, p.TurnoverImpact)
	assert.Zero(t, p.FTPenalty)
	assert.Zero(t, p.EliteDefPenalty)
	assert.False(t, p.Clamped)
}

func TestProjectPace_BlendWeights(t *testing.T) {
	in := neutralPaceInputs(100)
	in.Last5Pace = 105

	p := ProjectPace(in, neutralPaceInputs(100))

	// 0.60*100 + 0.40*105 = 102
	assert.InDelta(t, 102.0, p.Home.Blended, 0.0001)
}

func TestProjectPace_Last5FallsBackToSeason(t *testing.T) {
	in := neutralPaceInputs(101)
	in.Last5Pace = 0

	p := ProjectPace(in, neutralPaceInputs(101))
	assert.InDelta(t, 101.0, p.Home.Blended, 0.0001)
}

func TestProjectPace_MismatchPenalty(t *testing.T) {
	tests := []struct {
		name  string
		delta float64
		want  float64
	}{
		{"no penalty at 5", 5, 0},
		{"minor at 6", 6, -1.0},
		{"minor at 8", 8, -1.0},
		{"major at 9", 9, -2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ProjectPace(neutralPaceInputs(100+tt.delta), neutralPaceInputs(100))
			assert.InDelta(t, tt.want, p.MismatchPenalty, 0.0001)
		})
	}
}

func TestProjectPace_TurnoverImpact(t *testing.T) {
	home := neutralPaceInputs(100)
	away := neutralPaceInputs(100)
	home.TOVPerGame = 18
	away.TOVPerGame = 16

	p := ProjectPace(home, away)

	// mean 17, two over the baseline, +0.3 per unit
	assert.InDelta(t, 0.6, p.TurnoverImpact, 0.0001)
}

func TestProjectPace_FTPenalty(t *testing.T) {
	home := neutralPaceInputs(100)
	away := neutralPaceInputs(100)
	home.FTRate = 0.30
	away.FTRate = 0.30

	p := ProjectPace(home, away)

	// -10 * (0.30 - 0.25)
	assert.InDelta(t, -0.5, p.FTPenalty, 0.0001)
}

func TestProjectPace_EliteDefenseDrag(t *testing.T) {
	home := neutralPaceInputs(100)
	home.DefRank = 3

	p := ProjectPace(home, neutralPaceInputs(100))
	assert.InDelta(t, -1.5, p.EliteDefPenalty, 0.0001)

	p = ProjectPace(neutralPaceInputs(100), neutralPaceInputs(100))
	assert.Zero(t, p.EliteDefPenalty)
}

func TestProjectPace_UnknownRankIsNotElite(t *testing.T) {
	home := neutralPaceInputs(100)
	home.DefRank = 0

	p := ProjectPace(home, neutralPaceInputs(100))
	assert.Zero(t, p.EliteDefPenalty)
}

func TestProjectPace_ClampBounds(t *testing.T) {
	tests := []struct {
		name string
		pace float64
		want float64
	}{
		{"clamps high", 125, 108},
		{"clamps low", 80, 92},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ProjectPace(neutralPaceInputs(tt.pace), neutralPaceInputs(tt.pace))
			assert.InDelta(t, tt.want, p.Pace, 0.0001)
			assert.True(t, p.Clamped)
			assert.NotEqual(t, p.Raw, p.Pace)
		})
	}
}

func TestProjectPace_AlwaysInRange(t *testing.T) {
	paces := []float64{60, 85, 92, 96, 100, 104, 108, 115, 140}
	for _, hp := range paces {
		for _, ap := range paces {
			p := ProjectPace(neutralPaceInputs(hp), neutralPaceInputs(ap))
			assert.GreaterOrEqual(t, p.Pace, 92.0, "home %v away %v", hp, ap)
			assert.LessOrEqual(t, p.Pace, 108.0, "home %v away %v", hp, ap)
		}
	}
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefenseQualityAdjustment_Anchors(t *testing.T) {
	tests := []struct {
		rank int
		want float64
	}{
		{1, -6.0},
		{10, -4.0},
		{11, 0},
		{15, 0},
		{19, 0},
		{20, 3.0},
		{30, 5.0},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			assert.InDelta(t, tt.want, DefenseQualityAdjustment(tt.rank), 0.0001, "rank %d", tt.rank)
		})
	}
}

func TestDefenseQualityAdjustment_Monotone(t *testing.T) {
	prev := DefenseQualityAdjustment(1)
	for rank := 2; rank <= 30; rank++ {
		cur := DefenseQualityAdjustment(rank)
		assert.GreaterOrEqual(t, cur, prev, "rank %d", rank)
		prev = cur
	}
}

func TestDefenseQualityAdjustment_ClampsRank(t *testing.T) {
	assert.InDelta(t, -6.0, DefenseQualityAdjustment(-5), 0.0001)
	assert.InDelta(t, 5.0, DefenseQualityAdjustment(40), 0.0001)
}

func TestDefenseQualityAdjustment_AverageBandIsNeutral(t *testing.T) {
	for rank := 11; rank <= 19; rank++ {
		assert.Zero(t, DefenseQualityAdjustment(rank), "rank %d", rank)
	}
}

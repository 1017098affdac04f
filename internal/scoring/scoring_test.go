package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBasePoints(t *testing.T) {
	tests := []struct {
		name       string
		size       int
		complexity int
		mult       float64
		want       int
	}{
		{"simple", 5, 2, 1.0, 10},
		{"largest", 55, 3, 1.0, 165},
		{"fractional multiplier floors", 5, 1, 1.1, 5},
		{"half multiplier", 3, 3, 0.5, 4},
		{"zero multiplier", 8, 2, 0, 0},
		{"negative multiplier clamps to zero", 8, 2, -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BasePoints(tt.size, tt.complexity, tt.mult))
		})
	}
}

func TestRatingMultiplier(t *testing.T) {
	assert.Equal(t, 0.0, RatingHarmful.Multiplier())
	assert.Equal(t, 1.0, RatingBasic.Multiplier())
	assert.Equal(t, 1.5, RatingRelevant.Multiplier())
	assert.Equal(t, 2.0, RatingOutstanding.Multiplier())

	// Out-of-range ratings must never over-pay.
	assert.Equal(t, 0.0, Rating(7).Multiplier())
	assert.Equal(t, 0.0, Rating(-1).Multiplier())
}

func TestRatingStars(t *testing.T) {
	assert.Equal(t, 1.0, RatingHarmful.Stars())
	assert.Equal(t, 3.0, RatingBasic.Stars())
	assert.Equal(t, 4.0, RatingRelevant.Stars())
	assert.Equal(t, 5.0, RatingOutstanding.Stars())
}

func TestFinalPoints(t *testing.T) {
	// 10 base at each rating: 0, 10, 15, 20.
	assert.Equal(t, 0, FinalPoints(10, RatingHarmful))
	assert.Equal(t, 10, FinalPoints(10, RatingBasic))
	assert.Equal(t, 15, FinalPoints(10, RatingRelevant))
	assert.Equal(t, 20, FinalPoints(10, RatingOutstanding))

	// Odd base at 1.5 floors.
	assert.Equal(t, 7, FinalPoints(5, RatingRelevant))
}

func TestRewardFor(t *testing.T) {
	rw := RewardFor(10, RatingRelevant)
	assert.Equal(t, 15, rw.Points)
	assert.Equal(t, 15, rw.Coins)
	assert.Equal(t, 150, rw.XP)

	zero := RewardFor(10, RatingHarmful)
	assert.Equal(t, Reward{}, zero)
}

func TestValidSize(t *testing.T) {
	for _, s := range Sizes {
		assert.True(t, ValidSize(s), "size %d", s)
	}
	assert.False(t, ValidSize(4))
	assert.False(t, ValidSize(0))
	assert.False(t, ValidSize(-1))
}

func TestRatingValid(t *testing.T) {
	for r := RatingHarmful; r <= RatingOutstanding; r++ {
		assert.True(t, r.Valid())
	}
	assert.False(t, Rating(4).Valid())
	assert.False(t, Rating(-1).Valid())
}

package progression

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talgya/guildgrid/internal/scoring"
)

func TestPlayerThreshold(t *testing.T) {
	assert.Equal(t, 1000, PlayerThreshold(1))
	assert.Equal(t, 1500, PlayerThreshold(2))
	assert.Equal(t, 2250, PlayerThreshold(3))
	assert.Equal(t, 3375, PlayerThreshold(4))

	// Below the floor clamps to level 1.
	assert.Equal(t, 1000, PlayerThreshold(0))
}

func TestApplyXP(t *testing.T) {
	level, xp, next := ApplyXP(1, 0, 500)
	assert.Equal(t, 1, level)
	assert.Equal(t, 500, xp)
	assert.Equal(t, 1000, next)

	// Exact threshold rolls over with zero surplus.
	level, xp, next = ApplyXP(1, 500, 500)
	assert.Equal(t, 2, level)
	assert.Equal(t, 0, xp)
	assert.Equal(t, 1500, next)

	// One large grant can clear several levels: 1000 + 1500 = 2500 to
	// reach level 3, with 150 left over.
	level, xp, next = ApplyXP(1, 0, 2650)
	assert.Equal(t, 3, level)
	assert.Equal(t, 150, xp)
	assert.Equal(t, 2250, next)
}

func TestSquadLevel(t *testing.T) {
	level, xp, next := SquadLevel(0)
	assert.Equal(t, 1, level)
	assert.Equal(t, 0, xp)
	assert.Equal(t, 2000, next)

	// 2000 + 3000 = 5000 total clears two levels exactly.
	level, xp, next = SquadLevel(5000)
	assert.Equal(t, 3, level)
	assert.Equal(t, 0, xp)
	assert.Equal(t, 4500, next)

	level, xp, _ = SquadLevel(2500)
	assert.Equal(t, 2, level)
	assert.Equal(t, 500, xp)
}

func TestUpdateReputation(t *testing.T) {
	// From the neutral seed, one outstanding rating nudges up to 3.1.
	got := UpdateReputation(ReputationSeed, scoring.RatingOutstanding)
	assert.InDelta(t, 3.1, got, 1e-9)

	// A harmful rating pulls toward 1 star.
	got = UpdateReputation(ReputationSeed, scoring.RatingHarmful)
	assert.InDelta(t, 2.9, got, 1e-9)

	// A basic rating holds the neutral seed steady.
	got = UpdateReputation(ReputationSeed, scoring.RatingBasic)
	assert.InDelta(t, 3.0, got, 1e-9)
}

func TestReputationConverges(t *testing.T) {
	// A long streak of outstanding work approaches, but never exceeds, 5.
	rep := ReputationSeed
	for i := 0; i < 200; i++ {
		rep = UpdateReputation(rep, scoring.RatingOutstanding)
	}
	assert.Less(t, math.Abs(5.0-rep), 0.01)
	assert.LessOrEqual(t, rep, 5.0)
}

func TestStars(t *testing.T) {
	assert.Equal(t, 5, Stars(4.6))
	assert.Equal(t, 4, Stars(4.59))
	assert.Equal(t, 4, Stars(3.6))
	assert.Equal(t, 3, Stars(3.0))
	assert.Equal(t, 2, Stars(1.6))
	assert.Equal(t, 1, Stars(1.0))
}

package town

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapacityForLevel(t *testing.T) {
	assert.Equal(t, 100, CapacityForLevel(1))
	assert.Equal(t, 200, CapacityForLevel(2))
	assert.Equal(t, 30000, CapacityForLevel(12))

	// Out-of-table levels clamp instead of panicking.
	assert.Equal(t, 100, CapacityForLevel(0))
	assert.Equal(t, 100, CapacityForLevel(-3))
	assert.Equal(t, 30000, CapacityForLevel(40))
}

func TestFootprint(t *testing.T) {
	assert.Equal(t, 3, Footprint(1, TypeTribalCenter))
	assert.Equal(t, 2, Footprint(1, TypeSquadHQ))
	// Fixed-size types ignore level.
	assert.Equal(t, 3, Footprint(10, TypeTribalCenter))

	assert.Equal(t, 1, Footprint(1, TypeProduct))
	assert.Equal(t, 1, Footprint(3, TypeProduct))
	assert.Equal(t, 2, Footprint(4, TypeProduct))
	assert.Equal(t, 2, Footprint(6, TypeProduct))
	assert.Equal(t, 3, Footprint(7, TypeProduct))
}

func TestUpgradeCost(t *testing.T) {
	assert.Equal(t, 50, UpgradeCost(0))
	assert.Equal(t, 80, UpgradeCost(1))
	assert.Equal(t, 128, UpgradeCost(2))
	assert.Equal(t, 204, UpgradeCost(3))
}

func TestInBounds(t *testing.T) {
	assert.True(t, InBounds(Position{X: 0, Z: 0}, 1))
	assert.True(t, InBounds(Position{X: GridSize - 3, Z: GridSize - 3}, 3))
	assert.False(t, InBounds(Position{X: GridSize - 2, Z: 0}, 3))
	assert.False(t, InBounds(Position{X: -1, Z: 0}, 1))
}

func TestOverlaps(t *testing.T) {
	assert.True(t, Overlaps(Position{X: 0, Z: 0}, 2, Position{X: 1, Z: 1}, 2))
	// Edge-adjacent footprints do not overlap.
	assert.False(t, Overlaps(Position{X: 0, Z: 0}, 2, Position{X: 2, Z: 0}, 2))
	assert.False(t, Overlaps(Position{X: 0, Z: 0}, 1, Position{X: 5, Z: 5}, 3))
}

func TestAreaFree(t *testing.T) {
	hq := New("alice", "s1", TypeSquadHQ, Position{X: 5, Z: 5}) // 2x2 at (5,5)

	buildings := []*Building{hq}

	assert.True(t, AreaFree(buildings, Position{X: 0, Z: 0}, 2, ""))
	assert.False(t, AreaFree(buildings, Position{X: 6, Z: 6}, 1, ""))
	// A building may re-occupy its own tiles.
	assert.True(t, AreaFree(buildings, Position{X: 6, Z: 6}, 1, hq.ID))
	// Unplaced buildings reserve nothing.
	hq.Placed = false
	assert.True(t, AreaFree(buildings, Position{X: 5, Z: 5}, 2, ""))
}

func TestGenerateGroundDeterministic(t *testing.T) {
	a := GenerateGround(7)
	b := GenerateGround(7)
	c := GenerateGround(8)

	assert.Len(t, a, GridSize*GridSize)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	for _, tile := range a {
		assert.GreaterOrEqual(t, tile.Elevation, 0.0)
		assert.LessOrEqual(t, tile.Elevation, 1.0)
		assert.GreaterOrEqual(t, tile.Greenery, 0.0)
		assert.LessOrEqual(t, tile.Greenery, 1.0)
	}
}

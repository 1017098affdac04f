// Package town provides the building aggregate and the tile grid the
// buildings stand on. A building owns a collection of tasks and enforces a
// per-level point-capacity ceiling; the grid is simple spatial bookkeeping
// for placement, movement, and demolition.
package town

import (
	"github.com/google/uuid"
)

// BuildingType distinguishes the building roles on the grid.
type BuildingType string

const (
	TypeResidential  BuildingType = "RESIDENTIAL"   // player home / HQ
	TypeSquadHQ      BuildingType = "SQUAD_HQ"      // squad central
	TypeTribalCenter BuildingType = "TRIBAL_CENTER" // guild hub
	TypeDecoration   BuildingType = "DECORATION"
	TypeGovernance   BuildingType = "GOVERNANCE"
	TypePeople       BuildingType = "PEOPLE"
	TypeProduct      BuildingType = "PRODUCT"
	TypeMarket       BuildingType = "MARKET"
	TypeResources    BuildingType = "RESOURCES"
)

// Valid reports whether t is a known building type.
func (t BuildingType) Valid() bool {
	switch t {
	case TypeResidential, TypeSquadHQ, TypeTribalCenter, TypeDecoration,
		TypeGovernance, TypePeople, TypeProduct, TypeMarket, TypeResources:
		return true
	default:
		return false
	}
}

// Organizational reports whether a squad may own at most one building of
// this type (everything except homes and decorations).
func (t BuildingType) Organizational() bool {
	switch t {
	case TypeResidential, TypeDecoration:
		return false
	default:
		return true
	}
}

// Position is a tile coordinate on the town grid (top-left corner of the
// building footprint).
type Position struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// Building is the container aggregate: it owns tasks (by reference, via the
// store) and is the unit the capacity check is scoped to.
type Building struct {
	ID      string       `json:"id"`
	OwnerID string       `json:"owner_id"`
	SquadID string       `json:"squad_id"`
	Type    BuildingType `json:"type"`
	Level   int          `json:"level"`
	Pos     Position     `json:"position"`
	Placed  bool         `json:"placed"`

	// ConcludedPoints is a denormalized running total of settled points
	// (current DONE finals plus every history entry), maintained inside the
	// settlement transaction. The capacity gate reads this instead of
	// replaying history on every check; history stays as the audit log.
	ConcludedPoints int `json:"concluded_points"`
}

// New creates a level-1 building at the given tile.
func New(ownerID, squadID string, typ BuildingType, pos Position) *Building {
	return &Building{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		SquadID: squadID,
		Type:    typ,
		Level:   1,
		Pos:     pos,
		Placed:  true,
	}
}

// capacityByLevel is the point-capacity ceiling per building level.
// Monotonically increasing; levels past the table clamp to the last entry.
var capacityByLevel = []int{
	100,   // 1
	200,   // 2
	400,   // 3
	700,   // 4
	1200,  // 5
	2000,  // 6
	3300,  // 7
	5400,  // 8
	8800,  // 9
	14300, // 10
	20000, // 11
	30000, // 12
}

// CapacityForLevel returns the concluded-point ceiling for a building level.
func CapacityForLevel(level int) int {
	if level < 1 {
		level = 1
	}
	if level > len(capacityByLevel) {
		level = len(capacityByLevel)
	}
	return capacityByLevel[level-1]
}

// Capacity is the building's own ceiling.
func (b *Building) Capacity() int {
	return CapacityForLevel(b.Level)
}

// Footprint returns the square tile size of a building. Squad HQs start at
// 2×2 and the tribal center at 3×3; everything else grows with level.
func Footprint(level int, typ BuildingType) int {
	switch typ {
	case TypeTribalCenter:
		return 3
	case TypeSquadHQ:
		return 2
	}
	switch {
	case level >= 7:
		return 3
	case level >= 4:
		return 2
	default:
		return 1
	}
}

// UpgradeCost is the coin price to go from level to level+1:
// floor(50 × 1.6^level).
func UpgradeCost(level int) int {
	cost := 50.0
	for i := 0; i < level; i++ {
		cost *= 1.6
	}
	return int(cost)
}

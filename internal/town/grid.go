package town

// GridSize is the side length of the square town grid, in tiles.
const GridSize = 20

// InBounds reports whether a footprint of the given size fits on the grid
// when anchored at pos.
func InBounds(pos Position, size int) bool {
	return pos.X >= 0 && pos.Z >= 0 &&
		pos.X+size <= GridSize && pos.Z+size <= GridSize
}

// Overlaps reports whether two square footprints intersect.
func Overlaps(aPos Position, aSize int, bPos Position, bSize int) bool {
	xOverlap := aPos.X < bPos.X+bSize && aPos.X+aSize > bPos.X
	zOverlap := aPos.Z < bPos.Z+bSize && aPos.Z+aSize > bPos.Z
	return xOverlap && zOverlap
}

// AreaFree reports whether a footprint of the given size at pos is inside
// the grid and clear of every placed building, excluding excludeID (used
// when moving or expanding a building onto its own tiles).
func AreaFree(buildings []*Building, pos Position, size int, excludeID string) bool {
	if !InBounds(pos, size) {
		return false
	}
	for _, b := range buildings {
		if !b.Placed || b.ID == excludeID {
			continue
		}
		if Overlaps(pos, size, b.Pos, Footprint(b.Level, b.Type)) {
			return false
		}
	}
	return true
}

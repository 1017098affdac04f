// Package progression holds the player and squad leveling curves and the
// reputation model. Pure math; the engine applies it inside settlement
// transactions.
package progression

import (
	"math"

	"github.com/talgya/guildgrid/internal/scoring"
)

const (
	// PlayerXPBase is the XP needed to clear level 1.
	PlayerXPBase = 1000
	// SquadXPBase is the (larger) squad equivalent.
	SquadXPBase = 2000
	// Growth is the geometric factor applied per level for both curves.
	Growth = 1.5

	// ReputationSeed is the neutral starting reputation.
	ReputationSeed = 3.0
	// reputationDecay and reputationGain weight history vs. the newest
	// rating in the EMA.
	reputationDecay = 0.95
	reputationGain  = 0.05
)

// NextThreshold returns the XP needed to clear the given level:
// base × growth^(level-1).
func NextThreshold(base, level int) int {
	if level < 1 {
		level = 1
	}
	return int(math.Floor(float64(base) * math.Pow(Growth, float64(level-1))))
}

// PlayerThreshold is NextThreshold on the player curve.
func PlayerThreshold(level int) int {
	return NextThreshold(PlayerXPBase, level)
}

// ApplyXP adds earned XP to a player's in-level progress and rolls over
// level-ups while currentXP clears the threshold. Handles multi-level jumps
// from one large settlement in a single pass.
func ApplyXP(level, currentXP, earned int) (newLevel, newXP, nextThreshold int) {
	newLevel = level
	if newLevel < 1 {
		newLevel = 1
	}
	newXP = currentXP + earned
	nextThreshold = PlayerThreshold(newLevel)
	for newXP >= nextThreshold {
		newXP -= nextThreshold
		newLevel++
		nextThreshold = PlayerThreshold(newLevel)
	}
	return newLevel, newXP, nextThreshold
}

// SquadLevel derives a squad's level from its total historical+current XP.
// Never stored: always recomputed from task records so it cannot drift.
func SquadLevel(totalXP int) (level, xpInLevel, nextThreshold int) {
	level = 1
	nextThreshold = NextThreshold(SquadXPBase, level)
	xpInLevel = totalXP
	for xpInLevel >= nextThreshold {
		xpInLevel -= nextThreshold
		level++
		nextThreshold = NextThreshold(SquadXPBase, level)
	}
	return level, xpInLevel, nextThreshold
}

// UpdateReputation folds one rating into the reputation exponential moving
// average: rep × 0.95 + stars × 0.05. Deliberately more reactive to the
// latest result than a raw average of all ratings.
func UpdateReputation(rep float64, r scoring.Rating) float64 {
	return rep*reputationDecay + r.Stars()*reputationGain
}

// Stars maps a reputation value onto the five-point display scale.
func Stars(rep float64) int {
	switch {
	case rep >= 4.6:
		return 5
	case rep >= 3.6:
		return 4
	case rep >= 2.6:
		return 3
	case rep >= 1.6:
		return 2
	default:
		return 1
	}
}

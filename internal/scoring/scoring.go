// Package scoring computes task point values and rating rewards.
// All functions are pure; settlement and the estimate endpoint share them
// so displayed estimates can never diverge from settled values.
package scoring

import "math"

// Sizes is the allowed task size scale (Fibonacci-style estimation points).
var Sizes = []int{1, 2, 3, 5, 8, 13, 21, 34, 55}

// ValidSize reports whether size is on the estimation scale.
func ValidSize(size int) bool {
	for _, s := range Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// Complexity bounds.
const (
	MinComplexity = 1
	MaxComplexity = 3
)

// Rating is the 0-3 qualitative score a supervisor assigns at settlement.
type Rating int

const (
	RatingHarmful     Rating = 0 // no reward
	RatingBasic       Rating = 1
	RatingRelevant    Rating = 2
	RatingOutstanding Rating = 3
)

// Label returns the display name for a rating.
func (r Rating) Label() string {
	switch r {
	case RatingHarmful:
		return "Null/Harmful"
	case RatingBasic:
		return "Basic"
	case RatingRelevant:
		return "Relevant"
	case RatingOutstanding:
		return "Outstanding"
	default:
		return "Unknown"
	}
}

// Valid reports whether the rating is one of the four defined values.
func (r Rating) Valid() bool {
	return r >= RatingHarmful && r <= RatingOutstanding
}

// Multiplier converts a rating into a reward multiplier.
// Out-of-range ratings yield 0: no reward rather than an over-payment.
func (r Rating) Multiplier() float64 {
	switch r {
	case RatingBasic:
		return 1.0
	case RatingRelevant:
		return 1.5
	case RatingOutstanding:
		return 2.0
	default:
		return 0
	}
}

// Stars maps a rating onto the five-point reputation scale.
func (r Rating) Stars() float64 {
	switch r {
	case RatingHarmful:
		return 1
	case RatingBasic:
		return 3
	case RatingRelevant:
		return 4
	case RatingOutstanding:
		return 5
	default:
		return 1
	}
}

// XPPerPoint is the XP awarded for each final point.
const XPPerPoint = 10

// BasePoints is the task's point value before any rating is applied:
// floor(size × complexity × ruleMultiplier).
func BasePoints(size, complexity int, ruleMultiplier float64) int {
	pts := int(math.Floor(float64(size) * float64(complexity) * ruleMultiplier))
	if pts < 0 {
		return 0
	}
	return pts
}

// FinalPoints scales a participant's base share by the rating multiplier.
// Never negative: reward under-payment is safer than corrupting totals.
func FinalPoints(baseShare int, r Rating) int {
	pts := int(math.Floor(float64(baseShare) * r.Multiplier()))
	if pts < 0 {
		return 0
	}
	return pts
}

// Reward is the full per-participant settlement output for one cycle.
type Reward struct {
	Points int `json:"points"`
	Coins  int `json:"coins"`
	XP     int `json:"xp"`
}

// RewardFor computes the reward for one participant's base share at a rating.
// Coins track points 1:1; XP is points × 10.
func RewardFor(baseShare int, r Rating) Reward {
	pts := FinalPoints(baseShare, r)
	return Reward{
		Points: pts,
		Coins:  pts,
		XP:     pts * XPPerPoint,
	}
}

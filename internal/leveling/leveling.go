// Package leveling maps cumulative XP to levels. Every level is XPPerLevel wide.
package leveling

// XPPerLevel is the amount of XP between two consecutive levels
const XPPerLevel = 100

// CalculateLevel returns floor(totalXP/100)+1. Negative XP is treated as 0.
func CalculateLevel(totalXP int64) int {
	if totalXP < 0 {
		totalXP = 0
	}
	return int(totalXP/XPPerLevel) + 1
}

// XPForNextLevel returns how much XP is still missing to reach the next level
func XPForNextLevel(totalXP int64) int64 {
	if totalXP < 0 {
		totalXP = 0
	}
	return int64(CalculateLevel(totalXP))*XPPerLevel - totalXP
}

// ProgressToNextLevel returns the fraction of the current level already earned, in [0,1)
func ProgressToNextLevel(totalXP int64) float64 {
	if totalXP < 0 {
		totalXP = 0
	}
	levelStart := int64(CalculateLevel(totalXP)-1) * XPPerLevel
	return float64(totalXP-levelStart) / XPPerLevel
}

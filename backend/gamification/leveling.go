package gamification

import (
	"errors"
	"math"
)

// XP accrual constants applied when an attempt is finished.
const (
	XPPerQuestion  = 10
	XPPassBonus    = 50
	XPPerfectBonus = 100

	// PassingScore is the overall percentage required for the pass bonus.
	PassingScore = 70.0
)

var ErrInvalidXP = errors.New("xp must be a non-negative integer")

// LevelInfo describes where inside the level curve a given XP total sits.
type LevelInfo struct {
	Level       int `json:"level"`
	CurrentXP   int `json:"current_xp"`
	NextLevelXP int `json:"next_level_xp"`
	Progress    int `json:"progress"`
}

// LevelFromXP maps accumulated XP to a level. Completing level L costs
// (L+1)*100 XP, so the cumulative requirement grows 100, 300, 600, ...
// There is no level cap.
func LevelFromXP(xp int) (LevelInfo, error) {
	if xp < 0 {
		return LevelInfo{}, ErrInvalidXP
	}

	level := 0
	cumulative := 0
	needed := 100
	for xp >= cumulative+needed {
		cumulative += needed
		level++
		needed = (level + 1) * 100
	}

	current := xp - cumulative
	return LevelInfo{
		Level:       level,
		CurrentXP:   current,
		NextLevelXP: needed,
		Progress:    int(math.Round(float64(current) / float64(needed) * 100)),
	}, nil
}

// AttemptXP computes the XP delta for a finished attempt: a flat amount per
// answered question, a bonus for passing and a larger one for a perfect run.
func AttemptXP(correct, total int, score float64) int {
	xp := total * XPPerQuestion
	if score >= PassingScore {
		xp += XPPassBonus
	}
	if score == 100 && correct == total {
		xp += XPPerfectBonus
	}
	return xp
}

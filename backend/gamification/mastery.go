package gamification

import "math"

// Mastery tiers in ascending order.
const (
	TierNone   = "none"
	TierBronze = "bronze"
	TierSilver = "silver"
	TierGold   = "gold"
)

// RecentScoreWindow bounds how many scores a domain keeps; older ones are
// dropped as new attempts come in.
const RecentScoreWindow = 10

// ComputeMasteryTier maps a domain's recent scores to a mastery tier and a
// progress percentage toward the next tier. Bands are checked highest first
// because any sequence that qualifies for gold also qualifies for silver and
// bronze numerically.
func ComputeMasteryTier(scores []float64) (string, int) {
	n := len(scores)
	if n == 0 {
		return TierNone, 0
	}

	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	avg := sum / float64(n)

	switch {
	case n >= 7 && avg >= 85:
		// Terminal tier, nothing above gold.
		return TierGold, 100
	case n >= 5 && avg >= 70:
		return TierSilver, blend(avg-70, 15, float64(n-5), 2)
	case n >= 3 && avg >= 50:
		return TierBronze, blend(avg-50, 20, float64(n-3), 2)
	default:
		return TierNone, blend(avg, 50, float64(n), 3)
	}
}

// blend combines a score surplus and a count surplus, each scaled over its
// band and capped at 50 points, into a 0-100 progress value.
func blend(scoreSurplus, scoreBand, countSurplus, countBand float64) int {
	score := math.Min(scoreSurplus/scoreBand, 1) * 50
	count := math.Min(countSurplus/countBand, 1) * 50
	return int(math.Round(score + count))
}

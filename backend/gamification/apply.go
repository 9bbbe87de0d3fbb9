package gamification

import (
	"errors"
	"math"
	"time"

	"certprep/backend/models"
)

var ErrInvalidAttempt = errors.New("invalid attempt data")

// DomainResult is the per-domain slice of a finished attempt.
type DomainResult struct {
	Domain  string  `json:"domain"`
	Correct int     `json:"correct"`
	Total   int     `json:"total"`
	Score   float64 `json:"score"`
}

// AttemptContext carries everything the aggregator and badge rules need to
// know about a just-finished attempt. AttemptCount and PastScores are
// aggregates over the user's full attempt history; PastScores excludes the
// current attempt.
type AttemptContext struct {
	ExamCode     string
	Score        float64
	Correct      int
	Total        int
	Domains      []DomainResult
	AttemptCount int
	PastScores   []float64
}

// Validate rejects malformed attempt data before any state is touched.
func (ctx AttemptContext) Validate() error {
	if ctx.Total <= 0 || ctx.Correct < 0 || ctx.Correct > ctx.Total {
		return ErrInvalidAttempt
	}
	if math.IsNaN(ctx.Score) || math.IsInf(ctx.Score, 0) || ctx.Score < 0 || ctx.Score > 100 {
		return ErrInvalidAttempt
	}
	for _, d := range ctx.Domains {
		if d.Total <= 0 || d.Correct < 0 || d.Correct > d.Total {
			return ErrInvalidAttempt
		}
		if math.IsNaN(d.Score) || math.IsInf(d.Score, 0) || d.Score < 0 || d.Score > 100 {
			return ErrInvalidAttempt
		}
	}
	return nil
}

const dateLayout = "2006-01-02"

// ApplyAttempt folds a finished attempt into the user's gamification state
// and returns the new state plus the IDs of any newly earned badges. The
// input state is never mutated: on any error it is returned unchanged, so
// the update is all-or-nothing. Persistence is the caller's job.
func ApplyAttempt(state models.GamificationState, ctx AttemptContext, now time.Time, catalog []BadgeDefinition) (models.GamificationState, []string, error) {
	if err := ctx.Validate(); err != nil {
		return state, nil, err
	}

	next := state.Clone()

	// XP and derived level.
	next.XP += AttemptXP(ctx.Correct, ctx.Total, ctx.Score)
	info, err := LevelFromXP(next.XP)
	if err != nil {
		return state, nil, err
	}
	next.Level = info.Level

	// Streak: same-day practice never double-counts, a one-day gap extends,
	// anything else starts over.
	today := now.Format(dateLayout)
	yesterday := now.AddDate(0, 0, -1).Format(dateLayout)
	switch next.LastPracticeDate {
	case today:
		// unchanged
	case yesterday:
		next.Streak++
	default:
		next.Streak = 1
	}
	next.LastPracticeDate = today

	// Per-domain mastery.
	for _, d := range ctx.Domains {
		idx := -1
		for i := range next.DomainMastery {
			if next.DomainMastery[i].Domain == d.Domain {
				idx = i
				break
			}
		}
		if idx < 0 {
			next.DomainMastery = append(next.DomainMastery, models.DomainMastery{
				StateID: next.ID,
				Domain:  d.Domain,
			})
			idx = len(next.DomainMastery) - 1
		}

		dm := &next.DomainMastery[idx]
		scores := append(dm.Scores(), d.Score)
		if len(scores) > RecentScoreWindow {
			scores = scores[len(scores)-RecentScoreWindow:]
		}
		dm.SetScores(scores)
		dm.Tier, dm.Progress = ComputeMasteryTier(scores)
	}

	// Badges see the updated state so milestone rules read final values.
	newly := EvaluateBadges(next, ctx, catalog)
	for _, id := range newly {
		next.Badges = append(next.Badges, models.EarnedBadge{
			StateID:  next.ID,
			BadgeID:  id,
			EarnedAt: now,
		})
	}

	return next, newly, nil
}

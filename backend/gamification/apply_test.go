package gamification

import (
	"testing"
	"time"

	"certprep/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day1 = time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

func validCtx(score float64, correct, total, attemptCount int) AttemptContext {
	return AttemptContext{
		ExamCode:     "AWS-SAA-C03",
		Score:        score,
		Correct:      correct,
		Total:        total,
		AttemptCount: attemptCount,
	}
}

func TestApplyAttemptUpdatesXPAndLevel(t *testing.T) {
	state := models.GamificationState{}
	ctx := validCtx(100, 10, 10, 1)

	next, newly, err := ApplyAttempt(state, ctx, day1, Catalog())
	require.NoError(t, err)

	// 10 questions + pass bonus + perfect bonus.
	assert.Equal(t, 250, next.XP)
	assert.Equal(t, 1, next.Level)
	assert.Equal(t, 1, next.Streak)
	assert.Equal(t, "2025-03-10", next.LastPracticeDate)
	assert.Contains(t, newly, "first_steps")
	assert.Contains(t, newly, "flawless")
}

func TestApplyAttemptStreakRules(t *testing.T) {
	state := models.GamificationState{Streak: 1, LastPracticeDate: "2025-03-10"}
	ctx := validCtx(60, 6, 10, 2)

	// Same calendar date: no double counting.
	next, _, err := ApplyAttempt(state, ctx, day1.Add(5*time.Hour), Catalog())
	require.NoError(t, err)
	assert.Equal(t, 1, next.Streak)

	// Exactly one day later: streak extends.
	next, _, err = ApplyAttempt(state, ctx, day1.AddDate(0, 0, 1), Catalog())
	require.NoError(t, err)
	assert.Equal(t, 2, next.Streak)

	// Two or more days later: streak resets.
	next, _, err = ApplyAttempt(state, ctx, day1.AddDate(0, 0, 3), Catalog())
	require.NoError(t, err)
	assert.Equal(t, 1, next.Streak)
}

func TestApplyAttemptDomainMastery(t *testing.T) {
	state := models.GamificationState{}
	ctx := validCtx(60, 6, 10, 1)
	ctx.Domains = []DomainResult{
		{Domain: "networking", Correct: 3, Total: 5, Score: 60},
		{Domain: "security", Correct: 3, Total: 5, Score: 60},
	}

	next := state
	var err error
	now := day1
	for i := 0; i < 3; i++ {
		ctx.AttemptCount = i + 1
		next, _, err = ApplyAttempt(next, ctx, now, Catalog())
		require.NoError(t, err)
		now = now.AddDate(0, 0, 1)
	}

	require.Len(t, next.DomainMastery, 2)
	for _, dm := range next.DomainMastery {
		assert.Equal(t, TierBronze, dm.Tier)
		assert.Equal(t, 25, dm.Progress)
		assert.Len(t, dm.Scores(), 3)
	}
}

func TestApplyAttemptBoundsScoreWindow(t *testing.T) {
	state := models.GamificationState{}
	ctx := validCtx(80, 8, 10, 1)
	ctx.Domains = []DomainResult{{Domain: "compute", Correct: 8, Total: 10, Score: 80}}

	next := state
	var err error
	now := day1
	for i := 0; i < RecentScoreWindow+5; i++ {
		ctx.AttemptCount = i + 1
		next, _, err = ApplyAttempt(next, ctx, now, Catalog())
		require.NoError(t, err)
		now = now.AddDate(0, 0, 1)
	}

	require.Len(t, next.DomainMastery, 1)
	assert.Len(t, next.DomainMastery[0].Scores(), RecentScoreWindow)
}

func TestApplyAttemptRejectsInvalidData(t *testing.T) {
	state := models.GamificationState{
		XP: 500, Level: 2, Streak: 4, LastPracticeDate: "2025-03-09",
		Badges:        []models.EarnedBadge{{BadgeID: "first_steps"}},
		DomainMastery: []models.DomainMastery{{Domain: "compute", Tier: TierBronze, Progress: 25}},
	}

	bad := []AttemptContext{
		{Score: 50, Correct: 5, Total: 0, AttemptCount: 1},   // total zero
		{Score: 50, Correct: -1, Total: 10, AttemptCount: 1}, // negative correct
		{Score: 50, Correct: 11, Total: 10, AttemptCount: 1}, // correct > total
		{Score: 120, Correct: 5, Total: 10, AttemptCount: 1}, // score out of range
		{Score: 50, Correct: 5, Total: 10, AttemptCount: 1,
			Domains: []DomainResult{{Domain: "x", Correct: 3, Total: 2, Score: 50}}},
	}

	for _, ctx := range bad {
		got, newly, err := ApplyAttempt(state, ctx, day1, Catalog())
		assert.ErrorIs(t, err, ErrInvalidAttempt)
		assert.Empty(t, newly)
		// Whole update is atomic: the returned state matches the input.
		assert.Equal(t, state.XP, got.XP)
		assert.Equal(t, state.Streak, got.Streak)
		assert.Equal(t, state.LastPracticeDate, got.LastPracticeDate)
		assert.Len(t, got.Badges, 1)
		assert.Len(t, got.DomainMastery, 1)
	}
}

func TestApplyAttemptDoesNotMutateInput(t *testing.T) {
	state := models.GamificationState{
		XP: 100, Level: 1, Streak: 2, LastPracticeDate: "2025-03-09",
		Badges: []models.EarnedBadge{{BadgeID: "first_steps"}},
	}
	ctx := validCtx(100, 10, 10, 5)

	_, _, err := ApplyAttempt(state, ctx, day1, Catalog())
	require.NoError(t, err)

	assert.Equal(t, 100, state.XP)
	assert.Equal(t, 2, state.Streak)
	assert.Equal(t, "2025-03-09", state.LastPracticeDate)
	assert.Len(t, state.Badges, 1)
}

func TestApplyAttemptBadgesSeeUpdatedState(t *testing.T) {
	// Third consecutive practice day: the streak badge must fire on the
	// attempt that completes the streak, not one attempt later.
	state := models.GamificationState{Streak: 2, LastPracticeDate: "2025-03-09"}
	ctx := validCtx(60, 6, 10, 3)

	next, newly, err := ApplyAttempt(state, ctx, day1, Catalog())
	require.NoError(t, err)
	assert.Equal(t, 3, next.Streak)
	assert.Contains(t, newly, "streak_3")
}

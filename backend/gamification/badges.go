package gamification

import "certprep/backend/models"

// Badge categories (descriptive metadata only).
const (
	CategoryMilestone = "milestone"
	CategoryScore     = "score"
	CategoryStreak    = "streak"
	CategoryMastery   = "mastery"
	CategorySpecial   = "special"
)

// RuleKind selects the predicate a badge rule is dispatched to.
type RuleKind string

const (
	RuleAttempts RuleKind = "attempts" // finished attempts >= Threshold
	RuleScore    RuleKind = "score"    // this attempt's score >= Threshold
	RulePerfect  RuleKind = "perfect"  // this attempt had every answer correct
	RuleComeback RuleKind = "comeback" // score >= Threshold after a past score below 50
	RuleStreak   RuleKind = "streak"   // streak days >= Threshold
	RuleXP       RuleKind = "xp"       // total XP >= Threshold
	RuleLevel    RuleKind = "level"    // level >= Threshold
	RuleMastery  RuleKind = "mastery"  // at least Threshold domains at Tier or above
)

// BadgeRule is a tagged variant: Kind picks the predicate, Threshold and Tier
// parameterize it. Rules are data so the catalog stays testable without
// storing function values.
type BadgeRule struct {
	Kind      RuleKind
	Threshold int
	Tier      string
}

// BadgeDefinition is one entry of the static, process-wide badge catalog.
type BadgeDefinition struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Category    string    `json:"category"`
	Rule        BadgeRule `json:"-"`
}

// Catalog returns the badge catalog. Callers get a fresh slice; definitions
// themselves are immutable.
func Catalog() []BadgeDefinition {
	return []BadgeDefinition{
		{ID: "first_steps", Name: "First Steps", Description: "Finish your first practice exam", Icon: "🚀", Category: CategoryMilestone, Rule: BadgeRule{Kind: RuleAttempts, Threshold: 1}},
		{ID: "committed", Name: "Committed", Description: "Finish 10 practice exams", Icon: "📚", Category: CategoryMilestone, Rule: BadgeRule{Kind: RuleAttempts, Threshold: 10}},
		{ID: "marathon", Name: "Marathon", Description: "Finish 50 practice exams", Icon: "🏃", Category: CategoryMilestone, Rule: BadgeRule{Kind: RuleAttempts, Threshold: 50}},
		{ID: "centurion", Name: "Centurion", Description: "Finish 100 practice exams", Icon: "💯", Category: CategoryMilestone, Rule: BadgeRule{Kind: RuleAttempts, Threshold: 100}},
		{ID: "high_scorer", Name: "High Scorer", Description: "Score 90% or better on an attempt", Icon: "🎯", Category: CategoryScore, Rule: BadgeRule{Kind: RuleScore, Threshold: 90}},
		{ID: "flawless", Name: "Flawless", Description: "Answer every question correctly", Icon: "✨", Category: CategoryScore, Rule: BadgeRule{Kind: RulePerfect}},
		{ID: "comeback", Name: "Comeback", Description: "Score 90% after a failed attempt", Icon: "🔄", Category: CategorySpecial, Rule: BadgeRule{Kind: RuleComeback, Threshold: 90}},
		{ID: "streak_3", Name: "On a Roll", Description: "Practice 3 days in a row", Icon: "🔥", Category: CategoryStreak, Rule: BadgeRule{Kind: RuleStreak, Threshold: 3}},
		{ID: "streak_7", Name: "Week Warrior", Description: "Practice 7 days in a row", Icon: "⚔️", Category: CategoryStreak, Rule: BadgeRule{Kind: RuleStreak, Threshold: 7}},
		{ID: "streak_30", Name: "Iron Habit", Description: "Practice 30 days in a row", Icon: "🗓️", Category: CategoryStreak, Rule: BadgeRule{Kind: RuleStreak, Threshold: 30}},
		{ID: "bronze_league", Name: "Bronze League", Description: "Reach bronze mastery in a domain", Icon: "🥉", Category: CategoryMastery, Rule: BadgeRule{Kind: RuleMastery, Threshold: 1, Tier: TierBronze}},
		{ID: "silver_league", Name: "Silver League", Description: "Reach silver mastery in a domain", Icon: "🥈", Category: CategoryMastery, Rule: BadgeRule{Kind: RuleMastery, Threshold: 1, Tier: TierSilver}},
		{ID: "gold_league", Name: "Gold League", Description: "Reach gold mastery in a domain", Icon: "🥇", Category: CategoryMastery, Rule: BadgeRule{Kind: RuleMastery, Threshold: 1, Tier: TierGold}},
		{ID: "domain_master", Name: "Domain Master", Description: "Reach gold mastery in 3 domains", Icon: "👑", Category: CategoryMastery, Rule: BadgeRule{Kind: RuleMastery, Threshold: 3, Tier: TierGold}},
		{ID: "climber", Name: "Climber", Description: "Reach level 5", Icon: "🧗", Category: CategoryMilestone, Rule: BadgeRule{Kind: RuleLevel, Threshold: 5}},
		{ID: "powerhouse", Name: "Powerhouse", Description: "Earn 10,000 total XP", Icon: "⚡", Category: CategorySpecial, Rule: BadgeRule{Kind: RuleXP, Threshold: 10000}},
	}
}

// EvaluateBadges returns the IDs of catalog badges whose rule is satisfied by
// the (already updated) state and attempt context and which the user has not
// earned yet, in catalog order. Rules are independent; no rule may look at
// another badge's earned status.
func EvaluateBadges(state models.GamificationState, ctx AttemptContext, catalog []BadgeDefinition) []string {
	earned := make(map[string]bool, len(state.Badges))
	for _, b := range state.Badges {
		earned[b.BadgeID] = true
	}

	var newly []string
	for _, def := range catalog {
		if earned[def.ID] {
			continue
		}
		if ruleSatisfied(def.Rule, state, ctx) {
			newly = append(newly, def.ID)
		}
	}
	return newly
}

func ruleSatisfied(rule BadgeRule, state models.GamificationState, ctx AttemptContext) bool {
	switch rule.Kind {
	case RuleAttempts:
		return ctx.AttemptCount >= rule.Threshold
	case RuleScore:
		return ctx.Score >= float64(rule.Threshold)
	case RulePerfect:
		return ctx.Total > 0 && ctx.Correct == ctx.Total
	case RuleComeback:
		if ctx.Score < float64(rule.Threshold) {
			return false
		}
		for _, past := range ctx.PastScores {
			if past < 50 {
				return true
			}
		}
		return false
	case RuleStreak:
		return state.Streak >= rule.Threshold
	case RuleXP:
		return state.XP >= rule.Threshold
	case RuleLevel:
		return state.Level >= rule.Threshold
	case RuleMastery:
		count := 0
		for _, dm := range state.DomainMastery {
			if tierRank(dm.Tier) >= tierRank(rule.Tier) {
				count++
			}
		}
		return count >= rule.Threshold
	default:
		return false
	}
}

func tierRank(tier string) int {
	switch tier {
	case TierBronze:
		return 1
	case TierSilver:
		return 2
	case TierGold:
		return 3
	default:
		return 0
	}
}

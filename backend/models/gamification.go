package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// GamificationState holds one user's progression. Level is always derived
// from XP, and DomainMastery tier/progress from RecentScores; neither is set
// directly.
type GamificationState struct {
	gorm.Model
	UserID           uint            `gorm:"uniqueIndex;not null"`
	XP               int             `gorm:"default:0"`
	Level            int             `gorm:"default:0"`
	Streak           int             `gorm:"default:0"`
	LastPracticeDate string          // "2006-01-02", empty if never practiced
	LeaderboardOptIn bool            `gorm:"default:false"`
	Badges           []EarnedBadge   `gorm:"foreignKey:StateID"`
	DomainMastery    []DomainMastery `gorm:"foreignKey:StateID"`
}

// EarnedBadge is append-only: once earned a badge is never revoked.
type EarnedBadge struct {
	gorm.Model
	StateID  uint      `gorm:"index:idx_state_badge,unique"`
	BadgeID  string    `gorm:"index:idx_state_badge,unique;not null"`
	EarnedAt time.Time
}

// DomainMastery tracks recent performance in one exam domain. RecentScores is
// a JSON array of the latest percentage scores, oldest first.
type DomainMastery struct {
	gorm.Model
	StateID      uint   `gorm:"index:idx_state_domain,unique"`
	Domain       string `gorm:"index:idx_state_domain,unique;not null"`
	RecentScores string
	Tier         string `gorm:"default:none"`
	Progress     int    `gorm:"default:0"`
}

// Scores decodes the RecentScores JSON array. A missing or malformed value
// decodes to an empty slice.
func (dm *DomainMastery) Scores() []float64 {
	var scores []float64
	json.Unmarshal([]byte(dm.RecentScores), &scores)
	return scores
}

// SetScores encodes scores into the RecentScores JSON array.
func (dm *DomainMastery) SetScores(scores []float64) {
	data, _ := json.Marshal(scores)
	dm.RecentScores = string(data)
}

// Clone returns a deep copy so callers can mutate a candidate state without
// touching the original.
func (s GamificationState) Clone() GamificationState {
	out := s
	out.Badges = make([]EarnedBadge, len(s.Badges))
	copy(out.Badges, s.Badges)
	out.DomainMastery = make([]DomainMastery, len(s.DomainMastery))
	copy(out.DomainMastery, s.DomainMastery)
	return out
}

package models

import (
	"time"

	"gorm.io/gorm"
)

type Exam struct {
	gorm.Model
	Code        string     `gorm:"unique;not null"` // e.g. "AWS-SAA-C03"
	Title       string
	Description string
	Provider    string
	Questions   []Question
}

type Question struct {
	gorm.Model
	ExamID        uint
	Domain        string
	Question      string
	Options       string // JSON array of options
	CorrectAnswer int
	Explanation   string
	SequenceOrder int
}

// Attempt is the persisted record of one finished quiz run.
type Attempt struct {
	gorm.Model
	PublicID        string    `gorm:"uniqueIndex;not null"` // UUID shown to clients
	UserID          uint      `gorm:"index"`
	ExamCode        string
	Score           float64
	CorrectAnswers  int
	TotalQuestions  int
	DomainBreakdown string    // JSON array of per-domain results
	FinishedAt      time.Time
}

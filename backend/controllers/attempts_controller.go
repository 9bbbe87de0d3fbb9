package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sort"
	"time"

	"certprep/backend/config"
	"certprep/backend/gamification"
	"certprep/backend/leaderboard"
	"certprep/backend/middleware"
	"certprep/backend/models"
	"certprep/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptsController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Catalog []gamification.BadgeDefinition
	Board   *leaderboard.Service
	Logger  *log.Logger
}

func NewAttemptsController(db *gorm.DB, cfg *config.Config, catalog []gamification.BadgeDefinition, board *leaderboard.Service, logger *log.Logger) *AttemptsController {
	return &AttemptsController{DB: db, Cfg: cfg, Catalog: catalog, Board: board, Logger: logger}
}

// SubmitAttempt godoc
// @Summary Submit a finished attempt
// @Description Grades the answers, folds the result into the user's gamification state and saves both atomically
// @Tags attempts
// @Accept json
// @Produce json
// @Param request body map[string]interface{} true "Exam code and answers"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /attempts [post]
func (atc *AttemptsController) SubmitAttempt(c *fiber.Ctx) error {
	userID, ok := middleware.AuthenticatedUser(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	type AnswerInput struct {
		QuestionID uint `json:"question_id"`
		Answer     int  `json:"answer"`
	}
	type AttemptInput struct {
		ExamCode string        `json:"exam_code"`
		Answers  []AnswerInput `json:"answers"`
	}

	var input AttemptInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var exam models.Exam
	if err := atc.DB.Preload("Questions").Where("code = ?", input.ExamCode).First(&exam).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Exam not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	res := resolveAccess(c, atc.DB)
	questions := visibleQuestions(exam.Questions, res.Config.QuestionLimit)
	if len(questions) == 0 {
		return utils.BadRequest(c, "Exam has no questions")
	}

	// Grade against the questions the caller's tier was served
	answers := make(map[uint]int, len(input.Answers))
	for _, a := range input.Answers {
		answers[a.QuestionID] = a.Answer
	}

	correct := 0
	perDomain := map[string]*gamification.DomainResult{}
	for _, q := range questions {
		d, found := perDomain[q.Domain]
		if !found {
			d = &gamification.DomainResult{Domain: q.Domain}
			perDomain[q.Domain] = d
		}
		d.Total++
		if answer, answered := answers[q.ID]; answered && answer == q.CorrectAnswer {
			correct++
			d.Correct++
		}
	}

	domains := make([]gamification.DomainResult, 0, len(perDomain))
	for _, d := range perDomain {
		d.Score = float64(d.Correct) / float64(d.Total) * 100
		domains = append(domains, *d)
	}
	sort.Slice(domains, func(i, j int) bool { return domains[i].Domain < domains[j].Domain })

	// Attempt history aggregates for badge rules
	var attemptCount int64
	atc.DB.Model(&models.Attempt{}).Where("user_id = ?", userID).Count(&attemptCount)

	var pastScores []float64
	atc.DB.Model(&models.Attempt{}).Where("user_id = ?", userID).
		Order("finished_at").Pluck("score", &pastScores)

	now := time.Now()
	ctx := gamification.AttemptContext{
		ExamCode:     exam.Code,
		Score:        float64(correct) / float64(len(questions)) * 100,
		Correct:      correct,
		Total:        len(questions),
		Domains:      domains,
		AttemptCount: int(attemptCount) + 1,
		PastScores:   pastScores,
	}

	breakdown, _ := json.Marshal(domains)
	attempt := models.Attempt{
		PublicID:        uuid.NewString(),
		UserID:          userID,
		ExamCode:        exam.Code,
		Score:           ctx.Score,
		CorrectAnswers:  correct,
		TotalQuestions:  len(questions),
		DomainBreakdown: string(breakdown),
		FinishedAt:      now,
	}

	var newState models.GamificationState
	var newBadges []string
	err := atc.DB.Transaction(func(tx *gorm.DB) error {
		// Serialize concurrent submissions for the same user on the state row.
		query := tx.Preload("Badges").Preload("DomainMastery")
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var state models.GamificationState
		if err := query.Where("user_id = ?", userID).First(&state).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			state = models.GamificationState{UserID: userID}
			if err := tx.Create(&state).Error; err != nil {
				return err
			}
		}

		var err error
		newState, newBadges, err = gamification.ApplyAttempt(state, ctx, now, atc.Catalog)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"xp":                 newState.XP,
			"level":              newState.Level,
			"streak":             newState.Streak,
			"last_practice_date": newState.LastPracticeDate,
		}
		if err := tx.Model(&models.GamificationState{}).Where("id = ?", newState.ID).Updates(updates).Error; err != nil {
			return err
		}

		for i := range newState.Badges {
			if newState.Badges[i].ID == 0 {
				if err := tx.Create(&newState.Badges[i]).Error; err != nil {
					return err
				}
			}
		}

		for i := range newState.DomainMastery {
			dm := &newState.DomainMastery[i]
			if dm.ID == 0 {
				if err := tx.Create(dm).Error; err != nil {
					return err
				}
			} else {
				err := tx.Model(&models.DomainMastery{}).Where("id = ?", dm.ID).Updates(map[string]interface{}{
					"recent_scores": dm.RecentScores,
					"tier":          dm.Tier,
					"progress":      dm.Progress,
				}).Error
				if err != nil {
					return err
				}
			}
		}

		return tx.Create(&attempt).Error
	})
	if err != nil {
		if errors.Is(err, gamification.ErrInvalidAttempt) {
			return utils.BadRequest(c, "Invalid attempt data")
		}
		return utils.InternalServerError(c, "Could not save attempt")
	}

	// Leaderboard push is best effort; a Redis hiccup must not fail the
	// attempt that is already saved.
	if atc.Board != nil && newState.LeaderboardOptIn && res.Config.Leaderboard {
		var user models.User
		if err := atc.DB.First(&user, userID).Error; err == nil {
			if err := atc.Board.Record(context.Background(), user.Username, newState.XP); err != nil {
				atc.Logger.Printf("leaderboard update failed for user %d: %v", userID, err)
			}
		}
	}

	return c.JSON(fiber.Map{
		"attempt": fiber.Map{
			"id":        attempt.PublicID,
			"exam_code": attempt.ExamCode,
			"score":     attempt.Score,
			"correct":   attempt.CorrectAnswers,
			"total":     attempt.TotalQuestions,
			"domains":   domains,
		},
		"state":      stateSummary(newState, atc.Catalog, res.Config.DomainMastery),
		"new_badges": badgeDetails(newBadges, atc.Catalog),
	})
}

// GetAttempts godoc
// @Summary List saved attempts
// @Description Returns the most recent attempts, capped by the tier's saved-attempt limit
// @Tags attempts
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /attempts [get]
func (atc *AttemptsController) GetAttempts(c *fiber.Ctx) error {
	userID, ok := middleware.AuthenticatedUser(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	res := resolveAccess(c, atc.DB)

	attempts := []models.Attempt{}
	if res.Config.SavedAttemptLimit > 0 {
		atc.DB.Where("user_id = ?", userID).
			Order("finished_at DESC").
			Limit(res.Config.SavedAttemptLimit).
			Find(&attempts)
	}

	result := make([]fiber.Map, 0, len(attempts))
	for _, a := range attempts {
		result = append(result, fiber.Map{
			"id":          a.PublicID,
			"exam_code":   a.ExamCode,
			"score":       a.Score,
			"correct":     a.CorrectAnswers,
			"total":       a.TotalQuestions,
			"finished_at": a.FinishedAt,
		})
	}

	return c.JSON(fiber.Map{
		"attempts": result,
		"limit":    res.Config.SavedAttemptLimit,
	})
}

// GetAttempt godoc
// @Summary Review one attempt
// @Description Returns the full attempt record including the per-domain breakdown; requires the review feature
// @Tags attempts
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /attempts/{id} [get]
func (atc *AttemptsController) GetAttempt(c *fiber.Ctx) error {
	userID, ok := middleware.AuthenticatedUser(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	res := resolveAccess(c, atc.DB)
	if !res.Config.CanReview {
		return utils.Forbidden(c, "Attempt review requires a paid plan")
	}

	var attempt models.Attempt
	if err := atc.DB.Where("public_id = ? AND user_id = ?", c.Params("id"), userID).First(&attempt).Error; err != nil {
		return utils.NotFound(c, "Attempt not found")
	}

	var domains []gamification.DomainResult
	json.Unmarshal([]byte(attempt.DomainBreakdown), &domains)

	return c.JSON(fiber.Map{
		"id":          attempt.PublicID,
		"exam_code":   attempt.ExamCode,
		"score":       attempt.Score,
		"correct":     attempt.CorrectAnswers,
		"total":       attempt.TotalQuestions,
		"domains":     domains,
		"finished_at": attempt.FinishedAt,
	})
}

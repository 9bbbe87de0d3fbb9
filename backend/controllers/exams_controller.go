package controllers

import (
	"encoding/json"
	"errors"
	"sort"

	"certprep/backend/config"
	"certprep/backend/models"
	"certprep/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ExamsController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewExamsController(db *gorm.DB, cfg *config.Config) *ExamsController {
	return &ExamsController{DB: db, Cfg: cfg}
}

// GetExams godoc
// @Summary List available exams
// @Tags exams
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /exams [get]
func (ec *ExamsController) GetExams(c *fiber.Ctx) error {
	var exams []models.Exam
	ec.DB.Preload("Questions").Find(&exams)

	result := make([]fiber.Map, 0, len(exams))
	for _, exam := range exams {
		result = append(result, fiber.Map{
			"code":        exam.Code,
			"title":       exam.Title,
			"description": exam.Description,
			"provider":    exam.Provider,
			"questions":   len(exam.Questions),
		})
	}

	return c.JSON(fiber.Map{"exams": result})
}

// GetExamDetails godoc
// @Summary Get an exam's questions
// @Description Questions are truncated to the caller's tier question limit; correct answers are never included
// @Tags exams
// @Produce json
// @Param code path string true "Exam code"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Router /exams/{code} [get]
func (ec *ExamsController) GetExamDetails(c *fiber.Ctx) error {
	var exam models.Exam
	if err := ec.DB.Preload("Questions").Where("code = ?", c.Params("code")).First(&exam).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Exam not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	res := resolveAccess(c, ec.DB)
	visible := visibleQuestions(exam.Questions, res.Config.QuestionLimit)

	// Parse question options from JSON string to array; answers stay server-side
	questions := make([]fiber.Map, 0, len(visible))
	for _, q := range visible {
		var options []string
		json.Unmarshal([]byte(q.Options), &options)

		questions = append(questions, fiber.Map{
			"id":       q.ID,
			"domain":   q.Domain,
			"question": q.Question,
			"options":  options,
			"order":    q.SequenceOrder,
		})
	}

	reply := fiber.Map{
		"exam": fiber.Map{
			"code":        exam.Code,
			"title":       exam.Title,
			"description": exam.Description,
			"provider":    exam.Provider,
			"questions":   questions,
		},
		"tier":      res.Tier,
		"truncated": len(visible) < len(exam.Questions),
	}
	if res.Config.QuestionLimit != nil {
		reply["question_limit"] = *res.Config.QuestionLimit
	}

	return c.JSON(reply)
}

// visibleQuestions orders an exam's questions and truncates them to the
// tier's question limit (nil means unlimited).
func visibleQuestions(questions []models.Question, limit *int) []models.Question {
	ordered := make([]models.Question, len(questions))
	copy(ordered, questions)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].SequenceOrder < ordered[j].SequenceOrder
	})

	if limit != nil && len(ordered) > *limit {
		ordered = ordered[:*limit]
	}
	return ordered
}

package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"certprep/backend/config"
	"certprep/backend/models"
	"certprep/backend/utils"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config
)

func TestMain(m *testing.M) {
	setup()
	os.Exit(m.Run())
}

func setup() {
	cfg = &config.Config{
		JWTSecret:  "testsecret",
		ServerPort: "8080",
	}

	var err error
	db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.GamificationState{},
		&models.EarnedBadge{},
		&models.DomainMastery{},
		&models.Exam{},
		&models.Question{},
		&models.Attempt{},
		&models.Product{},
		&models.Entitlement{},
	)
	if err != nil {
		panic(err)
	}

	seedExam()
	seedProducts()

	app = fiber.New()
	SetupRoutes(app, db, cfg, nil, utils.InitLogger())
}

func seedExam() {
	exam := models.Exam{
		Code:     "AWS-SAA-C03",
		Title:    "AWS Solutions Architect Associate",
		Provider: "AWS",
	}
	options, _ := json.Marshal([]string{"A", "B", "C", "D"})
	domains := []string{"networking", "security"}
	for i := 0; i < 12; i++ {
		exam.Questions = append(exam.Questions, models.Question{
			Domain:        domains[i%2],
			Question:      fmt.Sprintf("Question %d", i+1),
			Options:       string(options),
			CorrectAnswer: 0,
			SequenceOrder: i + 1,
		})
	}
	db.Create(&exam)
}

func seedProducts() {
	db.Create(&models.Product{ProductID: "sub-monthly", Kind: "subscription", Name: "All Access", PriceCents: 1900})
	db.Create(&models.Product{ProductID: "exam-aws-saa", Kind: "exam", Name: "AWS SAA Practice", PriceCents: 2900, ExamCodes: "AWS-SAA-C03"})
}

func doJSON(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return resp.StatusCode, result
}

func registerUser(t *testing.T, username string) string {
	t.Helper()
	status, result := doJSON(t, "POST", "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equal(t, fiber.StatusOK, status)
	token, _ := result["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestAPI(t *testing.T) {
	var token string
	var attemptID string

	t.Run("RegisterAndLogin", func(t *testing.T) {
		token = registerUser(t, "alice")

		status, result := doJSON(t, "POST", "/api/auth/login", "", map[string]string{
			"username": "alice",
			"password": "password123",
		})
		assert.Equal(t, fiber.StatusOK, status)
		assert.NotEmpty(t, result["token"])
	})

	t.Run("VisitorAccess", func(t *testing.T) {
		status, result := doJSON(t, "GET", "/api/access", "", nil)
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "visitor", result["tier"])
	})

	t.Run("VisitorExamTruncation", func(t *testing.T) {
		status, result := doJSON(t, "GET", "/api/exams/AWS-SAA-C03", "", nil)
		require.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, true, result["truncated"])

		exam := result["exam"].(map[string]interface{})
		assert.Len(t, exam["questions"].([]interface{}), 10)
	})

	t.Run("RegisteredSeesAllQuestions", func(t *testing.T) {
		status, result := doJSON(t, "GET", "/api/exams/AWS-SAA-C03", token, nil)
		require.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, false, result["truncated"])

		exam := result["exam"].(map[string]interface{})
		assert.Len(t, exam["questions"].([]interface{}), 12)
	})

	t.Run("SubmitPerfectAttempt", func(t *testing.T) {
		var questions []models.Question
		db.Order("sequence_order").Find(&questions)

		answers := make([]map[string]interface{}, 0, len(questions))
		for _, q := range questions {
			answers = append(answers, map[string]interface{}{
				"question_id": q.ID,
				"answer":      0,
			})
		}

		status, result := doJSON(t, "POST", "/api/attempts", token, map[string]interface{}{
			"exam_code": "AWS-SAA-C03",
			"answers":   answers,
		})
		require.Equal(t, fiber.StatusOK, status)

		attempt := result["attempt"].(map[string]interface{})
		assert.Equal(t, float64(100), attempt["score"])
		attemptID = attempt["id"].(string)

		// 12 questions, pass bonus, perfect bonus.
		state := result["state"].(map[string]interface{})
		assert.Equal(t, float64(270), state["xp"])
		assert.Equal(t, float64(1), state["streak"])

		var badgeIDs []string
		for _, b := range result["new_badges"].([]interface{}) {
			badgeIDs = append(badgeIDs, b.(map[string]interface{})["id"].(string))
		}
		assert.Contains(t, badgeIDs, "first_steps")
		assert.Contains(t, badgeIDs, "flawless")
		assert.Contains(t, badgeIDs, "high_scorer")
	})

	t.Run("SameDayStreakUnchanged", func(t *testing.T) {
		status, result := doJSON(t, "POST", "/api/attempts", token, map[string]interface{}{
			"exam_code": "AWS-SAA-C03",
			"answers":   []map[string]interface{}{},
		})
		require.Equal(t, fiber.StatusOK, status)

		state := result["state"].(map[string]interface{})
		assert.Equal(t, float64(1), state["streak"])
	})

	t.Run("SavedAttemptsCappedByTier", func(t *testing.T) {
		status, result := doJSON(t, "GET", "/api/attempts", token, nil)
		require.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, float64(3), result["limit"])
		assert.LessOrEqual(t, len(result["attempts"].([]interface{})), 3)
	})

	t.Run("ReviewRequiresPaidPlan", func(t *testing.T) {
		status, _ := doJSON(t, "GET", "/api/attempts/"+attemptID, token, nil)
		assert.Equal(t, fiber.StatusForbidden, status)
	})

	t.Run("GamificationState", func(t *testing.T) {
		status, result := doJSON(t, "GET", "/api/gamification", token, nil)
		require.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, float64(390), result["xp"]) // 270 + 12*10 from the second run

		level := result["level"].(map[string]interface{})
		assert.Equal(t, float64(2), level["level"])

		// Registered tier does not expose domain mastery.
		_, hasMastery := result["domain_mastery"]
		assert.False(t, hasMastery)
	})

	t.Run("LeaderboardOptIn", func(t *testing.T) {
		status, result := doJSON(t, "PUT", "/api/gamification/leaderboard", token, map[string]bool{
			"opt_in": true,
		})
		require.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, true, result["leaderboard_opt_in"])
	})

	t.Run("LeaderboardUnavailableWithoutRedis", func(t *testing.T) {
		status, _ := doJSON(t, "GET", "/api/leaderboard", token, nil)
		assert.Equal(t, fiber.StatusServiceUnavailable, status)
	})

	t.Run("PayingTier", func(t *testing.T) {
		payToken := registerUser(t, "bob")

		var bob models.User
		require.NoError(t, db.Where("username = ?", "bob").First(&bob).Error)

		expires := time.Now().Add(30 * 24 * time.Hour)
		db.Create(&models.Entitlement{UserID: bob.ID, ProductID: "sub-monthly", ExpiresAt: &expires})

		status, result := doJSON(t, "GET", "/api/access", payToken, nil)
		require.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "paying", result["tier"])
		assert.Contains(t, result["entitlements"], "sub-monthly")

		features := result["features"].(map[string]interface{})
		assert.Equal(t, true, features["can_review"])
		assert.Nil(t, features["question_limit"])
	})

	t.Run("ExpiredEntitlementDoesNotPay", func(t *testing.T) {
		expToken := registerUser(t, "carol")

		var carol models.User
		require.NoError(t, db.Where("username = ?", "carol").First(&carol).Error)

		expired := time.Now().Add(-time.Hour)
		db.Create(&models.Entitlement{UserID: carol.ID, ProductID: "exam-aws-saa", ExpiresAt: &expired})

		status, result := doJSON(t, "GET", "/api/access", expToken, nil)
		require.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "registered", result["tier"])
	})

	t.Run("ProductsOwnedFlags", func(t *testing.T) {
		var bob models.User
		require.NoError(t, db.Where("username = ?", "bob").First(&bob).Error)
		bobToken, err := utils.GenerateJWTToken(bob.ID, cfg)
		require.NoError(t, err)

		status, result := doJSON(t, "GET", "/api/products", bobToken, nil)
		require.Equal(t, fiber.StatusOK, status)

		owned := map[string]bool{}
		for _, p := range result["products"].([]interface{}) {
			product := p.(map[string]interface{})
			owned[product["product_id"].(string)] = product["owned"].(bool)
		}
		assert.True(t, owned["sub-monthly"])
		assert.False(t, owned["exam-aws-saa"])
	})
}

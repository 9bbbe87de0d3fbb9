package routes

import (
	"log"

	"certprep/backend/config"
	"certprep/backend/controllers"
	"certprep/backend/gamification"
	"certprep/backend/leaderboard"
	"certprep/backend/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, board *leaderboard.Service, logger *log.Logger) {
	catalog := gamification.Catalog()

	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	requireAuth := middleware.RequireAuth(cfg)
	optionalAuth := middleware.OptionalAuth(cfg)

	// Catalog and access routes (visitors allowed)
	catalogController := controllers.NewCatalogController(db, cfg)
	app.Get("/api/access", optionalAuth, catalogController.GetAccess)
	app.Get("/api/products", optionalAuth, catalogController.GetProducts)

	// Exam routes (visitors get a truncated question set)
	examsController := controllers.NewExamsController(db, cfg)
	app.Get("/api/exams", optionalAuth, examsController.GetExams)
	app.Get("/api/exams/:code", optionalAuth, examsController.GetExamDetails)

	// Attempt routes
	attemptsController := controllers.NewAttemptsController(db, cfg, catalog, board, logger)
	attempts := app.Group("/api/attempts", requireAuth)
	attempts.Post("/", attemptsController.SubmitAttempt)
	attempts.Get("/", attemptsController.GetAttempts)
	attempts.Get("/:id", attemptsController.GetAttempt)

	// Gamification routes
	gamificationController := controllers.NewGamificationController(db, cfg, catalog, board, logger)
	app.Get("/api/gamification", requireAuth, gamificationController.GetState)
	app.Put("/api/gamification/leaderboard", requireAuth, gamificationController.UpdateLeaderboardOptIn)
	app.Get("/api/leaderboard", requireAuth, gamificationController.GetLeaderboard)
}

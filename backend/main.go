package main

import (
	"log"

	"certprep/backend/config"
	"certprep/backend/leaderboard"
	"certprep/backend/middleware"
	"certprep/backend/models"
	"certprep/backend/routes"
	"certprep/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}

	db.AutoMigrate(
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

	// Initialize logger
	logger := utils.InitLogger()

	// Leaderboard runs on Redis; the API stays up without it
	board, err := leaderboard.NewService(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.Printf("leaderboard disabled: %v", err)
		board = nil
	}

	// Create Fiber app
	app := fiber.New()

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	// Setup routes
	routes.SetupRoutes(app, db, cfg, board, logger)

	// Start server
	log.Fatal(app.Listen(":" + cfg.ServerPort))
}

package main

import (
	"log"
	"time"

	"bughunt/config"
	"bughunt/database"
	"bughunt/handlers"
	"bughunt/handlers/admin"
	"bughunt/middleware"
	"bughunt/realtime"
	"bughunt/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg := config.Load()
	cfg.Validate()

	// Initialize database
	database.InitDB()
	defer database.CloseDB()

	database.EnsureAdminUser(cfg.AdminUsername, cfg.AdminPassword)

	// Build services
	db := database.GetDB()
	clock := clockwork.NewRealClock()

	activityLog := services.NewActivityLogger(db)
	store := services.NewProgressStore(db, cfg.PointsPerPage, activityLog)
	tokens := services.NewTokenService(cfg.PageTokenSecret)
	roundService := services.NewRoundService(db, clock)
	gameService := services.NewGameService(db, store, tokens, roundService, activityLog, clock, cfg)

	if err := roundService.EnsureRounds(cfg.RoundCount, cfg.RoundMinutes); err != nil {
		log.Fatalf("Failed to create rounds: %v", err)
	}

	hub := realtime.NewHub(gameService)

	handlers.Init(cfg, gameService, roundService, store, activityLog, hub)
	admin.Init(cfg, roundService, store, activityLog, hub)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler(cfg),
		BodyLimit:    4 * 1024 * 1024, // 4MB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	// API Routes
	api := app.Group("/api")

	// Auth routes
	api.Post("/auth/join", handlers.JoinTeam)

	// Game routes
	api.Post("/game/start", middleware.AuthMiddleware, handlers.StartGame)
	api.Post("/game/validate-page", handlers.ValidatePage) // authenticated by page token
	api.Post("/game/state", handlers.GetGameState)

	// Dashboard
	api.Get("/dashboard", middleware.AuthMiddleware, handlers.TeamDashboard)

	// Admin routes
	adminGroup := api.Group("/admin")
	adminGroup.Post("/login", admin.Login)
	adminGroup.Post("/logout", admin.Logout)

	adminProtected := adminGroup.Group("")
	adminProtected.Use(middleware.AdminAuthMiddleware)
	adminProtected.Get("/verify", admin.VerifyToken)

	adminProtected.Get("/rounds", admin.ListRounds)
	adminProtected.Post("/rounds/:roundNumber/open", admin.OpenRound)
	adminProtected.Post("/rounds/:roundNumber/close", admin.CloseRound)
	adminProtected.Put("/rounds/:roundNumber/duration", admin.SetRoundDuration)
	adminProtected.Post("/rounds/:roundNumber/qualify", admin.QualifyRound)

	adminProtected.Post("/teams", admin.CreateTeam)
	adminProtected.Get("/teams", admin.ListTeams)
	adminProtected.Get("/teams/:teamId", admin.GetTeam)
	adminProtected.Delete("/teams/:teamId", admin.DeleteTeam)

	adminProtected.Get("/progress/sessions/:sessionId/pages", admin.ListSessionPages)
	adminProtected.Delete("/progress/sessions/:sessionId", admin.DeleteSession)
	adminProtected.Delete("/progress/pages/:pageId", admin.DeletePageRecord)

	adminProtected.Get("/activities", admin.ListActivities)
	adminProtected.Get("/leaderboard", admin.OverallLeaderboard)
	adminProtected.Get("/leaderboard/:roundNumber", admin.RoundLeaderboard)

	// Realtime team sync
	handlers.RegisterWebSocket(app, hub)

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
			"version":   "1.0.0",
		})
	})

	log.Printf("🚀 HTTP server starting on port %s", cfg.Port)
	log.Printf("📊 Environment: %s", cfg.AppEnv)
	log.Printf("🔐 JWT Secret configured: %v", cfg.JWTSecret != "")
	log.Printf("🎮 Rounds: %d × %d pages, %d points per page", cfg.RoundCount, cfg.MaxPages, cfg.PointsPerPage)

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start HTTP server:", err)
	}
}

func customErrorHandler(cfg config.Config) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			message = e.Message
		}

		// Don't expose internal errors in production
		if cfg.AppEnv == "production" && code == 500 {
			message = "An error occurred. Please try again later."
		}

		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"error":   message,
		})
	}
}

package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"questlog/internal/config"
	"questlog/internal/database"
	"questlog/internal/handlers"
	"questlog/internal/jobs"
	"questlog/internal/logging"
	"questlog/internal/middleware"
	"questlog/internal/services"
)

func main() {
	logging.Init()

	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️ No .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	redisService := services.NewRedisService(cfg.RedisURL)
	defer redisService.Close()

	metrics := services.InitMetrics()

	// Services
	llmService := services.NewLLMService(db, cfg, metrics)
	if cfg.ProvidersFile != "" {
		if err := llmService.LoadProvidersFile(cfg.ProvidersFile); err != nil {
			log.Printf("⚠️ Providers file not loaded: %v", err)
		} else if watcher, err := llmService.WatchProvidersFile(cfg.ProvidersFile); err == nil {
			defer watcher.Close()
		}
	}

	userService := services.NewUserService(db)
	tagService := services.NewTagService(db)
	statService := services.NewStatService(db)
	familyService := services.NewFamilyService(db)
	goalService := services.NewGoalService(db)
	attributeService := services.NewAttributeService(db)
	todoService := services.NewTodoService(db)
	xpService := services.NewXPService(db, metrics)
	contextService := services.NewContextService(userService, goalService, familyService, statService, tagService, attributeService)
	memoryService := services.NewMemoryService(db)
	extractionService := services.NewExtractionService(llmService, tagService, contextService)
	summaryService := services.NewSummaryService(db, llmService, attributeService)
	journalService := services.NewJournalService(db, llmService, extractionService, xpService, todoService, attributeService, contextService, memoryService, metrics, redisService)

	// Background jobs
	scheduler, err := jobs.NewScheduler()
	if err != nil {
		log.Fatalf("❌ Failed to create scheduler: %v", err)
	}
	mustRegister := func(cronExpr string, job jobs.Job) {
		if err := scheduler.Register(cronExpr, job); err != nil {
			log.Fatalf("❌ %v", err)
		}
	}
	mustRegister(cfg.WeeklySummaryCron, jobs.NewSummaryRollupJob(summaryService, "week"))
	mustRegister(cfg.MonthlySummaryCron, jobs.NewSummaryRollupJob(summaryService, "month"))
	mustRegister(cfg.TodoCleanupCron, jobs.NewTodoCleanupJob(todoService))
	scheduler.Start()

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Questlog v1.0",
		ReadTimeout:  120 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	prometheus := fiberprometheus.New("questlog")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
		log.Println("⚠️  ALLOWED_ORIGINS not set, using development defaults")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,X-User-ID",
	}))

	rateLimitConfig := middleware.LoadRateLimitConfig()
	app.Use("/api", middleware.GlobalAPIRateLimiter(rateLimitConfig))

	// Handlers
	healthHandler := handlers.NewHealthHandler(db)
	journalHandler := handlers.NewJournalHandler(journalService)
	characterHandler := handlers.NewCharacterHandler(statService, familyService)
	profileHandler := handlers.NewProfileHandler(tagService, goalService, attributeService, todoService)
	summaryHandler := handlers.NewSummaryHandler(summaryService)
	userHandler := handlers.NewUserHandler(userService)

	app.Get("/health", healthHandler.Handle)

	api := app.Group("/api", middleware.Identity(userService))
	api.Use(middleware.AuthenticatedRateLimiter(rateLimitConfig))

	llmLimited := middleware.LLMRateLimiter(rateLimitConfig)

	journals := api.Group("/journals")
	journals.Get("/today", journalHandler.Today)
	journals.Get("/", journalHandler.List)
	journals.Post("/", journalHandler.Create)
	journals.Get("/:date", journalHandler.Get)
	journals.Put("/:date", journalHandler.Update)
	journals.Delete("/:date", journalHandler.Delete)
	journals.Post("/:date/edit", journalHandler.Edit)
	journals.Post("/:date/start-reflection", llmLimited, journalHandler.StartReflection)
	journals.Post("/:date/chat", llmLimited, journalHandler.Chat)
	journals.Post("/:date/finish", llmLimited, journalHandler.Finish)

	api.Get("/tags", profileHandler.ListTags)
	api.Delete("/tags/:id", profileHandler.DeleteTag)

	api.Get("/stats", characterHandler.ListStats)
	api.Post("/stats", characterHandler.CreateStat)
	api.Get("/stats/:id", characterHandler.GetStat)
	api.Delete("/stats/:id", characterHandler.DeleteStat)

	api.Get("/family", characterHandler.ListFamily)
	api.Post("/family", characterHandler.CreateFamilyMember)
	api.Get("/family/:id", characterHandler.GetFamilyMember)
	api.Delete("/family/:id", characterHandler.DeleteFamilyMember)

	api.Get("/goals", profileHandler.ListGoals)
	api.Post("/goals", profileHandler.CreateGoal)
	api.Post("/goals/:id/archive", profileHandler.ArchiveGoal)
	api.Delete("/goals/:id", profileHandler.DeleteGoal)

	api.Get("/attributes", profileHandler.ListAttributes)
	api.Post("/attributes", profileHandler.CreateAttribute)
	api.Delete("/attributes/:id", profileHandler.DeleteAttribute)

	api.Get("/todos", profileHandler.ListTodos)
	api.Post("/todos/:id/complete", profileHandler.CompleteTodo)

	api.Get("/summaries", summaryHandler.List)
	api.Post("/summaries/generate", llmLimited, summaryHandler.Generate)

	api.Get("/profile", userHandler.Get)
	api.Put("/profile", userHandler.Update)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")
		scheduler.Stop()
		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	log.Printf("🚀 Questlog listening on :%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

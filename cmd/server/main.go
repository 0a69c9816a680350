package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hub-helio-backend/internal/config"
	"hub-helio-backend/internal/database"
	"hub-helio-backend/internal/handlers"
	"hub-helio-backend/internal/middleware"
	"hub-helio-backend/internal/models"
	"hub-helio-backend/internal/repository"
	"hub-helio-backend/internal/router"
	"hub-helio-backend/internal/services"
	"hub-helio-backend/internal/views"
	"hub-helio-backend/internal/websocket"
	"hub-helio-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting HUB Hélio Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	loc := cfg.Location()
	log.Printf("✓ Environment variables loaded (timezone %s)", loc)

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Local Schema (hosted databases manage their own) ────
	if cfg.RunMigrations {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := database.RunMigrations(ctx, pool, cfg.MigrationsDir)
		cancel()
		if err != nil {
			log.Fatalf("✗ Database migration failed: %v", err)
		}
		log.Println("✓ Database migrations applied")
	}

	// ──── Initialize Repositories ────
	cycleRepo := repository.NewCycleRepo(pool)
	reviewRepo := repository.NewReviewRepo(pool)
	plannerRepo := repository.NewPlannerRepo(pool)
	dashboardRepo := repository.NewDashboardRepo(pool)
	paginaRepo := repository.NewPaginaRepo(pool)
	anotacaoRepo := repository.NewAnotacaoRepo(pool)
	documentoRepo := repository.NewDocumentoRepo(pool)
	recursoRepo := repository.NewRecursoRepo(pool)
	flashcardRepo := repository.NewFlashcardRepo(pool)
	jobRepo := repository.NewJobRepo(pool)

	// ──── Step 5: Initialize Gemini Client (optional) ────
	var generator services.CardGenerator
	if cfg.GeminiAPIKey != "" {
		geminiService, err := services.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiConcurrentReqs)
		if err != nil {
			log.Fatalf("✗ Gemini client initialization failed: %v", err)
		}
		defer geminiService.Close()
		generator = geminiService
		log.Printf("✓ Gemini client initialized (%s)", cfg.GeminiModel)
	} else {
		log.Println("⚠ GEMINI_API_KEY not set, flashcards use the line parser")
	}

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	invalidator := services.NewInvalidator(redisClients.Cache)
	viewCache := services.NewViewCache(redisClients.Cache, cfg.ViewCacheTTL)
	youtubeService := services.NewYouTubeService()

	cycleService := services.NewCycleService(cycleRepo, reviewRepo, loc)
	plannerService := services.NewPlannerService(plannerRepo, loc)
	calendarService := services.NewCalendarService(dashboardRepo, viewCache, loc)
	exportService := services.NewExportService(cycleRepo, reviewRepo, plannerRepo, loc)
	libraryService := services.NewLibraryService(paginaRepo, anotacaoRepo, documentoRepo, recursoRepo, youtubeService)
	flashcardService := services.NewFlashcardService(flashcardRepo, jobRepo, redisClients.Cache, generator, services.FlashcardSources{
		Notes:       anotacaoRepo,
		Documents:   documentoRepo,
		Resources:   recursoRepo,
		Transcripts: youtubeService,
	})

	// ──── Initialize Handlers ────
	h := router.Handlers{
		Cycle:      handlers.NewCycleHandler(cycleService, exportService, invalidator),
		Planner:    handlers.NewPlannerHandler(plannerService, invalidator),
		Calendar:   handlers.NewCalendarHandler(calendarService),
		Library:    handlers.NewLibraryHandler(libraryService, invalidator),
		Flashcards: handlers.NewFlashcardHandler(flashcardService, invalidator),
	}

	// ──── Step 6: Start Job Worker Pool ────
	workerPool := worker.NewPool(redisClients.Cache, jobRepo, invalidator, cfg.WorkerCount)
	workerPool.Register(models.JobTypeFlashcardGeneration, flashcardService, "flashcard", views.Of(views.Flashcards))
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	// ──── Step 7: Start Review Digest ────
	digest := services.NewReviewDigestScheduler(cfg.ReviewDigestCron, reviewRepo, invalidator, redisClients.Cache, loc)
	if err := digest.Start(); err != nil {
		log.Fatalf("✗ Review digest scheduler failed: %v", err)
	}
	log.Println("✓ Review digest scheduler started")

	// ──── Step 8: Start WebSocket Hub ────
	wsHub := websocket.NewHub(websocket.RedisSource{Client: redisClients.PubSub}, jwtAuth, cfg.FrontendURL)
	log.Println("✓ WebSocket hub started")

	// ──── Step 9: Start HTTP Server ────
	limiter := middleware.NewRateLimiter(redisClients.Cache, cfg.RateLimitPerMinute, time.Minute)
	r := router.New(jwtAuth, limiter, h, wsHub, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		digest.Stop()
		workerPool.Stop()
		wsHub.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ HUB Hélio Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

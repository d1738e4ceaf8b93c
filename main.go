package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"precision-medicine-server/internal/approach"
	"precision-medicine-server/internal/config"
	"precision-medicine-server/internal/export"
	"precision-medicine-server/internal/llm"
	"precision-medicine-server/internal/logger"
	"precision-medicine-server/internal/metrics"
	"precision-medicine-server/internal/middleware"
	"precision-medicine-server/internal/models"
	"precision-medicine-server/internal/orchestrator"
	"precision-medicine-server/internal/recommend"
	"precision-medicine-server/internal/routes"
	"precision-medicine-server/internal/session"
)

func main() {
	// Load environment variables; a missing .env file is fine
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
	}

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(logger.Config{Level: cfg.LogLevel, Pretty: !cfg.IsProduction()})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Initialize database connection
	db, err := models.InitDB(models.DatabaseConfig{DSN: cfg.Database.DSN})
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}

	// Session store: Redis when configured, otherwise process memory
	var (
		store  session.Store
		pinger routes.Pinger
	)
	if cfg.Session.RedisURL != "" {
		redisStore, err := session.NewRedisStore(context.Background(), cfg.Session.RedisURL, cfg.Session.TTL)
		if err != nil {
			log.Fatal().Err(err).Msg("Error connecting to Redis")
		}
		defer redisStore.Close()
		store, pinger = redisStore, redisStore
	} else {
		log.Warn().Msg("REDIS_URL not set, sessions are kept in memory")
		store = session.NewMemoryStore(cfg.Session.TTL)
	}

	model, err := llm.New(llm.Config{
		AnthropicAPIKey:  cfg.LLM.AnthropicAPIKey,
		AnthropicModel:   cfg.LLM.AnthropicModel,
		AnthropicBaseURL: cfg.LLM.AnthropicBaseURL,
		OpenAIAPIKey:     cfg.LLM.OpenAIAPIKey,
		OpenAIModel:      cfg.LLM.OpenAIModel,
		OpenAIBaseURL:    cfg.LLM.OpenAIBaseURL,
		GeminiAPIKey:     cfg.LLM.GeminiAPIKey,
		GeminiModel:      cfg.LLM.GeminiModel,
		GeminiBaseURL:    cfg.LLM.GeminiBaseURL,
		Timeout:          cfg.LLM.Timeout,
	}, m)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		log.Warn().Msg("No language model API key set, using placeholder recommendations and keyword approach selection")
		model = nil
	case err != nil:
		log.Fatal().Err(err).Msg("Error configuring language model provider")
	default:
		log.Info().Str("provider", model.Name()).Msg("Language model provider configured")
	}

	orch := orchestrator.New(orchestrator.Deps{
		Archive:     models.NewArchive(db),
		Sessions:    store,
		Recommender: recommend.NewClient(model, m),
		Selector:    approach.NewSelector(model, cfg.ApproachCacheSize, m),
		Exporter:    export.NewExporter(),
		Metrics:     m,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.Metrics(m),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig(cfg.IsProduction())),
	)

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderXRequestID}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", middleware.HeaderXRequestID}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, routes.Dependencies{
		DB:           db,
		Orchestrator: orch,
		Gatherer:     registry,
		Sessions:     pinger,
	}, cfg)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		// Recommendation requests may make several sequential model calls
		WriteTimeout: 4*cfg.LLM.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

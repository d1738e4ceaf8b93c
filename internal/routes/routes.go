package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"precision-medicine-server/internal/config"
	"precision-medicine-server/internal/handlers"
	"precision-medicine-server/internal/middleware"
	"precision-medicine-server/internal/orchestrator"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are what the routes need beyond configuration.
type Dependencies struct {
	DB           *gorm.DB
	Orchestrator *orchestrator.Orchestrator
	Gatherer     prometheus.Gatherer
	// Sessions is checked by /readyz when set.
	Sessions Pinger
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, deps Dependencies, cfg *config.Config) {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(deps.DB, cfg, deps.Orchestrator)
	profileHandler := handlers.NewProfileHandler(deps.Orchestrator)
	analysisHandler := handlers.NewAnalysisHandler(deps.Orchestrator, int64(cfg.MaxUploadMB)<<20)
	recommendationHandler := handlers.NewRecommendationHandler(deps.Orchestrator)
	approachHandler := handlers.NewApproachHandler(deps.Orchestrator)
	reportHandler := handlers.NewReportHandler(deps.Orchestrator)

	// Model-backed endpoints share a per-user limiter
	llmLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  rate.Limit(cfg.RateLimit.RPS),
		Burst: cfg.RateLimit.Burst,
	})

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/me", authHandler.Me)
		}

		// Workflow steps
		private.GET("/profile", profileHandler.GetProfile)
		private.POST("/profile", profileHandler.SaveProfile)
		// Multipart overhead is allowed on top of the file limit
		private.POST("/analysis", middleware.BodySizeLimit(int64(cfg.MaxUploadMB+1)<<20), analysisHandler.Analyze)
		private.POST("/select-agent", llmLimiter.RateLimit(), recommendationHandler.SelectAgent)
		private.GET("/results", recommendationHandler.Results)
		private.POST("/approach-selector", llmLimiter.RateLimit(), approachHandler.ApproachSelector)
		private.GET("/export-report", reportHandler.ExportReport)

		// Report history
		private.GET("/reports", reportHandler.ListReports)
		private.GET("/reports/:id", reportHandler.GetReport)

		// Stateless API
		private.POST("/extract-entities", recommendationHandler.ExtractEntities)
		private.POST("/get-recommendations", llmLimiter.RateLimit(), recommendationHandler.GetRecommendations)
		private.POST("/agent-recommendations", llmLimiter.RateLimit(), recommendationHandler.AgentRecommendations)
		private.POST("/select-approach", llmLimiter.RateLimit(), approachHandler.SelectApproach)
		private.POST("/select-approach-agent", llmLimiter.RateLimit(), approachHandler.SelectApproach)
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/readyz", readiness(deps))

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}
}

func readiness(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{}
		ready := true
		if deps.DB != nil {
			checks["database"] = "ok"
			sqlDB, err := deps.DB.DB()
			if err == nil {
				err = sqlDB.PingContext(ctx)
			}
			if err != nil {
				checks["database"] = err.Error()
				ready = false
			}
		}
		if deps.Sessions != nil {
			checks["sessions"] = "ok"
			if err := deps.Sessions.Ping(ctx); err != nil {
				checks["sessions"] = err.Error()
				ready = false
			}
		}

		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"ready": ready, "checks": checks})
	}
}

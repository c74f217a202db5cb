package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-mockexam/internal/config"
	"github.com/stemsi/exstem-mockexam/internal/handler"
	"github.com/stemsi/exstem-mockexam/internal/middleware"
	"github.com/stemsi/exstem-mockexam/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	MockExam *handler.MockExamHandler
	WS       *handler.WSHandler
	Health   *handler.HealthHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	auth middleware.TokenValidator,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())

	router.GET("/health", handlers.Health.Health)

	// ─── Mock exams (learner JWT) ──────────────────────────────────────
	startLimiter := middleware.NewRateLimiter(cfg.StartRateLimitPerMinute, time.Minute, middleware.ByUser)

	api := router.Group("/api/v1/mock-exams")
	api.Use(
		middleware.RequireUserJWT(auth),
		middleware.NoStore(),
		middleware.Brotli(),
	)
	{
		h := handlers.MockExam
		api.POST("", startLimiter.Middleware(), h.Start)
		api.GET("/history", h.History)

		current := api.Group("/current")
		current.GET("", h.GetCurrent)
		current.DELETE("", h.Reset)
		current.PUT("/answers/:index", h.SubmitAnswer)
		current.DELETE("/answers/:index", h.ClearAnswer)
		current.POST("/flags/:index", h.ToggleFlag)
		current.POST("/navigate", h.Navigate)
		current.POST("/keys", h.PressKey)
		current.POST("/submit", h.Submit)
		current.GET("/result", h.GetResult)

		review := current.Group("/review")
		review.POST("", h.EnterReview)
		review.DELETE("", h.ExitReview)
		review.POST("/toggle", h.ToggleReviewFilter)
		review.POST("/next", h.ReviewNext)
		review.POST("/previous", h.ReviewPrevious)
	}

	// ─── WebSocket (token in query) ────────────────────────────────────
	ws := router.Group("/ws/v1/mock-exams")
	ws.Use(middleware.RequireUserWSAuth(auth))
	{
		ws.GET("/current/stream", handlers.WS.Stream)
	}

	return router
}

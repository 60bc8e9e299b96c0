package router

import (
	"net/http"
	"time"

	"github.com/bilalpiaic/AgenticQuizMaster/internal/config"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/handler"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/middleware"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/response"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Quiz   *handler.QuizHandler
	Timer  *handler.TimerHandler
	System *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// questionLimiter guards question generation, the only route that calls out
// to a paid API.
func SetupRouter(
	handlers *Handlers,
	questionLimiter *middleware.RateLimiter,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware(log))
	router.Use(requestLogger(log))

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", handlers.System.Health)

	// ─── 1. Quiz Group ─────────────────────────────────────────────────
	quiz := router.Group("/api/v1/quiz")
	quiz.Use(middleware.NoStore())
	{
		quiz.POST("/session", handlers.Quiz.CreateSession)
		quiz.GET("/session/:id", handlers.Quiz.GetSession)
		quiz.POST("/session/:id/question", questionLimiter.Middleware(), handlers.Quiz.NextQuestion)
		quiz.GET("/session/:id/results", handlers.Quiz.GetResults)
		quiz.PATCH("/session/:id/time", handlers.Quiz.UpdateTime)
		quiz.POST("/answer", handlers.Quiz.SubmitAnswer)
	}

	// ─── 2. System Group ───────────────────────────────────────────────
	system := router.Group("/api/v1/system")
	{
		system.GET("/metrics", handlers.System.SystemMetricsSSE)
	}

	// ─── 3. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/quiz/session/:id/timer", handlers.Timer.TimerStream)
	}

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	return router
}

// requestLogger writes one line per request through the request-scoped
// logger.
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		l := zerolog.Ctx(c.Request.Context())
		if l.GetLevel() == zerolog.Disabled {
			l = &log
		}
		ev := l.Info()
		if status >= http.StatusInternalServerError {
			ev = l.Error()
		} else if status >= http.StatusBadRequest {
			ev = l.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("HTTP request")
	}
}

package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"fraud-digest-backend/internal/analyses"
	"fraud-digest-backend/internal/intake"
	"fraud-digest-backend/internal/shared/config"
	"fraud-digest-backend/internal/shared/metrics"
	"fraud-digest-backend/internal/shared/server/middleware"
	"fraud-digest-backend/internal/shared/server/respond"
	"fraud-digest-backend/internal/workerproc"
)

const defaultSubmitPerMinute = 10

// RouterDeps holds handlers for route registration. Nil handlers are skipped.
type RouterDeps struct {
	Config          config.Config
	AnalysisHandler *analyses.Handler
	IntakeHandler   *intake.Handler
	// Processor serves Pub/Sub push deliveries when set.
	Processor workerproc.Processor
	// Health reports result store reachability; nil means always healthy.
	Health func(ctx context.Context) error
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	perMinute := deps.Config.SubmitRatePerMinute
	if perMinute <= 0 {
		perMinute = defaultSubmitPerMinute
	}

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				middleware.SubmitGroup: {Rate: float64(perMinute) / 60, Burst: perMinute},
			},
			GroupFor: rateLimitGroup,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health != nil {
			if err := deps.Health(c.Request.Context()); err != nil {
				respond.JSON(c, http.StatusServiceUnavailable, gin.H{"ok": false, "store": "unreachable"})
				return
			}
		}
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	if deps.IntakeHandler != nil {
		deps.IntakeHandler.RegisterRoutes(api)
	}
	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.RegisterRoutes(api)
	}
	if deps.Processor != nil {
		api.POST("/pubsub/push", workerproc.PushHandler(deps.Processor))
	}

	return r
}

func rateLimitGroup(c *gin.Context) string {
	if c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/submissions" {
		return middleware.SubmitGroup
	}
	return ""
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leakscan-backend/internal/shared/config"
	"leakscan-backend/internal/shared/metrics"
	"leakscan-backend/internal/shared/server/middleware"
	"leakscan-backend/internal/shared/server/respond"
)

// RouteRegistrar attaches a feature's routes to the API group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps carries the feature handlers the router mounts.
type RouterDeps struct {
	Photos   RouteRegistrar
	Analysis RouteRegistrar
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config, deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Scrape target, mounted before the identity middleware.
	r.GET("/metrics", metrics.Handler())

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.Identity(),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	registerMeRoutes(api)

	// Run starts are already serialized per user inside the analysis
	// service; the rate limit here only shields the endpoint from tight
	// client retry loops.
	runLimiter := middleware.RateLimit(middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			"ANALYSIS": {Rate: 1, Burst: 5},
		},
		DefaultGroup: "ANALYSIS",
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodPost {
				return "ANALYSIS"
			}
			return "READ"
		},
	})
	api.Use(runLimiter)

	if deps.Photos != nil {
		deps.Photos.RegisterRoutes(api)
	}
	if deps.Analysis != nil {
		deps.Analysis.RegisterRoutes(api)
	}

	return r
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

package server

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"briefly-backend/internal/shared/config"
	"briefly-backend/internal/shared/metrics"
	"briefly-backend/internal/shared/server/middleware"
	"briefly-backend/internal/shared/server/respond"
)

const llmRateGroup = "LLM"

// llmRoutes are the routes that trigger provider calls.
var llmRoutes = map[string]bool{
	"/summary/create":         true,
	"/summary/upload":         true,
	"/summary/regenerate/:id": true,
}

// RouteRegistrar is implemented by every HTTP handler.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps carries what NewRouter needs. Nil handlers are skipped.
type RouterDeps struct {
	Config         config.Config
	DB             *sql.DB
	Tokens         middleware.TokenVerifier
	UserHandler    RouteRegistrar
	GoogleAuth     RouteRegistrar
	SummaryHandler RouteRegistrar
	FileHandler    RouteRegistrar
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/download/"})),
	)

	r.GET("/healthz", func(c *gin.Context) {
		respond.OK(c, gin.H{"ok": true})
	})
	r.GET("/readyz", readiness(deps.DB))
	r.GET("/metrics", metrics.Handler())

	public := r.Group("")
	register(public, deps.UserHandler, deps.GoogleAuth)

	rules := map[string]middleware.RateLimitRule{}
	if deps.Config.LLMRatePerMin > 0 {
		rules[llmRateGroup] = middleware.PerMinute(deps.Config.LLMRatePerMin)
	}
	authed := r.Group("")
	authed.Use(
		middleware.Auth(deps.Tokens),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    rules,
			GroupFor: rateGroup,
		}),
	)
	register(authed, deps.SummaryHandler, deps.FileHandler)

	return r
}

func register(rg *gin.RouterGroup, handlers ...RouteRegistrar) {
	for _, h := range handlers {
		if h == nil {
			continue
		}
		h.RegisterRoutes(rg)
	}
}

func rateGroup(c *gin.Context) string {
	if llmRoutes[c.FullPath()] {
		return llmRateGroup
	}
	return ""
}

func readiness(database *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if database == nil {
			respond.OK(c, gin.H{"ok": true, "db": "memory"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := database.PingContext(ctx); err != nil {
			respond.Error(c, http.StatusServiceUnavailable, "not_ready", "database unavailable", nil)
			return
		}
		respond.OK(c, gin.H{"ok": true, "db": "postgres"})
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8000"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}

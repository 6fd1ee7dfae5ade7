package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/muniworks/backend/internal/domain/shared"
	"github.com/muniworks/backend/internal/infrastructure/auth"
	"github.com/muniworks/backend/internal/infrastructure/config"
	"github.com/muniworks/backend/internal/infrastructure/logger"
	"github.com/muniworks/backend/internal/interfaces/http/dto"
	"github.com/muniworks/backend/internal/interfaces/http/middleware"
)

// RouteRegistrar registers a handler's routes on a router group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Options carries the router dependencies
type Options struct {
	Config           *config.Config
	Logger           *zap.Logger
	JWTService       *auth.JWTService
	IdempotencyStore shared.IdempotencyStore
	Registrars       []RouteRegistrar
}

// New assembles the gin engine: recovery, request ID, CORS and request
// logging run for every route; the API group additionally requires a
// bearer token and deduplicates commands by request ID.
func New(opts Options) *gin.Engine {
	if opts.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		logger.Recovery(opts.Logger),
		middleware.RequestID(),
		middleware.CORS(opts.Config.HTTP),
		logger.GinMiddleware(opts.Logger),
	)

	if len(opts.Config.HTTP.TrustedProxies) > 0 {
		_ = engine.SetTrustedProxies(opts.Config.HTTP.TrustedProxies)
	}

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "name": opts.Config.App.Name})
	})

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse("NOT_FOUND", "Route not found"))
	})

	api := engine.Group("/api/v1")
	api.Use(middleware.JWTAuth(opts.JWTService, middleware.JWTAuthConfig{}))
	api.Use(middleware.Idempotency(opts.IdempotencyStore, shared.IdempotencyConfig{
		Enabled: opts.Config.Idempotency.Enabled,
		TTL:     opts.Config.Idempotency.TTL,
	}, opts.Logger))

	for _, registrar := range opts.Registrars {
		registrar.RegisterRoutes(api)
	}

	return engine
}

package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/guttosm/spimexpulse/internal/cache"
	"github.com/guttosm/spimexpulse/internal/middleware"
)

// RouterConfig carries the optional collaborators of NewRouter.
type RouterConfig struct {
	Cache          cache.Store // nil disables response caching
	CachePrefix    string
	CacheTTL       middleware.TTLFunc
	RateLimit      float64 // requests per second per client; 0 disables
	RateBurst      int
	RequestTimeout time.Duration
}

// NewRouter creates a Gin engine with routes configured.
// It receives a Handler instance with all business logic already injected.
//
// Responsibilities:
//   - Registers global middlewares (RequestID, Logger, Recovery, ErrorHandler, RateLimiter).
//   - Adds a per-request timeout (cfg.RequestTimeout, default 10 seconds).
//   - Mounts Swagger docs (/swagger/*any).
//   - Configures the cached trading routes (/api/v1/trading).
//
// Note:
//   - Health and readiness endpoints (/healthz, /readyz) are registered in app.InitializeApp().
func NewRouter(handler *Handler, cfg RouterConfig) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RecoveryMiddleware(),
		middleware.ErrorHandler,
	)
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		router.Use(middleware.RateLimiter(cfg.RateLimit, burst))
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	trading := router.Group("/api/v1/trading")
	if cfg.Cache != nil && cfg.CacheTTL != nil {
		trading.Use(middleware.ResponseCache(cfg.Cache, cfg.CachePrefix, cfg.CacheTTL))
	}
	{
		trading.GET("/last_trading_dates", handler.GetLastTradingDates)
		trading.GET("/dynamics", handler.GetDynamics)
		trading.GET("/trading_results", handler.GetTradingResults)
	}

	return router
}

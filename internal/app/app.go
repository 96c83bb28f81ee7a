package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/spimexpulse/config"
	"github.com/guttosm/spimexpulse/internal/api"
	"github.com/guttosm/spimexpulse/internal/cache"
	"github.com/guttosm/spimexpulse/internal/logger"
	"github.com/guttosm/spimexpulse/internal/service"
	"github.com/guttosm/spimexpulse/internal/storage"
)

// InitializeApp sets up all application dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Connects to PostgreSQL and, when REDIS_ADDR is set, Redis.
//   - Initializes repository, service and handler layers.
//   - Configures the Gin router with the cached trading routes.
//   - Registers health and readiness checks for every backend.
//   - Provides a cleanup function to close connections.
func InitializeApp() (*gin.Engine, func(), error) {
	cfg := config.AppConfig
	ctx := context.Background()

	db, err := postgresOpener(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	rdb, err := redisOpener(ctx, cfg)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	repo := storage.NewTradingRepository(db)
	svc := service.NewTradingService(repo)
	handler := api.NewHandler(svc)

	routerCfg := api.RouterConfig{
		CachePrefix:    cfg.Cache.Prefix,
		RateLimit:      cfg.Server.RateLimit,
		RateBurst:      cfg.Server.RateBurst,
		RequestTimeout: cfg.Server.RequestTimeout,
	}
	checks := map[string]api.Check{
		"postgres": db.PingContext,
	}
	if rdb != nil {
		store := cache.NewRedisStore(rdb)
		resetAt := cfg.Cache.ResetTime
		routerCfg.Cache = store
		routerCfg.CacheTTL = func(now time.Time) (time.Duration, error) {
			return cache.UntilNextReset(now, resetAt)
		}
		checks["redis"] = store.Ping
		logger.L().Info().Str("addr", cfg.Redis.Addr).Str("reset_time", resetAt).Msg("response cache enabled")
	} else {
		logger.L().Info().Msg("response cache disabled (REDIS_ADDR empty)")
	}

	router := api.NewRouter(handler, routerCfg)
	api.NewHealthHandler(checks).Register(router)

	cleanup := func() {
		if rdb != nil {
			_ = rdb.Close()
		}
		_ = db.Close()
	}

	return router, cleanup, nil
}

package main

//
//  @title           spimexpulse API
//  @version         1.0
//  @description     SPIMEX oil bulletin ingestion and trading results API.
//  @termsOfService  https://github.com/guttosm/spimexpulse
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/spimexpulse
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        trading
//  @tag.description Trading dates, dynamics and latest results
//
//  @tag.name        health
//  @tag.description Liveness and readiness checks

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guttosm/spimexpulse/config"
	_ "github.com/guttosm/spimexpulse/docs" // swagger docs
	"github.com/guttosm/spimexpulse/internal/app"
	"github.com/guttosm/spimexpulse/internal/ingestion"
	"github.com/guttosm/spimexpulse/internal/logger"
)

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up resources
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
//
// Parameters:
//   - ctx (context.Context): A context with timeout for graceful shutdown.
//   - server (*http.Server): The HTTP server instance to shut down.
//   - cleanup (func()): Cleanup callback to release resources (e.g., DB connections).
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// ingestFlags holds the command-line overrides of config.IngestConfig.
type ingestFlags struct {
	firstPage, lastPage int
	minYear, maxYear    int
	fetchConcurrency    int
	storeConcurrency    int
}

// register binds the flags to fs using cfg as defaults.
func (f *ingestFlags) register(fs *flag.FlagSet, cfg config.IngestConfig) {
	fs.IntVar(&f.firstPage, "first-page", cfg.FirstPage, "First listing page (inclusive)")
	fs.IntVar(&f.lastPage, "last-page", cfg.LastPage, "Last listing page (inclusive)")
	fs.IntVar(&f.minYear, "min-year", cfg.MinYear, "Oldest bulletin year to ingest")
	fs.IntVar(&f.maxYear, "max-year", cfg.MaxYear, "Newest bulletin year to ingest")
	fs.IntVar(&f.fetchConcurrency, "fetch-concurrency", cfg.FetchConcurrency, "Concurrent HTTP requests")
	fs.IntVar(&f.storeConcurrency, "store-concurrency", cfg.StoreConcurrency, "Concurrent database inserts")
}

// runConfig merges the flags with the rest of cfg into the ingestion inputs.
func (f ingestFlags) runConfig(cfg config.Config) (ingestion.Settings, ingestion.Options) {
	settings := ingestion.Settings{
		BaseURL:     cfg.Ingest.BaseURL,
		ListingPath: cfg.Ingest.ListingPath,
		Fetcher: ingestion.FetcherOptions{
			MaxConns:  f.fetchConcurrency,
			Timeout:   cfg.HTTPClient.Timeout,
			UserAgent: cfg.HTTPClient.UserAgent,
			RateLimit: cfg.HTTPClient.RateLimit,
		},
	}
	opts := ingestion.Options{
		FirstPage:        f.firstPage,
		LastPage:         f.lastPage,
		MinYear:          f.minYear,
		MaxYear:          f.maxYear,
		StoreConcurrency: f.storeConcurrency,
	}
	return settings, opts
}

// main is the entry point of the spimexpulse application.
//
// Modes (selected via --mode flag):
//   - ingest:  Crawls the bulletin listing and stores every oil bulletin in PostgreSQL.
//   - api:     Starts the REST API serving trading results.
//   - migrate: Applies the embedded database migrations and exits.
//
// Flags:
//   - --mode: Execution mode ("ingest", "api" or "migrate"). Default: "ingest".
//   - --first-page, --last-page, --min-year, --max-year: ingestion range.
//   - --fetch-concurrency, --store-concurrency: ingestion ceilings.
//   - --port: Port for the API server. Defaults to value from config (SERVER_PORT).
func main() {
	ctx := context.Background()

	// Load configuration from environment or .env file
	config.LoadConfig()

	// Initialize JSON logger
	logger.Init()
	defer logger.Close()

	var ingest ingestFlags
	ingest.register(flag.CommandLine, config.AppConfig.Ingest)
	mode := flag.String("mode", "ingest", "Mode: ingest, api or migrate")
	port := flag.String("port", config.AppConfig.Server.Port, "Port for API mode")
	flag.Parse()

	switch *mode {
	case "ingest":
		settings, opts := ingest.runConfig(config.AppConfig)
		logger.L().Info().
			Str("base_url", settings.BaseURL).
			Int("first_page", opts.FirstPage).
			Int("last_page", opts.LastPage).
			Int("min_year", opts.MinYear).
			Int("max_year", opts.MaxYear).
			Msg("running ingestion")

		db, err := app.InitPostgres(config.AppConfig)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("db connect error")
		}
		defer func() { _ = db.Close() }()

		// The run report is logged by the orchestrator itself.
		if _, err := ingestion.ProcessListing(ctx, db, settings, opts); err != nil {
			logger.L().Fatal().Err(err).Msg("ingestion failed")
		}

	case "migrate":
		db, err := app.InitPostgres(config.AppConfig)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("db connect error")
		}
		defer func() { _ = db.Close() }()

		if err := app.Migrate(db); err != nil {
			logger.L().Fatal().Err(err).Msg("migration failed")
		}

	case "api":
		// API mode: start the HTTP server
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, *port)
		gracefulShutdown(ctx, server, cleanup)

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}

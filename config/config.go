package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// Example ENV:
//
//	SERVER_PORT=8080
//	POSTGRES_HOST=localhost
//	POSTGRES_DB=spimex
//	REDIS_ADDR=localhost:6379
//	CACHE_RESET_TIME=14:11
//	INGEST_MIN_YEAR=2023
//	INGEST_LAST_PAGE=55
type Config struct {
	Server     ServerConfig     // HTTP server configuration
	Postgres   PostgresConfig   // PostgreSQL connection settings
	Redis      RedisConfig      // response cache backend
	Cache      CacheConfig      // response cache policy
	Ingest     IngestConfig     // bulletin ingestion run
	HTTPClient HTTPClientConfig // outbound requests to the exchange site
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string        // The TCP port the HTTP server will listen on (e.g., "8080")
	RateLimit      float64       // requests per second per client IP; 0 disables
	RateBurst      int           // token bucket size per client IP
	RequestTimeout time.Duration // per-request context deadline
}

// PostgresConfig defines connection details for PostgreSQL.
//
// Fields:
//   - Host: hostname of the database server.
//   - Port: port number of the database server (default 5432).
//   - User: username for authentication.
//   - Password: password for authentication.
//   - DBName: target database name.
//   - SSLMode: SSL mode (e.g., "disable", "require").
//   - MaxOpenConns: pool ceiling; keep it at or above INGEST_STORE_CONCURRENCY.
//   - URL: computed DSN used by database/sql to connect.
type PostgresConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	URL          string
}

// RedisConfig points at the cache backend. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CacheConfig controls response caching.
type CacheConfig struct {
	Prefix    string // key prefix, e.g. "spimex-cache:"
	ResetTime string // HH:MM when cached entries expire each day
}

// IngestConfig bounds one ingestion run.
type IngestConfig struct {
	BaseURL          string
	ListingPath      string
	FirstPage        int
	LastPage         int
	MinYear          int
	MaxYear          int // 0 in the environment means the current year
	FetchConcurrency int
	StoreConcurrency int
}

// HTTPClientConfig tunes outbound HTTP.
type HTTPClientConfig struct {
	Timeout   time.Duration
	UserAgent string
	RateLimit float64 // requests per second; 0 disables
}

// AppConfig is the globally accessible configuration instance.
//
// It is populated once via LoadConfig() and used throughout the application.
var AppConfig Config

// LoadConfig initializes the global AppConfig by reading from .env file
// or directly from environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// Fatal exit:
//   - If required variables are missing or invalid, validateConfig() terminates the app.
func LoadConfig() {
	setDefaults()

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	viper.AutomaticEnv()

	AppConfig = Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			RateLimit:      viper.GetFloat64("SERVER_RATE_LIMIT"),
			RateBurst:      viper.GetInt("SERVER_RATE_BURST"),
			RequestTimeout: viper.GetDuration("SERVER_REQUEST_TIMEOUT"),
		},
		Postgres: PostgresConfig{
			Host:         viper.GetString("POSTGRES_HOST"),
			Port:         viper.GetInt("POSTGRES_PORT"),
			User:         viper.GetString("POSTGRES_USER"),
			Password:     viper.GetString("POSTGRES_PASSWORD"),
			DBName:       viper.GetString("POSTGRES_DB"),
			SSLMode:      viper.GetString("POSTGRES_SSLMODE"),
			MaxOpenConns: viper.GetInt("POSTGRES_MAX_OPEN_CONNS"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			Prefix:    viper.GetString("CACHE_PREFIX"),
			ResetTime: viper.GetString("CACHE_RESET_TIME"),
		},
		Ingest: IngestConfig{
			BaseURL:          viper.GetString("SPIMEX_BASE_URL"),
			ListingPath:      viper.GetString("SPIMEX_LISTING_PATH"),
			FirstPage:        viper.GetInt("INGEST_FIRST_PAGE"),
			LastPage:         viper.GetInt("INGEST_LAST_PAGE"),
			MinYear:          viper.GetInt("INGEST_MIN_YEAR"),
			MaxYear:          viper.GetInt("INGEST_MAX_YEAR"),
			FetchConcurrency: viper.GetInt("INGEST_FETCH_CONCURRENCY"),
			StoreConcurrency: viper.GetInt("INGEST_STORE_CONCURRENCY"),
		},
		HTTPClient: HTTPClientConfig{
			Timeout:   viper.GetDuration("HTTP_TIMEOUT"),
			UserAgent: viper.GetString("HTTP_USER_AGENT"),
			RateLimit: viper.GetFloat64("HTTP_RATE_LIMIT"),
		},
	}

	if AppConfig.Ingest.MaxYear == 0 {
		AppConfig.Ingest.MaxYear = time.Now().Year()
	}

	AppConfig.Postgres.URL = BuildPostgresURL(AppConfig.Postgres)

	validateConfig()
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_RATE_LIMIT", 0)
	viper.SetDefault("SERVER_RATE_BURST", 60)
	viper.SetDefault("SERVER_REQUEST_TIMEOUT", "10s")

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "spimex")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")
	viper.SetDefault("POSTGRES_MAX_OPEN_CONNS", 20)

	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)

	viper.SetDefault("CACHE_PREFIX", "spimex-cache:")
	viper.SetDefault("CACHE_RESET_TIME", "14:11")

	viper.SetDefault("SPIMEX_BASE_URL", "https://spimex.com")
	viper.SetDefault("SPIMEX_LISTING_PATH", "/markets/oil_products/trades/results/")
	viper.SetDefault("INGEST_FIRST_PAGE", 1)
	viper.SetDefault("INGEST_LAST_PAGE", 55)
	viper.SetDefault("INGEST_MIN_YEAR", 2023)
	viper.SetDefault("INGEST_MAX_YEAR", 0)
	viper.SetDefault("INGEST_FETCH_CONCURRENCY", 15)
	viper.SetDefault("INGEST_STORE_CONCURRENCY", 10)

	viper.SetDefault("HTTP_TIMEOUT", "60s")
	viper.SetDefault("HTTP_USER_AGENT", "spimexpulse/1.0")
	viper.SetDefault("HTTP_RATE_LIMIT", 0)
}

// BuildPostgresURL renders the DSN used by database/sql.
func BuildPostgresURL(pg PostgresConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		pg.User,
		pg.Password,
		pg.Host,
		pg.Port,
		pg.DBName,
		pg.SSLMode,
	)
}

// validateConfig terminates the application when problems() reports anything.
func validateConfig() {
	if issues := problems(AppConfig); len(issues) > 0 {
		log.Fatalf("❌ Invalid configuration: %v\n", issues)
	}
}

// problems lists missing or invalid settings by variable name.
func problems(cfg Config) []string {
	var out []string

	if cfg.Server.Port == "" {
		out = append(out, "SERVER_PORT")
	}
	if cfg.Postgres.Host == "" {
		out = append(out, "POSTGRES_HOST")
	}
	if cfg.Postgres.Port == 0 {
		out = append(out, "POSTGRES_PORT")
	}
	if cfg.Postgres.User == "" {
		out = append(out, "POSTGRES_USER")
	}
	if cfg.Postgres.Password == "" {
		out = append(out, "POSTGRES_PASSWORD")
	}
	if cfg.Postgres.DBName == "" {
		out = append(out, "POSTGRES_DB")
	}
	if cfg.Ingest.BaseURL == "" {
		out = append(out, "SPIMEX_BASE_URL")
	}
	if cfg.Ingest.FirstPage < 1 {
		out = append(out, "INGEST_FIRST_PAGE (must be >= 1)")
	}
	if cfg.Ingest.LastPage < 1 {
		out = append(out, "INGEST_LAST_PAGE (must be >= 1)")
	}
	if cfg.Ingest.FetchConcurrency < 1 {
		out = append(out, "INGEST_FETCH_CONCURRENCY (must be >= 1)")
	}
	if cfg.Ingest.StoreConcurrency < 1 {
		out = append(out, "INGEST_STORE_CONCURRENCY (must be >= 1)")
	}
	if _, err := time.Parse("15:04", cfg.Cache.ResetTime); err != nil {
		out = append(out, "CACHE_RESET_TIME (HH:MM)")
	}
	return out
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// SSOT: every environment variable is read here and nowhere else.
type Config struct {
	Env string // development, staging, production

	// Raw data source (OpenInsider screener)
	Source SourceConfig

	// Pipeline tuning
	Pipeline PipelineConfig

	// Artifact locations
	Data DataConfig

	// Optional Postgres mirror of accepted records
	Database DatabaseConfig

	// Scheduling
	ScrapeSchedule string // cron spec with seconds

	// Logging
	LogLevel  string
	LogFormat string
}

// SourceConfig holds OpenInsider screener configuration
type SourceConfig struct {
	BaseURL        string
	LookbackDays   int // fd param, how far back the screener looks
	MaxPages       int // backfill page cap
	PageSize       int // cnt param, rows per page
	Timeout        time.Duration
	RequestsPerSec float64 // politeness limit toward openinsider.com
}

// PipelineConfig holds normalization / clustering / retention parameters
type PipelineConfig struct {
	MinTradeValue      float64 // dollars; trades below are rejected
	ClusterWindowDays  int     // ± days around a trade date
	ClusterMinInsiders int     // distinct insiders required for a cluster
	RetentionDays      int     // trailing window published in the snapshot
}

// DataConfig holds artifact paths
type DataConfig struct {
	Dir string
}

// LedgerPath returns the history CSV path
func (d DataConfig) LedgerPath() string {
	return filepath.Join(d.Dir, "history.csv")
}

// SnapshotPath returns the published JSON path
func (d DataConfig) SnapshotPath() string {
	return filepath.Join(d.Dir, "latest.json")
}

// DatabaseConfig holds PostgreSQL configuration for the optional mirror
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether the Postgres mirror should be used
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// Load reads configuration from environment variables.
// SSOT: this is the only function that calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		Source: SourceConfig{
			BaseURL:        getEnv("OPENINSIDER_BASE_URL", "http://openinsider.com/screener"),
			LookbackDays:   getEnvAsInt("FETCH_LOOKBACK_DAYS", 730),
			MaxPages:       getEnvAsInt("BACKFILL_MAX_PAGES", 5),
			PageSize:       getEnvAsInt("FETCH_PAGE_SIZE", 1000),
			Timeout:        getEnvAsDuration("HTTP_TIMEOUT", "30s"),
			RequestsPerSec: getEnvAsFloat("FETCH_RATE_LIMIT_RPS", 1.0),
		},

		Pipeline: PipelineConfig{
			MinTradeValue:      getEnvAsFloat("MIN_TRADE_VALUE", 50000),
			ClusterWindowDays:  getEnvAsInt("CLUSTER_WINDOW_DAYS", 14),
			ClusterMinInsiders: getEnvAsInt("CLUSTER_MIN_INSIDERS", 2),
			RetentionDays:      getEnvAsInt("RETENTION_DAYS", 1000),
		},

		Data: DataConfig{
			Dir: getEnv("DATA_DIR", "data"),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 5),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Every 2 hours on the hour (with seconds field)
		ScrapeSchedule: getEnv("SCRAPE_SCHEDULE", "0 0 */2 * * *"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are sane
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Pipeline.ClusterWindowDays <= 0 {
		return fmt.Errorf("CLUSTER_WINDOW_DAYS must be positive")
	}

	if c.Pipeline.ClusterMinInsiders < 2 {
		return fmt.Errorf("CLUSTER_MIN_INSIDERS must be at least 2")
	}

	if c.Pipeline.RetentionDays <= 0 {
		return fmt.Errorf("RETENTION_DAYS must be positive")
	}

	if c.Pipeline.MinTradeValue < 0 {
		return fmt.Errorf("MIN_TRADE_VALUE must not be negative")
	}

	if c.Source.MaxPages <= 0 {
		return fmt.Errorf("BACKFILL_MAX_PAGES must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

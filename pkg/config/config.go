package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting. It is loaded once in main and passed
// explicitly to the components that need it.
type Config struct {
	AppEnv       string
	IsProduction bool
	Port         string
	LogLevel     string

	// model server
	OllamaBaseURL  string
	DefaultModel   string
	SummaryModel   string
	Temperature    float64
	NumPredict     int
	StreamTimeout  time.Duration
	SummaryTimeout time.Duration // 0 = unbounded
	ModelsCacheTTL time.Duration

	// store
	DBDriver string
	DBDSN    string

	// http surface
	CORSOrigins        []string
	ExitProcessPattern string
	WSMaxMessageBytes  int64
	RateLimitWindow    time.Duration
	RateLimitBurst     int // 0 disables
}

var supportedDrivers = []string{"sqlite", "mysql", "postgres"}

// loadDotEnv loads .env outside production. A missing file is fine.
func loadDotEnv(appEnv string) error {
	if appEnv == "production" {
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads configuration from the environment (and .env when not in production).
func Load() (*Config, error) {
	if err := loadDotEnv(os.Getenv("APP_ENV")); err != nil {
		return nil, err
	}

	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8000"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		OllamaBaseURL:      strings.TrimRight(getEnv("OLLAMA_BASE_URL", "http://localhost:11434"), "/"),
		DefaultModel:       getEnv("DEFAULT_MODEL", "llama2:latest"),
		SummaryModel:       getEnv("SUMMARY_MODEL", "llama2"),
		Temperature:        atofOr(os.Getenv("CHAT_TEMPERATURE"), 0.7),
		NumPredict:         atoiOr(os.Getenv("CHAT_NUM_PREDICT"), 100),
		StreamTimeout:      time.Duration(atoiOr(os.Getenv("STREAM_TIMEOUT_SECONDS"), 300)) * time.Second,
		SummaryTimeout:     time.Duration(atoiOr(os.Getenv("SUMMARY_TIMEOUT_SECONDS"), 120)) * time.Second,
		ModelsCacheTTL:     time.Duration(atoiOr(os.Getenv("MODELS_CACHE_TTL_SECONDS"), 5)) * time.Second,
		DBDriver:           strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBDSN:              getEnv("DB_DSN", "app.db"),
		CORSOrigins:        splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		ExitProcessPattern: getEnv("EXIT_PROCESS_PATTERN", "electron"),
		WSMaxMessageBytes:  int64(atoiOr(os.Getenv("WS_MAX_MESSAGE_BYTES"), 1<<20)),
		RateLimitWindow:    time.Duration(atoiOr(os.Getenv("RATE_LIMIT_WINDOW_SECONDS"), 10)) * time.Second,
		RateLimitBurst:     atoiOr(os.Getenv("RATE_LIMIT_BURST"), 20),
	}

	if !slices.Contains([]string{"development", "staging", "production"}, cfg.AppEnv) {
		return nil, fmt.Errorf("APP_ENV must be one of development, staging, production (got %q)", cfg.AppEnv)
	}
	cfg.IsProduction = cfg.AppEnv == "production"

	if !slices.Contains(supportedDrivers, cfg.DBDriver) {
		return nil, fmt.Errorf("DB_DRIVER must be one of %s (got %q)", strings.Join(supportedDrivers, ", "), cfg.DBDriver)
	}
	if cfg.SummaryTimeout < 0 {
		cfg.SummaryTimeout = 0
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return v
	}
	return def
}

func atofOr(s string, def float64) float64 {
	if s == "" {
		return def
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

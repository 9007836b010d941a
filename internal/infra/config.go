package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	HeyGenAPIKey   string
	HeyGenBaseURL  string
	HeyGenTestMode bool

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
	StagedURLTTL   time.Duration

	VideoWidth  int
	VideoHeight int

	PollInterval    time.Duration
	PollMaxAttempts int
	PipelineBudget  time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	AllowedOrigins   []string
	DefaultLocale    string
}

// LoadConfig loads configuration from environment variables and applies defaults
// where needed. The HeyGen API key may stay empty here; main falls back to the
// integration-token store before treating the missing credential as fatal.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		HeyGenAPIKey:   os.Getenv("HEYGEN_API_KEY"),
		HeyGenBaseURL:  getEnv("HEYGEN_BASE_URL", "https://api.heygen.com/v2"),
		HeyGenTestMode: getEnvBool("HEYGEN_TEST_MODE", true),

		MinIOEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinIOAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinIOBucket:    getEnv("MINIO_BUCKET", "podvid-staging"),
		MinIOUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		StagedURLTTL:   time.Hour * time.Duration(getEnvInt("STAGED_URL_TTL_HOURS", 24)),

		VideoWidth:  getEnvInt("VIDEO_WIDTH", 1280),
		VideoHeight: getEnvInt("VIDEO_HEIGHT", 720),

		PollInterval:    time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 10)),
		PollMaxAttempts: getEnvInt("POLL_MAX_ATTEMPTS", 30),
		PipelineBudget:  time.Second * time.Duration(getEnvInt("PIPELINE_BUDGET_SECONDS", 360)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 420)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		AllowedOrigins:   splitCSV(getEnv("ALLOWED_ORIGINS", "*")),
		DefaultLocale:    getEnv("DEFAULT_LOCALE", "en"),
	}

	if cfg.MinIOEndpoint == "" {
		return nil, fmt.Errorf("MINIO_ENDPOINT is required")
	}
	if cfg.MinIOAccessKey == "" || cfg.MinIOSecretKey == "" {
		return nil, fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required")
	}

	// The budget has to leave room for the full polling window, otherwise the
	// deadline fires before the attempt ceiling is reached.
	pollWindow := cfg.PollInterval * time.Duration(cfg.PollMaxAttempts)
	if cfg.PipelineBudget <= pollWindow {
		return nil, fmt.Errorf("PIPELINE_BUDGET_SECONDS must exceed the poll window of %s", pollWindow)
	}
	if cfg.HTTPWriteTimeout <= cfg.PipelineBudget {
		return nil, fmt.Errorf("HTTP_WRITE_TIMEOUT_SECONDS must exceed the pipeline budget")
	}
	if cfg.StagedURLTTL <= cfg.PipelineBudget {
		return nil, fmt.Errorf("STAGED_URL_TTL_HOURS must exceed the pipeline budget")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

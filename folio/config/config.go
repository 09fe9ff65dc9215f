package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	AIGatewayURL    string
	AIGatewayAPIKey string
	AIModel         string
	UpstreamTimeout time.Duration
	SummaryTimeout  time.Duration
	PromptsFile     string

	DatabaseURL string
	JWTSecret   string
	JWTIssuer   string

	RateLimitBackend string
	RateLimitMax     int
	RateLimitWindow  time.Duration
	RateLimitPurge   string
	RedisURL         string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOSecure    bool

	LogLevel  string
	LogFormat string
	LogOutput string
	LogDir    string

	// Client side, used by the CLI.
	ServerURL   string
	AccessToken string
}

const (
	BackendGorm     = "gorm"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() Config {
	_ = godotenv.Load()

	return Config{
		Port: getEnv("PORT", "8000"),

		AIGatewayURL:    strings.TrimRight(getEnv("AI_GATEWAY_URL", "https://ai.gateway.lovable.dev/v1"), "/"),
		AIGatewayAPIKey: getEnv("AI_GATEWAY_API_KEY", ""),
		AIModel:         getEnv("AI_MODEL", "google/gemini-2.5-flash"),
		UpstreamTimeout: getDuration("UPSTREAM_TIMEOUT", 30*time.Second),
		SummaryTimeout:  getDuration("SUMMARY_TIMEOUT", 60*time.Second),
		PromptsFile:     getEnv("PROMPTS_FILE", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTIssuer:   getEnv("JWT_ISSUER", ""),

		RateLimitBackend: strings.ToLower(getEnv("RATE_LIMIT_BACKEND", BackendGorm)),
		RateLimitMax:     getInt("RATE_LIMIT_MAX", 50),
		RateLimitWindow:  getDuration("RATE_LIMIT_WINDOW", time.Hour),
		RateLimitPurge:   getEnv("RATE_LIMIT_PURGE_SCHEDULE", "@hourly"),
		RedisURL:         getEnv("REDIS_URL", ""),

		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinIOBucket:    getEnv("MINIO_BUCKET", "article-summaries"),
		MinIOSecure:    getBool("MINIO_SECURE", false),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogOutput: getEnv("LOG_OUTPUT", "stdout"),
		LogDir:    getEnv("LOG_DIR", "./logs"),

		ServerURL:   strings.TrimRight(getEnv("FOLIO_SERVER_URL", "http://localhost:8000"), "/"),
		AccessToken: getEnv("FOLIO_ACCESS_TOKEN", ""),
	}
}

// Validate checks what the HTTP server needs before it starts and reports
// every missing variable at once.
func (c Config) Validate() error {
	var missing []string
	if c.AIGatewayAPIKey == "" {
		missing = append(missing, "AI_GATEWAY_API_KEY")
	}
	// summaries live in postgres whatever the rate limit backend
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.RateLimitBackend == BackendRedis && c.RedisURL == "" {
		missing = append(missing, "REDIS_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	switch c.RateLimitBackend {
	case BackendGorm, BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("unknown RATE_LIMIT_BACKEND %q", c.RateLimitBackend)
	}
	if c.RateLimitMax <= 0 {
		return errors.New("RATE_LIMIT_MAX must be positive")
	}
	if c.RateLimitWindow <= 0 {
		return errors.New("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// MinIOEnabled reports whether summary archiving is configured.
func (c Config) MinIOEnabled() bool {
	return c.MinIOEndpoint != "" && c.MinIOAccessKey != "" && c.MinIOSecretKey != ""
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return d
}

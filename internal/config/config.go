package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL   string
	RunMigrations bool
	MigrationsDir string

	// Redis
	RedisURL     string
	ViewCacheTTL time.Duration

	// JWT issued by the hosted auth service
	JWTSecret string

	// Calendar
	Timezone         string
	ReviewDigestCron string

	// Gemini AI (optional, flashcards fall back to the line parser)
	GeminiAPIKey         string
	GeminiModel          string
	GeminiConcurrentReqs int

	// Workers
	WorkerCount int

	// HTTP
	RateLimitPerMinute int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		Env:                  getEnvOrDefault("ENV", "development"),
		DatabaseURL:          mustGetEnv("DATABASE_URL"),
		RunMigrations:        getEnvAsBoolOrDefault("RUN_MIGRATIONS", false),
		MigrationsDir:        getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		RedisURL:             mustGetEnv("REDIS_URL"),
		ViewCacheTTL:         getEnvAsDurationOrDefault("VIEW_CACHE_TTL", 5*time.Minute),
		JWTSecret:            mustGetEnv("JWT_SECRET"),
		Timezone:             getEnvOrDefault("TIMEZONE", "America/Sao_Paulo"),
		ReviewDigestCron:     getEnvOrDefault("REVIEW_DIGEST_CRON", "0 7 * * *"),
		GeminiAPIKey:         getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:          getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 2),
		WorkerCount:          getEnvAsIntOrDefault("WORKER_COUNT", 2),
		RateLimitPerMinute:   getEnvAsIntOrDefault("RATE_LIMIT_PER_MINUTE", 120),
		FrontendURL:          getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
	}

	return cfg
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

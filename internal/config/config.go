package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	App struct {
		Port        string
		Debug       bool
		FrontendURL string
	}
	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		DBName   string
		SSLMode  string
	}
	Redis struct {
		Host     string
		Port     string
		Password string
		DB       int
	}
	N2YO struct {
		APIKey  string
		BaseURL string
	}
	Cache struct {
		PositionTTL time.Duration
		PassesTTL   time.Duration
	}
	Tracking struct {
		MaxConcurrentFetches int
		StaleMaxAge          time.Duration
	}
	Workers WorkersConfig
	RateLimit struct {
		RequestsPerSecond int
		Burst             int
	}
}

// WorkersConfig - интервалы фоновых задач
type WorkersConfig struct {
	PositionInterval time.Duration
	CleanupInterval  time.Duration
	StaleInterval    time.Duration
}

func Load() *Config {
	cfg := &Config{}

	// App
	cfg.App.Port = getEnv("PORT", "8080")
	cfg.App.Debug = getEnvAsBool("DEBUG", false)
	cfg.App.FrontendURL = getEnv("FRONTEND_URL", "http://localhost:3000")

	// DB
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.DBName = getEnv("DB_NAME", "perseus")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	// Redis
	cfg.Redis.Host = getEnv("REDIS_HOST", "localhost")
	cfg.Redis.Port = getEnv("REDIS_PORT", "6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", 0)

	// N2YO
	cfg.N2YO.APIKey = getEnv("N2YO_API_KEY", "")
	cfg.N2YO.BaseURL = getEnv("N2YO_BASE_URL", "https://api.n2yo.com/rest/v1")

	// Cache
	cfg.Cache.PositionTTL = getEnvAsDuration("POSITION_CACHE_TTL", 300*time.Second)
	cfg.Cache.PassesTTL = getEnvAsDuration("PASSES_CACHE_TTL", 86400*time.Second)

	// Tracking
	cfg.Tracking.MaxConcurrentFetches = getEnvAsInt("MAX_CONCURRENT_FETCHES", 5)
	cfg.Tracking.StaleMaxAge = getEnvAsDuration("STALE_MAX_AGE", 3*time.Minute)

	// Workers
	cfg.Workers.PositionInterval = getEnvAsDuration("WORKER_POSITION_INTERVAL", 300*time.Second)
	cfg.Workers.CleanupInterval = getEnvAsDuration("WORKER_CLEANUP_INTERVAL", 3600*time.Second)
	cfg.Workers.StaleInterval = getEnvAsDuration("WORKER_STALE_INTERVAL", 600*time.Second)

	// Rate Limit
	cfg.RateLimit.RequestsPerSecond = getEnvAsInt("RATE_LIMIT_RPS", 10)
	cfg.RateLimit.Burst = getEnvAsInt("RATE_LIMIT_BURST", 20)

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if dur, err := time.ParseDuration(value); err == nil {
			return dur
		}
	}
	return defaultValue
}

package app

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/carematch360/portal/pkg/gateway"
)

type Config struct {
	// Backend base URLs, keyed by target.
	Targets map[gateway.Target]string

	Timeout   time.Duration // per request (default: 10s)
	RateLimit float64       // Optional: requests per second per target
	RateBurst int

	StoreDriver  string // memory, sqlite or redis (default: sqlite)
	DatabaseFile string // sqlite file (default: portal.db)

	RedisAddr     string // (default: localhost:6379)
	RedisPassword string
	RedisDB       int
	RedisPrefix   string        // (default: cm360:)
	RedisTTL      time.Duration // Optional: expire idle sessions

	SessionKey string // Optional: encrypts the persisted session when set

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: warn)
	LogFormat string // Log format (json, text) (default: text)
}

var defaultTargets = map[gateway.Target]struct{ env, url string }{
	gateway.TargetIdentity:     {"IDENTITY_API_URL", "http://localhost:8001/api/v1"},
	gateway.TargetProfile:      {"PROFILE_API_URL", "http://localhost:8002/api/v1"},
	gateway.TargetMatch:        {"MATCH_API_URL", "http://localhost:8003/api/v1"},
	gateway.TargetBilling:      {"BILLING_API_URL", "http://localhost:8004/api/v1"},
	gateway.TargetNotification: {"NOTIFICATION_API_URL", "http://localhost:8005/api/v1"},
}

// LoadConfig reads the environment, after loading a .env file from the
// working directory if there is one.
func LoadConfig() Config {
	_ = godotenv.Load()

	targets := make(map[gateway.Target]string, len(defaultTargets))
	for target, d := range defaultTargets {
		targets[target] = getEnvOrDefault(d.env, d.url)
	}

	return Config{
		Targets:       targets,
		Timeout:       getEnvDurationOrDefault("PORTAL_TIMEOUT", 10*time.Second),
		RateLimit:     getEnvFloatOrDefault("PORTAL_RATE_LIMIT_RPS", 0),
		RateBurst:     getEnvIntOrDefault("PORTAL_RATE_LIMIT_BURST", 10),
		StoreDriver:   getEnvOrDefault("PORTAL_STORE_DRIVER", "sqlite"),
		DatabaseFile:  getEnvOrDefault("PORTAL_DATABASE_FILE", "portal.db"),
		RedisAddr:     getEnvOrDefault("PORTAL_REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("PORTAL_REDIS_PASSWORD"),
		RedisDB:       getEnvIntOrDefault("PORTAL_REDIS_DB", 0),
		RedisPrefix:   getEnvOrDefault("PORTAL_REDIS_PREFIX", "cm360:"),
		RedisTTL:      getEnvDurationOrDefault("PORTAL_REDIS_TTL", 0),
		SessionKey:    os.Getenv("PORTAL_SESSION_KEY"),
		Env:           getEnvOrDefault("ENV", "dev"),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "warn"),
		LogFormat:     getEnvOrDefault("LOG_FORMAT", "text"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	// Bare integers are seconds.
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

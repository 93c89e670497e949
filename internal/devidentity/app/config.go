package app

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/carematch360/portal/pkg/httpx"
)

type Config struct {
	Issuer               string        // issuer claim for access tokens (default: carematch360-dev-identity)
	Password             string        // password shared by every seeded account (default: validpass)
	Pepper               string        // Optional: pepper appended before hashing
	KeyFile              string        // Optional: PKCS8 PEM Ed25519 key; a fresh key is generated when empty
	AccessTTL            time.Duration // access token lifetime (default: 15m)
	RefreshTTL           time.Duration // refresh token lifetime (default: 7 days)
	LoginLimit           httpx.RateLimitConfig
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: text)
	Port                 int           // HTTP server port (default: 8001)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Refresh token cleanup interval (default: 1h)
}

// LoadConfig reads the environment, after loading a .env file from the
// working directory if there is one.
func LoadConfig() Config {
	_ = godotenv.Load()

	return Config{
		Issuer:               getEnvOrDefault("DEVIDENTITY_ISSUER", "carematch360-dev-identity"),
		Password:             getEnvOrDefault("DEVIDENTITY_PASSWORD", "validpass"),
		Pepper:               os.Getenv("DEVIDENTITY_PEPPER"),
		KeyFile:              os.Getenv("DEVIDENTITY_KEY_FILE"),
		AccessTTL:            getEnvDurationOrDefault("DEVIDENTITY_ACCESS_TTL", 15*time.Minute),
		RefreshTTL:           getEnvDurationOrDefault("DEVIDENTITY_REFRESH_TTL", 7*24*time.Hour),
		LoginLimit:           httpx.ParseRateLimitFromEnv("RATELIMIT_LOGIN", httpx.StrictLimit),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "text"),
		Port:                 getEnvIntOrDefault("PORT", 8001),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
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
	// Bare integers are minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}
	return defaultValue
}

package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the server configuration resolved from the environment
type Config struct {
	Addr           string
	DBPath         string
	LogLevel       string
	BaseURL        string
	RestartSeconds int
	PoolFeedURL    string
}

// Load reads an optional .env file and then the environment. Missing
// values fall back to defaults suitable for local play.
func Load() *Config {
	// A missing .env file is fine; the environment still applies
	_ = godotenv.Load()

	return &Config{
		Addr:           getEnv("BINGOBONGO_ADDR", ":8080"),
		DBPath:         getEnv("BINGOBONGO_DB", "bingobongo.db"),
		LogLevel:       getEnv("BINGOBONGO_LOG_LEVEL", "info"),
		BaseURL:        getEnv("BINGOBONGO_BASE_URL", "http://localhost:8080"),
		RestartSeconds: getEnvInt("BINGOBONGO_RESTART_SECONDS", 10),
		PoolFeedURL:    getEnv("BINGOBONGO_POOL_FEED_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server ServerConfig
	Redis  RedisConfig
	Poll   PollConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// RedisConfig holds Redis connection settings for the cross-instance
// event relay. An empty Addr disables Redis entirely (local-only hub).
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// PollConfig holds session and round timing settings.
type PollConfig struct {
	MinTimeLimit     time.Duration // lower clamp for a round's answer window
	DefaultTimeLimit time.Duration // used when a request omits the time limit
	HistoryLimit     int           // max completed rounds kept per session
	CodeLength       int           // length of the shareable session code
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	readTimeout, _ := strconv.Atoi(getEnv("READ_TIMEOUT_SEC", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("WRITE_TIMEOUT_SEC", "30"))

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Poll: PollConfig{
			MinTimeLimit:     time.Duration(getEnvInt("POLL_MIN_TIME_LIMIT_SEC", 5)) * time.Second,
			DefaultTimeLimit: time.Duration(getEnvInt("POLL_DEFAULT_TIME_LIMIT_SEC", 30)) * time.Second,
			HistoryLimit:     getEnvInt("POLL_HISTORY_LIMIT", 100),
			CodeLength:       getEnvInt("SESSION_CODE_LENGTH", 6),
		},
	}
	if cfg.Poll.MinTimeLimit < 5*time.Second {
		cfg.Poll.MinTimeLimit = 5 * time.Second
	}
	if cfg.Poll.DefaultTimeLimit < cfg.Poll.MinTimeLimit {
		cfg.Poll.DefaultTimeLimit = cfg.Poll.MinTimeLimit
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

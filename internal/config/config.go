package config

import (
	"os"
	"strconv"
	"time"

	"lingo_xp/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort       string
	AppVersion    string
	DatabaseURL   string
	JWTSecret     string
	AllowedOrigin string

	LogLevel string
	LogJSON  bool

	// Redis (rate limiting, leaderboard cache). Empty addr disables both.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Rate limits
	APIRateLimit  int
	APIRateWindow time.Duration
	XPRateLimit   int
	XPRateWindow  time.Duration

	LeaderboardCacheTTL time.Duration
	HistoryQueueSize    int
}

// Load reads the config from env (and .env when present)
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	return &Config{
		AppPort:       getString("APP_PORT", "8080"),
		AppVersion:    getString("APP_VERSION", "dev"),
		DatabaseURL:   dbURL,
		JWTSecret:     jwtSecret,
		AllowedOrigin: os.Getenv("ALLOWED_ORIGIN"),

		LogLevel: getString("LOG_LEVEL", "info"),
		LogJSON:  os.Getenv("LOG_JSON") == "true",

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		APIRateLimit:  getInt("API_RATE_LIMIT", 120),
		APIRateWindow: getSeconds("API_RATE_WINDOW_SECONDS", time.Minute),
		XPRateLimit:   getInt("XP_RATE_LIMIT", 60),
		XPRateWindow:  getSeconds("XP_RATE_WINDOW_SECONDS", time.Minute),

		LeaderboardCacheTTL: getSeconds("LEADERBOARD_CACHE_TTL_SECONDS", 30*time.Second),
		HistoryQueueSize:    getInt("HISTORY_QUEUE_SIZE", 1024),
	}
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getInt returns def when the variable is unset or not a non-negative integer
func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func getSeconds(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return def
}

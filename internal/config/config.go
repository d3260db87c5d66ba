package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	// Backend
	UseMock           bool
	ShowBackendErrors bool
	APIBaseURL        string
	CatalogCacheTTL   time.Duration

	// Sessions
	SessionStore    string // memory | redis
	SessionTTL      time.Duration
	SessionCookie   string
	HydrationGrace  time.Duration
	AuthContextIdle time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Mock directory
	MockDirectory string // memory | postgres
	DBURL         string

	// JWTSecret verifies backend-issued tokens; empty means unverified decode.
	JWTSecret string
	// SessionTokenSecret signs tokens the gateway mints itself.
	SessionTokenSecret string
	JWTAccessTTL       time.Duration

	OTelEnabled  bool
	OTelEndpoint string

	CORSAllowedOrigins []string
	AuthRateLimitRPS   float64
	AuthRateLimitBurst int
}

// Load reads the environment after applying an optional .env file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not read .env", "err", err)
	}

	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 8080),

		UseMock:           getEnvBool("USE_MOCK", true),
		ShowBackendErrors: getEnvBool("SHOW_BACKEND_ERRORS", false),
		APIBaseURL:        getEnv("API_BASE_URL", "http://localhost:3000"),
		CatalogCacheTTL:   time.Duration(getEnvInt("CATALOG_CACHE_SECONDS", 30)) * time.Second,

		SessionStore:    getEnv("SESSION_STORE", "memory"),
		SessionTTL:      time.Duration(getEnvInt("SESSION_TTL_MINUTES", 8*60)) * time.Minute,
		SessionCookie:   getEnv("SESSION_COOKIE", "fs_session"),
		HydrationGrace:  time.Duration(getEnvInt("HYDRATION_GRACE_MS", 250)) * time.Millisecond,
		AuthContextIdle: time.Duration(getEnvInt("AUTH_CONTEXT_IDLE_MINUTES", 30)) * time.Minute,

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MockDirectory: getEnv("MOCK_DIRECTORY", "memory"),
		DBURL:         buildDBURL(),

		JWTSecret:          getEnv("JWT_SECRET", ""),
		SessionTokenSecret: getEnv("SESSION_TOKEN_SECRET", ""),
		JWTAccessTTL:       time.Duration(getEnvInt("JWT_ACCESS_TTL_MINUTES", 60)) * time.Minute,

		OTelEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		AuthRateLimitRPS:   getEnvFloat("AUTH_RATE_LIMIT_RPS", 1),
		AuthRateLimitBurst: getEnvInt("AUTH_RATE_LIMIT_BURST", 5),
	}
}

func (c Config) IsProd() bool { return c.Env == "prod" }

func buildDBURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "fastservices")
	pass := getEnv("DB_PASSWORD", "fastservices")
	name := getEnv("DB_NAME", "fastservices")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v)
			return fallback
		}
		return num
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			slog.Warn("invalid number env var, using default", "key", key, "value", v)
			return fallback
		}
		return f
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("invalid boolean env var, using default", "key", key, "value", v)
			return fallback
		}
		return b
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

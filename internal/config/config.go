package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Backend kinds selectable through BACKEND_KIND.
const (
	BackendRestFixed   = "rest-fixed"
	BackendRestSession = "rest-session"
	BackendGraphQL     = "graphql"
)

type Config struct {
	Port           string
	APIPort        string
	BackendURL     string
	BackendKind    string
	FixedUserID    string
	RequestTimeout time.Duration
	RedisAddr      string
	DBDSN          string
	LogLevel       string
	LogFile        string
}

// Load reads the environment, after seeding it from a .env file when one exists.
// Variables already set in the environment win over the file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] .env ignored: %v", err)
	}

	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		APIPort:        getEnv("API_PORT", "3001"),
		BackendURL:     getEnv("BACKEND_URL", "http://localhost:3001"),
		BackendKind:    getEnv("BACKEND_KIND", BackendRestSession),
		FixedUserID:    getEnv("FIXED_USER_ID", "react-next-shop"),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 5*time.Second),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		DBDSN:          getEnv("DB_DSN", "shop.db"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFile:        os.Getenv("LOG_FILE"),
	}
	switch cfg.BackendKind {
	case BackendRestFixed, BackendRestSession, BackendGraphQL:
	default:
		log.Printf("[config] unknown BACKEND_KIND=%q, using %s", cfg.BackendKind, BackendRestSession)
		cfg.BackendKind = BackendRestSession
	}

	log.Printf("[config] PORT=%s API_PORT=%s BACKEND_URL=%s BACKEND_KIND=%s REQUEST_TIMEOUT=%s REDIS_ADDR=%s DB_DSN=%s",
		cfg.Port, cfg.APIPort, cfg.BackendURL, cfg.BackendKind, cfg.RequestTimeout, cfg.RedisAddr, cfg.DBDSN)
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("[config] invalid %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

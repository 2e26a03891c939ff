package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries the process configuration loaded from the environment
type Config struct {
	ServerPort  string
	Environment string

	// Database: sqlite file by default, Turso or Postgres when configured
	DBPath           string
	DatabaseURL      string // Postgres DSN
	TursoDatabaseURL string
	TursoAuthToken   string

	// Email (Resend)
	ResendAPIKey  string
	EmailFrom     string
	EmailFromName string
	EmailTestMode bool // When true, emails are logged to console instead of sent

	AllowedOrigins []string
	AppURL         string

	// Sweeper cadence in minutes (1-5 recommended)
	SweepIntervalMinutes int
}

// Load reads configuration from .env / environment variables
func Load() *Config {
	// Load .env file (ignore error if not present - use system env vars)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		ServerPort:           getEnv("SERVER_PORT", "8080"),
		Environment:          getEnv("ENVIRONMENT", "development"),
		DBPath:               getEnv("DB_PATH", "db/booking.db"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		TursoDatabaseURL:     getEnv("TURSO_DATABASE_URL", ""),
		TursoAuthToken:       getEnv("TURSO_AUTH_TOKEN", ""),
		ResendAPIKey:         getEnv("RESEND_API_KEY", ""),
		EmailFrom:            getEnv("EMAIL_FROM", "bookings@rivo.app"),
		EmailFromName:        getEnv("EMAIL_FROM_NAME", "Rivo Bookings"),
		EmailTestMode:        getEnvBool("EMAIL_TEST_MODE", true), // Default true for safety
		AllowedOrigins:       strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		AppURL:               getEnv("APP_URL", "http://localhost:8080"),
		SweepIntervalMinutes: getEnvInt("SWEEP_INTERVAL_MINUTES", 1),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Printf("Using default value for %s: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

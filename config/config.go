package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadENV loads variables from .env unless GO_ENV names a non-development
// environment.
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil {
			return err
		}
	}

	return nil
}

type EnvironmentVariable struct {
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	LOG_LEVEL    string
	// HTTP
	ALLOWED_ORIGINS     string
	RATE_LIMIT_REQUESTS int
	// Redis
	REDIS_URL         string
	CATALOG_CACHE_TTL time.Duration
	// Spaces (S3 compatible) storage for generated documents
	SPACES_BUCKET     string
	SPACES_REGION     string
	SPACES_ENDPOINT   string
	SPACES_ACCESS_KEY string
	SPACES_SECRET_KEY string
	// Scheme documents
	FRONT_MATTER_PATH    string
	TABLE_BUDGET_MM      float64
	TABLE_ROW_HEIGHT_MM  float64
	CRON_ENABLED         bool
	TRASH_RETENTION_DAYS int
	TRASH_PURGE_SCHEDULE string
}

func Get() (*EnvironmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	// Database defaults
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}

	sslMode := os.Getenv("DB_SSL_MODE")
	if sslMode == "" {
		sslMode = "disable"
	}

	envVariables := &EnvironmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      dbHost,
		DB_PORT:      dbPort,
		DB_SSL_MODE:  sslMode,
		PORT:         port,
		LOG_LEVEL:    getString("LOG_LEVEL", "info"),
		// HTTP
		ALLOWED_ORIGINS:     getString("ALLOWED_ORIGINS", "*"),
		RATE_LIMIT_REQUESTS: getInt("RATE_LIMIT_REQUESTS", 120),
		// Redis
		REDIS_URL:         os.Getenv("REDIS_URL"),
		CATALOG_CACHE_TTL: getDuration("CATALOG_CACHE_TTL", 10*time.Minute),
		// Spaces
		SPACES_BUCKET:     os.Getenv("SPACES_BUCKET"),
		SPACES_REGION:     getString("SPACES_REGION", "blr1"),
		SPACES_ENDPOINT:   os.Getenv("SPACES_ENDPOINT"),
		SPACES_ACCESS_KEY: os.Getenv("SPACES_ACCESS_KEY"),
		SPACES_SECRET_KEY: os.Getenv("SPACES_SECRET_KEY"),
		// Scheme documents
		FRONT_MATTER_PATH:    getString("FRONT_MATTER_PATH", "config/front_matter.yaml"),
		TABLE_BUDGET_MM:      getFloat("TABLE_BUDGET_MM", 224),
		TABLE_ROW_HEIGHT_MM:  getFloat("TABLE_ROW_HEIGHT_MM", 7),
		CRON_ENABLED:         os.Getenv("CRON_ENABLED") != "false",
		TRASH_RETENTION_DAYS: getInt("TRASH_RETENTION_DAYS", 30),
		TRASH_PURGE_SCHEDULE: getString("TRASH_PURGE_SCHEDULE", "0 0 2 * * *"),
	}

	return envVariables, nil
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port         string
	DatabasePath string
	LogLevel     string

	// Upload settings
	UploadDir          string
	MaxUploadSizeBytes int64
	MaxConcurrentJobs  int
	JobRetention       time.Duration
	JobCleanupInterval time.Duration

	// CNPJ lookup settings
	CNPJLookupBaseURL string
	CNPJLookupTimeout time.Duration
	CNPJRetryPause    time.Duration

	// Rate limiting (per client address)
	RateLimitWindow      time.Duration
	RateLimitMaxRequests int

	AllowedOrigins []string
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	Cfg = fromEnv()

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, UploadDir=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.UploadDir)
}

// fromEnv builds an AppConfig from the current process environment.
func fromEnv() *AppConfig {
	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760") // 10MB default
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil || maxUploadSizeBytes <= 0 {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB.", maxUploadSizeBytesStr)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	return &AppConfig{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./financeiro.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		UploadDir:          getEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadSizeBytes: maxUploadSizeBytes,
		MaxConcurrentJobs:  getEnvAsInt("MAX_CONCURRENT_JOBS", 4),
		JobRetention:       getEnvAsDuration("JOB_RETENTION", 30*time.Second),
		JobCleanupInterval: getEnvAsDuration("JOB_CLEANUP_INTERVAL", time.Minute),

		CNPJLookupBaseURL: strings.TrimRight(getEnv("CNPJ_API_BASE_URL", "https://brasilapi.com.br/api/cnpj/v1"), "/"),
		CNPJLookupTimeout: getEnvAsDuration("CNPJ_LOOKUP_TIMEOUT", 5*time.Second),
		CNPJRetryPause:    getEnvAsDuration("CNPJ_RETRY_PAUSE", 500*time.Millisecond),

		RateLimitWindow:      getEnvAsDuration("RATE_LIMIT_WINDOW", 60*time.Second),
		RateLimitMaxRequests: getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 60),

		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", "http://localhost:3000"),
	}
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil && value > 0 {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getEnvAsList splits a comma-separated variable, dropping empty entries.
func getEnvAsList(key, fallback string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, fallback), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// JSON store location
	Storage StorageConfig

	// Admin identity and sessions
	Admin AdminConfig

	// Comment submission anti-abuse settings
	Comments CommentsConfig

	// Bulk import settings
	Import ImportConfig

	// Optional Redis backing for the per-IP limiter
	Redis RedisConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	PublicBaseURL   string
	AdminPagePath   string
}

// StorageConfig holds JSON store settings
type StorageConfig struct {
	DataDir string
}

// AdminConfig holds the admin identity seed and session lifetime
type AdminConfig struct {
	User       string
	Password   string
	SessionTTL time.Duration
}

// CommentsConfig holds the submission pipeline settings
type CommentsConfig struct {
	RateWindow              time.Duration
	RateMax                 int
	EmailRateWindow         time.Duration
	EmailRateMax            int
	BadWords                []string
	RecaptchaSecret         string
	RecaptchaThreshold      float64
	RecaptchaVerifyURL      string
	EnableEmailVerification bool
	VerificationTTL         time.Duration
}

// ImportConfig holds bulk import settings
type ImportConfig struct {
	MaxPerBucket int
}

// RedisConfig holds optional Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	Prefix   string
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
	Env   string
}

// DefaultRecaptchaVerifyURL is Google's siteverify endpoint.
const DefaultRecaptchaVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// Load reads configuration from environment variables.
// A .env file in the working directory is applied first when present;
// variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port := getEnv("PORT", "3000")
	cfg := &Config{
		Server: ServerConfig{
			Port:            port,
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			PublicBaseURL:   getEnv("PUBLIC_BASE_URL", "http://localhost:"+port),
			AdminPagePath:   getEnv("ADMIN_PAGE_PATH", ""),
		},
		Storage: StorageConfig{
			DataDir: getEnv("DATA_DIR", "./data"),
		},
		Admin: AdminConfig{
			User:       getEnv("ADMIN_USER", "admin"),
			Password:   getEnv("ADMIN_PASS", "password123"),
			SessionTTL: getDurationEnv("ADMIN_SESSION_TTL", time.Hour),
		},
		Comments: CommentsConfig{
			RateWindow:              getWindowEnv("RATE_WINDOW", time.Minute),
			RateMax:                 getIntEnv("RATE_MAX", 10),
			EmailRateWindow:         getWindowEnv("EMAIL_RATE_WINDOW", time.Hour),
			EmailRateMax:            getIntEnv("EMAIL_RATE_MAX", 10),
			BadWords:                getListEnv("BAD_WORDS", []string{"spamword1", "viagra", "casino"}),
			RecaptchaSecret:         getEnv("RECAPTCHA_SECRET", ""),
			RecaptchaThreshold:      getFloatEnv("RECAPTCHA_THRESHOLD", 0.5),
			RecaptchaVerifyURL:      getEnv("RECAPTCHA_VERIFY_URL", DefaultRecaptchaVerifyURL),
			EnableEmailVerification: getBoolEnv("ENABLE_EMAIL_VERIFICATION", false),
			VerificationTTL:         getDurationEnv("EMAIL_VERIFICATION_TTL", 24*time.Hour),
		},
		Import: ImportConfig{
			MaxPerBucket: getIntEnv("IMPORT_MAX_PER_BUCKET", 1000),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			Prefix:   getEnv("REDIS_PREFIX", "comments:ratelimit"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			Env:   getEnv("ENV", "development"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Storage.DataDir) == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.Admin.User == "" {
		return fmt.Errorf("ADMIN_USER is required")
	}
	if c.Admin.SessionTTL <= 0 {
		return fmt.Errorf("ADMIN_SESSION_TTL must be positive")
	}
	if c.Comments.RateWindow <= 0 || c.Comments.RateMax <= 0 {
		return fmt.Errorf("RATE_WINDOW and RATE_MAX must be positive")
	}
	if c.Comments.EmailRateWindow <= 0 || c.Comments.EmailRateMax <= 0 {
		return fmt.Errorf("EMAIL_RATE_WINDOW and EMAIL_RATE_MAX must be positive")
	}
	if c.Comments.RecaptchaThreshold < 0 || c.Comments.RecaptchaThreshold > 1 {
		return fmt.Errorf("RECAPTCHA_THRESHOLD must be between 0 and 1")
	}
	if c.Import.MaxPerBucket <= 0 {
		return fmt.Errorf("IMPORT_MAX_PER_BUCKET must be positive")
	}
	return nil
}

// IsProduction reports whether the process runs with ENV=production
func (c *Config) IsProduction() bool {
	return c.Log.Env == "production"
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getWindowEnv reads key as a duration, falling back to key_MS as integer milliseconds
func getWindowEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	if ms := getIntEnv(key+"_MS", 0); ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getListEnv splits a comma separated value, dropping blank entries
func getListEnv(key string, defaultValue []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

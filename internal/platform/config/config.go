package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr                  string
	DatabaseURL           string
	Environment           string
	CompanyCode           string
	VerifyBaseURL         string
	VerifySigningSecret   string
	StorageURL            string
	EmailFrom             string
	EmailEnabled          bool
	SMTPHost              string
	SMTPPort              int
	SMTPUser              string
	SMTPPassword          string
	SMTPUseTLS            bool
	RunMigrations         bool
	MaxBodyBytes          int64
	MaxPhotoBytes         int64
	RateLimitPerMinute    int
	VerifyCacheSize       int
	ProofBackfillInterval time.Duration
	MetricsEnabled        bool
}

func Load() Config {
	return Config{
		Addr:                  getEnv("APP_ADDR", ":8080"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		Environment:           getEnv("APP_ENV", "development"),
		CompanyCode:           strings.ToUpper(getEnv("COMPANY_CODE", "ART")),
		VerifyBaseURL:         getEnv("VERIFY_BASE_URL", "http://localhost:8080"),
		VerifySigningSecret:   getEnv("VERIFY_SIGNING_SECRET", ""),
		StorageURL:            getEnv("STORAGE_URL", "file://localhost/./storage"),
		EmailFrom:             getEnv("EMAIL_FROM", "no-reply@example.com"),
		EmailEnabled:          getEnvBool("EMAIL_ENABLED", false),
		SMTPHost:              getEnv("SMTP_HOST", ""),
		SMTPPort:              getEnvInt("SMTP_PORT", 587),
		SMTPUser:              getEnv("SMTP_USER", ""),
		SMTPPassword:          getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:            getEnvBool("SMTP_USE_TLS", true),
		RunMigrations:         getEnvBool("RUN_MIGRATIONS", true),
		MaxBodyBytes:          int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		MaxPhotoBytes:         int64(getEnvInt("MAX_PHOTO_BYTES", 5242880)),
		RateLimitPerMinute:    getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		VerifyCacheSize:       getEnvInt("VERIFY_CACHE_SIZE", 1024),
		ProofBackfillInterval: getEnvDuration("PROOF_BACKFILL_INTERVAL", time.Hour),
		MetricsEnabled:        getEnvBool("METRICS_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if strings.TrimSpace(c.CompanyCode) == "" {
		return fmt.Errorf("COMPANY_CODE must not be empty")
	}
	for _, r := range c.CompanyCode {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return fmt.Errorf("COMPANY_CODE must contain only uppercase letters and digits")
		}
	}
	if strings.TrimSpace(c.VerifyBaseURL) == "" {
		return fmt.Errorf("VERIFY_BASE_URL is required")
	}
	if c.Environment == "production" && strings.TrimSpace(c.VerifySigningSecret) == "" {
		return fmt.Errorf("VERIFY_SIGNING_SECRET must be set in production")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.VerifyCacheSize <= 0 {
		return fmt.Errorf("VERIFY_CACHE_SIZE must be positive")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Google Generative Language API
	GoogleAPIKey  string
	GeminiBaseURL string
	ImageModel    string
	VideoModel    string

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string
	PriceCents          int64

	// Resend
	ResendAPIKey string
	EmailFrom    string

	// Pipeline
	PollInterval    time.Duration
	MaxPollAttempts int
	UploadTTL       time.Duration

	// Storage
	UploadsDir string
	OutputsDir string

	// Server
	Port        string
	Environment string
	BaseURL     string
}

func Load() (*Config, error) {
	cfg := &Config{
		GoogleAPIKey:  getEnv("GOOGLE_API_KEY", ""),
		GeminiBaseURL: getEnv("GEMINI_API_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		ImageModel:    getEnv("GEMINI_IMAGE_MODEL", "gemini-2.0-flash-exp"),
		VideoModel:    getEnv("GEMINI_VIDEO_MODEL", "veo-3.1-generate-preview"),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		PriceCents:          getEnvInt64("PRICE_CENTS", 500),

		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		EmailFrom:    getEnv("EMAIL_FROM", "onboarding@resend.dev"),

		PollInterval:    getEnvDuration("POLL_INTERVAL", 5*time.Second),
		MaxPollAttempts: getEnvInt("MAX_POLL_ATTEMPTS", 60),
		UploadTTL:       getEnvDuration("UPLOAD_TTL", time.Hour),

		UploadsDir: getEnv("UPLOADS_DIR", "uploads"),
		OutputsDir: getEnv("OUTPUTS_DIR", "outputs"),

		Port:        getEnv("PORT", "3000"),
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:3000"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.GoogleAPIKey == "" {
		return fmt.Errorf("GOOGLE_API_KEY is required")
	}
	if c.StripeSecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if c.MaxPollAttempts <= 0 {
		return fmt.Errorf("MAX_POLL_ATTEMPTS must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

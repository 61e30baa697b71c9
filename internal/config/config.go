// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all notifier configuration. It is loaded once at process
// start and passed by reference; fields are never mutated afterwards.
type Config struct {
	// WebhookURL is the Discord webhook the monthly summary is posted to.
	// Treated as a secret: never logged.
	WebhookURL string
	// FXRateURL is the exchange-rate endpoint. Empty disables conversion.
	FXRateURL string

	AWSRegion        string
	AWSProfile       string
	CrossAccountRole string

	Timezone       string
	Location       *time.Location
	TargetCurrency string
	TopServices    int
	Mention        string
	// StepTimeout bounds each outbound network call. It must stay well
	// below the invocation timeout so a slow dependency cannot starve
	// the error-logging path.
	StepTimeout time.Duration

	LogLevel    string
	OTelEnabled bool
}

// LoadFromEnv reads configuration from environment variables with sensible
// defaults. NOTIFY_WEBHOOK_URL is the only required value.
func LoadFromEnv() (Config, error) {
	cfg := Config{
		WebhookURL:       os.Getenv("NOTIFY_WEBHOOK_URL"),
		FXRateURL:        os.Getenv("NOTIFY_FX_RATE_URL"),
		AWSRegion:        envOr("AWS_REGION", "ap-northeast-1"),
		AWSProfile:       os.Getenv("AWS_PROFILE"),
		CrossAccountRole: os.Getenv("NOTIFY_CROSS_ACCOUNT_ROLE"),
		Timezone:         envOr("NOTIFY_TIMEZONE", "Asia/Tokyo"),
		TargetCurrency:   envOr("NOTIFY_TARGET_CURRENCY", "JPY"),
		Mention:          envOr("NOTIFY_MENTION", "@everyone"),
		LogLevel:         envOr("NOTIFY_LOG_LEVEL", "info"),
	}

	if cfg.WebhookURL == "" {
		return Config{}, fmt.Errorf("config: NOTIFY_WEBHOOK_URL required")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("config: invalid NOTIFY_TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	cfg.TopServices, err = intEnv("NOTIFY_TOP_SERVICES", 0)
	if err != nil {
		return Config{}, err
	}
	if cfg.TopServices < 0 {
		return Config{}, fmt.Errorf("config: NOTIFY_TOP_SERVICES must not be negative")
	}

	cfg.StepTimeout, err = durationEnv("NOTIFY_STEP_TIMEOUT", 20*time.Second)
	if err != nil {
		return Config{}, err
	}
	if cfg.StepTimeout <= 0 {
		return Config{}, fmt.Errorf("config: NOTIFY_STEP_TIMEOUT must be positive")
	}

	cfg.OTelEnabled, err = boolEnv("NOTIFY_OTEL_ENABLED", false)
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("config: invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

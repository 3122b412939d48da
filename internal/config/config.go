package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Renewal anchor policies: the instant a renewal's end date is computed
// from. "payment" counts months from the payment instant; "period" counts
// from the chained start date (the previous subscription's end).
const (
	RenewalAnchorPayment = "payment"
	RenewalAnchorPeriod  = "period"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port           int
	JWTSecret      string
	DatabaseURL    string
	CORSOrigins    []string
	AdminEmail     string
	AdminPassword  string
	RenewalAnchor  string
	SweepSchedule  string
	ExpiryWarnDays int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	port, _ := strconv.Atoi(getEnv("PORT", "4001"))

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	dbURL := getEnv("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	anchor := getEnv("RENEWAL_ANCHOR", RenewalAnchorPayment)
	if anchor != RenewalAnchorPayment && anchor != RenewalAnchorPeriod {
		return nil, fmt.Errorf("RENEWAL_ANCHOR must be %q or %q, got %q",
			RenewalAnchorPayment, RenewalAnchorPeriod, anchor)
	}

	warnDays, err := strconv.Atoi(getEnv("EXPIRY_WARN_DAYS", "2"))
	if err != nil || warnDays < 0 {
		return nil, fmt.Errorf("EXPIRY_WARN_DAYS must be a non-negative integer")
	}

	origins := strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,https://app.colectra.io"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return &Config{
		Port:           port,
		JWTSecret:      jwtSecret,
		DatabaseURL:    dbURL,
		CORSOrigins:    origins,
		AdminEmail:     getEnv("ADMIN_EMAIL", "admin@colectra.io"),
		AdminPassword:  getEnv("ADMIN_PASSWORD", "admin123"),
		RenewalAnchor:  anchor,
		SweepSchedule:  getEnv("SWEEP_SCHEDULE", "@every 1h"),
		ExpiryWarnDays: warnDays,
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

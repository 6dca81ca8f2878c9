// Package config reads the service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	// Load .env file to environments
	_ "github.com/joho/godotenv/autoload"
)

// Config holds every runtime setting of the API process and the sweep tool.
type Config struct {
	Port int

	SecretKey    string
	AllowOrigins []string

	GCSBucketName string

	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
	MailFrom          string
	MailRatePerSecond float64

	RateLimitPerSecond uint

	CacheCapacity      int
	CacheTTL           time.Duration
	CacheSweepInterval time.Duration

	SchedulerEnabled   bool
	SchedulerSpec      string
	AttentionThreshold time.Duration
	RedisURL           string

	LogLevel  string
	LogPretty bool
}

// Load builds a Config from environment variables, falling back to defaults.
func Load() *Config {
	return &Config{
		Port:               getInt("PORT", 8080),
		SecretKey:          os.Getenv("SECRET_KEY"),
		AllowOrigins:       splitList(os.Getenv("ALLOW_ORIGIN")),
		GCSBucketName:      os.Getenv("GCS_BUCKET_NAME"),
		SMTPHost:           os.Getenv("SMTP_HOST"),
		SMTPPort:           getInt("SMTP_PORT", 587),
		SMTPUsername:       os.Getenv("SMTP_USERNAME"),
		SMTPPassword:       os.Getenv("SMTP_PASSWORD"),
		MailFrom:           getEnv("SMTP_FROM", "no-reply@jobs.university.edu"),
		MailRatePerSecond:  getFloat("MAIL_RATE_PER_SECOND", 5),
		RateLimitPerSecond: uint(getPositiveInt("RATE_LIMIT_REQUESTS_PER_SECOND", 5)),
		CacheCapacity:      getPositiveInt("CACHE_CAPACITY", 100),
		CacheTTL:           getDuration("CACHE_TTL", 5*time.Minute),
		CacheSweepInterval: getDuration("CACHE_SWEEP_INTERVAL", time.Minute),
		SchedulerEnabled:   getBool("SCHEDULER_ENABLED", false),
		SchedulerSpec:      getEnv("SCHEDULER_SPEC", "@hourly"),
		AttentionThreshold: getDuration("ATTENTION_THRESHOLD", 7*24*time.Hour),
		RedisURL:           os.Getenv("REDIS_URL"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogPretty:          getBool("LOG_PRETTY", false),
	}
}

// MailEnabled reports whether SMTP delivery is configured.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if parsed, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return parsed
	}
	return fallback
}

func getPositiveInt(key string, fallback int) int {
	if v := getInt(key, fallback); v > 0 {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if parsed, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil && parsed > 0 {
		return parsed
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if parsed, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return parsed
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if parsed, err := time.ParseDuration(os.Getenv(key)); err == nil && parsed > 0 {
		return parsed
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

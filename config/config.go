// Package config loads the service configuration from the environment
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               string
	LogLevel          string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes
	MaxRequestBody    int64 // Maximum request body size in bytes
	MaxHeaderSize     int64 // Maximum header size in bytes

	ReadHeaderTimeout time.Duration
	UploadTimeout     time.Duration // Bounds reading a whole request body

	UpstreamBaseURL   string
	UpstreamTimeout   time.Duration
	ReportCaseLimit   int
	DetailConcurrency int // 0 means unbounded
	RefreshInterval   time.Duration
	MaxAudioSize      int64
	PreviewLength     int

	SessionSecret string
	SessionTTL    time.Duration
	DemoEmail     string
	DemoPassword  string
	CORSOrigins   []string
}

// LoadDotEnv loads variables from path into the environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8080"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:               getEnvWithDefault("ENV", "dev"),
		LogLevel:          getEnvWithDefault("LOG_LEVEL", "info"),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),         // 4 weeks default
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB default
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 62914560),   // 60MB default, fits a 50MB upload
		MaxHeaderSize:     getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),     // 1MB default

		ReadHeaderTimeout: getDurationEnvWithDefault("READ_HEADER_TIMEOUT", 10*time.Second),
		UploadTimeout:     getDurationEnvWithDefault("UPLOAD_TIMEOUT", 10*time.Minute),

		UpstreamBaseURL:   getEnvWithDefault("UPSTREAM_BASE_URL", "http://localhost:8000"),
		UpstreamTimeout:   getDurationEnvWithDefault("UPSTREAM_TIMEOUT", 30*time.Second),
		ReportCaseLimit:   getIntEnvWithDefault("REPORT_CASE_LIMIT", 200),
		DetailConcurrency: getIntEnvWithDefault("DETAIL_CONCURRENCY", 8),
		RefreshInterval:   getDurationEnvWithDefault("REFRESH_INTERVAL", 15*time.Minute),
		MaxAudioSize:      getInt64EnvWithDefault("MAX_AUDIO_SIZE", 52428800), // 50MB default
		PreviewLength:     getIntEnvWithDefault("PREVIEW_LENGTH", 280),

		SessionSecret: os.Getenv("SESSION_SECRET"),
		SessionTTL:    getDurationEnvWithDefault("SESSION_TTL", 12*time.Hour),
		DemoEmail:     getEnvWithDefault("DEMO_EMAIL", "admin@aldeia.com"),
		DemoPassword:  getEnvWithDefault("DEMO_PASSWORD", "password123"),
		CORSOrigins:   splitList(os.Getenv("CORS_ORIGINS")),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether ENV is prod.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "prod")
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateEnv(cfg.Env); err != nil {
		return fmt.Errorf("invalid ENV: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	if err := validatePositiveDuration(cfg.ReadHeaderTimeout, "READ_HEADER_TIMEOUT"); err != nil {
		return err
	}

	if err := validatePositiveDuration(cfg.UploadTimeout, "UPLOAD_TIMEOUT"); err != nil {
		return err
	}

	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}

	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	if err := validateUpstreamURL(cfg.UpstreamBaseURL); err != nil {
		return fmt.Errorf("invalid UPSTREAM_BASE_URL: %w", err)
	}

	if err := validatePositiveDuration(cfg.UpstreamTimeout, "UPSTREAM_TIMEOUT"); err != nil {
		return err
	}

	if err := validateRefreshInterval(cfg.RefreshInterval); err != nil {
		return fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}

	if cfg.ReportCaseLimit < 1 || cfg.ReportCaseLimit > 500 {
		return fmt.Errorf("invalid REPORT_CASE_LIMIT: must be between 1 and 500, got: %d", cfg.ReportCaseLimit)
	}

	if cfg.DetailConcurrency < 0 {
		return fmt.Errorf("invalid DETAIL_CONCURRENCY: must be zero or positive, got: %d", cfg.DetailConcurrency)
	}

	if err := validateSizeLimit(cfg.MaxAudioSize, "MAX_AUDIO_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_AUDIO_SIZE: %w", err)
	}

	if cfg.MaxAudioSize >= cfg.MaxRequestBody {
		return fmt.Errorf("MAX_REQUEST_BODY (%d) must be larger than MAX_AUDIO_SIZE (%d)", cfg.MaxRequestBody, cfg.MaxAudioSize)
	}

	if cfg.PreviewLength < 1 {
		return fmt.Errorf("invalid PREVIEW_LENGTH: must be positive, got: %d", cfg.PreviewLength)
	}

	if err := validatePositiveDuration(cfg.SessionTTL, "SESSION_TTL"); err != nil {
		return err
	}

	if err := validateSessionSecret(cfg.SessionSecret, cfg.Env); err != nil {
		return fmt.Errorf("invalid SESSION_SECRET: %w", err)
	}

	if cfg.DemoEmail == "" || cfg.DemoPassword == "" {
		return fmt.Errorf("DEMO_EMAIL and DEMO_PASSWORD cannot be empty")
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "127.0.0.1" || address == "::1" || address == "localhost" || address == "0.0.0.0" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	if !ip.IsLoopback() && !ip.IsPrivate() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}

	return nil
}

// validateEnv validates the ENV environment variable
func validateEnv(env string) error {
	if env == "" {
		return fmt.Errorf("ENV cannot be empty")
	}

	validEnvs := []string{"dev", "staging", "prod", "test"}
	env = strings.ToLower(env)

	for _, validEnv := range validEnvs {
		if env == validEnv {
			return nil
		}
	}

	return fmt.Errorf("ENV must be one of: %v, got: %s", validEnvs, env)
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	logLevel = strings.ToLower(logLevel)

	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

// validateLogRetentionWeeks validates the LOG_RETENTION_WEEKS environment variable
func validateLogRetentionWeeks(weeks int) error {
	if weeks <= 0 {
		return fmt.Errorf("LOG_RETENTION_WEEKS must be positive, got: %d", weeks)
	}

	if weeks > 52 {
		return fmt.Errorf("LOG_RETENTION_WEEKS is too large (max 52 weeks), got: %d", weeks)
	}

	return nil
}

// validateMaxLogFileSize validates the MAX_LOG_FILE_SIZE environment variable
func validateMaxLogFileSize(size int64) error {
	if size <= 0 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE must be positive, got: %d", size)
	}

	// Minimum 1MB, maximum 1GB
	if size < 1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too small (min 1MB), got: %d bytes", size)
	}

	if size > 1024*1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too large (max 1GB), got: %d bytes", size)
	}

	return nil
}

// validateUpstreamURL requires an absolute http(s) URL
func validateUpstreamURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("must be a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got: %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	return nil
}

// validateRefreshInterval keeps the refresh between one minute and one day
func validateRefreshInterval(d time.Duration) error {
	if d < time.Minute {
		return fmt.Errorf("must be at least 1m, got: %s", d)
	}
	if d > 24*time.Hour {
		return fmt.Errorf("must be at most 24h, got: %s", d)
	}
	return nil
}

func validatePositiveDuration(d time.Duration, configName string) error {
	if d <= 0 {
		return fmt.Errorf("invalid %s: must be positive, got: %s", configName, d)
	}
	return nil
}

// validateSessionSecret requires a secret in prod; elsewhere one is generated when absent
func validateSessionSecret(secret, env string) error {
	if secret == "" {
		if strings.EqualFold(env, "prod") {
			return fmt.Errorf("SESSION_SECRET is required in prod")
		}
		return nil
	}
	if len(secret) < 16 {
		return fmt.Errorf("SESSION_SECRET must be at least 16 bytes, got: %d", len(secret))
	}
	return nil
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnvWithDefault parses a Go duration such as 30s or 15m
func getDurationEnvWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// splitList splits a comma separated value, dropping blanks
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
		"READ_HEADER_TIMEOUT",
		"UPLOAD_TIMEOUT",
		"UPSTREAM_BASE_URL",
		"UPSTREAM_TIMEOUT",
		"REPORT_CASE_LIMIT",
		"DETAIL_CONCURRENCY",
		"REFRESH_INTERVAL",
		"MAX_AUDIO_SIZE",
		"PREVIEW_LENGTH",
		"SESSION_SECRET",
		"SESSION_TTL",
		"DEMO_EMAIL",
		"DEMO_PASSWORD",
		"CORS_ORIGINS",
	}
}

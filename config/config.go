// Package config has the configuration for the interaction lookup service
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Environment names accepted in ENV
const (
	EnvDevelopment = "dev"
	EnvStaging     = "staging"
	EnvProduction  = "prod"
	EnvTest        = "test"
)

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               string
	LogLevel          string
	LogDir            string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes
	MaxRequestBody    int64 // Maximum request body size in bytes
	MaxHeaderSize     int64 // Maximum header size in bytes

	// Collaborators
	RxNavBaseURL          string
	TripSitBaseURL        string
	ExternalTimeout       time.Duration // Upper bound for one lookup against a collaborator
	ExternalRetryMax      int
	ExternalRatePerSecond float64

	SuggestMax         int
	CORSAllowedOrigins []string
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:               strings.ToLower(getEnvWithDefault("ENV", EnvDevelopment)),
		LogLevel:          strings.ToLower(getEnvWithDefault("LOG_LEVEL", "info")),
		LogDir:            getEnvWithDefault("LOG_DIR", "logs"),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),         // 4 weeks default
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB default
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576),    // 1MB default
		MaxHeaderSize:     getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),     // 1MB default

		RxNavBaseURL:          getEnvWithDefault("RXNAV_BASE_URL", "https://rxnav.nlm.nih.gov"),
		TripSitBaseURL:        getEnvWithDefault("TRIPSIT_BASE_URL", "https://tripbot.tripsit.me/api/tripsit"),
		ExternalTimeout:       getDurationEnvWithDefault("EXTERNAL_TIMEOUT", 8*time.Second),
		ExternalRetryMax:      getIntEnvWithDefault("EXTERNAL_RETRY_MAX", 2),
		ExternalRatePerSecond: getFloatEnvWithDefault("EXTERNAL_RATE_PER_SECOND", 10),

		SuggestMax:         getIntEnvWithDefault("SUGGEST_MAX", 5),
		CORSAllowedOrigins: getListEnvWithDefault("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether the service runs with ENV=prod
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
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

	if strings.TrimSpace(cfg.LogDir) == "" {
		return fmt.Errorf("invalid LOG_DIR: LOG_DIR cannot be empty")
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}

	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	if err := validateBaseURL(cfg.RxNavBaseURL); err != nil {
		return fmt.Errorf("invalid RXNAV_BASE_URL: %w", err)
	}

	if err := validateBaseURL(cfg.TripSitBaseURL); err != nil {
		return fmt.Errorf("invalid TRIPSIT_BASE_URL: %w", err)
	}

	if err := validateExternalTimeout(cfg.ExternalTimeout); err != nil {
		return fmt.Errorf("invalid EXTERNAL_TIMEOUT: %w", err)
	}

	if cfg.ExternalRetryMax < 0 || cfg.ExternalRetryMax > 10 {
		return fmt.Errorf("invalid EXTERNAL_RETRY_MAX: must be between 0 and 10, got: %d", cfg.ExternalRetryMax)
	}

	if cfg.ExternalRatePerSecond <= 0 {
		return fmt.Errorf("invalid EXTERNAL_RATE_PER_SECOND: must be positive, got: %v", cfg.ExternalRatePerSecond)
	}

	if cfg.SuggestMax < 1 || cfg.SuggestMax > 50 {
		return fmt.Errorf("invalid SUGGEST_MAX: must be between 1 and 50, got: %d", cfg.SuggestMax)
	}

	if len(cfg.CORSAllowedOrigins) == 0 {
		return fmt.Errorf("invalid CORS_ALLOWED_ORIGINS: at least one origin is required")
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

	if address == "localhost" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	// 0.0.0.0 is how containers listen on every interface
	if !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}

	return nil
}

// validateEnv validates the ENV environment variable
func validateEnv(env string) error {
	if env == "" {
		return fmt.Errorf("ENV cannot be empty")
	}

	validEnvs := []string{EnvDevelopment, EnvStaging, EnvProduction, EnvTest}
	if !slices.Contains(validEnvs, strings.ToLower(env)) {
		return fmt.Errorf("ENV must be one of: %v, got: %s", validEnvs, env)
	}

	return nil
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, strings.ToLower(logLevel)) {
		return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
	}

	return nil
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

// validateBaseURL checks a collaborator base URL is absolute http(s)
func validateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("base URL is malformed: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base URL must use http or https, got: %q", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("base URL must include a host, got: %s", raw)
	}

	return nil
}

// validateExternalTimeout validates the EXTERNAL_TIMEOUT environment variable
func validateExternalTimeout(d time.Duration) error {
	if d < 100*time.Millisecond {
		return fmt.Errorf("EXTERNAL_TIMEOUT is too small (min 100ms), got: %s", d)
	}

	if d > 2*time.Minute {
		return fmt.Errorf("EXTERNAL_TIMEOUT is too large (max 2m), got: %s", d)
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

func getFloatEnvWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getDurationEnvWithDefault accepts Go durations ("8s", "1500ms")
func getDurationEnvWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getListEnvWithDefault splits a comma separated variable, dropping blanks
func getListEnvWithDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
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

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_DIR",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
		"RXNAV_BASE_URL",
		"TRIPSIT_BASE_URL",
		"EXTERNAL_TIMEOUT",
		"EXTERNAL_RETRY_MAX",
		"EXTERNAL_RATE_PER_SECOND",
		"SUGGEST_MAX",
		"CORS_ALLOWED_ORIGINS",
	}
}

// Package config provides configuration loading and validation for the feed
// services. It uses koanf to merge environment variables with optional file
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the API server and ingest worker.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Database
	DatabaseURL string `koanf:"database_url"`

	// Redis (candidate cache + rate limiting). Optional: when empty the
	// server runs with in-memory fallbacks.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`

	// Firehose (content ingest WebSocket)
	FirehoseURL string `koanf:"firehose_url"`

	// Ranking
	CalibrationPath string `koanf:"calibration_path"`
	BusinessHoursTZ string `koanf:"business_hours_tz"`

	// SerendipityEnabled toggles the discovery boost factor. Disabling zeroes
	// its weight so feeds rank purely on the other five factors.
	SerendipityEnabled bool `koanf:"rank_serendipity_enabled"`

	// Candidate cache
	CandidateCacheTTLSeconds int `koanf:"candidate_cache_ttl_seconds"`

	// Trending recompute job
	TrendingIntervalSeconds int     `koanf:"trending_interval_seconds"`
	TrendingThreshold       float64 `koanf:"trending_threshold"`
	TrendingFreshnessDays   int     `koanf:"trending_freshness_days"`

	// Rate limits (requests per minute)
	RateLimitGlobal      int `koanf:"rate_limit_global"`
	RateLimitFeed        int `koanf:"rate_limit_feed"`
	RateLimitInteraction int `koanf:"rate_limit_interaction"`

	// CORS
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// Observability
	TracingEnabled   bool   `koanf:"tracing_enabled"`
	TracingEndpoint  string `koanf:"tracing_endpoint"`
	ProfilingEnabled bool   `koanf:"profiling_enabled"`
}

// Configuration validation errors.
var (
	ErrMissingDatabaseURL      = errors.New("DATABASE_URL is required")
	ErrMissingFirehoseURL      = errors.New("FIREHOSE_URL is required")
	ErrInvalidPort             = errors.New("PORT must be a valid integer")
	ErrPortOutOfRange          = errors.New("PORT must be between 1 and 65535")
	ErrInvalidTrendingInterval = errors.New("TRENDING_INTERVAL_SECONDS must be positive")
	ErrInvalidTrendingScore    = errors.New("TRENDING_THRESHOLD must be between 0 and 100")
)

// Default values for non-secret configuration.
const (
	DefaultPort                     = 8080
	DefaultEnv                      = "development"
	DefaultCandidateCacheTTLSeconds = 30
	DefaultTrendingIntervalSeconds  = 60
	DefaultTrendingThreshold        = 60.0
	DefaultTrendingFreshnessDays    = 14
	DefaultRateLimitGlobal          = 100
	DefaultRateLimitFeed            = 60
	DefaultRateLimitInteraction     = 120
)

// Load reads configuration from environment variables and an optional YAML
// file. Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if valid).
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// File values load first so env vars can override them
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	port, err := getEnvIntOrDefaultMulti([]string{"ADAPTIVEFEED_PORT", "PORT"}, k.Int("port"), DefaultPort)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	cacheTTL, err := getEnvIntOrDefault("CANDIDATE_CACHE_TTL_SECONDS", k.Int("candidate_cache_ttl_seconds"), DefaultCandidateCacheTTLSeconds)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	trendingInterval, err := getEnvIntOrDefault("TRENDING_INTERVAL_SECONDS", k.Int("trending_interval_seconds"), DefaultTrendingIntervalSeconds)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	trendingThreshold, err := getEnvFloatOrDefault("TRENDING_THRESHOLD", k.Float64("trending_threshold"), DefaultTrendingThreshold)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	trendingFreshness, err := getEnvIntOrDefault("TRENDING_FRESHNESS_DAYS", k.Int("trending_freshness_days"), DefaultTrendingFreshnessDays)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	rlGlobal, err := getEnvIntOrDefault("RATE_LIMIT_GLOBAL", k.Int("rate_limit_global"), DefaultRateLimitGlobal)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	rlFeed, err := getEnvIntOrDefault("RATE_LIMIT_FEED", k.Int("rate_limit_feed"), DefaultRateLimitFeed)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	rlInteraction, err := getEnvIntOrDefault("RATE_LIMIT_INTERACTION", k.Int("rate_limit_interaction"), DefaultRateLimitInteraction)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}

	cfg := &Config{
		Port:                     port,
		Env:                      getEnvOrDefaultMulti([]string{"ADAPTIVEFEED_ENV", "ENV", "GO_ENV"}, k.String("env"), DefaultEnv),
		DatabaseURL:              getEnvOrKoanf("DATABASE_URL", k, "database_url"),
		RedisAddr:                getEnvOrKoanf("REDIS_ADDR", k, "redis_addr"),
		RedisPassword:            getEnvOrKoanf("REDIS_PASSWORD", k, "redis_password"),
		FirehoseURL:              getEnvOrKoanf("FIREHOSE_URL", k, "firehose_url"),
		CalibrationPath:          getEnvOrKoanf("RANKING_CALIBRATION_PATH", k, "calibration_path"),
		BusinessHoursTZ:          getEnvOrKoanf("FEED_BUSINESS_HOURS_TZ", k, "business_hours_tz"),
		SerendipityEnabled:       getEnvBoolOrKoanf("RANK_SERENDIPITY_ENABLED", k, "rank_serendipity_enabled", true),
		CandidateCacheTTLSeconds: cacheTTL,
		TrendingIntervalSeconds:  trendingInterval,
		TrendingThreshold:        trendingThreshold,
		TrendingFreshnessDays:    trendingFreshness,
		RateLimitGlobal:          rlGlobal,
		RateLimitFeed:            rlFeed,
		RateLimitInteraction:     rlInteraction,
		CORSAllowedOrigins:       getEnvListOrKoanf("CORS_ALLOWED_ORIGINS", k, "cors_allowed_origins"),
		TracingEnabled:           getEnvBoolOrKoanf("TRACING_ENABLED", k, "tracing_enabled", false),
		TracingEndpoint:          getEnvOrKoanf("TRACING_ENDPOINT", k, "tracing_endpoint"),
		ProfilingEnabled:         getEnvBoolOrKoanf("PROFILING_ENABLED", k, "profiling_enabled", false),
	}

	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// IsProduction reports whether the service runs in the production environment.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that all required configuration values are present and in
// range. Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, ErrMissingDatabaseURL)
	}
	if c.FirehoseURL == "" {
		errs = append(errs, ErrMissingFirehoseURL)
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, ErrPortOutOfRange)
	}
	if c.TrendingIntervalSeconds <= 0 {
		errs = append(errs, ErrInvalidTrendingInterval)
	}
	if c.TrendingThreshold < 0 || c.TrendingThreshold > 100 {
		errs = append(errs, ErrInvalidTrendingScore)
	}

	return errs
}

// LogSummary returns a summary of the configuration suitable for logging.
// Credentials are masked to prevent accidental exposure.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                      fmt.Sprintf("%d", c.Port),
		"env":                       c.Env,
		"database_url":              maskDatabaseURL(c.DatabaseURL),
		"redis_addr":                c.RedisAddr,
		"redis_password":            maskSecret(c.RedisPassword),
		"firehose_url":              c.FirehoseURL,
		"calibration_path":          c.CalibrationPath,
		"business_hours_tz":         c.BusinessHoursTZ,
		"rank_serendipity_enabled":  fmt.Sprintf("%t", c.SerendipityEnabled),
		"candidate_cache_ttl":       fmt.Sprintf("%ds", c.CandidateCacheTTLSeconds),
		"trending_interval":         fmt.Sprintf("%ds", c.TrendingIntervalSeconds),
		"trending_threshold":        fmt.Sprintf("%.1f", c.TrendingThreshold),
		"trending_freshness":        fmt.Sprintf("%dd", c.TrendingFreshnessDays),
		"rate_limit_global":         fmt.Sprintf("%d", c.RateLimitGlobal),
		"rate_limit_feed":           fmt.Sprintf("%d", c.RateLimitFeed),
		"rate_limit_interaction":    fmt.Sprintf("%d", c.RateLimitInteraction),
		"cors_allowed_origins":      strings.Join(c.CORSAllowedOrigins, ","),
		"tracing_enabled":           fmt.Sprintf("%t", c.TracingEnabled),
		"tracing_endpoint":          c.TracingEndpoint,
		"profiling_enabled":         fmt.Sprintf("%t", c.ProfilingEnabled),
	}
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvListOrKoanf parses a comma-separated environment variable into a
// slice, falling back to the koanf value.
func getEnvListOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) []string {
	if val := os.Getenv(envKey); val != "" {
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	}
	return k.Strings(koanfKey)
}

// getEnvBoolOrKoanf parses a boolean environment variable, falling back to the
// koanf value, then the default. Accepts true/1/yes/on and false/0/no/off.
func getEnvBoolOrKoanf(envKey string, k *koanf.Koanf, koanfKey string, defaultVal bool) bool {
	if val := os.Getenv(envKey); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	if k.Exists(koanfKey) {
		return k.Bool(koanfKey)
	}
	return defaultVal
}

// getEnvOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first non-empty value found, otherwise the koanf value, or default.
func getEnvOrDefaultMulti(envKeys []string, koanfVal string, defaultVal string) string {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault returns the environment variable as int if set, otherwise
// the koanf value, or default. Returns an error if the environment variable is
// set but cannot be parsed as an integer.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, err)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvIntOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first valid integer value found, otherwise the koanf value, or default.
func getEnvIntOrDefaultMulti(envKeys []string, koanfVal int, defaultVal int) (int, error) {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				return 0, fmt.Errorf("%s must be a valid integer: %w", key, ErrInvalidPort)
			}
			return i, nil
		}
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvFloatOrDefault returns the environment variable as float64 if set,
// otherwise the koanf value, or default.
func getEnvFloatOrDefault(envKey string, koanfVal float64, defaultVal float64) (float64, error) {
	if val := os.Getenv(envKey); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid float: %w", envKey, err)
		}
		return f, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// maskSecret masks a secret value, showing only the first 4 characters.
// Values shorter than 8 characters are fully masked.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}

// maskDatabaseURL masks the password in a database URL.
// Supports both postgres:// and postgresql:// schemes.
func maskDatabaseURL(s string) string {
	if s == "" {
		return "<not set>"
	}

	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return maskSecret(s)
	}

	rest := s[schemeEnd+3:]
	atIndex := strings.Index(rest, "@")
	if atIndex == -1 {
		return s // No credentials in URL
	}

	colonIndex := strings.Index(rest[:atIndex], ":")
	if colonIndex == -1 {
		return s // No password (only username)
	}

	scheme := s[:schemeEnd+3]
	user := rest[:colonIndex]
	hostAndPath := rest[atIndex:]

	return scheme + user + ":****" + hostAndPath
}

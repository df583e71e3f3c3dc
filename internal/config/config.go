package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anime-shed/image-quality-go/internal/quality"

	"github.com/joho/godotenv"
)

type Config struct {
	Host               string
	Port               string
	LogLevel           string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64
	MaxImageBytes      int64

	FetchRetries   int
	FetchBackoff   time.Duration
	FetchCacheSize int64
	FetchCacheTTL  time.Duration

	AzureAccountName string
	AzureAccountKey  string
	AllowLocalFiles  bool
	AllowedHosts     []string

	BatchConcurrency int
	MaxBatchSize     int

	Resampler  quality.Resampler
	Thresholds Thresholds
}

// Thresholds are the minimum scores an image needs to be accepted.
// Zero disables a check.
type Thresholds struct {
	MinQuality    int
	MinResolution int
	MinSharpness  int
	MinExposure   int
	MinColorDepth int
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AzureEnabled reports whether both Azure credentials are present.
func (c *Config) AzureEnabled() bool {
	return c.AzureAccountName != "" && c.AzureAccountKey != ""
}

// LoadFromEnv reads configuration from the environment, after loading a
// .env file from the working directory if one exists.
func LoadFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	resampler, err := quality.ParseResampler(os.Getenv("RESAMPLER"))
	if err != nil {
		return nil, fmt.Errorf("invalid RESAMPLER: %w", err)
	}

	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		AnalysisTimeout:    parseDurationOrDefault("ANALYSIS_TIMEOUT", 20*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
		MaxImageBytes:      parseIntOrDefault("MAX_IMAGE_BYTES", 25*1024*1024),
		FetchRetries:       int(parseIntOrDefault("FETCH_RETRIES", 3)),
		FetchBackoff:       parseDurationOrDefault("FETCH_BACKOFF", time.Second),
		FetchCacheSize:     parseIntOrDefault("FETCH_CACHE_BYTES", 64*1024*1024),
		FetchCacheTTL:      parseDurationOrDefault("FETCH_CACHE_TTL", 10*time.Minute),
		AzureAccountName:   strings.TrimSpace(os.Getenv("AZURE_STORAGE_ACCOUNT")),
		AzureAccountKey:    strings.TrimSpace(os.Getenv("AZURE_STORAGE_KEY")),
		AllowLocalFiles:    parseBoolOrDefault("ALLOW_LOCAL_FILES", false),
		AllowedHosts:       parseListOrDefault("ALLOWED_HOSTS", nil),
		BatchConcurrency:   int(parseIntOrDefault("BATCH_CONCURRENCY", 4)),
		MaxBatchSize:       int(parseIntOrDefault("MAX_BATCH_SIZE", 16)),
		Resampler:          resampler,
		Thresholds: Thresholds{
			MinQuality:    int(parseIntOrDefault("MIN_QUALITY", 0)),
			MinResolution: int(parseIntOrDefault("MIN_RESOLUTION", 0)),
			MinSharpness:  int(parseIntOrDefault("MIN_SHARPNESS", 0)),
			MinExposure:   int(parseIntOrDefault("MIN_EXPOSURE", 0)),
			MinColorDepth: int(parseIntOrDefault("MIN_COLOR_DEPTH", 0)),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and required relationships between fields.
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("MAX_IMAGE_BYTES must be > 0 (got %d)", c.MaxImageBytes)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 || c.AnalysisTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, analysis=%s)",
			c.RequestTimeout, c.ImageFetchTimeout, c.AnalysisTimeout)
	}
	if c.FetchRetries < 1 {
		return fmt.Errorf("FETCH_RETRIES must be >= 1 (got %d)", c.FetchRetries)
	}
	if c.FetchCacheSize < 0 {
		return fmt.Errorf("FETCH_CACHE_BYTES must be >= 0 (got %d)", c.FetchCacheSize)
	}
	if c.BatchConcurrency < 1 || c.MaxBatchSize < 1 {
		return fmt.Errorf("batch limits must be >= 1 (got concurrency=%d, size=%d)",
			c.BatchConcurrency, c.MaxBatchSize)
	}
	for name, v := range map[string]int{
		"MIN_QUALITY":     c.Thresholds.MinQuality,
		"MIN_RESOLUTION":  c.Thresholds.MinResolution,
		"MIN_SHARPNESS":   c.Thresholds.MinSharpness,
		"MIN_EXPOSURE":    c.Thresholds.MinExposure,
		"MIN_COLOR_DEPTH": c.Thresholds.MinColorDepth,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("%s must be within [0,100] (got %d)", name, v)
		}
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

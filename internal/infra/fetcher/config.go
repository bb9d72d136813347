package fetcher

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DetailFetchConfig holds the configuration for detail page fetching.
//
// Security settings:
//   - DenyPrivateIPs: blocks private IP targets (SSRF prevention)
//   - MaxBodySize: caps response reading to prevent memory exhaustion
//   - MaxRedirects: caps redirect chains
//   - Timeout: caps per-request duration
type DetailFetchConfig struct {
	// Enabled controls whether detail page fetching runs at all.
	// When false, listings keep whatever description they already have.
	// Default: true
	Enabled bool

	// Timeout is the maximum duration for a single HTTP request.
	// Default: 10s
	Timeout time.Duration

	// MaxBodySize is the maximum HTTP response body size in bytes.
	// Enforced during reading, not from the Content-Length header.
	// Default: 10485760 (10MB)
	MaxBodySize int64

	// MaxRedirects is the maximum number of redirects to follow.
	// Each redirect target is re-validated for SSRF.
	// Default: 5
	MaxRedirects int

	// MaxDescriptionLength caps the extracted text length in runes.
	// Detail pages can be long; stored descriptions should not be.
	// Default: 2000
	MaxDescriptionLength int

	// DenyPrivateIPs blocks URLs resolving to private, loopback, or
	// link-local addresses. Should always be true in production.
	// Default: true
	DenyPrivateIPs bool
}

// DefaultConfig returns production-ready defaults for detail fetching.
func DefaultConfig() DetailFetchConfig {
	return DetailFetchConfig{
		Enabled:              true,
		Timeout:              10 * time.Second,
		MaxBodySize:          10 * 1024 * 1024, // 10MB
		MaxRedirects:         5,
		MaxDescriptionLength: 2000,
		DenyPrivateIPs:       true,
	}
}

// Validate checks that the configuration values are safe to run with.
func (c *DetailFetchConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}

	minBodySize := int64(1024)              // 1KB
	maxBodySize := int64(100 * 1024 * 1024) // 100MB
	if c.MaxBodySize < minBodySize || c.MaxBodySize > maxBodySize {
		return fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBodySize, maxBodySize, c.MaxBodySize)
	}

	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}

	if c.MaxDescriptionLength < 100 {
		return fmt.Errorf("max description length must be at least 100, got %d", c.MaxDescriptionLength)
	}

	return nil
}

// LoadConfigFromEnv loads configuration from environment variables,
// starting from defaults and validating the result.
//
// Environment variables:
//   - DETAIL_FETCH_ENABLED: "true" or "false" (default: true)
//   - DETAIL_FETCH_TIMEOUT: duration string, e.g., "10s" (default: 10s)
//   - DETAIL_FETCH_MAX_BODY_SIZE: integer in bytes (default: 10485760)
//   - DETAIL_FETCH_MAX_REDIRECTS: integer (default: 5)
//   - DETAIL_FETCH_MAX_DESCRIPTION_LENGTH: integer (default: 2000)
//   - DETAIL_FETCH_DENY_PRIVATE_IPS: "true" or "false" (default: true)
func LoadConfigFromEnv() (DetailFetchConfig, error) {
	cfg := DefaultConfig()

	if val := os.Getenv("DETAIL_FETCH_ENABLED"); val != "" {
		cfg.Enabled = val == "true"
	}

	if val := os.Getenv("DETAIL_FETCH_TIMEOUT"); val != "" {
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid DETAIL_FETCH_TIMEOUT: %v (expected format: '10s', '1m')", err)
		}
		cfg.Timeout = parsed
	}

	if val := os.Getenv("DETAIL_FETCH_MAX_BODY_SIZE"); val != "" {
		parsed, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid DETAIL_FETCH_MAX_BODY_SIZE: %v", err)
		}
		cfg.MaxBodySize = parsed
	}

	if val := os.Getenv("DETAIL_FETCH_MAX_REDIRECTS"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid DETAIL_FETCH_MAX_REDIRECTS: %v", err)
		}
		cfg.MaxRedirects = parsed
	}

	if val := os.Getenv("DETAIL_FETCH_MAX_DESCRIPTION_LENGTH"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid DETAIL_FETCH_MAX_DESCRIPTION_LENGTH: %v", err)
		}
		cfg.MaxDescriptionLength = parsed
	}

	if val := os.Getenv("DETAIL_FETCH_DENY_PRIVATE_IPS"); val != "" {
		cfg.DenyPrivateIPs = val == "true"
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

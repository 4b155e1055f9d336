// Package config provides configuration loading and validation for the server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config represents the server configuration that can be loaded from a JSON
// file. All fields are optional; missing values use defaults or environment
// variables.
type Config struct {
	// Server
	Port int `json:"port,omitempty"` // HTTP listen port

	// Backends
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key

	// Object storage
	StorageEndpoint  string `json:"storage_endpoint,omitempty"`
	StorageBucket    string `json:"storage_bucket,omitempty"`
	StorageAccessKey string `json:"storage_access_key,omitempty"`
	StorageSecretKey string `json:"storage_secret_key,omitempty"`
	StorageUseSSL    bool   `json:"storage_use_ssl,omitempty"`

	// Job processing
	JobWorkers        int `json:"job_workers,omitempty"`         // Concurrent job workers
	JobQueueLen       int `json:"job_queue_len,omitempty"`       // Queue buffer size
	JobTimeoutSeconds int `json:"job_timeout_seconds,omitempty"` // Per-job deadline

	// AllowPendingDuplicates permits queuing a second pending job for the
	// same artifact and kind; only an actively processing job blocks.
	AllowPendingDuplicates bool `json:"allow_pending_duplicates,omitempty"`
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv fills empty fields from environment variables. Environment values
// only apply where the file (or flags) left a field unset.
func (c *Config) FromEnv() {
	if c.Port == 0 {
		if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
			c.Port = port
		}
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.StorageEndpoint == "" {
		c.StorageEndpoint = os.Getenv("STORAGE_ENDPOINT")
	}
	if c.StorageBucket == "" {
		c.StorageBucket = os.Getenv("STORAGE_BUCKET")
	}
	if c.StorageAccessKey == "" {
		c.StorageAccessKey = os.Getenv("STORAGE_ACCESS_KEY")
	}
	if c.StorageSecretKey == "" {
		c.StorageSecretKey = os.Getenv("STORAGE_SECRET_KEY")
	}
	if !c.StorageUseSSL && os.Getenv("STORAGE_USE_SSL") == "true" {
		c.StorageUseSSL = true
	}
	if !c.AllowPendingDuplicates && os.Getenv("ALLOW_PENDING_DUPLICATES") == "true" {
		c.AllowPendingDuplicates = true
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config error: 'database_url' is required (or set DATABASE_URL)")
	}
	if c.APIKey == "" {
		return fmt.Errorf("config error: 'api_key' is required (or set GEMINI_API_KEY)")
	}
	if c.StorageEndpoint == "" {
		return fmt.Errorf("config error: 'storage_endpoint' is required (or set STORAGE_ENDPOINT)")
	}
	if c.StorageBucket == "" {
		return fmt.Errorf("config error: 'storage_bucket' is required (or set STORAGE_BUCKET)")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.JobWorkers < 0 {
		return fmt.Errorf("config error: 'job_workers' must be non-negative")
	}
	if c.JobQueueLen < 0 {
		return fmt.Errorf("config error: 'job_queue_len' must be non-negative")
	}
	if c.JobTimeoutSeconds < 0 {
		return fmt.Errorf("config error: 'job_timeout_seconds' must be non-negative")
	}
	return nil
}

// JobTimeout returns the per-job deadline as a duration, zero when unset.
func (c *Config) JobTimeout() time.Duration {
	return time.Duration(c.JobTimeoutSeconds) * time.Second
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. This is used to apply config file values as defaults for CLI
// flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.StorageEndpoint == "" {
		result.StorageEndpoint = defaults.StorageEndpoint
	}
	if result.StorageBucket == "" {
		result.StorageBucket = defaults.StorageBucket
	}
	if result.StorageAccessKey == "" {
		result.StorageAccessKey = defaults.StorageAccessKey
	}
	if result.StorageSecretKey == "" {
		result.StorageSecretKey = defaults.StorageSecretKey
	}
	if result.JobWorkers == 0 {
		result.JobWorkers = defaults.JobWorkers
	}
	if result.JobQueueLen == 0 {
		result.JobQueueLen = defaults.JobQueueLen
	}
	if result.JobTimeoutSeconds == 0 {
		result.JobTimeoutSeconds = defaults.JobTimeoutSeconds
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

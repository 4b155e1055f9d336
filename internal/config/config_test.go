package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ValidJSON(t *testing.T) {
	// Create temp config file
	content := `{
		"port": 8081,
		"database_url": "postgres://localhost/talent",
		"storage_bucket": "artifacts",
		"job_workers": 4,
		"allow_pending_duplicates": true
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, "postgres://localhost/talent", cfg.DatabaseURL)
	assert.Equal(t, "artifacts", cfg.StorageBucket)
	assert.Equal(t, 4, cfg.JobWorkers)
	assert.True(t, cfg.AllowPendingDuplicates)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	content := `{ invalid json }`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestValidate_MissingRequired(t *testing.T) {
	cfg := &Config{}

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database_url")
}

func TestValidate_NegativeValues(t *testing.T) {
	cfg := &Config{
		DatabaseURL:     "postgres://localhost/talent",
		APIKey:          "key",
		StorageEndpoint: "localhost:9000",
		StorageBucket:   "artifacts",
		JobWorkers:      -1,
	}

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "job_workers")
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := &Config{
		Port:            8080,
		DatabaseURL:     "postgres://localhost/talent",
		APIKey:          "key",
		StorageEndpoint: "localhost:9000",
		StorageBucket:   "artifacts",
	}

	err := cfg.Validate()
	assert.NoError(t, err)
}

func TestFromEnv_FillsEmptyFieldsOnly(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/talent")
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("STORAGE_USE_SSL", "true")

	cfg := &Config{DatabaseURL: "postgres://file/talent"}
	cfg.FromEnv()

	// File value wins where set
	assert.Equal(t, "postgres://file/talent", cfg.DatabaseURL)
	// Env fills where empty
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.True(t, cfg.StorageUseSSL)
}

func TestJobTimeout(t *testing.T) {
	cfg := &Config{JobTimeoutSeconds: 120}
	assert.Equal(t, 2*time.Minute, cfg.JobTimeout())

	assert.Zero(t, (&Config{}).JobTimeout())
}

func TestMergeWithDefaults(t *testing.T) {
	defaults := Config{
		Port:          8080,
		DatabaseURL:   "postgres://localhost/talent",
		StorageBucket: "artifacts",
		JobWorkers:    2,
		JobQueueLen:   64,
	}

	partial := Config{
		Port:   9090,
		APIKey: "custom-key",
	}

	merged := partial.MergeWithDefaults(defaults)

	// Custom values should be preserved
	assert.Equal(t, 9090, merged.Port)
	assert.Equal(t, "custom-key", merged.APIKey)

	// Default values should fill in empty fields
	assert.Equal(t, "postgres://localhost/talent", merged.DatabaseURL)
	assert.Equal(t, "artifacts", merged.StorageBucket)
	assert.Equal(t, 2, merged.JobWorkers)
	assert.Equal(t, 64, merged.JobQueueLen)
}

func TestMergeWithDefaults_EmptyDefaults(t *testing.T) {
	cfg := Config{
		Port:   8080,
		APIKey: "key",
	}

	merged := cfg.MergeWithDefaults(Config{})

	assert.Equal(t, 8080, merged.Port)
	assert.Equal(t, "key", merged.APIKey)
}

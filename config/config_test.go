package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/indexfeed/document"
)

func validConfig() *Config {
	return &Config{
		ESHost:    "https://search.example.com:9200",
		AWSRegion: "us-east-1",
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("ES_HOST", "https://search.example.com:9200/")
	t.Setenv("ES_USERNAME", "indexer")
	t.Setenv("ES_PASSWORD", "secret")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("SYSTEM_META_KEY", "custom")
	t.Setenv("BULK_RATE_LIMIT", "2.5")
	t.Setenv("INDEXFEED_WORKERS", "8")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://search.example.com:9200", cfg.ESHost)
	assert.Equal(t, "indexer", cfg.ESUsername)
	assert.Equal(t, "eu-west-1", cfg.AWSRegion)
	assert.Equal(t, "custom", cfg.SystemMetaKey)
	assert.Equal(t, 2.5, cfg.BulkRateLimit)
	assert.Equal(t, 8, cfg.Workers)
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("ES_HOST", "http://localhost:9200")
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("SYSTEM_META_KEY", "")
	t.Setenv("BULK_RATE_LIMIT", "")
	t.Setenv("INDEXFEED_WORKERS", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, document.DefaultSystemMetaKey, cfg.SystemMetaKey)
	assert.Zero(t, cfg.BulkRateLimit)
	assert.Equal(t, 4, cfg.Workers)
}

func TestFromEnvBadRateLimit(t *testing.T) {
	t.Setenv("BULK_RATE_LIMIT", "lots")
	_, err := FromEnv()
	require.Error(t, err)
}

func TestValidateMissingHost(t *testing.T) {
	cfg := validConfig()
	cfg.ESHost = ""
	require.Error(t, cfg.Validate())
}

func TestValidateSchemelessHost(t *testing.T) {
	cfg := validConfig()
	cfg.ESHost = "search.example.com:9200"
	require.Error(t, cfg.Validate())
}

func TestValidateMissingRegion(t *testing.T) {
	cfg := validConfig()
	cfg.AWSRegion = ""
	require.Error(t, cfg.Validate())
}

func TestValidateLopsidedCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.ESUsername = "indexer"
	require.Error(t, cfg.Validate())
}

func TestValidateNegativeRateLimit(t *testing.T) {
	cfg := validConfig()
	cfg.BulkRateLimit = -1
	require.Error(t, cfg.Validate())
}

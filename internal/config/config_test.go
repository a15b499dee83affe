package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chronoverse/chronoverse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "8080"
  allowed_origins: "*"
  environment: "development"
  log_level: "INFO"
experiment:
  mode: "ab"
  primary_model: "openai:gpt-5-mini"
  secondary_model: "anthropic:claude-3-5-haiku-latest"
  ab_split_pct: 30
budget:
  daily_limit_usd: 1.25
providers:
  OpenAI:
    api_key: "sk-test"
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, models.ExperimentAB, cfg.Experiment.Mode)
	assert.Equal(t, 30, cfg.Experiment.ABSplitPct)
	assert.Equal(t, 1.25, cfg.Budget.DailyLimitUSD)

	// Provider keys are normalized to lowercase
	provider, exists := cfg.GetProviderConfig("openai")
	require.True(t, exists)
	assert.Equal(t, "sk-test", provider.APIKey)

	assert.Equal(t, "info", cfg.GetNormalizedLogLevel())
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromFileDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "8080"
  allowed_origins: "*"
experiment:
  primary_model: "openai:gpt-5-mini"
providers:
  openai:
    api_key: "sk-test"
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, models.ExperimentSingle, cfg.Experiment.Mode)
	assert.Equal(t, defaultABSplitPct, cfg.Experiment.ABSplitPct)
	assert.Equal(t, defaultDailyLimitUSD, cfg.Budget.DailyLimitUSD)
	assert.Equal(t, defaultUserPerMinute, cfg.RateLimit.UserPerMinute)
	assert.Equal(t, defaultIPPerMinute, cfg.RateLimit.IPPerMinute)
	assert.Equal(t, models.CacheBackendMemory, cfg.Cache.Backend)
	assert.Equal(t, defaultCacheTTLSeconds, cfg.Cache.TTLSeconds)
	assert.Equal(t, int64(defaultMaxOutputTokens), cfg.Generation.MaxOutputTokens)
	assert.Equal(t, defaultVerbosity, cfg.Generation.Verbosity)
}

func TestEnvVarSubstitution(t *testing.T) {
	t.Setenv("CV_TEST_API_KEY", "sk-from-env")

	path := writeConfig(t, `
server:
  port: "${CV_TEST_PORT:-9090}"
  allowed_origins: "*"
experiment:
  primary_model: "openai:gpt-5-mini"
providers:
  openai:
    api_key: "${CV_TEST_API_KEY}"
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	provider, _ := cfg.GetProviderConfig("openai")
	assert.Equal(t, "sk-from-env", provider.APIKey)
}

func TestLoadFromFileRejectsBadPaths(t *testing.T) {
	_, err := LoadFromFile("../../etc/passwd.yaml")
	assert.Error(t, err)

	_, err = LoadFromFile("config.json")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	err := cfg.Validate()
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.MissingFields, "server.port")
	assert.Contains(t, vErr.MissingFields, "experiment.primary_model")
	assert.Contains(t, vErr.MissingFields, "providers")
}

func TestValidateABRequiresSecondary(t *testing.T) {
	cfg := &Config{
		Server:     models.ServerConfig{Port: "8080", AllowedOrigins: "*"},
		Experiment: models.ExperimentConfig{Mode: models.ExperimentAB, PrimaryModel: "openai:gpt-5-mini"},
		Providers:  map[string]models.ProviderConfig{"openai": {APIKey: "sk"}},
	}
	cfg.applyDefaults()

	err := cfg.Validate()
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, []string{"experiment.secondary_model"}, vErr.MissingFields)
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/chronoverse/chronoverse/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultABSplitPct      = 20
	defaultDailyLimitUSD   = 0.5
	defaultUserPerMinute   = 6
	defaultIPPerMinute     = 60
	defaultCacheTTLSeconds = 75
	defaultLockWaitMs      = 10_000
	defaultLockLeaseMs     = 20_000
	defaultMaxOutputTokens = 500
	defaultTemperature     = 0.8
	defaultVerbosity       = "low"
	defaultReasoningEffort = "minimal"
)

// ModelPrice overrides the built-in pricing table for one model.
// Values are USD per million tokens.
type ModelPrice struct {
	Prompt     float64 `yaml:"prompt" json:"prompt"`
	Completion float64 `yaml:"completion" json:"completion"`
}

// Config represents the complete application configuration
type Config struct {
	Server     models.ServerConfig              `yaml:"server"`
	Experiment models.ExperimentConfig          `yaml:"experiment"`
	Budget     models.BudgetConfig              `yaml:"budget"`
	RateLimit  models.RateLimitConfig           `yaml:"rate_limit"`
	Cache      models.CacheConfig               `yaml:"cache"`
	Generation models.GenerationConfig          `yaml:"generation"`
	Providers  map[string]models.ProviderConfig `yaml:"providers"`
	Database   *models.DatabaseConfig           `yaml:"database,omitempty"`
	Pricing    map[string]ModelPrice            `yaml:"pricing,omitempty"`
}

// LoadFromFile loads configuration from a YAML file with environment variable substitution
func LoadFromFile(configPath string) (*Config, error) {
	// Validate and clean the file path to prevent directory traversal
	cleanPath := filepath.Clean(configPath)

	if strings.Contains(cleanPath, "..") {
		return nil, fmt.Errorf("invalid config path: path traversal not allowed")
	}

	ext := filepath.Ext(cleanPath)
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("invalid config file: only .yaml and .yml files are allowed")
	}

	data, err := os.ReadFile(cleanPath) // #nosec G304 - path is validated above
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", cleanPath, err)
	}

	content := substituteEnvVars(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// Normalize provider map keys to lowercase for case-insensitive lookups
	if config.Providers != nil {
		normalized := make(map[string]models.ProviderConfig, len(config.Providers))
		for key, value := range config.Providers {
			normalized[strings.ToLower(key)] = value
		}
		config.Providers = normalized
	}

	config.applyDefaults()

	return &config, nil
}

// New creates a new Config instance by loading from the specified config file path
func New(configPath string) (*Config, error) {
	return LoadFromFile(configPath)
}

// LoadEnvFiles loads environment variables from .env files in order of precedence
// Loads files in the order provided (first has highest priority)
func LoadEnvFiles(envFiles []string) {
	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err == nil {
				fmt.Printf("Loaded environment variables from %s\n", envFile)
			}
		}
	}
}

// substituteEnvVars replaces ${VAR_NAME} and ${VAR_NAME:-default} patterns with environment variables
func substituteEnvVars(content string) string {
	re := regexp.MustCompile(`\$\{([^}:]+)(?::(-[^}]*))?\}`)

	return re.ReplaceAllStringFunc(content, func(match string) string {
		submatches := re.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		defaultValue := ""

		if len(submatches) > 2 && submatches[2] != "" {
			defaultValue = strings.TrimPrefix(submatches[2], "-")
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}

func (c *Config) applyDefaults() {
	if c.Experiment.Mode == "" {
		c.Experiment.Mode = models.ExperimentSingle
	}
	if c.Experiment.ABSplitPct <= 0 || c.Experiment.ABSplitPct > 100 {
		c.Experiment.ABSplitPct = defaultABSplitPct
	}
	if c.Budget.DailyLimitUSD <= 0 {
		c.Budget.DailyLimitUSD = defaultDailyLimitUSD
	}
	if c.RateLimit.UserPerMinute <= 0 {
		c.RateLimit.UserPerMinute = defaultUserPerMinute
	}
	if c.RateLimit.IPPerMinute <= 0 {
		c.RateLimit.IPPerMinute = defaultIPPerMinute
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = models.CacheBackendMemory
	}
	if c.Cache.TTLSeconds <= 0 {
		c.Cache.TTLSeconds = defaultCacheTTLSeconds
	}
	if c.Cache.LockWaitMs <= 0 {
		c.Cache.LockWaitMs = defaultLockWaitMs
	}
	if c.Cache.LockLeaseMs <= 0 {
		c.Cache.LockLeaseMs = defaultLockLeaseMs
	}
	if c.Generation.MaxOutputTokens <= 0 {
		c.Generation.MaxOutputTokens = defaultMaxOutputTokens
	}
	if c.Generation.Temperature <= 0 {
		c.Generation.Temperature = defaultTemperature
	}
	if c.Generation.Verbosity == "" {
		c.Generation.Verbosity = defaultVerbosity
	}
	if c.Generation.ReasoningEffort == "" {
		c.Generation.ReasoningEffort = defaultReasoningEffort
	}
}

// GetProviderConfig returns the configuration for a specific provider
func (c *Config) GetProviderConfig(provider string) (models.ProviderConfig, bool) {
	cfg, exists := c.Providers[strings.ToLower(provider)]
	return cfg, exists
}

// GetNormalizedLogLevel returns the log level in lowercase for consistent comparison
func (c *Config) GetNormalizedLogLevel() string {
	return strings.ToLower(c.Server.LogLevel)
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Validate checks if all required configuration values are set
func (c *Config) Validate() error {
	var missing []string

	if c.Server.Port == "" {
		missing = append(missing, "server.port")
	}
	if c.Server.AllowedOrigins == "" {
		missing = append(missing, "server.allowed_origins")
	}
	if c.Experiment.PrimaryModel == "" {
		missing = append(missing, "experiment.primary_model")
	}
	if len(c.Providers) == 0 {
		missing = append(missing, "providers")
	}
	if c.Experiment.Mode == models.ExperimentAB && c.Experiment.SecondaryModel == "" {
		missing = append(missing, "experiment.secondary_model")
	}
	if c.Experiment.Mode == models.ExperimentShadow && len(c.Experiment.ShadowTargets) == 0 {
		missing = append(missing, "experiment.shadow_targets")
	}

	if len(missing) > 0 {
		return &ValidationError{MissingFields: missing}
	}

	return nil
}

// ValidationError represents configuration validation errors
type ValidationError struct {
	MissingFields []string
}

func (e *ValidationError) Error() string {
	return "missing required configuration fields: " + strings.Join(e.MissingFields, ", ")
}

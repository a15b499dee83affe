package models

// ProviderConfig holds connection settings for one LLM provider
type ProviderConfig struct {
	APIKey    string            `yaml:"api_key" json:"api_key"`
	BaseURL   string            `yaml:"base_url,omitempty" json:"base_url,omitzero"`
	TimeoutMs int               `yaml:"timeout_ms,omitempty" json:"timeout_ms,omitzero"`
	Headers   map[string]string `yaml:"headers,omitempty" json:"headers,omitzero"`
}

// GenerationConfig holds the model-call knobs shared by all adapters.
// Temperature only applies to non-reasoning model families; verbosity
// and reasoning effort only to reasoning-class families.
type GenerationConfig struct {
	MaxOutputTokens int64   `yaml:"max_output_tokens,omitempty" json:"max_output_tokens,omitzero"`
	Temperature     float64 `yaml:"temperature,omitempty" json:"temperature,omitzero"`
	Verbosity       string  `yaml:"verbosity,omitempty" json:"verbosity,omitzero"`
	ReasoningEffort string  `yaml:"reasoning_effort,omitempty" json:"reasoning_effort,omitzero"`
}

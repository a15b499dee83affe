package models

// ServerConfig holds the HTTP server settings
type ServerConfig struct {
	Port           string `yaml:"port" json:"port"`
	AllowedOrigins string `yaml:"allowed_origins" json:"allowed_origins"`
	Environment    string `yaml:"environment" json:"environment"`
	LogLevel       string `yaml:"log_level" json:"log_level"`
}

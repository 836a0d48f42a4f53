// Package config loads the YAML configuration that wires the ACE
// components together: LLM provider, per-role model settings, playbook
// bounds, persistence and logging.
package config

import (
	"os"
	"regexp"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/XiaoConstantine/ace-go/pkg/errors"
)

// Config is the root configuration document.
type Config struct {
	Provider ProviderConfig `yaml:"llm_provider"`
	Models   ModelsConfig   `yaml:"models"`
	ACE      ACEConfig      `yaml:"ace"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
	MCP      MCPConfig      `yaml:"mcp"`
}

// ProviderConfig selects and configures the LLM backend.
type ProviderConfig struct {
	Type      string          `yaml:"type" validate:"required,oneof=anthropic mock"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
}

// AnthropicConfig holds Anthropic API settings. APIKey supports
// ${VAR} environment substitution.
type AnthropicConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`
}

// ModelConfig tunes one model role.
type ModelConfig struct {
	Model       string  `yaml:"model" validate:"required"`
	Temperature float64 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `yaml:"max_tokens" validate:"gt=0"`
}

// ModelsConfig assigns a model to each of the three roles.
type ModelsConfig struct {
	Generator ModelConfig `yaml:"generator"`
	Reflector ModelConfig `yaml:"reflector"`
	Curator   ModelConfig `yaml:"curator"`
}

// ACEConfig bounds the playbook and the adaptation loops.
type ACEConfig struct {
	MaxReflectorRounds   int     `yaml:"max_reflector_rounds" validate:"gte=1"`
	MaxEpochs            int     `yaml:"max_epochs" validate:"gte=1"`
	MaxPlaybookBullets   int     `yaml:"max_playbook_bullets" validate:"gt=0"`
	SimilarityThreshold  float64 `yaml:"similarity_threshold" validate:"gt=0,lte=1"`
	MaxRetrievedBullets  int     `yaml:"max_retrieved_bullets" validate:"gt=0"`
	MinBulletHelpfulness int     `yaml:"min_bullet_helpfulness" validate:"gte=0"`
}

// StorageConfig selects where the playbook snapshot is persisted.
type StorageConfig struct {
	// Backend is "file" for a JSON snapshot or "sqlite" for a
	// database-backed snapshot.
	Backend string `yaml:"backend" validate:"required,oneof=file sqlite"`
	Path    string `yaml:"path" validate:"required"`
}

// LoggingConfig sets the log level and optional log file.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR FATAL"`
	File  string `yaml:"file"`
}

// MCPServerConfig describes one MCP server to launch over stdio.
type MCPServerConfig struct {
	Command string   `yaml:"command" validate:"required"`
	Args    []string `yaml:"args"`
}

// MCPConfig enables tool use via MCP servers.
type MCPConfig struct {
	Enabled bool                       `yaml:"enabled"`
	Servers map[string]MCPServerConfig `yaml:"servers"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		// An empty APIKey defers to the ANTHROPIC_API_KEY environment
		// variable at client construction.
		Provider: ProviderConfig{
			Type: "anthropic",
		},
		Models: ModelsConfig{
			Generator: ModelConfig{Model: "claude-sonnet-4-5", Temperature: 0.7, MaxTokens: 4096},
			Reflector: ModelConfig{Model: "claude-sonnet-4-5", Temperature: 0.3, MaxTokens: 4096},
			Curator:   ModelConfig{Model: "claude-sonnet-4-5", Temperature: 0.2, MaxTokens: 4096},
		},
		ACE: ACEConfig{
			MaxReflectorRounds:   3,
			MaxEpochs:            5,
			MaxPlaybookBullets:   1000,
			SimilarityThreshold:  0.8,
			MaxRetrievedBullets:  10,
			MinBulletHelpfulness: 0,
		},
		Storage: StorageConfig{
			Backend: "file",
			Path:    "playbook.json",
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// substituteEnvVars replaces ${VAR} references with the environment
// value, leaving the reference intact when the variable is unset.
func substituteEnvVars(raw string) string {
	return envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		name := match[2 : len(match)-1]
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return match
	})
}

// Load reads, substitutes and validates a configuration file. The
// defaults fill any section the file omits. A missing file is not an
// error: the defaults are returned as-is.
func Load(path string) (Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return Config{}, errors.Wrap(err, errors.InvalidInput, "failed to read config file")
	}

	if err := yaml.Unmarshal([]byte(substituteEnvVars(string(data))), &config); err != nil {
		return Config{}, errors.WithFields(
			errors.Wrap(err, errors.InvalidInput, "failed to parse config file"),
			errors.Fields{"path": path},
		)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks the configuration against its declared constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, errors.ValidationFailed, "invalid configuration")
	}
	return nil
}

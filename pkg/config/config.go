// Package config provides configuration loading, validation and the static model registry.
//
// Configuration is read once at startup from a JSON or YAML file (chosen by extension) and
// passed by value to the components that need it. Credentials never live in the file; they
// are read from the environment through GetAPIKey.
//
//	cfg, err := config.Load("autodev.yaml")
//	key, err := config.GetAPIKey(config.ProviderOpenAI)
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"autodev/pkg/logx"
)

//nolint:gochecknoglobals // Package logger for config operations.
var logger *logx.Logger

func getLogger() *logx.Logger {
	if logger == nil {
		logger = logx.NewLogger("config")
	}
	return logger
}

const (
	// Provider constants.
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
	ProviderOllama    = "ollama"

	// API key environment variable names.
	EnvOpenAIAPIKey       = "OPENAI_API_KEY"
	EnvOpenAIAPIKeyLegacy = "OPEN_AI_KEY"
	EnvOpenAIOrg          = "OPENAI_ORG_ID"
	EnvOpenAIOrgLegacy    = "OPEN_AI_ORG"
	EnvAnthropicAPIKey    = "ANTHROPIC_API_KEY"
	EnvGoogleAPIKey       = "GEMINI_API_KEY"
	EnvOllamaHost         = "OLLAMA_HOST"

	// DefaultOllamaHost is used when OLLAMA_HOST is not set.
	DefaultOllamaHost = "http://localhost:11434"
)

// Defaults for values the configuration file may omit.
const (
	DefaultModel             = "gpt-4"
	DefaultTemperature       = 0.1
	DefaultMaxTokens         = 2048
	DefaultLLMTimeout        = 120 * time.Second
	DefaultMaxDecodeAttempts = 3
	DefaultMaxIterations     = 10
	DefaultProbeTimeout      = 5 * time.Second
	DefaultProbeConcurrency  = 1
	DefaultMetricsAddr       = ":9090"
	DefaultLogDir            = ".autodev/logs"
	DefaultLogMaxSizeMB      = 10
)

// ModelInfo contains static information about a known LLM model.
type ModelInfo struct {
	Provider         string  // API provider (anthropic, openai, google, ollama)
	InputCPM         float64 // Cost per million input tokens (USD)
	OutputCPM        float64 // Cost per million output tokens (USD)
	MaxContextTokens int     // Maximum context window size in tokens
	MaxOutputTokens  int     // Maximum output tokens per request
}

// KnownModels registry contains pricing and provider information for common models.
// Unknown models are inferred via ProviderPatterns.
//
//nolint:gochecknoglobals // Static model registry.
var KnownModels = map[string]ModelInfo{
	"gpt-4": {
		Provider:         ProviderOpenAI,
		InputCPM:         30.0,
		OutputCPM:        60.0,
		MaxContextTokens: 8192,
		MaxOutputTokens:  4096,
	},
	"gpt-4o": {
		Provider:         ProviderOpenAI,
		InputCPM:         2.5,
		OutputCPM:        10.0,
		MaxContextTokens: 128000,
		MaxOutputTokens:  16384,
	},
	"gpt-4o-mini": {
		Provider:         ProviderOpenAI,
		InputCPM:         0.15,
		OutputCPM:        0.6,
		MaxContextTokens: 128000,
		MaxOutputTokens:  16384,
	},
	"gpt-4.1": {
		Provider:         ProviderOpenAI,
		InputCPM:         2.0,
		OutputCPM:        8.0,
		MaxContextTokens: 1047576,
		MaxOutputTokens:  32768,
	},
	"claude-sonnet-4-5": {
		Provider:         ProviderAnthropic,
		InputCPM:         3.0,
		OutputCPM:        15.0,
		MaxContextTokens: 200000,
		MaxOutputTokens:  8192,
	},
	"claude-3-7-sonnet-20250219": {
		Provider:         ProviderAnthropic,
		InputCPM:         3.0,
		OutputCPM:        15.0,
		MaxContextTokens: 200000,
		MaxOutputTokens:  8192,
	},
	"gemini-2.0-flash": {
		Provider:         ProviderGoogle,
		InputCPM:         0.10,
		OutputCPM:        0.40,
		MaxContextTokens: 1048576,
		MaxOutputTokens:  8192,
	},
	"gemini-2.5-flash": {
		Provider:         ProviderGoogle,
		InputCPM:         0.30,
		OutputCPM:        2.50,
		MaxContextTokens: 1048576,
		MaxOutputTokens:  65536,
	},
}

// ProviderPattern represents a pattern for inferring provider from model name.
type ProviderPattern struct {
	Prefix   string
	Provider string
}

// ProviderPatterns defines rules for inferring providers from unknown model names.
//
//nolint:gochecknoglobals // Intentional global for inference rules
var ProviderPatterns = []ProviderPattern{
	{"claude", ProviderAnthropic},
	{"gpt", ProviderOpenAI},
	{"o1", ProviderOpenAI},
	{"o3", ProviderOpenAI},
	{"o4", ProviderOpenAI},
	{"gemini", ProviderGoogle},
	{"phi", ProviderOllama},
	{"llama", ProviderOllama},
	{"qwen", ProviderOllama},
	{"mistral", ProviderOllama},
	{"deepseek", ProviderOllama},
	{"ollama:", ProviderOllama}, // Explicit prefix like "ollama:phi4"
}

// GetModelProvider returns the API provider for a given model.
// First checks KnownModels, then tries pattern matching.
func GetModelProvider(modelName string) (string, error) {
	if info, exists := KnownModels[modelName]; exists {
		return info.Provider, nil
	}
	for i := range ProviderPatterns {
		if strings.HasPrefix(modelName, ProviderPatterns[i].Prefix) {
			return ProviderPatterns[i].Provider, nil
		}
	}
	return "", fmt.Errorf("unknown model '%s': no known provider mapping or pattern match", modelName)
}

// CalculateCost calculates the cost in USD for a given model and token usage.
// Unknown models cost 0 so new models can be used without pricing data.
func CalculateCost(modelName string, promptTokens, completionTokens int) float64 {
	info, exists := KnownModels[modelName]
	if !exists {
		return 0
	}
	inputCost := (float64(promptTokens) / 1_000_000.0) * info.InputCPM
	outputCost := (float64(completionTokens) / 1_000_000.0) * info.OutputCPM
	return inputCost + outputCost
}

// GetAPIKey returns the API key for a given provider from the environment.
// For Ollama, returns the host URL instead of an API key.
func GetAPIKey(provider string) (string, error) {
	var envVars []string
	switch provider {
	case ProviderOpenAI:
		envVars = []string{EnvOpenAIAPIKey, EnvOpenAIAPIKeyLegacy}
	case ProviderAnthropic:
		envVars = []string{EnvAnthropicAPIKey}
	case ProviderGoogle:
		envVars = []string{EnvGoogleAPIKey}
	case ProviderOllama:
		if host := os.Getenv(EnvOllamaHost); host != "" {
			return host, nil
		}
		return DefaultOllamaHost, nil
	default:
		return "", fmt.Errorf("unknown provider: %s", provider)
	}

	for _, name := range envVars {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			return key, nil
		}
	}
	return "", fmt.Errorf("API key not found: set %s", strings.Join(envVars, " or "))
}

// GetOpenAIOrganization returns the OpenAI organisation id, or "" when none is configured.
func GetOpenAIOrganization() string {
	for _, name := range []string{EnvOpenAIOrg, EnvOpenAIOrgLegacy} {
		if org := strings.TrimSpace(os.Getenv(name)); org != "" {
			return org
		}
	}
	return ""
}

// LLMConfig configures the gateway used by every agent.
type LLMConfig struct {
	Model       string   `json:"model" yaml:"model"`
	BaseURL     string   `json:"base_url,omitempty" yaml:"base_url,omitempty"` // Optional endpoint override
	Timeout     Duration `json:"timeout" yaml:"timeout"`                       // Per-call deadline
	MaxTokens   int      `json:"max_tokens" yaml:"max_tokens"`
	Temperature float32  `json:"temperature" yaml:"temperature"`
}

// AgentsConfig bounds the agent loop and the task request protocol.
type AgentsConfig struct {
	MaxDecodeAttempts int `json:"max_decode_attempts" yaml:"max_decode_attempts"` // Round trips per task before giving up
	MaxIterations     int `json:"max_iterations" yaml:"max_iterations"`           // State-machine steps per Execute
}

// ValidatorConfig configures URL probing.
type ValidatorConfig struct {
	Timeout     Duration `json:"timeout" yaml:"timeout"`
	Concurrency int      `json:"concurrency" yaml:"concurrency"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Addr    string `json:"addr" yaml:"addr"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// LoggingConfig configures the rotating log file.
type LoggingConfig struct {
	Dir       string `json:"dir" yaml:"dir"`
	MaxSizeMB int    `json:"max_size_mb" yaml:"max_size_mb"`
	Tee       bool   `json:"tee" yaml:"tee"`
	Debug     bool   `json:"debug" yaml:"debug"`

	// DebugDomains limits debug output to these domains (e.g. "taskrequest", "validator").
	DebugDomains []string `json:"debug_domains,omitempty" yaml:"debug_domains,omitempty"`
}

// Config is the complete runtime configuration.
type Config struct {
	LLM       LLMConfig       `json:"llm" yaml:"llm"`
	Agents    AgentsConfig    `json:"agents" yaml:"agents"`
	Validator ValidatorConfig `json:"validator" yaml:"validator"`
	Metrics   MetricsConfig   `json:"metrics" yaml:"metrics"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
}

// Default returns a configuration with every default applied.
func Default() Config {
	var cfg Config
	applyDefaults(&cfg)
	return cfg
}

// applyDefaults fills in zero values. Temperature is left alone when a model is set,
// since 0 is a legitimate temperature.
func applyDefaults(cfg *Config) {
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultModel
		if cfg.LLM.Temperature == 0 {
			cfg.LLM.Temperature = DefaultTemperature
		}
	}
	if cfg.LLM.MaxTokens <= 0 {
		cfg.LLM.MaxTokens = DefaultMaxTokens
	}
	if cfg.LLM.Timeout.Duration() <= 0 {
		cfg.LLM.Timeout = Duration(DefaultLLMTimeout)
	}
	if cfg.Agents.MaxDecodeAttempts <= 0 {
		cfg.Agents.MaxDecodeAttempts = DefaultMaxDecodeAttempts
	}
	if cfg.Agents.MaxIterations <= 0 {
		cfg.Agents.MaxIterations = DefaultMaxIterations
	}
	if cfg.Validator.Timeout.Duration() <= 0 {
		cfg.Validator.Timeout = Duration(DefaultProbeTimeout)
	}
	if cfg.Validator.Concurrency <= 0 {
		cfg.Validator.Concurrency = DefaultProbeConcurrency
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = DefaultMetricsAddr
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = DefaultLogDir
	}
	if cfg.Logging.MaxSizeMB <= 0 {
		cfg.Logging.MaxSizeMB = DefaultLogMaxSizeMB
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if _, err := GetModelProvider(c.LLM.Model); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("%w: temperature must be between 0.0 and 2.0, got %.2f", ErrInvalidConfig, c.LLM.Temperature)
	}
	if c.Agents.MaxDecodeAttempts > 10 {
		return fmt.Errorf("%w: max_decode_attempts must be at most 10, got %d", ErrInvalidConfig, c.Agents.MaxDecodeAttempts)
	}
	if c.Validator.Concurrency > 32 {
		return fmt.Errorf("%w: validator concurrency must be at most 32, got %d", ErrInvalidConfig, c.Validator.Concurrency)
	}
	return nil
}

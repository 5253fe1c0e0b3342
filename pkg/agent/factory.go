package agent

import (
	"fmt"

	"autodev/pkg/agent/internal/llmimpl/anthropic"
	"autodev/pkg/agent/internal/llmimpl/google"
	"autodev/pkg/agent/internal/llmimpl/ollama"
	"autodev/pkg/agent/internal/llmimpl/openaiofficial"
	"autodev/pkg/agent/llm"
	"autodev/pkg/agent/middleware/logging"
	"autodev/pkg/agent/middleware/metrics"
	"autodev/pkg/agent/middleware/resilience/timeout"
	"autodev/pkg/config"
	"autodev/pkg/logx"
)

// LLMClientFactory creates LLM clients with properly configured middleware chains.
type LLMClientFactory struct {
	config          config.LLMConfig
	clientConfig    llm.LLMConfig
	metricsRecorder metrics.Recorder
	provider        string
}

// NewLLMClientFactory resolves the provider and credentials for cfg.Model.
// A missing API key is reported here so the CLI fails before any agent runs.
func NewLLMClientFactory(cfg config.LLMConfig, recorder metrics.Recorder) (*LLMClientFactory, error) {
	provider, err := config.GetModelProvider(cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to determine provider for model %s: %w", cfg.Model, err)
	}

	apiKey, err := config.GetAPIKey(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to get API key for provider %s: %w", provider, err)
	}

	clientConfig := llm.LLMConfig{
		APIKey:      apiKey,
		BaseURL:     cfg.BaseURL,
		ModelName:   cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
	if provider == config.ProviderOpenAI {
		clientConfig.Organization = config.GetOpenAIOrganization()
	}
	if clientConfig.MaxTokens <= 0 {
		clientConfig.MaxTokens = config.DefaultMaxTokens
	}
	if err := clientConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client configuration for %s: %w", cfg.Model, err)
	}

	if recorder == nil {
		recorder = metrics.Nop()
	}

	return &LLMClientFactory{
		config:          cfg,
		clientConfig:    clientConfig,
		metricsRecorder: recorder,
		provider:        provider,
	}, nil
}

// Provider returns the resolved provider name.
func (f *LLMClientFactory) Provider() string {
	return f.provider
}

// CreateClient creates an LLM client with the full middleware chain.
// stateProvider labels metrics with the owning agent; it may be nil.
func (f *LLMClientFactory) CreateClient(stateProvider metrics.StateProvider, logger *logx.Logger) (LLMClient, error) {
	rawClient, err := newRawClient(f.provider, f.clientConfig)
	if err != nil {
		return nil, err
	}

	// Metrics -> EmptyResponseLogging -> Timeout -> RawClient
	// No retry layer: the gateway performs exactly one round trip per call.
	return llm.Chain(rawClient,
		metrics.Middleware(f.metricsRecorder, nil, stateProvider, logger),
		logging.EmptyResponseLoggingMiddleware(logger),
		timeout.Middleware(f.config.Timeout.Duration()),
	), nil
}

// newRawClient builds the provider client. For ollama the APIKey field carries the host.
func newRawClient(provider string, cfg llm.LLMConfig) (LLMClient, error) {
	switch provider {
	case config.ProviderOpenAI:
		return openaiofficial.NewOfficialClientWithModel(cfg.APIKey, cfg.ModelName, openaiofficial.Options{
			Organization: cfg.Organization,
			BaseURL:      cfg.BaseURL,
		}), nil
	case config.ProviderAnthropic:
		return anthropic.NewClaudeClientWithModel(cfg.APIKey, cfg.ModelName, cfg.BaseURL), nil
	case config.ProviderGoogle:
		return google.NewGeminiClientWithModel(cfg.APIKey, cfg.ModelName, cfg.BaseURL), nil
	case config.ProviderOllama:
		host := cfg.APIKey
		if cfg.BaseURL != "" {
			host = cfg.BaseURL
		}
		return ollama.NewOllamaClientWithModel(host, cfg.ModelName), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

package pipeline

import (
	"fmt"

	"github.com/google/uuid"

	"autodev/pkg/agent"
	"autodev/pkg/agent/middleware/metrics"
	"autodev/pkg/architect"
	"autodev/pkg/config"
	"autodev/pkg/console"
	"autodev/pkg/resource"
)

// Dependencies are the collaborators shared by every agent in the default pipeline.
type Dependencies struct {
	Config   config.Config
	Factory  *agent.LLMClientFactory
	Recorder metrics.Recorder
	Narrator console.Narrator
	Prober   resource.Prober // Optional; defaults to HTTP probes with the configured timeout
}

// NewAgentID returns a short unique id for an agent of the given kind.
func NewAgentID(kind string) string {
	return fmt.Sprintf("%s-%s", kind, uuid.New().String()[:8])
}

// NewDefault builds the standard pipeline: a solution architect.
func NewDefault(deps Dependencies) (*Controller, error) {
	if deps.Factory == nil {
		return nil, fmt.Errorf("pipeline: LLM client factory is required")
	}
	prober := deps.Prober
	if prober == nil {
		prober = resource.NewHTTPProber(deps.Config.Validator.Timeout.Duration())
	}

	arch := architect.NewDriver(NewAgentID("architect"), architect.Options{
		MaxIterations:     deps.Config.Agents.MaxIterations,
		MaxDecodeAttempts: deps.Config.Agents.MaxDecodeAttempts,
		Temperature:       deps.Config.LLM.Temperature,
		MaxTokens:         deps.Config.LLM.MaxTokens,
		Prober:            prober,
		ProbeConcurrency:  deps.Config.Validator.Concurrency,
		Recorder:          deps.Recorder,
		Narrator:          deps.Narrator,
	})

	client, err := deps.Factory.CreateClient(arch, arch.Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client for %s: %w", arch.GetID(), err)
	}
	arch.SetLLMClient(client)

	return NewController(arch), nil
}

package metrics

import (
	"context"
	"errors"
	"strings"
	"time"

	"autodev/pkg/agent/llm"
	"autodev/pkg/agent/llmerrors"
	"autodev/pkg/config"
	"autodev/pkg/logx"
	"autodev/pkg/utils"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// UsageExtractor is a function that extracts token usage from a request and response.
type UsageExtractor func(req llm.CompletionRequest, resp llm.CompletionResponse) (promptTokens, completionTokens int)

// DefaultUsageExtractor uses provider-reported usage when present and falls back to tiktoken counts.
func DefaultUsageExtractor(req llm.CompletionRequest, resp llm.CompletionResponse) (promptTokens, completionTokens int) {
	if resp.Usage != nil {
		return resp.Usage.PromptTokens, resp.Usage.CompletionTokens
	}

	contents := make([]string, len(req.Messages))
	for i := range req.Messages {
		contents[i] = req.Messages[i].Content
	}
	counter, err := utils.NewTokenCounter("gpt-4")
	if err != nil {
		return utils.CountTokensSimple(strings.Join(contents, "\n")), utils.CountTokensSimple(resp.Content)
	}
	return counter.CountMessages(contents), counter.CountTokens(resp.Content)
}

// Middleware returns a middleware function that records metrics for LLM operations.
// It tracks request latency, token usage, cost, success/failure rates, and error types.
// stateProvider may be nil when the client is not yet bound to an agent.
func Middleware(recorder Recorder, usageExtractor UsageExtractor, stateProvider StateProvider, logger *logx.Logger) llm.Middleware {
	if recorder == nil {
		recorder = Nop()
	}
	if usageExtractor == nil {
		usageExtractor = DefaultUsageExtractor
	}

	return func(next llm.LLMClient) llm.LLMClient {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				start := time.Now()
				resp, err := next.Complete(ctx, req)
				duration := time.Since(start)

				model := next.GetModelName()
				observed := Request{
					Model:    model,
					Duration: duration,
					Success:  err == nil,
				}
				if stateProvider != nil {
					observed.AgentID = stateProvider.GetID()
					observed.State = string(stateProvider.GetState())
				}
				if err == nil {
					observed.PromptTokens, observed.CompletionTokens = usageExtractor(req, resp)
					observed.Cost = config.CalculateCost(model, observed.PromptTokens, observed.CompletionTokens)
				} else {
					observed.ErrorType = getErrorType(err)
				}

				recorder.ObserveRequest(observed)

				if logger != nil {
					status := statusSuccess
					if err != nil {
						status = statusError
					}
					logger.Info("LLM Request: model=%s agent=%s state=%s tokens=%d+%d status=%s duration=%dms",
						model, observed.AgentID, observed.State, observed.PromptTokens, observed.CompletionTokens,
						status, duration.Milliseconds())
				}

				return resp, err //nolint:wrapcheck // Middleware should pass through errors unchanged
			},
			next.GetModelName,
		)
	}
}

// getErrorType classifies errors for metrics labeling.
func getErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	var llmErr *llmerrors.Error
	if errors.As(err, &llmErr) {
		return llmErr.Type.String()
	}
	return "unknown"
}

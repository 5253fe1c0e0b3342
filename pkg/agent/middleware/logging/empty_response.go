// Package logging provides logging middleware for LLM clients.
package logging

import (
	"context"

	"autodev/pkg/agent/llm"
	"autodev/pkg/agent/llmerrors"
	"autodev/pkg/logx"
)

const maxLoggedMessageChars = 4000

// EmptyResponseLoggingMiddleware returns a middleware function that logs the full conversation
// when the provider returns an empty reply, then passes the error through unchanged.
func EmptyResponseLoggingMiddleware(logger *logx.Logger) llm.Middleware {
	if logger == nil {
		logger = logx.NewLogger("llm-middleware")
	}
	return func(next llm.LLMClient) llm.LLMClient {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				resp, err := next.Complete(ctx, req)
				if err != nil && llmerrors.Is(err, llmerrors.ErrorTypeEmptyResponse) {
					logEmptyResponseDebugInfo(logger, next.GetModelName(), req)
				}
				//nolint:wrapcheck // Middleware intentionally passes through errors unchanged
				return resp, err
			},
			next.GetModelName,
		)
	}
}

func logEmptyResponseDebugInfo(logger *logx.Logger, model string, req llm.CompletionRequest) {
	logger.Error("Empty response from %s (temperature=%v max_tokens=%d messages=%d)",
		model, req.Temperature, req.MaxTokens, len(req.Messages))
	for i := range req.Messages {
		content := req.Messages[i].Content
		if len(content) > maxLoggedMessageChars {
			content = content[:maxLoggedMessageChars] + " [truncated]"
		}
		logger.Error("Message [%d] %s: %s", i, req.Messages[i].Role, content)
	}
}

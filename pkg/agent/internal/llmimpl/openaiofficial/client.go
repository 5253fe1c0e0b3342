// Package openaiofficial provides OpenAI client implementation using the official OpenAI Go package.
package openaiofficial

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"autodev/pkg/agent/llm"
	"autodev/pkg/agent/llmerrors"
	"autodev/pkg/config"
	"autodev/pkg/logx"
)

// OfficialClient wraps the official OpenAI Go client to implement llm.LLMClient interface.
type OfficialClient struct {
	client openai.Client
	model  string
	logger *logx.Logger
}

// Options holds optional connection settings.
type Options struct {
	Organization string // Sent as the OpenAI-Organization header when set
	BaseURL      string // Overrides https://api.openai.com/v1/
}

// NewOfficialClientWithModel creates a new OpenAI chat completions client for model.
// SDK-level retries are disabled; the client performs exactly one round trip per call.
func NewOfficialClientWithModel(apiKey, model string, opts Options) llm.LLMClient {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if opts.Organization != "" {
		reqOpts = append(reqOpts, option.WithOrganization(opts.Organization))
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &OfficialClient{
		client: openai.NewClient(reqOpts...),
		model:  model,
		logger: logx.NewLogger("openai"),
	}
}

func convertMessages(messages []llm.CompletionMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for i := range messages {
		msg := &messages[i]
		switch msg.Role {
		case llm.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case llm.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

// Complete implements the llm.LLMClient interface using the chat completions endpoint.
func (o *OfficialClient) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    convertMessages(in.Messages),
		Temperature: openai.Float(float64(in.Temperature)),
	}

	// Cap MaxTokens to model's actual limit to prevent API errors
	if in.MaxTokens > 0 {
		maxTokens := in.MaxTokens
		if info, exists := config.KnownModels[o.model]; exists && info.MaxOutputTokens > 0 && maxTokens > info.MaxOutputTokens {
			maxTokens = info.MaxOutputTokens
		}
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return llm.CompletionResponse{}, llmerrors.Classify(err, apiErr.StatusCode, "OpenAI chat completion failed")
		}
		return llm.CompletionResponse{}, llmerrors.Classify(err, 0, "OpenAI chat completion failed")
	}

	if resp == nil || len(resp.Choices) == 0 {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, "OpenAI returned no choices")
	}

	choice := resp.Choices[0]
	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, "OpenAI returned an empty message")
	}

	o.logger.Debug("chat completion: model=%s finish=%s prompt_tokens=%d completion_tokens=%d",
		o.model, choice.FinishReason, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	out := llm.CompletionResponse{
		Content:    content,
		StopReason: choice.FinishReason,
	}
	if resp.Usage.TotalTokens > 0 {
		out.Usage = &llm.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
		}
	}
	return out, nil
}

// GetModelName returns the model name for this client.
func (o *OfficialClient) GetModelName() string {
	return o.model
}

package llm

import (
	"strings"
	"testing"
)

func TestCompletionRole(t *testing.T) {
	tests := []struct {
		role     CompletionRole
		expected string
	}{
		{RoleSystem, "system"},
		{RoleUser, "user"},
		{RoleAssistant, "assistant"},
	}

	for _, tt := range tests {
		if string(tt.role) != tt.expected {
			t.Errorf("expected %s, got %s", tt.expected, string(tt.role))
		}
	}
}

func TestNewCompletionRequest(t *testing.T) {
	messages := []CompletionMessage{NewSystemMessage("be terse"), NewUserMessage("hi")}
	req := NewCompletionRequest(messages)

	if len(req.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(req.Messages))
	}
	if req.MaxTokens != DefaultMaxTokens {
		t.Errorf("expected MaxTokens %d, got %d", DefaultMaxTokens, req.MaxTokens)
	}
	if req.Temperature != TemperatureDeterministic {
		t.Errorf("expected Temperature %v, got %v", TemperatureDeterministic, req.Temperature)
	}
}

func TestMessageConstructors(t *testing.T) {
	tests := []struct {
		msg  CompletionMessage
		role CompletionRole
	}{
		{NewSystemMessage("s"), RoleSystem},
		{NewUserMessage("u"), RoleUser},
		{NewAssistantMessage("a"), RoleAssistant},
	}
	for _, tt := range tests {
		if tt.msg.Role != tt.role {
			t.Errorf("expected role %s, got %s", tt.role, tt.msg.Role)
		}
	}
}

func TestLLMConfigValidate(t *testing.T) {
	valid := LLMConfig{APIKey: "k", ModelName: "gpt-4", MaxTokens: 100, Temperature: 0.1}

	tests := []struct {
		name    string
		mutate  func(c *LLMConfig)
		wantErr string
	}{
		{"valid", func(_ *LLMConfig) {}, ""},
		{"missing key", func(c *LLMConfig) { c.APIKey = "" }, "API key"},
		{"missing model", func(c *LLMConfig) { c.ModelName = "" }, "model name"},
		{"zero tokens", func(c *LLMConfig) { c.MaxTokens = 0 }, "max tokens"},
		{"negative temperature", func(c *LLMConfig) { c.Temperature = -0.5 }, "temperature"},
		{"high temperature", func(c *LLMConfig) { c.Temperature = 2.5 }, "temperature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

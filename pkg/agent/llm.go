package agent

import "autodev/pkg/agent/llm"

// Re-exported LLM types so agent implementations need a single import.
type (
	LLMClient          = llm.LLMClient
	CompletionRequest  = llm.CompletionRequest
	CompletionResponse = llm.CompletionResponse
	CompletionMessage  = llm.CompletionMessage
	CompletionRole     = llm.CompletionRole
)

const (
	RoleSystem    = llm.RoleSystem
	RoleUser      = llm.RoleUser
	RoleAssistant = llm.RoleAssistant
)

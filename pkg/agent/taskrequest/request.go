// Package taskrequest implements the structured task request: a prompt that pairs an
// agent's role with a function signature, sent to the LLM and decoded into a typed value.
//
// The model is asked to behave as a function printer, returning only what the signature
// would return. Replies that fail to decode are discarded and the whole round trip is
// repeated, up to Task.MaxAttempts. Gateway failures are never retried here.
//
//	scope, err := taskrequest.Request(ctx, client, task, taskrequest.JSONDecoder[Scope](nil))
package taskrequest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"autodev/pkg/agent/llm"
	"autodev/pkg/console"
	"autodev/pkg/logx"
)

// DefaultMaxAttempts is the number of round trips made before decode failure is fatal.
const DefaultMaxAttempts = 3

// maxReplyPreview bounds how much of a rejected reply is logged and kept on errors.
const maxReplyPreview = 500

var (
	// ErrDecodeExhausted indicates every attempt produced a reply that could not be decoded.
	ErrDecodeExhausted = errors.New("decode attempts exhausted")

	// ErrTransport indicates the LLM gateway itself failed.
	ErrTransport = errors.New("llm transport failure")
)

// Task describes one structured request.
type Task struct {
	Operation string // Short progress label, e.g. "Determining project scope"
	Context   string // Function input
	Role      string // Agent position
	Signature string // Literal function signature the model must evaluate
	Memory    []llm.CompletionMessage

	Temperature float32
	MaxTokens   int
	MaxAttempts int

	Narrator console.Narrator
	Logger   *logx.Logger
}

// DecodeError is returned when no attempt produced a decodable reply.
type DecodeError struct {
	Operation string
	Attempts  int
	LastReply string
	Err       error // Last decode error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %d attempts: %v", e.Operation, e.Attempts, e.Err)
}

// Unwrap exposes both ErrDecodeExhausted and the last decode error.
func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecodeExhausted, e.Err}
}

// TransportError wraps a gateway failure.
type TransportError struct {
	Operation string
	Attempt   int
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: attempt %d: %v", e.Operation, e.Attempt, e.Err)
}

// Unwrap exposes both ErrTransport and the gateway error.
func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// BuildPrompt renders the function-printer instruction for task.
func BuildPrompt(task Task) string {
	var sb strings.Builder
	if task.Role != "" {
		fmt.Fprintf(&sb, "ROLE: %s\n", task.Role)
	}
	fmt.Fprintf(&sb, "FUNCTION: %s\n", strings.TrimSpace(task.Signature))
	sb.WriteString("INSTRUCTION: You are a function printer. You ONLY print the results of functions. ")
	sb.WriteString("Nothing else. No commentary. Print the return value as JSON.\n")
	fmt.Fprintf(&sb, "INPUT: %s\n", task.Context)
	sb.WriteString("Print out what the function will return.")
	return sb.String()
}

// Request sends task to client and decodes the reply with decode.
//
// The conversation is the task memory followed by the rendered prompt. A decode failure
// repeats the round trip; a gateway failure returns a *TransportError immediately. After
// MaxAttempts rejected replies a *DecodeError is returned.
func Request[T any](ctx context.Context, client llm.LLMClient, task Task, decode Decoder[T]) (T, error) {
	var zero T

	attempts := task.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	narrator := task.Narrator
	if narrator == nil {
		narrator = console.Discard
	}
	logger := task.Logger
	if logger == nil {
		logger = logx.NewLogger("taskrequest")
	}
	operation := task.Operation
	if operation == "" {
		operation = "task request"
	}

	messages := make([]llm.CompletionMessage, 0, len(task.Memory)+1)
	messages = append(messages, task.Memory...)
	messages = append(messages, llm.NewUserMessage(BuildPrompt(task)))

	req := llm.NewCompletionRequest(messages)
	if task.Temperature > 0 {
		req.Temperature = task.Temperature
	}
	if task.MaxTokens > 0 {
		req.MaxTokens = task.MaxTokens
	}

	var lastErr error
	var lastReply string
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, &TransportError{Operation: operation, Attempt: attempt, Err: err}
		}

		narrator.Print(console.AICall, task.Role, operation+"...")

		resp, err := client.Complete(ctx, req)
		if err != nil {
			return zero, &TransportError{Operation: operation, Attempt: attempt, Err: err}
		}

		value, err := decode(resp.Content)
		if err == nil {
			if attempt > 1 {
				logger.Info("%s: decoded reply on attempt %d/%d", operation, attempt, attempts)
			}
			return value, nil
		}

		lastErr = err
		lastReply = truncate(resp.Content, maxReplyPreview)
		logger.Warn("%s: rejected reply on attempt %d/%d: %v", operation, attempt, attempts, err)
		logx.Debug(ctx, "taskrequest", "rejected reply: %s", lastReply)
		narrator.Print(console.Issue, task.Role, fmt.Sprintf("Could not decode reply (attempt %d of %d): %v", attempt, attempts, err))
	}

	return zero, &DecodeError{
		Operation: operation,
		Attempts:  attempts,
		LastReply: lastReply,
		Err:       lastErr,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

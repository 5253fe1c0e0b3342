package agent

import "errors"

var (
	// ErrInvalidTransition indicates an invalid state transition was attempted.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrMaxIterationsExceeded indicates an agent did not reach FINISHED within its step limit.
	ErrMaxIterationsExceeded = errors.New("maximum iterations exceeded")

	// ErrNoLLMClient indicates an agent was executed before a client was attached.
	ErrNoLLMClient = errors.New("no LLM client configured")
)

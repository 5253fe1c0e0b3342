// Package agent provides the foundational abstractions for autonomous agents.
//
// This package serves as the public API for agent functionality with the following structure:
//   - The Agent interface and the shared Attributes record (objective, position, memory)
//   - BaseStateMachine with instance-local transition tables and state-change notifications
//   - Run, the bounded drive loop every agent's Execute delegates to
//   - LLM client construction (provider selection plus middleware chain) and a scripted mock
//
// Provider implementations are kept private under internal/llmimpl.
package agent

package agent

import (
	"context"
	"sync"

	"autodev/pkg/factsheet"
	"autodev/pkg/proto"
)

// Agent is a finite-state worker that advances a shared fact sheet.
type Agent interface {
	GetID() string
	GetPosition() string
	GetState() proto.State

	// Execute drives the agent from its current state to FINISHED, mutating sheet.
	// It returns an error only for agent-fatal failures.
	Execute(ctx context.Context, sheet *factsheet.FactSheet) error
}

// Attributes is the record every agent carries: an immutable objective, a role label,
// and an append-only conversation memory prepended to each task request.
type Attributes struct {
	Objective string
	Position  string

	mu     sync.Mutex
	memory []CompletionMessage
}

// NewAttributes creates agent attributes with an empty memory.
func NewAttributes(objective, position string) *Attributes {
	return &Attributes{Objective: objective, Position: position}
}

// Remember appends messages to memory.
func (a *Attributes) Remember(msgs ...CompletionMessage) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.memory = append(a.memory, msgs...)
}

// Memory returns a copy of the agent's memory in insertion order.
func (a *Attributes) Memory() []CompletionMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]CompletionMessage(nil), a.memory...)
}

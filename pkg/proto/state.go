// Package proto defines the state vocabulary shared by agents, the pipeline and observers.
package proto

import (
	"fmt"
	"time"
)

// State represents a step in an agent's lifecycle.
type State string

const (
	// StateDiscovery is the entry state: the agent gathers the information it needs.
	StateDiscovery State = "DISCOVERY"

	// StateWorking is reserved for agents that produce artifacts.
	StateWorking State = "WORKING"

	// StateUnitTesting is where an agent checks its own output before finishing.
	StateUnitTesting State = "UNIT_TESTING"

	// StateFinished is terminal for a single Execute call.
	StateFinished State = "FINISHED"

	// StateError records a fatal failure in the transition history.
	StateError State = "ERROR"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// IsTerminal reports whether the state ends an Execute call.
func (s State) IsTerminal() bool {
	return s == StateFinished || s == StateError
}

// AllStates returns every known state in lifecycle order.
func AllStates() []State {
	return []State{StateDiscovery, StateWorking, StateUnitTesting, StateFinished, StateError}
}

// ParseState parses a string into a known State.
func ParseState(s string) (State, error) {
	for _, st := range AllStates() {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown state: %q", s)
}

// StateChangeNotification is emitted whenever an agent changes state.
type StateChangeNotification struct {
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	AgentID   string         `json:"agent_id"`
	FromState State          `json:"from_state"`
	ToState   State          `json:"to_state"`
}

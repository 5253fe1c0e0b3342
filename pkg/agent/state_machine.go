package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"autodev/pkg/logx"
	"autodev/pkg/proto"
)

// StateTransition represents a transition between states.
type StateTransition struct {
	FromState proto.State
	ToState   proto.State
	Timestamp time.Time
	Metadata  map[string]any
}

// StateData represents generic state storage.
type StateData map[string]any

// TransitionTable represents valid state transitions for an agent instance.
type TransitionTable map[proto.State][]proto.State

// BaseStateMachine provides common state machine functionality.
type BaseStateMachine struct {
	agentID      string
	currentState proto.State
	stateData    StateData
	transitions  []StateTransition
	table        TransitionTable // Instance-local transition table
	mu           sync.Mutex      // Protects state changes
	logger       *logx.Logger    // Agent-specific logger

	// LLMClient is attached after construction so the client's metrics middleware
	// can observe this state machine.
	LLMClient LLMClient

	// State change notifications.
	stateNotifCh chan<- *proto.StateChangeNotification
}

// NewBaseStateMachine creates a new base state machine with the given transition table.
// A nil table permits every transition.
func NewBaseStateMachine(agentID string, initialState proto.State, table TransitionTable) *BaseStateMachine {
	return &BaseStateMachine{
		agentID:      agentID,
		currentState: initialState,
		stateData:    make(StateData),
		transitions:  make([]StateTransition, 0),
		table:        table,
		logger:       logx.NewLogger(agentID),
	}
}

// GetID returns the agent ID.
func (sm *BaseStateMachine) GetID() string {
	return sm.agentID
}

// GetState returns the current state.
func (sm *BaseStateMachine) GetState() proto.State {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.currentState
}

// Logger returns the agent-tagged logger.
func (sm *BaseStateMachine) Logger() *logx.Logger {
	return sm.logger
}

// SetLLMClient attaches the client used by task requests.
func (sm *BaseStateMachine) SetLLMClient(client LLMClient) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.LLMClient = client
}

// GetLLMClient returns the attached client, or nil.
func (sm *BaseStateMachine) GetLLMClient() LLMClient {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.LLMClient
}

// GetStateData returns a copy of the current state data.
func (sm *BaseStateMachine) GetStateData() StateData {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	result := make(StateData, len(sm.stateData))
	for k, v := range sm.stateData {
		result[k] = v
	}
	return result
}

// SetStateData sets a value in the state data.
func (sm *BaseStateMachine) SetStateData(key string, value any) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.stateData[key] = value
}

// GetStateValue gets a value from the state data.
func (sm *BaseStateMachine) GetStateValue(key string) (any, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	value, exists := sm.stateData[key]
	return value, exists
}

// SetTyped stores a typed value in the state data with compile-time type safety.
func SetTyped[T any](sm *BaseStateMachine, key string, value T) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.stateData[key] = value
}

// GetTyped retrieves a typed value from the state data with compile-time type safety.
// Returns the value and a boolean indicating if the key was found with the right type.
func GetTyped[T any](sm *BaseStateMachine, key string) (T, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	var zero T
	value, exists := sm.stateData[key]
	if !exists {
		return zero, false
	}
	typedValue, ok := value.(T)
	if !ok {
		return zero, false
	}
	return typedValue, true
}

// IsValidTransition checks if a state transition is allowed by the instance table.
// ERROR is always reachable.
func (sm *BaseStateMachine) IsValidTransition(from, to proto.State) bool {
	if to == proto.StateError || sm.table == nil {
		return true
	}
	for _, s := range sm.table[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionTo moves to a new state and records the transition.
func (sm *BaseStateMachine) TransitionTo(ctx context.Context, newState proto.State, metadata map[string]any) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("state transition cancelled: %w", ctx.Err())
	default:
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	oldState := sm.currentState
	if !sm.IsValidTransition(oldState, newState) {
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, oldState, newState)
	}

	transition := StateTransition{
		FromState: oldState,
		ToState:   newState,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}
	sm.transitions = append(sm.transitions, transition)
	sm.currentState = newState

	sm.logger.Info("State machine transition: %s → %s", oldState, newState)

	// Non-blocking send
	if sm.stateNotifCh != nil {
		notification := &proto.StateChangeNotification{
			AgentID:   sm.agentID,
			FromState: oldState,
			ToState:   newState,
			Timestamp: transition.Timestamp,
			Metadata:  metadata,
		}
		select {
		case sm.stateNotifCh <- notification:
		default:
			sm.logger.Warn("State notification channel full, dropping notification for %s: %s->%s",
				sm.agentID, oldState, newState)
		}
	}

	sm.stateData["previous_state"] = oldState.String()
	sm.stateData["current_state"] = newState.String()
	sm.stateData["transition_at"] = transition.Timestamp
	for k, v := range metadata {
		sm.stateData[k] = v
	}
	return nil
}

// GetTransitions returns the state transition history.
func (sm *BaseStateMachine) GetTransitions() []StateTransition {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return append([]StateTransition{}, sm.transitions...)
}

// SetStateNotificationChannel sets the channel for state change notifications.
func (sm *BaseStateMachine) SetStateNotificationChannel(ch chan<- *proto.StateChangeNotification) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.stateNotifCh = ch
}

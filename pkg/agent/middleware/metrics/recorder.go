// Package metrics provides metrics recording for LLM client operations and URL probes.
package metrics

import (
	"time"

	"autodev/pkg/proto"
)

// StateProvider provides access to agent state for metrics collection.
type StateProvider interface {
	// GetState returns the agent's current state (DISCOVERY, UNIT_TESTING, etc).
	GetState() proto.State
	// GetID returns the agent ID.
	GetID() string
}

// Request describes one completed LLM round trip.
type Request struct {
	Model            string
	AgentID          string
	State            string
	ErrorType        string // empty on success
	PromptTokens     int
	CompletionTokens int
	Cost             float64
	Duration         time.Duration
	Success          bool
}

// Recorder defines the interface for recording LLM operation metrics.
type Recorder interface {
	// ObserveRequest records metrics for a completed LLM request.
	ObserveRequest(req Request)

	// ObserveProbe records the outcome of one URL probe ("kept", "pruned", "unknown").
	ObserveProbe(outcome string, duration time.Duration)
}

// NoopRecorder implements Recorder with no-op behavior for when metrics are disabled.
type NoopRecorder struct{}

// Nop returns a no-op metrics recorder that discards all metrics.
func Nop() Recorder {
	return &NoopRecorder{}
}

// ObserveRequest does nothing in the no-op recorder.
func (n *NoopRecorder) ObserveRequest(_ Request) {}

// ObserveProbe does nothing in the no-op recorder.
func (n *NoopRecorder) ObserveProbe(_ string, _ time.Duration) {}

type multiRecorder []Recorder

// Multi fans every observation out to all recorders. Nil recorders are skipped.
func Multi(recorders ...Recorder) Recorder {
	out := make(multiRecorder, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m multiRecorder) ObserveRequest(req Request) {
	for _, r := range m {
		r.ObserveRequest(req)
	}
}

func (m multiRecorder) ObserveProbe(outcome string, duration time.Duration) {
	for _, r := range m {
		r.ObserveProbe(outcome, duration)
	}
}

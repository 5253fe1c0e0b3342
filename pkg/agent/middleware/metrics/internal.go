package metrics

import (
	"sort"
	"sync"
	"time"
)

// InternalRecorder implements the Recorder interface using in-memory aggregation.
// The CLI reads it at the end of a run to print a usage summary.
type InternalRecorder struct {
	agents map[string]*AgentMetrics
	probes map[string]int64
	mu     sync.RWMutex
}

// AgentMetrics represents aggregated LLM usage for one agent.
type AgentMetrics struct {
	AgentID          string    `json:"agent_id"`
	PromptTokens     int64     `json:"prompt_tokens"`
	CompletionTokens int64     `json:"completion_tokens"`
	TotalTokens      int64     `json:"total_tokens"`
	RequestCount     int64     `json:"request_count"`
	ErrorCount       int64     `json:"error_count"`
	TotalCost        float64   `json:"total_cost_usd"`
	LastUpdated      time.Time `json:"last_updated"`
}

// NewInternalRecorder returns an empty in-memory recorder.
func NewInternalRecorder() *InternalRecorder {
	return &InternalRecorder{
		agents: make(map[string]*AgentMetrics),
		probes: make(map[string]int64),
	}
}

// ObserveRequest aggregates a completed LLM request under its agent.
func (r *InternalRecorder) ObserveRequest(req Request) {
	agentID := req.AgentID
	if agentID == "" {
		agentID = "unknown"
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	agent, exists := r.agents[agentID]
	if !exists {
		agent = &AgentMetrics{AgentID: agentID}
		r.agents[agentID] = agent
	}

	agent.RequestCount++
	agent.LastUpdated = time.Now()
	if !req.Success {
		agent.ErrorCount++
		return
	}
	agent.PromptTokens += int64(req.PromptTokens)
	agent.CompletionTokens += int64(req.CompletionTokens)
	agent.TotalTokens = agent.PromptTokens + agent.CompletionTokens
	agent.TotalCost += req.Cost
}

// ObserveProbe counts probe outcomes.
func (r *InternalRecorder) ObserveProbe(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.probes[outcome]++
}

// GetAgentMetrics returns a copy of the aggregated metrics for one agent, or nil.
func (r *InternalRecorder) GetAgentMetrics(agentID string) *AgentMetrics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if agent, exists := r.agents[agentID]; exists {
		cp := *agent
		return &cp
	}
	return nil
}

// GetAllAgentMetrics returns copies of all agent metrics sorted by agent id.
func (r *InternalRecorder) GetAllAgentMetrics() []AgentMetrics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]AgentMetrics, 0, len(r.agents))
	for _, agent := range r.agents {
		out = append(out, *agent)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AgentID < out[j].AgentID })
	return out
}

// ProbeCounts returns a copy of the probe outcome counters.
func (r *InternalRecorder) ProbeCounts() map[string]int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]int64, len(r.probes))
	for k, v := range r.probes {
		out[k] = v
	}
	return out
}

// Reset clears all metrics (useful for testing).
func (r *InternalRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents = make(map[string]*AgentMetrics)
	r.probes = make(map[string]int64)
}

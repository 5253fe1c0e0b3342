// Package pipeline runs agents in sequence over one fact sheet.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"autodev/pkg/agent"
	"autodev/pkg/factsheet"
	"autodev/pkg/logx"
	"autodev/pkg/proto"
)

// notifier is implemented by agents that publish state changes.
type notifier interface {
	SetStateNotificationChannel(ch chan<- *proto.StateChangeNotification)
}

// AgentResult summarises one agent's part in a run.
type AgentResult struct {
	ID         string        `json:"id"`
	Position   string        `json:"position"`
	FinalState proto.State   `json:"final_state"`
	Duration   time.Duration `json:"duration"`
}

// Result summarises a run.
type Result struct {
	RunID       string                          `json:"run_id"`
	Duration    time.Duration                   `json:"duration"`
	Agents      []AgentResult                   `json:"agents"`
	Transitions []*proto.StateChangeNotification `json:"transitions"`
}

// Controller executes agents strictly one after another. Each agent has exclusive
// access to the fact sheet while it runs.
type Controller struct {
	agents []agent.Agent
	logger *logx.Logger
}

// NewController creates a controller for agents, run in the given order.
func NewController(agents ...agent.Agent) *Controller {
	return &Controller{
		agents: agents,
		logger: logx.NewLogger("pipeline"),
	}
}

// Agents returns the agents in execution order.
func (c *Controller) Agents() []agent.Agent {
	return append([]agent.Agent(nil), c.agents...)
}

// Run threads sheet through every agent. The first agent error aborts the run and is
// returned wrapped with the agent id; the partial Result is still returned. Writes made
// by the failing agent are rolled back, so sheet holds the last completed agent's output.
func (c *Controller) Run(ctx context.Context, sheet *factsheet.FactSheet) (Result, error) {
	result := Result{RunID: uuid.New().String()}
	start := time.Now()
	ctx = logx.WithAgentID(ctx, "pipeline")

	notifCh := make(chan *proto.StateChangeNotification, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for n := range notifCh {
			c.logger.Info("Agent %s state changed: %s -> %s", n.AgentID, n.FromState, n.ToState)
			result.Transitions = append(result.Transitions, n)
		}
	}()

	for _, a := range c.agents {
		if n, ok := a.(notifier); ok {
			n.SetStateNotificationChannel(notifCh)
		}
	}
	finish := func() {
		for _, a := range c.agents {
			if n, ok := a.(notifier); ok {
				n.SetStateNotificationChannel(nil)
			}
		}
		close(notifCh)
		wg.Wait()
		result.Duration = time.Since(start)
	}

	c.logger.Info("Starting run %s with %d agent(s)", result.RunID, len(c.agents))
	for _, a := range c.agents {
		agentStart := time.Now()
		snapshot := sheet.Clone()
		err := a.Execute(ctx, sheet)
		result.Agents = append(result.Agents, AgentResult{
			ID:         a.GetID(),
			Position:   a.GetPosition(),
			FinalState: a.GetState(),
			Duration:   time.Since(agentStart),
		})
		if err != nil {
			*sheet = *snapshot
			finish()
			c.logger.Error("Run %s aborted by %s: %v", result.RunID, a.GetID(), err)
			return result, fmt.Errorf("agent %s (%s): %w", a.GetID(), a.GetPosition(), err)
		}
	}

	finish()
	c.logger.Info("Run %s completed in %s", result.RunID, result.Duration.Round(time.Millisecond))
	return result, nil
}

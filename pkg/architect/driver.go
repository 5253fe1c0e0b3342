// Package architect provides the solution architect agent.
// The architect decides the scope of a website project, discovers the public API endpoints
// it will need, and prunes the endpoints that do not respond.
package architect

import (
	"context"
	"fmt"

	"autodev/pkg/agent"
	"autodev/pkg/agent/middleware/metrics"
	"autodev/pkg/agent/taskrequest"
	"autodev/pkg/console"
	"autodev/pkg/factsheet"
	"autodev/pkg/logx"
	"autodev/pkg/proto"
	"autodev/pkg/resource"
)

// Options configures a Driver. Zero values pick the defaults.
type Options struct {
	MaxIterations     int
	MaxDecodeAttempts int
	Temperature       float32
	MaxTokens         int

	Prober           resource.Prober // Defaults to an HTTPProber with a 5s timeout
	ProbeConcurrency int
	Recorder         metrics.Recorder
	Narrator         console.Narrator
}

// Driver manages the state machine for a solution architect.
type Driver struct {
	*agent.BaseStateMachine
	attrs     *agent.Attributes
	validator *resource.Validator
	narrator  console.Narrator
	logger    *logx.Logger
	opts      Options
}

var _ agent.Agent = (*Driver)(nil)

// NewDriver creates an architect in DISCOVERY. Attach a client with SetLLMClient before Execute.
func NewDriver(architectID string, opts Options) *Driver {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = agent.DefaultMaxIterations
	}
	if opts.Narrator == nil {
		opts.Narrator = console.Discard
	}
	if opts.Prober == nil {
		opts.Prober = resource.NewHTTPProber(resource.DefaultTimeout)
	}

	sm := agent.NewBaseStateMachine(architectID, proto.StateDiscovery, architectTransitions)
	d := &Driver{
		BaseStateMachine: sm,
		attrs:            agent.NewAttributes(Objective, Position),
		narrator:         opts.Narrator,
		logger:           sm.Logger(),
		opts:             opts,
	}

	d.validator = resource.NewValidator(opts.Prober, opts.ProbeConcurrency, opts.Recorder)
	d.validator.OnProbe = func(url string) {
		d.narrator.Print(console.UnitTest, Position, "Testing url endpoint: "+url)
	}
	return d
}

// GetPosition returns the architect's role label.
func (d *Driver) GetPosition() string {
	return d.attrs.Position
}

// Attributes returns the architect's objective, position and memory.
func (d *Driver) Attributes() *agent.Attributes {
	return d.attrs
}

// Execute drives the architect to FINISHED, writing scope and URLs into sheet.
func (d *Driver) Execute(ctx context.Context, sheet *factsheet.FactSheet) error {
	if sheet == nil {
		return fmt.Errorf("architect %s: nil fact sheet", d.GetID())
	}
	d.logger.Info("Starting %s (state %s)", Position, d.GetState())
	ctx = logx.WithAgentID(ctx, d.GetID())

	return agent.Run(ctx, d.BaseStateMachine, d.opts.MaxIterations, func(ctx context.Context, current proto.State) (proto.State, error) {
		return d.processCurrentState(ctx, current, sheet)
	})
}

func (d *Driver) processCurrentState(ctx context.Context, current proto.State, sheet *factsheet.FactSheet) (proto.State, error) {
	switch current {
	case proto.StateDiscovery:
		return d.handleDiscovery(ctx, sheet)
	case proto.StateUnitTesting:
		return d.handleUnitTesting(ctx, sheet)
	default:
		d.logger.Debug("No handler for %s, finishing", current)
		return proto.StateFinished, nil
	}
}

// task builds a task request carrying the architect's identity and memory.
func (d *Driver) task(operation, input, signature string) taskrequest.Task {
	return taskrequest.Task{
		Operation:   operation,
		Context:     input,
		Role:        d.attrs.Position,
		Signature:   signature,
		Memory:      d.attrs.Memory(),
		Temperature: d.opts.Temperature,
		MaxTokens:   d.opts.MaxTokens,
		MaxAttempts: d.opts.MaxDecodeAttempts,
		Narrator:    d.narrator,
		Logger:      d.logger,
	}
}

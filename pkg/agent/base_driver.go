package agent

import (
	"context"
	"fmt"

	"autodev/pkg/proto"
)

// DefaultMaxIterations bounds the number of steps one Execute may take.
const DefaultMaxIterations = 10

// StepFunc handles the current state and returns the state to move to next.
type StepFunc func(ctx context.Context, current proto.State) (proto.State, error)

// Run drives sm until it reaches FINISHED.
//
// Each iteration calls step for the current state and records the returned transition.
// A step error moves the machine to ERROR and is returned wrapped with the agent id.
// Running more than maxIterations steps without finishing also moves to ERROR and returns
// ErrMaxIterationsExceeded. Context cancellation aborts the loop between steps.
func Run(ctx context.Context, sm *BaseStateMachine, maxIterations int, step StepFunc) error {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	for iteration := 0; ; iteration++ {
		current := sm.GetState()
		if current == proto.StateFinished {
			return nil
		}

		if err := ctx.Err(); err != nil {
			return fmt.Errorf("agent %s cancelled in %s: %w", sm.GetID(), current, err)
		}

		if iteration >= maxIterations {
			sm.recordFailure(ctx, current, fmt.Sprintf("no progress after %d steps", maxIterations))
			return fmt.Errorf("agent %s stuck in %s: %w (%d steps)", sm.GetID(), current, ErrMaxIterationsExceeded, maxIterations)
		}

		next, err := step(ctx, current)
		if err != nil {
			sm.recordFailure(ctx, current, err.Error())
			return fmt.Errorf("agent %s failed in %s: %w", sm.GetID(), current, err)
		}

		if err := sm.TransitionTo(ctx, next, nil); err != nil {
			return fmt.Errorf("agent %s: %w", sm.GetID(), err)
		}
	}
}

// recordFailure moves the machine to ERROR. The transition can only fail on a cancelled
// context, in which case the caller's error already explains the outcome.
func (sm *BaseStateMachine) recordFailure(ctx context.Context, failedState proto.State, reason string) {
	if err := sm.TransitionTo(context.WithoutCancel(ctx), proto.StateError, map[string]any{
		"error":        reason,
		"failed_state": failedState.String(),
	}); err != nil {
		sm.logger.Warn("Failed to record ERROR transition: %v", err)
	}
}

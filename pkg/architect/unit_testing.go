package architect

import (
	"context"
	"fmt"

	"autodev/pkg/agent"
	"autodev/pkg/console"
	"autodev/pkg/factsheet"
	"autodev/pkg/proto"
)

// handleUnitTesting probes every discovered URL and removes the ones that answered with a
// non-200 status. The sheet is only rewritten when something was pruned.
func (d *Driver) handleUnitTesting(ctx context.Context, sheet *factsheet.FactSheet) (proto.State, error) {
	if len(sheet.ExternalURLs) == 0 {
		d.logger.Info("No external URLs to test")
		return proto.StateFinished, nil
	}

	report := d.validator.Validate(ctx, sheet.ExternalURLs)

	agent.SetTyped(d.BaseStateMachine, StateKeyProbeStatus, report.Status)
	if len(report.Unknown) > 0 {
		agent.SetTyped(d.BaseStateMachine, StateKeyUnknownURLs, report.Unknown)
	}

	if report.Changed() {
		sheet.ExternalURLs = report.Kept
		agent.SetTyped(d.BaseStateMachine, StateKeyPrunedURLs, report.Pruned)
		d.narrator.Print(console.Issue, Position,
			fmt.Sprintf("Removed %d unreachable url(s): %v", len(report.Pruned), report.Pruned))
	}

	d.logger.Info("URL check complete: %d kept, %d pruned, %d unknown",
		len(report.Kept), len(report.Pruned), len(report.Unknown))
	return proto.StateFinished, nil
}

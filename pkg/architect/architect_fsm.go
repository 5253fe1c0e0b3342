package architect

import (
	"autodev/pkg/agent"
	"autodev/pkg/proto"
)

// Identity of the solution architect.
const (
	Objective = "Gathers information and design solutions for website development"
	Position  = "Solution Architect"
)

// architectTransitions is the architect's transition table.
// ERROR is reachable from every state and is not listed as a target.
var architectTransitions = agent.TransitionTable{
	// DISCOVERY finishes directly when no external resources are needed.
	proto.StateDiscovery: {proto.StateUnitTesting, proto.StateFinished},

	// UNIT_TESTING always finishes once the URLs have been checked.
	proto.StateUnitTesting: {proto.StateFinished},

	// WORKING is unused by the architect and falls through to FINISHED.
	proto.StateWorking: {proto.StateFinished},

	// Executing an architect left in ERROR closes it out.
	proto.StateError: {proto.StateFinished},
}

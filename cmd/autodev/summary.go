package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"autodev/pkg/agent/middleware/metrics"
	"autodev/pkg/logx"
	"autodev/pkg/pipeline"
)

// printSummary prints per-agent outcomes and LLM usage for a run.
func printSummary(w io.Writer, result pipeline.Result, recorder *metrics.InternalRecorder) {
	fmt.Fprintf(w, "\nRun %s finished in %s\n", result.RunID, result.Duration.Round(time.Millisecond))

	for _, a := range result.Agents {
		fmt.Fprintf(w, "  %-20s %-24s %-14s %s\n", a.Position, a.ID, a.FinalState, a.Duration.Round(time.Millisecond))
		if m := recorder.GetAgentMetrics(a.ID); m != nil {
			fmt.Fprintf(w, "    llm: %d request(s), %d error(s), %d tokens, $%.4f\n",
				m.RequestCount, m.ErrorCount, m.TotalTokens, m.TotalCost)
		}
	}

	probes := recorder.ProbeCounts()
	if len(probes) == 0 {
		return
	}
	outcomes := make([]string, 0, len(probes))
	for outcome := range probes {
		outcomes = append(outcomes, outcome)
	}
	sort.Strings(outcomes)
	fmt.Fprint(w, "  url probes:")
	for _, outcome := range outcomes {
		fmt.Fprintf(w, " %s=%d", outcome, probes[outcome])
	}
	fmt.Fprintln(w)
}

// maxProblems bounds the warnings echoed after a failed run.
const maxProblems = 10

// printProblems echoes the warnings and errors logged since started, so a failed run
// explains itself without opening the log file.
func printProblems(w io.Writer, started time.Time) {
	var problems []logx.LogEntry
	for _, e := range logx.GetRecentLogEntries("", started) {
		if e.Level == string(logx.LevelWarn) || e.Level == string(logx.LevelError) {
			problems = append(problems, e)
		}
	}
	if len(problems) == 0 {
		return
	}
	if len(problems) > maxProblems {
		problems = problems[len(problems)-maxProblems:]
	}
	fmt.Fprintln(w, "\nRecent problems:")
	for _, e := range problems {
		fmt.Fprintf(w, "  [%s] %s: %s\n", e.AgentID, e.Level, e.Message)
	}
}

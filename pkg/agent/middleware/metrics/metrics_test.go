package metrics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autodev/pkg/agent/llm"
	"autodev/pkg/agent/llmerrors"
	"autodev/pkg/proto"
)

type fakeState struct{}

func (fakeState) GetState() proto.State { return proto.StateDiscovery }
func (fakeState) GetID() string         { return "architect-1" }

type scriptedClient struct {
	resp llm.CompletionResponse
	err  error
}

func (s scriptedClient) Complete(_ context.Context, _ llm.CompletionRequest) (llm.CompletionResponse, error) {
	return s.resp, s.err
}

func (s scriptedClient) GetModelName() string { return "gpt-4" }

func TestMiddlewareRecordsSuccess(t *testing.T) {
	internal := NewInternalRecorder()
	client := llm.Chain(scriptedClient{resp: llm.CompletionResponse{
		Content: "ok",
		Usage:   &llm.Usage{PromptTokens: 1000, CompletionTokens: 500},
	}}, Middleware(internal, nil, fakeState{}, nil))

	_, err := client.Complete(context.Background(), llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewUserMessage("hi")}))
	require.NoError(t, err)

	m := internal.GetAgentMetrics("architect-1")
	require.NotNil(t, m)
	assert.Equal(t, int64(1), m.RequestCount)
	assert.Equal(t, int64(1000), m.PromptTokens)
	assert.Equal(t, int64(500), m.CompletionTokens)
	assert.Equal(t, int64(1500), m.TotalTokens)
	// gpt-4: 1000 * $30/M + 500 * $60/M = 0.03 + 0.03
	assert.InDelta(t, 0.06, m.TotalCost, 1e-9)
}

func TestMiddlewareRecordsErrorsAndPassesThrough(t *testing.T) {
	internal := NewInternalRecorder()
	boom := llmerrors.NewError(llmerrors.ErrorTypeAuth, "bad key")
	client := llm.Chain(scriptedClient{err: boom}, Middleware(internal, nil, fakeState{}, nil))

	_, err := client.Complete(context.Background(), llm.NewCompletionRequest(nil))
	assert.Same(t, boom, err)

	m := internal.GetAgentMetrics("architect-1")
	require.NotNil(t, m)
	assert.Equal(t, int64(1), m.ErrorCount)
	assert.Zero(t, m.TotalTokens)
}

func TestMiddlewareWithoutStateProvider(t *testing.T) {
	internal := NewInternalRecorder()
	client := llm.Chain(scriptedClient{resp: llm.CompletionResponse{Content: "hello world"}}, Middleware(internal, nil, nil, nil))

	_, err := client.Complete(context.Background(), llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewUserMessage("hello")}))
	require.NoError(t, err)

	m := internal.GetAgentMetrics("unknown")
	require.NotNil(t, m)
	assert.Positive(t, m.CompletionTokens, "tiktoken fallback should count the reply")
}

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorder(reg)

	rec.ObserveRequest(Request{Model: "gpt-4", AgentID: "a1", State: "DISCOVERY", Success: true, PromptTokens: 10, CompletionTokens: 5, Duration: time.Second})
	rec.ObserveRequest(Request{Model: "gpt-4", AgentID: "a1", State: "DISCOVERY", Success: false, ErrorType: "auth"})
	rec.ObserveProbe("kept", 10*time.Millisecond)
	rec.ObserveProbe("pruned", 10*time.Millisecond)
	rec.ObserveProbe("kept", 10*time.Millisecond)

	assert.InDelta(t, 1, testutil.ToFloat64(rec.requestsTotal.WithLabelValues("gpt-4", "a1", "DISCOVERY", "success", "")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(rec.requestsTotal.WithLabelValues("gpt-4", "a1", "DISCOVERY", "error", "auth")), 0)
	assert.InDelta(t, 10, testutil.ToFloat64(rec.tokensTotal.WithLabelValues("gpt-4", "a1", "prompt")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(rec.probesTotal.WithLabelValues("kept")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(rec.probesTotal.WithLabelValues("pruned")), 0)
}

func TestMultiRecorder(t *testing.T) {
	a, b := NewInternalRecorder(), NewInternalRecorder()
	rec := Multi(a, nil, b)

	rec.ObserveRequest(Request{AgentID: "x", Success: true, PromptTokens: 3})
	rec.ObserveProbe("unknown", time.Millisecond)

	for _, r := range []*InternalRecorder{a, b} {
		require.NotNil(t, r.GetAgentMetrics("x"))
		assert.Equal(t, int64(1), r.ProbeCounts()["unknown"])
	}
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, "", getErrorType(nil))
	assert.Equal(t, "timeout", getErrorType(fmt.Errorf("call: %w", context.DeadlineExceeded)))
	assert.Equal(t, "canceled", getErrorType(context.Canceled))
	assert.Equal(t, "rate_limit", getErrorType(llmerrors.NewError(llmerrors.ErrorTypeRateLimit, "x")))
	assert.Equal(t, "unknown", getErrorType(fmt.Errorf("mystery")))
}

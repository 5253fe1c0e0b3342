package openaiofficial

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autodev/pkg/agent/llm"
	"autodev/pkg/agent/llmerrors"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "{\"ok\": true}"}}],
  "usage": {"prompt_tokens": 12, "completion_tokens": 4, "total_tokens": 16}
}`

func newTestServer(t *testing.T, status int, body string, seen *http.Request, received *map[string]any) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if seen != nil {
			*seen = *r.Clone(context.Background())
		}
		if received != nil {
			_ = json.NewDecoder(r.Body).Decode(received)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestCompleteSendsChatRequest(t *testing.T) {
	var seen http.Request
	var body map[string]any
	srv, hits := newTestServer(t, http.StatusOK, completionBody, &seen, &body)

	client := NewOfficialClientWithModel("sk-test", "gpt-4", Options{
		Organization: "org-123",
		BaseURL:      srv.URL + "/v1/",
	})

	resp, err := client.Complete(context.Background(), llm.CompletionRequest{
		Messages:    []llm.CompletionMessage{llm.NewSystemMessage("be terse"), llm.NewUserMessage("hello")},
		Temperature: 0.1,
	})
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
	assert.Equal(t, "/v1/chat/completions", seen.URL.Path)
	assert.Equal(t, "Bearer sk-test", seen.Header.Get("Authorization"))
	assert.Equal(t, "org-123", seen.Header.Get("OpenAI-Organization"))

	assert.Equal(t, "gpt-4", body["model"])
	assert.InDelta(t, 0.1, body["temperature"], 1e-6)
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 2)

	assert.Equal(t, `{"ok": true}`, resp.Content)
	assert.Equal(t, "stop", resp.StopReason)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 12, resp.Usage.PromptTokens)
	assert.Equal(t, 4, resp.Usage.CompletionTokens)
}

func TestCompleteClassifiesAuthFailure(t *testing.T) {
	srv, hits := newTestServer(t, http.StatusUnauthorized,
		`{"error": {"message": "Incorrect API key", "type": "invalid_request_error"}}`, nil, nil)

	client := NewOfficialClientWithModel("bad", "gpt-4", Options{BaseURL: srv.URL + "/v1/"})
	_, err := client.Complete(context.Background(), llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewUserMessage("hi")}))

	require.Error(t, err)
	assert.True(t, llmerrors.Is(err, llmerrors.ErrorTypeAuth))
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestCompleteDoesNotRetryServerErrors(t *testing.T) {
	srv, hits := newTestServer(t, http.StatusServiceUnavailable,
		`{"error": {"message": "overloaded", "type": "server_error"}}`, nil, nil)

	client := NewOfficialClientWithModel("sk-test", "gpt-4", Options{BaseURL: srv.URL + "/v1/"})
	_, err := client.Complete(context.Background(), llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewUserMessage("hi")}))

	require.Error(t, err)
	assert.True(t, llmerrors.Is(err, llmerrors.ErrorTypeTransient))
	assert.Equal(t, int32(1), atomic.LoadInt32(hits), "gateway must perform exactly one round trip")
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK,
		`{"id": "x", "object": "chat.completion", "created": 1, "model": "gpt-4", "choices": []}`, nil, nil)

	client := NewOfficialClientWithModel("sk-test", "gpt-4", Options{BaseURL: srv.URL + "/v1/"})
	_, err := client.Complete(context.Background(), llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewUserMessage("hi")}))

	require.Error(t, err)
	assert.True(t, llmerrors.Is(err, llmerrors.ErrorTypeEmptyResponse))
}

func TestConvertMessagesPreservesOrder(t *testing.T) {
	msgs := convertMessages([]llm.CompletionMessage{
		llm.NewSystemMessage("s"),
		llm.NewUserMessage("u"),
		llm.NewAssistantMessage("a"),
	})
	require.Len(t, msgs, 3)
	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)
	assert.NotNil(t, msgs[2].OfAssistant)
}

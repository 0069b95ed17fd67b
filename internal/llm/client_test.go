package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/law-makers/bizcrawl/internal/retry"
)

func messageResponse(text string) string {
	body, _ := json.Marshal(map[string]any{
		"id":            "msg_test",
		"type":          "message",
		"role":          "assistant",
		"model":         "claude-test",
		"content":       []map[string]any{{"type": "text", "text": text}},
		"stop_reason":   "end_turn",
		"stop_sequence": nil,
		"usage":         map[string]any{"input_tokens": 10, "output_tokens": 5},
	})
	return string(body)
}

func testClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := New(Config{
		APIKey:    "test-key",
		Model:     "claude-test",
		MaxTokens: 256,
		BaseURL:   url + "/",
		Retry: retry.Config{
			MaxAttempts:          3,
			InitialBackoff:       time.Millisecond,
			MaxBackoff:           time.Millisecond,
			Multiplier:           1,
			RetryableStatusCodes: []int{http.StatusServiceUnavailable},
		},
	})
	require.NoError(t, err)
	return c
}

func TestClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"model":"claude-test"`)
		assert.Contains(t, string(body), "extract the phone")
		assert.Contains(t, string(body), "reply with JSON")

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, messageResponse(`{"phone":"555-0100"}`))
	}))
	defer server.Close()

	reply, err := testClient(t, server.URL).Complete(context.Background(), "reply with JSON", "extract the phone")
	require.NoError(t, err)
	assert.Equal(t, `{"phone":"555-0100"}`, reply)
}

func TestClient_CompleteRetriesUnavailable(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			io.WriteString(w, `{"type":"error","error":{"type":"api_error","message":"busy"}}`)
			return
		}
		io.WriteString(w, messageResponse("ok"))
	}))
	defer server.Close()

	reply, err := testClient(t, server.URL).Complete(context.Background(), "", "hello")
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestClient_CompleteClientErrorNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`)
	}))
	defer server.Close()

	_, err := testClient(t, server.URL).Complete(context.Background(), "", "hello")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "400"))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(Config{Model: "claude-test"})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

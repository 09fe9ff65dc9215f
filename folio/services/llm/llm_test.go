package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"folio/folio/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewayStreamChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req streamRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.True(t, req.Stream)
		assert.Len(t, req.Messages, 2)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n\ndata: [DONE]\n\n")
	}))
	defer srv.Close()

	c := NewGatewayClient(srv.URL+"/v1", "key", "test-model", time.Second)
	resp, err := c.StreamChat(context.Background(), []types.ChatMessage{
		{Role: types.RoleSystem, Content: "sys"},
		{Role: types.RoleUser, Content: "Hello"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(b), "data: [DONE]")
}

func TestGatewayStreamChatStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, `{"error":"no credits"}`)
	}))
	defer srv.Close()

	c := NewGatewayClient(srv.URL, "key", "m", time.Second)
	_, err := c.StreamChat(context.Background(), nil)

	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusPaymentRequired, upErr.Status)
	assert.Contains(t, upErr.Body, "no credits")
}

func TestGatewayStreamChatTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewGatewayClient(url, "key", "m", time.Second)
	_, err := c.StreamChat(context.Background(), nil)
	require.Error(t, err)
	var upErr *UpstreamError
	assert.False(t, errors.As(err, &upErr))
}

func completionServer(t *testing.T, status int, body string, calls *int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
}

func TestCompletionClientComplete(t *testing.T) {
	calls := 0
	srv := completionServer(t, http.StatusOK, `{
		"id": "c1", "object": "chat.completion", "created": 1, "model": "m",
		"choices": [{"index": 0, "finish_reason": "stop",
			"message": {"role": "assistant", "content": "{\"summary\":\"x\",\"bullets\":[]}"}}]
	}`, &calls)
	defer srv.Close()

	c := NewCompletionClient(srv.URL, "key", "m", 5*time.Second)
	out, err := c.Complete(context.Background(), "system", "user")
	require.NoError(t, err)
	assert.Equal(t, `{"summary":"x","bullets":[]}`, out)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "m", c.Model())
}

func TestCompletionClientStatusErrors(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusPaymentRequired, http.StatusBadRequest} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			calls := 0
			srv := completionServer(t, status, `{"error":{"message":"nope"}}`, &calls)
			defer srv.Close()

			c := NewCompletionClient(srv.URL, "key", "m", 5*time.Second)
			_, err := c.Complete(context.Background(), "s", "u")

			var upErr *UpstreamError
			require.True(t, errors.As(err, &upErr))
			assert.Equal(t, status, upErr.Status)
			assert.Equal(t, 1, calls, "status failures are not retried")
		})
	}
}

func TestCompletionClientRetriesTransportErrorOnce(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			conn, _, err := w.(http.Hijacker).Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"again"}}]}`)
	}))
	defer srv.Close()

	c := NewCompletionClient(srv.URL, "key", "m", 5*time.Second)
	out, err := c.Complete(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "again", out)
	assert.Equal(t, 2, calls)
}

func TestCompletionClientTransportErrorGivesUp(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		conn, _, err := w.(http.Hijacker).Hijack()
		require.NoError(t, err)
		conn.Close()
	}))
	defer srv.Close()

	c := NewCompletionClient(srv.URL, "key", "m", 5*time.Second)
	_, err := c.Complete(context.Background(), "s", "u")
	require.Error(t, err)
	var upErr *UpstreamError
	assert.False(t, errors.As(err, &upErr))
	assert.Equal(t, 2, calls)
}

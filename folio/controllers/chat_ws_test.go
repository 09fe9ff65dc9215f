package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"folio/folio/types"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialChat(t *testing.T, f *chatFixture) (*websocket.Conn, context.Context) {
	t.Helper()
	srv := httptest.NewServer(f.ctrl.ChatSocket(testCfg))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn, ctx
}

// readFrames reads until the connection closes and returns the frames and
// the close error.
func readFrames(t *testing.T, ctx context.Context, conn *websocket.Conn) ([]types.ChatFrame, error) {
	t.Helper()
	var frames []types.ChatFrame
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return frames, err
		}
		var f types.ChatFrame
		require.NoError(t, json.Unmarshal(data, &f))
		frames = append(frames, f)
	}
}

func sendFirst(t *testing.T, ctx context.Context, conn *websocket.Conn, token, messages string) {
	t.Helper()
	payload := `{"token":"` + token + `","messages":` + messages + `}`
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(payload)))
}

func TestChatSocket_StreamsDeltaFrames(t *testing.T) {
	f := newChatFixture(t, 50, sseUpstream(t, []string{"Hel", "lo", "!"}, nil))
	conn, ctx := dialChat(t, f)

	sendFirst(t, ctx, conn, testToken(t, "user-1"), `[{"role":"user","content":"Hi"}]`)
	frames, err := readFrames(t, ctx, conn)

	assert.Equal(t, websocket.StatusNormalClosure, websocket.CloseStatus(err))
	require.Len(t, frames, 4)
	var text string
	for _, fr := range frames[:3] {
		assert.Equal(t, types.FrameDelta, fr.Type)
		text += fr.Content
	}
	assert.Equal(t, "Hello!", text)
	assert.Equal(t, types.FrameDone, frames[3].Type)
}

func TestChatSocket_InvalidToken(t *testing.T) {
	f := newChatFixture(t, 50, sseUpstream(t, nil, nil))
	conn, ctx := dialChat(t, f)

	sendFirst(t, ctx, conn, "bogus", `[{"role":"user","content":"Hi"}]`)
	frames, err := readFrames(t, ctx, conn)

	require.Len(t, frames, 1)
	assert.Equal(t, types.FrameError, frames[0].Type)
	assert.Equal(t, http.StatusUnauthorized, frames[0].Status)
	assert.Equal(t, websocket.StatusPolicyViolation, websocket.CloseStatus(err))
}

func TestChatSocket_UpstreamFailure(t *testing.T) {
	f := newChatFixture(t, 50, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	})
	conn, ctx := dialChat(t, f)

	sendFirst(t, ctx, conn, testToken(t, "user-1"), `[{"role":"user","content":"Hi"}]`)
	frames, err := readFrames(t, ctx, conn)

	require.Len(t, frames, 1)
	assert.Equal(t, websocket.StatusPolicyViolation, websocket.CloseStatus(err))
	assert.Equal(t, http.StatusPaymentRequired, frames[0].Status)
	assert.Equal(t, "AI credits exhausted. Please add credits and try again.", frames[0].Error)
}

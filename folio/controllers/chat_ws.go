package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"folio/folio/config"
	"folio/folio/middlewares"
	"folio/folio/services/chatstream"
	"folio/folio/types"
	"folio/folio/utils/apperr"
	"folio/folio/utils/logging"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

const socketHandshakeTimeout = 10 * time.Second

// ChatSocket handles GET /chat/ws. The first text frame carries the token
// and the messages; the reply is a sequence of delta frames and a done frame.
func (c *ChatController) ChatSocket(cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			logging.AppLogger.Info("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.CloseNow()

		ctx := r.Context()
		readCtx, cancel := context.WithTimeout(ctx, socketHandshakeTimeout)
		typ, data, err := conn.Read(readCtx)
		cancel()
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			conn.Close(websocket.StatusUnsupportedData, "unsupported data")
			return
		}

		var input types.ChatSocketRequest
		if err := json.Unmarshal(data, &input); err != nil {
			failSocket(ctx, conn, apperr.BadRequest("invalid json"))
			return
		}
		principal, err := middlewares.VerifyToken(cfg, input.Token)
		if err != nil {
			failSocket(ctx, conn, apperr.Unauthorized("Unauthorized"))
			return
		}

		resp, _, err := c.Open(ctx, principal, input.Messages)
		if err != nil {
			failSocket(ctx, conn, err)
			return
		}
		defer resp.Body.Close()

		dec := chatstream.NewDecoder()
		buf := make([]byte, relayBufferSize)
		for {
			n, rerr := resp.Body.Read(buf)
			if n > 0 {
				deltas, done := dec.Feed(buf[:n])
				if err := writeDeltas(ctx, conn, deltas); err != nil {
					return
				}
				if done {
					break
				}
			}
			if rerr == io.EOF {
				break
			}
			if rerr != nil {
				logging.ErrorLogger.Error("chat upstream read failed", zap.String("principal", principal), zap.Error(rerr))
				failSocket(ctx, conn, apperr.FromUpstreamStatus(0, rerr))
				return
			}
		}
		if err := writeDeltas(ctx, conn, dec.Flush()); err != nil {
			return
		}
		if err := writeFrame(ctx, conn, types.ChatFrame{Type: types.FrameDone}); err != nil {
			return
		}
		conn.Close(websocket.StatusNormalClosure, "")
	}
}

func writeDeltas(ctx context.Context, conn *websocket.Conn, deltas []string) error {
	for _, d := range deltas {
		if err := writeFrame(ctx, conn, types.ChatFrame{Type: types.FrameDelta, Content: d}); err != nil {
			return err
		}
	}
	return nil
}

func writeFrame(ctx context.Context, conn *websocket.Conn, frame types.ChatFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

// failSocket reports err as an error frame and closes the connection:
// client errors with a policy violation, server errors as internal.
func failSocket(ctx context.Context, conn *websocket.Conn, err error) {
	e := apperr.As(err)
	status := e.Kind.Status()
	_ = writeFrame(ctx, conn, types.ChatFrame{Type: types.FrameError, Status: status, Error: e.Message})
	code := websocket.StatusPolicyViolation
	if status >= http.StatusInternalServerError {
		code = websocket.StatusInternalError
	}
	conn.Close(code, e.Kind.String())
}

package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"unicode/utf8"

	"folio/folio/middlewares"
	"folio/folio/prompts"
	"folio/folio/services/llm"
	"folio/folio/services/ratelimit"
	"folio/folio/types"
	"folio/folio/utils/apperr"
	httputils "folio/folio/utils/http"
	"folio/folio/utils/logging"

	"go.uber.org/zap"
)

const (
	MaxMessages       = 30
	MaxMessageRunes   = 10000
	relayBufferSize   = 32 * 1024
	msgInvalidPayload = "Invalid payload: messages must be an array"
	msgNoMessages     = "Invalid payload: no valid messages"
	msgRateLimited    = "Rate limit exceeded. Please try again later."
)

// ChatGateway opens a streaming completion upstream.
type ChatGateway interface {
	StreamChat(ctx context.Context, messages []types.ChatMessage) (*http.Response, error)
}

type ChatController struct {
	gateway ChatGateway
	limiter *ratelimit.Limiter
	prompts *prompts.Prompts
}

func NewChatController(gateway ChatGateway, limiter *ratelimit.Limiter, p *prompts.Prompts) *ChatController {
	return &ChatController{gateway: gateway, limiter: limiter, prompts: p}
}

// ValidateMessages keeps user and assistant messages with non-empty string
// content of at most MaxMessageRunes characters, then the last MaxMessages of
// those. raw must be a JSON array.
func ValidateMessages(raw json.RawMessage) ([]types.ChatMessage, error) {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return nil, apperr.BadRequest(msgInvalidPayload)
	}

	out := make([]types.ChatMessage, 0, len(items))
	for _, item := range items {
		var m struct {
			Role    any `json:"role"`
			Content any `json:"content"`
		}
		if json.Unmarshal(item, &m) != nil {
			continue
		}
		role, _ := m.Role.(string)
		content, ok := m.Content.(string)
		if !ok || content == "" || utf8.RuneCountInString(content) > MaxMessageRunes {
			continue
		}
		if role != types.RoleUser && role != types.RoleAssistant {
			continue
		}
		out = append(out, types.ChatMessage{Role: role, Content: content})
	}
	if len(out) > MaxMessages {
		out = out[len(out)-MaxMessages:]
	}
	if len(out) == 0 {
		return nil, apperr.BadRequest(msgNoMessages)
	}
	return out, nil
}

// Open runs the quota check and validation for principal and starts the
// upstream stream. The decision is returned even on error so callers can
// report quota headers.
func (c *ChatController) Open(ctx context.Context, principal string, raw json.RawMessage) (*http.Response, ratelimit.Decision, error) {
	decision := c.limiter.Check(ctx, principal, ratelimit.EndpointChat)
	if !decision.Allowed {
		return nil, decision, apperr.New(apperr.KindRateLimited, msgRateLimited)
	}

	messages, err := ValidateMessages(raw)
	if err != nil {
		return nil, decision, err
	}

	upstream := make([]types.ChatMessage, 0, len(messages)+1)
	upstream = append(upstream, types.ChatMessage{Role: types.RoleSystem, Content: c.prompts.Chat.System})
	upstream = append(upstream, messages...)

	resp, err := c.gateway.StreamChat(ctx, upstream)
	if err != nil {
		return nil, decision, upstreamError(err)
	}
	return resp, decision, nil
}

func upstreamError(err error) error {
	var up *llm.UpstreamError
	if errors.As(err, &up) {
		return apperr.FromUpstreamStatus(up.Status, err)
	}
	return apperr.FromUpstreamStatus(0, err)
}

// Relay handles POST /chat: it streams the upstream SSE body to the caller
// unchanged, flushing after every read.
func (c *ChatController) Relay(w http.ResponseWriter, r *http.Request) {
	principal, ok := middlewares.PrincipalID(r.Context())
	if !ok {
		httputils.WriteError(w, r, apperr.Unauthorized("Unauthorized"))
		return
	}

	var body struct {
		Messages json.RawMessage `json:"messages"`
	}
	// an unreadable body is reported by validation as a missing array
	_ = json.NewDecoder(r.Body).Decode(&body)

	resp, decision, err := c.Open(r.Context(), principal, body.Messages)
	httputils.SetRateLimitHeaders(w, decision.Limit, decision.Remaining)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}
	defer resp.Body.Close()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	buf := make([]byte, relayBufferSize)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				logging.AppLogger.Info("chat client went away", zap.String("principal", principal), zap.Error(werr))
				return
			}
			_ = rc.Flush()
		}
		if rerr == io.EOF {
			return
		}
		if rerr != nil {
			if r.Context().Err() == nil {
				logging.ErrorLogger.Error("chat upstream read failed", zap.String("principal", principal), zap.Error(rerr))
			}
			return
		}
	}
}

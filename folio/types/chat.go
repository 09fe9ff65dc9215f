package types

import "encoding/json"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

// ChatSocketRequest is the first frame a client sends on /chat/ws.
type ChatSocketRequest struct {
	Token    string          `json:"token"`
	Messages json.RawMessage `json:"messages"`
}

// ChatFrame is one server frame on /chat/ws.
type ChatFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Status  int    `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

const (
	FrameDelta = "delta"
	FrameDone  = "done"
	FrameError = "error"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

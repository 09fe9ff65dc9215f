package chatstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"folio/folio/types"
)

const readBufferSize = 4096

// ErrNoToken is returned by a TokenSource that has no credential to offer.
var ErrNoToken = errors.New("not signed in")

// TokenSource hands out the bearer token for the next request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

func (s StaticToken) Token(ctx context.Context) (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

// HTTPError carries the status and message of a failed chat request.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("chat request failed (%d): %s", e.Status, e.Message)
}

func statusOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status
	}
	return 0
}

func IsUnauthorized(err error) bool    { return statusOf(err) == http.StatusUnauthorized }
func IsRateLimited(err error) bool     { return statusOf(err) == http.StatusTooManyRequests }
func IsPaymentRequired(err error) bool { return statusOf(err) == http.StatusPaymentRequired }

type Client struct {
	endpoint   string
	tokens     TokenSource
	httpClient *http.Client
}

// NewClient returns a client posting to endpoint, the full URL of the chat
// relay. A nil httpClient uses http.DefaultClient.
func NewClient(endpoint string, tokens TokenSource, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{endpoint: endpoint, tokens: tokens, httpClient: httpClient}
}

// StreamChat sends messages to the relay and calls onDelta for every content
// fragment in order. onDone runs exactly once on every return path. After ctx
// is cancelled no further deltas are delivered.
func (c *Client) StreamChat(ctx context.Context, messages []types.ChatMessage, onDelta func(string), onDone func()) (err error) {
	if onDone != nil {
		defer onDone()
	}
	if onDelta == nil {
		onDelta = func(string) {}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil || token == "" {
		return &HTTPError{Status: http.StatusUnauthorized, Message: "Please sign in to use the chat."}
	}

	body, err := json.Marshal(types.ChatRequest{Messages: messages})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{Status: resp.StatusCode, Message: errorMessage(resp)}
	}

	dec := NewDecoder()
	emit := func(deltas []string) {
		for _, d := range deltas {
			if ctx.Err() != nil {
				return
			}
			onDelta(d)
		}
	}

	buf := make([]byte, readBufferSize)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			deltas, done := dec.Feed(buf[:n])
			emit(deltas)
			if done {
				break
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return rerr
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	emit(dec.Flush())
	return ctx.Err()
}

// errorMessage prefers an {"error": ...} body, then the raw text, then a
// generic message.
func errorMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var parsed types.ErrorResponse
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error != "" {
		return parsed.Error
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return fmt.Sprintf("Failed to start stream (%d)", resp.StatusCode)
}

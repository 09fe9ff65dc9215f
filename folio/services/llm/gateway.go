// Package llm talks to the OpenAI-compatible AI gateway.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"folio/folio/types"
	"folio/folio/utils/logging"

	"go.uber.org/zap"
)

// UpstreamError is a non-2xx answer from the gateway.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("ai gateway returned %d: %s", e.Status, e.Body)
}

type streamRequest struct {
	Model    string              `json:"model"`
	Messages []types.ChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
}

type GatewayClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	retries    int
}

// NewGatewayClient builds a client whose transport bounds connect and
// response-header time, but never the body, so long streams are not cut.
func NewGatewayClient(baseURL, apiKey, model string, headerTimeout time.Duration) *GatewayClient {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext
	transport.ResponseHeaderTimeout = headerTimeout
	return &GatewayClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Transport: transport},
		retries:    1,
	}
}

func (c *GatewayClient) Model() string { return c.model }

// StreamChat opens a streaming chat completion. On success the caller owns
// the returned response and must close its body. A non-2xx status comes back
// as *UpstreamError; transport failures are retried once.
func (c *GatewayClient) StreamChat(ctx context.Context, messages []types.ChatMessage) (*http.Response, error) {
	defer logging.LogDuration(ctx, "gateway_stream_chat")()

	body, err := json.Marshal(streamRequest{Model: c.model, Messages: messages, Stream: true})
	if err != nil {
		return nil, err
	}

	var resp *http.Response
	for attempt := 0; attempt <= c.retries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err = c.httpClient.Do(req)
		if err == nil {
			break
		}
		if ctx.Err() != nil || attempt == c.retries || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		logging.AppLogger.Warn("ai gateway request failed, retrying", zap.Int("attempt", attempt+1), zap.Error(err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		upErr := &UpstreamError{Status: resp.StatusCode, Body: string(b)}
		logging.ErrorLogger.Error("ai gateway error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", upErr.Body))
		return nil, upErr
	}
	return resp, nil
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"folio/folio/utils/logging"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// Completer runs a single non-streaming completion.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Model() string
}

type CompletionClient struct {
	client *openai.Client
	model  string
}

func NewCompletionClient(baseURL, apiKey, model string, timeout time.Duration) *CompletionClient {
	opts := []option.RequestOption{
		option.WithBaseURL(baseURL + "/"),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithMiddleware(retryTransportErrors(1)),
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	client := openai.NewClient(opts...)
	return &CompletionClient{client: &client, model: model}
}

// retryTransportErrors resends a request up to n times when no response came
// back at all. Status failures are returned to the caller untouched.
func retryTransportErrors(n int) option.Middleware {
	return func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		resp, err := next(req)
		for attempt := 0; attempt < n && err != nil && resp == nil && req.Context().Err() == nil; attempt++ {
			if req.GetBody != nil {
				body, berr := req.GetBody()
				if berr != nil {
					return nil, err
				}
				req.Body = body
			} else if req.Body != nil {
				return nil, err
			}
			logging.AppLogger.Warn("retrying ai gateway completion",
				zap.Int("attempt", attempt+1), zap.Error(err))
			resp, err = next(req)
		}
		return resp, err
	}
}

func (c *CompletionClient) Model() string { return c.model }

// Complete sends a system and a user message and returns the first choice's
// text. Gateway status failures come back as *UpstreamError.
func (c *CompletionClient) Complete(ctx context.Context, system, user string) (string, error) {
	defer logging.LogDuration(ctx, "gateway_complete")()

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			logging.ErrorLogger.Error("ai gateway completion error",
				zap.Int("status", apiErr.StatusCode),
				zap.String("body", apiErr.RawJSON()))
			return "", &UpstreamError{Status: apiErr.StatusCode, Body: apiErr.RawJSON()}
		}
		return "", fmt.Errorf("ai gateway completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Generation favors creativity, optimization favors determinism. Both share
// the same output-token cap.
var (
	GenerateOptions = CallOptions{Temperature: 0.7, MaxTokens: 4000}
	OptimizeOptions = CallOptions{Temperature: 0.5, MaxTokens: 4000}
)

type CallOptions struct {
	Temperature float64
	MaxTokens   int
}

// Client talks to an OpenAI-compatible chat-completions endpoint. Works with
// any provider exposing the same surface (DeepSeek, Qwen, etc.).
type Client struct {
	api      openai.Client
	model    string
	provider string
}

func NewClient(baseURL, apiKey, model, provider string) *Client {
	return &Client{
		api: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/"),
			option.WithMaxRetries(0),
			option.WithRequestTimeout(120*time.Second),
		),
		model:    model,
		provider: provider,
	}
}

// Generate sends one prompt under the given system role and returns the raw
// model reply. Non-2xx responses and transport failures come back as
// *RemoteServiceError; there are no retries.
func (c *Client) Generate(ctx context.Context, prompt, systemRole string, opts CallOptions) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemRole),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(opts.Temperature),
		MaxTokens:   openai.Int(int64(opts.MaxTokens)),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			message := apiErr.Message
			if message == "" {
				message = apiErr.Error()
			}
			return "", &RemoteServiceError{Provider: c.provider, StatusCode: apiErr.StatusCode, Message: message, Err: err}
		}
		return "", &RemoteServiceError{Provider: c.provider, Message: "request failed", Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &RemoteServiceError{Provider: c.provider, Message: "response contained no choices"}
	}
	return resp.Choices[0].Message.Content, nil
}

// Model reports the configured model name, for logging.
func (c *Client) Model() string {
	return fmt.Sprintf("%s/%s", c.provider, c.model)
}

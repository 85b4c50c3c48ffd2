// Package openai implements the llm.Summarizer interface against any
// OpenAI-compatible chat-completions endpoint, including local servers such
// as LM Studio or Ollama.
//
// The request is sent over a plain HTTP client rather than a full SDK
// transport for better compatibility with self-hosted endpoints, using the
// openai-go message parameter types for the payload shape.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"

	"github.com/entrhq/ctxguard/pkg/llm"
)

const (
	// DefaultBaseURL targets a local LM Studio style server.
	DefaultBaseURL = "http://127.0.0.1:1234"

	// DefaultModel is a placeholder accepted by local servers that serve a
	// single loaded model regardless of the requested name.
	DefaultModel = "local-model"

	// defaultTimeout bounds the whole summarization attempt. Hitting it is
	// treated like any other transport failure.
	defaultTimeout = 60 * time.Second

	summaryTemperature = 0.7
	summaryMaxTokens   = 500
)

// Client talks to one chat-completions endpoint with one model.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
}

// Option configures a Client.
type Option func(*Client)

// WithModel sets the model requested for completions.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at a different OpenAI-compatible server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a summarization client. The API key may be empty: local
// servers do not require one, and the Authorization header is only sent when
// a key is present.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Summarize sends the rendered prompt as a single user message and returns
// the first choice's content, trimmed. Exactly one attempt is made; all
// failures map onto the llm error taxonomy so the caller can fall back.
func (c *Client) Summarize(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model": c.model,
		"messages": []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		"temperature": summaryTemperature,
		"max_tokens":  summaryMaxTokens,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", llm.ErrTransport, err)
	}

	url := c.baseURL + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", llm.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", llm.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%w: %d from %s", llm.ErrStatus, resp.StatusCode, url)
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("%w: %v", llm.ErrDecode, err)
	}

	if len(completion.Choices) == 0 {
		return "", llm.ErrEmptyResponse
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", llm.ErrEmptyResponse
	}
	return content, nil
}

// Model returns the model name requested for completions.
func (c *Client) Model() string {
	return c.model
}

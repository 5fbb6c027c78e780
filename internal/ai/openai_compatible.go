package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docchat/internal/metrics"
)

const (
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 2000
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is one gateway call. An empty Model falls back to the
// client's configured model. MaxTokens of zero means the client default for
// blocking calls and no limit for streamed calls.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int
}

type ClientConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Referer string
	Title   string
	Timeout time.Duration
}

// Client talks to an OpenAI-compatible chat completion gateway.
type Client struct {
	httpClient *http.Client
	cfg        ClientConfig
}

func NewClient(cfg ClientConfig) *Client {
	return NewClientWithHTTP(cfg, nil)
}

// NewClientWithHTTP lets callers supply the transport; nil uses a client with
// cfg.Timeout (or DefaultTimeout).
func NewClientWithHTTP(cfg ClientConfig, httpClient *http.Client) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{httpClient: httpClient, cfg: cfg}
}

func (c *Client) DefaultModel() string {
	return c.cfg.Model
}

type completionPayload struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

func (c *Client) newRequest(ctx context.Context, req CompletionRequest, stream bool) (*http.Request, error) {
	payload := completionPayload{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      stream,
	}
	if payload.Model == "" {
		payload.Model = c.cfg.Model
	}
	if !stream && payload.MaxTokens <= 0 {
		payload.MaxTokens = DefaultMaxTokens
	}

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal llm request failed: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("build llm request failed: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if c.cfg.Referer != "" {
		httpReq.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		httpReq.Header.Set("X-Title", c.cfg.Title)
	}
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	return httpReq, nil
}

// Complete performs a blocking completion and returns the first choice's text.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	start := time.Now()
	text, err := c.complete(ctx, req)
	metrics.CaptureGatewayCall("complete", outcome(err), time.Since(start))
	return text, err
}

func (c *Client) complete(ctx context.Context, req CompletionRequest) (string, error) {
	httpReq, err := c.newRequest(ctx, req, false)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyTransportError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &GatewayError{StatusCode: resp.StatusCode, Message: upstreamMessage(raw)}
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &GatewayError{StatusCode: resp.StatusCode, Message: "parse llm json failed: " + err.Error()}
	}
	if len(parsed.Choices) == 0 {
		return "", &GatewayError{StatusCode: resp.StatusCode, Message: "empty llm choices"}
	}
	return parsed.Choices[0].Message.Content, nil
}

// Stream opens a streamed completion. The caller must Close the returned
// stream; cancelling ctx also tears the connection down.
func (c *Client) Stream(ctx context.Context, req CompletionRequest) (*Stream, error) {
	start := time.Now()
	httpReq, err := c.newRequest(ctx, req, true)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		err = classifyTransportError(err)
		metrics.CaptureGatewayCall("stream", outcome(err), time.Since(start))
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		resp.Body.Close()
		err = &GatewayError{StatusCode: resp.StatusCode, Message: upstreamMessage(raw)}
		metrics.CaptureGatewayCall("stream", outcome(err), time.Since(start))
		return nil, err
	}

	s := NewStream(resp.Body)
	s.onClose = func(err error) {
		metrics.CaptureGatewayCall("stream", outcome(err), time.Since(start))
	}
	return s, nil
}

// upstreamMessage pulls error.message out of an OpenAI style error body and
// falls back to the raw text.
func upstreamMessage(raw []byte) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		return "empty response body"
	}
	return msg
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrGatewayTimeout):
		return "timeout"
	default:
		return "error"
	}
}

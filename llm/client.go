// LLMClient - wrapper around providers exposing the Gateway used by tools
// and the orchestrator.

package llm

import (
	"context"
	"log/slog"
	"time"
)

// Request is one generative call: a system instruction, ordered content
// parts, and an optional response format.
type Request struct {
	System string
	Parts  []Part
	Format *ResponseFormat
	// Label names the call site for logs and metrics, e.g. "tool:validate_eligibility".
	Label string
}

// Gateway is the generative completion service consumed by tools and the
// orchestrator.
type Gateway interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(ctx context.Context, req Request) (string, error)

// Generate calls f.
func (f GatewayFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Observer receives one notification per completed gateway call.
type Observer interface {
	ObserveLLMCall(provider, label string, duration time.Duration, err error)
}

// Client wraps a Provider with a simple interface.
type Client struct {
	provider Provider
	logger   *slog.Logger
	observer Observer
}

// NewClient creates a new LLM client from a provider.
func NewClient(provider Provider) *Client {
	return &Client{provider: provider, logger: slog.Default()}
}

// WithLogger sets the logger used for call diagnostics.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// WithObserver sets a call observer (typically a metrics recorder).
func (c *Client) WithObserver(observer Observer) *Client {
	c.observer = observer
	return c
}

// Generate sends req as a system message plus one multi-part user message.
// Calls are not retried; failures are returned to the caller as-is.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	messages := make([]ChatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, SystemMessage(req.System))
	}
	messages = append(messages, ChatMessage{Role: "user", Parts: req.Parts})

	start := time.Now()
	response, err := c.provider.ChatWithFormat(ctx, messages, req.Format)
	elapsed := time.Since(start)

	if c.observer != nil {
		c.observer.ObserveLLMCall(c.provider.Name(), req.Label, elapsed, err)
	}
	if err != nil {
		c.logger.Error("llm call failed",
			"provider", c.provider.Name(),
			"model", c.provider.Model(),
			"label", req.Label,
			"duration", elapsed,
			"error", err)
		return "", err
	}

	attrs := []any{"provider", c.provider.Name(), "label", req.Label, "duration", elapsed}
	if response.Usage != nil {
		attrs = append(attrs, "total_tokens", response.Usage.TotalTokens)
	}
	c.logger.Debug("llm call completed", attrs...)
	return response.Content, nil
}

// Chat sends a chat completion request and returns just the content.
func (c *Client) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	response, err := c.provider.Chat(ctx, messages)
	if err != nil {
		return "", err
	}
	return response.Content, nil
}

// ChatWithFormat sends a chat completion request with response format
// and returns just the content.
func (c *Client) ChatWithFormat(ctx context.Context, messages []ChatMessage, format *ResponseFormat) (string, error) {
	response, err := c.provider.ChatWithFormat(ctx, messages, format)
	if err != nil {
		return "", err
	}
	return response.Content, nil
}

// Provider returns the underlying provider.
func (c *Client) Provider() Provider {
	return c.provider
}

// Verify Client implements Gateway
var _ Gateway = (*Client)(nil)

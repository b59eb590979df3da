package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Abraxas-365/hireflow/internal/ai/fallback"
)

// Request is a single prompt/response exchange.
type Request struct {
	System      string
	Prompt      string
	JSON        bool
	MaxTokens   int
	Temperature float64
}

// Client is a chat-completion provider.
type Client interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// ErrEmptyResponse is returned when a provider answers with no text.
var ErrEmptyResponse = errors.New("model returned empty response")

// ============================================================================
// Chain
// ============================================================================

// Chain is a Client that tries each configured client in order.
type Chain struct {
	clients []Client
	chain   fallback.Chain
}

// NewChain builds a fallback client. Nil clients are skipped so optional
// providers can be passed unconditionally.
func NewChain(timeout time.Duration, clients ...Client) *Chain {
	active := make([]Client, 0, len(clients))
	for _, c := range clients {
		if c != nil {
			active = append(active, c)
		}
	}
	return &Chain{clients: active, chain: fallback.NewChain("llm", timeout)}
}

func (c *Chain) Name() string {
	names := make([]string, len(c.clients))
	for i, cl := range c.clients {
		names[i] = cl.Name()
	}
	return strings.Join(names, ">")
}

// Len reports how many providers the chain holds.
func (c *Chain) Len() int { return len(c.clients) }

func (c *Chain) Complete(ctx context.Context, req Request) (string, error) {
	steps := make([]fallback.Step[string], len(c.clients))
	for i, cl := range c.clients {
		cl := cl
		steps[i] = fallback.Step[string]{
			Name:    cl.Name(),
			Timeout: fallback.TimeoutOf(cl),
			Call:    func(ctx context.Context) (string, error) { return cl.Complete(ctx, req) },
		}
	}

	res, err := fallback.Run(ctx, c.chain, steps...)
	if err != nil {
		return "", err
	}
	return res.Value, nil
}

// WithTimeout bounds each call to client made through a Chain. A nil client
// stays nil so the chain still skips it.
func WithTimeout(client Client, timeout time.Duration) Client {
	if client == nil {
		return nil
	}
	return &timedClient{Client: client, timeout: timeout}
}

type timedClient struct {
	Client
	timeout time.Duration
}

func (c *timedClient) CallTimeout() time.Duration { return c.timeout }

// ============================================================================
// Helpers
// ============================================================================

// ExtractJSON strips markdown fences and any prose around the outermost
// JSON object.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.TrimSpace(raw)

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

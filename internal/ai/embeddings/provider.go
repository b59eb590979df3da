package embeddings

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Provider turns texts into vectors. Implementations return exactly one
// vector per input text, in input order.
type Provider interface {
	Name() string
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// WithTimeout bounds each call to p made by the Service. The name is kept so
// stored vectors still record the underlying model.
func WithTimeout(p Provider, timeout time.Duration) Provider {
	return &timedProvider{Provider: p, timeout: timeout}
}

type timedProvider struct {
	Provider
	timeout time.Duration
}

func (p *timedProvider) CallTimeout() time.Duration { return p.timeout }

var (
	// ErrAllProvidersFailed is returned when no provider produced a vector.
	ErrAllProvidersFailed = errors.New("all embedding providers failed")
	ErrEmptyText          = errors.New("text cannot be empty")
)

func checkCount(provider string, got, want int) error {
	if got != want {
		return fmt.Errorf("%s returned %d embeddings for %d texts", provider, got, want)
	}
	return nil
}

func checkDims(provider string, vectors [][]float32, dims int) error {
	if dims <= 0 {
		return nil
	}
	for i, v := range vectors {
		if len(v) != dims {
			return fmt.Errorf("%s returned %d dimensions at index %d, want %d", provider, len(v), i, dims)
		}
	}
	return nil
}

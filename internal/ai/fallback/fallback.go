package fallback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abraxas-365/hireflow/internal/metrics"
	"github.com/Abraxas-365/hireflow/pkg/logx"
)

// ErrNoProviders is returned when a chain is run with no steps.
var ErrNoProviders = errors.New("no providers configured")

// Step is one provider attempt in a chain.
type Step[T any] struct {
	Name string
	// Timeout replaces the chain timeout for this step when positive.
	Timeout time.Duration
	Call    func(ctx context.Context) (T, error)
}

// Bounded is implemented by providers that carry their own call timeout.
type Bounded interface {
	CallTimeout() time.Duration
}

// TimeoutOf returns the call timeout of a Bounded provider, or zero.
func TimeoutOf(provider any) time.Duration {
	if b, ok := provider.(Bounded); ok {
		return b.CallTimeout()
	}
	return 0
}

// Result carries the value and the name of the provider that produced it.
type Result[T any] struct {
	Value    T
	Provider string
}

// Chain tries providers in order, each bounded by the step timeout or, when
// the step has none, the chain timeout.
// The first success wins. Every failure is logged and counted.
type Chain struct {
	name    string
	timeout time.Duration
}

// NewChain builds a chain. A zero timeout leaves calls bounded only by the
// caller's context.
func NewChain(name string, timeout time.Duration) Chain {
	return Chain{name: name, timeout: timeout}
}

func (c Chain) Name() string { return c.name }

// Run executes steps in order until one succeeds. When all fail the returned
// error joins every provider error.
func Run[T any](ctx context.Context, c Chain, steps ...Step[T]) (Result[T], error) {
	if len(steps) == 0 {
		return Result[T]{}, ErrNoProviders
	}

	var errs []error
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		value, err := attempt(ctx, c, step)
		if err == nil {
			return Result[T]{Value: value, Provider: step.Name}, nil
		}

		logx.Warnf("%s: provider %s failed: %v", c.name, step.Name, err)
		errs = append(errs, fmt.Errorf("%s: %w", step.Name, err))
	}

	return Result[T]{}, errors.Join(errs...)
}

func attempt[T any](ctx context.Context, c Chain, step Step[T]) (T, error) {
	timeout := c.timeout
	if step.Timeout > 0 {
		timeout = step.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	metrics.ProviderAttempts.WithLabelValues(c.name, step.Name).Inc()
	start := time.Now()
	value, err := step.Call(ctx)
	metrics.ProviderDuration.WithLabelValues(c.name, step.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderFailures.WithLabelValues(c.name, step.Name).Inc()
	}
	return value, err
}

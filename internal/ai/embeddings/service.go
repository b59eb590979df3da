package embeddings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Abraxas-365/hireflow/internal/ai/fallback"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
	"github.com/Abraxas-365/hireflow/pkg/logx"
)

// Embedding is one vector plus the provider that produced it. Vectors from
// different providers live in different spaces.
type Embedding struct {
	Vector   []float32 `json:"vector"`
	Provider string    `json:"provider"`
	Digest   string    `json:"digest"`
}

// BatchItem is the outcome for one input of a batch call.
type BatchItem struct {
	Embedding Embedding
	Err       error
}

// Cache stores primary-provider embeddings by key.
type Cache interface {
	Get(ctx context.Context, key string) (*Embedding, error)
	Set(ctx context.Context, key string, e Embedding) error
}

type Config struct {
	BatchSize   int
	Concurrency int
	Timeout     time.Duration
}

// Service embeds text through an ordered list of providers. The first
// provider is primary; the rest are tried in order when it fails.
type Service struct {
	providers   []Provider
	chain       fallback.Chain
	cache       Cache
	batchSize   int
	concurrency int
}

func NewService(providers []Provider, cfg Config, cache Cache) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Service{
		providers:   providers,
		chain:       fallback.NewChain("embeddings", cfg.Timeout),
		cache:       cache,
		batchSize:   cfg.BatchSize,
		concurrency: cfg.Concurrency,
	}
}

// PrimaryModel names the provider whose vectors are preferred in the index.
func (s *Service) PrimaryModel() string {
	if len(s.providers) == 0 {
		return ""
	}
	return s.providers[0].Name()
}

// ============================================================================
// Single
// ============================================================================

// Embed returns the vector of text from the first provider that succeeds.
func (s *Service) Embed(ctx context.Context, text string) (Embedding, error) {
	if strings.TrimSpace(text) == "" {
		return Embedding{}, ErrEmptyText
	}
	digest := kernel.TextDigest(text)

	if e, ok := s.cached(ctx, digest); ok {
		return e, nil
	}

	e, err := s.embedOne(ctx, s.providers, text, digest)
	if err != nil {
		return Embedding{}, err
	}
	s.store(ctx, e)
	return e, nil
}

func (s *Service) embedOne(ctx context.Context, providers []Provider, text, digest string) (Embedding, error) {
	steps := make([]fallback.Step[[]float32], len(providers))
	for i, p := range providers {
		p := p
		steps[i] = fallback.Step[[]float32]{
			Name:    p.Name(),
			Timeout: fallback.TimeoutOf(p),
			Call: func(ctx context.Context) ([]float32, error) {
				vecs, err := p.EmbedTexts(ctx, []string{text})
				if err != nil {
					return nil, err
				}
				if err := checkCount(p.Name(), len(vecs), 1); err != nil {
					return nil, err
				}
				return vecs[0], nil
			},
		}
	}

	res, err := fallback.Run(ctx, s.chain, steps...)
	if err != nil {
		return Embedding{}, fmt.Errorf("%w: %v", ErrAllProvidersFailed, err)
	}
	return Embedding{Vector: res.Value, Provider: res.Provider, Digest: digest}, nil
}

// ============================================================================
// Batch
// ============================================================================

// EmbedBatch embeds texts with one primary call. If that call fails, each
// text is retried on its own through the secondary providers. The result
// has one item per input, in input order.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) []BatchItem {
	items := make([]BatchItem, len(texts))
	digests := make([]string, len(texts))
	pending := make([]int, 0, len(texts))

	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			items[i].Err = ErrEmptyText
			continue
		}
		digests[i] = kernel.TextDigest(t)
		if e, ok := s.cached(ctx, digests[i]); ok {
			items[i].Embedding = e
			continue
		}
		pending = append(pending, i)
	}
	if len(pending) == 0 || len(s.providers) == 0 {
		for _, i := range pending {
			items[i].Err = ErrAllProvidersFailed
		}
		return items
	}

	batch := make([]string, len(pending))
	for j, i := range pending {
		batch[j] = texts[i]
	}

	primary := s.providers[0]
	res, err := fallback.Run(ctx, s.chain, fallback.Step[[][]float32]{
		Name:    primary.Name(),
		Timeout: fallback.TimeoutOf(primary),
		Call: func(ctx context.Context) ([][]float32, error) {
			vecs, err := primary.EmbedTexts(ctx, batch)
			if err != nil {
				return nil, err
			}
			return vecs, checkCount(primary.Name(), len(vecs), len(batch))
		},
	})
	if err == nil {
		for j, i := range pending {
			items[i].Embedding = Embedding{Vector: res.Value[j], Provider: primary.Name(), Digest: digests[i]}
			s.store(ctx, items[i].Embedding)
		}
		return items
	}

	logx.Warnf("embedding batch of %d failed on %s, retrying items individually: %v", len(batch), primary.Name(), err)
	for _, i := range pending {
		e, err := s.embedOne(ctx, s.providers[1:], texts[i], digests[i])
		if err != nil {
			items[i].Err = err
			continue
		}
		items[i].Embedding = e
	}
	return items
}

// EmbedAll splits texts into batches and runs them with bounded
// concurrency. A failing batch only affects its own items.
func (s *Service) EmbedAll(ctx context.Context, texts []string) []BatchItem {
	items := make([]BatchItem, len(texts))

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for start := 0; start < len(texts); start += s.batchSize {
		start := start
		end := min(start+s.batchSize, len(texts))
		g.Go(func() error {
			copy(items[start:end], s.EmbedBatch(ctx, texts[start:end]))
			return nil
		})
	}
	_ = g.Wait()

	return items
}

// ============================================================================
// Cache
// ============================================================================

func (s *Service) cacheKey(digest string) string {
	return s.PrimaryModel() + ":" + digest
}

func (s *Service) cached(ctx context.Context, digest string) (Embedding, bool) {
	if s.cache == nil {
		return Embedding{}, false
	}
	e, err := s.cache.Get(ctx, s.cacheKey(digest))
	if err != nil {
		logx.Warnf("embedding cache get: %v", err)
		return Embedding{}, false
	}
	if e == nil {
		return Embedding{}, false
	}
	return *e, true
}

// store caches primary-provider results only, so a degraded vector is
// recomputed once the primary recovers.
func (s *Service) store(ctx context.Context, e Embedding) {
	if s.cache == nil || e.Provider != s.PrimaryModel() {
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey(e.Digest), e); err != nil {
		logx.Warnf("embedding cache set: %v", err)
	}
}

package matchingsrv

import (
	"context"
	"time"

	"github.com/Abraxas-365/hireflow/internal/ai/embeddings"
	"github.com/Abraxas-365/hireflow/internal/ai/reranker"
	"github.com/Abraxas-365/hireflow/internal/ai/resumeparser"
	"github.com/Abraxas-365/hireflow/recruitment/matching"
	"github.com/Abraxas-365/hireflow/recruitment/matching/extractor"
)

const (
	DefaultConfidenceThreshold = 0.7
	DefaultLimit               = 10
	DefaultMaxSyncAttempts     = 3
)

// Annotator fills in what the rule-based extractor missed.
type Annotator interface {
	Annotate(ctx context.Context, text string) (*resumeparser.Annotation, error)
}

// Embedder turns profile text into vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) (embeddings.Embedding, error)
	EmbedAll(ctx context.Context, texts []string) []embeddings.BatchItem
	PrimaryModel() string
}

// Reranker judges a pool against one subject.
type Reranker interface {
	Rerank(ctx context.Context, subject, itemKind string, items []reranker.Item) (reranker.Outcome, error)
}

type Config struct {
	ConfidenceThreshold float64
	AllowUnlistedSkills bool
	DefaultLimit        int
	// RerankJobs enables the AI pass when ranking jobs for a candidate.
	RerankJobs bool
	// RerankTimeout bounds the whole reranker call, every provider step included.
	RerankTimeout   time.Duration
	MaxSyncAttempts int
}

// Service runs extraction, ranking and embedding sync.
type Service struct {
	extractor  *extractor.Extractor
	embedder   Embedder
	index      matching.VectorIndex
	annotator  Annotator
	reranker   Reranker
	candidates matching.CandidateDirectory
	jobs       matching.JobDirectory
	queue      matching.SyncQueue
	cfg        Config
	now        func() time.Time
}

type Option func(*Service)

// WithAnnotator enables the AI fallback for low-confidence extractions.
func WithAnnotator(a Annotator) Option {
	return func(s *Service) { s.annotator = a }
}

// WithReranker enables the AI re-ranking pass.
func WithReranker(r Reranker) Option {
	return func(s *Service) { s.reranker = r }
}

func WithCandidateDirectory(d matching.CandidateDirectory) Option {
	return func(s *Service) { s.candidates = d }
}

func WithJobDirectory(d matching.JobDirectory) Option {
	return func(s *Service) { s.jobs = d }
}

func WithSyncQueue(q matching.SyncQueue) Option {
	return func(s *Service) { s.queue = q }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates the matching service. The embedder and index may be
// nil when only extraction and pool ranking are used.
func NewService(ext *extractor.Extractor, embedder Embedder, index matching.VectorIndex, cfg Config, opts ...Option) *Service {
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultLimit
	}
	if cfg.MaxSyncAttempts <= 0 {
		cfg.MaxSyncAttempts = DefaultMaxSyncAttempts
	}

	s := &Service{
		extractor: ext,
		embedder:  embedder,
		index:     index,
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

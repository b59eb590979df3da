package matchingsrv

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Abraxas-365/hireflow/internal/ai/embeddings"
	"github.com/Abraxas-365/hireflow/internal/ai/reranker"
	"github.com/Abraxas-365/hireflow/internal/ai/resumeparser"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
	"github.com/Abraxas-365/hireflow/recruitment/matching"
	"github.com/Abraxas-365/hireflow/recruitment/matching/extractor"
)

var fixedNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func newExtractor(t *testing.T) *extractor.Extractor {
	t.Helper()
	e, err := extractor.New(nil, extractor.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return e
}

// ----------------------------------------------------------------------------
// Annotator

type stubAnnotator struct {
	ann   *resumeparser.Annotation
	err   error
	calls int
}

func (s *stubAnnotator) Annotate(context.Context, string) (*resumeparser.Annotation, error) {
	s.calls++
	return s.ann, s.err
}

// ----------------------------------------------------------------------------
// Reranker

type stubReranker struct {
	scores  map[string]float64
	err     error
	calls   int
	items   []reranker.Item
	subject string
}

func (s *stubReranker) Rerank(_ context.Context, subject, _ string, items []reranker.Item) (reranker.Outcome, error) {
	s.calls++
	s.items = items
	s.subject = subject
	if s.err != nil {
		return reranker.Outcome{}, s.err
	}
	out := reranker.Outcome{Judgements: map[string]reranker.Judgement{}}
	for _, it := range items {
		if score, ok := s.scores[it.ID]; ok {
			out.Judgements[it.ID] = reranker.Judgement{ID: it.ID, Score: score, Reasons: []string{"AI says " + it.ID}}
		}
	}
	return out, nil
}

// ----------------------------------------------------------------------------
// Embedding providers

type failingProvider struct{ name string }

func (f failingProvider) Name() string { return f.name }

func (f failingProvider) EmbedTexts(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("provider down")
}

// recoveringProvider fails while down and otherwise embeds like inner.
type recoveringProvider struct {
	name  string
	inner embeddings.Provider
	down  atomic.Bool
}

func (r *recoveringProvider) Name() string { return r.name }

func (r *recoveringProvider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if r.down.Load() {
		return nil, errors.New("provider down")
	}
	return r.inner.EmbedTexts(ctx, texts)
}

func hashingEmbedder() *embeddings.Service {
	return embeddings.NewService([]embeddings.Provider{embeddings.NewHashingProvider(64)}, embeddings.Config{}, nil)
}

// ----------------------------------------------------------------------------
// Directories

type directory struct {
	candidates map[kernel.CandidateID]matching.CandidateProfile
	jobs       map[kernel.JobID]matching.JobProfile
}

func newDirectory(jobs []matching.JobProfile, candidates []matching.CandidateProfile) *directory {
	d := &directory{
		candidates: map[kernel.CandidateID]matching.CandidateProfile{},
		jobs:       map[kernel.JobID]matching.JobProfile{},
	}
	for _, j := range jobs {
		d.jobs[j.ID] = j
	}
	for _, c := range candidates {
		d.candidates[c.ID] = c
	}
	return d
}

func (d *directory) GetCandidates(_ context.Context, ids []kernel.CandidateID) ([]matching.CandidateProfile, error) {
	out := make([]matching.CandidateProfile, 0, len(ids))
	for _, id := range ids {
		if c, ok := d.candidates[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (d *directory) GetJobs(_ context.Context, ids []kernel.JobID) ([]matching.JobProfile, error) {
	out := make([]matching.JobProfile, 0, len(ids))
	for _, id := range ids {
		if j, ok := d.jobs[id]; ok {
			out = append(out, j)
		}
	}
	return out, nil
}

// brokenDirectory fails every lookup, as an unreachable backend does.
type brokenDirectory struct{ err error }

func (d brokenDirectory) GetCandidates(context.Context, []kernel.CandidateID) ([]matching.CandidateProfile, error) {
	return nil, d.err
}

func (d brokenDirectory) GetJobs(context.Context, []kernel.JobID) ([]matching.JobProfile, error) {
	return nil, d.err
}

// ----------------------------------------------------------------------------
// Queue

type delayedCall struct {
	id    kernel.SyncJobID
	delay time.Duration
}

type stubQueue struct {
	mu       sync.Mutex
	enqueued []kernel.SyncJobID
	delayed  []delayedCall
	err      error
}

func (q *stubQueue) Enqueue(_ context.Context, id kernel.SyncJobID, _ any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, id)
	return nil
}

func (q *stubQueue) Dequeue(context.Context, time.Duration) ([]byte, error) { return nil, nil }

func (q *stubQueue) EnqueueDelayed(_ context.Context, id kernel.SyncJobID, _ any, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.delayed = append(q.delayed, delayedCall{id: id, delay: delay})
	return nil
}

func (q *stubQueue) MoveDelayedToReady(context.Context) (int, error) { return 0, nil }

// ----------------------------------------------------------------------------
// Fixtures

func intPtr(v int) *int { return &v }

func candidate(id string, skills ...string) matching.CandidateProfile {
	return matching.CandidateProfile{ID: kernel.NewCandidateID(id), Name: "Candidate " + id, Skills: skills}
}

func job(id string, required ...string) matching.JobProfile {
	return matching.JobProfile{ID: kernel.NewJobID(id), Title: "Engineer " + id, RequiredSkills: required}
}

func ids(r matching.Ranking) []string {
	out := make([]string, len(r.Matches))
	for i, m := range r.Matches {
		out[i] = m.TargetID()
	}
	return out
}

package matchingsrv

import (
	"context"
	"sort"
	"time"

	"github.com/Abraxas-365/hireflow/internal/ai/reranker"
	"github.com/Abraxas-365/hireflow/internal/metrics"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
	"github.com/Abraxas-365/hireflow/pkg/logx"
	"github.com/Abraxas-365/hireflow/recruitment/matching"
)

// poolFactor sizes the pool relative to the requested limit so the AI pass
// can reorder without starving the result.
const poolFactor = 2

// scored is one pool member on its way through SCORE, AI_RERANK and FINALIZE.
type scored struct {
	result      matching.MatchResult
	description string
}

// ============================================================================
// Candidates for a job
// ============================================================================

// RankCandidatesForJob ranks a given applicant pool against a job. An empty
// pool yields an empty_pool ranking, never an error.
func (s *Service) RankCandidatesForJob(ctx context.Context, job matching.JobProfile, candidates []matching.CandidateProfile, limit int, useAI bool) (matching.Ranking, error) {
	return s.rankCandidates(ctx, job, candidates, nil, limit, useAI), nil
}

// RankCandidatesFromIndex collects the limit*2 candidates nearest to the job
// in the similarity index and ranks them.
func (s *Service) RankCandidatesFromIndex(ctx context.Context, job matching.JobProfile, limit int, useAI bool) (matching.Ranking, error) {
	if s.candidates == nil || s.index == nil {
		return matching.Ranking{}, matching.ErrInvalidInput().
			WithDetail("reason", "candidate directory and index are required")
	}
	limit = s.limit(limit)

	hits, degraded, err := s.collect(ctx, job.ID.String(), matching.OwnerJob, job.EmbeddingText(), matching.OwnerCandidate, limit*poolFactor)
	if err != nil {
		return matching.Ranking{}, err
	}
	if len(hits) == 0 {
		r := matching.EmptyRanking(matching.DirectionCandidatesForJob)
		r.Degraded = degraded
		return r, nil
	}

	ids := make([]kernel.CandidateID, len(hits))
	sims := make(map[string]float64, len(hits))
	for i, h := range hits {
		ids[i] = kernel.NewCandidateID(h.OwnerID)
		sims[h.OwnerID] = h.Similarity
	}

	pool, err := s.candidates.GetCandidates(ctx, ids)
	if err != nil {
		return matching.Ranking{}, matching.ErrRegistry.NewWithCause(matching.CodeDirectoryFailed, err).
			WithDetail("owner_type", matching.OwnerCandidate).
			WithDetail("requested", len(ids))
	}

	r := s.rankCandidates(ctx, job, pool, sims, limit, useAI)
	r.Degraded = r.Degraded || degraded
	return r, nil
}

func (s *Service) rankCandidates(ctx context.Context, job matching.JobProfile, candidates []matching.CandidateProfile, sims map[string]float64, limit int, useAI bool) matching.Ranking {
	start := time.Now()
	limit = s.limit(limit)
	dir := matching.DirectionCandidatesForJob

	if len(candidates) == 0 {
		return matching.EmptyRanking(dir)
	}

	pool := make([]scored, len(candidates))
	for i, c := range candidates {
		c = s.enrich(c)
		o := matching.ScoreOverlap(job.RequiredSkills, c.Skills)
		pool[i] = scored{
			result: matching.MatchResult{
				CandidateID:     c.ID,
				Score:           o.Score,
				MatchedTerms:    o.Matched,
				MissingTerms:    o.Missing,
				AdditionalTerms: o.Additional,
				OverlapCount:    len(o.Matched),
				Similarity:      similarity(sims, c.ID.String()),
				Reasons:         keywordReasons(job, c, o),
				ScoredBy:        matching.ScoredByKeyword,
			},
			description: c.EmbeddingText(),
		}
	}

	ranking := matching.Ranking{Direction: dir, Status: matching.RankingRanked, PoolSize: len(pool)}
	if useAI && s.reranker != nil {
		ranking.UsedAI, ranking.Degraded = s.rerank(ctx, dir, "Job:\n"+job.EmbeddingText(), "candidates", pool, limit)
	}

	ranking.Matches = finalize(pool, limit)
	observeRanking(ranking, start)
	return ranking
}

// ============================================================================
// Jobs for a candidate
// ============================================================================

// RankJobsForCandidate ranks jobs against one candidate. Required skills of
// each job are compared with the candidate's skills.
func (s *Service) RankJobsForCandidate(ctx context.Context, candidate matching.CandidateProfile, jobs []matching.JobProfile, limit int) (matching.Ranking, error) {
	return s.rankJobs(ctx, candidate, jobs, nil, limit), nil
}

// RankJobsFromIndex collects the limit*2 jobs nearest to the candidate in the
// similarity index and ranks them.
func (s *Service) RankJobsFromIndex(ctx context.Context, candidate matching.CandidateProfile, limit int) (matching.Ranking, error) {
	if s.jobs == nil || s.index == nil {
		return matching.Ranking{}, matching.ErrInvalidInput().
			WithDetail("reason", "job directory and index are required")
	}
	limit = s.limit(limit)
	candidate = s.enrich(candidate)

	hits, degraded, err := s.collect(ctx, candidate.ID.String(), matching.OwnerCandidate, candidate.EmbeddingText(), matching.OwnerJob, limit*poolFactor)
	if err != nil {
		return matching.Ranking{}, err
	}
	if len(hits) == 0 {
		r := matching.EmptyRanking(matching.DirectionJobsForCandidate)
		r.Degraded = degraded
		return r, nil
	}

	ids := make([]kernel.JobID, len(hits))
	sims := make(map[string]float64, len(hits))
	for i, h := range hits {
		ids[i] = kernel.NewJobID(h.OwnerID)
		sims[h.OwnerID] = h.Similarity
	}

	pool, err := s.jobs.GetJobs(ctx, ids)
	if err != nil {
		return matching.Ranking{}, matching.ErrRegistry.NewWithCause(matching.CodeDirectoryFailed, err).
			WithDetail("owner_type", matching.OwnerJob).
			WithDetail("requested", len(ids))
	}

	r := s.rankJobs(ctx, candidate, pool, sims, limit)
	r.Degraded = r.Degraded || degraded
	return r, nil
}

func (s *Service) rankJobs(ctx context.Context, candidate matching.CandidateProfile, jobs []matching.JobProfile, sims map[string]float64, limit int) matching.Ranking {
	start := time.Now()
	limit = s.limit(limit)
	dir := matching.DirectionJobsForCandidate

	if len(jobs) == 0 {
		return matching.EmptyRanking(dir)
	}
	candidate = s.enrich(candidate)

	pool := make([]scored, len(jobs))
	for i, j := range jobs {
		o := matching.ScoreOverlap(j.RequiredSkills, candidate.Skills)
		pool[i] = scored{
			result: matching.MatchResult{
				JobID:           j.ID,
				Score:           o.Score,
				MatchedTerms:    o.Matched,
				MissingTerms:    o.Missing,
				AdditionalTerms: o.Additional,
				OverlapCount:    len(o.Matched),
				Similarity:      similarity(sims, j.ID.String()),
				Reasons:         keywordReasons(j, candidate, o),
				ScoredBy:        matching.ScoredByKeyword,
			},
			description: j.EmbeddingText(),
		}
	}

	ranking := matching.Ranking{Direction: dir, Status: matching.RankingRanked, PoolSize: len(pool)}
	if s.cfg.RerankJobs && s.reranker != nil {
		ranking.UsedAI, ranking.Degraded = s.rerank(ctx, dir, "Candidate:\n"+candidate.EmbeddingText(), "jobs", pool, limit)
	}

	ranking.Matches = finalize(pool, limit)
	observeRanking(ranking, start)
	return ranking
}

// ============================================================================
// Stages
// ============================================================================

// collect finds the k nearest owners of type target. The subject's stored
// vector is used when it is current for the primary model; otherwise the
// subject text is embedded. Only vectors of the query vector's model are
// compared. degraded is set when no fresh vector could be produced and a
// stored one was used instead, or none at all, and when the pool is empty
// only because the index holds vectors of other models.
func (s *Service) collect(ctx context.Context, subjectID string, subjectType matching.OwnerType, text string, target matching.OwnerType, k int) ([]matching.Hit, bool, error) {
	digest := kernel.TextDigest(text)
	primary := ""
	if s.embedder != nil {
		primary = s.embedder.PrimaryModel()
	}

	var stored *matching.EmbeddingVector
	if subjectID != "" {
		v, err := s.index.Get(ctx, subjectID, subjectType)
		if err == nil {
			stored = v
		}
	}

	var vector []float32
	var model string
	degraded := false
	switch {
	case stored != nil && !stored.Stale(digest, primary):
		vector, model = stored.Vector, stored.Model
	case s.embedder != nil:
		e, err := s.embedder.Embed(ctx, text)
		if err == nil {
			vector, model = e.Vector, e.Provider
			if e.Provider != primary {
				logx.Warnf("Query vector for %s %s came from secondary provider %s", subjectType, subjectID, e.Provider)
			}
			break
		}
		logx.Warnf("Embedding %s %s failed: %v", subjectType, subjectID, err)
		degraded = true
		if stored != nil {
			vector, model = stored.Vector, stored.Model
		}
	default:
		degraded = true
		if stored != nil {
			vector, model = stored.Vector, stored.Model
		}
	}

	if len(vector) == 0 {
		return nil, degraded, nil
	}

	hits, err := s.index.Query(ctx, vector, k, matching.Filter{OwnerType: target, Model: model})
	if err != nil {
		return nil, degraded, err
	}
	if len(hits) == 0 && model != "" {
		others, err := s.index.Query(ctx, vector, 1, matching.Filter{OwnerType: target})
		if err == nil && len(others) > 0 {
			logx.Warnf("No %s vectors from model %s; the index holds other models, sync again to re-embed", target, model)
			degraded = true
		}
	}
	return hits, degraded, nil
}

// rerank sends the top limit*2 of the pool to the reranker and applies its
// verdicts in place. It reports whether the AI pass ran and whether the call
// failed as a whole.
func (s *Service) rerank(ctx context.Context, dir matching.Direction, subject, itemKind string, pool []scored, limit int) (usedAI, degraded bool) {
	sortPool(pool)
	window := min(len(pool), limit*poolFactor)

	items := make([]reranker.Item, window)
	for i := 0; i < window; i++ {
		items[i] = reranker.Item{
			ID:          pool[i].result.TargetID(),
			Description: pool[i].description,
			Baseline:    pool[i].result.Score,
		}
	}

	rctx := ctx
	if s.cfg.RerankTimeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, s.cfg.RerankTimeout)
		defer cancel()
	}

	outcome, err := s.reranker.Rerank(rctx, subject, itemKind, items)
	if err != nil {
		logx.Warnf("AI re-ranking failed for %s, keeping keyword scores: %v", dir, err)
		metrics.RankingsDegraded.WithLabelValues(string(dir)).Inc()
		return false, true
	}

	for i := 0; i < window; i++ {
		r := &pool[i].result
		j, ok := outcome.Judgements[r.TargetID()]
		if !ok {
			r.Reasons = []string{}
			continue
		}
		r.Score = j.Score
		r.Reasons = j.Reasons
		r.ScoredBy = matching.ScoredByAI
	}
	return true, false
}

// finalize orders the pool and truncates it to limit.
func finalize(pool []scored, limit int) []matching.MatchResult {
	sortPool(pool)
	n := min(len(pool), limit)
	out := make([]matching.MatchResult, n)
	for i := 0; i < n; i++ {
		out[i] = pool[i].result
	}
	return out
}

// sortPool orders by score desc, overlap count desc, then id.
func sortPool(pool []scored) {
	sort.SliceStable(pool, func(i, j int) bool {
		a, b := pool[i].result, pool[j].result
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.OverlapCount != b.OverlapCount {
			return a.OverlapCount > b.OverlapCount
		}
		return a.TargetID() < b.TargetID()
	})
}

// ============================================================================
// Helpers
// ============================================================================

func (s *Service) limit(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultLimit
	}
	return limit
}

// enrich fills in skills from the resume text when a candidate has none.
func (s *Service) enrich(c matching.CandidateProfile) matching.CandidateProfile {
	if len(c.Skills) > 0 || c.ResumeText == "" || s.extractor == nil {
		return c
	}
	return c.WithExtracted(s.extractor.Extract(c.ResumeText))
}

func similarity(sims map[string]float64, id string) *float64 {
	sim, ok := sims[id]
	if !ok {
		return nil
	}
	n := matching.NormalizeSimilarity(sim)
	return &n
}

func observeRanking(r matching.Ranking, start time.Time) {
	mode := "keyword"
	if r.UsedAI {
		mode = "ai"
	}
	metrics.RankingDuration.WithLabelValues(string(r.Direction), mode).Observe(time.Since(start).Seconds())
}

package matchingsrv

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Abraxas-365/hireflow/internal/metrics"
	"github.com/Abraxas-365/hireflow/pkg/errx"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
	"github.com/Abraxas-365/hireflow/pkg/logx"
	"github.com/Abraxas-365/hireflow/recruitment/matching"
)

// syncItem is one profile waiting to be embedded.
type syncItem struct {
	ownerID   string
	ownerType matching.OwnerType
	text      string
	digest    string
	metadata  map[string]string
}

// ============================================================================
// Sync
// ============================================================================

// SyncProfiles embeds every job and candidate whose stored vector is missing
// or stale and upserts the result. Profiles are independent: a failure is
// recorded in the report and does not stop the others.
func (s *Service) SyncProfiles(ctx context.Context, jobs []matching.JobProfile, candidates []matching.CandidateProfile) matching.SyncReport {
	report := matching.SyncReport{Items: make([]matching.SyncItemResult, 0, len(jobs)+len(candidates))}

	items := make([]syncItem, 0, len(jobs)+len(candidates))
	for _, j := range jobs {
		items = append(items, newSyncItem(j.ID.String(), matching.OwnerJob, j.EmbeddingText(), jobMetadata(j)))
	}
	for _, c := range candidates {
		c = s.enrich(c)
		items = append(items, newSyncItem(c.ID.String(), matching.OwnerCandidate, c.EmbeddingText(), nil))
	}

	if s.embedder == nil || s.index == nil {
		for _, it := range items {
			report.Add(failedItem(it, "embedding service and index are required"))
		}
		recordSync(report)
		return report
	}

	results := make([]*matching.SyncItemResult, len(items))
	pending := make([]int, 0, len(items))
	primary := s.embedder.PrimaryModel()

	for i, it := range items {
		switch {
		case it.ownerID == "":
			r := failedItem(it, "owner id is empty")
			results[i] = &r
		case strings.TrimSpace(it.text) == "":
			r := failedItem(it, "profile has no text to embed")
			results[i] = &r
		case s.isCurrent(ctx, it, primary):
			results[i] = &matching.SyncItemResult{OwnerID: it.ownerID, OwnerType: it.ownerType, Outcome: matching.SyncUnchanged}
		default:
			pending = append(pending, i)
		}
	}

	if len(pending) > 0 {
		texts := make([]string, len(pending))
		for j, i := range pending {
			texts[j] = items[i].text
		}

		embedded := s.embedder.EmbedAll(ctx, texts)
		for j, i := range pending {
			r := s.store(ctx, items[i], embedded[j].Embedding.Vector, embedded[j].Embedding.Provider, embedded[j].Err)
			results[i] = &r
		}
	}

	for _, r := range results {
		report.Add(*r)
	}
	recordSync(report)

	logx.Infof("Embedding sync finished: embedded=%d unchanged=%d failed=%d", report.Embedded, report.Unchanged, report.Failed)
	return report
}

func (s *Service) isCurrent(ctx context.Context, it syncItem, primary string) bool {
	stored, err := s.index.Get(ctx, it.ownerID, it.ownerType)
	if err != nil {
		if !errx.IsCode(err, matching.CodeVectorNotFound) {
			logx.Warnf("Could not read stored vector for %s %s, re-embedding: %v", it.ownerType, it.ownerID, err)
		}
		return false
	}
	return !stored.Stale(it.digest, primary)
}

func (s *Service) store(ctx context.Context, it syncItem, vector []float32, provider string, embedErr error) matching.SyncItemResult {
	if embedErr != nil {
		logx.Warnf("Embedding %s %s failed: %v", it.ownerType, it.ownerID, embedErr)
		return failedItem(it, embedErr.Error())
	}

	err := s.index.Upsert(ctx, matching.EmbeddingVector{
		OwnerID:    it.ownerID,
		OwnerType:  it.ownerType,
		Vector:     vector,
		TextDigest: it.digest,
		Model:      provider,
		Metadata:   it.metadata,
		UpdatedAt:  s.now(),
	})
	if err != nil {
		return failedItem(it, err.Error())
	}
	return matching.SyncItemResult{
		OwnerID:   it.ownerID,
		OwnerType: it.ownerType,
		Outcome:   matching.SyncEmbedded,
		Provider:  provider,
	}
}

// ============================================================================
// Sync jobs
// ============================================================================

// EnqueueSync queues profiles for background embedding.
func (s *Service) EnqueueSync(ctx context.Context, jobs []matching.JobProfile, candidates []matching.CandidateProfile) (*matching.SyncJob, error) {
	if s.queue == nil {
		return nil, matching.ErrQueueEnqueueFailed().WithDetail("reason", "no sync queue configured")
	}
	if len(jobs)+len(candidates) == 0 {
		return nil, matching.ErrInvalidInput().WithDetail("reason", "nothing to sync")
	}

	job := &matching.SyncJob{
		ID:          kernel.NewSyncJobID(uuid.NewString()),
		Status:      matching.SyncPending,
		Jobs:        jobs,
		Candidates:  candidates,
		MaxAttempts: s.cfg.MaxSyncAttempts,
		CreatedAt:   s.now(),
	}

	if err := s.queue.Enqueue(ctx, job.ID, job); err != nil {
		return nil, matching.ErrRegistry.NewWithCause(matching.CodeQueueEnqueueFailed, err).
			WithDetail("job_id", job.ID).
			WithDetail("profiles", len(jobs)+len(candidates))
	}

	logx.Infof("Sync job queued: JobID=%s, Jobs=%d, Candidates=%d", job.ID, len(jobs), len(candidates))
	return job, nil
}

// ProcessSyncJob runs one queued sync. Profiles that failed are queued
// again with exponential backoff until MaxAttempts is reached.
func (s *Service) ProcessSyncJob(ctx context.Context, job *matching.SyncJob) (matching.SyncReport, error) {
	logx.Infof("Processing sync job: JobID=%s, Attempt=%d/%d", job.ID, job.AttemptCount+1, job.MaxAttempts)
	job.Status = matching.SyncProcessing

	report := s.SyncProfiles(ctx, job.Jobs, job.Candidates)
	if report.Failed == 0 {
		job.Status = matching.SyncCompleted
		job.ErrorMessage = ""
		logx.Infof("Sync job completed: JobID=%s", job.ID)
		return report, nil
	}

	return report, s.handleSyncFailure(ctx, job, report)
}

func (s *Service) handleSyncFailure(ctx context.Context, job *matching.SyncJob, report matching.SyncReport) error {
	job.AttemptCount++
	if job.MaxAttempts <= 0 {
		job.MaxAttempts = s.cfg.MaxSyncAttempts
	}
	job.ErrorMessage = firstError(report)
	job.Jobs, job.Candidates = failedProfiles(job, report)

	details := map[string]any{
		"failed":       report.Failed,
		"attempt":      job.AttemptCount,
		"max_attempts": job.MaxAttempts,
		"error":        job.ErrorMessage,
	}

	if job.AttemptCount >= job.MaxAttempts {
		job.Status = matching.SyncFailed
		logx.Errorf("Sync job permanently failed: JobID=%s, Failed=%d, Attempts=%d/%d",
			job.ID, report.Failed, job.AttemptCount, job.MaxAttempts)
		return matching.ErrSyncMaxRetries().
			WithDetail("job_id", job.ID).
			WithDetails(details)
	}

	if s.queue == nil {
		job.Status = matching.SyncFailed
		return matching.ErrSyncRetryFailed().
			WithDetail("job_id", job.ID).
			WithDetail("reason", "no sync queue configured").
			WithDetails(details)
	}

	retryDelay := time.Duration(1<<uint(job.AttemptCount)) * time.Minute
	nextRetry := s.now().Add(retryDelay)
	job.NextRetryAt = &nextRetry
	job.Status = matching.SyncPending

	if err := s.queue.EnqueueDelayed(ctx, job.ID, job, retryDelay); err != nil {
		job.Status = matching.SyncFailed
		logx.Errorf("Failed to enqueue sync job for retry: %v", err)
		return matching.ErrRegistry.NewWithCause(matching.CodeSyncRetryFailed, err).
			WithDetail("job_id", job.ID).
			WithDetails(details)
	}

	logx.Warnf("Sync job will retry: JobID=%s, Failed=%d, Attempt=%d/%d, NextRetry=%v",
		job.ID, report.Failed, job.AttemptCount, job.MaxAttempts, nextRetry)
	return nil
}

// ============================================================================
// Helpers
// ============================================================================

func newSyncItem(id string, typ matching.OwnerType, text string, meta map[string]string) syncItem {
	return syncItem{ownerID: id, ownerType: typ, text: text, digest: kernel.TextDigest(text), metadata: meta}
}

func jobMetadata(j matching.JobProfile) map[string]string {
	meta := map[string]string{}
	if j.Location != "" {
		meta["location"] = j.Location
	}
	if j.ExperienceLevel != "" {
		meta["experience_level"] = strings.ToLower(j.ExperienceLevel)
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

func failedItem(it syncItem, msg string) matching.SyncItemResult {
	return matching.SyncItemResult{OwnerID: it.ownerID, OwnerType: it.ownerType, Outcome: matching.SyncErrored, Error: msg}
}

func recordSync(report matching.SyncReport) {
	for _, it := range report.Items {
		metrics.SyncItems.WithLabelValues(string(it.OwnerType), string(it.Outcome)).Inc()
	}
}

func firstError(report matching.SyncReport) string {
	for _, it := range report.Items {
		if it.Outcome == matching.SyncErrored {
			return fmt.Sprintf("%s %s: %s", it.OwnerType, it.OwnerID, it.Error)
		}
	}
	return ""
}

// failedProfiles keeps only the profiles that still need embedding.
func failedProfiles(job *matching.SyncJob, report matching.SyncReport) ([]matching.JobProfile, []matching.CandidateProfile) {
	failed := make(map[string]struct{}, report.Failed)
	for _, it := range report.Items {
		if it.Outcome == matching.SyncErrored {
			failed[string(it.OwnerType)+":"+it.OwnerID] = struct{}{}
		}
	}

	var jobs []matching.JobProfile
	for _, j := range job.Jobs {
		if _, ok := failed[string(matching.OwnerJob)+":"+j.ID.String()]; ok {
			jobs = append(jobs, j)
		}
	}
	var candidates []matching.CandidateProfile
	for _, c := range job.Candidates {
		if _, ok := failed[string(matching.OwnerCandidate)+":"+c.ID.String()]; ok {
			candidates = append(candidates, c)
		}
	}
	return jobs, candidates
}

package matching

import (
	"time"

	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

type SyncStatus string

const (
	SyncPending    SyncStatus = "pending"
	SyncProcessing SyncStatus = "processing"
	SyncCompleted  SyncStatus = "completed"
	SyncFailed     SyncStatus = "failed"
)

// SyncJob asks the worker pool to (re)embed a set of profiles.
type SyncJob struct {
	ID           kernel.SyncJobID   `json:"id"`
	Status       SyncStatus         `json:"status"`
	Jobs         []JobProfile       `json:"jobs,omitempty"`
	Candidates   []CandidateProfile `json:"candidates,omitempty"`
	AttemptCount int                `json:"attempt_count"`
	MaxAttempts  int                `json:"max_attempts"`
	ErrorMessage string             `json:"error_message,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	NextRetryAt  *time.Time         `json:"next_retry_at,omitempty"`
}

// SyncOutcome is what happened to one profile during a sync.
type SyncOutcome string

const (
	SyncEmbedded  SyncOutcome = "embedded"
	SyncUnchanged SyncOutcome = "unchanged"
	SyncErrored   SyncOutcome = "failed"
)

type SyncItemResult struct {
	OwnerID   string      `json:"owner_id"`
	OwnerType OwnerType   `json:"owner_type"`
	Outcome   SyncOutcome `json:"outcome"`
	Provider  string      `json:"provider,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// SyncReport summarizes a sync run. Items follow input order, jobs first.
type SyncReport struct {
	Items     []SyncItemResult `json:"items"`
	Embedded  int              `json:"embedded"`
	Unchanged int              `json:"unchanged"`
	Failed    int              `json:"failed"`
}

// Add records one item.
func (r *SyncReport) Add(item SyncItemResult) {
	r.Items = append(r.Items, item)
	switch item.Outcome {
	case SyncEmbedded:
		r.Embedded++
	case SyncUnchanged:
		r.Unchanged++
	case SyncErrored:
		r.Failed++
	}
}

package matching

import (
	"context"
	"time"

	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

// Hit is one similarity query result. Similarity is raw cosine in [-1,1].
type Hit struct {
	OwnerID    string            `json:"owner_id" db:"owner_id"`
	OwnerType  OwnerType         `json:"owner_type" db:"owner_type"`
	Similarity float64           `json:"similarity" db:"similarity"`
	Metadata   map[string]string `json:"metadata,omitempty" db:"-"`
	UpdatedAt  time.Time         `json:"updated_at" db:"updated_at"`
}

// Filter restricts a similarity query. Empty fields do not filter.
type Filter struct {
	OwnerType OwnerType
	// OwnerIDs limits results to these owners when non-empty.
	OwnerIDs []string
	// Metadata requires every key/value pair to be present.
	Metadata map[string]string
	// Model keeps only vectors produced by this embedding model. Vectors
	// of different models live in different spaces even at equal dimension.
	Model string
}

// VectorIndex stores one live vector per (owner, type) and answers
// nearest-neighbour queries by cosine similarity.
type VectorIndex interface {
	// Upsert replaces any existing vector of the same owner and type.
	Upsert(ctx context.Context, v EmbeddingVector) error
	// Query returns up to k hits ordered by similarity desc, then most
	// recently updated, then owner id. An empty index yields no hits.
	Query(ctx context.Context, vector []float32, k int, filter Filter) ([]Hit, error)
	// Remove deletes the vector. Removing a missing vector is not an error.
	Remove(ctx context.Context, ownerID string, ownerType OwnerType) error
	// Get returns the live vector or a VECTOR_NOT_FOUND error.
	Get(ctx context.Context, ownerID string, ownerType OwnerType) (*EmbeddingVector, error)
}

// CandidateDirectory resolves candidate ids returned by the index.
// Profiles are owned by the surrounding portal.
type CandidateDirectory interface {
	GetCandidates(ctx context.Context, ids []kernel.CandidateID) ([]CandidateProfile, error)
}

// JobDirectory resolves job ids returned by the index.
type JobDirectory interface {
	GetJobs(ctx context.Context, ids []kernel.JobID) ([]JobProfile, error)
}

// SyncQueue carries embedding sync jobs to the worker pool.
type SyncQueue interface {
	Enqueue(ctx context.Context, jobID kernel.SyncJobID, payload any) error
	Dequeue(ctx context.Context, timeout time.Duration) ([]byte, error)
	EnqueueDelayed(ctx context.Context, jobID kernel.SyncJobID, payload any, delay time.Duration) error
	MoveDelayedToReady(ctx context.Context) (int, error)
}

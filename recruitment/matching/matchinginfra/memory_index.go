package matchinginfra

import (
	"context"
	"hash/fnv"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Abraxas-365/hireflow/recruitment/matching"
)

// MemoryIndex is an in-process VectorIndex. Owners are spread over shards,
// each with its own lock: writes to different owners proceed in parallel
// and writes to the same owner serialize, last writer wins.
type MemoryIndex struct {
	shards []*indexShard
	seq    atomic.Uint64
}

type indexShard struct {
	mu      sync.RWMutex
	entries map[string]indexEntry
}

type indexEntry struct {
	vector matching.EmbeddingVector
	norm   float64
	seq    uint64
}

var _ matching.VectorIndex = (*MemoryIndex)(nil)

func NewMemoryIndex(shards int) *MemoryIndex {
	if shards <= 0 {
		shards = 16
	}
	idx := &MemoryIndex{shards: make([]*indexShard, shards)}
	for i := range idx.shards {
		idx.shards[i] = &indexShard{entries: make(map[string]indexEntry)}
	}
	return idx
}

func ownerKey(ownerType matching.OwnerType, ownerID string) string {
	return string(ownerType) + ":" + ownerID
}

func (m *MemoryIndex) shardFor(key string) *indexShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return m.shards[h.Sum32()%uint32(len(m.shards))]
}

// ============================================================================
// Writes
// ============================================================================

func (m *MemoryIndex) Upsert(_ context.Context, v matching.EmbeddingVector) error {
	if err := validateVector(v); err != nil {
		return err
	}

	stored := v
	stored.Vector = append([]float32(nil), v.Vector...)
	stored.Metadata = copyMetadata(v.Metadata)
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now()
	}

	key := ownerKey(v.OwnerType, v.OwnerID)
	shard := m.shardFor(key)

	shard.mu.Lock()
	shard.entries[key] = indexEntry{
		vector: stored,
		norm:   norm(stored.Vector),
		seq:    m.seq.Add(1),
	}
	shard.mu.Unlock()
	return nil
}

func (m *MemoryIndex) Remove(_ context.Context, ownerID string, ownerType matching.OwnerType) error {
	key := ownerKey(ownerType, ownerID)
	shard := m.shardFor(key)

	shard.mu.Lock()
	delete(shard.entries, key)
	shard.mu.Unlock()
	return nil
}

// ============================================================================
// Reads
// ============================================================================

func (m *MemoryIndex) Get(_ context.Context, ownerID string, ownerType matching.OwnerType) (*matching.EmbeddingVector, error) {
	key := ownerKey(ownerType, ownerID)
	shard := m.shardFor(key)

	shard.mu.RLock()
	e, ok := shard.entries[key]
	shard.mu.RUnlock()
	if !ok {
		return nil, matching.ErrVectorNotFound().
			WithDetail("owner_id", ownerID).
			WithDetail("owner_type", ownerType)
	}

	out := e.vector
	out.Vector = append([]float32(nil), e.vector.Vector...)
	out.Metadata = copyMetadata(e.vector.Metadata)
	return &out, nil
}

type scoredEntry struct {
	hit matching.Hit
	seq uint64
}

// Query scans every shard. Vectors whose dimension differs from the query
// are not comparable and are skipped.
func (m *MemoryIndex) Query(_ context.Context, vector []float32, k int, filter matching.Filter) ([]matching.Hit, error) {
	if k <= 0 || len(vector) == 0 {
		return []matching.Hit{}, nil
	}
	qNorm := norm(vector)
	ids := idSet(filter.OwnerIDs)

	scored := make([]scoredEntry, 0, 64)
	for _, shard := range m.shards {
		shard.mu.RLock()
		for _, e := range shard.entries {
			v := e.vector
			if !matchesFilter(v, filter, ids) || len(v.Vector) != len(vector) {
				continue
			}
			scored = append(scored, scoredEntry{
				hit: matching.Hit{
					OwnerID:    v.OwnerID,
					OwnerType:  v.OwnerType,
					Similarity: cosine(vector, v.Vector, qNorm, e.norm),
					Metadata:   copyMetadata(v.Metadata),
					UpdatedAt:  v.UpdatedAt,
				},
				seq: e.seq,
			})
		}
		shard.mu.RUnlock()
	}

	sort.Slice(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.hit.Similarity != b.hit.Similarity {
			return a.hit.Similarity > b.hit.Similarity
		}
		if !a.hit.UpdatedAt.Equal(b.hit.UpdatedAt) {
			return a.hit.UpdatedAt.After(b.hit.UpdatedAt)
		}
		if a.seq != b.seq {
			return a.seq > b.seq
		}
		return a.hit.OwnerID < b.hit.OwnerID
	})

	if k > len(scored) {
		k = len(scored)
	}
	out := make([]matching.Hit, k)
	for i := 0; i < k; i++ {
		out[i] = scored[i].hit
	}
	return out, nil
}

// Len reports the number of live vectors.
func (m *MemoryIndex) Len() int {
	n := 0
	for _, shard := range m.shards {
		shard.mu.RLock()
		n += len(shard.entries)
		shard.mu.RUnlock()
	}
	return n
}

// ============================================================================
// Helpers
// ============================================================================

func validateVector(v matching.EmbeddingVector) error {
	switch {
	case v.OwnerID == "":
		return matching.ErrInvalidInput().WithDetail("field", "owner_id")
	case !v.OwnerType.Valid():
		return matching.ErrInvalidInput().WithDetail("field", "owner_type").WithDetail("value", v.OwnerType)
	case len(v.Vector) == 0:
		return matching.ErrInvalidInput().WithDetail("field", "vector").WithDetail("owner_id", v.OwnerID)
	}
	return nil
}

func matchesFilter(v matching.EmbeddingVector, f matching.Filter, ids map[string]struct{}) bool {
	if f.OwnerType != "" && v.OwnerType != f.OwnerType {
		return false
	}
	if f.Model != "" && v.Model != f.Model {
		return false
	}
	if ids != nil {
		if _, ok := ids[v.OwnerID]; !ok {
			return false
		}
	}
	for k, want := range f.Metadata {
		if got, ok := v.Metadata[k]; !ok || got != want {
			return false
		}
	}
	return true
}

func idSet(ids []string) map[string]struct{} {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func copyMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a, b []float32, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (na * nb)
}

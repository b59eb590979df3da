package matchinginfra

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abraxas-365/hireflow/pkg/errx"
	"github.com/Abraxas-365/hireflow/recruitment/matching"
)

func vec(owner string, typ matching.OwnerType, v ...float32) matching.EmbeddingVector {
	return matching.EmbeddingVector{OwnerID: owner, OwnerType: typ, Vector: v, TextDigest: "d-" + owner, Model: "stub"}
}

func TestMemoryIndexUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(4)

	require.NoError(t, idx.Upsert(ctx, vec("c1", matching.OwnerCandidate, 1, 0)))
	require.NoError(t, idx.Upsert(ctx, vec("c1", matching.OwnerCandidate, 1, 0)))
	assert.Equal(t, 1, idx.Len())

	updated := vec("c1", matching.OwnerCandidate, 0, 1)
	updated.TextDigest = "new"
	require.NoError(t, idx.Upsert(ctx, updated))
	assert.Equal(t, 1, idx.Len())

	got, err := idx.Get(ctx, "c1", matching.OwnerCandidate)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, got.Vector)
	assert.Equal(t, "new", got.TextDigest)

	hits, err := idx.Query(ctx, []float32{0, 1}, 10, matching.Filter{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)
}

func TestMemoryIndexSameIDDifferentTypes(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(4)

	require.NoError(t, idx.Upsert(ctx, vec("42", matching.OwnerCandidate, 1, 0)))
	require.NoError(t, idx.Upsert(ctx, vec("42", matching.OwnerJob, 1, 0)))
	assert.Equal(t, 2, idx.Len())

	hits, err := idx.Query(ctx, []float32{1, 0}, 10, matching.Filter{OwnerType: matching.OwnerJob})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, matching.OwnerJob, hits[0].OwnerType)
}

func TestMemoryIndexQueryOrdering(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(4)
	same := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	a := vec("a", matching.OwnerCandidate, 1, 0)
	a.UpdatedAt = same
	b := vec("b", matching.OwnerCandidate, 1, 0)
	b.UpdatedAt = same.Add(time.Hour)
	c := vec("c", matching.OwnerCandidate, 1, 1)
	d := vec("d", matching.OwnerCandidate, -1, 0)

	for _, v := range []matching.EmbeddingVector{a, b, c, d} {
		require.NoError(t, idx.Upsert(ctx, v))
	}

	hits, err := idx.Query(ctx, []float32{1, 0}, 10, matching.Filter{})
	require.NoError(t, err)

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.OwnerID
	}
	// a and b tie on similarity; b was updated more recently.
	assert.Equal(t, []string{"b", "a", "c", "d"}, ids)
	assert.InDelta(t, -1.0, hits[3].Similarity, 1e-9)

	top, err := idx.Query(ctx, []float32{1, 0}, 2, matching.Filter{})
	require.NoError(t, err)
	assert.Len(t, top, 2)
}

func TestMemoryIndexTieBreaksByWriteOrderWhenTimesMatch(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(4)
	same := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, id := range []string{"x", "y", "z"} {
		v := vec(id, matching.OwnerJob, 0, 1)
		v.UpdatedAt = same
		require.NoError(t, idx.Upsert(ctx, v))
	}

	hits, err := idx.Query(ctx, []float32{0, 1}, 3, matching.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "z", hits[0].OwnerID)
	assert.Equal(t, "x", hits[2].OwnerID)
}

func TestMemoryIndexFilters(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(4)

	remote := vec("j1", matching.OwnerJob, 1, 0)
	remote.Metadata = map[string]string{"location": "remote"}
	onsite := vec("j2", matching.OwnerJob, 1, 0)
	onsite.Metadata = map[string]string{"location": "lima"}
	require.NoError(t, idx.Upsert(ctx, remote))
	require.NoError(t, idx.Upsert(ctx, onsite))
	require.NoError(t, idx.Upsert(ctx, vec("j3", matching.OwnerJob, 1, 0, 0)))

	hits, err := idx.Query(ctx, []float32{1, 0}, 10, matching.Filter{Metadata: map[string]string{"location": "remote"}})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "j1", hits[0].OwnerID)

	hits, err = idx.Query(ctx, []float32{1, 0}, 10, matching.Filter{OwnerIDs: []string{"j2", "j3"}})
	require.NoError(t, err)
	require.Len(t, hits, 1, "j3 has a different dimension")
	assert.Equal(t, "j2", hits[0].OwnerID)
}

func TestMemoryIndexQueryFiltersByModel(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(4)

	primary := vec("c1", matching.OwnerCandidate, 1, 0)
	primary.Model = "openai"
	fallback := vec("c2", matching.OwnerCandidate, 1, 0)
	fallback.Model = "hashing"
	require.NoError(t, idx.Upsert(ctx, primary))
	require.NoError(t, idx.Upsert(ctx, fallback))

	hits, err := idx.Query(ctx, []float32{1, 0}, 10, matching.Filter{Model: "openai"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].OwnerID)

	hits, err = idx.Query(ctx, []float32{1, 0}, 10, matching.Filter{})
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestMemoryIndexEmptyAndRemove(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(2)

	hits, err := idx.Query(ctx, []float32{1, 0}, 5, matching.Filter{})
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.NotNil(t, hits)

	require.NoError(t, idx.Remove(ctx, "ghost", matching.OwnerCandidate))

	require.NoError(t, idx.Upsert(ctx, vec("c1", matching.OwnerCandidate, 1, 0)))
	require.NoError(t, idx.Remove(ctx, "c1", matching.OwnerCandidate))
	require.NoError(t, idx.Remove(ctx, "c1", matching.OwnerCandidate))

	_, err = idx.Get(ctx, "c1", matching.OwnerCandidate)
	assert.True(t, errx.IsCode(err, matching.CodeVectorNotFound))
}

func TestMemoryIndexRejectsInvalidVectors(t *testing.T) {
	idx := NewMemoryIndex(2)
	ctx := context.Background()

	assert.True(t, errx.IsCode(idx.Upsert(ctx, vec("", matching.OwnerJob, 1)), matching.CodeInvalidInput))
	assert.True(t, errx.IsCode(idx.Upsert(ctx, vec("a", "resume", 1)), matching.CodeInvalidInput))
	assert.True(t, errx.IsCode(idx.Upsert(ctx, vec("a", matching.OwnerJob)), matching.CodeInvalidInput))
}

func TestMemoryIndexConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(8)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				owner := fmt.Sprintf("c%d", i)
				_ = idx.Upsert(ctx, vec(owner, matching.OwnerCandidate, float32(w+1), 1))
				_, _ = idx.Query(ctx, []float32{1, 1}, 3, matching.Filter{})
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 50, idx.Len())
}

func TestMemoryIndexStoresCopies(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(2)

	v := vec("c1", matching.OwnerCandidate, 1, 0)
	require.NoError(t, idx.Upsert(ctx, v))
	v.Vector[0] = 0

	got, err := idx.Get(ctx, "c1", matching.OwnerCandidate)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, got.Vector)
}

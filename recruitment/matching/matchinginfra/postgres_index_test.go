package matchinginfra

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abraxas-365/hireflow/pkg/errx"
	"github.com/Abraxas-365/hireflow/recruitment/matching"
)

func newMockIndex(t *testing.T) (*PostgresIndex, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresIndex(sqlx.NewDb(db, "postgres")), mock
}

func TestPostgresIndexUpsert(t *testing.T) {
	idx, mock := newMockIndex(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO embedding_vectors")).
		WithArgs("c1", "candidate", sqlmock.AnyArg(), "digest", "hashing", `{"location":"remote"}`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := idx.Upsert(context.Background(), matching.EmbeddingVector{
		OwnerID:    "c1",
		OwnerType:  matching.OwnerCandidate,
		Vector:     []float32{1, 2},
		TextDigest: "digest",
		Model:      "hashing",
		Metadata:   map[string]string{"location": "remote"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresIndexUpsertFailure(t *testing.T) {
	idx, mock := newMockIndex(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO embedding_vectors")).
		WillReturnError(errors.New("connection reset"))

	err := idx.Upsert(context.Background(), matching.EmbeddingVector{
		OwnerID: "j1", OwnerType: matching.OwnerJob, Vector: []float32{1},
	})
	assert.True(t, errx.IsCode(err, matching.CodeIndexFailed))
}

func TestPostgresIndexGet(t *testing.T) {
	idx, mock := newMockIndex(t)
	updated := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"owner_id", "owner_type", "embedding", "text_digest", "model", "metadata", "updated_at"}).
		AddRow("j1", "job", "[1,2]", "digest", "openai", []byte(`{}`), updated)
	mock.ExpectQuery(regexp.QuoteMeta("FROM embedding_vectors")).
		WithArgs("j1", "job").
		WillReturnRows(rows)

	got, err := idx.Get(context.Background(), "j1", matching.OwnerJob)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, got.Vector)
	assert.Equal(t, "openai", got.Model)
	assert.Equal(t, matching.OwnerJob, got.OwnerType)
	assert.Nil(t, got.Metadata)
	assert.True(t, updated.Equal(got.UpdatedAt))
}

func TestPostgresIndexGetMissing(t *testing.T) {
	idx, mock := newMockIndex(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM embedding_vectors")).
		WithArgs("ghost", "candidate").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}))

	_, err := idx.Get(context.Background(), "ghost", matching.OwnerCandidate)
	assert.True(t, errx.IsCode(err, matching.CodeVectorNotFound))
}

func TestPostgresIndexQuery(t *testing.T) {
	idx, mock := newMockIndex(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"owner_id", "owner_type", "similarity", "metadata", "updated_at"}).
		AddRow("c2", "candidate", 0.93, []byte(`{"location":"remote"}`), now).
		AddRow("c1", "candidate", 0.41, []byte(`{}`), now)
	mock.ExpectQuery(regexp.QuoteMeta("1 - (embedding <=> $1) AS similarity")).
		WithArgs(sqlmock.AnyArg(), int64(2), "candidate", sqlmock.AnyArg(), "{}", "openai", int64(5)).
		WillReturnRows(rows)

	hits, err := idx.Query(context.Background(), []float32{0.5, 0.5}, 5, matching.Filter{OwnerType: matching.OwnerCandidate, Model: "openai"})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "c2", hits[0].OwnerID)
	assert.Equal(t, "remote", hits[0].Metadata["location"])
	assert.InDelta(t, 0.41, hits[1].Similarity, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresIndexQueryZeroK(t *testing.T) {
	idx, mock := newMockIndex(t)

	hits, err := idx.Query(context.Background(), []float32{1}, 0, matching.Filter{})
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresIndexRemove(t *testing.T) {
	idx, mock := newMockIndex(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM embedding_vectors")).
		WithArgs("c1", "candidate").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, idx.Remove(context.Background(), "c1", matching.OwnerCandidate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

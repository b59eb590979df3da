package matchinginfra

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/Abraxas-365/hireflow/pkg/logx"
	"github.com/Abraxas-365/hireflow/recruitment/matching"
)

//go:embed migrations/001_embedding_vectors.sql
var schemaSQL string

// PostgresIndex is a VectorIndex backed by pgvector.
type PostgresIndex struct {
	db *sqlx.DB
}

var _ matching.VectorIndex = (*PostgresIndex)(nil)

func NewPostgresIndex(db *sqlx.DB) *PostgresIndex {
	return &PostgresIndex{db: db}
}

// EnsureSchema creates the extension, table and indexes when missing.
func (r *PostgresIndex) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return matching.ErrRegistry.NewWithCause(matching.CodeIndexFailed, err).
			WithDetail("operation", "ensure_schema")
	}
	return nil
}

// ============================================================================
// Writes
// ============================================================================

func (r *PostgresIndex) Upsert(ctx context.Context, v matching.EmbeddingVector) error {
	if err := validateVector(v); err != nil {
		return err
	}
	if v.UpdatedAt.IsZero() {
		v.UpdatedAt = time.Now()
	}

	meta, err := marshalMetadata(v.Metadata)
	if err != nil {
		return matching.ErrInvalidInput().WithDetail("field", "metadata").WithCause(err)
	}

	query := `
		INSERT INTO embedding_vectors (
			owner_id, owner_type, embedding, text_digest, model, metadata, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (owner_id, owner_type) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			text_digest = EXCLUDED.text_digest,
			model = EXCLUDED.model,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at`

	_, err = r.db.ExecContext(ctx, query,
		v.OwnerID,
		string(v.OwnerType),
		pgvector.NewVector(v.Vector),
		v.TextDigest,
		v.Model,
		meta,
		v.UpdatedAt,
	)
	if err != nil {
		logx.Errorf("Failed to upsert embedding for %s %s: %v", v.OwnerType, v.OwnerID, err)
		return matching.ErrRegistry.NewWithCause(matching.CodeIndexFailed, err).
			WithDetail("owner_id", v.OwnerID).
			WithDetail("owner_type", v.OwnerType).
			WithDetail("operation", "upsert")
	}
	return nil
}

func (r *PostgresIndex) Remove(ctx context.Context, ownerID string, ownerType matching.OwnerType) error {
	query := `DELETE FROM embedding_vectors WHERE owner_id = $1 AND owner_type = $2`

	if _, err := r.db.ExecContext(ctx, query, ownerID, string(ownerType)); err != nil {
		return matching.ErrRegistry.NewWithCause(matching.CodeIndexFailed, err).
			WithDetail("owner_id", ownerID).
			WithDetail("owner_type", ownerType).
			WithDetail("operation", "remove")
	}
	return nil
}

// ============================================================================
// Reads
// ============================================================================

type vectorRow struct {
	OwnerID    string          `db:"owner_id"`
	OwnerType  string          `db:"owner_type"`
	Embedding  pgvector.Vector `db:"embedding"`
	TextDigest string          `db:"text_digest"`
	Model      string          `db:"model"`
	Metadata   []byte          `db:"metadata"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

func (r *PostgresIndex) Get(ctx context.Context, ownerID string, ownerType matching.OwnerType) (*matching.EmbeddingVector, error) {
	query := `
		SELECT owner_id, owner_type, embedding, text_digest, model, metadata, updated_at
		FROM embedding_vectors
		WHERE owner_id = $1 AND owner_type = $2`

	row := &vectorRow{}
	if err := r.db.GetContext(ctx, row, query, ownerID, string(ownerType)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, matching.ErrVectorNotFound().
				WithDetail("owner_id", ownerID).
				WithDetail("owner_type", ownerType)
		}
		return nil, matching.ErrRegistry.NewWithCause(matching.CodeIndexFailed, err).
			WithDetail("owner_id", ownerID).
			WithDetail("operation", "get")
	}

	return &matching.EmbeddingVector{
		OwnerID:    row.OwnerID,
		OwnerType:  matching.OwnerType(row.OwnerType),
		Vector:     row.Embedding.Slice(),
		TextDigest: row.TextDigest,
		Model:      row.Model,
		Metadata:   unmarshalMetadata(row.Metadata),
		UpdatedAt:  row.UpdatedAt,
	}, nil
}

type hitRow struct {
	OwnerID    string    `db:"owner_id"`
	OwnerType  string    `db:"owner_type"`
	Similarity float64   `db:"similarity"`
	Metadata   []byte    `db:"metadata"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r *PostgresIndex) Query(ctx context.Context, vector []float32, k int, filter matching.Filter) ([]matching.Hit, error) {
	if k <= 0 || len(vector) == 0 {
		return []matching.Hit{}, nil
	}

	meta, err := marshalMetadata(filter.Metadata)
	if err != nil {
		return nil, matching.ErrInvalidInput().WithDetail("field", "filter.metadata").WithCause(err)
	}
	ids := filter.OwnerIDs
	if ids == nil {
		ids = []string{}
	}

	query := `
		SELECT owner_id, owner_type, 1 - (embedding <=> $1) AS similarity, metadata, updated_at
		FROM embedding_vectors
		WHERE vector_dims(embedding) = $2
			AND ($3 = '' OR owner_type = $3)
			AND (cardinality($4::text[]) = 0 OR owner_id = ANY($4::text[]))
			AND metadata @> $5::jsonb
			AND ($6 = '' OR model = $6)
		ORDER BY similarity DESC, updated_at DESC, owner_id ASC
		LIMIT $7`

	var rows []hitRow
	err = r.db.SelectContext(ctx, &rows, query,
		pgvector.NewVector(vector),
		len(vector),
		string(filter.OwnerType),
		pq.Array(ids),
		meta,
		filter.Model,
		k,
	)
	if err != nil {
		return nil, matching.ErrRegistry.NewWithCause(matching.CodeIndexFailed, err).
			WithDetail("operation", "query").
			WithDetail("owner_type", filter.OwnerType)
	}

	hits := make([]matching.Hit, len(rows))
	for i, row := range rows {
		hits[i] = matching.Hit{
			OwnerID:    row.OwnerID,
			OwnerType:  matching.OwnerType(row.OwnerType),
			Similarity: row.Similarity,
			Metadata:   unmarshalMetadata(row.Metadata),
			UpdatedAt:  row.UpdatedAt,
		}
	}
	return hits, nil
}

// ============================================================================
// Helpers
// ============================================================================

func marshalMetadata(m map[string]string) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalMetadata(b []byte) map[string]string {
	if len(b) == 0 {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil || len(m) == 0 {
		return nil
	}
	return m
}

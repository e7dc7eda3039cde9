package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/yanqian/faq-clustering/internal/domain/search"
)

// PgVectorIndex stores entries in Postgres and ranks them with pgvector's
// cosine distance operator.
type PgVectorIndex struct {
	pool *pgxpool.Pool
}

// NewPgVectorIndex constructs the index. The faq_vectors table is created by
// migrations/001_faq.sql.
func NewPgVectorIndex(pool *pgxpool.Pool) *PgVectorIndex {
	return &PgVectorIndex{pool: pool}
}

func (i *PgVectorIndex) Query(ctx context.Context, namespace string, vector []float32, topK int, filter search.Filter) ([]search.Match, error) {
	filterJSON, err := encodeFilter(filter)
	if err != nil {
		return nil, err
	}
	rows, err := i.pool.Query(ctx, `
		SELECT id, metadata, 1 - (embedding <=> $1) AS score
		FROM faq_vectors
		WHERE namespace = $2 AND metadata @> $3::jsonb
		ORDER BY embedding <=> $1 ASC, id ASC
		LIMIT $4
	`, pgvector.NewVector(vector), namespace, filterJSON, topK)
	if err != nil {
		return nil, fmt.Errorf("query faq vectors: %w", err)
	}
	defer rows.Close()

	var matches []search.Match
	for rows.Next() {
		var (
			match    search.Match
			metadata []byte
		)
		if err := rows.Scan(&match.ID, &metadata, &match.Score); err != nil {
			return nil, fmt.Errorf("scan faq vector: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &match.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata: %w", err)
			}
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

func (i *PgVectorIndex) Upsert(ctx context.Context, namespace string, entries []search.Entry) error {
	batch := &pgx.Batch{}
	for _, e := range entries {
		metadata, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		batch.Queue(`
			INSERT INTO faq_vectors (namespace, id, embedding, metadata)
			VALUES ($1, $2, $3, $4::jsonb)
			ON CONFLICT (namespace, id) DO UPDATE SET
				embedding = EXCLUDED.embedding,
				metadata = EXCLUDED.metadata,
				updated_at = NOW()
		`, namespace, e.ID, pgvector.NewVector(e.Vector), string(metadata))
	}
	return i.pool.SendBatch(ctx, batch).Close()
}

func (i *PgVectorIndex) Delete(ctx context.Context, namespace string, filter search.Filter) error {
	filterJSON, err := encodeFilter(filter)
	if err != nil {
		return err
	}
	_, err = i.pool.Exec(ctx, `DELETE FROM faq_vectors WHERE namespace = $1 AND metadata @> $2::jsonb`, namespace, filterJSON)
	if err != nil {
		return fmt.Errorf("delete faq vectors: %w", err)
	}
	return nil
}

func encodeFilter(filter search.Filter) (string, error) {
	if len(filter) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(filter)
	if err != nil {
		return "", fmt.Errorf("marshal filter: %w", err)
	}
	return string(raw), nil
}

var _ search.VectorIndex = (*PgVectorIndex)(nil)

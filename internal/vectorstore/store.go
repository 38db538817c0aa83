// Package vectorstore persists chunks in a pgvector-backed Postgres table
// and serves nearest-neighbor search over them.
package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"planbase/internal/models"
	"planbase/internal/providers"
)

const defaultSearchLimit = 5

type Store struct {
	pool       *pgxpool.Pool
	embedder   providers.EmbeddingProvider
	dim        int
	collection string
}

func New(ctx context.Context, dsn string, embedder providers.EmbeddingProvider, dim int, collection string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool, embedder: embedder, dim: dim, collection: collection}, nil
}

func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS plan_chunks (
chunk_id  text PRIMARY KEY,
plan_id   text NOT NULL,
content   text NOT NULL,
metadata  jsonb NOT NULL,
embedding vector(%d)
)`, s.dim),
		`CREATE INDEX IF NOT EXISTS plan_chunks_plan_id_idx ON plan_chunks (plan_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Reset clears the collection. The service rebuilds from the documents
// directory on startup rather than ingesting incrementally.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE plan_chunks`); err != nil {
		return fmt.Errorf("reset collection: %w", err)
	}
	return nil
}

// Upsert embeds and stores the given chunks. Chunks with no text are
// skipped with a warning rather than failing the batch. A chunk id already
// present is overwritten; re-ingesting a plan is idempotent. Returns how
// many chunks were written.
func (s *Store) Upsert(ctx context.Context, chunks []models.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(chunks))
	texts := make([]string, 0, len(chunks))
	metas := make([]models.ChunkMetadata, 0, len(chunks))
	for _, c := range chunks {
		if c.Text == "" {
			log.Printf("vectorstore: skipping chunk with empty text (plan_id=%s)", c.Metadata.PlanID)
			continue
		}
		meta := c.Metadata
		if meta.ChunkID == "" {
			meta.ChunkID = uuid.NewString()
		}
		ids = append(ids, meta.ChunkID)
		texts = append(texts, c.Text)
		metas = append(metas, meta)
	}
	if len(ids) == 0 {
		log.Printf("vectorstore: no valid chunks to store")
		return 0, nil
	}

	vectors, _, err := s.embedder.Embed(ctx, providers.EmbedRequest{Inputs: texts, Dimension: s.dim})
	if err != nil {
		return 0, fmt.Errorf("embed %d chunks: %w", len(texts), err)
	}
	if len(vectors) != len(texts) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d inputs", len(vectors), len(texts))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for i := range ids {
		metaJSON, err := json.Marshal(metas[i])
		if err != nil {
			return 0, fmt.Errorf("marshal chunk metadata %s: %w", ids[i], err)
		}
		_, err = tx.Exec(ctx, `
INSERT INTO plan_chunks (chunk_id, plan_id, content, metadata, embedding)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (chunk_id)
DO UPDATE SET
  plan_id = EXCLUDED.plan_id,
  content = EXCLUDED.content,
  metadata = EXCLUDED.metadata,
  embedding = EXCLUDED.embedding`,
			ids[i], metas[i].PlanID, texts[i], metaJSON, pgvector.NewVector(vectors[i]),
		)
		if err != nil {
			return 0, fmt.Errorf("upsert chunk %s: %w", ids[i], err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit upsert tx: %w", err)
	}
	return len(ids), nil
}

// Search embeds the query and returns up to limit nearest chunks by cosine
// distance, optionally restricted to one plan. An empty collection yields
// an empty slice, not an error.
func (s *Store) Search(ctx context.Context, query, planID string, limit int) ([]models.SearchResult, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	vectors, _, err := s.embedder.Embed(ctx, providers.EmbedRequest{Inputs: []string{query}, Dimension: s.dim})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for query", len(vectors))
	}
	qvec := pgvector.NewVector(vectors[0])

	sql := `
SELECT content, metadata, embedding <=> $1 AS distance
FROM plan_chunks
WHERE embedding IS NOT NULL`
	args := []any{qvec}
	if planID != "" {
		sql += ` AND plan_id = $2`
		args = append(args, planID)
	}
	sql += fmt.Sprintf(` ORDER BY embedding <=> $1 LIMIT %d`, limit)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query vector search: %w", err)
	}
	defer rows.Close()

	results := make([]models.SearchResult, 0, limit)
	for rows.Next() {
		var r models.SearchResult
		var metaJSON []byte
		if err := rows.Scan(&r.Text, &metaJSON, &r.Distance); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		if err := json.Unmarshal(metaJSON, &r.Metadata); err != nil {
			return nil, fmt.Errorf("decode chunk metadata: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return results, nil
}

// Info reports the collection size; the query path treats it as a liveness
// signal.
func (s *Store) Info(ctx context.Context) (models.CollectionInfo, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM plan_chunks`).Scan(&count); err != nil {
		return models.CollectionInfo{}, fmt.Errorf("count chunks: %w", err)
	}
	return models.CollectionInfo{
		CollectionName: s.collection,
		DocumentCount:  count,
		HasDocuments:   count > 0,
	}, nil
}

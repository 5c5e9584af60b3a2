package vectorstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PGStore keeps records in Postgres with the pgvector extension.
type PGStore struct {
	pool       *pgxpool.Pool
	dimensions int
}

// NewPool opens and pings a connection pool.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

func NewPGStore(pool *pgxpool.Pool, dimensions int) *PGStore {
	return &PGStore{pool: pool, dimensions: dimensions}
}

// EnsureSchema creates the extension, table and indexes if missing.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS filing_chunks (
			id         TEXT PRIMARY KEY,
			filing_id  TEXT NOT NULL,
			content    TEXT NOT NULL,
			metadata   JSONB NOT NULL DEFAULT '{}',
			embedding  vector(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.dimensions),
		`CREATE INDEX IF NOT EXISTS filing_chunks_filing_id_idx ON filing_chunks (filing_id)`,
		`CREATE INDEX IF NOT EXISTS filing_chunks_embedding_idx ON filing_chunks USING hnsw (embedding vector_cosine_ops)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Add upserts records in one batch.
func (s *PGStore) Add(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		if len(r.Embedding) != s.dimensions {
			return fmt.Errorf("record %s: embedding has %d dimensions, want %d", r.ID, len(r.Embedding), s.dimensions)
		}
		metadata := r.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		batch.Queue(
			`INSERT INTO filing_chunks (id, filing_id, content, metadata, embedding)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE
			 SET filing_id = EXCLUDED.filing_id, content = EXCLUDED.content,
			     metadata = EXCLUDED.metadata, embedding = EXCLUDED.embedding`,
			r.ID, r.FilingID, r.Text, metadata, pgvector.NewVector(r.Embedding),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for _, r := range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert %s: %w", r.ID, err)
		}
	}
	return nil
}

// Query returns the n nearest records by cosine distance.
func (s *PGStore) Query(ctx context.Context, vec []float32, n int) ([]Match, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, filing_id, content, metadata, 1 - (embedding <=> $1) AS score
		 FROM filing_chunks
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(vec), n,
	)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	matches := make([]Match, 0, n)
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.FilingID, &m.Text, &m.Metadata, &m.Score); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (s *PGStore) HasFiling(ctx context.Context, filingID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM filing_chunks WHERE filing_id = $1)`, filingID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check filing: %w", err)
	}
	return exists, nil
}

func (s *PGStore) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE filing_chunks`); err != nil {
		return fmt.Errorf("reset chunks: %w", err)
	}
	return nil
}

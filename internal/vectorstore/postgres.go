// Package vectorstore is the default adapter for the VectorStore external
// collaborator: a PostgreSQL + pgvector index that accepts batches of
// CombinedDocuments, embedding each one before insertion.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/kasai-dev/pageforge/internal/domain"
	"github.com/kasai-dev/pageforge/internal/embedding"
)

// VectorStore accepts a batch of documents for indexing, embedding each
// with embedder before insertion, and exposes its index name.
type VectorStore interface {
	Insert(ctx context.Context, docs []domain.CombinedDocument, embedder embedding.Embedder, embeddingModel string, maxTokens int) error
	IndexName() string
	Reset(ctx context.Context) error
}

// PostgresStore implements VectorStore with pgx and pgvector-go.
type PostgresStore struct {
	pool       *pgxpool.Pool
	indexName  string
	dimensions int
}

var _ VectorStore = (*PostgresStore)(nil)

// NewPostgresStore connects to dsn, ensures the pgvector extension and the
// backing table exist, and returns a ready store.
func NewPostgresStore(ctx context.Context, dsn, indexName string, dimensions int) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("vectorstore: ping: %w", err)
	}

	store := &PostgresStore{pool: pool, indexName: indexName, dimensions: dimensions}
	if err := store.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector;"); err != nil {
		return fmt.Errorf("vectorstore: enable pgvector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id BIGSERIAL PRIMARY KEY,
		doc_type TEXT NOT NULL,
		source TEXT NOT NULL,
		content TEXT NOT NULL,
		embedding vector(%d),
		created_at TIMESTAMPTZ DEFAULT NOW()
	);`, pgx.Identifier{s.indexName}.Sanitize(), s.dimensions)

	if _, err := s.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("vectorstore: create table %s: %w", s.indexName, err)
	}
	return nil
}

// IndexName returns the backing table/index name.
func (s *PostgresStore) IndexName() string {
	return s.indexName
}

// Insert embeds and stores every document in one batch. Insert failures
// are surfaced to the caller, which (per the error-handling design) marks
// the whole ingestion run as failed.
func (s *PostgresStore) Insert(ctx context.Context, docs []domain.CombinedDocument, embedder embedding.Embedder, embeddingModel string, maxTokens int) error {
	if len(docs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (doc_type, source, content, embedding) VALUES ($1, $2, $3, $4)",
		pgx.Identifier{s.indexName}.Sanitize(),
	)

	for _, doc := range docs {
		vec, err := embedder.Embed(embeddingModel, doc.PageContent)
		if err != nil {
			return fmt.Errorf("vectorstore: embed document (type=%s): %w", doc.Type, err)
		}
		batch.Queue(insertSQL, doc.Type, doc.Source, doc.PageContent, pgvector.NewVector(vec))
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range docs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("vectorstore: insert: %w", err)
		}
	}
	return nil
}

// Reset drops and recreates the backing table, matching clean-db's
// "reset the vector index" behavior rather than deleting rows one at a
// time.
func (s *PostgresStore) Reset(ctx context.Context) error {
	dropTable := fmt.Sprintf("DROP TABLE IF EXISTS %s;", pgx.Identifier{s.indexName}.Sanitize())
	if _, err := s.pool.Exec(ctx, dropTable); err != nil {
		return fmt.Errorf("vectorstore: drop table %s: %w", s.indexName, err)
	}
	return s.ensureSchema(ctx)
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

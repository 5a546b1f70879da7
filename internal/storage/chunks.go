package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

// ChunkRow is a chunk as persisted in the relational archive. The archive
// mirrors the vector index so chunk text and embeddings survive a Qdrant
// collection rebuild.
type ChunkRow struct {
	ID            uuid.UUID
	LogicalDocID  uuid.UUID
	ChunkID       string
	Content       string
	Filename      string
	VersionNumber int
	IsLatest      bool
	Embedding     pgvector.Vector
	IngestedAt    time.Time
}

// ChunkStore persists chunk rows alongside the vector index.
type ChunkStore interface {
	SaveChunks(ctx context.Context, rows []ChunkRow) error

	// MarkChunksOutdated flips is_latest to false on all chunks of a logical
	// document.
	MarkChunksOutdated(ctx context.Context, logicalDocID uuid.UUID) error
}

// SaveChunks batch-inserts chunk rows in a single transaction.
func (db *DB) SaveChunks(ctx context.Context, rows []ChunkRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(
			`INSERT INTO chunks (id, logical_doc_id, chunk_id, content, filename, version_number, is_latest, embedding, ingested_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (id) DO NOTHING`,
			r.ID, r.LogicalDocID, r.ChunkID, r.Content, r.Filename, r.VersionNumber, r.IsLatest, r.Embedding, r.IngestedAt,
		)
	}

	results := db.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range rows {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("storage: save chunks: %w", err)
		}
	}
	return nil
}

// MarkChunksOutdated flips is_latest to false on all archived chunks of a
// logical document.
func (db *DB) MarkChunksOutdated(ctx context.Context, logicalDocID uuid.UUID) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE chunks SET is_latest = false WHERE logical_doc_id = $1`,
		logicalDocID,
	)
	if err != nil {
		return fmt.Errorf("storage: mark chunks outdated %s: %w", logicalDocID, err)
	}
	return nil
}

// NoopChunkStore discards chunk rows. Used when no Postgres archive is
// configured and the vector index is the only chunk store.
type NoopChunkStore struct{}

func (NoopChunkStore) SaveChunks(ctx context.Context, rows []ChunkRow) error { return nil }

func (NoopChunkStore) MarkChunksOutdated(ctx context.Context, logicalDocID uuid.UUID) error {
	return nil
}

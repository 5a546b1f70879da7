// Package search provides vector index implementations for document chunks.
// The production implementation is backed by Qdrant; an in-memory index
// exists for tests and single-binary setups.
package search

import (
	"context"

	"github.com/google/uuid"

	"github.com/ashita-ai/bunsho/internal/model"
)

// Point is the data needed to upsert a single chunk into the index.
type Point struct {
	ID      uuid.UUID
	Vector  []float32
	Payload model.ChunkPayload
}

// Result is a single scored chunk returned by a query.
type Result struct {
	Score   float32
	Payload model.ChunkPayload
}

// Index is the vector store used for chunk retrieval.
//
// MarkOutdated flips is_latest to false on every chunk of a logical document
// without touching vectors, so superseded versions stay searchable but are
// flagged in retrieval output.
type Index interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, points []Point) error
	Query(ctx context.Context, vector []float32, limit int, scoreThreshold float32) ([]Result, error)
	MarkOutdated(ctx context.Context, logicalDocID uuid.UUID) error
	Healthy(ctx context.Context) error
	Close() error
}

package search

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/bunsho/internal/model"
)

func memPoint(docID uuid.UUID, vector []float32, latest bool) Point {
	return Point{
		ID:     uuid.New(),
		Vector: vector,
		Payload: model.ChunkPayload{
			LogicalDocID:  docID,
			ChunkID:       uuid.NewString(),
			Content:       "chunk",
			Filename:      "doc.txt",
			VersionNumber: 1,
			IsLatest:      latest,
		},
	}
}

func TestMemoryIndexQueryRanking(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	docID := uuid.New()

	near := memPoint(docID, []float32{1, 0, 0}, true)
	far := memPoint(docID, []float32{0, 1, 0}, true)
	mid := memPoint(docID, []float32{1, 1, 0}, true)
	require.NoError(t, idx.Upsert(ctx, []Point{near, far, mid}))

	results, err := idx.Query(ctx, []float32{1, 0, 0}, 2, 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, near.Payload.ChunkID, results[0].Payload.ChunkID)
	assert.Equal(t, mid.Payload.ChunkID, results[1].Payload.ChunkID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestMemoryIndexScoreThreshold(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	docID := uuid.New()

	require.NoError(t, idx.Upsert(ctx, []Point{
		memPoint(docID, []float32{1, 0, 0}, true),
		memPoint(docID, []float32{0, 1, 0}, true), // orthogonal, score 0
	}))

	results, err := idx.Query(ctx, []float32{1, 0, 0}, 10, 0.5)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestMemoryIndexMarkOutdated(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	docID := uuid.New()
	otherID := uuid.New()

	require.NoError(t, idx.Upsert(ctx, []Point{
		memPoint(docID, []float32{1, 0, 0}, true),
		memPoint(docID, []float32{0.9, 0.1, 0}, true),
		memPoint(otherID, []float32{0.8, 0.2, 0}, true),
	}))

	require.NoError(t, idx.MarkOutdated(ctx, docID))

	results, err := idx.Query(ctx, []float32{1, 0, 0}, 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		if r.Payload.LogicalDocID == docID {
			assert.False(t, r.Payload.IsLatest)
		} else {
			assert.True(t, r.Payload.IsLatest)
		}
	}
}

func TestMemoryIndexDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	require.NoError(t, idx.Upsert(ctx, []Point{memPoint(uuid.New(), []float32{1, 0, 0}, true)}))

	_, err := idx.Query(ctx, []float32{1, 0}, 5, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension mismatch")
}

func TestMemoryIndexUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	p := memPoint(uuid.New(), []float32{1, 0, 0}, true)
	require.NoError(t, idx.Upsert(ctx, []Point{p}))

	p.Payload.Content = "updated"
	require.NoError(t, idx.Upsert(ctx, []Point{p}))
	assert.Equal(t, 1, idx.Len())

	results, err := idx.Query(ctx, []float32{1, 0, 0}, 1, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "updated", results[0].Payload.Content)
}

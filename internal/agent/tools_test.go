package agent

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/bunsho/internal/model"
	"github.com/ashita-ai/bunsho/internal/search"
	"github.com/ashita-ai/bunsho/internal/service/embedding"
	"github.com/ashita-ai/bunsho/internal/service/retrieval"
)

// seedChunk indexes one chunk under its own embedding so a query with the
// same text scores ~1.0.
func seedChunk(t *testing.T, index *search.MemoryIndex, embedder embedding.Provider, content, filename string, version int, latest bool) {
	t.Helper()
	vec, err := embedder.Embed(context.Background(), content)
	require.NoError(t, err)
	require.NoError(t, index.Upsert(context.Background(), []search.Point{{
		ID:     uuid.New(),
		Vector: vec.Slice(),
		Payload: model.ChunkPayload{
			LogicalDocID:  uuid.New(),
			ChunkID:       uuid.NewString(),
			Content:       content,
			Filename:      filename,
			VersionNumber: version,
			IsLatest:      latest,
		},
	}}))
}

func newTestAdapter(t *testing.T, index *search.MemoryIndex) *ToolAdapter {
	t.Helper()
	embedder := embedding.NewNoopProvider(8)
	return NewToolAdapter(retrieval.New(embedder, index, slog.Default()))
}

func TestRetrieveContextRendersBlocks(t *testing.T) {
	index := search.NewMemoryIndex()
	embedder := embedding.NewNoopProvider(8)
	seedChunk(t, index, embedder, "Refunds are processed within 14 days.", "policy.md", 2, true)

	adapter := newTestAdapter(t, index)
	out, err := adapter.RetrieveContext(context.Background(), "Refunds are processed within 14 days.")
	require.NoError(t, err)

	assert.Contains(t, out, "--- Document 1 ---")
	assert.Contains(t, out, "Content: Refunds are processed within 14 days.")
	assert.Contains(t, out, "Source: policy.md (v2)")
	assert.NotContains(t, out, "OUTDATED VERSION")
}

func TestRetrieveContextStalenessBanner(t *testing.T) {
	index := search.NewMemoryIndex()
	embedder := embedding.NewNoopProvider(8)
	seedChunk(t, index, embedder, "Old refund rule: 30 days.", "policy.md", 1, false)

	adapter := newTestAdapter(t, index)
	out, err := adapter.RetrieveContext(context.Background(), "Old refund rule: 30 days.")
	require.NoError(t, err)
	assert.Contains(t, out, "** WARNING: OUTDATED VERSION (v1) **")
}

func TestRetrieveContextEmptySentinel(t *testing.T) {
	adapter := newTestAdapter(t, search.NewMemoryIndex())
	out, err := adapter.RetrieveContext(context.Background(), "anything at all")
	require.NoError(t, err)
	assert.Equal(t, noResultsSentinel, out)
}

// Package retrieval turns natural-language queries into scored chunk results
// by embedding the query and searching the vector index.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ashita-ai/bunsho/internal/search"
	"github.com/ashita-ai/bunsho/internal/service/embedding"
)

// DefaultScoreThreshold drops near-noise matches; cosine scores below this
// rarely carry usable content.
const DefaultScoreThreshold = 0.2

// Result is a retrieved chunk with provenance for citation and staleness
// checks.
type Result struct {
	ChunkID  string
	Content  string
	Score    float32
	Filename string
	Version  int
	IsLatest bool
}

// Retriever embeds queries and searches the vector index.
type Retriever struct {
	embedder  embedding.Provider
	index     search.Index
	threshold float32
	logger    *slog.Logger
}

// New creates a Retriever with the default score threshold.
func New(embedder embedding.Provider, index search.Index, logger *slog.Logger) *Retriever {
	return &Retriever{
		embedder:  embedder,
		index:     index,
		threshold: DefaultScoreThreshold,
		logger:    logger,
	}
}

// WithThreshold overrides the minimum score for returned chunks.
func (r *Retriever) WithThreshold(threshold float32) *Retriever {
	r.threshold = threshold
	return r
}

// Retrieve returns up to limit chunks relevant to the query, best first.
// Superseded chunks are returned with IsLatest false rather than filtered,
// so callers can flag stale content instead of silently hiding it.
func (r *Retriever) Retrieve(ctx context.Context, query string, limit int) ([]Result, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieval: embed query: %w", err)
	}

	hits, err := r.index.Query(ctx, vec.Slice(), limit, r.threshold)
	if err != nil {
		return nil, fmt.Errorf("retrieval: query index: %w", err)
	}

	results := make([]Result, len(hits))
	for i, h := range hits {
		results[i] = Result{
			ChunkID:  h.Payload.ChunkID,
			Content:  h.Payload.Content,
			Score:    h.Score,
			Filename: h.Payload.Filename,
			Version:  h.Payload.VersionNumber,
			IsLatest: h.Payload.IsLatest,
		}
	}

	r.logger.Debug("retrieval: query complete", "query_len", len(query), "hits", len(results))
	return results, nil
}

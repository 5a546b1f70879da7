package document

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ashita-ai/bunsho/internal/model"
	"github.com/ashita-ai/bunsho/internal/service/embedding"
)

// Chunker splits parsed text into an ordered sequence of offset spans.
// Implementations must return spans in document order with byte offsets
// that index directly into the input text.
type Chunker interface {
	Chunk(ctx context.Context, text string, docID uuid.UUID) ([]model.ChunkMetadata, error)
}

// ChunkerConfig selects and tunes a chunking strategy.
type ChunkerConfig struct {
	Strategy string // "fixed", "recursive", "markdown", "token", or "semantic"
	Size     int    // target chunk size: characters for fixed/recursive, tokens for token
	Overlap  int    // trailing overlap carried into the next chunk
	Encoding string // tiktoken encoding name for the token strategy

	// BreakpointThreshold is the cosine-similarity floor between adjacent
	// sentences for the semantic strategy; a drop below it starts a new chunk.
	BreakpointThreshold float64
}

// DefaultChunkerConfig returns the config used when the caller specifies
// only a strategy name.
func DefaultChunkerConfig(strategy string) ChunkerConfig {
	return ChunkerConfig{
		Strategy:            strategy,
		Size:                512,
		Overlap:             50,
		Encoding:            "cl100k_base",
		BreakpointThreshold: 0.6,
	}
}

// NewChunker builds the chunker named by cfg.Strategy. The embedder is only
// required for the semantic strategy; other strategies ignore it.
func NewChunker(cfg ChunkerConfig, embedder embedding.Provider) (Chunker, error) {
	if cfg.Size <= 0 {
		cfg.Size = 512
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.Size {
		return nil, fmt.Errorf("document: overlap %d must be in [0, size %d)", cfg.Overlap, cfg.Size)
	}

	switch cfg.Strategy {
	case "fixed":
		return &FixedSizeChunker{size: cfg.Size, overlap: cfg.Overlap}, nil
	case "recursive":
		return &RecursiveChunker{size: cfg.Size, overlap: cfg.Overlap}, nil
	case "markdown":
		return &MarkdownChunker{maxSize: cfg.Size}, nil
	case "token":
		return NewTokenChunker(cfg.Encoding, cfg.Size, cfg.Overlap)
	case "semantic":
		if embedder == nil {
			return nil, fmt.Errorf("document: semantic strategy requires an embedding provider")
		}
		threshold := cfg.BreakpointThreshold
		if threshold <= 0 || threshold >= 1 {
			threshold = 0.6
		}
		return &SemanticChunker{embedder: embedder, threshold: threshold, maxSize: cfg.Size}, nil
	default:
		return nil, fmt.Errorf("document: unknown chunking strategy %q", cfg.Strategy)
	}
}

// span is a half-open byte range into the source text.
type span struct {
	start, end int
}

// spansToChunks converts ordered spans into chunk metadata records.
func spansToChunks(spans []span, docID uuid.UUID) []model.ChunkMetadata {
	chunks := make([]model.ChunkMetadata, 0, len(spans))
	for _, s := range spans {
		if s.end <= s.start {
			continue
		}
		chunks = append(chunks, model.ChunkMetadata{
			ChunkID:     uuid.New(),
			DocID:       docID,
			StartOffset: s.start,
			EndOffset:   s.end,
		})
	}
	return chunks
}

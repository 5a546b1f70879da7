package document

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkoukk/tiktoken-go"

	"github.com/ashita-ai/bunsho/internal/model"
)

// TokenChunker emits windows of a fixed token count with a token overlap,
// using a tiktoken encoding so chunk sizes line up with model context
// budgets rather than character counts.
type TokenChunker struct {
	encoding *tiktoken.Tiktoken
	size     int
	overlap  int
}

// NewTokenChunker builds a TokenChunker for the named tiktoken encoding
// (e.g. "cl100k_base").
func NewTokenChunker(encoding string, size, overlap int) (*TokenChunker, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("document: load encoding %q: %w", encoding, err)
	}
	return &TokenChunker{encoding: enc, size: size, overlap: overlap}, nil
}

// Chunk implements Chunker.
func (c *TokenChunker) Chunk(_ context.Context, text string, docID uuid.UUID) ([]model.ChunkMetadata, error) {
	if text == "" {
		return nil, nil
	}

	tokens := c.encoding.Encode(text, nil, nil)
	if len(tokens) == 0 {
		return nil, nil
	}

	// Byte offset of each token boundary. Tokens are byte sequences, so
	// per-token decoding concatenates back to the original text exactly.
	boundaries := make([]int, len(tokens)+1)
	offset := 0
	for i, tok := range tokens {
		offset += len(c.encoding.Decode([]int{tok}))
		boundaries[i+1] = offset
	}
	if offset != len(text) {
		return nil, fmt.Errorf("document: token boundaries cover %d bytes of %d", offset, len(text))
	}

	var spans []span
	step := c.size - c.overlap
	for start := 0; start < len(tokens); start += step {
		end := min(start+c.size, len(tokens))
		spans = append(spans, span{start: boundaries[start], end: boundaries[end]})
		if end == len(tokens) {
			break
		}
	}
	return spansToChunks(spans, docID), nil
}

package document

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/ashita-ai/bunsho/internal/model"
	"github.com/ashita-ai/bunsho/internal/service/embedding"
)

// SemanticChunker groups adjacent sentences while their embeddings stay
// similar and starts a new chunk at each similarity breakpoint. Chunks are
// additionally capped at maxSize bytes so one long cohesive passage can't
// swallow the whole document.
type SemanticChunker struct {
	embedder  embedding.Provider
	threshold float64
	maxSize   int
}

// Chunk implements Chunker. Sentence embeddings are fetched in one batch.
func (c *SemanticChunker) Chunk(ctx context.Context, text string, docID uuid.UUID) ([]model.ChunkMetadata, error) {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil, nil
	}
	if len(sentences) == 1 {
		return spansToChunks(sentences, docID), nil
	}

	texts := make([]string, len(sentences))
	for i, s := range sentences {
		texts[i] = text[s.start:s.end]
	}
	vecs, err := c.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("document: embed sentences: %w", err)
	}
	if len(vecs) != len(sentences) {
		return nil, fmt.Errorf("document: embedder returned %d vectors for %d sentences", len(vecs), len(sentences))
	}

	var spans []span
	cur := sentences[0]
	for i := 1; i < len(sentences); i++ {
		sim := cosineSimilarity(vecs[i-1].Slice(), vecs[i].Slice())
		tooBig := c.maxSize > 0 && sentences[i].end-cur.start > c.maxSize
		if sim < c.threshold || tooBig {
			spans = append(spans, cur)
			cur = sentences[i]
			continue
		}
		cur.end = sentences[i].end
	}
	spans = append(spans, cur)
	return spansToChunks(spans, docID), nil
}

// splitSentences returns byte spans of sentences: maximal runs ending at a
// terminator (. ! ?) followed by whitespace, or at end of text. Leading
// whitespace is trimmed from each span.
func splitSentences(text string) []span {
	var out []span
	start := 0
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch != '.' && ch != '!' && ch != '?' {
			continue
		}
		// End of text or terminator followed by whitespace ends the sentence.
		if i+1 < len(text) && !unicode.IsSpace(rune(text[i+1])) {
			continue
		}
		if s, ok := trimSpan(text, start, i+1); ok {
			out = append(out, s)
		}
		start = i + 1
	}
	if s, ok := trimSpan(text, start, len(text)); ok {
		out = append(out, s)
	}
	return out
}

// trimSpan shrinks [start, end) to exclude surrounding whitespace.
func trimSpan(text string, start, end int) (span, bool) {
	for start < end && unicode.IsSpace(rune(text[start])) {
		start++
	}
	for end > start && unicode.IsSpace(rune(text[end-1])) {
		end--
	}
	if start >= end || strings.TrimSpace(text[start:end]) == "" {
		return span{}, false
	}
	return span{start: start, end: end}, true
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 for mismatched lengths or zero vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

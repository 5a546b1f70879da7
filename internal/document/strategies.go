package document

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ashita-ai/bunsho/internal/model"
)

// FixedSizeChunker emits fixed-width windows with a trailing overlap.
// Widths are measured in runes; emitted offsets are byte offsets, so a
// window never splits a multi-byte character.
type FixedSizeChunker struct {
	size    int
	overlap int
}

// Chunk implements Chunker.
func (c *FixedSizeChunker) Chunk(_ context.Context, text string, docID uuid.UUID) ([]model.ChunkMetadata, error) {
	if text == "" {
		return nil, nil
	}

	// Byte offset of every rune boundary, plus the terminal boundary.
	boundaries := runeBoundaries(text)
	runeCount := len(boundaries) - 1

	var spans []span
	step := c.size - c.overlap
	for start := 0; start < runeCount; start += step {
		end := min(start+c.size, runeCount)
		spans = append(spans, span{start: boundaries[start], end: boundaries[end]})
		if end == runeCount {
			break
		}
	}
	return spansToChunks(spans, docID), nil
}

// runeBoundaries returns the byte offset of each rune in s followed by len(s).
func runeBoundaries(s string) []int {
	boundaries := make([]int, 0, len(s)+1)
	for i := range s {
		boundaries = append(boundaries, i)
	}
	return append(boundaries, len(s))
}

// recursiveSeparators is the split hierarchy: paragraph, line, sentence, word.
var recursiveSeparators = []string{"\n\n", "\n", ". ", " "}

// RecursiveChunker splits on progressively finer separators, packing
// adjacent pieces into chunks no larger than size bytes. A piece that
// exceeds size on the finest separator is emitted whole rather than split
// mid-word.
type RecursiveChunker struct {
	size    int
	overlap int
}

// Chunk implements Chunker.
func (c *RecursiveChunker) Chunk(_ context.Context, text string, docID uuid.UUID) ([]model.ChunkMetadata, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	pieces := c.split(text, 0, 0)
	spans := c.pack(pieces)
	return spansToChunks(spans, docID), nil
}

// split recursively divides text[base:] into pieces no larger than size,
// descending the separator hierarchy only for oversized pieces.
func (c *RecursiveChunker) split(text string, base, sepIdx int) []span {
	if len(text) <= c.size || sepIdx >= len(recursiveSeparators) {
		return []span{{start: base, end: base + len(text)}}
	}

	sep := recursiveSeparators[sepIdx]
	var out []span
	offset := 0
	for {
		idx := strings.Index(text[offset:], sep)
		if idx < 0 {
			break
		}
		// Keep the separator with the preceding piece so offsets tile the text.
		pieceEnd := offset + idx + len(sep)
		out = append(out, c.split(text[offset:pieceEnd], base+offset, sepIdx+1)...)
		offset = pieceEnd
	}
	if offset < len(text) {
		out = append(out, c.split(text[offset:], base+offset, sepIdx+1)...)
	}
	return out
}

// pack merges adjacent pieces into chunks of at most size bytes, carrying
// overlap bytes of the previous chunk into the next one's start.
func (c *RecursiveChunker) pack(pieces []span) []span {
	var out []span
	cur := span{start: -1}
	for _, p := range pieces {
		if cur.start < 0 {
			cur = p
			continue
		}
		if p.end-cur.start <= c.size {
			cur.end = p.end
			continue
		}
		out = append(out, cur)
		start := p.start
		if c.overlap > 0 && cur.end-c.overlap > cur.start {
			start = max(cur.end-c.overlap, cur.start)
		}
		cur = span{start: start, end: p.end}
	}
	if cur.start >= 0 {
		out = append(out, cur)
	}
	return out
}

// MarkdownChunker splits on ATX headers (#, ##, ###), one chunk per
// section, annotated with the section title. Sections larger than maxSize
// are handed to a RecursiveChunker with the title preserved.
type MarkdownChunker struct {
	maxSize int
}

// Chunk implements Chunker.
func (c *MarkdownChunker) Chunk(ctx context.Context, text string, docID uuid.UUID) ([]model.ChunkMetadata, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	type section struct {
		span
		title string
	}

	var sections []section
	cur := section{span: span{start: 0}}
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		if title, ok := headerTitle(line); ok {
			if offset > cur.start {
				cur.end = offset
				sections = append(sections, cur)
			}
			cur = section{span: span{start: offset}, title: title}
		}
		offset += len(line)
	}
	cur.end = len(text)
	if cur.end > cur.start {
		sections = append(sections, cur)
	}

	sub := &RecursiveChunker{size: c.maxSize}
	var chunks []model.ChunkMetadata
	for _, sec := range sections {
		var spans []span
		if sec.end-sec.start <= c.maxSize {
			spans = []span{sec.span}
		} else {
			for _, piece := range sub.pack(sub.split(text[sec.start:sec.end], sec.start, 0)) {
				spans = append(spans, piece)
			}
		}
		for _, chunk := range spansToChunks(spans, docID) {
			if sec.title != "" {
				title := sec.title
				chunk.SectionTitle = &title
			}
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}

// headerTitle returns the text of an ATX header line (levels 1-3).
func headerTitle(line string) (string, bool) {
	trimmed := strings.TrimRight(line, "\n")
	for _, prefix := range []string{"### ", "## ", "# "} {
		if strings.HasPrefix(trimmed, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, prefix)), true
		}
	}
	return "", false
}

package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashita-ai/bunsho/internal/service/retrieval"
)

// retrieveTopK is the fixed number of chunks fetched per retrieve action.
const retrieveTopK = 5

// noResultsSentinel distinguishes "tool ran, found nothing" from an empty
// string that could look like a tool failure.
const noResultsSentinel = "No relevant documents found."

// ToolAdapter renders retrieval results into the deterministic text form
// the reasoning loop feeds back to the model.
type ToolAdapter struct {
	retriever *retrieval.Retriever
}

// NewToolAdapter creates a tool adapter over the retriever.
func NewToolAdapter(retriever *retrieval.Retriever) *ToolAdapter {
	return &ToolAdapter{retriever: retriever}
}

// RetrieveContext fetches the top matches for query and renders one block
// per result. Chunks from superseded document versions are prefixed with a
// staleness banner so the model can caveat its answer.
func (t *ToolAdapter) RetrieveContext(ctx context.Context, query string) (string, error) {
	results, err := t.retriever.Retrieve(ctx, query, retrieveTopK)
	if err != nil {
		return "", fmt.Errorf("agent: retrieve context: %w", err)
	}
	if len(results) == 0 {
		return noResultsSentinel, nil
	}

	var sb strings.Builder
	for i, res := range results {
		fmt.Fprintf(&sb, "--- Document %d ---\n", i+1)
		if !res.IsLatest {
			fmt.Fprintf(&sb, "** WARNING: OUTDATED VERSION (v%d) **\n", res.Version)
		}
		fmt.Fprintf(&sb, "Content: %s\n", res.Content)
		fmt.Fprintf(&sb, "Source: %s (v%d)\n\n", res.Filename, res.Version)
	}
	return sb.String(), nil
}

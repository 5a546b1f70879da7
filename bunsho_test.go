package bunsho

import (
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hashEmbedder derives deterministic vectors from content so identical
// texts retrieve each other without a live backend.
type hashEmbedder struct{ dims int }

func (h hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	out := make([]float32, h.dims)
	digest := sha256.Sum256([]byte(text))
	for i := range out {
		out[i] = float32(digest[i%len(digest)])/255.0 - 0.5
	}
	return out, nil
}

func (h hashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := h.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (h hashEmbedder) Dimensions() int { return h.dims }

type scriptedCompleter struct {
	responses []string
	calls     int
}

func (c *scriptedCompleter) Complete(_ context.Context, _ []Message) (string, error) {
	c.calls++
	i := c.calls - 1
	if i >= len(c.responses) {
		i = len(c.responses) - 1
	}
	return c.responses[i], nil
}

func newTestApp(t *testing.T, completer Completer) *App {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("QDRANT_URL", "")
	t.Setenv("OLLAMA_URL", "http://127.0.0.1:1") // unreachable, skip auto-detect

	app, err := New(
		WithRegistryPath(filepath.Join(t.TempDir(), "registry.db")),
		WithEmbedder(hashEmbedder{dims: 8}),
		WithCompleter(completer),
	)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close(context.Background()) })
	return app
}

func TestAppIngestAndAsk(t *testing.T) {
	ctx := context.Background()
	completer := &scriptedCompleter{responses: []string{
		`{"action_type": "retrieve", "query": "Refunds are processed within 14 days.", "rationale": "need the policy"}`,
		`{"action_type": "answer", "answer": "Refunds take 14 days.", "rationale": "found it", "citations": ["policy.txt"], "confidence_score": 0.9}`,
	}}
	app := newTestApp(t, completer)

	dir := t.TempDir()
	path := filepath.Join(dir, "policy.txt")
	require.NoError(t, os.WriteFile(path, []byte("Refunds are processed within 14 days."), 0o644))

	result, err := app.Ingest(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, Ingested, result.Status)
	assert.Equal(t, 1, result.Version)

	// Unchanged re-ingest is a no-op.
	again, err := app.Ingest(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, Skipped, again.Status)
	assert.Equal(t, result.LogicalID, again.LogicalID)

	var steps []Step
	for step := range app.Ask(ctx, "how long do refunds take?") {
		steps = append(steps, step)
	}
	require.NotEmpty(t, steps)

	final := steps[len(steps)-1]
	assert.Equal(t, "done", final.State)
	assert.True(t, final.Terminal())
	require.NotNil(t, final.Action)
	assert.Equal(t, "answer", final.Action.Type)
	assert.Equal(t, "Refunds take 14 days.", final.Action.Answer)

	var sawRetrieval bool
	for _, s := range steps {
		if s.State == "retrieving" {
			sawRetrieval = true
			assert.Contains(t, s.Observation, "policy.txt")
		}
	}
	assert.True(t, sawRetrieval)
}

func TestAppVersionBumpFlagsOldChunks(t *testing.T) {
	ctx := context.Background()
	content := "The meeting room policy: book at most 2 hours."
	completer := &scriptedCompleter{responses: []string{
		`{"action_type": "retrieve", "query": "` + content + `", "rationale": "check policy"}`,
		`{"action_type": "answer", "answer": "At most 2 hours.", "rationale": "found", "confidence_score": 0.8}`,
	}}
	app := newTestApp(t, completer)

	dir := t.TempDir()
	path := filepath.Join(dir, "rooms.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	first, err := app.Ingest(ctx, path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("The meeting room policy: book at most 4 hours."), 0o644))
	second, err := app.Ingest(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, Updated, second.Status)
	assert.Equal(t, first.LogicalID, second.LogicalID)
	assert.Equal(t, 2, second.Version)

	// The scripted retrieve targets the v1 text, so its chunk surfaces with
	// the staleness banner.
	var sawBanner bool
	for step := range app.Ask(ctx, "how long can I book a room?") {
		if step.State == "retrieving" && step.Observation != "" {
			if assert.Contains(t, step.Observation, "rooms.txt") {
				sawBanner = sawBanner ||
					assert.Contains(t, step.Observation, "** WARNING: OUTDATED VERSION (v1) **")
			}
		}
	}
	assert.True(t, sawBanner)
}

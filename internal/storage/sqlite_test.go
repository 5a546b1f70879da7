package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/bunsho/internal/model"
)

func newTestRegistry(t *testing.T) *SQLiteRegistry {
	t.Helper()
	reg, err := NewSQLiteRegistry(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })
	return reg
}

func TestSQLiteRegistryNotFound(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := reg.GetByFilename(context.Background(), "missing.txt")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteRegistryUpsertAndGet(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t)

	rec := model.RegistryRecord{
		LogicalID:      uuid.New(),
		Filename:       "policy.md",
		CurrentVersion: 1,
		ContentHash:    "abc123",
		UpdatedAt:      time.Now().UTC(),
	}
	require.NoError(t, reg.UpsertDocument(ctx, rec))

	got, err := reg.GetByFilename(ctx, "policy.md")
	require.NoError(t, err)
	assert.Equal(t, rec.LogicalID, got.LogicalID)
	assert.Equal(t, 1, got.CurrentVersion)
	assert.Equal(t, "abc123", got.ContentHash)
	assert.WithinDuration(t, rec.UpdatedAt, got.UpdatedAt, time.Second)
}

func TestSQLiteRegistryUpdateKeepsLogicalID(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t)

	logicalID := uuid.New()
	require.NoError(t, reg.UpsertDocument(ctx, model.RegistryRecord{
		LogicalID:      logicalID,
		Filename:       "policy.md",
		CurrentVersion: 1,
		ContentHash:    "v1hash",
	}))
	require.NoError(t, reg.UpsertDocument(ctx, model.RegistryRecord{
		LogicalID:      logicalID,
		Filename:       "policy.md",
		CurrentVersion: 2,
		ContentHash:    "v2hash",
	}))

	got, err := reg.GetByFilename(ctx, "policy.md")
	require.NoError(t, err)
	assert.Equal(t, logicalID, got.LogicalID)
	assert.Equal(t, 2, got.CurrentVersion)
	assert.Equal(t, "v2hash", got.ContentHash)

	recs, err := reg.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestSQLiteRegistryListOrdered(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t)

	for _, name := range []string{"zebra.txt", "alpha.md", "mid.html"} {
		require.NoError(t, reg.UpsertDocument(ctx, model.RegistryRecord{
			LogicalID:      uuid.New(),
			Filename:       name,
			CurrentVersion: 1,
			ContentHash:    "h",
		}))
	}

	recs, err := reg.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "alpha.md", recs[0].Filename)
	assert.Equal(t, "mid.html", recs[1].Filename)
	assert.Equal(t, "zebra.txt", recs[2].Filename)
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ashita-ai/bunsho/internal/model"
)

// SQLiteRegistry is a file-backed Registry for single-binary deployments
// where running Postgres is not worth the operational weight. It holds only
// the registry table; chunk archiving requires Postgres.
type SQLiteRegistry struct {
	db *sql.DB
}

// NewSQLiteRegistry opens (creating if needed) a SQLite registry at path and
// ensures the schema exists. Parent directories are created automatically.
func NewSQLiteRegistry(path string) (*SQLiteRegistry, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: create registry dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite registry: %w", err)
	}
	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent ingestion.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			filename TEXT PRIMARY KEY,
			logical_id TEXT NOT NULL,
			current_version INTEGER NOT NULL,
			content_hash TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create sqlite schema: %w", err)
	}

	return &SQLiteRegistry{db: db}, nil
}

// GetByFilename returns the registry record for a filename, or ErrNotFound.
func (r *SQLiteRegistry) GetByFilename(ctx context.Context, filename string) (model.RegistryRecord, error) {
	var rec model.RegistryRecord
	var updatedAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT logical_id, filename, current_version, content_hash, updated_at
		 FROM documents WHERE filename = ?`,
		filename,
	).Scan(&rec.LogicalID, &rec.Filename, &rec.CurrentVersion, &rec.ContentHash, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RegistryRecord{}, ErrNotFound
	}
	if err != nil {
		return model.RegistryRecord{}, fmt.Errorf("storage: get document %q: %w", filename, err)
	}

	rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return model.RegistryRecord{}, fmt.Errorf("storage: parse updated_at for %q: %w", filename, err)
	}
	return rec, nil
}

// UpsertDocument inserts or updates a registry record keyed by filename.
func (r *SQLiteRegistry) UpsertDocument(ctx context.Context, rec model.RegistryRecord) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (filename, logical_id, current_version, content_hash, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (filename) DO UPDATE SET
			current_version = excluded.current_version,
			content_hash = excluded.content_hash,
			updated_at = excluded.updated_at`,
		rec.Filename, rec.LogicalID.String(), rec.CurrentVersion, rec.ContentHash,
		rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("storage: upsert document %q: %w", rec.Filename, err)
	}
	return nil
}

// ListDocuments returns all registered documents ordered by filename.
func (r *SQLiteRegistry) ListDocuments(ctx context.Context) ([]model.RegistryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT logical_id, filename, current_version, content_hash, updated_at
		 FROM documents ORDER BY filename`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list documents: %w", err)
	}
	defer rows.Close()

	var recs []model.RegistryRecord
	for rows.Next() {
		var rec model.RegistryRecord
		var updatedAt string
		if err := rows.Scan(&rec.LogicalID, &rec.Filename, &rec.CurrentVersion, &rec.ContentHash, &updatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan document: %w", err)
		}
		if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
			return nil, fmt.Errorf("storage: parse updated_at for %q: %w", rec.Filename, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list documents: %w", err)
	}
	return recs, nil
}

// Close closes the underlying database handle.
func (r *SQLiteRegistry) Close() error {
	return r.db.Close()
}

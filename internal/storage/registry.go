package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ashita-ai/bunsho/internal/model"
)

// Registry maps filenames to stable logical document IDs and tracks the
// current version and content hash of each document. It is the source of
// truth for version decisions during ingestion.
type Registry interface {
	// GetByFilename returns the registry record for a filename, or
	// ErrNotFound if the document has never been ingested.
	GetByFilename(ctx context.Context, filename string) (model.RegistryRecord, error)

	// UpsertDocument records a filename's logical ID, version, and content
	// hash, inserting on first ingestion and updating on re-ingestion.
	UpsertDocument(ctx context.Context, rec model.RegistryRecord) error

	// ListDocuments returns all registered documents ordered by filename.
	ListDocuments(ctx context.Context) ([]model.RegistryRecord, error)
}

// GetByFilename returns the Postgres registry record for a filename.
func (db *DB) GetByFilename(ctx context.Context, filename string) (model.RegistryRecord, error) {
	var rec model.RegistryRecord
	err := db.pool.QueryRow(ctx,
		`SELECT logical_id, filename, current_version, content_hash, updated_at
		 FROM documents WHERE filename = $1`,
		filename,
	).Scan(&rec.LogicalID, &rec.Filename, &rec.CurrentVersion, &rec.ContentHash, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.RegistryRecord{}, ErrNotFound
	}
	if err != nil {
		return model.RegistryRecord{}, fmt.Errorf("storage: get document %q: %w", filename, err)
	}
	return rec, nil
}

// UpsertDocument inserts or updates a registry record keyed by filename.
func (db *DB) UpsertDocument(ctx context.Context, rec model.RegistryRecord) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO documents (logical_id, filename, current_version, content_hash, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (filename) DO UPDATE SET
			current_version = EXCLUDED.current_version,
			content_hash = EXCLUDED.content_hash,
			updated_at = EXCLUDED.updated_at`,
		rec.LogicalID, rec.Filename, rec.CurrentVersion, rec.ContentHash, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("storage: upsert document %q: %w", rec.Filename, err)
	}
	return nil
}

// ListDocuments returns all registered documents ordered by filename.
func (db *DB) ListDocuments(ctx context.Context) ([]model.RegistryRecord, error) {
	rows, err := db.pool.Query(ctx,
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
		if err := rows.Scan(&rec.LogicalID, &rec.Filename, &rec.CurrentVersion, &rec.ContentHash, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan document: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list documents: %w", err)
	}
	return recs, nil
}

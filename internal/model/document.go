// Package model defines the core domain types for Bunsho: logical documents,
// their versioned generations, chunk metadata, and the agent action schema.
package model

import (
	"time"

	"github.com/google/uuid"
)

// FileType enumerates the file types the parser accepts.
type FileType string

const (
	FileTypeTXT      FileType = "txt"
	FileTypeMarkdown FileType = "md"
	FileTypeHTML     FileType = "html"
)

// DocumentMetadata describes one ingested generation of a document.
type DocumentMetadata struct {
	DocID       uuid.UUID `json:"doc_id"`
	Filename    string    `json:"filename"`
	FileType    FileType  `json:"file_type"`
	UploadTime  time.Time `json:"upload_time"`
	PageCount   int       `json:"page_count"`
	ContentHash string    `json:"content_hash"`
	Version     int       `json:"version"`
}

// ChunkMetadata locates one chunk inside its parent document's content.
// Offsets are byte offsets into the parsed content, half-open [Start, End).
type ChunkMetadata struct {
	ChunkID      uuid.UUID `json:"chunk_id"`
	DocID        uuid.UUID `json:"doc_id"`
	StartOffset  int       `json:"start_offset"`
	EndOffset    int       `json:"end_offset"`
	PageNumber   *int      `json:"page_number,omitempty"`
	SectionTitle *string   `json:"section_title,omitempty"`
}

// RegistryRecord is the registry's view of a logical document: one record
// per filename, carrying the current generation and its content hash.
// The logical_id is assigned on first ingestion and never changes.
type RegistryRecord struct {
	LogicalID      uuid.UUID `json:"logical_id"`
	Filename       string    `json:"filename"`
	CurrentVersion int       `json:"current_version"`
	ContentHash    string    `json:"content_hash"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ChunkPayload is the per-point payload stored alongside each vector.
// ChunkID is a human-readable generation-scoped identifier
// ("<logical_id>_v<version>_<i>"), not the ChunkMetadata uuid.
// IsLatest is the only field ever mutated after write: the coordinator
// flips it to false in bulk when a new generation supersedes this one.
type ChunkPayload struct {
	LogicalDocID       uuid.UUID `json:"logical_doc_id"`
	ChunkID            string    `json:"chunk_id"`
	Content            string    `json:"content"`
	Filename           string    `json:"filename"`
	VersionNumber      int       `json:"version_number"`
	IsLatest           bool      `json:"is_latest"`
	IngestionTimestamp time.Time `json:"ingestion_timestamp"`
}

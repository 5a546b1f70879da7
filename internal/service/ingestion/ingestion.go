// Package ingestion implements the document ingestion pipeline: hashing,
// version coordination, parsing, chunking, embedding, and indexing.
//
// Versioning follows three rules. Re-ingesting a byte-identical file is a
// no-op. A changed file gets version current+1 under the same logical ID.
// Existing chunks are marked outdated before the new version is indexed, so
// the index never holds two versions both claiming to be latest.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ashita-ai/bunsho/internal/document"
	"github.com/ashita-ai/bunsho/internal/integrity"
	"github.com/ashita-ai/bunsho/internal/model"
	"github.com/ashita-ai/bunsho/internal/search"
	"github.com/ashita-ai/bunsho/internal/service/embedding"
	"github.com/ashita-ai/bunsho/internal/storage"
	"github.com/ashita-ai/bunsho/internal/telemetry"
)

var (
	tracer = otel.Tracer("bunsho/ingestion")
	meter  = telemetry.Meter("bunsho/ingestion")
)

// Status describes the outcome of an ingestion attempt.
type Status string

const (
	// StatusIngested means the file was indexed for the first time.
	StatusIngested Status = "ingested"
	// StatusUpdated means a new version of an existing document was indexed.
	StatusUpdated Status = "updated"
	// StatusSkipped means the file's content hash matched the registered
	// version and nothing was written.
	StatusSkipped Status = "skipped"
)

// Report summarizes what ingestion did with a file.
type Report struct {
	Filename   string
	LogicalID  uuid.UUID
	Version    int
	Status     Status
	ChunkCount int
}

// Service runs the ingestion pipeline.
type Service struct {
	parser     *document.Parser
	chunker    document.Chunker
	embedder   embedding.Provider
	index      search.Index
	registry   storage.Registry
	chunkStore storage.ChunkStore
	logger     *slog.Logger

	ingestCounter metric.Int64Counter
}

// New creates an ingestion Service.
func New(
	parser *document.Parser,
	chunker document.Chunker,
	embedder embedding.Provider,
	index search.Index,
	registry storage.Registry,
	chunkStore storage.ChunkStore,
	logger *slog.Logger,
) *Service {
	ingestCounter, err := meter.Int64Counter("bunsho.ingest.files",
		metric.WithDescription("Files processed by ingestion, by outcome status"),
	)
	if err != nil {
		logger.Warn("ingestion: create counter", "error", err)
	}
	return &Service{
		parser:        parser,
		chunker:       chunker,
		embedder:      embedder,
		index:         index,
		registry:      registry,
		chunkStore:    chunkStore,
		logger:        logger,
		ingestCounter: ingestCounter,
	}
}

// IngestFile runs the full pipeline for one file.
//
// The registry commit happens last: if indexing fails partway, the registry
// still points at the previous version and a retry repeats the whole
// ingestion rather than leaving a half-registered document.
func (s *Service) IngestFile(ctx context.Context, path string) (Report, error) {
	filename := filepath.Base(path)
	ctx, span := tracer.Start(ctx, "ingestion.IngestFile",
		trace.WithAttributes(attribute.String("bunsho.filename", filename)),
	)
	defer span.End()

	hash, err := integrity.HashFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("ingestion: hash %s: %w", filename, err)
	}

	version := 1
	logicalID := uuid.New()
	existing, err := s.registry.GetByFilename(ctx, filename)
	switch {
	case err == nil:
		if existing.ContentHash == hash {
			s.logger.Info("ingestion: content unchanged, skipping",
				"filename", filename, "version", existing.CurrentVersion)
			span.SetAttributes(attribute.String("bunsho.status", string(StatusSkipped)))
			s.countOutcome(ctx, StatusSkipped)
			return Report{
				Filename:  filename,
				LogicalID: existing.LogicalID,
				Version:   existing.CurrentVersion,
				Status:    StatusSkipped,
			}, nil
		}
		logicalID = existing.LogicalID
		version = existing.CurrentVersion + 1

		// Deprecate the old version before anything of the new version is
		// written, so no point in time has two versions marked latest.
		if err := s.index.MarkOutdated(ctx, logicalID); err != nil {
			return Report{}, fmt.Errorf("ingestion: mark outdated %s: %w", filename, err)
		}
		if err := s.chunkStore.MarkChunksOutdated(ctx, logicalID); err != nil {
			return Report{}, fmt.Errorf("ingestion: mark archived chunks outdated %s: %w", filename, err)
		}
	case errors.Is(err, storage.ErrNotFound):
		// First ingestion of this filename.
	default:
		return Report{}, fmt.Errorf("ingestion: look up %s: %w", filename, err)
	}

	text, meta, err := s.parser.Parse(path)
	if err != nil {
		return Report{}, fmt.Errorf("ingestion: parse %s: %w", filename, err)
	}

	chunks, err := s.chunker.Chunk(ctx, text, logicalID)
	if err != nil {
		return Report{}, fmt.Errorf("ingestion: chunk %s: %w", filename, err)
	}

	if err := s.indexChunks(ctx, text, chunks, filename, logicalID, version); err != nil {
		return Report{}, err
	}

	rec := model.RegistryRecord{
		LogicalID:      logicalID,
		Filename:       filename,
		CurrentVersion: version,
		ContentHash:    hash,
		UpdatedAt:      time.Now().UTC(),
	}
	if err := s.registry.UpsertDocument(ctx, rec); err != nil {
		return Report{}, fmt.Errorf("ingestion: register %s: %w", filename, err)
	}

	status := StatusIngested
	if version > 1 {
		status = StatusUpdated
	}
	span.SetAttributes(
		attribute.String("bunsho.status", string(status)),
		attribute.Int("bunsho.version", version),
		attribute.Int("bunsho.chunks", len(chunks)),
	)
	s.countOutcome(ctx, status)
	s.logger.Info("ingestion: indexed document",
		"filename", filename,
		"logical_id", logicalID,
		"version", version,
		"chunks", len(chunks),
		"file_type", meta.FileType,
		"status", status,
	)

	return Report{
		Filename:   filename,
		LogicalID:  logicalID,
		Version:    version,
		Status:     status,
		ChunkCount: len(chunks),
	}, nil
}

func (s *Service) countOutcome(ctx context.Context, status Status) {
	if s.ingestCounter == nil {
		return
	}
	s.ingestCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("bunsho.status", string(status))))
}

// indexChunks embeds chunk texts and writes them to the vector index and the
// relational archive.
func (s *Service) indexChunks(
	ctx context.Context,
	text string,
	chunks []model.ChunkMetadata,
	filename string,
	logicalID uuid.UUID,
	version int,
) error {
	if len(chunks) == 0 {
		s.logger.Warn("ingestion: document produced no chunks", "filename", filename)
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = text[c.StartOffset:c.EndOffset]
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("ingestion: embed %d chunks of %s: %w", len(chunks), filename, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("ingestion: embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	now := time.Now().UTC()
	points := make([]search.Point, len(chunks))
	rows := make([]storage.ChunkRow, len(chunks))
	for i := range chunks {
		pointID := uuid.New()
		chunkID := fmt.Sprintf("%s_v%d_%d", logicalID, version, i)
		payload := model.ChunkPayload{
			LogicalDocID:       logicalID,
			ChunkID:            chunkID,
			Content:            texts[i],
			Filename:           filename,
			VersionNumber:      version,
			IsLatest:           true,
			IngestionTimestamp: now,
		}
		points[i] = search.Point{ID: pointID, Vector: vectors[i].Slice(), Payload: payload}
		rows[i] = storage.ChunkRow{
			ID:            pointID,
			LogicalDocID:  logicalID,
			ChunkID:       chunkID,
			Content:       texts[i],
			Filename:      filename,
			VersionNumber: version,
			IsLatest:      true,
			Embedding:     vectors[i],
			IngestedAt:    now,
		}
	}

	if err := s.index.Upsert(ctx, points); err != nil {
		return fmt.Errorf("ingestion: upsert %d points for %s: %w", len(points), filename, err)
	}
	if err := s.chunkStore.SaveChunks(ctx, rows); err != nil {
		return fmt.Errorf("ingestion: archive %d chunks of %s: %w", len(rows), filename, err)
	}
	return nil
}

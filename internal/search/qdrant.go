package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"golang.org/x/sync/singleflight"

	"github.com/ashita-ai/bunsho/internal/model"
)

// QdrantConfig holds configuration for connecting to Qdrant.
type QdrantConfig struct {
	URL        string // e.g. "https://xyz.cloud.qdrant.io:6333" or "http://localhost:6333"
	APIKey     string
	Collection string
	Dims       uint64
}

// QdrantIndex implements Index backed by Qdrant.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	dims       uint64
	logger     *slog.Logger

	healthGroup singleflight.Group
	healthErr   atomic.Value // stores *error (pointer-to-error, never nil pointer; inner error may be nil)
	healthAt    atomic.Int64 // unix nanos of last check
}

// parseQdrantURL extracts host, port, and TLS flag from a Qdrant URL.
// Accepts forms like "https://host:6333", "http://host:6333", or "host:6334".
func parseQdrantURL(rawURL string) (host string, port int, useTLS bool, err error) {
	u, parseErr := url.Parse(rawURL)
	if parseErr != nil || u.Host == "" {
		return "", 0, false, fmt.Errorf("search: invalid qdrant URL: %q", rawURL)
	}

	useTLS = u.Scheme == "https"
	host = u.Hostname()

	if portStr := u.Port(); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return "", 0, false, fmt.Errorf("search: invalid port in qdrant URL: %q", portStr)
		}
		// If the user specified the REST port (6333), use the gRPC port (6334).
		if p == 6333 {
			port = 6334
		} else {
			port = p
		}
	} else {
		port = 6334
	}

	return host, port, useTLS, nil
}

// NewQdrantIndex creates a new QdrantIndex and connects to the Qdrant server via gRPC.
func NewQdrantIndex(cfg QdrantConfig, logger *slog.Logger) (*QdrantIndex, error) {
	host, port, useTLS, err := parseQdrantURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("search: connect to qdrant at %s:%d: %w", host, port, err)
	}

	return &QdrantIndex{
		client:     client,
		collection: cfg.Collection,
		dims:       cfg.Dims,
		logger:     logger,
	}, nil
}

// EnsureCollection creates the collection if it doesn't already exist and
// ensures all payload indexes are present. Index creation is always attempted
// regardless of whether the collection pre-existed — CreateFieldIndex is
// idempotent on Qdrant, so this safely backfills any indexes added after the
// collection was first created.
func (q *QdrantIndex) EnsureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("search: check collection exists: %w", err)
	}

	if !exists {
		m := uint64(16)
		efConstruct := uint64(128)

		if err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: q.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     q.dims,
				Distance: qdrant.Distance_Cosine,
				HnswConfig: &qdrant.HnswConfigDiff{
					M:           &m,
					EfConstruct: &efConstruct,
				},
			}),
		}); err != nil {
			return fmt.Errorf("search: create collection %q: %w", q.collection, err)
		}
		q.logger.Info("qdrant: created collection", "collection", q.collection, "dims", q.dims)
	} else {
		q.logger.Info("qdrant: collection already exists", "collection", q.collection)
	}

	keywordType := qdrant.FieldType_FieldTypeKeyword
	for _, field := range []string{"logical_doc_id", "filename"} {
		if _, err := q.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: q.collection,
			FieldName:      field,
			FieldType:      &keywordType,
		}); err != nil {
			return fmt.Errorf("search: ensure index on %q: %w", field, err)
		}
	}

	boolType := qdrant.FieldType_FieldTypeBool
	if _, err := q.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: q.collection,
		FieldName:      "is_latest",
		FieldType:      &boolType,
	}); err != nil {
		return fmt.Errorf("search: ensure index on %q: %w", "is_latest", err)
	}

	intType := qdrant.FieldType_FieldTypeInteger
	if _, err := q.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: q.collection,
		FieldName:      "version_number",
		FieldType:      &intType,
	}); err != nil {
		return fmt.Errorf("search: ensure index on %q: %w", "version_number", err)
	}

	q.logger.Info("qdrant: payload indexes ensured", "collection", q.collection)
	return nil
}

// Upsert inserts or updates chunk points in Qdrant.
func (q *QdrantIndex) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	qdrantPoints := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(p.ID.String()),
			Vectors: qdrant.NewVectorsDense(p.Vector),
			Payload: qdrant.NewValueMap(map[string]any{
				"logical_doc_id":      p.Payload.LogicalDocID.String(),
				"chunk_id":            p.Payload.ChunkID,
				"content":             p.Payload.Content,
				"filename":            p.Payload.Filename,
				"version_number":      int64(p.Payload.VersionNumber),
				"is_latest":           p.Payload.IsLatest,
				"ingestion_timestamp": p.Payload.IngestionTimestamp.UTC().Format(time.RFC3339Nano),
			}),
		}
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrantPoints,
	})
	if err != nil {
		return fmt.Errorf("search: qdrant upsert %d points: %w", len(points), err)
	}
	return nil
}

// Query returns the chunks most similar to the given vector, with payloads.
// Versions are not filtered here: superseded chunks come back with is_latest
// false so callers can flag them instead of hiding them.
func (q *QdrantIndex) Query(ctx context.Context, vector []float32, limit int, scoreThreshold float32) ([]Result, error) {
	if limit <= 0 {
		limit = 5
	}

	fetchLimit := uint64(limit) //nolint:gosec // limit is bounded by caller
	params := &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQueryDense(vector),
		Limit:          &fetchLimit,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if scoreThreshold > 0 {
		params.ScoreThreshold = &scoreThreshold
	}

	scored, err := q.client.Query(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search: qdrant query: %w", err)
	}

	results := make([]Result, 0, len(scored))
	for _, sp := range scored {
		payload, err := payloadFromValues(sp.Payload)
		if err != nil {
			q.logger.Warn("qdrant: skipping point with bad payload", "id", sp.Id.GetUuid(), "error", err)
			continue
		}
		results = append(results, Result{Score: sp.Score, Payload: payload})
	}

	return results, nil
}

// MarkOutdated sets is_latest=false on every chunk belonging to the logical
// document. Runs as a single filtered SetPayload so the flip is atomic on the
// Qdrant side.
func (q *QdrantIndex) MarkOutdated(ctx context.Context, logicalDocID uuid.UUID) error {
	_, err := q.client.SetPayload(ctx, &qdrant.SetPayloadPoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Payload:        qdrant.NewValueMap(map[string]any{"is_latest": false}),
		PointsSelector: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{
					Must: []*qdrant.Condition{
						qdrant.NewMatch("logical_doc_id", logicalDocID.String()),
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("search: qdrant mark outdated %s: %w", logicalDocID, err)
	}
	return nil
}

// payloadFromValues reconstructs a ChunkPayload from a Qdrant payload map.
func payloadFromValues(values map[string]*qdrant.Value) (model.ChunkPayload, error) {
	logicalID, err := uuid.Parse(values["logical_doc_id"].GetStringValue())
	if err != nil {
		return model.ChunkPayload{}, fmt.Errorf("parse logical_doc_id: %w", err)
	}

	payload := model.ChunkPayload{
		LogicalDocID:  logicalID,
		ChunkID:       values["chunk_id"].GetStringValue(),
		Content:       values["content"].GetStringValue(),
		Filename:      values["filename"].GetStringValue(),
		VersionNumber: int(values["version_number"].GetIntegerValue()),
		IsLatest:      values["is_latest"].GetBoolValue(),
	}
	if ts := values["ingestion_timestamp"].GetStringValue(); ts != "" {
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return model.ChunkPayload{}, fmt.Errorf("parse ingestion_timestamp: %w", err)
		}
		payload.IngestionTimestamp = parsed
	}
	return payload, nil
}

// Healthy returns nil if Qdrant is reachable. Results are cached for 5 seconds
// to avoid hammering the health endpoint on every retrieval. Concurrent calls
// after cache expiry are deduplicated via singleflight so only one gRPC call
// is made; all waiters share its result.
func (q *QdrantIndex) Healthy(ctx context.Context) error {
	// Fast path: return the cached result if fresh.
	if time.Since(time.Unix(0, q.healthAt.Load())) < 5*time.Second {
		return q.loadHealthErr()
	}

	// Deduplicate concurrent checks. Use context.Background() instead of the
	// caller's ctx because singleflight reuses the first caller's context —
	// if that caller cancels, all waiters would get a stale error.
	result, _, _ := q.healthGroup.Do("health", func() (any, error) {
		checkCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		_, err := q.client.HealthCheck(checkCtx)
		if err != nil {
			wrapped := fmt.Errorf("search: qdrant unhealthy: %w", err)
			q.storeHealthErr(wrapped)
		} else {
			q.storeHealthErr(nil)
		}
		q.healthAt.Store(time.Now().UnixNano())
		return q.loadHealthErr(), nil
	})
	if result == nil {
		return nil
	}
	return result.(error)
}

// storeHealthErr stores an error (or nil) in the atomic.Value.
// atomic.Value cannot store nil directly, so we wrap it in a pointer.
func (q *QdrantIndex) storeHealthErr(err error) {
	q.healthErr.Store(&err)
}

// loadHealthErr loads the cached health error.
func (q *QdrantIndex) loadHealthErr() error {
	v := q.healthErr.Load()
	if v == nil {
		return nil
	}
	return *v.(*error)
}

// Close shuts down the Qdrant gRPC connection.
func (q *QdrantIndex) Close() error {
	return q.client.Close()
}

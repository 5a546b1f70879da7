package search

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQdrantURL(t *testing.T) {
	tests := []struct {
		name    string
		rawURL  string
		host    string
		port    int
		tls     bool
		wantErr bool
	}{
		{
			name:   "https cloud URL with REST port",
			rawURL: "https://xyz.cloud.qdrant.io:6333",
			host:   "xyz.cloud.qdrant.io",
			port:   6334, // REST 6333 → gRPC 6334
			tls:    true,
		},
		{
			name:   "https cloud URL with gRPC port",
			rawURL: "https://xyz.cloud.qdrant.io:6334",
			host:   "xyz.cloud.qdrant.io",
			port:   6334,
			tls:    true,
		},
		{
			name:   "http local URL",
			rawURL: "http://localhost:6333",
			host:   "localhost",
			port:   6334,
			tls:    false,
		},
		{
			name:   "http no port defaults to 6334",
			rawURL: "http://qdrant.internal",
			host:   "qdrant.internal",
			port:   6334,
			tls:    false,
		},
		{
			name:   "custom port preserved",
			rawURL: "https://qdrant.example.com:9334",
			host:   "qdrant.example.com",
			port:   9334,
			tls:    true,
		},
		{
			name:    "empty URL",
			rawURL:  "",
			wantErr: true,
		},
		{
			name:    "garbage",
			rawURL:  "not a url",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, tls, err := parseQdrantURL(tt.rawURL)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.host, host)
			assert.Equal(t, tt.port, port)
			assert.Equal(t, tt.tls, tls)
		})
	}
}

func TestPayloadFromValues(t *testing.T) {
	docID := uuid.New()
	ts := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	values := qdrant.NewValueMap(map[string]any{
		"logical_doc_id":      docID.String(),
		"chunk_id":            docID.String() + "_0",
		"content":             "refunds are processed within 14 days",
		"filename":            "policy.md",
		"version_number":      int64(3),
		"is_latest":           true,
		"ingestion_timestamp": ts.Format(time.RFC3339Nano),
	})

	payload, err := payloadFromValues(values)
	require.NoError(t, err)
	assert.Equal(t, docID, payload.LogicalDocID)
	assert.Equal(t, docID.String()+"_0", payload.ChunkID)
	assert.Equal(t, "policy.md", payload.Filename)
	assert.Equal(t, 3, payload.VersionNumber)
	assert.True(t, payload.IsLatest)
	assert.True(t, payload.IngestionTimestamp.Equal(ts))
}

func TestPayloadFromValuesBadDocID(t *testing.T) {
	values := qdrant.NewValueMap(map[string]any{
		"logical_doc_id": "not-a-uuid",
	})
	_, err := payloadFromValues(values)
	require.Error(t, err)
}

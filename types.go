package bunsho

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// IngestStatus describes what ingestion did with a file.
type IngestStatus string

const (
	// Ingested means the file was indexed for the first time.
	Ingested IngestStatus = "ingested"
	// Updated means a new version of an existing document was indexed.
	Updated IngestStatus = "updated"
	// Skipped means the file's content was unchanged and nothing was written.
	Skipped IngestStatus = "skipped"
)

// IngestResult summarizes one ingestion call.
type IngestResult struct {
	Filename   string       `json:"filename"`
	LogicalID  uuid.UUID    `json:"logical_id"`
	Version    int          `json:"version"`
	Status     IngestStatus `json:"status"`
	ChunkCount int          `json:"chunk_count"`
}

// Step is one record in a reasoning invocation's audit trail. A decision
// cycle may surface two steps sharing a StepID: the decided snapshot and the
// executed snapshot; the later one is authoritative.
type Step struct {
	StepID      uuid.UUID   `json:"step_id"`
	State       string      `json:"state"`
	Thought     string      `json:"thought"`
	Action      *StepAction `json:"action,omitempty"`
	Observation string      `json:"observation,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}

// Terminal reports whether the step's state ends the invocation.
func (s Step) Terminal() bool {
	switch s.State {
	case "done", "refusing", "clarifying":
		return true
	}
	return false
}

// StepAction is the flattened public form of an agent action. Fields are
// populated according to Type.
type StepAction struct {
	Type            string   `json:"action_type"`
	Query           string   `json:"query,omitempty"`
	Question        string   `json:"question,omitempty"`
	Reason          string   `json:"reason,omitempty"`
	Answer          string   `json:"answer,omitempty"`
	ConfidenceScore float64  `json:"confidence_score,omitempty"`
	Citations       []string `json:"citations,omitempty"`
	DocIDs          []string `json:"doc_ids,omitempty"`
	Rationale       string   `json:"rationale,omitempty"`
}

// Message is one turn of a chat transcript passed to a Completer.
type Message struct {
	Role    string // "system", "user", or "assistant"
	Content string
}

// Completer generates one completion for a transcript. Provide an
// implementation via WithCompleter to replace the configured LLM backend,
// e.g. with a scripted fake in tests.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Embedder turns text into vectors. Provide an implementation via
// WithEmbedder to replace the configured embedding backend. Dimensions must
// be constant for the life of the index.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

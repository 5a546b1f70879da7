// Package bunsho is the public API for embedding the Bunsho document
// intelligence core.
//
// Hosting layers (CLI, HTTP server) construct an App and drive it:
//
//	app, err := bunsho.New(
//	    bunsho.WithVersion(version),
//	    bunsho.WithLogger(logger),
//	)
//	if err != nil { ... }
//	defer app.Close(ctx)
//
//	result, err := app.Ingest(ctx, "docs/policy.md")
//	for step := range app.Ask(ctx, "what is the refund window?") { ... }
//
// The import graph enforces a strict no-cycle rule: bunsho (root) imports
// internal/*, but internal/* never imports bunsho (root). Public types
// (Step, IngestResult, etc.) are standalone structs with no internal
// imports; conversion helpers live here because this is the only file that
// sees both sides of the boundary.
package bunsho

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/pgvector/pgvector-go"

	"github.com/ashita-ai/bunsho/internal/agent"
	"github.com/ashita-ai/bunsho/internal/config"
	"github.com/ashita-ai/bunsho/internal/document"
	"github.com/ashita-ai/bunsho/internal/model"
	"github.com/ashita-ai/bunsho/internal/search"
	"github.com/ashita-ai/bunsho/internal/service/completion"
	"github.com/ashita-ai/bunsho/internal/service/embedding"
	"github.com/ashita-ai/bunsho/internal/service/ingestion"
	"github.com/ashita-ai/bunsho/internal/service/retrieval"
	"github.com/ashita-ai/bunsho/internal/storage"
	"github.com/ashita-ai/bunsho/internal/telemetry"
	"github.com/ashita-ai/bunsho/migrations"
)

// App wires the ingestion pipeline and the reasoning loop over shared
// collaborators. Construct with New(); App has no public fields.
type App struct {
	cfg          config.Config
	logger       *slog.Logger
	db           *storage.DB             // nil when running on SQLite
	sqliteReg    *storage.SQLiteRegistry // nil when running on Postgres
	index        search.Index
	ingest       *ingestion.Service
	runner       *agent.Runner
	otelShutdown telemetry.Shutdown
}

// New initialises the core: loads configuration, connects storage and the
// vector index, and wires the pipeline. It starts no goroutines.
func New(opts ...Option) (*App, error) {
	o := resolvedOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.databaseURL != "" {
		cfg.DatabaseURL = o.databaseURL
	}
	if o.registryPath != "" {
		cfg.RegistryPath = o.registryPath
	}
	if o.qdrantURL != "" {
		cfg.QdrantURL = o.qdrantURL
	}
	if o.collection != "" {
		cfg.QdrantCollection = o.collection
	}
	version := o.version
	if version == "" {
		version = "dev"
	}

	logger.Info("bunsho starting", "version", version)

	ctx := context.Background()
	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	app := &App{cfg: cfg, logger: logger, otelShutdown: otelShutdown}

	// Registry and chunk archive: Postgres when configured, SQLite fallback
	// for single-binary setups (no chunk archive in that mode).
	var registry storage.Registry
	var chunkStore storage.ChunkStore
	if cfg.DatabaseURL != "" {
		db, err := storage.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		if err := db.RunMigrations(ctx, migrations.FS); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		app.db = db
		registry, chunkStore = db, db
	} else {
		reg, err := storage.NewSQLiteRegistry(cfg.RegistryPath)
		if err != nil {
			return nil, fmt.Errorf("registry: %w", err)
		}
		logger.Info("registry: sqlite", "path", cfg.RegistryPath)
		app.sqliteReg = reg
		registry, chunkStore = reg, storage.NoopChunkStore{}
	}

	// Embedding provider — external override takes priority over config.
	var embedder embedding.Provider
	if o.embedder != nil {
		embedder = embedderAdapter{o.embedder}
	} else {
		embedder = newEmbeddingProvider(cfg, logger)
	}

	// Vector index.
	if cfg.QdrantURL != "" {
		qdrantIndex, err := search.NewQdrantIndex(search.QdrantConfig{
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.QdrantCollection,
			Dims:       uint64(embedder.Dimensions()), //nolint:gosec
		}, logger)
		if err != nil {
			app.Close(ctx)
			return nil, fmt.Errorf("search: %w", err)
		}
		if err := qdrantIndex.EnsureCollection(ctx); err != nil {
			app.Close(ctx)
			return nil, fmt.Errorf("search: %w", err)
		}
		app.index = qdrantIndex
	} else {
		logger.Info("search: in-memory index (QDRANT_URL not set)")
		app.index = search.NewMemoryIndex()
	}

	chunkerCfg := document.DefaultChunkerConfig(cfg.ChunkStrategy)
	chunkerCfg.Size = cfg.ChunkSize
	chunkerCfg.Overlap = cfg.ChunkOverlap
	chunker, err := document.NewChunker(chunkerCfg, embedder)
	if err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("chunker: %w", err)
	}

	app.ingest = ingestion.New(
		document.NewParser(),
		chunker,
		embedder,
		app.index,
		registry,
		chunkStore,
		logger,
	)

	var completer completion.Completer
	if o.completer != nil {
		completer = completerAdapter{o.completer}
	} else {
		completer = newCompleter(cfg, logger)
	}

	retriever := retrieval.New(embedder, app.index, logger)
	app.runner = agent.NewRunner(completer, agent.NewToolAdapter(retriever), logger)

	return app, nil
}

// Ingest runs the ingestion pipeline for one file.
func (a *App) Ingest(ctx context.Context, path string) (IngestResult, error) {
	report, err := a.ingest.IngestFile(ctx, path)
	if err != nil {
		return IngestResult{}, err
	}
	return IngestResult{
		Filename:   report.Filename,
		LogicalID:  report.LogicalID,
		Version:    report.Version,
		Status:     IngestStatus(report.Status),
		ChunkCount: report.ChunkCount,
	}, nil
}

// Ask runs one reasoning invocation and streams its steps. The sequence is
// finite and one-shot; start a new Ask for a follow-up turn.
func (a *App) Ask(ctx context.Context, query string) iter.Seq[Step] {
	return func(yield func(Step) bool) {
		for step := range a.runner.Run(ctx, query) {
			if !yield(toPublicStep(step)) {
				return
			}
		}
	}
}

// Close releases storage and index connections and flushes telemetry.
func (a *App) Close(ctx context.Context) error {
	var firstErr error
	if a.index != nil {
		if err := a.index.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.sqliteReg != nil {
		if err := a.sqliteReg.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// newEmbeddingProvider selects the embedding backend from config, probing
// Ollama first in auto mode so local setups work with zero configuration.
func newEmbeddingProvider(cfg config.Config, logger *slog.Logger) embedding.Provider {
	dims := cfg.EmbeddingDimensions

	switch cfg.EmbeddingProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			logger.Error("OPENAI_API_KEY required when BUNSHO_EMBEDDING_PROVIDER=openai")
			return embedding.NewNoopProvider(dims)
		}
		logger.Info("embedding provider: openai", "model", cfg.EmbeddingModel, "dimensions", dims)
		return embedding.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.EmbeddingModel, dims)
	case "ollama":
		logger.Info("embedding provider: ollama", "url", cfg.OllamaURL, "model", cfg.OllamaEmbedModel, "dimensions", dims)
		return embedding.NewOllamaProvider(cfg.OllamaURL, cfg.OllamaEmbedModel, dims)
	case "noop":
		logger.Info("embedding provider: noop (deterministic hash vectors)")
		return embedding.NewNoopProvider(dims)
	default: // "auto"
		if ollamaReachable(cfg.OllamaURL) {
			logger.Info("embedding provider: ollama (auto-detected)", "url", cfg.OllamaURL, "model", cfg.OllamaEmbedModel, "dimensions", dims)
			return embedding.NewOllamaProvider(cfg.OllamaURL, cfg.OllamaEmbedModel, dims)
		}
		if cfg.OpenAIAPIKey != "" {
			logger.Info("embedding provider: openai (auto-detected)", "model", cfg.EmbeddingModel, "dimensions", dims)
			return embedding.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.EmbeddingModel, dims)
		}
		logger.Warn("no embedding provider available, using noop (deterministic hash vectors)")
		return embedding.NewNoopProvider(dims)
	}
}

// newCompleter selects the LLM backend from config, probing Ollama first in
// auto mode, mirroring the embedding provider selection.
func newCompleter(cfg config.Config, logger *slog.Logger) completion.Completer {
	switch cfg.LLMProvider {
	case "openai":
		logger.Info("llm provider: openai", "model", cfg.LLMModel)
		return completion.NewOpenAICompleter(cfg.OpenAIAPIKey, "", cfg.LLMModel)
	case "anthropic":
		logger.Info("llm provider: anthropic", "model", cfg.LLMModel)
		return completion.NewAnthropicCompleter(cfg.AnthropicAPIKey, "", cfg.LLMModel)
	case "ollama":
		model := cfg.LLMModel
		if model == "" {
			model = "llama3.1"
		}
		logger.Info("llm provider: ollama", "url", cfg.OllamaURL, "model", model)
		return completion.NewOllamaCompleter(cfg.OllamaURL, model)
	default: // "auto"
		if ollamaReachable(cfg.OllamaURL) {
			model := cfg.LLMModel
			if model == "" {
				model = "llama3.1"
			}
			logger.Info("llm provider: ollama (auto-detected)", "url", cfg.OllamaURL, "model", model)
			return completion.NewOllamaCompleter(cfg.OllamaURL, model)
		}
		if cfg.OpenAIAPIKey != "" {
			logger.Info("llm provider: openai (auto-detected)", "model", cfg.LLMModel)
			return completion.NewOpenAICompleter(cfg.OpenAIAPIKey, "", cfg.LLMModel)
		}
		if cfg.AnthropicAPIKey != "" {
			logger.Info("llm provider: anthropic (auto-detected)", "model", cfg.LLMModel)
			return completion.NewAnthropicCompleter(cfg.AnthropicAPIKey, "", cfg.LLMModel)
		}
		logger.Warn("no llm provider available, falling back to ollama", "url", cfg.OllamaURL)
		return completion.NewOllamaCompleter(cfg.OllamaURL, "llama3.1")
	}
}

func ollamaReachable(baseURL string) bool {
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(c, http.MethodGet, baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// embedderAdapter bridges the public Embedder interface to the internal
// provider contract.
type embedderAdapter struct {
	e Embedder
}

func (a embedderAdapter) Embed(ctx context.Context, text string) (pgvector.Vector, error) {
	v, err := a.e.Embed(ctx, text)
	if err != nil {
		return pgvector.Vector{}, err
	}
	return pgvector.NewVector(v), nil
}

func (a embedderAdapter) EmbedBatch(ctx context.Context, texts []string) ([]pgvector.Vector, error) {
	raw, err := a.e.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	vecs := make([]pgvector.Vector, len(raw))
	for i, v := range raw {
		vecs[i] = pgvector.NewVector(v)
	}
	return vecs, nil
}

func (a embedderAdapter) Dimensions() int { return a.e.Dimensions() }

// completerAdapter bridges the public Completer interface to the internal
// completion contract.
type completerAdapter struct {
	c Completer
}

func (a completerAdapter) Complete(ctx context.Context, messages []completion.Message) (string, error) {
	public := make([]Message, len(messages))
	for i, m := range messages {
		public[i] = Message{Role: string(m.Role), Content: m.Content}
	}
	return a.c.Complete(ctx, public)
}

// toPublicStep converts an internal step record into the public form.
func toPublicStep(step model.AgentStep) Step {
	out := Step{
		StepID:      step.StepID,
		State:       string(step.State),
		Thought:     step.Thought,
		Observation: step.Observation,
		Timestamp:   step.Timestamp,
	}
	switch action := step.Action.(type) {
	case model.RetrieveAction:
		out.Action = &StepAction{Type: "retrieve", Query: action.Query, Rationale: action.Rationale}
	case model.SummarizeAction:
		out.Action = &StepAction{Type: "summarize", DocIDs: action.DocIDs, Rationale: action.Rationale}
	case model.ClarifyAction:
		out.Action = &StepAction{Type: "clarify", Question: action.Question, Rationale: action.Rationale}
	case model.RefuseAction:
		out.Action = &StepAction{Type: "refuse", Reason: action.Reason, Rationale: action.Rationale}
	case model.AnswerAction:
		out.Action = &StepAction{
			Type:            "answer",
			Answer:          action.Answer,
			ConfidenceScore: action.ConfidenceScore,
			Citations:       action.Citations,
			Rationale:       action.Rationale,
		}
	}
	return out
}

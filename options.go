package bunsho

import "log/slog"

// Option configures an App.
type Option func(*resolvedOptions)

// resolvedOptions holds all extension points after applying defaults.
// Unexported — callers use the With* functions.
type resolvedOptions struct {
	logger       *slog.Logger
	version      string
	databaseURL  string
	registryPath string
	qdrantURL    string
	collection   string
	embedder     Embedder
	completer    Completer
}

// WithLogger sets the structured logger for the App.
// If not set, the default slog logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithVersion sets the version string reported in logs and telemetry.
func WithVersion(version string) Option {
	return func(o *resolvedOptions) { o.version = version }
}

// WithDatabaseURL overrides the Postgres connection string from config
// (DATABASE_URL env var).
func WithDatabaseURL(url string) Option {
	return func(o *resolvedOptions) { o.databaseURL = url }
}

// WithRegistryPath overrides the SQLite registry location used when no
// Postgres URL is configured (BUNSHO_REGISTRY_PATH env var).
func WithRegistryPath(path string) Option {
	return func(o *resolvedOptions) { o.registryPath = path }
}

// WithQdrantURL overrides the Qdrant endpoint from config (QDRANT_URL env
// var). When neither is set, an in-memory index is used.
func WithQdrantURL(url string) Option {
	return func(o *resolvedOptions) { o.qdrantURL = url }
}

// WithCollection overrides the Qdrant collection name (BUNSHO_COLLECTION
// env var).
func WithCollection(name string) Option {
	return func(o *resolvedOptions) { o.collection = name }
}

// WithEmbedder replaces the configured embedding backend.
func WithEmbedder(e Embedder) Option {
	return func(o *resolvedOptions) { o.embedder = e }
}

// WithCompleter replaces the configured LLM completion backend.
func WithCompleter(c Completer) Option {
	return func(o *resolvedOptions) { o.completer = c }
}

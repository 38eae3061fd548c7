// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions; adapters implement them.
package ports

import (
	"context"

	"github.com/0xcro3dile/tableqa-go/internal/domain/entities"
)

// EmbeddingService generates vector embeddings for text.
// Documents and queries are separate calls so instruction-tuned models can
// prefix each side differently.
type EmbeddingService interface {
	// EmbedDocuments generates one embedding per text, in input order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates the embedding used to search the index.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// GenerateRequest is a single non-streaming completion request.
type GenerateRequest struct {
	Model  string // Empty selects the adapter default
	Prompt string
}

// LLMService generates text responses from a language model.
type LLMService interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// VectorStore holds embedded row documents and answers similarity queries.
type VectorStore interface {
	// Store saves chunks with their embeddings.
	Store(ctx context.Context, chunks []entities.Chunk) error

	// Search finds the most similar chunks to a query embedding.
	Search(ctx context.Context, embedding []float32, topK int) ([]entities.QueryResult, error)

	// Clear removes all data from the store.
	Clear(ctx context.Context) error
}

// ProgressReporter is notified when an analysis starts.
type ProgressReporter interface {
	// Begin starts reporting for one unit of work.
	Begin(label string) Progress
}

// Progress is one running report.
type Progress interface {
	// End stops reporting and blocks until all output is flushed.
	End()
}

// ResultExporter persists the accumulated results table.
type ResultExporter interface {
	Export(ctx context.Context, table entities.ResultTable) error
}

// TableLoader reads a tabular dataset from a file.
type TableLoader interface {
	// Load reads the table at path.
	Load(ctx context.Context, path string) (entities.Table, error)

	// SupportedExtensions returns file extensions this loader handles.
	SupportedExtensions() []string
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)

func (op FileOperation) String() string {
	switch op {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Package usecases - analyze.go runs the retrieval-augmented pipeline over a table.
package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/0xcro3dile/tableqa-go/internal/domain/entities"
	"github.com/0xcro3dile/tableqa-go/internal/domain/ports"
)

var (
	// ErrEmptyTable is returned when a table has no rows or no columns.
	ErrEmptyTable = errors.New("table is empty")

	// ErrBlankQuery is returned when the query has no visible characters.
	ErrBlankQuery = errors.New("query is blank")
)

// DefaultTopK is the number of rows retrieved for each query.
const DefaultTopK = 4

// AnalysisRequest is one question asked of one table.
type AnalysisRequest struct {
	Table entities.Table
	Query string
	Model string // Empty selects the LLM adapter default
}

// Analysis is the answer produced for a request.
type Analysis struct {
	Answer  string
	Sources []entities.QueryResult
}

// Analyzer answers a query against a table.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalysisRequest) (*Analysis, error)
}

// AnalyzeUseCase indexes table rows and answers queries against them.
type AnalyzeUseCase struct {
	embedder    ports.EmbeddingService
	vectorStore ports.VectorStore
	llm         ports.LLMService
	topK        int
}

// NewAnalyzeUseCase creates an AnalyzeUseCase with injected dependencies.
func NewAnalyzeUseCase(
	embedder ports.EmbeddingService,
	vectorStore ports.VectorStore,
	llm ports.LLMService,
	topK int,
) *AnalyzeUseCase {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &AnalyzeUseCase{
		embedder:    embedder,
		vectorStore: vectorStore,
		llm:         llm,
		topK:        topK,
	}
}

// Analyze builds a fresh index from the table rows and answers the query.
// The vector store is reset on every call, so callers must not run two
// analyses against the same store concurrently.
func (uc *AnalyzeUseCase) Analyze(ctx context.Context, req AnalysisRequest) (*Analysis, error) {
	if req.Table.Empty() {
		return nil, ErrEmptyTable
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrBlankQuery
	}

	// 1. Render rows as documents
	chunks := RowDocuments(req.Table)
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	// 2. Embed them
	embeddings, err := uc.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding documents: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("embedding documents: got %d vectors for %d rows", len(embeddings), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	// 3. Rebuild the index
	if err := uc.vectorStore.Clear(ctx); err != nil {
		return nil, fmt.Errorf("resetting index: %w", err)
	}
	if err := uc.vectorStore.Store(ctx, chunks); err != nil {
		return nil, fmt.Errorf("indexing documents: %w", err)
	}

	// 4. Retrieve relevant rows
	queryEmbedding, err := uc.embedder.EmbedQuery(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	results, err := uc.vectorStore.Search(ctx, queryEmbedding, uc.topK)
	if err != nil {
		return nil, fmt.Errorf("searching vectors: %w", err)
	}

	// 5. Generate the answer
	contextParts := make([]string, len(results))
	for i, r := range results {
		contextParts[i] = r.Chunk.Content
	}
	answer, err := uc.llm.Generate(ctx, ports.GenerateRequest{
		Model:  req.Model,
		Prompt: buildPrompt(req.Query, contextParts),
	})
	if err != nil {
		return nil, fmt.Errorf("generating response: %w", err)
	}

	return &Analysis{
		Answer:  strings.TrimSpace(answer),
		Sources: results,
	}, nil
}

// buildPrompt stuffs the retrieved rows into a single question prompt.
func buildPrompt(query string, context []string) string {
	var sb strings.Builder
	sb.WriteString("Use the following pieces of context to answer the question at the end. ")
	sb.WriteString("If you don't know the answer, just say that you don't know, don't try to make up an answer.\n\n")
	sb.WriteString(strings.Join(context, "\n\n"))
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(query)
	sb.WriteString("\nHelpful Answer:")
	return sb.String()
}

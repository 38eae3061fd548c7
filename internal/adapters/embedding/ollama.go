// Package embedding provides embedding adapters.
// Adapters implement ports.EmbeddingService; the domain layer knows nothing
// about Ollama or OpenAI specifics.
package embedding

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"
)

// Instruction prefixes recommended for nomic-embed-text.
const (
	DefaultDocumentInstruction = "search_document: "
	DefaultQueryInstruction    = "search_query: "
)

// OllamaOptions tunes the Ollama embedding adapter.
type OllamaOptions struct {
	DocumentInstruction string // Prepended to every document text
	QueryInstruction    string // Prepended to the query text
	BatchSize           int    // Texts per /api/embed call
	Parallel            int    // Concurrent batch calls
	Logger              *log.Logger
}

// OllamaAdapter implements ports.EmbeddingService using the Ollama API.
type OllamaAdapter struct {
	baseURL string
	model   string
	client  *http.Client
	opts    OllamaOptions
}

// NewOllamaAdapter creates a new Ollama embedding adapter.
func NewOllamaAdapter(baseURL, model string, opts OllamaOptions) *OllamaAdapter {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	if opts.Parallel <= 0 {
		opts.Parallel = 4
	}
	if opts.Logger == nil {
		opts.Logger = &log.DefaultLogger
	}
	return &OllamaAdapter{
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
		opts: opts,
	}
}

// ollamaEmbedRequest is the Ollama /api/embed request format.
type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// ollamaEmbedResponse is the Ollama /api/embed response format.
type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// EmbedDocuments embeds texts in batches, several batches at a time.
func (a *OllamaAdapter) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	if len(texts) == 0 {
		return embeddings, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Parallel)

	for start := 0; start < len(texts); start += a.opts.BatchSize {
		start := start
		end := min(start+a.opts.BatchSize, len(texts))

		g.Go(func() error {
			batch := make([]string, end-start)
			for i, text := range texts[start:end] {
				batch[i] = a.opts.DocumentInstruction + text
			}

			out, err := a.embed(ctx, batch)
			if err != nil {
				return fmt.Errorf("embedding rows %d-%d: %w", start, end-1, err)
			}
			copy(embeddings[start:end], out)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.opts.Logger.Debug().Int("documents", len(texts)).Str("model", a.model).Msg("embedded documents")
	return embeddings, nil
}

// EmbedQuery embeds a single query text.
func (a *OllamaAdapter) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	out, err := a.embed(ctx, []string{a.opts.QueryInstruction + text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// embed calls /api/embed once and checks one vector came back per input.
func (a *OllamaAdapter) embed(ctx context.Context, input []string) ([][]float32, error) {
	jsonData, err := json.Marshal(ollamaEmbedRequest{Model: a.model, Input: input})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/api/embed", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling Ollama: %w", err)
	}
	defer resp.Body.Close()

	var embedResp ollamaEmbedResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&embedResp)

	if resp.StatusCode != http.StatusOK {
		if embedResp.Error != "" {
			return nil, fmt.Errorf("Ollama returned status %d: %s", resp.StatusCode, embedResp.Error)
		}
		return nil, fmt.Errorf("Ollama returned status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decoding response: %w", decodeErr)
	}
	if len(embedResp.Embeddings) != len(input) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(input), len(embedResp.Embeddings))
	}

	return embedResp.Embeddings, nil
}

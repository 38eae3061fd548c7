package embedding

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIAdapter implements ports.EmbeddingService for any OpenAI-compatible
// endpoint, including Ollama's /v1 API.
type OpenAIAdapter struct {
	client              *openai.Client
	model               string
	documentInstruction string
	queryInstruction    string
}

// NewOpenAIAdapter creates an embedding adapter backed by go-openai.
func NewOpenAIAdapter(apiKey, baseURL, model, documentInstruction, queryInstruction string) *OpenAIAdapter {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	return &OpenAIAdapter{
		client:              openai.NewClientWithConfig(config),
		model:               model,
		documentInstruction: documentInstruction,
		queryInstruction:    queryInstruction,
	}
}

// EmbedDocuments embeds all texts in a single request.
func (a *OpenAIAdapter) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	input := make([]string, len(texts))
	for i, text := range texts {
		input[i] = a.documentInstruction + text
	}
	return a.embed(ctx, input)
}

// EmbedQuery embeds a single query text.
func (a *OpenAIAdapter) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	out, err := a.embed(ctx, []string{a.queryInstruction + text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (a *OpenAIAdapter) embed(ctx context.Context, input []string) ([][]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: input,
		Model: openai.EmbeddingModel(a.model),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	if len(resp.Data) != len(input) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(input), len(resp.Data))
	}

	// Data is not guaranteed to come back in input order.
	out := make([][]float32, len(input))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		if out[d.Index] != nil {
			return nil, fmt.Errorf("duplicate embedding index %d", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	for i, v := range out {
		if v == nil {
			return nil, fmt.Errorf("missing embedding for input %d", i)
		}
	}
	return out, nil
}

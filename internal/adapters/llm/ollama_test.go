package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/0xcro3dile/tableqa-go/internal/domain/ports"
)

func TestOllamaLLM_Generate(t *testing.T) {
	var got ollamaGenerateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"response": "Hello there!",
			"done":     true,
		})
	}))
	defer server.Close()

	adapter := NewOllamaLLMAdapter(server.URL, "test-model")
	resp, err := adapter.Generate(context.Background(), ports.GenerateRequest{Prompt: "Hi"})

	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if resp != "Hello there!" {
		t.Errorf("unexpected response: %s", resp)
	}
	if got.Model != "test-model" || got.Prompt != "Hi" || got.Stream {
		t.Errorf("unexpected request: %+v", got)
	}
}

func TestOllamaLLM_RequestModelOverridesDefault(t *testing.T) {
	var got ollamaGenerateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]interface{}{"response": "ok", "done": true})
	}))
	defer server.Close()

	adapter := NewOllamaLLMAdapter(server.URL, "mistral")
	adapter.Generate(context.Background(), ports.GenerateRequest{Model: "llama3", Prompt: "p"})

	if got.Model != "llama3" {
		t.Errorf("expected llama3, got %s", got.Model)
	}
}

func TestOllamaLLM_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "model 'nope' not found"})
	}))
	defer server.Close()

	adapter := NewOllamaLLMAdapter(server.URL, "nope")
	_, err := adapter.Generate(context.Background(), ports.GenerateRequest{Prompt: "test"})

	if err == nil {
		t.Fatal("should error on 404")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error should carry the server message: %v", err)
	}
}

func TestOllamaLLM_DefaultValues(t *testing.T) {
	adapter := NewOllamaLLMAdapter("", "")
	if adapter.baseURL != "http://localhost:11434" {
		t.Error("should default to localhost")
	}
	if adapter.model != "mistral" {
		t.Error("should default to mistral")
	}
}

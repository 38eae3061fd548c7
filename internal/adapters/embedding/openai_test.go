package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIAdapter_EmbedDocumentsReordersByIndex(t *testing.T) {
	var got struct {
		Input []string `json:"input"`
		Model string   `json:"model"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"object": "list",
			"model":  got.Model,
			"data": []map[string]interface{}{
				{"object": "embedding", "index": 1, "embedding": []float32{2, 2}},
				{"object": "embedding", "index": 0, "embedding": []float32{1, 1}},
			},
		})
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter("test-key", server.URL+"/v1", "nomic-embed-text", "doc: ", "")
	results, err := adapter.EmbedDocuments(context.Background(), []string{"first", "second"})

	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if results[0][0] != 1 || results[1][0] != 2 {
		t.Errorf("results not ordered by index: %v", results)
	}
	if got.Model != "nomic-embed-text" || got.Input[0] != "doc: first" {
		t.Errorf("unexpected request: %+v", got)
	}
}

func TestOpenAIAdapter_RejectsDuplicateIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"object": "list",
			"data": []map[string]interface{}{
				{"object": "embedding", "index": 0, "embedding": []float32{1, 1}},
				{"object": "embedding", "index": 0, "embedding": []float32{2, 2}},
			},
		})
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter("test-key", server.URL+"/v1", "m", "", "")
	if _, err := adapter.EmbedDocuments(context.Background(), []string{"a", "b"}); err == nil {
		t.Error("duplicate index should leave input 1 without a vector and fail")
	}
}

func TestOpenAIAdapter_RejectsEmptyEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"object": "list",
			"data": []map[string]interface{}{
				{"object": "embedding", "index": 0, "embedding": []float32{1, 1}},
				{"object": "embedding", "index": 1},
			},
		})
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter("test-key", server.URL+"/v1", "m", "", "")
	if _, err := adapter.EmbedDocuments(context.Background(), []string{"a", "b"}); err == nil {
		t.Error("an input with no vector should fail")
	}
}

func TestOpenAIAdapter_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "boom", "type": "server_error"},
		})
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter("test-key", server.URL+"/v1", "m", "", "")
	if _, err := adapter.EmbedQuery(context.Background(), "q"); err == nil {
		t.Error("should error on 500")
	}
}

func TestOpenAIAdapter_DefaultModel(t *testing.T) {
	adapter := NewOpenAIAdapter("", "", "", "", "")
	if adapter.model != "text-embedding-3-small" {
		t.Errorf("unexpected default model: %s", adapter.model)
	}
}

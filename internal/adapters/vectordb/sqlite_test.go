package vectordb

import (
	"context"
	"testing"

	"github.com/0xcro3dile/tableqa-go/internal/domain/entities"
	"github.com/0xcro3dile/tableqa-go/internal/domain/ports"
)

var (
	_ ports.VectorStore = (*SQLiteStore)(nil)
	_ ports.VectorStore = (*InMemoryStore)(nil)
)

func testChunks() []entities.Chunk {
	return []entities.Chunk{
		{ID: "c1", RowIndex: 0, Content: "product: apples", Embedding: []float32{1.0, 0.0, 0.0}},
		{ID: "c2", RowIndex: 1, Content: "product: pears", Embedding: []float32{0.0, 1.0, 0.0}},
		{ID: "c3", RowIndex: 2, Content: "product: plums", Embedding: []float32{0.7, 0.7, 0.0}},
	}
}

func TestSQLiteStore_StoreAndSearch(t *testing.T) {
	store, err := NewSQLiteStore("")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Store(ctx, testChunks()); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	results, err := store.Search(ctx, []float32{1.0, 0.0, 0.0}, 2)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Chunk.ID != "c1" || results[1].Chunk.ID != "c3" {
		t.Errorf("unexpected ranking: %s, %s", results[0].Chunk.ID, results[1].Chunk.ID)
	}
	if results[0].Chunk.Content != "product: apples" || results[0].Chunk.RowIndex != 0 {
		t.Errorf("row fields not round-tripped: %+v", results[0].Chunk)
	}
	if len(results[0].Chunk.Embedding) != 3 {
		t.Errorf("embedding not round-tripped: %v", results[0].Chunk.Embedding)
	}
}

func TestSQLiteStore_Clear(t *testing.T) {
	store, _ := NewSQLiteStore("")
	defer store.Close()

	ctx := context.Background()
	store.Store(ctx, testChunks())
	store.Clear(ctx)

	count, _ := store.Count(ctx)
	if count != 0 {
		t.Errorf("expected 0 rows after clear, got %d", count)
	}
}

func TestSQLiteStore_ReplacesSameID(t *testing.T) {
	store, _ := NewSQLiteStore("")
	defer store.Close()

	ctx := context.Background()
	store.Store(ctx, testChunks())
	store.Store(ctx, testChunks()[:1])

	count, _ := store.Count(ctx)
	if count != 3 {
		t.Errorf("expected 3 rows, got %d", count)
	}
}

func TestInMemoryStore_SearchAndClear(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	store.Store(ctx, testChunks())

	results, _ := store.Search(ctx, []float32{0.0, 1.0, 0.0}, 1)
	if len(results) != 1 || results[0].Chunk.ID != "c2" {
		t.Errorf("expected c2 on top, got %+v", results)
	}

	store.Clear(ctx)
	if store.Len() != 0 {
		t.Errorf("expected empty store, got %d", store.Len())
	}
}

func TestInMemoryStore_TiesKeepRowOrder(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	store.Store(ctx, []entities.Chunk{
		{ID: "a", Embedding: []float32{1, 0}},
		{ID: "b", Embedding: []float32{1, 0}},
		{ID: "c", Embedding: []float32{1, 0}},
	})

	results, _ := store.Search(ctx, []float32{1, 0}, 10)
	for i, want := range []string{"a", "b", "c"} {
		if results[i].Chunk.ID != want {
			t.Errorf("position %d: got %s, want %s", i, results[i].Chunk.ID, want)
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{1, 0, 0}
	c := []float32{0, 1, 0}

	same := cosineSimilarity(a, b)
	diff := cosineSimilarity(a, c)

	if same != 1.0 {
		t.Errorf("same vectors should have score 1.0, got %f", same)
	}
	if diff != 0.0 {
		t.Errorf("orthogonal vectors should have score 0.0, got %f", diff)
	}
	if cosineSimilarity(a, []float32{1, 0}) != 0 {
		t.Error("mismatched dimensions should score 0")
	}
}

func TestVectorCodec(t *testing.T) {
	in := []float32{0.25, -1.5, 3}
	out, err := decodeVector(encodeVector(in))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("index %d: got %f, want %f", i, out[i], in[i])
		}
	}
	if _, err := decodeVector([]byte{1, 2, 3}); err == nil {
		t.Error("should reject truncated blob")
	}
}

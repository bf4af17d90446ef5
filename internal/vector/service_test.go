package vector

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"
)

type stubEmbedder struct {
	calls int
	fail  bool
}

// Embed derives a deterministic vector from the text so distinct
// chunks land at distinct points.
func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	if s.fail {
		return nil, errors.New("model unavailable")
	}
	var sum float32
	for _, r := range text {
		sum += float32(r)
	}
	return []float32{sum, float32(len(text)), 1}, nil
}

type stubIndex struct {
	vectors map[string]StoredVector
}

func newStubIndex() *stubIndex {
	return &stubIndex{vectors: make(map[string]StoredVector)}
}

func (s *stubIndex) Upsert(ctx context.Context, vectors []StoredVector) (int, error) {
	for _, v := range vectors {
		s.vectors[v.ID] = v
	}
	return len(vectors), nil
}

func (s *stubIndex) Search(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]Match, error) {
	matches := make([]Match, 0)
	for _, v := range s.vectors {
		ok := true
		for k, want := range filter {
			if v.Metadata[k] != want {
				ok = false
			}
		}
		if ok {
			matches = append(matches, Match{ID: v.ID, Score: 1, Metadata: v.Metadata})
		}
		if topK > 0 && len(matches) == topK {
			break
		}
	}
	return matches, nil
}

func (s *stubIndex) ListIDs(ctx context.Context, filter map[string]string) ([]string, error) {
	ids := make([]string, 0)
	for _, v := range s.vectors {
		ok := true
		for k, want := range filter {
			if v.Metadata[k] != want {
				ok = false
			}
		}
		if ok {
			ids = append(ids, v.ID)
		}
	}
	return ids, nil
}

func (s *stubIndex) Delete(ctx context.Context, ids []string) (int, error) {
	deleted := 0
	for _, id := range ids {
		if _, ok := s.vectors[id]; ok {
			delete(s.vectors, id)
			deleted++
		}
	}
	return deleted, nil
}

type mapCache struct {
	data map[string][]float32
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]float32)}
}

func (c *mapCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(ctx context.Context, key string, values []float32) error {
	c.data[key] = values
	return nil
}

func TestStoreDocumentChunksAssignsSequentialIDs(t *testing.T) {
	index := newStubIndex()
	svc := NewService(index, &stubEmbedder{}, nil, zap.NewNop())

	ids, err := svc.StoreDocumentChunks(context.Background(),
		[]string{"first chunk", "second chunk", "third chunk"}, "u1", "f1")
	if err != nil {
		t.Fatalf("StoreDocumentChunks failed: %v", err)
	}

	if len(ids) != 3 {
		t.Fatalf("expected 3 ids, got %d", len(ids))
	}
	for i, id := range ids {
		want := fmt.Sprintf("f1_chunk_%d", i)
		if id != want {
			t.Errorf("id %d: expected %s, got %s", i, want, id)
		}
	}

	v, ok := index.vectors["f1_chunk_1"]
	if !ok {
		t.Fatal("vector f1_chunk_1 not stored")
	}
	if v.Metadata[MetaUserID] != "u1" || v.Metadata[MetaFileID] != "f1" {
		t.Errorf("ownership metadata missing: %v", v.Metadata)
	}
	if v.Metadata[MetaText] != "second chunk" || v.Metadata[MetaChunkIndex] != "1" {
		t.Errorf("chunk metadata wrong: %v", v.Metadata)
	}
}

func TestStoreDocumentChunksEmptyInput(t *testing.T) {
	svc := NewService(newStubIndex(), &stubEmbedder{}, nil, zap.NewNop())
	ids, err := svc.StoreDocumentChunks(context.Background(), nil, "u1", "f1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected no ids for empty input")
	}
}

func TestStoreDocumentChunksEmbedFailureStoresNothing(t *testing.T) {
	index := newStubIndex()
	svc := NewService(index, &stubEmbedder{fail: true}, nil, zap.NewNop())

	_, err := svc.StoreDocumentChunks(context.Background(), []string{"a"}, "u1", "f1")
	if err == nil {
		t.Fatal("expected embedding failure to propagate")
	}
	if len(index.vectors) != 0 {
		t.Errorf("nothing should be upserted after an embed failure")
	}
}

func TestSearchRelevantChunksIsUserScoped(t *testing.T) {
	index := newStubIndex()
	svc := NewService(index, &stubEmbedder{}, nil, zap.NewNop())
	ctx := context.Background()

	svc.StoreDocumentChunks(ctx, []string{"u1 doc text"}, "u1", "f1")
	svc.StoreDocumentChunks(ctx, []string{"u2 doc text"}, "u2", "f2")

	chunks, err := svc.SearchRelevantChunks(ctx, "query", "u1", 5)
	if err != nil {
		t.Fatalf("SearchRelevantChunks failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected only u1's chunk, got %d", len(chunks))
	}
	if chunks[0].FileID != "f1" || chunks[0].Text != "u1 doc text" {
		t.Errorf("unexpected chunk: %+v", chunks[0])
	}
}

func TestDeleteFileVectors(t *testing.T) {
	index := newStubIndex()
	svc := NewService(index, &stubEmbedder{}, nil, zap.NewNop())
	ctx := context.Background()

	svc.StoreDocumentChunks(ctx, []string{"a", "b"}, "u1", "f1")
	svc.StoreDocumentChunks(ctx, []string{"c"}, "u1", "f2")

	deleted, err := svc.DeleteFileVectors(ctx, "f1")
	if err != nil {
		t.Fatalf("DeleteFileVectors failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}
	if _, ok := index.vectors["f2_chunk_0"]; !ok {
		t.Errorf("other files' vectors must survive")
	}
}

func TestEmbeddingCacheAvoidsRepeatCalls(t *testing.T) {
	embedder := &stubEmbedder{}
	svc := NewService(newStubIndex(), embedder, newMapCache(), zap.NewNop())
	ctx := context.Background()

	if _, err := svc.StoreDocumentChunks(ctx, []string{"same text"}, "u1", "f1"); err != nil {
		t.Fatalf("first store failed: %v", err)
	}
	if _, err := svc.StoreDocumentChunks(ctx, []string{"same text"}, "u1", "f2"); err != nil {
		t.Fatalf("second store failed: %v", err)
	}

	if embedder.calls != 1 {
		t.Errorf("expected 1 model call with a warm cache, got %d", embedder.calls)
	}
}

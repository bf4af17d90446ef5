// Package memory is the in-process vector index used when no external
// index is configured.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/docchat/backend/internal/vector"
)

type Index struct {
	mu      sync.RWMutex
	vectors []vector.StoredVector
}

func NewIndex() *Index {
	return &Index{}
}

func cloneVector(v vector.StoredVector) vector.StoredVector {
	out := vector.StoredVector{
		ID:       v.ID,
		Values:   append([]float32(nil), v.Values...),
		Metadata: make(map[string]string, len(v.Metadata)),
	}
	for k, val := range v.Metadata {
		out.Metadata[k] = val
	}
	return out
}

// Upsert stores vectors, replacing any existing entry with the same id.
func (idx *Index) Upsert(ctx context.Context, vectors []vector.StoredVector) (int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, v := range vectors {
		replaced := false
		for i := range idx.vectors {
			if idx.vectors[i].ID == v.ID {
				idx.vectors[i] = cloneVector(v)
				replaced = true
				break
			}
		}
		if !replaced {
			idx.vectors = append(idx.vectors, cloneVector(v))
		}
	}
	return len(vectors), nil
}

func matchesFilter(meta map[string]string, filter map[string]string) bool {
	for k, want := range filter {
		if meta[k] != want {
			return false
		}
	}
	return true
}

// cosineSimilarity accumulates in float64; a zero-norm operand yields 0.
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func (idx *Index) Search(ctx context.Context, query []float32, topK int, filter map[string]string) ([]vector.Match, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	matches := make([]vector.Match, 0)
	for _, v := range idx.vectors {
		if !matchesFilter(v.Metadata, filter) {
			continue
		}
		m := vector.Match{
			ID:       v.ID,
			Score:    cosineSimilarity(query, v.Values),
			Metadata: make(map[string]string, len(v.Metadata)),
		}
		for k, val := range v.Metadata {
			m.Metadata[k] = val
		}
		matches = append(matches, m)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (idx *Index) ListIDs(ctx context.Context, filter map[string]string) ([]string, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ids := make([]string, 0)
	for _, v := range idx.vectors {
		if matchesFilter(v.Metadata, filter) {
			ids = append(ids, v.ID)
		}
	}
	return ids, nil
}

func (idx *Index) Delete(ctx context.Context, ids []string) (int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	kept := idx.vectors[:0]
	deleted := 0
	for _, v := range idx.vectors {
		if _, ok := drop[v.ID]; ok {
			deleted++
			continue
		}
		kept = append(kept, v)
	}
	idx.vectors = kept
	return deleted, nil
}

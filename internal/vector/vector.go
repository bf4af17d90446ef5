// Package vector defines the vector index contract and the retrieval
// service built on top of it.
package vector

import "context"

// Metadata keys attached to every stored vector.
const (
	MetaUserID     = "userId"
	MetaFileID     = "fileId"
	MetaText       = "text"
	MetaChunkIndex = "chunkIndex"
)

type StoredVector struct {
	ID       string
	Values   []float32
	Metadata map[string]string
}

type Match struct {
	ID       string
	Score    float64
	Metadata map[string]string
}

// Store is the vector index port. Search applies filter as an AND of
// metadata equality constraints; an empty filter matches everything.
type Store interface {
	Upsert(ctx context.Context, vectors []StoredVector) (int, error)
	Search(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]Match, error)
	ListIDs(ctx context.Context, filter map[string]string) ([]string, error)
	Delete(ctx context.Context, ids []string) (int, error)
}

// Embedder produces embedding vectors for chunk and query text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingCache stores embeddings keyed by content hash. A nil cache
// disables caching.
type EmbeddingCache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, values []float32) error
}

package vector

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/docchat/backend/internal/errs"
	"github.com/docchat/backend/internal/metrics"
	"github.com/docchat/backend/pkg/utils"
)

const DefaultTopK = 5

// RelevantChunk is a retrieval hit with its grounding metadata.
type RelevantChunk struct {
	ID     string
	Score  float64
	FileID string
	Text   string
}

// Service embeds chunk and query text and talks to the vector index.
type Service struct {
	store    Store
	embedder Embedder
	cache    EmbeddingCache
	logger   *zap.Logger
}

func NewService(store Store, embedder Embedder, cache EmbeddingCache, logger *zap.Logger) *Service {
	return &Service{store: store, embedder: embedder, cache: cache, logger: logger}
}

func (s *Service) embed(ctx context.Context, text string) ([]float32, error) {
	if s.cache == nil {
		return s.embedder.Embed(ctx, text)
	}

	key := utils.ContentHash(text)
	if values, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		metrics.EmbeddingCacheHits.Inc()
		return values, nil
	} else if err != nil {
		s.logger.Warn("Embedding cache read failed", zap.Error(err))
	}
	metrics.EmbeddingCacheMisses.Inc()

	values, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, values); err != nil {
		s.logger.Warn("Embedding cache write failed", zap.Error(err))
	}
	return values, nil
}

// StoreDocumentChunks embeds each chunk in order and upserts them in
// one batch. Vector ids are deterministic per file and position so
// re-ingesting a file overwrites rather than duplicates.
func (s *Service) StoreDocumentChunks(ctx context.Context, chunks []string, userID, fileID string) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	vectors := make([]StoredVector, 0, len(chunks))
	ids := make([]string, 0, len(chunks))

	for i, text := range chunks {
		values, err := s.embed(ctx, text)
		if err != nil {
			return nil, err
		}
		id := fmt.Sprintf("%s_chunk_%d", fileID, i)
		vectors = append(vectors, StoredVector{
			ID:     id,
			Values: values,
			Metadata: map[string]string{
				MetaUserID:     userID,
				MetaFileID:     fileID,
				MetaText:       text,
				MetaChunkIndex: strconv.Itoa(i),
			},
		})
		ids = append(ids, id)
	}

	if _, err := s.store.Upsert(ctx, vectors); err != nil {
		return nil, errs.Wrap(errs.ErrUpstreamStore, err)
	}

	s.logger.Info("Stored document chunks",
		zap.String("fileId", fileID), zap.Int("count", len(ids)))
	return ids, nil
}

// SearchRelevantChunks embeds the query and returns the user's topK
// nearest chunks. Results never cross user boundaries.
func (s *Service) SearchRelevantChunks(ctx context.Context, query, userID string, topK int) ([]RelevantChunk, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	values, err := s.embed(ctx, query)
	if err != nil {
		return nil, err
	}

	matches, err := s.store.Search(ctx, values, topK, map[string]string{MetaUserID: userID})
	if err != nil {
		return nil, errs.Wrap(errs.ErrUpstreamStore, err)
	}

	metrics.VectorSearchResults.Observe(float64(len(matches)))

	chunks := make([]RelevantChunk, 0, len(matches))
	for _, m := range matches {
		chunks = append(chunks, RelevantChunk{
			ID:     m.ID,
			Score:  m.Score,
			FileID: m.Metadata[MetaFileID],
			Text:   m.Metadata[MetaText],
		})
	}
	return chunks, nil
}

// DeleteFileVectors removes every vector indexed for fileID and
// returns how many were deleted.
func (s *Service) DeleteFileVectors(ctx context.Context, fileID string) (int, error) {
	ids, err := s.store.ListIDs(ctx, map[string]string{MetaFileID: fileID})
	if err != nil {
		return 0, errs.Wrap(errs.ErrUpstreamStore, err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	deleted, err := s.store.Delete(ctx, ids)
	if err != nil {
		return 0, errs.Wrap(errs.ErrUpstreamStore, err)
	}

	s.logger.Info("Deleted file vectors",
		zap.String("fileId", fileID), zap.Int("count", deleted))
	return deleted, nil
}

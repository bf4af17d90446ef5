// Package metrics registers the Prometheus collectors for the service.
package metrics

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ChatRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "docchat_chat_request_duration_seconds",
		Help:    "Duration of chat message handling including retrieval and generation",
		Buckets: prometheus.DefBuckets,
	})

	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docchat_messages_total",
		Help: "Chat messages processed, by outcome",
	}, []string{"status"})

	DocumentsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docchat_documents_ingested_total",
		Help: "Documents successfully ingested",
	})

	ChunksStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docchat_chunks_stored_total",
		Help: "Chunks embedded and stored in the vector index",
	})

	VectorSearchResults = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "docchat_vector_search_results",
		Help:    "Number of matches returned per vector search",
		Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
	})

	FeedbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docchat_feedback_total",
		Help: "Feedback submissions, by rating",
	}, []string{"rating"})

	EmbeddingCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docchat_embedding_cache_hits_total",
		Help: "Embedding requests served from cache",
	})

	EmbeddingCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docchat_embedding_cache_misses_total",
		Help: "Embedding requests that reached the model",
	})
)

// Handler exposes the default registry as a fiber handler.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

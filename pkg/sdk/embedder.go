package docrag

import "github.com/kailas-cloud/docrag/internal/domain"

// Embedder converts text to a vector. The same Embedder vectorizes corpus chunks
// and queries, so both must come from one model.
type Embedder = domain.Embedder

// BatchEmbedder is an optional extension of Embedder. When the embedder passed to
// WithEmbedder implements it, reindexing sends chunks in batches instead of one by one.
type BatchEmbedder = domain.BatchEmbedder

// EmbeddingResult is one vector and its token usage.
type EmbeddingResult = domain.EmbeddingResult

// BatchEmbeddingResult holds vectors in input order and their aggregate token usage.
type BatchEmbeddingResult = domain.BatchEmbeddingResult

package indexing

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docrag/internal/domain"
	"github.com/kailas-cloud/docrag/internal/domain/chunk"
	"github.com/kailas-cloud/docrag/internal/domain/document"
	"github.com/kailas-cloud/docrag/internal/index"
	"github.com/kailas-cloud/docrag/internal/metrics"
)

// Builder turns documents into a new index snapshot.
type Builder struct {
	chunker  *SentenceWindowChunker
	embedder domain.Embedder
	model    string
	logger   *zap.Logger
}

// NewBuilder creates a Builder. model is recorded on snapshots for diagnostics.
func NewBuilder(embedder domain.Embedder, opts ChunkOptions, model string, logger *zap.Logger) *Builder {
	return &Builder{
		chunker:  NewSentenceWindowChunker(opts),
		embedder: embedder,
		model:    model,
		logger:   logger,
	}
}

// Build chunks and embeds docs. Any failure is wrapped in domain.ErrIndexBuildFailure and
// no partial snapshot is returned.
func (b *Builder) Build(ctx context.Context, docs []document.Document) (*index.Snapshot, error) {
	start := time.Now()

	snap, err := b.build(ctx, docs)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.IndexBuildsTotal.WithLabelValues(status).Inc()
	metrics.IndexBuildDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		b.logger.Error("Index build failed",
			zap.Int("documents", len(docs)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}

	b.logger.Info("Index built",
		zap.String("snapshot_id", snap.ID()),
		zap.Int("documents", snap.DocumentCount()),
		zap.Int("chunks", snap.Len()),
		zap.Int("dimensions", snap.Dimensions()),
		zap.Duration("duration", time.Since(start)),
	)
	return snap, nil
}

func (b *Builder) build(ctx context.Context, docs []document.Document) (*index.Snapshot, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no documents", domain.ErrIndexBuildFailure)
	}

	var chunks []chunk.Chunk
	for _, d := range docs {
		cs, err := b.chunker.Split(d)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrIndexBuildFailure, err)
		}
		chunks = append(chunks, cs...)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: zero chunks produced from %d documents", domain.ErrIndexBuildFailure, len(docs))
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text()
	}

	res, err := domain.EmbedAll(ctx, b.embedder, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: embed chunks: %w", domain.ErrIndexBuildFailure, err)
	}

	snap, err := index.NewSnapshot(docs, chunks, res.Embeddings, b.model)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexBuildFailure, err)
	}
	return snap, nil
}

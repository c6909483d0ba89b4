package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docrag/internal/domain"
	"github.com/kailas-cloud/docrag/internal/index"
	logpkg "github.com/kailas-cloud/docrag/internal/logger"
	"github.com/kailas-cloud/docrag/internal/metrics"
)

// Options bounds a retrieval.
type Options struct {
	TopK   int
	Cutoff float64
}

// Service embeds queries and retrieves candidates from a snapshot.
type Service struct {
	embedder domain.Embedder
	opts     Options
}

// New creates a Service. A non-positive TopK falls back to DefaultTopK and an unset
// (zero) Cutoff to DefaultCutoff; any other cutoff is used as given.
func New(embedder domain.Embedder, opts Options) *Service {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.Cutoff == 0 {
		opts.Cutoff = DefaultCutoff
	}
	return &Service{embedder: embedder, opts: opts}
}

// Options returns the effective options.
func (s *Service) Options() Options { return s.opts }

// Search embeds query and returns candidates above the cutoff, best first.
func (s *Service) Search(ctx context.Context, snap *index.Snapshot, query string) ([]Candidate, error) {
	if snap == nil || snap.Len() == 0 {
		return nil, nil
	}

	res, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrRetrievalFailure, err)
	}

	candidates, err := Retrieve(snap, res.Embedding, s.opts.TopK, s.opts.Cutoff)
	if err != nil {
		return nil, err
	}

	metrics.RetrievedCandidates.Observe(float64(len(candidates)))
	logpkg.FromContext(ctx).Debug("Retrieved candidates",
		zap.String("snapshot_id", snap.ID()),
		zap.Int("candidates", len(candidates)),
		zap.Int("top_k", s.opts.TopK),
		zap.Float64("cutoff", s.opts.Cutoff),
	)
	return candidates, nil
}

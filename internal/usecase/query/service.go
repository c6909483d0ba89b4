package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docrag/internal/domain"
	"github.com/kailas-cloud/docrag/internal/domain/answer"
	"github.com/kailas-cloud/docrag/internal/domain/intent"
	logpkg "github.com/kailas-cloud/docrag/internal/logger"
	"github.com/kailas-cloud/docrag/internal/metrics"
	"github.com/kailas-cloud/docrag/internal/usecase/retrieval"
	"github.com/kailas-cloud/docrag/internal/usecase/synthesis"
)

// Answer paths, used as metric labels.
const (
	pathDirect    = "direct"
	pathRetrieval = "retrieval"
	pathFallback  = "fallback"
	pathError     = "error"
)

const (
	defaultMaxAttempts = 2
	defaultRetryDelay  = 500 * time.Millisecond
)

// Request is an incoming query.
type Request struct {
	Query     string
	UserID    string
	SessionID string
}

// Options configures retries of the retrieval path.
type Options struct {
	MaxAttempts int
	RetryDelay  time.Duration
}

// Service answers queries: classify, then either answer directly or retrieve and ground.
type Service struct {
	classifier  Classifier
	corpus      Corpus
	retriever   Retriever
	synthesizer Synthesizer
	opts        Options
}

// New creates a query service.
func New(classifier Classifier, corpus Corpus, retriever Retriever, synthesizer Synthesizer, opts Options) *Service {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	return &Service{
		classifier:  classifier,
		corpus:      corpus,
		retriever:   retriever,
		synthesizer: synthesizer,
		opts:        opts,
	}
}

// grounded is the outcome of one retrieval-augmented attempt.
type grounded struct {
	result     synthesis.Result
	candidates []retrieval.Candidate
}

// Query answers req. Errors: domain.ErrInvalidQuery for blank text,
// domain.ErrNoDocumentsAvailable when a document-specific query meets an empty corpus,
// domain.ErrRetrievalFailure or domain.ErrSynthesisFailure after retries are exhausted.
func (s *Service) Query(ctx context.Context, req Request) (answer.Response, error) {
	start := time.Now()

	q := strings.TrimSpace(req.Query)
	if q == "" {
		return answer.Response{}, fmt.Errorf("%w: query is required", domain.ErrInvalidQuery)
	}

	in := s.classifier.Classify(q)
	fields := []zap.Field{
		zap.String("intent", in.String()),
		zap.String("user_id", req.UserID),
	}
	if req.SessionID != "" {
		fields = append(fields, zap.String("session_id", req.SessionID))
	}
	ctx, logger := logpkg.With(ctx, fields...)

	if !in.UsesRetrieval() {
		return s.direct(ctx, in, q, pathDirect, start), nil
	}

	snap, err := s.corpus.Ensure(ctx)
	if err != nil {
		if in.AnswerableWithoutDocuments() {
			logger.Info("No index available, answering directly", zap.Error(err))
			return s.direct(ctx, in, q, pathFallback, start), nil
		}
		observe(in, pathError, start)
		if errors.Is(err, domain.ErrEmptyCorpus) || errors.Is(err, domain.ErrDirectoryUnavailable) {
			return answer.Response{}, fmt.Errorf("%w: %w", domain.ErrNoDocumentsAvailable, err)
		}
		return answer.Response{}, err
	}

	out, err := withRetry(ctx, s.opts.MaxAttempts, s.opts.RetryDelay,
		func(ctx context.Context) (grounded, error) {
			candidates, err := s.retriever.Search(ctx, snap, q)
			if err != nil {
				return grounded{}, err
			}
			if len(candidates) == 0 {
				return grounded{}, nil
			}
			res, err := s.synthesizer.FromContext(context.WithoutCancel(ctx), q, passages(candidates))
			if err != nil {
				return grounded{}, err
			}
			return grounded{result: res, candidates: candidates}, nil
		})
	if err != nil {
		observe(in, pathError, start)
		logger.Error("Retrieval path failed", zap.Error(err))
		return answer.Response{}, err
	}

	if len(out.candidates) == 0 {
		logger.Info("No candidates above cutoff, answering directly",
			zap.String("snapshot_id", snap.ID()))
		return s.direct(ctx, in, q, pathFallback, start), nil
	}

	sources := make([]answer.Attribution, 0, len(out.candidates))
	for i, c := range out.candidates {
		a, err := attribute(c)
		if err != nil {
			logger.Warn("Source attribution failed, using placeholder", zap.Int("rank", i), zap.Error(err))
			a = answer.Placeholder()
		}
		sources = append(sources, a)
	}

	observe(in, pathRetrieval, start)
	return answer.New(out.result.Text, sources, out.result.Model, in, time.Since(start)), nil
}

// direct answers without documents. Synthesis calls run to completion even if the caller goes away.
func (s *Service) direct(ctx context.Context, in intent.Intent, q, path string, start time.Time) answer.Response {
	res := s.synthesizer.Direct(context.WithoutCancel(ctx), in, q)
	observe(in, path, start)
	return answer.New(res.Text, nil, res.Model, in, time.Since(start))
}

func observe(in intent.Intent, path string, start time.Time) {
	metrics.QueriesTotal.WithLabelValues(in.String(), path).Inc()
	metrics.QueryDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
}

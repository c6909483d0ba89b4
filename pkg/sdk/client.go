package docrag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docrag/internal/db"
	dbRedis "github.com/kailas-cloud/docrag/internal/db/redis"
	"github.com/kailas-cloud/docrag/internal/domain"
	"github.com/kailas-cloud/docrag/internal/domain/answer"
	"github.com/kailas-cloud/docrag/internal/metrics"
	"github.com/kailas-cloud/docrag/internal/repository/docstore"
	"github.com/kailas-cloud/docrag/internal/repository/embcache"
	"github.com/kailas-cloud/docrag/internal/usecase/classify"
	corpusuc "github.com/kailas-cloud/docrag/internal/usecase/corpus"
	healthuc "github.com/kailas-cloud/docrag/internal/usecase/health"
	"github.com/kailas-cloud/docrag/internal/usecase/indexing"
	queryuc "github.com/kailas-cloud/docrag/internal/usecase/query"
	"github.com/kailas-cloud/docrag/internal/usecase/retrieval"
	"github.com/kailas-cloud/docrag/internal/usecase/synthesis"
)

const defaultReadinessTimeout = 10 * time.Second

// Внутренние интерфейсы для подмены в тестах.
type queryUseCase interface {
	Query(ctx context.Context, req queryuc.Request) (answer.Response, error)
}

type corpusUseCase interface {
	Reindex(ctx context.Context) (corpusuc.ReindexResult, error)
	Status(ctx context.Context) (corpusuc.Status, error)
	AutoReindex(ctx context.Context, w corpusuc.ChangeWatcher) error
}

type healthUseCase interface {
	Check(ctx context.Context, deep bool) healthuc.Report
}

// Client is the docrag SDK entry point.
type Client struct {
	store     db.Store
	docs      corpusuc.ChangeWatcher
	querySvc  queryUseCase
	corpus    corpusUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client. Nothing is indexed until the first document query or Reindex.
// The provided context is used for the cache readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{windowSize: -1}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.documentsDir == "" {
		return nil, errors.New("docrag: documents directory required (use WithDocumentsDir)")
	}
	if cfg.embedder == nil {
		return nil, errors.New("docrag: embedder required (use WithEmbedder)")
	}
	if cfg.completer == nil {
		return nil, errors.New("docrag: completer required (use WithCompleter)")
	}
	if cfg.cutoff < 0 || cfg.cutoff > 1 {
		return nil, fmt.Errorf("docrag: similarity cutoff %v must be within [0, 1]", cfg.cutoff)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var store db.Store
	if cfg.redisAddr != "" {
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    []string{cfg.redisAddr},
			Password: cfg.redisPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("docrag: create redis store: %w", err)
		}
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, fmt.Errorf("docrag: redis not ready: %w", err)
		}
		store = s
	}

	c, err := wireClient(cfg, store, obs)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	return c, nil
}

func wireClient(cfg *clientConfig, store db.Store, obs *observer) (*Client, error) {
	logger := zap.NewNop()

	docs := docstore.New(docstore.Config{
		Dir:          cfg.documentsDir,
		MaxFileBytes: cfg.maxFileBytes,
		Logger:       logger,
	})
	if err := docs.EnsureDir(); err != nil {
		return nil, fmt.Errorf("docrag: %w", err)
	}

	var emb domain.Embedder = cfg.embedder
	if store != nil {
		emb = embcache.New(emb, store, embcache.Options{
			KeyPrefix: "docrag:",
			Model:     cfg.embeddingModel,
			TTL:       cfg.cacheTTL,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	chunking := indexing.DefaultChunkOptions()
	if cfg.sentencesPerChunk > 0 {
		chunking.SentencesPerChunk = cfg.sentencesPerChunk
	}
	if cfg.windowSize >= 0 {
		chunking.WindowSize = cfg.windowSize
	}
	manager := corpusuc.New(docs, indexing.NewBuilder(emb, chunking, cfg.embeddingModel, logger), logger)

	primary := &completerAdapter{inner: cfg.completer}
	var secondary domain.Completer
	if cfg.fallback != nil {
		secondary = &completerAdapter{inner: cfg.fallback}
	}

	querySvc := queryuc.New(
		classify.New(),
		manager,
		retrieval.New(emb, retrieval.Options{TopK: cfg.topK, Cutoff: cfg.cutoff}),
		synthesis.New(primary, secondary),
		queryuc.Options{MaxAttempts: cfg.maxAttempts, RetryDelay: cfg.retryDelay},
	)

	healthSvc := healthuc.New(primary.Model(), manager)
	if hc, ok := cfg.embedder.(domain.HealthChecker); ok {
		healthSvc.WithChecker("embedding", hc)
	}
	if hc, ok := cfg.completer.(domain.HealthChecker); ok {
		healthSvc.WithChecker("llm", hc)
	}
	if store != nil {
		healthSvc.WithChecker("cache", healthuc.CheckerFunc(store.Ping))
	}

	return &Client{
		store:     store,
		docs:      docs,
		querySvc:  querySvc,
		corpus:    manager,
		healthSvc: healthSvc,
		obs:       obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Query answers a natural-language question. Conversational questions are answered
// directly; document questions are grounded in retrieved passages listed in Sources.
func (c *Client) Query(ctx context.Context, question string) (ans Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe("query", start, err) }()

	resp, err := c.querySvc.Query(ctx, queryuc.Request{Query: question})
	if err != nil {
		return Answer{}, fmt.Errorf("query: %w", err)
	}
	ans = answerFromResponse(&resp)
	c.obs.answered(ans)
	return ans, nil
}

// Reindex rebuilds the index from the current directory contents.
// On failure the previous index stays active.
func (c *Client) Reindex(ctx context.Context) (res ReindexResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("reindex", start, err) }()

	r, err := c.corpus.Reindex(ctx)
	if err != nil {
		return ReindexResult{}, fmt.Errorf("reindex: %w", err)
	}
	return ReindexResult{
		Documents: r.Documents,
		Chunks:    r.Chunks,
		Files:     r.Files,
		Elapsed:   r.Elapsed,
	}, nil
}

// Status lists eligible files and whether each is covered by the active index.
func (c *Client) Status(ctx context.Context) (docs []DocumentStatus, err error) {
	start := time.Now()
	defer func() { c.obs.observe("status", start, err) }()

	st, err := c.corpus.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	docs = make([]DocumentStatus, 0, len(st.Files))
	for _, f := range st.Files {
		docs = append(docs, DocumentStatus{
			FileName: f.Name,
			Path:     f.Path,
			Size:     f.Size,
			Modified: f.Modified,
			Indexed:  f.Indexed,
		})
	}
	return docs, nil
}

// Watch reindexes whenever an eligible file in the documents directory changes.
// It blocks until ctx is done.
func (c *Client) Watch(ctx context.Context) error {
	return c.corpus.AutoReindex(ctx, c.docs)
}

// Health reports client health. deep also checks the embedding, model and cache backends.
func (c *Client) Health(ctx context.Context, deep bool) HealthStatus {
	report := c.healthSvc.Check(ctx, deep)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status:          string(report.Status),
		Model:           report.Model,
		DocumentsLoaded: report.DocumentsLoaded,
		DocumentsDir:    report.DocumentsDir,
		Checks:          checks,
	}
}

func answerFromResponse(resp *answer.Response) Answer {
	sources := make([]Source, 0, len(resp.Sources()))
	for _, a := range resp.Sources() {
		sources = append(sources, Source{
			Name:     a.DisplayName,
			FileName: a.FileName,
			Page:     a.Page,
			Size:     a.Size,
			Preview:  a.Preview,
			Score:    a.Score,
		})
	}
	return Answer{
		Text:    resp.Text(),
		Sources: sources,
		Model:   resp.Model(),
		Intent:  resp.Intent().String(),
		Elapsed: resp.Elapsed(),
	}
}

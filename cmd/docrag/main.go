package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/docrag/internal/config"
	"github.com/kailas-cloud/docrag/internal/db"
	dbRedis "github.com/kailas-cloud/docrag/internal/db/redis"
	"github.com/kailas-cloud/docrag/internal/domain"
	logpkg "github.com/kailas-cloud/docrag/internal/logger"
	"github.com/kailas-cloud/docrag/internal/metrics"
	"github.com/kailas-cloud/docrag/internal/repository/docstore"
	"github.com/kailas-cloud/docrag/internal/repository/embcache"
	quotarepo "github.com/kailas-cloud/docrag/internal/repository/quota"
	chiTransport "github.com/kailas-cloud/docrag/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/docrag/internal/transport/openai"
	"github.com/kailas-cloud/docrag/internal/usecase/classify"
	corpusuc "github.com/kailas-cloud/docrag/internal/usecase/corpus"
	embeddinguc "github.com/kailas-cloud/docrag/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/docrag/internal/usecase/health"
	"github.com/kailas-cloud/docrag/internal/usecase/indexing"
	queryuc "github.com/kailas-cloud/docrag/internal/usecase/query"
	"github.com/kailas-cloud/docrag/internal/usecase/quota"
	"github.com/kailas-cloud/docrag/internal/usecase/retrieval"
	"github.com/kailas-cloud/docrag/internal/usecase/synthesis"
	"github.com/kailas-cloud/docrag/internal/version"
)

// quotaCounterTTL keeps daily counters readable for the whole next UTC day.
const quotaCounterTTL = 48 * time.Hour

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting docrag API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("documents_dir", cfg.Documents.Dir),
		zap.String("llm_model", cfg.LLM.Model),
		zap.Bool("cache_enabled", cfg.Cache.Enabled()),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterAll()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Optional redis store for the embedding cache and quota counters.
	var store db.Store
	if cfg.Cache.Enabled() {
		redisStore, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create redis store", zap.Error(err))
		}
		defer redisStore.Close()

		if err := redisStore.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Redis not ready", zap.Error(err))
		}
		store = redisStore
		logger.Info("Connected to redis", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	embedder := buildEmbedder(cfg.Embedding, cfg.Cache, store, logger)

	primary, secondary, err := buildCompleters(ctx, cfg.LLM, cfg.Cache.KeyPrefix, store, logger)
	if err != nil {
		logger.Fatal("Failed to create LLM clients", zap.Error(err))
	}
	logger.Info("LLM clients created",
		zap.String("primary", primary.Model()),
		zap.String("secondary", secondary.Model()),
	)

	// Documents and index
	docs := docstore.New(docstore.Config{
		Dir:          cfg.Documents.Dir,
		MaxFileBytes: int64(cfg.Documents.MaxFileMB) << 20,
		Debounce:     time.Duration(cfg.Documents.DebounceMs) * time.Millisecond,
		Logger:       logger,
	})
	if err := docs.EnsureDir(); err != nil {
		logger.Error("Documents directory unavailable", zap.String("dir", docs.Dir()), zap.Error(err))
	}

	builder := indexing.NewBuilder(embedder, indexing.ChunkOptions{
		SentencesPerChunk: cfg.Chunking.SentencesPerChunk,
		WindowSize:        *cfg.Chunking.WindowSize,
		MaxSentenceRunes:  cfg.Chunking.MaxSentenceRunes,
	}, cfg.Embedding.Model, logger)
	manager := corpusuc.New(docs, builder, logger)

	// Use case services
	retriever := retrieval.New(embedder, retrieval.Options{
		TopK:   cfg.Retrieval.TopK,
		Cutoff: cfg.Retrieval.Cutoff,
	})
	synth := synthesis.New(primary, secondary)
	querySvc := queryuc.New(classify.New(), manager, retriever, synth, queryuc.Options{
		MaxAttempts: cfg.Retrieval.MaxAttempts,
		RetryDelay:  time.Duration(cfg.Retrieval.RetryDelayMs) * time.Millisecond,
	})

	healthSvc := healthuc.New(primary.Model(), manager).
		WithChecker("llm", primary).
		WithChecker("embedding", embedder)
	if store != nil {
		healthSvc.WithChecker("cache", healthuc.CheckerFunc(store.Ping))
	}

	server := chiTransport.NewServer(querySvc, manager, healthSvc, logger)
	router := chiTransport.NewRouter(server, logger)

	if cfg.Documents.IndexOnStartup {
		go func() {
			if _, err := manager.Ensure(ctx); err != nil {
				logger.Warn("Startup indexing skipped", zap.Error(err))
			}
		}()
	}

	if cfg.Documents.Watch {
		go func() {
			if err := manager.AutoReindex(ctx, docs); err != nil {
				logger.Error("Document watcher stopped", zap.Error(err))
			}
		}()
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// embedder is what the index builder, the retriever and the health check need.
type embedder interface {
	domain.Embedder
	domain.BatchEmbedder
	domain.HealthChecker
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
func buildEmbedder(
	embCfg config.EmbeddingConfig, cacheCfg config.CacheConfig, store db.Store, logger *zap.Logger,
) embedder {
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     embCfg.APIKey,
		BaseURL:    embCfg.BaseURL,
		Model:      embCfg.Model,
		Dimensions: embCfg.Dimensions,
		Provider:   embCfg.Provider,
		Timeout:    time.Duration(embCfg.TimeoutSec) * time.Second,
		Logger:     logger,
	})

	var inner domain.Embedder = base
	if store != nil {
		inner = embcache.New(base, store, embcache.Options{
			KeyPrefix: cacheCfg.KeyPrefix,
			Model:     embCfg.Model,
			TTL:       time.Duration(cacheCfg.TTLHours) * time.Hour,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	return embeddinguc.NewInstrumentedEmbedder(inner, embCfg.Provider, embCfg.Model, logger)
}

// llmClient is a completer that can also be checked by deep health checks.
type llmClient interface {
	domain.Completer
	domain.HealthChecker
}

// buildCompleters creates the primary and secondary chat clients. Clients for the same
// catalog model share one quota tracker and one rate limiter.
func buildCompleters(
	ctx context.Context, llmCfg config.LLMConfig, keyPrefix string, store db.Store, logger *zap.Logger,
) (primary, secondary llmClient, err error) {
	action, err := quota.ParseAction(llmCfg.QuotaAction)
	if err != nil {
		return nil, nil, err
	}

	trackers := make(map[string]*quota.Tracker)
	limiters := make(map[string]*rate.Limiter)
	build := func(key string) (llmClient, error) {
		spec, err := domain.LookupModel(key)
		if err != nil {
			return nil, err
		}

		limiter, ok := limiters[spec.Key]
		if !ok && llmCfg.EnforceRateLimits && spec.RequestsPerMinute > 0 {
			limiter = openaiTransport.NewMinuteLimiter(spec.RequestsPerMinute)
			limiters[spec.Key] = limiter
		}

		chat := openaiTransport.NewChatCompleter(&openaiTransport.ChatConfig{
			APIKey:           llmCfg.APIKey,
			BaseURL:          llmCfg.BaseURL,
			Model:            spec,
			Temperature:      float32(*llmCfg.Temperature),
			MaxTokens:        llmCfg.MaxTokens,
			Timeout:          time.Duration(llmCfg.TimeoutSec) * time.Second,
			EnforceRateLimit: llmCfg.EnforceRateLimits,
			Limiter:          limiter,
			Logger:           logger,
		})
		if action == quota.ActionOff {
			return chat, nil
		}

		tracker, ok := trackers[spec.Key]
		if !ok {
			tracker = quota.NewTracker(spec, action, keyPrefix, logger)
			if store != nil {
				tracker.WithStore(ctx, quotarepo.New(store, quotaCounterTTL))
			}
			trackers[spec.Key] = tracker
		}
		return quota.Guard(chat, tracker), nil
	}

	if primary, err = build(llmCfg.Model); err != nil {
		return nil, nil, fmt.Errorf("primary model: %w", err)
	}
	if secondary, err = build(llmCfg.FallbackModel); err != nil {
		return nil, nil, fmt.Errorf("fallback model: %w", err)
	}
	return primary, secondary, nil
}

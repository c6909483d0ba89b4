package docrag

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	documentsDir string
	maxFileBytes int64

	embedder       Embedder
	embeddingModel string
	completer      Completer
	fallback       Completer

	redisAddr     string
	redisPassword string
	cacheTTL      time.Duration

	topK              int
	cutoff            float64
	sentencesPerChunk int
	windowSize        int
	maxAttempts       int
	retryDelay        time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithDocumentsDir sets the directory documents are read from. Required.
// The directory is created if it does not exist.
func WithDocumentsDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.documentsDir = dir
	})
}

// WithMaxFileBytes skips files larger than n bytes. Default: 10 MiB.
func WithMaxFileBytes(n int64) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxFileBytes = n
	})
}

// WithEmbedder sets the text embedding provider. Required.
// model names the embedding model and becomes part of the cache key.
func WithEmbedder(e Embedder, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
		c.embeddingModel = model
	})
}

// WithCompleter sets the chat model used for all answers. Required.
func WithCompleter(cmp Completer) Option {
	return optionFunc(func(c *clientConfig) {
		c.completer = cmp
	})
}

// WithFallbackCompleter sets the model tried when the primary fails on a direct answer.
func WithFallbackCompleter(cmp Completer) Option {
	return optionFunc(func(c *clientConfig) {
		c.fallback = cmp
	})
}

// WithRedis enables the embedding cache on a Redis instance. ttl of zero keeps entries forever.
func WithRedis(addr, password string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddr = addr
		c.redisPassword = password
		c.cacheTTL = ttl
	})
}

// WithRetrieval sets how many candidates are kept and the minimum cosine similarity.
// Defaults: 5 and 0.6. A zero cutoff keeps the default; New rejects one outside [0, 1].
func WithRetrieval(topK int, cutoff float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.topK = topK
		c.cutoff = cutoff
	})
}

// WithChunking sets the sentences per chunk and the context window on each side.
// Defaults: 1 and 2. A window of 0 embeds the core sentences only; a negative one keeps the default.
func WithChunking(sentencesPerChunk, windowSize int) Option {
	return optionFunc(func(c *clientConfig) {
		c.sentencesPerChunk = sentencesPerChunk
		c.windowSize = windowSize
	})
}

// WithRetry bounds retries of retrieval-augmented queries. Defaults: 2 attempts, 500ms apart.
func WithRetry(attempts int, delay time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxAttempts = attempts
		c.retryDelay = delay
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

package domain

import "errors"

var (
	// ErrDirectoryUnavailable signals that the document directory cannot be created or read.
	ErrDirectoryUnavailable = errors.New("document directory unavailable")
	// ErrEmptyCorpus signals a document directory with zero eligible files.
	ErrEmptyCorpus = errors.New("no eligible documents")
	// ErrNoDocumentsAvailable signals a retrieval query with no corpus to search.
	ErrNoDocumentsAvailable = errors.New("no documents available")
	// ErrIndexBuildFailure signals a failed (re)index; the previous index stays active.
	ErrIndexBuildFailure = errors.New("index build failed")
	// ErrReindexInProgress signals that another rebuild owns the writer slot.
	ErrReindexInProgress = errors.New("reindex already in progress")
	// ErrRetrievalFailure signals a failed candidate search.
	ErrRetrievalFailure = errors.New("retrieval failed")
	// ErrSynthesisFailure signals a failed grounded completion.
	ErrSynthesisFailure = errors.New("synthesis failed")
	// ErrInvalidQuery signals an empty or malformed query.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrLLMProviderError signals a chat completion provider failure.
	ErrLLMProviderError = errors.New("llm provider error")
	// ErrRateLimited signals a request that could not get a rate limiter token.
	ErrRateLimited = errors.New("rate limited")
	// ErrQuotaExceeded signals that a model's daily request or token quota is used up.
	ErrQuotaExceeded = errors.New("daily model quota exceeded")
	// ErrUnknownModel signals a model key missing from the catalog.
	ErrUnknownModel = errors.New("unknown model")
)

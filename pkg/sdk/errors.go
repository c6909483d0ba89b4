package docrag

import "github.com/kailas-cloud/docrag/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuery         = domain.ErrInvalidQuery
	ErrNoDocumentsAvailable = domain.ErrNoDocumentsAvailable
	ErrEmptyCorpus          = domain.ErrEmptyCorpus
	ErrDirectoryUnavailable = domain.ErrDirectoryUnavailable
	ErrIndexBuildFailure    = domain.ErrIndexBuildFailure
	ErrReindexInProgress    = domain.ErrReindexInProgress
	ErrRetrievalFailure     = domain.ErrRetrievalFailure
	ErrSynthesisFailure     = domain.ErrSynthesisFailure
)

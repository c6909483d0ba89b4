package chi

import (
	"context"

	"github.com/kailas-cloud/docrag/internal/domain/answer"
	corpusuc "github.com/kailas-cloud/docrag/internal/usecase/corpus"
	healthuc "github.com/kailas-cloud/docrag/internal/usecase/health"
	queryuc "github.com/kailas-cloud/docrag/internal/usecase/query"
)

// QueryService answers queries.
type QueryService interface {
	Query(ctx context.Context, req queryuc.Request) (answer.Response, error)
}

// CorpusService rebuilds the index and reports per-file status.
type CorpusService interface {
	Reindex(ctx context.Context) (corpusuc.ReindexResult, error)
	Status(ctx context.Context) (corpusuc.Status, error)
	Dir() string
}

// HealthService reports service health.
type HealthService interface {
	Check(ctx context.Context, deep bool) healthuc.Report
}

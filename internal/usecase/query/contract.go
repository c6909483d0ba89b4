package query

import (
	"context"

	"github.com/kailas-cloud/docrag/internal/domain/intent"
	"github.com/kailas-cloud/docrag/internal/index"
	"github.com/kailas-cloud/docrag/internal/usecase/retrieval"
	"github.com/kailas-cloud/docrag/internal/usecase/synthesis"
)

// Classifier maps raw query text to an intent.
type Classifier interface {
	Classify(raw string) intent.Intent
}

// Corpus provides the active index snapshot, building it on first use.
type Corpus interface {
	Ensure(ctx context.Context) (*index.Snapshot, error)
}

// Retriever finds candidate chunks for a query.
type Retriever interface {
	Search(ctx context.Context, snap *index.Snapshot, query string) ([]retrieval.Candidate, error)
}

// Synthesizer produces answer text.
type Synthesizer interface {
	Direct(ctx context.Context, in intent.Intent, query string) synthesis.Result
	FromContext(ctx context.Context, query string, passages []synthesis.Passage) (synthesis.Result, error)
}

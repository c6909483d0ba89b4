package corpus

import (
	"context"

	"github.com/kailas-cloud/docrag/internal/domain/document"
	"github.com/kailas-cloud/docrag/internal/index"
)

// DocumentSource lists and loads documents from the document directory.
type DocumentSource interface {
	Dir() string
	Files(ctx context.Context) ([]document.File, error)
	Reload(ctx context.Context) ([]document.Document, error)
}

// IndexBuilder builds a complete snapshot or fails without side effects.
type IndexBuilder interface {
	Build(ctx context.Context, docs []document.Document) (*index.Snapshot, error)
}

// ChangeWatcher reports document directory changes until ctx is done.
type ChangeWatcher interface {
	Watch(ctx context.Context, onChange func()) error
}

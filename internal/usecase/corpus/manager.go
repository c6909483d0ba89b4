package corpus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docrag/internal/domain"
	"github.com/kailas-cloud/docrag/internal/domain/document"
	"github.com/kailas-cloud/docrag/internal/index"
	"github.com/kailas-cloud/docrag/internal/metrics"
)

// Manager owns the active index snapshot. Readers load it lock-free; at most one
// rebuild runs at a time and its result is installed only after it fully succeeds.
type Manager struct {
	source  DocumentSource
	builder IndexBuilder
	handle  index.Handle
	writer  sync.Mutex
	logger  *zap.Logger

	// pending is set by a directory change; whoever releases the writer slot next rebuilds.
	pending atomic.Bool
}

// New creates a Manager with no snapshot installed.
func New(source DocumentSource, builder IndexBuilder, logger *zap.Logger) *Manager {
	return &Manager{source: source, builder: builder, logger: logger}
}

// ReindexResult describes a successful rebuild.
type ReindexResult struct {
	SnapshotID string
	Documents  int
	Chunks     int
	Files      []string
	Elapsed    time.Duration
}

// Current returns the installed snapshot or nil.
func (m *Manager) Current() *index.Snapshot { return m.handle.Load() }

// LoadedFiles returns the number of files in the installed snapshot.
func (m *Manager) LoadedFiles() int {
	if snap := m.handle.Load(); snap != nil {
		return len(snap.Files())
	}
	return 0
}

// Dir returns the document directory.
func (m *Manager) Dir() string { return m.source.Dir() }

// Ensure returns the installed snapshot, building one first if none exists.
// Concurrent callers wait for a single in-flight build. An empty directory fails
// with domain.ErrEmptyCorpus without taking the writer slot.
func (m *Manager) Ensure(ctx context.Context) (*index.Snapshot, error) {
	if snap := m.handle.Load(); snap != nil {
		return snap, nil
	}

	files, err := m.source.Files(ctx)
	if err != nil {
		return nil, fmt.Errorf("lazy: list files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("lazy: %w", domain.ErrEmptyCorpus)
	}

	m.writer.Lock()
	defer m.release(ctx)

	if snap := m.handle.Load(); snap != nil {
		return snap, nil
	}

	res, err := m.rebuild(ctx, "lazy")
	if err != nil {
		return nil, err
	}
	m.logger.Info("Index built lazily",
		zap.String("snapshot_id", res.SnapshotID),
		zap.Int("documents", res.Documents),
		zap.Int("chunks", res.Chunks),
	)
	return m.handle.Load(), nil
}

// Reindex rebuilds from the current directory contents. It fails fast with
// domain.ErrReindexInProgress when another rebuild holds the writer slot.
// On any failure the previous snapshot stays active.
func (m *Manager) Reindex(ctx context.Context) (ReindexResult, error) {
	if !m.writer.TryLock() {
		return ReindexResult{}, domain.ErrReindexInProgress
	}
	defer m.release(ctx)

	res, err := m.rebuild(ctx, "reindex")
	if err != nil {
		m.logger.Warn("Reindex failed, keeping previous index", zap.Error(err))
		return ReindexResult{}, err
	}

	m.logger.Info("Reindex completed",
		zap.String("snapshot_id", res.SnapshotID),
		zap.Int("documents", res.Documents),
		zap.Int("chunks", res.Chunks),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

// rebuild must be called with the writer slot held.
func (m *Manager) rebuild(ctx context.Context, reason string) (ReindexResult, error) {
	start := time.Now()

	docs, err := m.source.Reload(ctx)
	if err != nil {
		return ReindexResult{}, fmt.Errorf("%s: load documents: %w", reason, err)
	}

	snap, err := m.builder.Build(ctx, docs)
	if err != nil {
		return ReindexResult{}, fmt.Errorf("%s: %w", reason, err)
	}

	prev := m.handle.Swap(snap)
	metrics.IndexChunks.Set(float64(snap.Len()))
	metrics.IndexDocuments.Set(float64(snap.DocumentCount()))

	if prev != nil {
		m.logger.Debug("Index snapshot replaced",
			zap.String("previous_id", prev.ID()),
			zap.String("snapshot_id", snap.ID()),
		)
	}

	return ReindexResult{
		SnapshotID: snap.ID(),
		Documents:  snap.DocumentCount(),
		Chunks:     snap.Len(),
		Files:      snap.Files(),
		Elapsed:    time.Since(start),
	}, nil
}

// FileStatus is an eligible file and whether the active snapshot covers its current version.
type FileStatus struct {
	document.File
	Indexed bool
}

// Status lists eligible files against the active snapshot.
type Status struct {
	Dir        string
	Files      []FileStatus
	SnapshotID string
	BuiltAt    time.Time
}

// Status reports every eligible file as indexed or pending.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	files, err := m.source.Files(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("list files: %w", err)
	}

	st := Status{Dir: m.source.Dir(), Files: make([]FileStatus, 0, len(files))}
	snap := m.handle.Load()
	if snap != nil {
		st.SnapshotID = snap.ID()
		st.BuiltAt = snap.BuiltAt()
	}

	for _, f := range files {
		indexed := snap != nil && snap.HasFile(f.Name) && !f.Modified.After(snap.BuiltAt())
		st.Files = append(st.Files, FileStatus{File: f, Indexed: indexed})
	}
	return st, nil
}

// AutoReindex rebuilds whenever w reports a change, until ctx is done.
// Changes that arrive during a rebuild are coalesced into one more rebuild
// once the running one finishes.
func (m *Manager) AutoReindex(ctx context.Context, w ChangeWatcher) error {
	return w.Watch(ctx, func() { m.changed(ctx) })
}

// changed marks the directory dirty and rebuilds unless another rebuild holds the
// slot, in which case that holder picks the change up on release.
func (m *Manager) changed(ctx context.Context) {
	m.pending.Store(true)
	m.drain(ctx)
}

// release frees the writer slot and hands pending changes to a background rebuild.
// Must be called with the writer slot held.
func (m *Manager) release(ctx context.Context) {
	m.writer.Unlock()
	if m.pending.Load() {
		go m.drain(context.WithoutCancel(ctx))
	}
}

// drain rebuilds while changes are pending and the slot is free.
// The flag is set before TryLock and checked after Unlock, so no change is lost.
func (m *Manager) drain(ctx context.Context) {
	for m.pending.Load() {
		if !m.writer.TryLock() {
			return
		}
		m.pending.Store(false)
		res, err := m.rebuild(ctx, "change")
		m.writer.Unlock()

		switch {
		case err == nil:
			m.logger.Info("Index rebuilt after directory change",
				zap.String("snapshot_id", res.SnapshotID),
				zap.Int("documents", res.Documents),
				zap.Int("chunks", res.Chunks),
			)
		case errors.Is(err, domain.ErrEmptyCorpus):
			m.logger.Info("Directory change left no eligible documents, keeping previous index")
		default:
			m.logger.Error("Automatic reindex failed", zap.Error(err))
		}
	}
}

package docstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docrag/internal/domain"
	"github.com/kailas-cloud/docrag/internal/domain/document"
)

// DefaultMaxFileBytes matches the upload size limit.
const DefaultMaxFileBytes = 10 << 20

// Config holds document directory settings.
type Config struct {
	Dir          string
	MaxFileBytes int64
	Debounce     time.Duration
	Logger       *zap.Logger
}

// Store reads documents from a flat directory. Subdirectories and hidden files are ignored.
type Store struct {
	dir      string
	maxBytes int64
	debounce time.Duration
	logger   *zap.Logger
}

// New creates a document store. The directory is not touched until first use.
func New(cfg Config) *Store {
	s := &Store{
		dir:      cfg.Dir,
		maxBytes: cfg.MaxFileBytes,
		debounce: cfg.Debounce,
		logger:   cfg.Logger,
	}
	if s.maxBytes <= 0 {
		s.maxBytes = DefaultMaxFileBytes
	}
	if s.debounce <= 0 {
		s.debounce = 2 * time.Second
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Dir returns the configured directory path.
func (s *Store) Dir() string { return s.dir }

// EnsureDir creates the directory if absent. Safe to call repeatedly.
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrDirectoryUnavailable, s.dir, err)
	}
	return nil
}

// Files lists eligible files sorted by name without reading their content.
func (s *Store) Files(_ context.Context) ([]document.File, error) {
	if err := s.EnsureDir(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrDirectoryUnavailable, s.dir, err)
	}

	files := make([]document.File, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || isHidden(name) {
			continue
		}

		ext := strings.ToLower(filepath.Ext(name))
		if _, ok := loaders[ext]; !ok {
			if ext == ".doc" {
				s.logger.Warn("Legacy .doc files are not supported, convert to .docx", zap.String("file", name))
			}
			continue
		}

		info, err := e.Info()
		if err != nil {
			// файл удалили между ReadDir и Info
			continue
		}
		if info.Size() > s.maxBytes {
			s.logger.Warn("Skipping oversized document",
				zap.String("file", name),
				zap.Int64("size", info.Size()),
				zap.Int64("limit", s.maxBytes),
			)
			continue
		}

		files = append(files, document.File{
			Name:     name,
			Path:     filepath.Join(s.dir, name),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}
	return files, nil
}

// List loads every eligible file. Files that fail to load are logged and skipped.
// Returns domain.ErrEmptyCorpus when nothing could be loaded.
func (s *Store) List(ctx context.Context) ([]document.Document, error) {
	files, err := s.Files(ctx)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", s.dir, domain.ErrEmptyCorpus)
	}

	var docs []document.Document
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("list documents: %w", err)
		}

		loaded, err := s.load(f)
		if err != nil {
			s.logger.Warn("Failed to load document", zap.String("file", f.Name), zap.Error(err))
			continue
		}
		docs = append(docs, loaded...)
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("%s: no readable text in %d files: %w", s.dir, len(files), domain.ErrEmptyCorpus)
	}

	s.logger.Debug("Documents loaded",
		zap.String("dir", s.dir),
		zap.Int("files", len(files)),
		zap.Int("documents", len(docs)),
	)
	return docs, nil
}

// Reload re-scans the directory and returns the current document set.
func (s *Store) Reload(ctx context.Context) ([]document.Document, error) {
	s.logger.Info("Reloading documents", zap.String("dir", s.dir))
	return s.List(ctx)
}

func (s *Store) load(f document.File) ([]document.Document, error) {
	load := loaders[strings.ToLower(filepath.Ext(f.Name))]

	pages, err := load(f.Path)
	if err != nil {
		return nil, err
	}

	docs := make([]document.Document, 0, len(pages))
	for _, p := range pages {
		d, err := document.New(f.Name, f.Path, p.text, f.Size, f.Modified, p.label)
		if err != nil {
			// пустые страницы PDF
			continue
		}
		docs = append(docs, d)
	}
	if len(docs) == 0 {
		return nil, errNoText
	}
	return docs, nil
}

var errNoText = errors.New("no extractable text")

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

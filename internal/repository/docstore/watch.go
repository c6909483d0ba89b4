package docstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docrag/internal/domain"
)

// Watch calls onChange after the directory has been quiet for the debounce window
// following a create, write, remove or rename of an eligible file. Blocks until ctx is done.
func (s *Store) Watch(ctx context.Context, onChange func()) error {
	if err := s.EnsureDir(); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(s.dir); err != nil {
		return fmt.Errorf("%w: watch %s: %w", domain.ErrDirectoryUnavailable, s.dir, err)
	}

	s.logger.Info("Watching document directory",
		zap.String("dir", s.dir),
		zap.Duration("debounce", s.debounce),
	)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !s.relevant(ev) {
				continue
			}
			s.logger.Debug("Document change detected", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				// потеряли события, пересобираем на всякий случай
				fire = time.After(s.debounce)
			}
			s.logger.Warn("Watcher error", zap.Error(err))
		case <-fire:
			fire = nil
			onChange()
		}
	}
}

// relevant reports whether ev touches an eligible file.
func (s *Store) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}

	name := filepath.Base(ev.Name)
	if isHidden(name) {
		return false
	}
	if _, ok := loaders[strings.ToLower(filepath.Ext(name))]; !ok {
		return false
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			return false
		}
	}
	return true
}

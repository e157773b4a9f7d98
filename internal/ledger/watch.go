package ledger

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchDebounce batches the burst of events a single save produces.
const watchDebounce = 200 * time.Millisecond

// Watch calls onChange after path is written, replaced or removed, until
// ctx is done. The parent directory is watched so that atomic renames onto
// path are seen.
func Watch(ctx context.Context, path string, onChange func(), log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	path = filepath.Clean(path)
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", path, err)
	}

	go func() {
		defer w.Close()
		timer := time.NewTimer(watchDebounce)
		timer.Stop()
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != path || ev.Op == fsnotify.Chmod {
					continue
				}
				timer.Reset(watchDebounce)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("ledger file watch error", zap.String("path", path), zap.Error(err))
			case <-timer.C:
				log.Debug("ledger file changed", zap.String("path", path))
				onChange()
			}
		}
	}()
	return nil
}

// WatchPath returns the local file backing the backend, or "" when the
// ledger is remote or in memory.
func (b *Backend) WatchPath() string {
	switch b.Name {
	case BackendFile, BackendXLSX:
		return b.Table.Sheet
	}
	return ""
}

package media

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch calls onChange with the reloaded image every time the local file
// at path is rewritten, until ctx is done. Reload errors are logged and
// skipped, the previous image stays in use.
func (l *Loader) Watch(ctx context.Context, path string, onChange func(*Image)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	// editors often replace the file, so watch the directory
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", path, err)
	}
	target := filepath.Clean(path)

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
					continue
				}
				img, err := l.Load(ctx, Source{Path: path})
				if err != nil {
					logger.Warnf("reload %s: %v", path, err)
					continue
				}
				onChange(img)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warnf("watcher: %v", err)
			}
		}
	}()
	return nil
}

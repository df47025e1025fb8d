package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/filepicker/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// settleDelay is how long a new file must go without writes before it is
// added.
var settleDelay = 300 * time.Millisecond

// watchDir calls add once for every regular file created in dir until ctx is
// done. Dotfiles are skipped.
func watchDir(ctx context.Context, dir string, add func(path string), logger logging.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info(ctx, "watching directory", "dir", dir)

	pending := make(map[string]*time.Timer)
	seen := make(map[string]bool)
	ready := make(chan string)
	defer func() {
		for _, timer := range pending {
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
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			name := ev.Name
			if seen[name] || strings.HasPrefix(filepath.Base(name), ".") {
				continue
			}
			if timer, ok := pending[name]; ok {
				timer.Reset(settleDelay)
				continue
			}
			pending[name] = time.AfterFunc(settleDelay, func() {
				select {
				case ready <- name:
				case <-ctx.Done():
				}
			})

		case name := <-ready:
			if seen[name] {
				continue
			}
			delete(pending, name)
			fi, err := os.Stat(name)
			if err != nil || !fi.Mode().IsRegular() {
				continue
			}
			seen[name] = true
			add(name)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn(ctx, "watch error", "error", err)
		}
	}
}

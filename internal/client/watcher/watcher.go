// Package watcher turns files dropped into a scan-inbox directory into
// queued document creations.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/avlasov/paperdock/internal/client/models"
	"github.com/avlasov/paperdock/internal/logging"
)

// DocumentAdder is the slice of the document service the watcher needs.
type DocumentAdder interface {
	Add(ctx context.Context, d models.Document) (string, error)
	FindByFileName(ctx context.Context, name string) ([]models.Document, error)
	HasQueuedFile(ctx context.Context, name string) (bool, error)
}

var scanExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tiff": true,
}

// InboxWatcher watches one directory and queues a document creation per new
// scan file. Files already known to the cache by original file name, or with
// a creation still queued from a previous run, are skipped, so re-running
// over an existing inbox does not duplicate.
type InboxWatcher struct {
	dir  string
	docs DocumentAdder
	log  logging.Logger

	seen map[string]bool
}

func NewInboxWatcher(dir string, docs DocumentAdder, log logging.Logger) *InboxWatcher {
	return &InboxWatcher{dir: dir, docs: docs, log: log, seen: make(map[string]bool)}
}

// Run sweeps the inbox once, then blocks watching for new files until the
// context is cancelled.
func (w *InboxWatcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("inbox watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	if err := w.sweep(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename) {
				w.handle(ctx, ev.Name)
			}
		case werr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn(ctx, "inbox watch error", "error", werr)
		}
	}
}

// sweep queues files already sitting in the inbox at startup.
func (w *InboxWatcher) sweep(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read inbox %s: %w", w.dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.handle(ctx, filepath.Join(w.dir, entry.Name()))
	}
	return nil
}

func (w *InboxWatcher) handle(ctx context.Context, path string) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || !scanExtensions[strings.ToLower(filepath.Ext(name))] {
		return
	}
	if w.seen[name] {
		return
	}

	existing, err := w.docs.FindByFileName(ctx, name)
	if err != nil {
		w.log.Error(ctx, "inbox lookup failed", "file", name, "error", err)
		return
	}
	if len(existing) > 0 {
		w.seen[name] = true
		return
	}

	// A create queued before a restart is not in the cache yet.
	queued, err := w.docs.HasQueuedFile(ctx, name)
	if err != nil {
		w.log.Error(ctx, "inbox queue lookup failed", "file", name, "error", err)
		return
	}
	if queued {
		w.seen[name] = true
		return
	}

	title := strings.TrimSuffix(name, filepath.Ext(name))
	localID, err := w.docs.Add(ctx, models.Document{Title: title, OriginalFileName: name})
	if err != nil {
		w.log.Error(ctx, "inbox enqueue failed", "file", name, "error", err)
		return
	}

	w.seen[name] = true
	w.log.Info(ctx, "scan queued", "file", name, "local_id", localID)
}

package ingestion

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettleDelay is how long a file must go without events before it is ingested.
const DefaultSettleDelay = 2 * time.Second

// ResultHandler receives the outcome of each file a Watcher ingests.
type ResultHandler func(path string, result *Result, err error)

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithSettleDelay sets how long a file must be quiet before ingestion.
func WithSettleDelay(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithResultHandler sets a callback for ingestion outcomes.
// Default logs each outcome.
func WithResultHandler(fn ResultHandler) WatcherOption {
	return func(w *Watcher) {
		w.onResult = fn
	}
}

// WithWatcherLogger sets a custom logger.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger.With("component", "watcher")
	}
}

// Watcher ingests supported files as they appear under a folder tree.
// Files are ingested one at a time once writes to them have settled.
type Watcher struct {
	pipeline *Pipeline
	root     string
	settle   time.Duration
	onResult ResultHandler
	fs       *fsnotify.Watcher
	logger   *slog.Logger
}

// NewWatcher starts watching root and every directory below it. Events are
// queued from this point on; call Run to process them and Close to stop
// watching.
func NewWatcher(pipeline *Pipeline, root string, opts ...WatcherOption) (*Watcher, error) {
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFolder, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidFolder, root)
	}

	w := &Watcher{
		pipeline: pipeline,
		root:     root,
		settle:   DefaultSettleDelay,
		logger:   slog.Default().With("component", "watcher"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.onResult == nil {
		w.onResult = w.logResult
	}

	w.fs, err = fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if _, err := w.addTree(root); err != nil {
		w.fs.Close()
		return nil, err
	}
	return w, nil
}

// Run processes file events until ctx is done, then returns ctx.Err().
func (w *Watcher) Run(ctx context.Context) error {
	pending := make(map[string]time.Time)

	tick := w.settle / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	w.logger.Info("watching folder", "path", w.root)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event, pending)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		case now := <-ticker.C:
			w.flush(ctx, pending, now)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) handle(event fsnotify.Event, pending map[string]time.Time) {
	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		delete(pending, event.Name)
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			// Files may land in a new directory before it is watched.
			files, err := w.addTree(event.Name)
			if err != nil {
				w.logger.Warn("cannot watch directory", "path", event.Name, "err", err)
			}
			for _, file := range files {
				pending[file] = time.Now()
			}
			return
		}
		if info.Mode().IsRegular() && SupportedFile(event.Name) {
			pending[event.Name] = time.Now()
		}
	}
}

// flush ingests the pending files that have been quiet for the settle delay.
func (w *Watcher) flush(ctx context.Context, pending map[string]time.Time, now time.Time) {
	var ready []string
	for path, last := range pending {
		if now.Sub(last) >= w.settle {
			ready = append(ready, path)
		}
	}
	sort.Strings(ready)

	for _, path := range ready {
		if ctx.Err() != nil {
			return
		}
		delete(pending, path)
		result, err := w.pipeline.Ingest(ctx, path, titleFromPath(path), typeFromPath(path))
		w.onResult(path, result, err)
	}
}

// addTree watches dir and its subdirectories and returns the supported
// files already inside them.
func (w *Watcher) addTree(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fs.Add(path)
		}
		if d.Type().IsRegular() && SupportedFile(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func (w *Watcher) logResult(path string, result *Result, err error) {
	switch {
	case err != nil:
		w.logger.Error("ingestion failed", "file", path, "err", err)
	case result.Skipped:
		w.logger.Debug("already ingested", "file", path, "document_id", result.DocumentID)
	default:
		w.logger.Info("ingested", "file", path, "document_id", result.DocumentID, "category", result.Category)
	}
}

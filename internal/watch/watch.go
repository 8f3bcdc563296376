// Package watch regenerates a project whenever its requirements file changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/goliatone/go-journey360/pkg/input"
)

// DefaultDebounce batches the bursts of events editors emit on save.
const DefaultDebounce = 300 * time.Millisecond

// Handler receives the requirements each time the file settles with new
// content. Returned errors are logged; watching continues.
type Handler func(ctx context.Context, req input.Requirement) error

// Option customises a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period after the last event.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithInitialRun calls the handler once with the current content before
// waiting for changes.
func WithInitialRun(enabled bool) Option {
	return func(w *Watcher) {
		w.initial = enabled
	}
}

// WithLogger sets the logger. Nil keeps the no-op default.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Watcher follows a single requirements file.
type Watcher struct {
	path     string
	handler  Handler
	debounce time.Duration
	initial  bool
	logger   *zap.Logger

	last string
}

// New builds a Watcher for path.
func New(path string, handler Handler, options ...Option) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watch: handler is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve %s: %w", path, err)
	}
	w := &Watcher{
		path:     abs,
		handler:  handler,
		debounce: DefaultDebounce,
		logger:   zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(w)
	}
	return w, nil
}

// Run blocks until ctx is done. The parent directory is watched rather than
// the file so editors that save by rename are followed.
func (w *Watcher) Run(ctx context.Context) error {
	if _, err := os.Stat(w.path); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch: add %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Info("watching requirements", zap.String("path", w.path))

	if w.initial {
		w.fire(ctx)
	}

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("requirements changed", zap.String("op", event.Op.String()))
			timer.Reset(w.debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		case <-timer.C:
			w.fire(ctx)
		}
	}
}

func (w *Watcher) fire(ctx context.Context) {
	req, err := input.FromFile(w.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			w.logger.Debug("requirements file missing", zap.String("path", w.path))
			return
		}
		w.logger.Warn("read requirements", zap.Error(err))
		return
	}
	if req.Text == w.last {
		return
	}
	w.last = req.Text
	if err := w.handler(ctx, req); err != nil {
		w.logger.Error("regenerate failed", zap.String("path", w.path), zap.Error(err))
		return
	}
	w.logger.Info("regenerated", zap.String("path", w.path))
}

package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.StorageWatcher = (*Watcher)(nil)

const defaultDebounce = 50 * time.Millisecond

type DataVersioner interface {
	DataVersion(context.Context) (int64, error)
}

type WatcherOpt func(*Watcher)

func WithDebounce(d time.Duration) WatcherOpt {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// Watcher publishes SignalStorageChanged when another process commits to
// the store file. Commits made through the watched versioner itself are
// not reported.
type Watcher struct {
	fsw       *fsnotify.Watcher
	file      string
	versions  DataVersioner
	publisher port.SignalPublisher
	debounce  time.Duration
	closeOnce sync.Once
}

func NewWatcher(
	path string,
	versions DataVersioner,
	publisher port.SignalPublisher,
	opts ...WatcherOpt,
) (*Watcher, error) {
	const op = "storage.NewWatcher"

	file, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// sqlite rewrites files next to the store; watching the directory
	// keeps working when the store file is replaced.
	if err := fsw.Add(filepath.Dir(file)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	w := &Watcher{
		fsw:       fsw,
		file:      file,
		versions:  versions,
		publisher: publisher,
		debounce:  defaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run blocks until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	const op = "Watcher.Run"
	log := slog.With("op", op)

	last, err := w.versions.DataVersion(ctx)
	if err != nil {
		log.Warn("failed to read initial data version", "err", err)
	}

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn("watch error", "err", err)
		case <-timerC:
			timerC = nil
			v, err := w.versions.DataVersion(ctx)
			if err != nil {
				log.Warn("failed to read data version", "err", err)
				continue
			}
			if v == last {
				continue
			}
			last = v
			log.Debug("storage changed by another process")
			w.publisher.Publish(domain.SignalStorageChanged)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.file {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)
}

func (w *Watcher) Close() {
	const op = "Watcher.Close"
	w.closeOnce.Do(func() {
		if err := w.fsw.Close(); err != nil {
			slog.Warn("failed to close watcher", "op", op, "err", err)
		}
	})
}

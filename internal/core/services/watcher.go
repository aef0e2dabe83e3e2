package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/askpolicy-cli/internal/logger"
)

// watchDebounce delays re-ingestion after a file event so editors that
// write in several syscalls trigger one rebuild, not many.
const watchDebounce = 2 * time.Second

// Watcher re-ingests a knowledge domain when its source file changes.
type Watcher struct {
	indexer  *Indexer
	dir      string
	domains  map[string]bool
	debounce time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewWatcher creates a watcher over the knowledge directory for the
// given domains.
func NewWatcher(indexer *Indexer, dir string, domains []string) *Watcher {
	set := make(map[string]bool, len(domains))
	for _, dom := range domains {
		set[dom] = true
	}
	return &Watcher{
		indexer:  indexer,
		dir:      dir,
		domains:  set,
		debounce: watchDebounce,
		timers:   make(map[string]*time.Timer),
	}
}

// Run watches until the context is cancelled. Rebuild failures are
// logged and watching continues.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logger.Info("Watching %s for knowledge changes", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			dom, ok := w.domainFor(event.Name)
			if !ok {
				continue
			}
			logger.Debug("Change detected: %s (domain %s)", event.Name, dom)
			w.schedule(ctx, dom)

		case werr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", werr)
		}
	}
}

// domainFor maps an event path to a configured domain. Only
// <domain>.txt files in the watched directory count.
func (w *Watcher) domainFor(path string) (string, bool) {
	base := filepath.Base(path)
	dom := strings.TrimSuffix(base, ".txt")
	if dom == base {
		return "", false
	}
	return dom, w.domains[dom]
}

// schedule arms the domain's debounce timer, replacing any pending one.
func (w *Watcher) schedule(ctx context.Context, dom string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[dom]; ok {
		t.Stop()
	}
	w.timers[dom] = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		logger.Info("Re-ingesting domain %s after source change", dom)
		if err := w.indexer.Ingest(ctx, dom); err != nil {
			logger.Warn("Re-ingest of %s failed: %v", dom, err)
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, t := range w.timers {
		t.Stop()
	}
}

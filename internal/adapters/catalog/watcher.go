package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/andrescamacho/reliefops-go/internal/application/catalog"
	"github.com/andrescamacho/reliefops-go/internal/application/logging"
)

// Watcher reloads the template registry when catalog files change on disk.
// Bursts of writes within the debounce window trigger a single reload; a catalog
// that fails to load leaves the previous templates in place.
type Watcher struct {
	loader   *Loader
	registry *catalog.Registry
	paths    []string
	debounce time.Duration

	reloaded chan int
}

// NewWatcher creates a watcher for the catalog files
func NewWatcher(loader *Loader, registry *catalog.Registry, paths []string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		loader:   loader,
		registry: registry,
		paths:    paths,
		debounce: debounce,
		reloaded: make(chan int, 1),
	}
}

// Reloaded receives the accepted template count after every successful reload
func (w *Watcher) Reloaded() <-chan int {
	return w.reloaded
}

// Run blocks until ctx is cancelled
func (w *Watcher) Run(ctx context.Context) error {
	logger := logging.LoggerFromContext(ctx)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fw.Close()

	// directories are watched so editors that replace files atomically are still seen
	watched := make(map[string]bool)
	files := make(map[string]bool)
	for _, p := range w.paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve catalog path %s: %w", p, err)
		}
		files[abs] = true
		dir := filepath.Dir(abs)
		if watched[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		watched[dir] = true
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || !files[name] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				logger.Log("DEBUG", "Catalog file changed", map[string]interface{}{"file": name, "op": event.Op.String()})
				timer.Reset(w.debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Log("ERROR", "Catalog watcher error", map[string]interface{}{"error": err.Error()})
		case <-timer.C:
			w.reload(ctx)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	logger := logging.LoggerFromContext(ctx)

	templates, err := w.loader.LoadFiles(w.paths...)
	if err != nil {
		logger.Log("ERROR", "Catalog reload rejected", map[string]interface{}{"error": err.Error()})
		return
	}
	accepted := w.registry.Load(ctx, templates)
	logger.Log("INFO", "Catalog reloaded", map[string]interface{}{"templates": accepted})

	select {
	case <-w.reloaded:
	default:
	}
	w.reloaded <- accepted
}

package generate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/franz/media-librarian/internal/store"
	"github.com/franz/media-librarian/internal/util"
)

// DefaultDebounce batches bursts of filesystem events into one run
const DefaultDebounce = 5 * time.Second

// Watcher watches all configured source roots and triggers a regeneration
// after changes settle down
type Watcher struct {
	orchestrator *Orchestrator
	store        *store.Store
	debounce     time.Duration
}

// NewWatcher creates a Watcher. A non-positive debounce uses the default.
func NewWatcher(orchestrator *Orchestrator, st *store.Store, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{orchestrator: orchestrator, store: st, debounce: debounce}
}

// Run blocks watching source roots until the context is canceled. Create,
// remove and rename events arm a debounce timer; when it fires a full
// generation run starts. Runs already in flight absorb the trigger.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	sources, err := w.store.ListSources("")
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return errors.New("no sources configured to watch")
	}
	for _, src := range sources {
		root := strings.TrimSuffix(src.FolderPath, "/")
		if err := fw.Add(root); err != nil {
			return err
		}
		util.InfoLog("Watching %s", root)
	}

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			util.DebugLog("Source change: %s %s", event.Op, event.Name)
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			util.WarnLog("Watcher error: %v", err)

		case <-timer.C:
			util.InfoLog("Source changes settled, regenerating")
			if err := w.orchestrator.Generate(ctx); err != nil && !errors.Is(err, util.ErrAlreadyRunning) {
				util.ErrorLog("Regeneration failed: %v", err)
			}
		}
	}
}

package generate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/franz/media-librarian/internal/pathing"
	"github.com/franz/media-librarian/internal/store"
	"github.com/franz/media-librarian/internal/util"
)

// ItemProcessor reconciles a single folder path against the catalog
type ItemProcessor interface {
	Process(ctx context.Context, folderPath string, sourceID int64) error
}

// IndexRebuilder rebuilds the search index from the catalog
type IndexRebuilder interface {
	Rebuild(ctx context.Context) error
}

// phases fixes the order media types are processed in
var phases = []struct {
	mediaType string
	state     State
}{
	{store.MediaTypeMovie, StateProcessingMovies},
	{store.MediaTypeShow, StateProcessingShows},
}

// Orchestrator drives a full generation run: enumerate paths per media type,
// reconcile them through a bounded worker pool, rebuild the search index,
// persist the run's status.
type Orchestrator struct {
	store       *store.Store
	processors  map[string]ItemProcessor
	index       IndexRebuilder
	status      *Status
	statusPath  string
	concurrency int
	running     atomic.Bool
}

// Config holds orchestrator configuration
type Config struct {
	Store       *store.Store
	Movies      ItemProcessor
	Shows       ItemProcessor
	Index       IndexRebuilder
	StatusPath  string
	Concurrency int
}

// New creates an Orchestrator. A status snapshot persisted by a previous
// process is loaded so `status` reports the last run across restarts.
func New(cfg *Config) *Orchestrator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	processors := make(map[string]ItemProcessor)
	if cfg.Movies != nil {
		processors[store.MediaTypeMovie] = cfg.Movies
	}
	if cfg.Shows != nil {
		processors[store.MediaTypeShow] = cfg.Shows
	}

	status := NewStatus()
	if cfg.StatusPath != "" {
		if snap, err := LoadSnapshot(cfg.StatusPath); err != nil {
			util.WarnLog("Ignoring unreadable status file: %v", err)
		} else if snap != nil {
			status.restore(snap)
		}
	}

	return &Orchestrator{
		store:       cfg.Store,
		processors:  processors,
		index:       cfg.Index,
		status:      status,
		statusPath:  cfg.StatusPath,
		concurrency: cfg.Concurrency,
	}
}

// Status returns a point-in-time deep copy of the run state
func (o *Orchestrator) Status() *Snapshot {
	return o.status.Snapshot()
}

// Generate runs one full generation pass. A second call while a run is in
// flight is rejected with ErrAlreadyRunning, never queued.
func (o *Orchestrator) Generate(ctx context.Context) error {
	if !o.running.CompareAndSwap(false, true) {
		return util.ErrAlreadyRunning
	}
	defer o.running.Store(false)

	runID := uuid.NewString()
	o.status.BeginRun(runID)
	o.status.Logf("generation run %s started", runID)
	util.InfoLog("Starting generation run %s", runID)

	err := o.run(ctx)
	if err != nil {
		cause := util.RootCause(err)
		o.status.Fail(cause.Error())
		o.status.Logf("run failed: %v", cause)
		util.ErrorLog("Generation run failed: %v", cause)
	} else {
		o.status.Complete()
		o.status.Logf("run completed")
		snap := o.status.Snapshot()
		total, _ := snap.Counts()
		util.SuccessLog("Generation complete: %d items, %d failed", total, len(snap.FailedItems))
	}

	if o.statusPath != "" {
		if saveErr := o.status.Save(o.statusPath); saveErr != nil {
			util.WarnLog("Failed to persist generation status: %v", saveErr)
		}
	}
	return err
}

// GenerateAsync starts a run in the background and returns immediately
func (o *Orchestrator) GenerateAsync(ctx context.Context) {
	go func() {
		if err := o.Generate(ctx); err != nil && !errors.Is(err, util.ErrAlreadyRunning) {
			util.ErrorLog("Background generation failed: %v", err)
		}
	}()
}

func (o *Orchestrator) run(ctx context.Context) error {
	for _, phase := range phases {
		processor := o.processors[phase.mediaType]
		if processor == nil {
			continue
		}
		o.status.SetState(phase.state)
		if err := o.runPhase(ctx, phase.mediaType, processor); err != nil {
			return err
		}
	}

	o.status.SetState(StateBuildingIndex)
	if o.index != nil {
		o.status.Logf("rebuilding search index")
		if err := o.index.Rebuild(ctx); err != nil {
			return fmt.Errorf("failed to rebuild search index: %w", err)
		}
	}
	return nil
}

// runPhase reconciles every canonical path of one media type. Per-item
// failures are recorded and tolerated; only enumeration failures abort.
func (o *Orchestrator) runPhase(ctx context.Context, mediaType string, processor ItemProcessor) error {
	tasks, err := o.collectPaths(mediaType)
	if err != nil {
		return err
	}

	o.status.SetTotal(mediaType, len(tasks))
	o.status.Logf("processing %d %s paths", len(tasks), mediaType)
	util.InfoLog("Processing %d %s paths with %d workers", len(tasks), mediaType, o.concurrency)

	workers := pool.New().WithMaxGoroutines(o.concurrency)
	for _, t := range tasks {
		t := t
		workers.Go(func() {
			o.status.AddActive(t.path)
			if err := processor.Process(ctx, t.path, t.sourceID); err != nil {
				o.status.RecordFailure(FailedItem{
					Path:      t.path,
					MediaType: mediaType,
					Error:     err.Error(),
				})
				o.status.Logf("failed %s: %v", t.path, err)
				util.ErrorLog("Failed to process %s: %v", t.path, err)
			}
			o.status.RemoveActive(t.path)
			o.status.IncrementCompleted(mediaType)
		})
	}
	workers.Wait()
	return nil
}

type task struct {
	path     string
	sourceID int64
}

// collectPaths builds the canonical path set for one media type: the union
// of on-disk source subdirectories and folder paths already in the catalog.
// The union guarantees items deleted from disk are still visited and thus
// reconciled away. Paths are de-duplicated after normalization.
func (o *Orchestrator) collectPaths(mediaType string) ([]task, error) {
	sources, err := o.store.ListSources(mediaType)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]task)
	for _, src := range sources {
		root := strings.TrimSuffix(src.FolderPath, "/")
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("failed to enumerate source %s: %w", src.FolderPath, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			path := pathing.NormalizePath(filepath.Join(root, entry.Name()), false)
			if _, ok := seen[path]; !ok {
				seen[path] = task{path: path, sourceID: src.ID}
			}
		}
	}

	cataloged, err := o.store.ItemDirectories(mediaType)
	if err != nil {
		return nil, err
	}
	for sourceID, paths := range cataloged {
		for _, p := range paths {
			p = pathing.NormalizePath(p, false)
			if _, ok := seen[p]; !ok {
				seen[p] = task{path: p, sourceID: sourceID}
			}
		}
	}

	tasks := make([]task, 0, len(seen))
	for _, t := range seen {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].path < tasks[j].path })
	return tasks, nil
}

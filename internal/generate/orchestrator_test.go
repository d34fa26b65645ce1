package generate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/franz/media-librarian/internal/store"
	"github.com/franz/media-librarian/internal/util"
)

type fakeProcessor struct {
	mu      sync.Mutex
	calls   []string
	failFor string // substring of paths that should fail
	block   chan struct{}
}

func (f *fakeProcessor) Process(ctx context.Context, folderPath string, sourceID int64) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.calls = append(f.calls, folderPath)
	f.mu.Unlock()
	if f.failFor != "" && strings.Contains(folderPath, f.failFor) {
		return errors.New("simulated reconcile failure")
	}
	return nil
}

func (f *fakeProcessor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeIndex struct {
	mu       sync.Mutex
	rebuilds int
	err      error
}

func (f *fakeIndex) Rebuild(ctx context.Context) error {
	f.mu.Lock()
	f.rebuilds++
	f.mu.Unlock()
	return f.err
}

type orchFixture struct {
	store     *store.Store
	processor *fakeProcessor
	index     *fakeIndex
	orch      *Orchestrator
	sourceDir string
	statusDir string
}

func newOrchFixture(t *testing.T) *orchFixture {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	sourceDir := t.TempDir()
	if _, err := s.AddSource(sourceDir, store.MediaTypeMovie); err != nil {
		t.Fatalf("AddSource failed: %v", err)
	}

	processor := &fakeProcessor{}
	index := &fakeIndex{}
	statusDir := t.TempDir()
	orch := New(&Config{
		Store:       s,
		Movies:      processor,
		Index:       index,
		StatusPath:  filepath.Join(statusDir, "status.json"),
		Concurrency: 2,
	})

	return &orchFixture{
		store:     s,
		processor: processor,
		index:     index,
		orch:      orch,
		sourceDir: sourceDir,
		statusDir: statusDir,
	}
}

func (f *orchFixture) makeFolders(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.MkdirAll(filepath.Join(f.sourceDir, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}
}

func TestGenerateVisitsAllFoldersAndRebuildsIndex(t *testing.T) {
	f := newOrchFixture(t)
	f.makeFolders(t, "Alpha (2001)", "Beta (2002)", "Gamma (2003)")

	if err := f.orch.Generate(context.Background()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if got := f.processor.callCount(); got != 3 {
		t.Errorf("expected 3 reconciliations, got %d", got)
	}
	if f.index.rebuilds != 1 {
		t.Errorf("expected 1 index rebuild, got %d", f.index.rebuilds)
	}

	snap := f.orch.Status()
	if snap.State != StateCompleted {
		t.Errorf("expected completed state, got %s", snap.State)
	}
	if p := snap.Progress[store.MediaTypeMovie]; p.Total != 3 || p.Completed != 3 {
		t.Errorf("unexpected progress: %+v", p)
	}
	if len(snap.ActiveFiles) != 0 {
		t.Errorf("expected empty active set after run, got %v", snap.ActiveFiles)
	}
}

func TestGenerateUnionsCatalogPathsWithDisk(t *testing.T) {
	f := newOrchFixture(t)
	f.makeFolders(t, "OnDisk (2001)")

	// Catalog holds a row whose folder is gone from disk, plus a row that
	// duplicates an on-disk folder. The run must visit both paths exactly
	// once each.
	sources, _ := f.store.ListSources(store.MediaTypeMovie)
	srcID := sources[0].ID
	ghost := filepath.Join(f.sourceDir, "Ghost (1990)")
	if _, err := f.store.InsertBareMovie(ghost, srcID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.store.InsertBareMovie(filepath.Join(f.sourceDir, "OnDisk (2001)"), srcID); err != nil {
		t.Fatal(err)
	}

	if err := f.orch.Generate(context.Background()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if got := f.processor.callCount(); got != 2 {
		t.Errorf("expected 2 de-duplicated paths, got %d: %v", got, f.processor.calls)
	}
	visitedGhost := false
	for _, call := range f.processor.calls {
		if strings.Contains(call, "Ghost") {
			visitedGhost = true
		}
	}
	if !visitedGhost {
		t.Error("expected the deleted-from-disk catalog path to be visited")
	}
}

func TestGenerateRecordsPerItemFailuresWithoutAborting(t *testing.T) {
	f := newOrchFixture(t)
	f.makeFolders(t, "Good (2001)", "Bad (2002)", "Fine (2003)")
	f.processor.failFor = "Bad"

	if err := f.orch.Generate(context.Background()); err != nil {
		t.Fatalf("expected per-item failure to be tolerated, got %v", err)
	}

	snap := f.orch.Status()
	if snap.State != StateCompleted {
		t.Errorf("expected completed state despite item failure, got %s", snap.State)
	}
	if len(snap.FailedItems) != 1 {
		t.Fatalf("expected 1 failed item, got %v", snap.FailedItems)
	}
	fi := snap.FailedItems[0]
	if !strings.Contains(fi.Path, "Bad") || fi.MediaType != store.MediaTypeMovie || fi.Error == "" {
		t.Errorf("failed item lacks retry detail: %+v", fi)
	}
	if p := snap.Progress[store.MediaTypeMovie]; p.Completed != 3 {
		t.Errorf("expected all paths counted completed, got %+v", p)
	}
}

func TestGenerateFailsOnSourceEnumerationError(t *testing.T) {
	f := newOrchFixture(t)

	// Point the only source at a directory that no longer exists
	sources, _ := f.store.ListSources(store.MediaTypeMovie)
	gone := filepath.Join(t.TempDir(), "gone")
	if err := f.store.UpdateSource(sources[0].ID, gone); err != nil {
		t.Fatal(err)
	}

	if err := f.orch.Generate(context.Background()); err == nil {
		t.Fatal("expected setup failure to abort the run")
	}

	snap := f.orch.Status()
	if snap.State != StateFailed {
		t.Errorf("expected failed state, got %s", snap.State)
	}
	if snap.Error == "" {
		t.Error("expected root cause captured in status")
	}
}

func TestGenerateRejectsConcurrentRun(t *testing.T) {
	f := newOrchFixture(t)
	f.makeFolders(t, "Slow (2001)")
	f.processor.block = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- f.orch.Generate(context.Background()) }()

	// Wait for the first run to take the in-flight guard
	deadline := time.After(2 * time.Second)
	for !f.orch.Status().Running() {
		select {
		case <-deadline:
			t.Fatal("first run never started")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if err := f.orch.Generate(context.Background()); !errors.Is(err, util.ErrAlreadyRunning) {
		t.Errorf("expected ErrAlreadyRunning, got %v", err)
	}

	close(f.processor.block)
	if err := <-done; err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	// With the guard released a new run is accepted again
	f.processor.block = nil
	if err := f.orch.Generate(context.Background()); err != nil {
		t.Errorf("expected follow-up run to be accepted, got %v", err)
	}
}

func TestGeneratePersistsStatusAcrossRestart(t *testing.T) {
	f := newOrchFixture(t)
	f.makeFolders(t, "Alpha (2001)")

	if err := f.orch.Generate(context.Background()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	firstSnap := f.orch.Status()

	// A fresh orchestrator pointed at the same status file reports the
	// previous run's completion
	restarted := New(&Config{
		Store:      f.store,
		Movies:     f.processor,
		Index:      f.index,
		StatusPath: filepath.Join(f.statusDir, "status.json"),
	})
	snap := restarted.Status()
	if snap.State != StateCompleted {
		t.Errorf("expected restored completed state, got %s", snap.State)
	}
	if !snap.LastCompletedTime.Equal(firstSnap.LastCompletedTime) {
		t.Error("expected lastCompletedTime restored from disk")
	}
}

func TestRestartRestoresFailedItems(t *testing.T) {
	f := newOrchFixture(t)
	f.makeFolders(t, "Good (2001)", "Bad (2002)")
	f.processor.failFor = "Bad"

	if err := f.orch.Generate(context.Background()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	restarted := New(&Config{
		Store:      f.store,
		Movies:     f.processor,
		Index:      f.index,
		StatusPath: filepath.Join(f.statusDir, "status.json"),
	})
	snap := restarted.Status()

	if len(snap.FailedItems) != 1 {
		t.Fatalf("expected failed items to survive restart, got %v", snap.FailedItems)
	}
	fi := snap.FailedItems[0]
	if !strings.Contains(fi.Path, "Bad") || fi.MediaType != store.MediaTypeMovie || fi.Error == "" {
		t.Errorf("restored failed item lacks retry detail: %+v", fi)
	}
	if p := snap.Progress[store.MediaTypeMovie]; p.Total != 2 || p.Completed != 2 {
		t.Errorf("expected progress restored, got %+v", p)
	}
}

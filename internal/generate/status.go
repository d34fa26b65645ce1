package generate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// State names one phase of a generation run
type State string

const (
	StateIdle             State = "idle"
	StateProcessingMovies State = "processing_movies"
	StateProcessingShows  State = "processing_shows"
	StateBuildingIndex    State = "building_index"
	StateCompleted        State = "completed"
	StateFailed           State = "failed"
)

// MediaProgress tracks per-media-type reconciliation progress
type MediaProgress struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// FailedItem records one path that could not be reconciled. The run carries
// on; failed items are surfaced for manual retry.
type FailedItem struct {
	Path      string `json:"path"`
	MediaType string `json:"mediaType"`
	Error     string `json:"error"`
}

// Status is the shared state of one generation run. Counters, active files
// and the failure log are logically independent groups, so each has its own
// mutex; unrelated updates never serialize on each other.
type Status struct {
	countsMu          sync.Mutex
	runID             string
	state             State
	startTime         time.Time
	lastCompletedTime time.Time
	errorMessage      string
	progress          map[string]*MediaProgress

	activeMu    sync.Mutex
	activeFiles map[string]struct{}

	failMu      sync.Mutex
	failedItems []FailedItem
	log         []string
}

// NewStatus creates an idle status
func NewStatus() *Status {
	return &Status{
		state:       StateIdle,
		progress:    make(map[string]*MediaProgress),
		activeFiles: make(map[string]struct{}),
	}
}

// BeginRun resets the status for a fresh run. The previous run's data is
// superseded, not merged.
func (s *Status) BeginRun(runID string) {
	s.countsMu.Lock()
	s.runID = runID
	s.state = StateIdle
	s.startTime = time.Now()
	s.errorMessage = ""
	s.progress = make(map[string]*MediaProgress)
	s.countsMu.Unlock()

	s.activeMu.Lock()
	s.activeFiles = make(map[string]struct{})
	s.activeMu.Unlock()

	s.failMu.Lock()
	s.failedItems = nil
	s.log = nil
	s.failMu.Unlock()
}

// SetState advances the run to the next phase
func (s *Status) SetState(state State) {
	s.countsMu.Lock()
	defer s.countsMu.Unlock()
	s.state = state
}

// Complete marks the run finished and stamps lastCompletedTime
func (s *Status) Complete() {
	s.countsMu.Lock()
	defer s.countsMu.Unlock()
	s.state = StateCompleted
	s.lastCompletedTime = time.Now()
}

// Fail marks the run failed with the given root-cause message
func (s *Status) Fail(message string) {
	s.countsMu.Lock()
	defer s.countsMu.Unlock()
	s.state = StateFailed
	s.errorMessage = message
}

// SetTotal records how many paths a media type's phase will visit
func (s *Status) SetTotal(mediaType string, total int) {
	s.countsMu.Lock()
	defer s.countsMu.Unlock()
	s.progress[mediaType] = &MediaProgress{Total: total}
}

// IncrementCompleted bumps the completed counter for a media type
func (s *Status) IncrementCompleted(mediaType string) {
	s.countsMu.Lock()
	defer s.countsMu.Unlock()
	if p, ok := s.progress[mediaType]; ok {
		p.Completed++
	}
}

// AddActive marks a path as currently being processed
func (s *Status) AddActive(path string) {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	s.activeFiles[path] = struct{}{}
}

// RemoveActive clears a path from the active set
func (s *Status) RemoveActive(path string) {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	delete(s.activeFiles, path)
}

// RecordFailure appends a per-item failure
func (s *Status) RecordFailure(item FailedItem) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.failedItems = append(s.failedItems, item)
}

// Logf appends a timestamped human-readable trace line
func (s *Status) Logf(format string, args ...any) {
	line := fmt.Sprintf("%s %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.log = append(s.log, line)
}

// Snapshot is a deep copy of a Status, safe for concurrent readers and used
// as the on-disk persistence format.
type Snapshot struct {
	RunID             string                   `json:"runId"`
	State             State                    `json:"state"`
	StartTime         time.Time                `json:"startTime"`
	LastCompletedTime time.Time                `json:"lastCompletedTime"`
	Error             string                   `json:"error,omitempty"`
	Progress          map[string]MediaProgress `json:"progress"`
	ActiveFiles       []string                 `json:"activeFiles"`
	FailedItems       []FailedItem             `json:"failedItems"`
	Log               []string                 `json:"log"`
}

// Snapshot deep-copies the current state. Each mutex is taken in turn, never
// together, so a snapshot can race an in-flight run without blocking it.
func (s *Status) Snapshot() *Snapshot {
	snap := &Snapshot{Progress: make(map[string]MediaProgress)}

	s.countsMu.Lock()
	snap.RunID = s.runID
	snap.State = s.state
	snap.StartTime = s.startTime
	snap.LastCompletedTime = s.lastCompletedTime
	snap.Error = s.errorMessage
	for mt, p := range s.progress {
		snap.Progress[mt] = *p
	}
	s.countsMu.Unlock()

	s.activeMu.Lock()
	snap.ActiveFiles = make([]string, 0, len(s.activeFiles))
	for path := range s.activeFiles {
		snap.ActiveFiles = append(snap.ActiveFiles, path)
	}
	s.activeMu.Unlock()
	sort.Strings(snap.ActiveFiles)

	s.failMu.Lock()
	snap.FailedItems = append([]FailedItem(nil), s.failedItems...)
	snap.Log = append([]string(nil), s.log...)
	s.failMu.Unlock()

	return snap
}

// Running reports whether the snapshot captured an in-flight run
func (s *Snapshot) Running() bool {
	switch s.State {
	case StateProcessingMovies, StateProcessingShows, StateBuildingIndex:
		return true
	}
	return false
}

// Counts sums progress across all media types
func (s *Snapshot) Counts() (total, completed int) {
	for _, p := range s.Progress {
		total += p.Total
		completed += p.Completed
	}
	return total, completed
}

// SecondsRemaining estimates time left as elapsed-per-item times remaining
// items. Returns 0 until at least one item has completed; no estimate beats
// a wild one.
func (s *Snapshot) SecondsRemaining() int {
	total, completed := s.Counts()
	if completed == 0 {
		return 0
	}
	elapsed := time.Since(s.StartTime).Seconds()
	perItem := elapsed / float64(completed)
	return int(perItem * float64(total-completed))
}

// Save persists a snapshot of the status as indented JSON, written to a temp
// file and renamed into place
func (s *Status) Save(path string) error {
	snap := s.Snapshot()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal generation status: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create status directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".status-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp status file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write status file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close status file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to publish status file: %w", err)
	}
	return nil
}

// LoadSnapshot reads a persisted status snapshot. Returns (nil, nil) when no
// status file exists yet.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read status file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse status file: %w", err)
	}
	return &snap, nil
}

// restore seeds a fresh Status from a persisted snapshot at startup, so the
// last run's outcome, progress and failed items stay readable across process
// restarts. A snapshot captured mid-run means the process died before
// finishing; it reads back as failed. The active set is not restored since
// nothing is being processed anymore.
func (s *Status) restore(snap *Snapshot) {
	s.countsMu.Lock()
	s.runID = snap.RunID
	s.startTime = snap.StartTime
	s.lastCompletedTime = snap.LastCompletedTime
	s.state = snap.State
	s.errorMessage = snap.Error
	if snap.Running() {
		s.state = StateFailed
		s.errorMessage = "interrupted before completion"
	}
	s.progress = make(map[string]*MediaProgress, len(snap.Progress))
	for mediaType, p := range snap.Progress {
		mp := p
		s.progress[mediaType] = &mp
	}
	s.countsMu.Unlock()

	s.failMu.Lock()
	s.failedItems = append([]FailedItem(nil), snap.FailedItems...)
	s.log = append([]string(nil), snap.Log...)
	s.failMu.Unlock()
}

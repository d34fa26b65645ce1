package tmdb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/franz/media-librarian/internal/util"
)

// DefaultFreshness is how long a cached record is reused before refetching
const DefaultFreshness = 30 * 24 * time.Hour

// CachedMetadata is the on-disk envelope for one movie record
type CachedMetadata struct {
	TMDBID    int64         `json:"tmdbId"`
	FetchedAt time.Time     `json:"fetchedAt"`
	Payload   *FullMetadata `json:"payload"`
}

// Cache stores one JSON file per external id under dir. Entries are reused
// while now - fetchedAt < freshness, refetched otherwise.
type Cache struct {
	dir       string
	freshness time.Duration
}

// NewCache creates a disk cache rooted at dir. A zero freshness uses the
// default 30-day window.
func NewCache(dir string, freshness time.Duration) *Cache {
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	return &Cache{dir: dir, freshness: freshness}
}

func (c *Cache) entryPath(tmdbID int64) string {
	return filepath.Join(c.dir, fmt.Sprintf("%d.json", tmdbID))
}

// Lookup returns the cached record for the id when present and fresh
func (c *Cache) Lookup(tmdbID int64) (*FullMetadata, bool) {
	data, err := os.ReadFile(c.entryPath(tmdbID))
	if err != nil {
		return nil, false
	}

	var entry CachedMetadata
	if err := json.Unmarshal(data, &entry); err != nil {
		util.WarnLog("Discarding unreadable metadata cache entry %d: %v", tmdbID, err)
		return nil, false
	}
	if entry.Payload == nil {
		return nil, false
	}

	if time.Since(entry.FetchedAt) >= c.freshness {
		util.DebugLog("Metadata cache entry %d is stale (fetched %s)",
			tmdbID, entry.FetchedAt.Format(time.RFC3339))
		return nil, false
	}

	return entry.Payload, true
}

// Store writes the record back to disk, replacing any stale entry. The file
// is written to a temp name and renamed so readers never see a torn entry.
func (c *Cache) Store(tmdbID int64, meta *FullMetadata) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create metadata cache dir: %w", err)
	}

	entry := CachedMetadata{
		TMDBID:    tmdbID,
		FetchedAt: time.Now(),
		Payload:   meta,
	}
	data, err := json.MarshalIndent(&entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata cache entry: %w", err)
	}

	tmp := c.entryPath(tmdbID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata cache entry: %w", err)
	}
	if err := os.Rename(tmp, c.entryPath(tmdbID)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to publish metadata cache entry: %w", err)
	}
	return nil
}

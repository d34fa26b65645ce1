package tmdb

import (
	"context"
	"sync"

	"github.com/franz/media-librarian/internal/pathing"
	"github.com/franz/media-librarian/internal/util"
)

// Resolver is the single gateway to external metadata. Every upstream call,
// cache check included, is funneled through one mutex: the API client is not
// proven safe for concurrent use, and serializing lookups doubles as the
// pipeline's backpressure valve against the upstream rate limit. Relax this
// only with a client verified reusable across goroutines.
type Resolver struct {
	api   API
	cache *Cache
	mu    sync.Mutex
}

// NewResolver wires the upstream API with the disk cache
func NewResolver(api API, cache *Cache) *Resolver {
	return &Resolver{api: api, cache: cache}
}

// Search queries upstream by title. No caching: search results are cheap
// and title queries rarely repeat within one run.
func (r *Resolver) Search(ctx context.Context, title string) ([]SearchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.api.SearchMovies(ctx, title)
}

// Fetch returns the full record for one id, served from the disk cache while
// fresh and refetched from upstream otherwise.
func (r *Resolver) Fetch(ctx context.Context, tmdbID int64) (*FullMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if meta, ok := r.cache.Lookup(tmdbID); ok {
		util.DebugLog("Metadata cache hit for %d", tmdbID)
		return meta, nil
	}

	meta, err := r.api.MovieDetails(ctx, tmdbID)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Store(tmdbID, meta); err != nil {
		// A failed cache write is not worth failing the item over
		util.WarnLog("Failed to cache metadata for %d: %v", tmdbID, err)
	}
	return meta, nil
}

// Match resolves a folder name to full metadata using the standard matching
// policy: derive a candidate title (year suffix stripped), search, keep
// results with an equivalent title, narrow by year when the folder has one,
// take the first survivor. Returns (nil, nil) when nothing matches, in which
// case the caller falls back to generic folder-derived metadata.
func (r *Resolver) Match(ctx context.Context, folderName string) (*FullMetadata, int64, error) {
	candidate := pathing.TitleFromFolder(folderName)
	year, hasYear := pathing.ExtractYear(folderName)

	results, err := r.Search(ctx, candidate)
	if err != nil {
		return nil, 0, err
	}

	for _, res := range results {
		if !pathing.TitlesAreEquivalent(res.Title, candidate) {
			continue
		}
		if hasYear && res.ReleaseYear != year {
			continue
		}
		meta, err := r.Fetch(ctx, res.TMDBID)
		if err != nil {
			return nil, 0, err
		}
		return meta, res.TMDBID, nil
	}

	util.DebugLog("No metadata match for folder '%s'", folderName)
	return nil, 0, nil
}

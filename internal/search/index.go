package search

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/franz/media-librarian/internal/store"
	"github.com/franz/media-librarian/internal/util"
)

// Hit is one search result
type Hit struct {
	ID    int64
	Score float64
}

// Index builds and queries the full-text index over the catalog. The index
// is always rebuilt from scratch, never patched incrementally; the catalog
// is the source of truth and a rebuild is cheap at library scale.
type Index struct {
	store *store.Store
	path  string
	mu    sync.Mutex
}

// NewIndex creates an Index rooted at path
func NewIndex(st *store.Store, path string) *Index {
	return &Index{store: st, path: path}
}

// document is what gets indexed per catalog item. Everything searchable is
// folded into the single lower-cased `all` field; the named fields are
// stored for display.
type document struct {
	Title     string `json:"title"`
	SortTitle string `json:"sortTitle"`
	Rating    string `json:"rating"`
	All       string `json:"all"`
}

func buildMapping() mapping.IndexMapping {
	stored := bleve.NewTextFieldMapping()
	stored.Analyzer = keyword.Name
	stored.Store = true

	all := bleve.NewTextFieldMapping()
	all.Store = false

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("title", stored)
	doc.AddFieldMappingsAt("sortTitle", stored)
	doc.AddFieldMappingsAt("rating", stored)
	doc.AddFieldMappingsAt("all", all)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	return im
}

// Rebuild deletes any existing index and recreates it from the catalog,
// streaming rows so the whole library never sits in memory at once.
func (i *Index) Rebuild(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := os.RemoveAll(i.path); err != nil {
		return fmt.Errorf("failed to remove old search index: %w", err)
	}

	idx, err := bleve.New(i.path, buildMapping())
	if err != nil {
		return fmt.Errorf("failed to create search index: %w", err)
	}
	defer idx.Close()

	batch := idx.NewBatch()
	count := 0
	err = i.store.ForEachMovie(func(m *store.Movie) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		doc := document{
			Title:     strings.ToLower(m.Title),
			SortTitle: strings.ToLower(m.SortTitle),
			Rating:    strings.ToLower(m.Rating),
			All: strings.ToLower(strings.Join(
				[]string{m.Title, m.SortTitle, m.Rating, m.Summary}, " ")),
		}
		if err := batch.Index(strconv.FormatInt(m.ID, 10), doc); err != nil {
			return fmt.Errorf("failed to index item %d: %w", m.ID, err)
		}
		count++

		if batch.Size() >= 100 {
			if err := idx.Batch(batch); err != nil {
				return fmt.Errorf("failed to commit index batch: %w", err)
			}
			batch.Reset()
		}
		return nil
	})
	if err != nil {
		return err
	}

	if batch.Size() > 0 {
		if err := idx.Batch(batch); err != nil {
			return fmt.Errorf("failed to commit index batch: %w", err)
		}
	}

	util.InfoLog("Search index rebuilt with %d items", count)
	return nil
}

// Query searches the index. Each whitespace-separated term must match,
// either exactly or as a substring; exact matches carry more weight so
// "alien" ranks Alien above Aliens.
func (i *Index) Query(text string, max int) ([]Hit, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	terms := strings.Fields(strings.ToLower(text))
	if len(terms) == 0 {
		return nil, nil
	}
	if max <= 0 {
		max = 50
	}

	if _, err := os.Stat(i.path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: search index not built yet", util.ErrNotFound)
	}

	idx, err := bleve.Open(i.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open search index: %w", err)
	}
	defer idx.Close()

	conjunction := bleve.NewConjunctionQuery()
	for _, term := range terms {
		exact := bleve.NewMatchQuery(term)
		exact.SetField("all")

		substring := bleve.NewWildcardQuery("*" + term + "*")
		substring.SetField("all")
		substring.SetBoost(0.3)

		conjunction.AddQuery(bleve.NewDisjunctionQuery(exact, substring))
	}

	request := bleve.NewSearchRequestOptions(conjunction, max, 0, false)
	result, err := idx.Search(request)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, h := range result.Hits {
		id, err := strconv.ParseInt(h.ID, 10, 64)
		if err != nil {
			continue
		}
		hits = append(hits, Hit{ID: id, Score: h.Score})
	}
	return hits, nil
}

package main

import (
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/franz/media-librarian/internal/generate"
	"github.com/franz/media-librarian/internal/images"
	"github.com/franz/media-librarian/internal/reconcile"
	"github.com/franz/media-librarian/internal/search"
	"github.com/franz/media-librarian/internal/store"
	"github.com/franz/media-librarian/internal/tmdb"
)

// app wires the full pipeline from configuration. Commands that only read
// the status file or the index open just what they need instead.
type app struct {
	store        *store.Store
	reconciler   *reconcile.MovieReconciler
	index        *search.Index
	orchestrator *generate.Orchestrator
	cacheDir     string
}

func statusFilePath(cacheDir string) string {
	return filepath.Join(cacheDir, "generation-status.json")
}

func indexPath(cacheDir string) string {
	return filepath.Join(cacheDir, "search.bleve")
}

func buildApp() (*app, error) {
	db, err := store.Open(viper.GetString("db"))
	if err != nil {
		return nil, err
	}

	cacheDir := viper.GetString("cache_dir")

	client, err := tmdb.NewClient(
		viper.GetString("tmdb.api_key"),
		viper.GetString("tmdb.base_url"),
		viper.GetString("tmdb.image_base_url"),
	)
	if err != nil {
		db.Close()
		return nil, err
	}

	freshness := tmdb.DefaultFreshness
	if days := viper.GetInt("tmdb.cache_max_age_days"); days > 0 {
		freshness = time.Duration(days) * 24 * time.Hour
	}
	metaCache := tmdb.NewCache(filepath.Join(cacheDir, "tmdb"), freshness)
	resolver := tmdb.NewResolver(client, metaCache)

	acquirer := images.New(&images.Config{
		Renderer:         &images.BasicRenderer{},
		MaxPerKind:       viper.GetInt("images.max_per_kind"),
		DerivativeWidths: viper.GetIntSlice("images.derivative_widths"),
	})

	reconciler := reconcile.New(&reconcile.Config{
		Store:    db,
		Resolver: resolver,
		Acquirer: acquirer,
		CacheDir: cacheDir,
	})

	index := search.NewIndex(db, indexPath(cacheDir))

	orchestrator := generate.New(&generate.Config{
		Store:       db,
		Movies:      reconciler,
		Index:       index,
		StatusPath:  statusFilePath(cacheDir),
		Concurrency: viper.GetInt("generate.concurrency"),
	})

	return &app{
		store:        db,
		reconciler:   reconciler,
		index:        index,
		orchestrator: orchestrator,
		cacheDir:     cacheDir,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

package reconcile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/franz/media-librarian/internal/images"
	"github.com/franz/media-librarian/internal/pathing"
	"github.com/franz/media-librarian/internal/store"
	"github.com/franz/media-librarian/internal/tmdb"
	"github.com/franz/media-librarian/internal/util"
)

// VideoExtensions are the file extensions recognized as a movie's primary
// video file
var VideoExtensions = []string{
	".mp4", ".mkv", ".avi", ".m4v", ".mov", ".wmv", ".mpg", ".mpeg", ".ts",
}

// MetadataMatcher is the metadata surface the reconciler consumes
type MetadataMatcher interface {
	Match(ctx context.Context, folderName string) (*tmdb.FullMetadata, int64, error)
	Fetch(ctx context.Context, tmdbID int64) (*tmdb.FullMetadata, error)
}

// ImageAcquirer fetches or synthesizes artwork into a destination directory
type ImageAcquirer interface {
	Acquire(ctx context.Context, sources []string, destDir string, kind images.Kind, placeholderTitle string) (int, error)
}

// MovieReconciler decides create/update/delete for one filesystem path,
// idempotently on every generation run.
type MovieReconciler struct {
	store    *store.Store
	resolver MetadataMatcher
	acquirer ImageAcquirer
	cacheDir string
	probe    func(videoPath string) (int, error)
}

// Config holds reconciler configuration
type Config struct {
	Store    *store.Store
	Resolver MetadataMatcher
	Acquirer ImageAcquirer
	CacheDir string                              // Root for per-item image caches
	Probe    func(videoPath string) (int, error) // nil uses ffprobe
}

// New creates a MovieReconciler
func New(cfg *Config) *MovieReconciler {
	if cfg.Probe == nil {
		cfg.Probe = ProbeRuntimeSeconds
	}
	return &MovieReconciler{
		store:    cfg.Store,
		resolver: cfg.Resolver,
		acquirer: cfg.Acquirer,
		cacheDir: cfg.CacheDir,
		probe:    cfg.Probe,
	}
}

// ItemCacheDir returns the per-item image cache directory
func (r *MovieReconciler) ItemCacheDir(id int64) string {
	return filepath.Join(r.cacheDir, "items", strconv.FormatInt(id, 10))
}

// Process reconciles one folder path against the catalog. The path need not
// exist on disk: a cataloged path whose directory is gone is reconciled away
// along with its cached images.
func (r *MovieReconciler) Process(ctx context.Context, folderPath string, sourceID int64) error {
	folderPath = pathing.NormalizePath(folderPath, false)
	dir := strings.TrimSuffix(folderPath, "/")

	info, statErr := os.Stat(dir)
	onDisk := statErr == nil && info.IsDir()

	existing, err := r.store.GetMovieByPath(folderPath)
	if err != nil {
		return err
	}

	switch {
	case !onDisk:
		if existing == nil {
			return nil
		}
		return r.processDeleted(existing)
	case existing == nil:
		return r.processNew(ctx, folderPath, sourceID)
	default:
		return r.processExisting(ctx, existing, sourceID, nil)
	}
}

// ProcessSingle re-processes one catalog row on demand, e.g. after a manual
// metadata edit. Metadata and images are re-resolved unconditionally.
func (r *MovieReconciler) ProcessSingle(ctx context.Context, itemID int64) error {
	movie, err := r.store.GetMovieByID(itemID)
	if err != nil {
		return err
	}

	var meta *tmdb.FullMetadata
	if movie.TMDBID != 0 {
		meta, err = r.resolver.Fetch(ctx, movie.TMDBID)
	} else {
		meta, _, err = r.resolver.Match(ctx, pathing.FolderName(movie.FolderPath))
	}
	if err != nil {
		return err
	}

	return r.processExisting(ctx, movie, movie.SourceID, meta)
}

// processDeleted removes the catalog row and the entire per-item image
// cache. Terminal: the path will not be seen again unless it reappears on
// disk.
func (r *MovieReconciler) processDeleted(movie *store.Movie) error {
	util.InfoLog("Removing '%s' (folder no longer on disk)", movie.FolderPath)

	if err := r.store.DeleteMovieByPath(movie.FolderPath); err != nil {
		return err
	}
	if err := os.RemoveAll(r.ItemCacheDir(movie.ID)); err != nil {
		return fmt.Errorf("failed to remove image cache for %d: %w", movie.ID, err)
	}
	return nil
}

// processNew inserts a bare row to claim an id, then resolves metadata and
// artwork. Any failure after the bare insert deletes the row again so the
// item is retried from scratch next run; partially-populated rows never
// persist.
func (r *MovieReconciler) processNew(ctx context.Context, folderPath string, sourceID int64) (retErr error) {
	id, err := r.store.InsertBareMovie(folderPath, sourceID)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			if delErr := r.store.DeleteMovieByID(id); delErr != nil {
				util.ErrorLog("Failed to roll back bare row %d: %v", id, delErr)
			}
			os.RemoveAll(r.ItemCacheDir(id))
		}
	}()

	folderName := pathing.FolderName(folderPath)
	meta, tmdbID, err := r.resolver.Match(ctx, folderName)
	if err != nil {
		return err
	}

	update := r.buildUpdate(folderPath, sourceID, meta)
	if tmdbID != 0 {
		update.TMDBID = &tmdbID
	}

	posterCount, backdropCount, err := r.acquireImages(ctx, id, folderPath, meta, *update.Title)
	if err != nil {
		return err
	}
	update.PosterCount = &posterCount
	update.BackdropCount = &backdropCount

	if err := r.store.UpdateMovie(id, update); err != nil {
		return err
	}

	util.InfoLog("Added '%s' (id %d)", *update.Title, id)
	return nil
}

// processExisting refreshes the fields that legitimately change between
// runs (paths, runtime, source) and re-acquires images per kind, only when
// that kind has a new source: explicit metadata passed by a caller, or
// artwork of that kind present in the item's folder. A kind with no new
// source keeps its published set and count untouched, so an unchanged item
// produces no catalog diff and no new image files.
func (r *MovieReconciler) processExisting(ctx context.Context, movie *store.Movie, sourceID int64, explicit *tmdb.FullMetadata) error {
	folderPath := pathing.NormalizePath(movie.FolderPath, false)

	var update *store.MovieUpdate
	if explicit != nil {
		update = r.buildUpdate(folderPath, sourceID, explicit)
	} else {
		update = &store.MovieUpdate{FolderPath: &folderPath, SourceID: &sourceID}
		videoPath := r.findVideo(folderPath)
		update.VideoPath = &videoPath
		if runtime := r.resolveRuntime(0, videoPath); runtime > 0 {
			update.RuntimeSeconds = &runtime
		}
	}

	title := movie.Title
	if update.Title != nil {
		title = *update.Title
	}

	if explicit != nil {
		posterCount, backdropCount, err := r.acquireImages(ctx, movie.ID, folderPath, explicit, title)
		if err != nil {
			return err
		}
		update.PosterCount = &posterCount
		update.BackdropCount = &backdropCount
	} else {
		fsPosters, fsBackdrops := images.FromFolder(strings.TrimSuffix(folderPath, "/"))
		if len(fsPosters) > 0 {
			count, err := r.acquireKind(ctx, movie.ID, fsPosters, images.KindPoster, title)
			if err != nil {
				return err
			}
			update.PosterCount = &count
		}
		if len(fsBackdrops) > 0 {
			count, err := r.acquireKind(ctx, movie.ID, fsBackdrops, images.KindBackdrop, title)
			if err != nil {
				return err
			}
			update.BackdropCount = &count
		}
	}

	return r.store.UpdateMovie(movie.ID, update)
}

// buildUpdate assembles the full field set for a row from resolved metadata,
// falling back to folder-derived values when no match was found, and finally
// applying any movie.json override in the item's folder.
func (r *MovieReconciler) buildUpdate(folderPath string, sourceID int64, meta *tmdb.FullMetadata) *store.MovieUpdate {
	folderName := pathing.FolderName(folderPath)

	title := pathing.TitleFromFolder(folderName)
	summary, rating := "", ""
	releaseYear, _ := pathing.ExtractYear(folderName)
	runtimeSeconds := 0

	if meta != nil {
		if meta.Title != "" {
			title = meta.Title
		}
		summary = meta.Summary
		rating = meta.Rating
		if meta.ReleaseYear != 0 {
			releaseYear = meta.ReleaseYear
		}
		runtimeSeconds = meta.RuntimeSeconds
	}

	if override := loadOverride(strings.TrimSuffix(folderPath, "/")); override != nil {
		override.apply(&title, &summary, &rating, &releaseYear)
	}

	videoPath := r.findVideo(folderPath)
	runtimeSeconds = r.resolveRuntime(runtimeSeconds, videoPath)
	sortTitle := pathing.SortTitle(title)

	return &store.MovieUpdate{
		FolderPath:     &folderPath,
		VideoPath:      &videoPath,
		Title:          &title,
		SortTitle:      &sortTitle,
		Summary:        &summary,
		Rating:         &rating,
		ReleaseYear:    &releaseYear,
		RuntimeSeconds: &runtimeSeconds,
		SourceID:       &sourceID,
	}
}

// acquireImages publishes posters and backdrops for one item from the full
// source policy: filesystem artwork wins over metadata URLs for both kinds.
// Used when both kinds must be (re)built, i.e. new items and explicit
// re-processing.
func (r *MovieReconciler) acquireImages(ctx context.Context, id int64, folderPath string, meta *tmdb.FullMetadata, title string) (posterCount, backdropCount int, err error) {
	dir := strings.TrimSuffix(folderPath, "/")
	fsPosters, fsBackdrops := images.FromFolder(dir)

	posterSources := fsPosters
	backdropSources := fsBackdrops
	if meta != nil {
		if len(posterSources) == 0 {
			posterSources = meta.PosterURLs
		}
		if len(backdropSources) == 0 {
			backdropSources = meta.BackdropURLs
		}
	}

	posterCount, err = r.acquireKind(ctx, id, posterSources, images.KindPoster, title)
	if err != nil {
		return 0, 0, err
	}
	backdropCount, err = r.acquireKind(ctx, id, backdropSources, images.KindBackdrop, title)
	if err != nil {
		return 0, 0, err
	}
	return posterCount, backdropCount, nil
}

// acquireKind publishes one kind's image set into the item's cache dir
func (r *MovieReconciler) acquireKind(ctx context.Context, id int64, sources []string, kind images.Kind, title string) (int, error) {
	subdir := "posters"
	if kind == images.KindBackdrop {
		subdir = "backdrops"
	}
	return r.acquirer.Acquire(ctx, sources, filepath.Join(r.ItemCacheDir(id), subdir), kind, title)
}

// findVideo returns the first video file in the item's folder, empty when
// none exists
func (r *MovieReconciler) findVideo(folderPath string) string {
	dir := strings.TrimSuffix(folderPath, "/")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		for _, v := range VideoExtensions {
			if ext == v {
				return pathing.NormalizePath(filepath.Join(dir, entry.Name()), true)
			}
		}
	}
	return ""
}

// resolveRuntime prefers the upstream-supplied runtime and otherwise probes
// the video container. Probe failures are swallowed; the field stays absent.
func (r *MovieReconciler) resolveRuntime(fromMetadata int, videoPath string) int {
	if fromMetadata > 0 {
		return fromMetadata
	}
	if videoPath == "" {
		return 0
	}
	runtime, err := r.probe(videoPath)
	if err != nil {
		util.DebugLog("Runtime probe failed for %s: %v", videoPath, err)
		return 0
	}
	return runtime
}

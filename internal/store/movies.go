package store

import (
	"database/sql"
	"fmt"

	"github.com/franz/media-librarian/internal/pathing"
	"github.com/franz/media-librarian/internal/util"
)

// Movie is one catalog row. folder_path is the natural key used to detect
// existing items; id comes from the shared media-item sequence.
type Movie struct {
	ID             int64
	FolderPath     string
	VideoPath      string
	Title          string
	SortTitle      string
	Summary        string
	Rating         string
	ReleaseYear    int
	RuntimeSeconds int
	TMDBID         int64 // 0 when the item never matched upstream
	SourceID       int64
	PosterCount    int
	BackdropCount  int
}

// MovieUpdate carries the fields a reconciliation may change. Nil pointers
// leave the column untouched. Explicit struct instead of a name->value map
// so every column reference is checked at compile time.
type MovieUpdate struct {
	FolderPath     *string
	VideoPath      *string
	Title          *string
	SortTitle      *string
	Summary        *string
	Rating         *string
	ReleaseYear    *int
	RuntimeSeconds *int
	TMDBID         *int64
	SourceID       *int64
	PosterCount    *int
	BackdropCount  *int
}

// columns returns the SET clause fragments and arguments for the update.
func (u *MovieUpdate) columns() ([]string, []any) {
	var cols []string
	var args []any

	add := func(col string, val any) {
		cols = append(cols, col+" = ?")
		args = append(args, val)
	}

	if u.FolderPath != nil {
		add("folder_path", pathing.NormalizePath(*u.FolderPath, false))
	}
	if u.VideoPath != nil {
		add("video_path", *u.VideoPath)
	}
	if u.Title != nil {
		add("title", *u.Title)
	}
	if u.SortTitle != nil {
		add("sort_title", *u.SortTitle)
	}
	if u.Summary != nil {
		add("summary", *u.Summary)
	}
	if u.Rating != nil {
		add("rating", *u.Rating)
	}
	if u.ReleaseYear != nil {
		add("release_year", *u.ReleaseYear)
	}
	if u.RuntimeSeconds != nil {
		add("runtime_seconds", *u.RuntimeSeconds)
	}
	if u.TMDBID != nil {
		add("tmdb_id", *u.TMDBID)
	}
	if u.SourceID != nil {
		add("source_id", *u.SourceID)
	}
	if u.PosterCount != nil {
		add("poster_count", *u.PosterCount)
	}
	if u.BackdropCount != nil {
		add("backdrop_count", *u.BackdropCount)
	}

	return cols, args
}

// InsertBareMovie inserts a minimal row for a newly discovered folder and
// returns its id from the shared sequence. The caller fills in the rest via
// UpdateMovie, and deletes the row again if anything downstream fails so no
// partially-populated rows survive a run.
func (s *Store) InsertBareMovie(folderPath string, sourceID int64) (int64, error) {
	id, err := s.AllocateMediaID(MediaTypeMovie)
	if err != nil {
		return 0, err
	}

	folderPath = pathing.NormalizePath(folderPath, false)
	_, err = s.db.Exec(
		"INSERT INTO movies (id, folder_path, source_id) VALUES (?, ?, ?)",
		id, folderPath, sourceID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert bare movie: %w", err)
	}
	return id, nil
}

// UpdateMovie applies the non-nil fields of the update to one row
func (s *Store) UpdateMovie(id int64, update *MovieUpdate) error {
	cols, args := update.columns()
	if len(cols) == 0 {
		return nil
	}

	query := "UPDATE movies SET "
	for i, col := range cols {
		if i > 0 {
			query += ", "
		}
		query += col
	}
	query += ", updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	args = append(args, id)

	result, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update movie %d: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return util.ErrNotFound
	}
	return nil
}

// DeleteMovieByPath removes the catalog row for a folder path
func (s *Store) DeleteMovieByPath(folderPath string) error {
	folderPath = pathing.NormalizePath(folderPath, false)
	_, err := s.db.Exec("DELETE FROM movies WHERE folder_path = ?", folderPath)
	if err != nil {
		return fmt.Errorf("failed to delete movie: %w", err)
	}
	return nil
}

// DeleteMovieByID removes one catalog row by id
func (s *Store) DeleteMovieByID(id int64) error {
	_, err := s.db.Exec("DELETE FROM movies WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete movie %d: %w", id, err)
	}
	return nil
}

// MovieExistsByPath reports whether a catalog row exists for the folder path
func (s *Store) MovieExistsByPath(folderPath string) (bool, error) {
	folderPath = pathing.NormalizePath(folderPath, false)
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM movies WHERE folder_path = ?", folderPath,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check movie existence: %w", err)
	}
	return count > 0, nil
}

const movieColumns = `
	id, folder_path, COALESCE(video_path, ''), COALESCE(title, ''),
	COALESCE(sort_title, ''), COALESCE(summary, ''), COALESCE(rating, ''),
	COALESCE(release_year, 0), COALESCE(runtime_seconds, 0),
	COALESCE(tmdb_id, 0), source_id, poster_count, backdrop_count`

func scanMovie(row interface{ Scan(...any) error }) (*Movie, error) {
	m := &Movie{}
	err := row.Scan(
		&m.ID, &m.FolderPath, &m.VideoPath, &m.Title,
		&m.SortTitle, &m.Summary, &m.Rating,
		&m.ReleaseYear, &m.RuntimeSeconds,
		&m.TMDBID, &m.SourceID, &m.PosterCount, &m.BackdropCount,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// GetMovieByPath retrieves a movie by its folder path, nil when absent
func (s *Store) GetMovieByPath(folderPath string) (*Movie, error) {
	folderPath = pathing.NormalizePath(folderPath, false)
	m, err := scanMovie(s.db.QueryRow(
		"SELECT"+movieColumns+" FROM movies WHERE folder_path = ?", folderPath,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get movie by path: %w", err)
	}
	return m, nil
}

// GetMovieByID retrieves a movie by id
func (s *Store) GetMovieByID(id int64) (*Movie, error) {
	m, err := scanMovie(s.db.QueryRow(
		"SELECT"+movieColumns+" FROM movies WHERE id = ?", id,
	))
	if err == sql.ErrNoRows {
		return nil, util.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get movie %d: %w", id, err)
	}
	return m, nil
}

// GetMovieDirectories returns all cataloged folder paths grouped by source id.
// The orchestrator unions these with the on-disk folders so items deleted
// from disk are still visited and reconciled away.
func (s *Store) GetMovieDirectories() (map[int64][]string, error) {
	rows, err := s.db.Query("SELECT source_id, folder_path FROM movies ORDER BY source_id")
	if err != nil {
		return nil, fmt.Errorf("failed to get movie directories: %w", err)
	}
	defer rows.Close()

	dirs := make(map[int64][]string)
	for rows.Next() {
		var sourceID int64
		var folderPath string
		if err := rows.Scan(&sourceID, &folderPath); err != nil {
			return nil, fmt.Errorf("failed to scan movie directory: %w", err)
		}
		dirs[sourceID] = append(dirs[sourceID], folderPath)
	}
	return dirs, rows.Err()
}

// ItemDirectories returns cataloged folder paths for one media type grouped
// by source id. The storage layer owns the media-type-to-table mapping; a
// media type with no catalog table yet has no directories.
func (s *Store) ItemDirectories(mediaType string) (map[int64][]string, error) {
	switch mediaType {
	case MediaTypeMovie:
		return s.GetMovieDirectories()
	default:
		return map[int64][]string{}, nil
	}
}

// ForEachMovie streams every catalog row to fn, stopping on the first error.
// Used by the search index rebuild so the whole catalog never has to sit in
// memory at once.
func (s *Store) ForEachMovie(fn func(*Movie) error) error {
	rows, err := s.db.Query("SELECT" + movieColumns + " FROM movies ORDER BY id")
	if err != nil {
		return fmt.Errorf("failed to stream movies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return fmt.Errorf("failed to scan movie: %w", err)
		}
		if err := fn(m); err != nil {
			return err
		}
	}
	return rows.Err()
}

// CountMovies returns the number of catalog rows
func (s *Store) CountMovies() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM movies").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count movies: %w", err)
	}
	return count, nil
}

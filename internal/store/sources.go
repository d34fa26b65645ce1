package store

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/franz/media-librarian/internal/pathing"
	"github.com/franz/media-librarian/internal/util"
)

// Media types recognized by the catalog
const (
	MediaTypeMovie = "movie"
	MediaTypeShow  = "show"
)

// Source is a configured root folder scanned for items of one media type
type Source struct {
	ID         int64
	FolderPath string
	MediaType  string
}

// AddSource registers a new source. The folder path must be absolute and
// unique across all sources.
func (s *Store) AddSource(folderPath, mediaType string) (*Source, error) {
	if !filepath.IsAbs(folderPath) {
		return nil, fmt.Errorf("%w: source folder path must be absolute: %s",
			util.ErrInvalidConfig, folderPath)
	}
	if mediaType != MediaTypeMovie && mediaType != MediaTypeShow {
		return nil, fmt.Errorf("%w: unknown media type: %s",
			util.ErrInvalidConfig, mediaType)
	}

	folderPath = pathing.NormalizePath(folderPath, false)

	result, err := s.db.Exec(
		"INSERT INTO sources (folder_path, media_type) VALUES (?, ?)",
		folderPath, mediaType,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert source: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get source id: %w", err)
	}

	return &Source{ID: id, FolderPath: folderPath, MediaType: mediaType}, nil
}

// GetSource retrieves a source by id
func (s *Store) GetSource(id int64) (*Source, error) {
	src := &Source{}
	err := s.db.QueryRow(
		"SELECT id, folder_path, media_type FROM sources WHERE id = ?", id,
	).Scan(&src.ID, &src.FolderPath, &src.MediaType)
	if err == sql.ErrNoRows {
		return nil, util.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}
	return src, nil
}

// ListSources returns all configured sources, optionally filtered by media
// type (empty string returns everything)
func (s *Store) ListSources(mediaType string) ([]*Source, error) {
	query := "SELECT id, folder_path, media_type FROM sources"
	args := []any{}
	if mediaType != "" {
		query += " WHERE media_type = ?"
		args = append(args, mediaType)
	}
	query += " ORDER BY id"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []*Source
	for rows.Next() {
		src := &Source{}
		if err := rows.Scan(&src.ID, &src.FolderPath, &src.MediaType); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// UpdateSource changes a source's folder path
func (s *Store) UpdateSource(id int64, folderPath string) error {
	if !filepath.IsAbs(folderPath) {
		return fmt.Errorf("%w: source folder path must be absolute: %s",
			util.ErrInvalidConfig, folderPath)
	}
	folderPath = pathing.NormalizePath(folderPath, false)

	result, err := s.db.Exec(
		"UPDATE sources SET folder_path = ? WHERE id = ?", folderPath, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update source: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return util.ErrNotFound
	}
	return nil
}

// RemoveSource deletes a source. Catalog rows pointing at it are reconciled
// away on the next generation run.
func (s *Store) RemoveSource(id int64) error {
	result, err := s.db.Exec("DELETE FROM sources WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to remove source: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return util.ErrNotFound
	}
	return nil
}

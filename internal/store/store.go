package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver
)

const (
	currentSchemaVersion = 1
)

// Store is the persistent catalog: configured sources, library items and
// the shared media-item id sequence.
type Store struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at the given path
func Open(path string) (*Store, error) {
	// Open with pragmas for performance and reliability
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_timeout=5000&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for custom queries
func (s *Store) DB() *sql.DB {
	return s.db
}

// migrate applies database migrations
func (s *Store) migrate() error {
	version, err := s.getSchemaVersion()
	if err != nil {
		return err
	}

	if version >= currentSchemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}
	defer tx.Rollback()

	if version < 1 {
		if _, err := tx.Exec(schemaV1); err != nil {
			return fmt.Errorf("failed to apply schema v1: %w", err)
		}
	}

	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO schema_version (version) VALUES (?)",
		currentSchemaVersion,
	); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	return tx.Commit()
}

// getSchemaVersion returns the current schema version, 0 for a fresh database
func (s *Store) getSchemaVersion() (int, error) {
	var exists int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type = 'table' AND name = 'schema_version'
	`).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to check schema_version table: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}

	var version int
	err = s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// AllocateMediaID allocates the next id from the shared media-item sequence.
// All media types draw from the same sequence so ids are unique across types.
func (s *Store) AllocateMediaID(mediaType string) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO media_ids (media_type) VALUES (?)", mediaType,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate media id: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read allocated media id: %w", err)
	}
	return id, nil
}

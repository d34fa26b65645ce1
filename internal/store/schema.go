package store

// Schema v1 - initial catalog schema
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Configured library sources (root folder + media type)
CREATE TABLE IF NOT EXISTS sources (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  folder_path TEXT UNIQUE NOT NULL,
  media_type TEXT NOT NULL,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Shared media-item id sequence: every media type allocates from here so
-- ids are unique across the whole library
CREATE TABLE IF NOT EXISTS media_ids (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  media_type TEXT NOT NULL,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Movie catalog rows, keyed naturally by folder_path
CREATE TABLE IF NOT EXISTS movies (
  id INTEGER PRIMARY KEY,
  folder_path TEXT UNIQUE NOT NULL,
  video_path TEXT,
  title TEXT,
  sort_title TEXT,
  summary TEXT,
  rating TEXT,
  release_year INTEGER,
  runtime_seconds INTEGER,
  tmdb_id INTEGER,
  source_id INTEGER NOT NULL REFERENCES sources(id),
  poster_count INTEGER NOT NULL DEFAULT 0,
  backdrop_count INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_movies_folder_path ON movies(folder_path);
CREATE INDEX IF NOT EXISTS idx_movies_source_id ON movies(source_id);
`

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"tubevault/internal/model"
	"tubevault/pkg/logger"

	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when an artifact or collection does not exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when creating a collection that exists
	ErrAlreadyExists = errors.New("already exists")
)

// Store persists download history and collections in SQLite and keeps the
// on-disk layout in sync: unassigned artifacts live directly under the
// library root, collection members under a subdirectory named after the
// collection. An artifact belongs to at most one collection.
type Store struct {
	db      *sql.DB
	rootDir string
}

// Open initializes the library database and directory layout
func Open(cfg *model.LibraryConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.RootDir, 0755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}
	if err := os.MkdirAll(cfg.TempDir, 0755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	dbPath := filepath.Join(cfg.RootDir, "library.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open library db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, rootDir: cfg.RootDir}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// migrate creates the schema; safe to run on every open
func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS downloads (
			id            TEXT PRIMARY KEY,
			video_id      TEXT NOT NULL,
			filename      TEXT NOT NULL UNIQUE,
			title         TEXT NOT NULL,
			thumbnail     TEXT NOT NULL DEFAULT '',
			size          INTEGER NOT NULL DEFAULT 0,
			collection    TEXT,
			downloaded_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS collections (
			name       TEXT PRIMARY KEY,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_downloads_collection ON downloads(collection)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate library db: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database connection
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RootDir returns the library root directory
func (s *Store) RootDir() string {
	return s.rootDir
}

// artifactPath resolves where an artifact lives on disk
func (s *Store) artifactPath(collection, filename string) string {
	if collection == "" {
		return filepath.Join(s.rootDir, filename)
	}
	return filepath.Join(s.rootDir, collection, filename)
}

// RecordDownload appends a history record. Redownloads are not deduplicated
// by video identifier; each completed job gets its own row.
func (s *Store) RecordDownload(ctx context.Context, a *model.Artifact) error {
	if a.DownloadedAt.IsZero() {
		a.DownloadedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO downloads (id, video_id, filename, title, thumbnail, size, collection, downloaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.VideoID, a.Filename, a.Title, a.Thumbnail, a.Size,
		nullableString(a.Collection), a.DownloadedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record download: %w", err)
	}

	logger.LogInfo("Download recorded",
		zap.String("id", a.ID),
		zap.String("filename", a.Filename),
		zap.Int64("size", a.Size))
	return nil
}

// ListDownloads returns every artifact, newest first
func (s *Store) ListDownloads(ctx context.Context) ([]model.Artifact, error) {
	return s.queryArtifacts(ctx,
		`SELECT id, video_id, filename, title, thumbnail, size, collection, downloaded_at
		 FROM downloads ORDER BY downloaded_at DESC`)
}

// ClearHistory deletes every artifact file and empties the download records.
// Collections remain as empty containers.
func (s *Store) ClearHistory(ctx context.Context) error {
	artifacts, err := s.ListDownloads(ctx)
	if err != nil {
		return err
	}

	for _, a := range artifacts {
		path := s.artifactPath(a.Collection, a.Filename)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.LogWarn("Failed to remove artifact file",
				zap.String("path", path), zap.Error(err))
		}
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM downloads`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}

	logger.LogInfo("History cleared", zap.Int("removed", len(artifacts)))
	return nil
}

// CreateCollection creates a named collection and its directory
func (s *Store) CreateCollection(ctx context.Context, name string) error {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM collections WHERE name = ?`, name).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists > 0 {
		return ErrAlreadyExists
	}

	dir := filepath.Join(s.rootDir, name)
	if _, err := os.Stat(dir); err == nil {
		return ErrAlreadyExists
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create collection dir: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO collections (name, created_at) VALUES (?, ?)`,
		name, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	logger.LogInfo("Collection created", zap.String("name", name))
	return nil
}

// DeleteCollection returns member artifacts to the unassigned pool, then
// removes the collection and its directory. The artifacts themselves are
// kept.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if err := s.requireCollection(ctx, name); err != nil {
		return err
	}

	members, err := s.queryArtifacts(ctx,
		`SELECT id, video_id, filename, title, thumbnail, size, collection, downloaded_at
		 FROM downloads WHERE collection = ?`, name)
	if err != nil {
		return err
	}

	for _, a := range members {
		src := s.artifactPath(name, a.Filename)
		dst := s.artifactPath("", a.Filename)
		if err := os.Rename(src, dst); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("return %q to pool: %w", a.Filename, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete collection: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE downloads SET collection = NULL WHERE collection = ?`, name); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("unassign members: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM collections WHERE name = ?`, name); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete collection: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete collection: %w", err)
	}

	if err := os.Remove(filepath.Join(s.rootDir, name)); err != nil && !os.IsNotExist(err) {
		logger.LogWarn("Failed to remove collection dir",
			zap.String("name", name), zap.Error(err))
	}

	logger.LogInfo("Collection deleted",
		zap.String("name", name), zap.Int("members_returned", len(members)))
	return nil
}

// MoveToCollection relocates an artifact into a collection, leaving any
// prior collection first (move semantics, never copy). An artifact present
// on disk but missing from the records is adopted with the supplied
// metadata.
func (s *Store) MoveToCollection(ctx context.Context, name string, req *model.MoveVideoRequest) error {
	if err := s.requireCollection(ctx, name); err != nil {
		return err
	}

	a, err := s.findByFilename(ctx, req.Filename)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	if a == nil {
		// Not recorded yet; the file must at least exist in the pool.
		src := s.artifactPath("", req.Filename)
		info, statErr := os.Stat(src)
		if statErr != nil {
			return ErrNotFound
		}
		adopted := &model.Artifact{
			ID:         req.Filename,
			VideoID:    req.VideoID,
			Filename:   req.Filename,
			Title:      req.Title,
			Thumbnail:  req.Thumbnail,
			Size:       info.Size(),
			Collection: name,
		}
		if err := os.Rename(src, s.artifactPath(name, req.Filename)); err != nil {
			return fmt.Errorf("move %q: %w", req.Filename, err)
		}
		return s.RecordDownload(ctx, adopted)
	}

	if a.Collection == name {
		return nil
	}

	src := s.artifactPath(a.Collection, a.Filename)
	if _, err := os.Stat(src); err != nil {
		return ErrNotFound
	}
	if err := os.Rename(src, s.artifactPath(name, a.Filename)); err != nil {
		return fmt.Errorf("move %q: %w", a.Filename, err)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE downloads SET collection = ? WHERE id = ?`, name, a.ID); err != nil {
		return fmt.Errorf("update collection membership: %w", err)
	}

	logger.LogInfo("Artifact moved to collection",
		zap.String("filename", a.Filename), zap.String("collection", name))
	return nil
}

// RemoveFromCollection returns a member artifact to the unassigned pool
func (s *Store) RemoveFromCollection(ctx context.Context, name, filename string) error {
	if err := s.requireCollection(ctx, name); err != nil {
		return err
	}

	a, err := s.findByFilename(ctx, filename)
	if err != nil {
		return err
	}
	if a.Collection != name {
		return ErrNotFound
	}

	src := s.artifactPath(name, filename)
	if _, err := os.Stat(src); err != nil {
		return ErrNotFound
	}
	if err := os.Rename(src, s.artifactPath("", filename)); err != nil {
		return fmt.Errorf("move %q out of %q: %w", filename, name, err)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE downloads SET collection = NULL WHERE id = ?`, a.ID); err != nil {
		return fmt.Errorf("update collection membership: %w", err)
	}

	logger.LogInfo("Artifact returned to pool",
		zap.String("filename", filename), zap.String("collection", name))
	return nil
}

// ListCollection returns a collection's member artifacts, newest first
func (s *Store) ListCollection(ctx context.Context, name string) ([]model.Artifact, error) {
	if err := s.requireCollection(ctx, name); err != nil {
		return nil, err
	}
	return s.queryArtifacts(ctx,
		`SELECT id, video_id, filename, title, thumbnail, size, collection, downloaded_at
		 FROM downloads WHERE collection = ? ORDER BY downloaded_at DESC`, name)
}

// ListCollections returns all collection names in creation order
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM collections ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// TotalSize returns the recorded size of all artifacts in bytes
func (s *Store) TotalSize(ctx context.Context) (int64, error) {
	var total sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT SUM(size) FROM downloads`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum artifact sizes: %w", err)
	}
	return total.Int64, nil
}

func (s *Store) requireCollection(ctx context.Context, name string) error {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM collections WHERE name = ?`, name).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) findByFilename(ctx context.Context, filename string) (*model.Artifact, error) {
	artifacts, err := s.queryArtifacts(ctx,
		`SELECT id, video_id, filename, title, thumbnail, size, collection, downloaded_at
		 FROM downloads WHERE filename = ?`, filename)
	if err != nil {
		return nil, err
	}
	if len(artifacts) == 0 {
		return nil, ErrNotFound
	}
	return &artifacts[0], nil
}

func (s *Store) queryArtifacts(ctx context.Context, query string, args ...interface{}) ([]model.Artifact, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []model.Artifact
	for rows.Next() {
		var (
			a          model.Artifact
			collection sql.NullString
			downloaded string
		)
		if err := rows.Scan(&a.ID, &a.VideoID, &a.Filename, &a.Title,
			&a.Thumbnail, &a.Size, &collection, &downloaded); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		a.Collection = collection.String
		if ts, parseErr := time.Parse(time.RFC3339Nano, downloaded); parseErr == nil {
			a.DownloadedAt = ts
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Source types.
const (
	SourceLocal = "local"
	SourceGit   = "git"
)

// Source represents a card source, either a local path or a Git URL.
type Source struct {
	ID          int64        `db:"id" json:"id"`
	Path        string       `db:"path" json:"path"`
	Type        string       `db:"type" json:"type"`
	LastScanned sql.NullTime `db:"last_scanned" json:"-"`
}

// InsertSource inserts a new source path into the database and returns its ID.
func (db *DB) InsertSource(ctx context.Context, path, sourceType string) (int64, error) {
	var id int64
	err := db.conn.QueryRowxContext(ctx, db.conn.Rebind(`
		INSERT INTO sources (path, type, last_scanned)
		VALUES (?, ?, ?)
		RETURNING id
	`), path, sourceType, nil).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source from the database by its path.
func (db *DB) FindSourceByPath(ctx context.Context, path string) (*Source, error) {
	var s Source
	err := db.conn.GetContext(ctx, &s, db.conn.Rebind(`
		SELECT id, path, type, last_scanned
		FROM sources WHERE path = ?
	`), path)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Source not found
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

// GetAllSources retrieves all stored sources from the database.
func (db *DB) GetAllSources(ctx context.Context) ([]Source, error) {
	var sources []Source
	if err := db.conn.SelectContext(ctx, &sources, `
		SELECT id, path, type, last_scanned
		FROM sources ORDER BY id
	`); err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	return sources, nil
}

// UpdateSourceLastScanned updates the last_scanned timestamp for a source.
func (db *DB) UpdateSourceLastScanned(ctx context.Context, sourceID int64, at time.Time) error {
	_, err := db.conn.ExecContext(ctx, db.conn.Rebind(`
		UPDATE sources
		SET last_scanned = ?
		WHERE id = ?
	`), ts(at), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	return nil
}

// DeleteSource removes a source and every card imported from it.
func (db *DB) DeleteSource(ctx context.Context, sourceID int64) (bool, error) {
	res, err := db.conn.ExecContext(ctx, db.conn.Rebind(`DELETE FROM sources WHERE id = ?`), sourceID)
	if err != nil {
		return false, fmt.Errorf("failed to delete source ID %d: %w", sourceID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete source ID %d: %w", sourceID, err)
	}
	return n > 0, nil
}

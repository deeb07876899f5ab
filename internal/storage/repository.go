// Package storage persists local client state (interface preferences and the
// export log) in SQLite. Finance data itself lives behind the backend API.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"finagent/internal/log"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := migrateSchema(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	r := &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  log.OrDiscard(logger).WithComponent(log.ComponentStorage),
	}
	r.logger.Debug("Preferences schema ready", "path", dbPath, "schema_version", version)
	return r, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping is used by the readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// GetPreference implements locale.Preferences.
func (r *SQLiteRepository) GetPreference(ctx context.Context, key string) (string, bool, error) {
	pref, err := r.queries.GetPreference(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get preference %s: %w", key, err)
	}
	return pref.Value, true, nil
}

// SetPreference implements locale.Preferences.
func (r *SQLiteRepository) SetPreference(ctx context.Context, key, value string) error {
	if err := r.queries.UpsertPreference(ctx, UpsertPreferenceParams{Key: key, Value: value}); err != nil {
		return fmt.Errorf("set preference %s: %w", key, err)
	}
	r.logger.DebugContext(ctx, "Preference saved", log.FieldKey, key)
	return nil
}

// Preferences returns every stored key/value pair.
func (r *SQLiteRepository) Preferences(ctx context.Context) (map[string]string, error) {
	prefs, err := r.queries.ListPreferences(ctx)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	out := make(map[string]string, len(prefs))
	for _, p := range prefs {
		out[p.Key] = p.Value
	}
	return out, nil
}

// ExportRecord is one completed transaction export.
type ExportRecord struct {
	ID          int64
	UserID      int
	Rows        int
	Destination string
	CreatedAt   time.Time
}

// RecordExport appends an entry to the export log.
func (r *SQLiteRepository) RecordExport(ctx context.Context, userID, rows int, destination string) (ExportRecord, error) {
	e, err := r.queries.CreateExport(ctx, CreateExportParams{
		UserID:      int64(userID),
		Rows:        int64(rows),
		Destination: destination,
	})
	if err != nil {
		return ExportRecord{}, fmt.Errorf("record export: %w", err)
	}

	r.logger.InfoContext(ctx, "Export recorded",
		log.FieldUserID, userID,
		"rows", rows,
		"destination", destination)

	return toExportRecord(e), nil
}

// LastExport returns the most recent export for userID.
func (r *SQLiteRepository) LastExport(ctx context.Context, userID int) (ExportRecord, bool, error) {
	e, err := r.queries.LastExport(ctx, int64(userID))
	if errors.Is(err, sql.ErrNoRows) {
		return ExportRecord{}, false, nil
	}
	if err != nil {
		return ExportRecord{}, false, fmt.Errorf("last export: %w", err)
	}
	return toExportRecord(e), true, nil
}

func toExportRecord(e Export) ExportRecord {
	return ExportRecord{
		ID:          e.ID,
		UserID:      int(e.UserID),
		Rows:        int(e.Rows),
		Destination: e.Destination,
		CreatedAt:   e.CreatedAt,
	}
}

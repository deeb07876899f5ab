package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type Preference struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

type Export struct {
	ID          int64
	UserID      int64
	Rows        int64
	Destination string
	CreatedAt   time.Time
}

const getPreference = `-- name: GetPreference :one
SELECT key, value, updated_at FROM preferences WHERE key = ?
`

func (q *Queries) GetPreference(ctx context.Context, key string) (Preference, error) {
	row := q.db.QueryRowContext(ctx, getPreference, key)
	var i Preference
	err := row.Scan(&i.Key, &i.Value, &i.UpdatedAt)
	return i, err
}

const upsertPreference = `-- name: UpsertPreference :exec
INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
`

type UpsertPreferenceParams struct {
	Key   string
	Value string
}

func (q *Queries) UpsertPreference(ctx context.Context, arg UpsertPreferenceParams) error {
	_, err := q.db.ExecContext(ctx, upsertPreference, arg.Key, arg.Value)
	return err
}

const listPreferences = `-- name: ListPreferences :many
SELECT key, value, updated_at FROM preferences ORDER BY key
`

func (q *Queries) ListPreferences(ctx context.Context) ([]Preference, error) {
	rows, err := q.db.QueryContext(ctx, listPreferences)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Preference
	for rows.Next() {
		var i Preference
		if err := rows.Scan(&i.Key, &i.Value, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createExport = `-- name: CreateExport :one
INSERT INTO exports (user_id, row_count, destination) VALUES (?, ?, ?)
RETURNING id, user_id, row_count, destination, created_at
`

type CreateExportParams struct {
	UserID      int64
	Rows        int64
	Destination string
}

func (q *Queries) CreateExport(ctx context.Context, arg CreateExportParams) (Export, error) {
	row := q.db.QueryRowContext(ctx, createExport, arg.UserID, arg.Rows, arg.Destination)
	var i Export
	err := row.Scan(&i.ID, &i.UserID, &i.Rows, &i.Destination, &i.CreatedAt)
	return i, err
}

const lastExport = `-- name: LastExport :one
SELECT id, user_id, row_count, destination, created_at FROM exports
WHERE user_id = ? ORDER BY id DESC LIMIT 1
`

func (q *Queries) LastExport(ctx context.Context, userID int64) (Export, error) {
	row := q.db.QueryRowContext(ctx, lastExport, userID)
	var i Export
	err := row.Scan(&i.ID, &i.UserID, &i.Rows, &i.Destination, &i.CreatedAt)
	return i, err
}

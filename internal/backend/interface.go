package backend

import (
	"context"

	"finagent/internal/locale"
)

// Preferences is the local key/value store behind the locale preference.
type Preferences interface {
	locale.Preferences
	Ping(ctx context.Context) error
}

// CleanupFunc releases whatever the backend opened.
type CleanupFunc func() error

// BackendResult is what a factory hands back to the commands.
type BackendResult struct {
	Preferences Preferences
	// Exports is nil for backends that do not keep an export log.
	Exports ExportLog
	Cleanup CleanupFunc
}

// Factory opens the preference backend named by Config.Type.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

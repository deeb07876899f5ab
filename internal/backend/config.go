package backend

import (
	"errors"
	"fmt"

	"finagent/internal/config"
)

// FromAppConfig picks the preference backend settings out of the app config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.PrefsBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.PrefsBackend)
	}

	return Config{
		Type:         backendType,
		SQLiteDBPath: appConfig.PrefsDBPath,
	}, nil
}

// Validate reports a missing database path for the sqlite backend.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return errors.New("SQLite database path is required for sqlite backend")
	}

	return nil
}

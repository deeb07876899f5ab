package main

import (
	"context"
	"os"
	"path/filepath"

	"finagent/internal/api"
	"finagent/internal/backend"
	"finagent/internal/cli"
	"finagent/internal/config"
	"finagent/internal/dashboard"
	"finagent/internal/locale"
	"finagent/internal/log"
)

// app holds what every subcommand needs: configuration, logging, the
// preference backend, the API client and the locale store.
type app struct {
	cfg      *config.Config
	logger   *log.Logger
	prefs    *backend.BackendResult
	client   *api.Client
	locale   *locale.Store
	document *locale.Document
	users    *dashboard.Directory

	closeLog func() error
}

// setup initializes the shared services. Terminal commands log to a file so
// records never land on the screen.
func setup(ctx context.Context, terminal bool) (*app, error) {
	cli.LoadEnvFile()

	level := logLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	file := logFile
	if file == "" {
		file = os.Getenv("LOG_FILE")
	}
	if terminal && file == "" {
		file = filepath.Join(os.TempDir(), "finagent-chat.log")
	}

	logger, closeLog, err := cli.SetupLogger(level, file)
	if err != nil {
		return nil, err
	}
	a := &app{logger: logger, closeLog: closeLog}

	if a.cfg, err = cli.LoadAndValidateConfig(logger); err != nil {
		a.close()
		return nil, err
	}
	if a.prefs, err = cli.InitPreferences(ctx, a.cfg, logger); err != nil {
		a.close()
		return nil, err
	}
	if a.client, err = cli.NewAPIClient(a.cfg, logger); err != nil {
		a.close()
		return nil, err
	}

	defaultTag, err := locale.ParseTag(a.cfg.DefaultLocale)
	if err != nil {
		a.close()
		return nil, err
	}
	a.document = locale.NewDocument()
	a.locale, err = locale.NewStore(locale.Options{
		Preferences: a.prefs.Preferences,
		Reflector:   a.document,
		Default:     defaultTag,
		Logger:      logger,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	if err := a.locale.Load(ctx); err != nil {
		// Keep the default language.
		logger.WarnContext(ctx, "Failed to load locale preference", log.FieldError, err)
	}

	a.users = dashboard.NewDirectory(a.client, a.cfg.UsersCacheTTL, a.cfg.DefaultUserID,
		func() string { return a.locale.Translate("users.default") }, logger)
	return a, nil
}

func (a *app) close() {
	if a.prefs != nil && a.prefs.Cleanup != nil {
		if err := a.prefs.Cleanup(); err != nil {
			a.logger.Warn("Failed to close preferences backend", log.FieldError, err)
		}
	}
	if a.closeLog != nil {
		_ = a.closeLog()
	}
}

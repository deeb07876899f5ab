package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"finagent/internal/amqp"
	"finagent/internal/cache"
	"finagent/internal/chat"
	"finagent/internal/cli"
	"finagent/internal/dashboard"
	apphttp "finagent/internal/http"
	"finagent/internal/log"
	"finagent/internal/services"
	"finagent/internal/sheets"
	"finagent/internal/sheets/google"
	"finagent/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web dashboard and chat widget",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.close()
	cfg, logger := a.cfg, a.logger

	registry := dashboard.NewRegistry(a.client, dashboard.Options{
		Timeout: cfg.DashboardTimeout,
		Logger:  logger,
	}, 200, 30*time.Minute)

	// origin tags the events this process publishes so its own worker skips
	// them.
	origin := uuid.NewString()

	var (
		publisher  services.Publisher
		amqpClient *amqp.Client
	)
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return fmt.Errorf("connect to AMQP: %w", err)
		}
		publisher = amqpClient
	}
	notifier := services.NewMutationNotifier(publisher, registry, origin, cfg.DashboardTimeout, logger)

	var exporter sheets.TransactionExporter
	if cfg.ExportEnabled() {
		g, err := google.New(cmd.Context(), google.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
			Logger:          logger,
		})
		if err != nil {
			return fmt.Errorf("initialize Google Sheets exporter: %w", err)
		}
		exporter = g
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Chat:               a.client,
		Dashboards:         registry,
		Users:              a.users,
		Locale:             a.locale,
		Document:           a.document,
		Prefs:              a.prefs.Preferences,
		Export:             services.NewExportService(a.client, exporter, a.prefs.Exports, logger),
		Refresher:          notifier.Refresher(),
		Caches:             cache.NewManager(logger),
		Logger:             logger,
		DefaultUserID:      cfg.DefaultUserID,
		DefaultMode:        chat.Mode(cfg.ChatMode),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		notifier.Wait()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("Failed to close AMQP client", log.FieldError, err)
			}
		}
	})
	srv.StartBackground(ctx)

	if amqpClient != nil {
		w := worker.NewRefreshWorker(amqpClient, registry, origin, logger)
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Error("Refresh worker stopped", log.FieldError, err)
			}
		}()
	}

	logger.Info("Starting finagent server",
		"port", cfg.Port,
		"api_url", a.client.BaseURL(),
		"prefs_backend", cfg.PrefsBackend,
		"locale", a.locale.Locale(),
		"amqp", amqpClient != nil,
		"export", exporter != nil,
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		return err
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
	return nil
}

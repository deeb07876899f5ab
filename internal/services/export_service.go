package services

import (
	"context"
	"errors"
	"fmt"

	"finagent/internal/backend"
	"finagent/internal/core"
	"finagent/internal/log"
	"finagent/internal/sheets"
	"finagent/internal/storage"
)

// ErrExportDisabled is returned when no spreadsheet is configured.
var ErrExportDisabled = errors.New("export is not configured")

// TransactionSource fetches the full history of a user.
type TransactionSource interface {
	Transactions(ctx context.Context, userID int) ([]core.Transaction, error)
}

// ExportResult describes one completed export.
type ExportResult struct {
	Rows   int
	Range  string
	Record storage.ExportRecord
}

// ExportService copies the transactions of a user to a spreadsheet and keeps
// a local log of exports.
type ExportService struct {
	source   TransactionSource
	exporter sheets.TransactionExporter
	log      backend.ExportLog
	logger   *log.Logger
}

// NewExportService creates the service. exporter nil disables exports;
// exportLog may be nil when the preference backend keeps no log.
func NewExportService(source TransactionSource, exporter sheets.TransactionExporter, exportLog backend.ExportLog, logger *log.Logger) *ExportService {
	return &ExportService{
		source:   source,
		exporter: exporter,
		log:      exportLog,
		logger:   log.OrDiscard(logger).WithComponent(log.ComponentSheets),
	}
}

// Enabled reports whether an exporter is configured.
func (s *ExportService) Enabled() bool {
	return s != nil && s.exporter != nil
}

// Export fetches every transaction of userID and appends them to the sheet.
func (s *ExportService) Export(ctx context.Context, userID int) (ExportResult, error) {
	if !s.Enabled() {
		return ExportResult{}, ErrExportDisabled
	}

	txs, err := s.source.Transactions(ctx, userID)
	if err != nil {
		return ExportResult{}, fmt.Errorf("fetch transactions: %w", err)
	}

	ref, err := s.exporter.AppendTransactions(ctx, userID, txs)
	if err != nil {
		return ExportResult{}, fmt.Errorf("export transactions: %w", err)
	}

	result := ExportResult{Rows: len(txs), Range: ref}
	if s.log != nil {
		rec, err := s.log.RecordExport(ctx, userID, len(txs), ref)
		if err != nil {
			// The rows are already in the sheet.
			s.logger.WarnContext(ctx, "Failed to record export",
				log.FieldUserID, userID,
				log.FieldError, err)
		} else {
			result.Record = rec
		}
	}

	s.logger.InfoContext(ctx, "Export completed",
		log.FieldUserID, userID,
		log.FieldOperation, log.OpExport,
		"rows", result.Rows,
		"range", ref)
	return result, nil
}

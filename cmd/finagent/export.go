package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"finagent/internal/services"
	"finagent/internal/sheets"
	"finagent/internal/sheets/google"
	"finagent/internal/sheets/memory"
)

var (
	exportUserID int
	exportDryRun bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Append the transactions of a user to the Google spreadsheet",
	Long: `Appends every transaction of the user to GOOGLE_SPREADSHEET_ID.

With --dry-run the rows are built in memory and counted, nothing is written.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().IntVar(&exportUserID, "user", 0, "User id (default DEFAULT_USER_ID)")
	exportCmd.Flags().BoolVar(&exportDryRun, "dry-run", false, "Build the rows without writing them")
}

func runExport(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.close()

	userID := a.cfg.DefaultUserID
	if exportUserID > 0 {
		userID = exportUserID
	}

	var (
		exporter sheets.TransactionExporter
		dry      *memory.Store
	)
	switch {
	case exportDryRun:
		dry = memory.New()
		exporter = dry
	case a.cfg.ExportEnabled():
		g, err := google.New(cmd.Context(), google.Config{
			SpreadsheetID:   a.cfg.GoogleSpreadsheetID,
			SheetName:       a.cfg.GoogleSheetName,
			CredentialsJSON: a.cfg.GoogleServiceAccountJSON,
			CredentialsFile: a.cfg.GoogleServiceAccountFile,
			Logger:          a.logger,
		})
		if err != nil {
			return err
		}
		exporter = g
	}

	exportLog := a.prefs.Exports
	if dry != nil {
		exportLog = nil
	}
	svc := services.NewExportService(a.client, exporter, exportLog, a.logger)

	result, err := svc.Export(cmd.Context(), userID)
	switch {
	case errors.Is(err, services.ErrExportDisabled):
		return errors.New(a.locale.Translate("export.disabled"))
	case errors.Is(err, sheets.ErrNothingToExport):
		fmt.Fprintln(cmd.OutOrStdout(), a.locale.Translate("export.empty"))
		return nil
	case err != nil:
		return fmt.Errorf("%s: %w", a.locale.Translate("export.failed"), err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d) %s\n", a.locale.Translate("export.done"), result.Rows, result.Range)
	if dry != nil {
		for _, row := range dry.Rows() {
			fmt.Fprintln(cmd.OutOrStdout(), row...)
		}
	}
	return nil
}

// Command finagent serves the finance dashboard and chat assistant, and offers
// a terminal chat plus a few maintenance commands against the same backend.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	logLevel string
	logFile  string
)

var rootCmd = &cobra.Command{
	Use:   "finagent",
	Short: "Personal finance dashboard and chat assistant",
	Long: `finagent talks to the finance agent backend (API_URL).

  serve      web dashboard with the chat widget
  chat       terminal chat client
  users      list selectable users
  dashboard  print the dashboard of a user
  locale     read or change the interface language
  export     copy transactions to Google Sheets

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default LOG_LEVEL or info)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file (default LOG_FILE)")

	localeCmd.AddCommand(localeGetCmd)
	localeCmd.AddCommand(localeSetCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(localeCmd)
	rootCmd.AddCommand(exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

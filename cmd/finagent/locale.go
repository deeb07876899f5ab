package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"finagent/internal/locale"
)

var localeCmd = &cobra.Command{
	Use:   "locale",
	Short: "Read or change the interface language",
}

var localeGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the active language",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := setup(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.close()

		fmt.Fprintln(cmd.OutOrStdout(), a.locale.Locale())
		return nil
	},
}

var localeSetCmd = &cobra.Command{
	Use:       "set <pt|en>",
	Short:     "Persist the interface language",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(locale.PT), string(locale.EN)},
	RunE: func(cmd *cobra.Command, args []string) error {
		tag, err := locale.ParseTag(args[0])
		if err != nil {
			return err
		}

		a, err := setup(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.locale.SetLocale(cmd.Context(), tag); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), a.locale.Translate("locale.name"))
		return nil
	},
}

package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"finagent/internal/core"
	"finagent/internal/dashboard"
)

var dashboardUserID int

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List the selectable users",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := setup(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.close()

		t := newTable("ID", a.locale.Translate("users.label"))
		for _, u := range a.users.Users(cmd.Context()) {
			t.Row(strconv.Itoa(u.ID), u.Name)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	},
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Print the stats, goals and expense categories of a user",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := setup(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.close()

		userID := a.cfg.DefaultUserID
		if dashboardUserID > 0 {
			userID = dashboardUserID
		}

		loader := dashboard.NewLoader(a.client, dashboard.Options{Timeout: a.cfg.DashboardTimeout, Logger: a.logger})
		if err := loader.Load(cmd.Context(), userID, false); err != nil {
			return fmt.Errorf("load dashboard of user %d: %w", userID, err)
		}
		snap := loader.State().Snapshot
		tr := a.locale.Translate
		lang := a.locale.Locale().String()
		out := cmd.OutOrStdout()

		stats := newTable(tr("stats.balance"), tr("stats.profit"), tr("stats.reserve"), tr("stats.goals"), tr("stats.health"))
		stats.Row(snap.Stats.Balance, snap.Stats.Profit, snap.Stats.Reserve, snap.Stats.Goals, snap.Stats.Status)
		fmt.Fprintln(out, stats.Render())

		if len(snap.Goals) > 0 {
			goals := newTable(tr("goals.title"), "", "")
			for _, g := range snap.Goals {
				goals.Row(g.Name, core.FormatAmount(g.Current, lang)+" / "+core.FormatAmount(g.Target, lang), core.FormatPercent(g.Progress()))
			}
			fmt.Fprintln(out, goals.Render())
		}

		if len(snap.Categories) > 0 {
			cats := newTable(tr("categories.title"), "")
			for _, c := range snap.Categories {
				cats.Row(c.Name, core.FormatAmount(c.Value, lang))
			}
			fmt.Fprintln(out, cats.Render())
		}

		if len(snap.RecentTransactions) > 0 {
			recent := newTable(tr("transactions.recent"), "", "", "")
			for _, tx := range snap.RecentTransactions {
				recent.Row(tx.Date, tx.Description, tx.Category, core.FormatSigned(tx, lang))
			}
			fmt.Fprintln(out, recent.Render())
		}

		in, outflow := core.Totals(snap.Transactions)
		fmt.Fprintf(out, "%s: %s  %s: %s\n",
			tr("transactions.inflow"), core.FormatAmount(in, lang),
			tr("transactions.outflow"), core.FormatAmount(outflow, lang))
		return nil
	},
}

func init() {
	dashboardCmd.Flags().IntVar(&dashboardUserID, "user", 0, "User id (default DEFAULT_USER_ID)")
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers(headers...)
}

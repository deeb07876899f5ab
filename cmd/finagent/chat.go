package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"finagent/internal/amqp"
	"finagent/internal/chat"
	"finagent/internal/cli"
	"finagent/internal/services"
	"finagent/internal/tui"
)

var (
	chatUserID int
	chatMode   string
	chatStyle  string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the finance agent in the terminal",
	Long: `Opens the terminal chat. Type /help inside for the commands.

Logs go to LOG_FILE, or to finagent-chat.log in the temp directory.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().IntVar(&chatUserID, "user", 0, "User id (default DEFAULT_USER_ID)")
	chatCmd.Flags().StringVar(&chatMode, "mode", "", "Agent mode: assistant, analyst, educator, simulator (default CHAT_MODE)")
	chatCmd.Flags().StringVar(&chatStyle, "style", "dark", "Markdown style: dark, light, notty")
}

func runChat(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.close()

	userID := a.cfg.DefaultUserID
	if chatUserID > 0 {
		userID = chatUserID
	}
	modeName := a.cfg.ChatMode
	if chatMode != "" {
		modeName = chatMode
	}
	mode, err := chat.ParseMode(modeName)
	if err != nil {
		return err
	}

	// Web instances sharing the broker refresh their dashboards when the
	// terminal records something.
	var publisher services.Publisher
	if a.cfg.AMQPURL != "" {
		client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue, a.logger)
		if err != nil {
			return fmt.Errorf("connect to AMQP: %w", err)
		}
		defer client.Close()
		publisher = client
	}
	notifier := services.NewMutationNotifier(publisher, nil, "chat", a.cfg.DashboardTimeout, a.logger)
	defer notifier.Wait()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	shutdownCtx, _ := cli.GracefulShutdown(a.logger, 5*time.Second, nil)
	go func() {
		select {
		case <-shutdownCtx.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	return tui.Run(ctx, tui.Options{
		Backend:      a.client,
		Locale:       a.locale,
		Document:     a.document,
		Users:        a.users,
		Refresher:    notifier.Refresher(),
		UserID:       userID,
		Mode:         mode,
		Logger:       a.logger,
		GlamourStyle: chatStyle,
	})
}

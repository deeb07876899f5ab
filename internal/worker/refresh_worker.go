// Package worker consumes mutation events and keeps open dashboards fresh.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"finagent/internal/amqp"
	"finagent/internal/log"
)

// Consumer delivers mutation events until ctx is done.
type Consumer interface {
	Consume(ctx context.Context, handler amqp.Handler) error
}

// Reloader silently refreshes the dashboard of a user.
type Reloader interface {
	Reload(ctx context.Context, userID int) (bool, error)
}

// RefreshWorker reloads dashboards when another process reports a change.
type RefreshWorker struct {
	consumer Consumer
	reloader Reloader
	origin   string
	logger   *log.Logger
}

// NewRefreshWorker creates a worker. Events published with origin are
// skipped because this process already refreshed locally.
func NewRefreshWorker(consumer Consumer, reloader Reloader, origin string, logger *log.Logger) *RefreshWorker {
	return &RefreshWorker{
		consumer: consumer,
		reloader: reloader,
		origin:   origin,
		logger:   log.OrDiscard(logger).WithComponent(log.ComponentWorker),
	}
}

// Run blocks until ctx is cancelled or the consumer gives up.
func (w *RefreshWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Refresh worker started", "origin", w.origin)
	err := w.consumer.Consume(ctx, w.HandleMutation)
	if errors.Is(err, context.Canceled) {
		w.logger.InfoContext(ctx, "Refresh worker stopped")
		return nil
	}
	return err
}

// HandleMutation processes a single mutation event.
func (w *RefreshWorker) HandleMutation(ctx context.Context, ev *amqp.MutationEvent) error {
	if ev.Origin != "" && ev.Origin == w.origin {
		return nil
	}

	w.logger.InfoContext(ctx, "Processing mutation event",
		log.FieldUserID, ev.UserID,
		log.FieldEvent, strings.Join(ev.Events, ","),
		log.FieldOperation, log.OpConsume)

	open, err := w.reloader.Reload(ctx, ev.UserID)
	if err != nil {
		return fmt.Errorf("reload dashboard for user %d: %w", ev.UserID, err)
	}
	if open {
		w.logger.DebugContext(ctx, "Dashboard refreshed", log.FieldUserID, ev.UserID)
	}
	return nil
}

// Package services composes the chat, dashboard, messaging and export layers.
package services

import (
	"context"
	"sync"
	"time"

	"finagent/internal/amqp"
	"finagent/internal/chat"
	"finagent/internal/log"
)

// Publisher sends mutation events to other processes.
type Publisher interface {
	PublishMutation(ctx context.Context, ev *amqp.MutationEvent) error
}

// Reloader silently refreshes the dashboard of a user. It reports whether
// anything was open for that user.
type Reloader interface {
	Reload(ctx context.Context, userID int) (bool, error)
}

// MutationNotifier reacts to assistant answers that changed the user's data:
// it refreshes the local dashboard and tells other instances to do the same.
type MutationNotifier struct {
	publisher Publisher
	reloader  Reloader
	origin    string
	timeout   time.Duration
	logger    *log.Logger
	wg        sync.WaitGroup
}

// NewMutationNotifier creates a notifier. publisher may be nil when AMQP is
// not configured. origin tags published events so the local refresh worker
// can skip them.
func NewMutationNotifier(publisher Publisher, reloader Reloader, origin string, timeout time.Duration, logger *log.Logger) *MutationNotifier {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &MutationNotifier{
		publisher: publisher,
		reloader:  reloader,
		origin:    origin,
		timeout:   timeout,
		logger:    log.OrDiscard(logger).WithComponent(log.ComponentDashboard),
	}
}

// Refresher adapts the notifier to the chat controller. The work runs on its
// own goroutine so the chat round trip settles immediately.
func (n *MutationNotifier) Refresher() chat.Refresher {
	return func(userID int, events []chat.Event) {
		if len(events) == 0 {
			return
		}
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
			defer cancel()
			n.Notify(ctx, userID, events)
		}()
	}
}

// Notify reloads the dashboard of userID and publishes the events.
func (n *MutationNotifier) Notify(ctx context.Context, userID int, events []chat.Event) {
	names := make([]string, len(events))
	for i, ev := range events {
		names[i] = string(ev)
	}

	if n.reloader != nil {
		if _, err := n.reloader.Reload(ctx, userID); err != nil {
			n.logger.WarnContext(ctx, "Silent dashboard refresh failed",
				log.FieldUserID, userID,
				log.FieldOperation, log.OpRefresh,
				log.FieldError, err)
		}
	}

	if n.publisher == nil {
		return
	}
	if err := n.publisher.PublishMutation(ctx, amqp.NewMutationEvent(userID, names, n.origin)); err != nil {
		// Other instances refresh on their next load.
		n.logger.ErrorContext(ctx, "Failed to publish mutation event",
			log.FieldUserID, userID,
			log.FieldOperation, log.OpPublish,
			log.FieldError, err)
	}
}

// Wait blocks until background notifications finish.
func (n *MutationNotifier) Wait() {
	n.wg.Wait()
}

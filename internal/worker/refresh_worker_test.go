package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"finagent/internal/amqp"
)

type fakeReloader struct {
	users []int
	err   error
}

func (r *fakeReloader) Reload(_ context.Context, userID int) (bool, error) {
	r.users = append(r.users, userID)
	return true, r.err
}

// sliceConsumer hands a fixed list of events to the handler, then waits for
// cancellation like a real consumer would.
type sliceConsumer struct {
	events []*amqp.MutationEvent
	errs   []error
}

func (c *sliceConsumer) Consume(ctx context.Context, handler amqp.Handler) error {
	for _, ev := range c.events {
		c.errs = append(c.errs, handler(ctx, ev))
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestRefreshWorkerRun(t *testing.T) {
	consumer := &sliceConsumer{events: []*amqp.MutationEvent{
		{UserID: 1, Events: []string{"saved"}, Origin: "web-2"},
		{UserID: 2, Events: []string{"saved"}, Origin: "web-1"},
		{UserID: 3, Events: []string{"goal_updated"}},
	}}
	reloader := &fakeReloader{}
	w := NewRefreshWorker(consumer, reloader, "web-1", nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diff := cmp.Diff([]int{1, 3}, reloader.users); diff != "" {
		t.Errorf("reloaded users mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleMutationError(t *testing.T) {
	boom := errors.New("backend down")
	w := NewRefreshWorker(nil, &fakeReloader{err: boom}, "web-1", nil)

	err := w.HandleMutation(context.Background(), &amqp.MutationEvent{UserID: 4})
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
}

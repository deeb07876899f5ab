package tui

import (
	"sync"
	"time"

	"finagent/internal/chat"
)

// inbox collects notifications raised on controller goroutines until the
// next tick hands them to the model.
type inbox struct {
	mu      sync.Mutex
	pending []chat.Notification
}

func (b *inbox) Notify(n chat.Notification) {
	b.mu.Lock()
	b.pending = append(b.pending, n)
	b.mu.Unlock()
}

func (b *inbox) drain() []chat.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.pending
	b.pending = nil
	return out
}

// toast is the notification shown in the status line until it expires.
type toast struct {
	chat.Notification
	until time.Time
}

func toastDuration(l chat.Level) time.Duration {
	switch l {
	case chat.LevelError:
		return 5 * time.Second
	case chat.LevelWarning:
		return 4 * time.Second
	default:
		return 3 * time.Second
	}
}

// Package chat is the conversation controller shared by the web and terminal
// surfaces.
//
// A Controller owns the message log of one active user and the lifecycle of
// the single request that may be in flight. Failures never reach the caller:
// each one ends up as an assistant message plus a notification, so the log is
// the record of what happened.
package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"finagent/internal/api"
	"finagent/internal/core"
	"finagent/internal/log"
	"finagent/internal/normalize"
)

// Backend is the part of the API client the controller needs.
type Backend interface {
	History(ctx context.Context, userID int) ([]core.HistoryEntry, error)
	Chat(ctx context.Context, req api.ChatRequest) (api.ChatResponse, error)
}

// Config wires a Controller to its collaborators.
type Config struct {
	Backend    Backend
	Translator Translator
	Notifier   Notifier
	Refresher  Refresher
	UserID     int
	Mode       Mode
	Logger     *log.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// request is the cancellation token of one round trip. A completion may only
// touch session state while its request is still the active one.
type request struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Controller is safe for concurrent use.
type Controller struct {
	backend    Backend
	translator Translator
	notifier   Notifier
	refresher  Refresher
	logger     *log.Logger
	now        func() time.Time

	base     context.Context
	shutdown context.CancelFunc
	wg       sync.WaitGroup

	mu        sync.Mutex
	userID    int
	mode      Mode
	messages  []Message
	active    *request
	pending   *Attachment
	hydration uint64
	closed    bool

	handler atomic.Pointer[func(string) bool]
	trigger *Trigger
}

// New creates a controller with an empty log. Call Hydrate to load history.
func New(cfg Config) *Controller {
	if cfg.Mode == "" {
		cfg.Mode = ModeAssistant
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NotifierFunc(func(Notification) {})
	}

	base, shutdown := context.WithCancel(context.Background())
	c := &Controller{
		backend:    cfg.Backend,
		translator: cfg.Translator,
		notifier:   cfg.Notifier,
		refresher:  cfg.Refresher,
		logger:     log.OrDiscard(cfg.Logger).WithComponent(log.ComponentChat),
		now:        cfg.Now,
		base:       base,
		shutdown:   shutdown,
		userID:     cfg.UserID,
		mode:       cfg.Mode,
	}

	send := func(text string) bool {
		_, ok := c.send(text, false)
		return ok
	}
	c.handler.Store(&send)
	c.trigger = &Trigger{c: c}
	return c
}

// Hydrate replaces the log with the stored history of userID, which becomes
// the active user. An empty or failed fetch leaves a single welcome message.
func (c *Controller) Hydrate(ctx context.Context, userID int) {
	c.mu.Lock()
	c.userID = userID
	c.hydration++
	gen := c.hydration
	c.mu.Unlock()

	entries, err := c.backend.History(ctx, userID)
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to load chat history",
			log.FieldUserID, userID,
			log.FieldOperation, log.OpHydrate,
			log.FieldError, err)
		entries = nil
	}

	messages := c.historyMessages(entries)
	if len(messages) == 0 {
		messages = []Message{newMessage(RoleAssistant, c.translate("chat.welcome"), c.now())}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.hydration {
		// A newer hydration owns the log.
		return
	}
	c.messages = messages

	c.logger.DebugContext(ctx, "Chat history hydrated",
		log.FieldUserID, userID,
		"messages", len(messages))
}

// historyMessages converts backend entries keeping their order. Missing
// timestamps are synthesized in the past so that they strictly increase.
func (c *Controller) historyMessages(entries []core.HistoryEntry) []Message {
	if len(entries) == 0 {
		return nil
	}

	start := c.now().Add(-time.Duration(len(entries)) * time.Second)
	out := make([]Message, 0, len(entries))
	var prev time.Time
	for i, e := range entries {
		ts := e.Timestamp
		if ts.IsZero() {
			ts = start.Add(time.Duration(i) * time.Second)
		}
		if !prev.IsZero() && !ts.After(prev) {
			ts = prev.Add(time.Millisecond)
		}
		prev = ts
		out = append(out, newMessage(parseRole(e.Role), normalize.Resolve(e.Content), ts))
	}
	return out
}

// SwitchUser abandons any in-flight request without a stopped message, drops
// the staged file and loads the history of userID.
func (c *Controller) SwitchUser(ctx context.Context, userID int) {
	c.mu.Lock()
	if c.active != nil {
		c.active.cancel()
		c.active = nil
	}
	c.pending = nil
	c.messages = nil
	c.mu.Unlock()

	c.Hydrate(ctx, userID)
}

// Send submits text together with the staged attachment, if any. It returns
// immediately: accepted is false when there is nothing to send or a request is
// already in flight, otherwise done is closed once the round trip settles.
func (c *Controller) Send(text string) (done <-chan struct{}, accepted bool) {
	return c.send(text, true)
}

func (c *Controller) send(text string, withAttachment bool) (<-chan struct{}, bool) {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	var attachment *Attachment
	if withAttachment {
		attachment = c.pending
	}
	if c.closed || c.active != nil || (text == "" && attachment == nil) {
		c.mu.Unlock()
		return nil, false
	}

	content := text
	req := api.ChatRequest{UserID: c.userID, Message: text, Mode: string(c.mode)}
	if attachment != nil {
		content = annotate(text, attachment.Name)
		req.File = &api.File{
			Name:        attachment.Name,
			ContentType: attachment.ContentType,
			Data:        attachment.Data,
		}
	}
	c.messages = append(c.messages, newMessage(RoleUser, content, c.now()))

	ctx, cancel := context.WithCancel(c.base)
	r := &request{cancel: cancel, done: make(chan struct{})}
	c.active = r
	c.wg.Add(1)
	c.mu.Unlock()

	var fileName string
	if attachment != nil {
		fileName = attachment.Name
	}
	fields := log.NewFields().WithOperation(log.OpSend).WithChat(req.UserID, req.Mode, fileName)
	c.logger.Debug("Sending chat message", fields.ToSlice()...)

	go c.roundTrip(ctx, r, req, attachment)
	return r.done, true
}

func (c *Controller) roundTrip(ctx context.Context, r *request, req api.ChatRequest, attachment *Attachment) {
	defer c.wg.Done()
	defer close(r.done)
	defer r.cancel()

	resp, err := c.backend.Chat(ctx, req)

	c.mu.Lock()
	if c.active != r {
		// Cancelled, abandoned by a user switch, or the controller closed.
		c.mu.Unlock()
		return
	}
	c.active = nil

	if err != nil {
		if ctx.Err() != nil {
			c.mu.Unlock()
			return
		}
		c.messages = append(c.messages, newMessage(RoleAssistant, c.translate("chat.error"), c.now()))
		c.mu.Unlock()

		c.logger.Error("Chat request failed",
			log.FieldUserID, req.UserID,
			log.FieldOperation, log.OpSend,
			log.FieldError, err)
		c.notify(LevelError, "chat.toast.error")
		return
	}

	c.messages = append(c.messages, newMessage(RoleAssistant, resp.Text, c.now()))
	if attachment != nil && c.pending == attachment {
		c.pending = nil
	}
	c.mu.Unlock()

	events := DetectActions(resp.Text)
	for _, ev := range events {
		n := eventNotifications[ev]
		c.notify(n.Level, n.Key)
	}
	if len(events) > 0 {
		c.logger.Info("Assistant reported a data change",
			log.FieldUserID, req.UserID,
			log.FieldEvent, fmt.Sprint(events))
	}

	if c.refresher != nil {
		c.refresher(req.UserID, events)
	}
}

// Cancel abandons the in-flight request. It reports whether there was one.
// The backend may still finish the work; its answer is discarded.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	r := c.active
	if r == nil {
		c.mu.Unlock()
		return false
	}
	c.active = nil
	r.cancel()
	c.messages = append(c.messages, newMessage(RoleAssistant, c.translate("chat.stopped"), c.now()))
	c.mu.Unlock()

	c.logger.Info("Chat request cancelled", log.FieldOperation, log.OpCancel)
	c.notify(LevelInfo, "chat.toast.stopped")
	return true
}

// StageAttachment sets the file that goes with the next Send.
func (c *Controller) StageAttachment(a Attachment) error {
	if a.size() > MaxAttachmentBytes {
		c.logger.Warn("Attachment rejected",
			log.FieldAttachment, a.Name,
			log.FieldSizeBytes, a.size(),
			log.FieldOperation, log.OpAttach)
		c.notify(LevelWarning, "chat.attachment.too_large")
		return ErrAttachmentTooLarge
	}
	if a.Size == 0 {
		a.Size = int64(len(a.Data))
	}

	c.mu.Lock()
	c.pending = &a
	c.mu.Unlock()
	return nil
}

// ClearAttachment drops the staged file.
func (c *Controller) ClearAttachment() {
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()
}

// Pending returns the staged file.
func (c *Controller) Pending() (Attachment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return Attachment{}, false
	}
	return *c.pending, true
}

// Messages returns a copy of the log.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// InFlight reports whether a request is awaiting its answer.
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

// UserID returns the active user.
func (c *Controller) UserID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// Mode returns the mode used for the next request.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetMode changes the mode used for the next request. An empty mode selects
// ModeAssistant.
func (c *Controller) SetMode(m Mode) error {
	parsed, err := ParseMode(string(m))
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.mode = parsed
	c.mu.Unlock()
	return nil
}

// Close abandons any in-flight request and waits for its goroutine to exit.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.active = nil
	c.mu.Unlock()

	c.shutdown()
	c.wg.Wait()
}

// Trigger returns the handle used by quick commands.
func (c *Controller) Trigger() *Trigger {
	return c.trigger
}

func (c *Controller) translate(key string) string {
	if c.translator == nil {
		return key
	}
	return c.translator.Translate(key)
}

func (c *Controller) notify(level Level, key string) {
	c.notifier.Notify(Notification{Level: level, Key: key, Text: c.translate(key)})
}

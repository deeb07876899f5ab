package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"finagent/internal/cache"
	"finagent/internal/chat"
	"finagent/internal/log"
)

const (
	sessionCookie      = "finagent_session"
	defaultMaxSessions = 500
	defaultSessionTTL  = 2 * time.Hour
)

// session is one browser tab group: its own chat controller plus the toasts
// and refresh requests waiting for the next response.
type session struct {
	id   string
	ctrl *chat.Controller

	mu      sync.Mutex
	pending []chat.Notification
	refresh bool
	hide    bool
}

func (s *session) setHidden(v bool) {
	s.mu.Lock()
	s.hide = v
	s.mu.Unlock()
}

func (s *session) hidden() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hide
}

func (s *session) notify(n chat.Notification) {
	s.mu.Lock()
	s.pending = append(s.pending, n)
	s.mu.Unlock()
}

func (s *session) requestRefresh() {
	s.mu.Lock()
	s.refresh = true
	s.mu.Unlock()
}

// drain moves the queued toasts and refresh request into b.
func (s *session) drain(b *HTMXResponseBuilder) *HTMXResponseBuilder {
	s.mu.Lock()
	pending, refresh := s.pending, s.refresh
	s.pending, s.refresh = nil, false
	s.mu.Unlock()

	b.TriggerNotifications(pending)
	if refresh {
		b.TriggerDashboardRefresh()
	}
	return b
}

// controllerFactory builds the controller of a new session. notify and
// refresh are the session's own hooks.
type controllerFactory func(notify chat.NotifierFunc, refresh func(userID int, events []chat.Event)) *chat.Controller

// sessionStore maps the session cookie to a session. Sessions idle past the
// TTL or pushed out by newer ones get their controller closed.
type sessionStore struct {
	sessions *cache.LRUCache[*session]
	factory  controllerFactory
	logger   *log.Logger
	secure   bool

	mu sync.Mutex
}

func newSessionStore(factory controllerFactory, maxSessions int, ttl time.Duration, logger *log.Logger) *sessionStore {
	if maxSessions <= 0 {
		maxSessions = defaultMaxSessions
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	st := &sessionStore{
		factory: factory,
		logger:  log.OrDiscard(logger).WithComponent(log.ComponentHTTP),
	}
	st.sessions = cache.NewLRUCache[*session](maxSessions, ttl).OnEvict(func(id string, s *session) {
		st.logger.Debug("Chat session closed", log.FieldSessionID, id)
		s.ctrl.Close()
	})
	return st
}

// get returns the session of r, creating and hydrating one when the cookie is
// missing or its session expired.
func (st *sessionStore) get(w http.ResponseWriter, r *http.Request) *session {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if s, ok := st.sessions.Get(c.Value); ok {
			// Re-setting renews the idle TTL.
			st.sessions.Set(s.id, s)
			return s
		}
	}

	s := &session{id: uuid.NewString()}
	s.ctrl = st.factory(s.notify, func(int, []chat.Event) { s.requestRefresh() })
	s.ctrl.Hydrate(r.Context(), s.ctrl.UserID())

	st.mu.Lock()
	st.sessions.Set(s.id, s)
	st.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    s.id,
		Path:     "/",
		HttpOnly: true,
		Secure:   st.secure || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	st.logger.DebugContext(r.Context(), "Chat session created", log.FieldSessionID, s.id)
	return s
}

func (st *sessionStore) size() int {
	return st.sessions.Size()
}

// closeAll closes every controller. Used on shutdown.
func (st *sessionStore) closeAll(context.Context) {
	st.sessions.Purge()
}

package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"finagent/internal/cache"
	"finagent/internal/chat"
	"finagent/internal/dashboard"
	"finagent/internal/locale"
	"finagent/internal/log"
	"finagent/internal/middleware/ratelimit"
	"finagent/internal/middleware/security"
	"finagent/internal/middleware/trace"
	"finagent/internal/services"
	appweb "finagent/web"
)

// Pinger reports whether the preference store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the server renders and drives.
type Deps struct {
	Chat       chat.Backend
	Dashboards *dashboard.Registry
	Users      *dashboard.Directory
	Locale     *locale.Store
	Document   *locale.Document
	Prefs      Pinger
	Export     *services.ExportService
	// Refresher receives the mutations reported by any session, after the
	// session has queued its own dashboard refresh.
	Refresher chat.Refresher
	Caches    *cache.Manager
	Logger    *log.Logger

	DefaultUserID      int
	DefaultMode        chat.Mode
	RateLimitPerMinute int
	MaxSessions        int
	SessionTTL         time.Duration
}

type appMetrics struct {
	started      time.Time
	messagesSent int64
	exports      int64
	exportErrors int64
}

// Server is the web surface: one http.Server plus the per-session chat state.
type Server struct {
	http.Server
	templates *template.Template
	deps      Deps
	logger    *log.Logger

	sessions    *sessionStore
	rateLimiter *ratelimit.Limiter
	detector    *security.Detector
	tracer      *trace.Middleware
	metrics     appMetrics

	stopBackground context.CancelFunc
	shutdownOnce   sync.Once
}

// NewServer configures routes, middleware and templates.
func NewServer(addr string, deps Deps) *Server {
	if deps.DefaultUserID < 1 {
		deps.DefaultUserID = 1
	}
	if deps.DefaultMode == "" {
		deps.DefaultMode = chat.ModeAssistant
	}
	if deps.Caches == nil {
		deps.Caches = cache.NewManager(deps.Logger)
	}
	logger := log.OrDiscard(deps.Logger).WithComponent(log.ComponentHTTP)

	s := &Server{
		deps:     deps,
		logger:   logger,
		detector: security.NewDetector(deps.Logger),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: deps.RateLimitPerMinute,
		}),
		metrics: appMetrics{started: time.Now()},
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, deps.Logger)
	s.sessions = newSessionStore(s.newController, deps.MaxSessions, deps.SessionTTL, deps.Logger)

	deps.Caches.Register("sessions", s.sessions.sessions)
	if deps.Dashboards != nil {
		deps.Caches.Register("dashboards", deps.Dashboards.Cache())
	}
	if deps.Users != nil && deps.Users.Cache() != nil {
		deps.Caches.Register("users", deps.Users.Cache())
	}

	t, err := template.New("").Funcs(s.templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Error("Failed parsing templates", log.FieldError, err)
	} else {
		s.templates = t
	}

	mux := http.NewServeMux()
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticCache(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ui/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /ui/chat/messages", s.handleChatMessages)

	mux.HandleFunc("POST /chat/send", s.handleChatSend)
	mux.HandleFunc("POST /chat/cancel", s.handleChatCancel)
	mux.HandleFunc("POST /chat/attach", s.handleChatAttach)
	mux.HandleFunc("POST /chat/attach/clear", s.handleChatClearAttachment)
	mux.HandleFunc("POST /chat/mode", s.handleChatMode)
	mux.HandleFunc("POST /chat/quick", s.handleChatQuick)

	mux.HandleFunc("POST /locale", s.handleLocaleToggle)
	mux.HandleFunc("POST /users/select", s.handleUserSelect)
	mux.HandleFunc("POST /export", s.handleExport)

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited)(handler)
	handler = s.detector.Middleware(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	return s
}

// newController builds the chat controller of a new session. Mutations first
// mark the session for a dashboard refresh, then reach the shared refresher.
func (s *Server) newController(notify chat.NotifierFunc, refresh func(int, []chat.Event)) *chat.Controller {
	return chat.New(chat.Config{
		Backend:    s.deps.Chat,
		Translator: s.deps.Locale,
		Notifier:   notify,
		Refresher: func(userID int, events []chat.Event) {
			if len(events) > 0 {
				refresh(userID, events)
			}
			if s.deps.Refresher != nil {
				s.deps.Refresher(userID, events)
			}
		},
		UserID: s.deps.DefaultUserID,
		Mode:   s.deps.DefaultMode,
		Logger: s.deps.Logger,
	})
}

// requestLogger returns the logger carrying the request id.
func (s *Server) requestLogger(r *http.Request) *log.Logger {
	return log.FromContext(r.Context()).WithComponent(log.ComponentHTTP)
}

// StartBackground starts cache cleanup and rate limiter eviction. They stop
// on Shutdown or when ctx is done.
func (s *Server) StartBackground(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.stopBackground = cancel
	s.deps.Caches.StartCleanup(ctx, 5*time.Minute)
	go s.rateLimiter.Run(ctx)
}

// Shutdown stops the listener, the background loops and every chat session.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
		if s.stopBackground != nil {
			s.stopBackground()
		}
		s.deps.Caches.Stop()
		s.sessions.closeAll(ctx)
		s.logger.InfoContext(ctx, "HTTP server stopped", log.FieldOperation, log.OpShutdown)
	})
	return shutdownErr
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
}

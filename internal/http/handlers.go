package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"finagent/internal/chat"
	"finagent/internal/core"
	"finagent/internal/locale"
	"finagent/internal/log"
	"finagent/internal/services"
	"finagent/internal/sheets"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.started).Round(time.Second).String(),
	})
}

// handleReady checks the templates and the preference store.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.deps.Prefs == nil:
		checks["preferences"] = "not_configured"
	default:
		if err := s.deps.Prefs.Ping(ctx); err != nil {
			checks["preferences"] = fmt.Sprintf("failed: %v", err)
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["preferences"] = "ok"
		}
	}

	checks["sessions"] = s.sessions.size()
	checks["export"] = s.deps.Export.Enabled()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	limitMetrics := s.rateLimiter.GetMetrics()

	dashboards := 0
	if s.deps.Dashboards != nil {
		dashboards = s.deps.Dashboards.Cache().Size()
	}

	metrics := []struct {
		name, help, kind string
		value            float64
	}{
		{"http_requests_total", "Total number of HTTP requests", "counter", float64(traceMetrics.TotalRequests)},
		{"http_server_errors_total", "Responses with a 5xx status", "counter", float64(traceMetrics.ServerErrors)},
		{"chat_messages_sent_total", "Chat messages accepted for sending", "counter", float64(atomic.LoadInt64(&s.metrics.messagesSent))},
		{"exports_total", "Completed transaction exports", "counter", float64(atomic.LoadInt64(&s.metrics.exports))},
		{"export_errors_total", "Failed transaction exports", "counter", float64(atomic.LoadInt64(&s.metrics.exportErrors))},
		{"rate_limit_hits_total", "Total rate limit hits", "counter", float64(limitMetrics.TotalHits)},
		{"suspicious_requests_total", "Total suspicious requests detected", "counter", float64(s.detector.SuspiciousCount())},
		{"active_rate_limit_clients", "Currently tracked rate limit clients", "gauge", float64(limitMetrics.ClientCount)},
		{"chat_sessions", "Open chat sessions", "gauge", float64(s.sessions.size())},
		{"dashboard_loaders", "Dashboards kept in memory", "gauge", float64(dashboards)},
		{"uptime_seconds", "Application uptime in seconds", "gauge", time.Since(s.metrics.started).Seconds()},
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	for _, m := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %.0f\n\n", m.name, m.help, m.name, m.kind, m.name, m.value)
	}
}

type pageData struct {
	Lang          string
	NextLocale    string
	Users         []core.User
	UserID        int
	Modes         []modeOption
	Quick         []chat.QuickCommand
	Chat          chatView
	ExportEnabled bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)

	var users []core.User
	if s.deps.Users != nil {
		users = s.deps.Users.Users(r.Context())
	}

	lang := s.lang()
	data := pageData{
		Lang:          lang.String(),
		NextLocale:    locale.Toggle(lang).String(),
		Users:         users,
		UserID:        sess.ctrl.UserID(),
		Modes:         s.modeOptions(sess.ctrl.Mode()),
		Quick:         chat.QuickCommands(s.deps.Locale),
		Chat:          s.chatView(sess.ctrl),
		ExportEnabled: s.deps.Export.Enabled(),
	}

	body, err := s.render("index.html", data)
	if err != nil {
		s.requestLogger(r).ErrorContext(r.Context(), "Index template execution failed",
			log.FieldTemplate, "index.html",
			log.FieldError, err)
		InternalServerError("Error rendering page").Write(w)
		return
	}
	sess.drain(NewHTMXResponse().BodyHTML(body)).Write(w)
}

// handleLocaleToggle switches to the other language and reloads the page.
func (s *Server) handleLocaleToggle(w http.ResponseWriter, r *http.Request) {
	if s.deps.Locale == nil {
		BadRequestError("locale not configured").Write(w)
		return
	}

	next := locale.Toggle(s.deps.Locale.Locale())
	if err := s.deps.Locale.SetLocale(r.Context(), next); err != nil {
		s.requestLogger(r).WarnContext(r.Context(), "Locale not changed",
			log.FieldLocale, next,
			log.FieldError, err)
		NewHTMXResponse().TriggerNotification(chat.LevelError, s.translate("locale.failed")).Write(w)
		return
	}
	NewHTMXResponse().Refresh().Write(w)
}

// handleUserSelect switches the session to another user. The chat log is
// replaced and the dashboard reloads.
func (s *Server) handleUserSelect(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)

	id, err := parseUserID(r, "user_id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if s.deps.Users != nil {
		if _, ok := s.deps.Users.Lookup(r.Context(), id); !ok {
			BadRequestError(fmt.Sprintf("unknown user %d", id)).Write(w)
			return
		}
	}

	sess.ctrl.SwitchUser(r.Context(), id)
	s.requestLogger(r).InfoContext(r.Context(), "User switched", log.FieldUserID, id)

	s.writeMessages(w, r, sess, NewHTMXResponse().TriggerDashboardRefresh())
}

// handleExport copies the transactions of the session's user to the
// spreadsheet.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	userID := sess.ctrl.UserID()
	resp := NewHTMXResponse()

	result, err := s.deps.Export.Export(r.Context(), userID)
	switch {
	case errors.Is(err, services.ErrExportDisabled):
		resp.TriggerNotification(chat.LevelWarning, s.translate("export.disabled"))
	case errors.Is(err, sheets.ErrNothingToExport):
		resp.TriggerNotification(chat.LevelInfo, s.translate("export.empty"))
	case err != nil:
		atomic.AddInt64(&s.metrics.exportErrors, 1)
		s.requestLogger(r).ErrorContext(r.Context(), "Export failed",
			log.FieldUserID, userID,
			log.FieldOperation, log.OpExport,
			log.FieldError, err)
		resp.TriggerNotification(chat.LevelError, s.translate("export.failed"))
	default:
		atomic.AddInt64(&s.metrics.exports, 1)
		resp.TriggerNotification(chat.LevelSuccess, fmt.Sprintf("%s (%d)", s.translate("export.done"), result.Rows))
	}
	sess.drain(resp).Write(w)
}

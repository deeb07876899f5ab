// Package http serves the dashboard and chat widget as server-rendered HTML
// swapped in by htmx.
//
// This file implements the builder used by every handler to assemble the
// HX-Trigger header and the response body.

package http

import (
	"encoding/json"
	"html/template"
	"net/http"

	"finagent/internal/chat"
)

const (
	EventNotification     = "show-notification"
	EventDashboardRefresh = "dashboard:refresh"
)

// HTMXResponseBuilder provides a fluent API for building HTMX responses.
type HTMXResponseBuilder struct {
	triggers      map[string]any
	notifications []notification
	statusCode    int
	body          []byte
	headers       map[string]string
}

// notification is the payload the page script turns into a toast.
type notification struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Duration int    `json:"duration"`
}

// NewHTMXResponse creates a new response builder with default 200 status.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named trigger with optional data to the HX-Trigger header.
func (b *HTMXResponseBuilder) Trigger(name string, data any) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerDashboardRefresh asks the page to reload the dashboard partial
// without the loading placeholder.
func (b *HTMXResponseBuilder) TriggerDashboardRefresh() *HTMXResponseBuilder {
	return b.Trigger(EventDashboardRefresh, struct{}{})
}

// TriggerNotification queues a toast. Several toasts in one response are
// delivered together, in order.
func (b *HTMXResponseBuilder) TriggerNotification(level chat.Level, message string) *HTMXResponseBuilder {
	duration := 3000
	switch level {
	case chat.LevelError:
		duration = 5000
	case chat.LevelWarning:
		duration = 4000
	}
	b.notifications = append(b.notifications, notification{
		Type:     string(level),
		Message:  message,
		Duration: duration,
	})
	return b
}

// TriggerNotifications queues every notification of ns.
func (b *HTMXResponseBuilder) TriggerNotifications(ns []chat.Notification) *HTMXResponseBuilder {
	for _, n := range ns {
		b.TriggerNotification(n.Level, n.Text)
	}
	return b
}

// Header adds a custom header to the response.
func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers[name] = value
	return b
}

// Refresh makes htmx reload the whole page.
func (b *HTMXResponseBuilder) Refresh() *HTMXResponseBuilder {
	return b.Header("HX-Refresh", "true")
}

// BodyHTML sets the response body as HTML content.
func (b *HTMXResponseBuilder) BodyHTML(html []byte) *HTMXResponseBuilder {
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = html
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if len(b.notifications) > 0 {
		b.triggers[EventNotification] = map[string]any{"notifications": b.notifications}
	}
	if len(b.triggers) > 0 {
		if triggerJSON, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}

	if len(b.body) == 0 && b.statusCode == http.StatusOK {
		b.statusCode = http.StatusNoContent
	}
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse creates an error response with an escaped message.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(statusCode).
		BodyHTML([]byte(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`))
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

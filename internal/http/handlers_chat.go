package http

import (
	"errors"
	"net/http"
	"strings"
	"sync/atomic"

	"finagent/internal/chat"
	"finagent/internal/log"
)

// writeMessages renders the message list into resp, together with whatever
// the session has queued.
func (s *Server) writeMessages(w http.ResponseWriter, r *http.Request, sess *session, resp *HTMXResponseBuilder) {
	body, err := s.render("chat_messages.html", s.chatView(sess.ctrl))
	if err != nil {
		s.requestLogger(r).ErrorContext(r.Context(), "Chat template execution failed",
			log.FieldTemplate, "chat_messages.html",
			log.FieldError, err)
		InternalServerError("Error rendering chat").Write(w)
		return
	}
	sess.drain(resp.BodyHTML(body)).Write(w)
}

// handleChatMessages is polled by the page while a request is in flight.
func (s *Server) handleChatMessages(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	s.writeMessages(w, r, sess, NewHTMXResponse())
}

// handleChatSend submits the composer. A file in the form is staged first,
// so it goes out with this message.
func (s *Server) handleChatSend(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)

	form, err := parseChatForm(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sess.notify(chat.Notification{
				Level: chat.LevelWarning,
				Key:   "chat.attachment.too_large",
				Text:  s.translate("chat.attachment.too_large"),
			})
			s.writeMessages(w, r, sess, NewHTMXResponse())
			return
		}
		s.requestLogger(r).WarnContext(r.Context(), "Invalid chat form", log.FieldError, err)
		BadRequestError("invalid form").Write(w)
		return
	}

	if form.Attachment != nil {
		if err := sess.ctrl.StageAttachment(*form.Attachment); err != nil {
			// The controller already queued the warning.
			s.writeMessages(w, r, sess, NewHTMXResponse())
			return
		}
	}

	if _, ok := sess.ctrl.Send(form.Message); ok {
		atomic.AddInt64(&s.metrics.messagesSent, 1)
	}
	s.writeMessages(w, r, sess, NewHTMXResponse().Trigger("composer:reset", struct{}{}))
}

func (s *Server) handleChatCancel(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	sess.ctrl.Cancel()
	s.writeMessages(w, r, sess, NewHTMXResponse())
}

// handleChatAttach stages a file without sending anything.
func (s *Server) handleChatAttach(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)

	form, err := parseChatForm(w, r)
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		sess.notify(chat.Notification{
			Level: chat.LevelWarning,
			Key:   "chat.attachment.too_large",
			Text:  s.translate("chat.attachment.too_large"),
		})
	case err != nil:
		BadRequestError("invalid form").Write(w)
		return
	case form.Attachment == nil:
		BadRequestError("missing file").Write(w)
		return
	default:
		if err := sess.ctrl.StageAttachment(*form.Attachment); err == nil {
			s.requestLogger(r).DebugContext(r.Context(), "Attachment staged",
				log.FieldAttachment, form.Attachment.Name,
				log.FieldSizeBytes, form.Attachment.Size)
		}
	}
	s.writeMessages(w, r, sess, NewHTMXResponse())
}

func (s *Server) handleChatClearAttachment(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	sess.ctrl.ClearAttachment()
	s.writeMessages(w, r, sess, NewHTMXResponse())
}

// handleChatMode changes the agent persona for the next messages.
func (s *Server) handleChatMode(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)

	mode, err := chat.ParseMode(strings.TrimSpace(r.FormValue("mode")))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := sess.ctrl.SetMode(mode); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	s.requestLogger(r).DebugContext(r.Context(), "Chat mode changed", log.FieldMode, mode)
	sess.drain(NewHTMXResponse()).Write(w)
}

// handleChatQuick fires one of the canned prompts.
func (s *Server) handleChatQuick(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)

	key := strings.TrimSpace(r.FormValue("key"))
	var text string
	for _, q := range chat.QuickCommands(s.deps.Locale) {
		if q.Key == key {
			text = q.Text
			break
		}
	}
	if text == "" {
		BadRequestError("unknown quick command").Write(w)
		return
	}

	if sess.ctrl.Trigger().Fire(text) {
		atomic.AddInt64(&s.metrics.messagesSent, 1)
	}
	s.writeMessages(w, r, sess, NewHTMXResponse())
}

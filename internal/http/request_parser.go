// This file holds the helpers that read form values sent by the page.

package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"finagent/internal/chat"
)

// maxFormBytes bounds a chat form: the attachment plus a little room for the
// text fields.
const maxFormBytes = chat.MaxAttachmentBytes + 1<<20

var errNoFile = errors.New("no file in form")

// chatForm is what the composer posts.
type chatForm struct {
	Message    string
	Attachment *chat.Attachment
}

// parseChatForm reads a multipart or urlencoded composer submission. A file
// over the size limit is returned together with chat.ErrAttachmentTooLarge so
// the controller can report it.
func parseChatForm(w http.ResponseWriter, r *http.Request) (chatForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	var form chatForm
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			return form, fmt.Errorf("parse multipart form: %w", err)
		}
		a, err := formAttachment(r)
		switch {
		case errors.Is(err, errNoFile):
		case errors.Is(err, chat.ErrAttachmentTooLarge):
			form.Attachment = &a
		case err != nil:
			return form, err
		default:
			form.Attachment = &a
		}
	} else if err := r.ParseForm(); err != nil {
		return form, fmt.Errorf("parse form: %w", err)
	}

	form.Message = sanitizeInput(r.FormValue("message"))
	return form, nil
}

func formAttachment(r *http.Request) (chat.Attachment, error) {
	f, hdr, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return chat.Attachment{}, errNoFile
	}
	if err != nil {
		return chat.Attachment{}, fmt.Errorf("read form file: %w", err)
	}
	defer f.Close()
	if hdr.Filename == "" {
		return chat.Attachment{}, errNoFile
	}

	a, err := chat.ReadAttachment(hdr.Filename, hdr.Header.Get("Content-Type"), f)
	if hdr.Size > a.Size {
		a.Size = hdr.Size
	}
	return a, err
}

// parseUserID reads a positive user id from the named form or query value.
func parseUserID(r *http.Request, key string) (int, error) {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return 0, fmt.Errorf("missing %s", key)
	}
	id, err := strconv.Atoi(v)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return id, nil
}

// sanitizeInput drops control characters except tab and newlines, then trims.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

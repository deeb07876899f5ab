package chat

import (
	"errors"
	"fmt"
	"io"
)

// MaxAttachmentBytes is the largest file that can be staged.
const MaxAttachmentBytes = 10 << 20

// ErrAttachmentTooLarge is returned when a file exceeds MaxAttachmentBytes.
var ErrAttachmentTooLarge = errors.New("attachment exceeds 10 MiB")

// Attachment is a file staged for the next message.
type Attachment struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// ReadAttachment reads r into an attachment, stopping as soon as the size
// limit is crossed.
func ReadAttachment(name, contentType string, r io.Reader) (Attachment, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxAttachmentBytes+1))
	if err != nil {
		return Attachment{}, fmt.Errorf("read attachment %s: %w", name, err)
	}
	a := Attachment{Name: name, ContentType: contentType, Size: int64(len(data)), Data: data}
	if a.Size > MaxAttachmentBytes {
		return a, ErrAttachmentTooLarge
	}
	return a, nil
}

func (a Attachment) size() int64 {
	if a.Size > 0 {
		return a.Size
	}
	return int64(len(a.Data))
}

// annotate appends the paperclip marker that shows which file went with a
// message.
func annotate(text, name string) string {
	if text == "" {
		return "📎 " + name
	}
	return text + "\n📎 " + name
}

package locale

import "sync/atomic"

// Reflector receives the active tag whenever it changes, so rendering layers
// can expose it (the HTML lang attribute, the terminal header).
type Reflector interface {
	SetLang(tag Tag)
}

// Document is the document-level language attribute shared by the renderers.
type Document struct {
	lang atomic.Value
}

// NewDocument returns a document whose language starts at Default.
func NewDocument() *Document {
	d := &Document{}
	d.lang.Store(Default)
	return d
}

// SetLang implements Reflector.
func (d *Document) SetLang(tag Tag) {
	d.lang.Store(tag)
}

// Lang returns the current document language.
func (d *Document) Lang() Tag {
	if tag, ok := d.lang.Load().(Tag); ok {
		return tag
	}
	return Default
}

// Package locale holds the interface language preference and translation lookup.
//
// A Store is constructed once at process start and injected into every
// consumer. It starts on the default tag; Load applies the persisted preference
// afterwards, so the first render may use the default.
package locale

import (
	"context"
	"fmt"
	"sync"

	"finagent/internal/log"
)

// Preferences is the persistent key/value storage the store writes through to.
type Preferences interface {
	GetPreference(ctx context.Context, key string) (value string, ok bool, err error)
	SetPreference(ctx context.Context, key, value string) error
}

// Options configures a Store.
type Options struct {
	Preferences Preferences
	Reflector   Reflector
	Default     Tag
	Logger      *log.Logger
	// Dictionaries overrides the embedded dictionaries.
	Dictionaries map[Tag]Dictionary
}

// Store is the process-wide language state.
type Store struct {
	mu        sync.RWMutex
	current   Tag
	dicts     map[Tag]Dictionary
	prefs     Preferences
	reflector Reflector
	logger    *log.Logger
}

// NewStore builds a store on the default tag and reflects it to the document.
func NewStore(opts Options) (*Store, error) {
	dicts := opts.Dictionaries
	if dicts == nil {
		var err error
		dicts, err = LoadDictionaries()
		if err != nil {
			return nil, err
		}
	}

	current := opts.Default
	if current == "" {
		current = Default
	}
	if _, ok := dicts[current]; !ok {
		return nil, fmt.Errorf("default locale %q: %w", current, ErrUnknownLocale)
	}

	s := &Store{
		current:   current,
		dicts:     dicts,
		prefs:     opts.Preferences,
		reflector: opts.Reflector,
		logger:    log.OrDiscard(opts.Logger).WithComponent(log.ComponentLocale),
	}
	s.reflect(current)
	return s, nil
}

// Load applies the persisted preference when one exists and is valid. Invalid
// or unreadable values leave the current tag in place.
func (s *Store) Load(ctx context.Context) error {
	if s.prefs == nil {
		return nil
	}
	value, ok, err := s.prefs.GetPreference(ctx, PreferenceKey)
	if err != nil {
		return fmt.Errorf("read locale preference: %w", err)
	}
	if !ok {
		return nil
	}
	tag, err := ParseTag(value)
	if err != nil {
		s.logger.WarnContext(ctx, "Ignoring invalid persisted locale", log.FieldLocale, value)
		return nil
	}
	if _, ok := s.dicts[tag]; !ok {
		return nil
	}

	s.mu.Lock()
	s.current = tag
	s.mu.Unlock()
	s.reflect(tag)

	s.logger.DebugContext(ctx, "Applied persisted locale", log.FieldLocale, tag)
	return nil
}

// Locale returns the active tag.
func (s *Store) Locale() Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetLocale switches the active tag, reflects it and writes it through to the
// preferences. When persisting fails the previous tag is restored and the
// error returned.
func (s *Store) SetLocale(ctx context.Context, tag Tag) error {
	if _, ok := s.dicts[tag]; !ok {
		return fmt.Errorf("set locale %q: %w", tag, ErrUnknownLocale)
	}

	s.mu.Lock()
	prev := s.current
	s.current = tag
	s.mu.Unlock()
	s.reflect(tag)

	if s.prefs == nil {
		return nil
	}
	if err := s.prefs.SetPreference(ctx, PreferenceKey, string(tag)); err != nil {
		s.mu.Lock()
		if s.current == tag {
			s.current = prev
		}
		s.mu.Unlock()
		s.reflect(prev)

		s.logger.ErrorContext(ctx, "Failed to persist locale", log.FieldLocale, tag, log.FieldError, err)
		return fmt.Errorf("persist locale: %w", err)
	}
	s.logger.InfoContext(ctx, "Locale changed", log.FieldLocale, tag)
	return nil
}

// Translate looks key up in the active dictionary. A missing key is logged and
// returned verbatim.
func (s *Store) Translate(key string) string {
	return s.TranslateIn(s.Locale(), key)
}

// TranslateIn looks key up in the dictionary of tag.
func (s *Store) TranslateIn(tag Tag, key string) string {
	if v, ok := s.dicts[tag][key]; ok {
		return v
	}
	s.logger.Warn("Translation key not found", log.FieldKey, key, log.FieldLocale, tag)
	return key
}

// Translator returns a lookup function bound to tag, for templates rendered in
// a fixed language.
func (s *Store) Translator(tag Tag) func(string) string {
	return func(key string) string { return s.TranslateIn(tag, key) }
}

func (s *Store) reflect(tag Tag) {
	if s.reflector != nil {
		s.reflector.SetLang(tag)
	}
}

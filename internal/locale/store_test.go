package locale

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type memPrefs struct {
	mu     sync.Mutex
	values map[string]string
	getErr error
	setErr error
}

func newMemPrefs() *memPrefs {
	return &memPrefs{values: map[string]string{}}
}

func (m *memPrefs) GetPreference(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memPrefs) SetPreference(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func TestDictionariesShareKeys(t *testing.T) {
	dicts, err := LoadDictionaries()
	if err != nil {
		t.Fatalf("LoadDictionaries() error = %v", err)
	}
	pt, en := dicts[PT], dicts[EN]
	if len(pt) == 0 || len(en) == 0 {
		t.Fatalf("empty dictionary: pt=%d en=%d", len(pt), len(en))
	}
	for key := range pt {
		if _, ok := en[key]; !ok {
			t.Errorf("key %q missing from en", key)
		}
	}
	for key := range en {
		if _, ok := pt[key]; !ok {
			t.Errorf("key %q missing from pt", key)
		}
	}
}

func TestStoreStartsOnDefault(t *testing.T) {
	doc := NewDocument()
	s, err := NewStore(Options{Reflector: doc})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if got := s.Locale(); got != PT {
		t.Errorf("Locale() = %q, want %q", got, PT)
	}
	if got := doc.Lang(); got != PT {
		t.Errorf("document lang = %q, want %q", got, PT)
	}
}

func TestStoreTranslateMissingKeyReturnsKey(t *testing.T) {
	s, err := NewStore(Options{})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if got := s.Translate("does.not.exist"); got != "does.not.exist" {
		t.Errorf("Translate() = %q, want key", got)
	}
}

func TestStoreSetLocalePersistsAndReflects(t *testing.T) {
	ctx := context.Background()
	prefs := newMemPrefs()
	doc := NewDocument()

	s, err := NewStore(Options{Preferences: prefs, Reflector: doc})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	before := s.Translate("chat.send")

	if err := s.SetLocale(ctx, EN); err != nil {
		t.Fatalf("SetLocale() error = %v", err)
	}
	if got := s.Locale(); got != EN {
		t.Errorf("Locale() = %q, want %q", got, EN)
	}
	if got := doc.Lang(); got != EN {
		t.Errorf("document lang = %q, want %q", got, EN)
	}
	if got := prefs.values[PreferenceKey]; got != "en" {
		t.Errorf("persisted = %q, want %q", got, "en")
	}
	if after := s.Translate("chat.send"); after == before {
		t.Errorf("Translate(chat.send) unchanged after switch: %q", after)
	}

	// A fresh store over the same preferences picks the choice up on Load.
	restarted, err := NewStore(Options{Preferences: prefs})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if err := restarted.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := restarted.Locale(); got != EN {
		t.Errorf("Locale() after restart = %q, want %q", got, EN)
	}
}

func TestStoreLoadIgnoresInvalidValue(t *testing.T) {
	prefs := newMemPrefs()
	prefs.values[PreferenceKey] = "klingon"

	s, err := NewStore(Options{Preferences: prefs})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := s.Locale(); got != PT {
		t.Errorf("Locale() = %q, want %q", got, PT)
	}
}

func TestStoreSetLocaleErrors(t *testing.T) {
	ctx := context.Background()
	prefs := newMemPrefs()
	prefs.setErr = errors.New("disk full")

	doc := NewDocument()
	s, err := NewStore(Options{Preferences: prefs, Reflector: doc})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	if err := s.SetLocale(ctx, Tag("fr")); !errors.Is(err, ErrUnknownLocale) {
		t.Errorf("SetLocale(fr) error = %v, want ErrUnknownLocale", err)
	}

	err = s.SetLocale(ctx, EN)
	if !errors.Is(err, prefs.setErr) {
		t.Errorf("SetLocale(en) error = %v, want wrapped persistence error", err)
	}
	if got := s.Locale(); got != PT {
		t.Errorf("Locale() = %q after persistence failure, want pt restored", got)
	}
	if got := doc.Lang(); got != PT {
		t.Errorf("document lang = %q after persistence failure, want pt restored", got)
	}
}

func TestParseTag(t *testing.T) {
	tests := []struct {
		in      string
		want    Tag
		wantErr bool
	}{
		{in: "pt", want: PT},
		{in: "EN", want: EN},
		{in: "pt-PT", want: PT},
		{in: " en_US ", want: EN},
		{in: "fr", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseTag(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTag(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTag(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToggle(t *testing.T) {
	if Toggle(PT) != EN || Toggle(EN) != PT {
		t.Fatal("Toggle should flip between pt and en")
	}
}

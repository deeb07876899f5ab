package locale

import (
	"errors"
	"fmt"
	"strings"
)

// Tag is a supported interface language.
type Tag string

const (
	PT Tag = "pt"
	EN Tag = "en"

	// Default is used until a persisted preference is applied.
	Default = PT
)

// PreferenceKey is the key the active tag is persisted under.
const PreferenceKey = "locale"

var supported = []Tag{PT, EN}

// ErrUnknownLocale is returned for tags outside the supported set.
var ErrUnknownLocale = errors.New("unknown locale")

// Tags returns the supported tags in display order.
func Tags() []Tag {
	return append([]Tag(nil), supported...)
}

// ParseTag validates s against the supported set. Matching is case-insensitive
// and region suffixes are ignored ("pt-PT" -> pt).
func ParseTag(s string) (Tag, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexAny(s, "-_"); i > 0 {
		s = s[:i]
	}
	for _, t := range supported {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLocale, s)
}

// Toggle returns the other language, the way the header switcher flips it.
func Toggle(t Tag) Tag {
	if t == PT {
		return EN
	}
	return PT
}

func (t Tag) String() string {
	return string(t)
}

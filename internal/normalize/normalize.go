// Package normalize turns agent response payloads into clean display text.
//
// The agent backend may answer with a plain string, a list of content fragments
// or a structured object, and the text often carries serialization leftovers from
// the model provider (extras/signature metadata, type markers, escaped newlines).
// Normalize resolves the payload shape and Clean strips the artifacts. Clean is
// the only cleaning routine in the module: the live response path and the
// history display path both call it, so it must stay idempotent.
package normalize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	extrasRe    = regexp.MustCompile(`['"]extras['"]\s*:\s*\{[^}]*\}`)
	signatureRe = regexp.MustCompile(`['"]signature['"]\s*:\s*['"][^'"]*['"]`)
	typeTextRe  = regexp.MustCompile(`['"]type['"]\s*:\s*['"]text['"]`)

	listTypeRe   = regexp.MustCompile(`\[\s*\{\s*type\s*:`)
	objectTypeRe = regexp.MustCompile(`\{\s*type\s*:`)

	trailingCommaRe = regexp.MustCompile(`,\s*\}`)
	leadingCommaRe  = regexp.MustCompile(`\{\s*,`)
	emptyObjectRe   = regexp.MustCompile(`\{\s*\}`)
	emptyArrayRe    = regexp.MustCompile(`\[\s*\]`)

	spacesRe = regexp.MustCompile(` {2,}`)
)

// Normalize resolves raw into a single string and cleans it.
func Normalize(raw any) string {
	return Clean(Resolve(raw))
}

// Decode unmarshals a JSON payload and normalizes the result. Payloads that are
// not valid JSON are treated as plain text.
func Decode(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return Clean(string(data))
	}
	return Normalize(v)
}

// Resolve flattens the supported payload shapes into a string without cleaning:
//
//   - string: returned as is
//   - []any / []string: fragments concatenated in order; a fragment is either a
//     string or an object with an optional "text" field
//   - map[string]any: "text", then "content", then the JSON encoding of the map
//   - nil: empty string
//
// Any other value is formatted with fmt.
func Resolve(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, "")
	case []any:
		var b strings.Builder
		for _, item := range v {
			b.WriteString(fragmentText(item))
		}
		return b.String()
	case map[string]any:
		if s, ok := stringField(v, "text"); ok {
			return s
		}
		if s, ok := stringField(v, "content"); ok {
			return s
		}
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	case json.RawMessage:
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			return string(v)
		}
		return Resolve(decoded)
	default:
		return fmt.Sprint(v)
	}
}

func fragmentText(item any) string {
	switch f := item.(type) {
	case string:
		return f
	case map[string]any:
		s, _ := stringField(f, "text")
		return s
	default:
		return ""
	}
}

// stringField returns m[key] when it is present and not null. Non-string values
// are formatted so a numeric "text" still renders.
func stringField(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return Resolve(v), true
}

// Clean strips provider metadata artifacts from text. It never fails and
// Clean(Clean(s)) == Clean(s).
func Clean(text string) string {
	if text == "" {
		return ""
	}

	cleaned := text

	// Artifact removal can expose new matches (an object emptied by one pass
	// becomes "{}" for the next), so run to a fixed point. Every pass that
	// changes the text makes it shorter.
	for {
		next := stripArtifacts(cleaned)
		if next == cleaned {
			break
		}
		cleaned = next
	}

	cleaned = spacesRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

func stripArtifacts(s string) string {
	s = strings.ReplaceAll(s, `\n`, "\n")

	s = extrasRe.ReplaceAllString(s, "")
	s = signatureRe.ReplaceAllString(s, "")
	s = typeTextRe.ReplaceAllString(s, "")

	s = listTypeRe.ReplaceAllString(s, "")
	s = objectTypeRe.ReplaceAllString(s, "")

	s = trailingCommaRe.ReplaceAllString(s, "}")
	s = leadingCommaRe.ReplaceAllString(s, "{")
	s = emptyObjectRe.ReplaceAllString(s, "")
	s = emptyArrayRe.ReplaceAllString(s, "")
	return s
}

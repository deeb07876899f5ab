package normalize

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNormalizeVariants(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want string
	}{
		{name: "plain string", raw: "  Saldo atual: 100  ", want: "Saldo atual: 100"},
		{name: "nil", raw: nil, want: ""},
		{name: "fragments", raw: []any{" Hello ", map[string]any{"text": "World"}}, want: "Hello World"},
		{name: "fragment without text", raw: []any{"A", map[string]any{"type": "image"}, "B"}, want: "AB"},
		{name: "string slice", raw: []string{"one ", "two"}, want: "one two"},
		{name: "object text", raw: map[string]any{"text": "from text", "content": "from content"}, want: "from text"},
		{name: "object content", raw: map[string]any{"content": "from content"}, want: "from content"},
		{name: "object without text", raw: map[string]any{"answer": 42.0}, want: `{"answer":42}`},
		{name: "escaped newline", raw: `line one\nline two`, want: "line one\nline two"},
		{name: "number", raw: 12.5, want: "12.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.raw); got != tt.want {
				t.Errorf("Normalize(%#v) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCleanStripsProviderArtifacts(t *testing.T) {
	raw := `[{'type': 'text', 'text': 'Despesa registada com sucesso', 'extras': {'signature': 'abc123=='}}]`
	got := Normalize(raw)

	for _, banned := range []string{"extras", "signature", "'type'", "{}", "[]"} {
		if strings.Contains(got, banned) {
			t.Errorf("Normalize() = %q, still contains %q", got, banned)
		}
	}
	if !strings.Contains(got, "Despesa registada com sucesso") {
		t.Errorf("Normalize() = %q, lost the message text", got)
	}
}

func TestCleanRemovesExtrasAndSignature(t *testing.T) {
	in := `Resposta "extras": {"cache": true} final "signature": "xyz"`
	got := Clean(in)
	if strings.Contains(got, "extras") || strings.Contains(got, "signature") {
		t.Fatalf("Clean(%q) = %q", in, got)
	}
	if got != "Resposta final" {
		t.Fatalf("Clean(%q) = %q, want %q", in, got, "Resposta final")
	}
}

func TestCleanFullyStrippedPayloadIsEmpty(t *testing.T) {
	in := `{"type": "text", "extras": {"a": 1}, "signature": "s"}`
	if got := Clean(in); got != "" {
		t.Fatalf("Clean(%q) = %q, want empty", in, got)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []any{
		"hello   world",
		"  padded\\n  text  ",
		`{"type": "text", "text": "x", "extras": {"k": "v"}}`,
		`\{}n nested {"type": "text"} {} [] [ ]`,
		[]any{" Hello ", map[string]any{"text": "World  "}},
		map[string]any{"content": "c  \\n d"},
		map[string]any{"other": "value"},
		nil,
		`[{type: 'x'}]`,
		"{ , }",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %#v: once=%q twice=%q", in, once, twice)
		}
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{name: "json string", data: `"Meta criada"`, want: "Meta criada"},
		{name: "fragment list", data: `[{"type":"text","text":"Goal "},{"type":"text","text":"updated"}]`, want: "Goal updated"},
		{name: "object", data: `{"content":"ok"}`, want: "ok"},
		{name: "null", data: `null`, want: ""},
		{name: "not json", data: `plain text`, want: "plain text"},
		{name: "empty", data: ``, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decode(json.RawMessage(tt.data)); got != tt.want {
				t.Errorf("Decode(%s) = %q, want %q", tt.data, got, tt.want)
			}
		})
	}
}

func TestResolveDoesNotClean(t *testing.T) {
	raw := `keep  "extras": {"a": 1}`
	if got := Resolve(raw); got != raw {
		t.Fatalf("Resolve(%q) = %q, want input unchanged", raw, got)
	}
}

package http

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"finagent/internal/chat"
	"finagent/internal/core"
	"finagent/internal/locale"
)

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"t":       s.translate,
		"money":   func(v float64) string { return core.FormatAmount(v, s.lang().String()) },
		"signed":  func(tx core.Transaction) string { return core.FormatSigned(tx, s.lang().String()) },
		"percent": core.FormatPercent,
		"maskIf": func(hide bool, v string) string {
			if hide {
				return core.Mask(v)
			}
			return v
		},
		"clock": func(t time.Time) string { return t.Local().Format("15:04") },
		"dict":  dict,
	}
}

func (s *Server) translate(key string) string {
	if s.deps.Locale == nil {
		return key
	}
	return s.deps.Locale.Translate(key)
}

func (s *Server) lang() locale.Tag {
	if s.deps.Document != nil {
		return s.deps.Document.Lang()
	}
	if s.deps.Locale != nil {
		return s.deps.Locale.Locale()
	}
	return locale.Default
}

// dict builds a map from alternating keys and values so a partial can take
// more than one argument.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}

// render executes a template into memory so a failure never leaves a half
// written response.
func (s *Server) render(name string, data any) ([]byte, error) {
	if s.templates == nil {
		return nil, fmt.Errorf("render %s: templates not loaded", name)
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

type messageView struct {
	ID     string
	IsUser bool
	Author string
	Text   string
	Time   time.Time
}

type chatView struct {
	Messages []messageView
	InFlight bool
	Pending  *chat.Attachment
}

func (s *Server) chatView(ctrl *chat.Controller) chatView {
	msgs := ctrl.Messages()
	view := chatView{
		Messages: make([]messageView, 0, len(msgs)),
		InFlight: ctrl.InFlight(),
	}
	for _, m := range msgs {
		view.Messages = append(view.Messages, messageView{
			ID:     m.ID,
			IsUser: m.IsUser(),
			Author: s.translate("chat.role." + string(m.Role)),
			Text:   m.Display(),
			Time:   m.Timestamp,
		})
	}
	if a, ok := ctrl.Pending(); ok {
		a.Data = nil
		view.Pending = &a
	}
	return view
}

type modeOption struct {
	Value    string
	Label    string
	Selected bool
}

func (s *Server) modeOptions(current chat.Mode) []modeOption {
	modes := chat.Modes()
	out := make([]modeOption, 0, len(modes))
	for _, m := range modes {
		out = append(out, modeOption{Value: string(m), Label: s.translate(m.LabelKey()), Selected: m == current})
	}
	return out
}

// categoryRow is one bar of the expenses-by-category chart. Width is the
// share of the largest category, rounded, with a floor of 2 so tiny values
// stay visible.
type categoryRow struct {
	Name  string
	Value float64
	Width int
}

func categoryRows(cats []core.Category) []categoryRow {
	var largest float64
	for _, c := range cats {
		if c.Value > largest {
			largest = c.Value
		}
	}

	rows := make([]categoryRow, 0, len(cats))
	for _, c := range cats {
		width := 0
		if largest > 0 && c.Value > 0 {
			width = int(c.Value*100/largest + 0.5)
			width = max(width, 2)
			width = min(width, 100)
		}
		rows = append(rows, categoryRow{Name: c.Name, Value: c.Value, Width: width})
	}
	return rows
}

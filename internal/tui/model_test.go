package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"finagent/internal/api"
	"finagent/internal/chat"
	"finagent/internal/core"
	"finagent/internal/dashboard"
	"finagent/internal/locale"
)

type fakeBackend struct {
	mu       sync.Mutex
	block    bool
	answer   string
	requests []api.ChatRequest
}

func (f *fakeBackend) History(_ context.Context, userID int) ([]core.HistoryEntry, error) {
	if userID == 2 {
		return []core.HistoryEntry{{Role: "assistant", Content: "Olá Rui"}}, nil
	}
	return nil, nil
}

func (f *fakeBackend) Chat(ctx context.Context, req api.ChatRequest) (api.ChatResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	block, answer := f.block, f.answer
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return api.ChatResponse{}, ctx.Err()
	}
	return api.ChatResponse{Text: answer}, nil
}

func (f *fakeBackend) Users(context.Context) ([]core.User, error) {
	return []core.User{{ID: 1, Name: "Ana"}, {ID: 2, Name: "Rui"}}, nil
}

func (f *fakeBackend) sent() []api.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.ChatRequest(nil), f.requests...)
}

func newTestModel(t *testing.T, fb *fakeBackend) Model {
	t.Helper()
	doc := locale.NewDocument()
	store, err := locale.NewStore(locale.Options{Default: locale.EN, Reflector: doc})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	m := NewModel(Options{
		Backend:      fb,
		Locale:       store,
		Document:     doc,
		Users:        dashboard.NewDirectory(fb, time.Minute, 1, nil, nil),
		UserID:       1,
		GlamourStyle: "notty",
	})
	t.Cleanup(m.Close)
	m.Hydrate(context.Background())

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

func typeAndSubmit(m Model, text string) (Model, tea.Cmd) {
	m.input.SetValue(text)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

func waitIdle(t *testing.T, m Model) Model {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for m.ctrl.InFlight() {
		if time.Now().After(deadline) {
			t.Fatal("request never settled")
		}
		time.Sleep(5 * time.Millisecond)
	}
	next, _ := m.Update(tickMsg(time.Now()))
	return next.(Model)
}

func TestHeaderShowsUserModeAndLanguage(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	view := m.View()
	for _, want := range []string{"FinanceAgent Pro", "Ana", "Assistant", "EN", "How can I help"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestSendShowsAnswerAndToast(t *testing.T) {
	fb := &fakeBackend{answer: "Despesa **registada** com sucesso"}
	m := newTestModel(t, fb)

	m, _ = typeAndSubmit(m, "gastei 10 em café")
	if m.input.Value() != "" {
		t.Error("composer should be cleared after sending")
	}
	m = waitIdle(t, m)

	view := m.View()
	for _, want := range []string{"gastei 10 em café", "registada", "Saved successfully"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if got := fb.sent(); len(got) != 1 || got[0].Message != "gastei 10 em café" {
		t.Errorf("requests = %+v", got)
	}
}

func TestEnterWhileBusyKeepsDraft(t *testing.T) {
	fb := &fakeBackend{block: true}
	m := newTestModel(t, fb)

	m, _ = typeAndSubmit(m, "primeira")
	m, _ = typeAndSubmit(m, "segunda")
	if m.input.Value() != "segunda" {
		t.Errorf("draft = %q, want it kept", m.input.Value())
	}
	if !strings.Contains(m.View(), "Wait for the current answer") {
		t.Error("busy hint missing")
	}
	if n := len(fb.sent()); n != 1 {
		t.Errorf("backend called %d times, want 1", n)
	}
}

func TestCtrlCCancelsThenQuits(t *testing.T) {
	m := newTestModel(t, &fakeBackend{block: true})
	m, _ = typeAndSubmit(m, "analisa")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(Model)
	if cmd != nil {
		t.Fatal("first ctrl+c should only cancel")
	}
	if m.ctrl.InFlight() {
		t.Error("request still in flight")
	}
	if !strings.Contains(m.View(), "Response stopped.") {
		t.Errorf("stopped message missing:\n%s", m.View())
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("second ctrl+c should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestModeCommand(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	m, _ = typeAndSubmit(m, "/mode analyst")
	if m.ctrl.Mode() != chat.ModeAnalyst {
		t.Errorf("mode = %s", m.ctrl.Mode())
	}
	if !strings.Contains(m.View(), "Analyst") {
		t.Error("header should show the new mode")
	}

	m, _ = typeAndSubmit(m, "/mode oracle")
	if m.ctrl.Mode() != chat.ModeAnalyst {
		t.Error("invalid mode must not change the mode")
	}
}

func TestUserCommand(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	m, cmd := typeAndSubmit(m, "/user 2")
	if cmd == nil {
		t.Fatal("switch should run as a command")
	}
	next, _ := m.Update(cmd())
	m = next.(Model)

	if m.ctrl.UserID() != 2 {
		t.Errorf("user = %d, want 2", m.ctrl.UserID())
	}
	view := m.View()
	if !strings.Contains(view, "Rui") || !strings.Contains(view, "Olá Rui") {
		t.Errorf("switched history missing:\n%s", view)
	}

	m, cmd = typeAndSubmit(m, "/user 9")
	next, _ = m.Update(cmd())
	m = next.(Model)
	if m.ctrl.UserID() != 2 || !strings.Contains(m.View(), "Unknown user") {
		t.Error("unknown user must be rejected")
	}
}

func TestAttachCommand(t *testing.T) {
	fb := &fakeBackend{answer: "ok"}
	m := newTestModel(t, fb)

	path := filepath.Join(t.TempDir(), "extrato.csv")
	if err := os.WriteFile(path, []byte("a,b\n1,2\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	m, _ = typeAndSubmit(m, "/attach "+path)
	if !strings.Contains(m.View(), "📎 extrato.csv") {
		t.Errorf("staged attachment missing:\n%s", m.View())
	}

	m, _ = typeAndSubmit(m, "importa")
	waitIdle(t, m)
	got := fb.sent()
	if len(got) != 1 || got[0].File == nil || got[0].File.Name != "extrato.csv" {
		t.Fatalf("requests = %+v", got)
	}

	m, _ = typeAndSubmit(m, "/attach "+filepath.Join(t.TempDir(), "missing.csv"))
	if !strings.Contains(m.View(), "Could not read the file.") {
		t.Error("missing file should raise an error toast")
	}
}

func TestLangCommandTogglesLocale(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	m, _ = typeAndSubmit(m, "/lang")
	if m.locale.Locale() != locale.PT {
		t.Errorf("locale = %s", m.locale.Locale())
	}
	view := m.View()
	if !strings.Contains(view, "PT") || !strings.Contains(view, "Agente") {
		t.Errorf("view not in Portuguese:\n%s", view)
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in     string
		want   command
		wantOK bool
	}{
		{"/quit", command{name: "quit"}, true},
		{"/mode  analyst ", command{name: "mode", args: "analyst"}, true},
		{"/Attach /tmp/a b.csv", command{name: "attach", args: "/tmp/a b.csv"}, true},
		{"hello", command{}, false},
		{"/", command{}, false},
		{"/ 2", command{}, false},
	}
	for _, tt := range tests {
		got, ok := parseCommand(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("parseCommand(%q) = %+v, %v; want %+v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m, cmd := typeAndSubmit(m, "/bogus")
	if cmd != nil {
		t.Error("unknown command should not return a tea.Cmd")
	}
	if !strings.Contains(m.View(), "Unknown command") {
		t.Error("unknown command toast missing")
	}
}

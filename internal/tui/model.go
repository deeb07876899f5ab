// Package tui is the terminal chat client. It drives the same chat controller
// as the web surface and renders assistant answers as markdown.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"finagent/internal/chat"
	"finagent/internal/dashboard"
	"finagent/internal/locale"
	"finagent/internal/log"
)

// tickInterval is how often the model picks up answers and notifications
// produced on controller goroutines.
const tickInterval = 150 * time.Millisecond

// Options wires the model to the shared services.
type Options struct {
	Backend   chat.Backend
	Locale    *locale.Store
	Document  *locale.Document
	Users     *dashboard.Directory
	Refresher chat.Refresher
	UserID    int
	Mode      chat.Mode
	Logger    *log.Logger
	// GlamourStyle is a glamour standard style name. Defaults to "dark".
	GlamourStyle string
}

type tickMsg time.Time

// userSwitchedMsg reports the outcome of a /user command run off the UI loop.
type userSwitchedMsg struct {
	userID int
	name   string
	ok     bool
}

// Model is the bubbletea model of the chat screen.
type Model struct {
	ctrl   *chat.Controller
	inbox  *inbox
	locale *locale.Store
	doc    *locale.Document
	users  *dashboard.Directory
	logger *log.Logger
	now    func() time.Time

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	style    string
	styles   styles

	userLabel     string
	width, height int
	ready         bool
	signature     string
	toast         *toast
	quitting      bool
}

// NewModel builds the model and its controller. The log starts empty; call
// Hydrate before running the program.
func NewModel(opts Options) Model {
	if opts.GlamourStyle == "" {
		opts.GlamourStyle = "dark"
	}
	box := &inbox{}

	var translator chat.Translator
	if opts.Locale != nil {
		translator = opts.Locale
	}
	ctrl := chat.New(chat.Config{
		Backend:    opts.Backend,
		Translator: translator,
		Notifier:   box,
		Refresher:  opts.Refresher,
		UserID:     opts.UserID,
		Mode:       opts.Mode,
		Logger:     opts.Logger,
	})

	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.CharLimit = 4000
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter")
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorAccent)

	m := Model{
		ctrl:     ctrl,
		inbox:    box,
		locale:   opts.Locale,
		doc:      opts.Document,
		users:    opts.Users,
		logger:   log.OrDiscard(opts.Logger).WithComponent(log.ComponentTUI),
		now:      time.Now,
		viewport: viewport.New(80, 20),
		input:    ta,
		spinner:  sp,
		style:    opts.GlamourStyle,
		styles:   defaultStyles(),
	}
	m.input.Placeholder = m.translate("chat.placeholder")
	m.renderer = m.newRenderer(80)
	return m
}

// Hydrate loads the history and the display name of the active user.
func (m *Model) Hydrate(ctx context.Context) {
	id := m.ctrl.UserID()
	m.ctrl.Hydrate(ctx, id)
	m.userLabel = m.lookupName(ctx, id)
}

// Close abandons any in-flight request.
func (m Model) Close() {
	m.ctrl.Close()
}

func (m Model) newRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.style),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err != nil {
		m.logger.Warn("Markdown renderer unavailable", log.FieldError, err)
		return nil
	}
	return r
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if m.ctrl.Cancel() {
				m.sync()
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit
		case "esc":
			m.ctrl.Cancel()
			m.sync()
			return m, nil
		case "enter":
			return m.submit()
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case tickMsg:
		m.sync()
		return m, tick()

	case userSwitchedMsg:
		if msg.ok {
			m.userLabel = msg.name
			m.showToast(chat.LevelSuccess, fmt.Sprintf("%s: %s", m.translate("tui.user_switched"), msg.name))
		} else {
			m.showToast(chat.LevelWarning, m.translate("tui.user_unknown"))
		}
		m.sync()
		return m, nil

	case usersListedMsg:
		m.showToast(chat.LevelInfo, string(msg))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if cmd, ok := parseCommand(text); ok {
		m.input.Reset()
		next := m.run(cmd)
		m.sync()
		return *m, next
	}

	if m.ctrl.InFlight() {
		m.showToast(chat.LevelWarning, m.translate("tui.busy"))
		return *m, nil
	}
	if _, ok := m.ctrl.Send(text); ok {
		m.input.Reset()
		m.logger.Debug("Message submitted", log.FieldUserID, m.ctrl.UserID())
	}
	m.sync()
	return *m, nil
}

// sync pulls notifications and re-renders the log when it changed.
func (m *Model) sync() {
	for _, n := range m.inbox.drain() {
		m.showToast(n.Level, n.Text)
	}
	if m.toast != nil && m.now().After(m.toast.until) {
		m.toast = nil
	}

	msgs := m.ctrl.Messages()
	sig := fmt.Sprintf("%d/%d", len(msgs), m.width)
	if len(msgs) > 0 {
		sig += "/" + msgs[len(msgs)-1].ID
	}
	if sig == m.signature {
		return
	}
	m.signature = sig
	m.viewport.SetContent(m.renderHistory(msgs))
	m.viewport.GotoBottom()
}

func (m *Model) showToast(level chat.Level, text string) {
	m.toast = &toast{
		Notification: chat.Notification{Level: level, Text: text},
		until:        m.now().Add(toastDuration(level)),
	}
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height

	headerH := 2
	inputH := m.input.Height() + 2
	footerH := 2
	contentH := max(height-headerH-inputH-footerH, 3)

	m.viewport.Width = width
	m.viewport.Height = contentH
	m.input.SetWidth(max(width-2, 10))
	m.renderer = m.newRenderer(width)
	m.ready = true
	m.signature = ""
	m.sync()
}

func (m Model) renderHistory(msgs []chat.Message) string {
	var sb strings.Builder
	for _, msg := range msgs {
		stamp := m.styles.Muted.Render(msg.Timestamp.Local().Format("15:04"))
		if msg.IsUser() {
			sb.WriteString(m.styles.User.Render(m.translate("chat.role.user")) + " " + stamp + "\n")
			sb.WriteString(msg.Display())
			sb.WriteString("\n\n")
			continue
		}
		sb.WriteString(m.styles.Assistant.Render(m.translate("chat.role.assistant")) + " " + stamp + "\n")
		sb.WriteString(m.renderMarkdown(msg.Display()))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderMarkdown(text string) (out string) {
	if m.renderer == nil {
		return text + "\n"
	}
	defer func() {
		if r := recover(); r != nil {
			out = text + "\n"
		}
	}()
	rendered, err := m.renderer.Render(text)
	if err != nil {
		return text + "\n"
	}
	return strings.TrimLeft(rendered, "\n")
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return m.translate("dashboard.loading")
	}

	parts := []string{m.header(), m.viewport.View()}

	var status []string
	if m.ctrl.InFlight() {
		status = append(status, m.spinner.View()+" "+m.translate("chat.thinking"))
	}
	if a, ok := m.ctrl.Pending(); ok {
		status = append(status, "📎 "+a.Name)
	}
	parts = append(parts, strings.Join(status, "  "))
	parts = append(parts, m.styles.Input.Render(m.input.View()))

	if m.toast != nil {
		style, ok := m.styles.Toast[m.toast.Level]
		if !ok {
			style = m.styles.Muted
		}
		parts = append(parts, style.Render(m.toast.Text))
	} else {
		parts = append(parts, m.styles.Muted.Render(m.translate("tui.hint")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) header() string {
	lang := locale.Default
	if m.doc != nil {
		lang = m.doc.Lang()
	}
	items := []string{
		m.styles.Title.Render(m.translate("app.title")),
		m.userLabel,
		m.translate(m.ctrl.Mode().LabelKey()),
		strings.ToUpper(lang.String()),
	}
	return m.styles.Header.Width(max(m.width, 20)).Render(strings.Join(items, " · "))
}

func (m Model) lookupName(ctx context.Context, id int) string {
	if m.users != nil {
		if u, ok := m.users.Lookup(ctx, id); ok {
			return u.Name
		}
	}
	return fmt.Sprintf("#%d", id)
}

func (m Model) translate(key string) string {
	if m.locale == nil {
		return key
	}
	return m.locale.Translate(key)
}

package tui

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"finagent/internal/chat"
	"finagent/internal/locale"
	"finagent/internal/log"
)

// command is a slash command typed into the composer.
type command struct {
	name string
	args string
}

// parseCommand recognizes "/name args". A lone "/" or a path-like message
// such as "/ 2" is not a command.
func parseCommand(text string) (command, bool) {
	if !strings.HasPrefix(text, "/") || len(text) < 2 || text[1] == ' ' {
		return command{}, false
	}
	name, args, _ := strings.Cut(text[1:], " ")
	return command{name: strings.ToLower(name), args: strings.TrimSpace(args)}, true
}

// run executes cmd. Commands that touch the network return a tea.Cmd so the
// UI loop never blocks on them.
func (m *Model) run(cmd command) tea.Cmd {
	switch cmd.name {
	case "quit", "exit", "q":
		m.quitting = true
		return tea.Quit

	case "help":
		m.showToast(chat.LevelInfo, m.translate("tui.help"))

	case "cancel", "stop":
		m.ctrl.Cancel()

	case "mode":
		mode, err := chat.ParseMode(cmd.args)
		if err != nil || cmd.args == "" {
			names := make([]string, 0, len(chat.Modes()))
			for _, md := range chat.Modes() {
				names = append(names, string(md))
			}
			m.showToast(chat.LevelWarning, strings.Join(names, " · "))
			return nil
		}
		_ = m.ctrl.SetMode(mode)
		m.showToast(chat.LevelInfo, fmt.Sprintf("%s: %s", m.translate("tui.mode_changed"), m.translate(mode.LabelKey())))

	case "users":
		return m.listUsers()

	case "user":
		id, err := strconv.Atoi(cmd.args)
		if err != nil || id < 1 {
			m.showToast(chat.LevelWarning, m.translate("tui.user_unknown"))
			return nil
		}
		return m.switchUser(id)

	case "attach":
		m.attach(cmd.args)

	case "detach":
		m.ctrl.ClearAttachment()

	case "quick":
		m.quick(cmd.args)

	case "lang":
		m.toggleLocale()

	default:
		m.showToast(chat.LevelWarning, m.translate("tui.unknown_command"))
	}
	return nil
}

func (m *Model) listUsers() tea.Cmd {
	if m.users == nil {
		return nil
	}
	users := m.users
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		list := users.Users(ctx)
		names := make([]string, 0, len(list))
		for _, u := range list {
			names = append(names, fmt.Sprintf("%d %s", u.ID, u.Name))
		}
		return usersListedMsg(strings.Join(names, " · "))
	}
}

type usersListedMsg string

func (m *Model) switchUser(id int) tea.Cmd {
	ctrl, users := m.ctrl, m.users
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		name := fmt.Sprintf("#%d", id)
		if users != nil {
			u, ok := users.Lookup(ctx, id)
			if !ok {
				return userSwitchedMsg{userID: id}
			}
			name = u.Name
		}
		ctrl.SwitchUser(ctx, id)
		return userSwitchedMsg{userID: id, name: name, ok: true}
	}
}

// attach stages the file at path for the next message.
func (m *Model) attach(path string) {
	if path == "" {
		m.showToast(chat.LevelWarning, m.translate("tui.help"))
		return
	}
	f, err := os.Open(path)
	if err != nil {
		m.logger.Warn("Attachment not readable", log.FieldAttachment, path, log.FieldError, err)
		m.showToast(chat.LevelError, m.translate("tui.attach_failed"))
		return
	}
	defer f.Close()

	name := filepath.Base(path)
	a, err := chat.ReadAttachment(name, mime.TypeByExtension(filepath.Ext(name)), f)
	if err != nil && !errors.Is(err, chat.ErrAttachmentTooLarge) {
		m.logger.Warn("Attachment not readable", log.FieldAttachment, path, log.FieldError, err)
		m.showToast(chat.LevelError, m.translate("tui.attach_failed"))
		return
	}
	// An oversized file is rejected here with its own notification.
	_ = m.ctrl.StageAttachment(a)
}

// quick fires the canned prompt at the 1-based position n.
func (m *Model) quick(arg string) {
	var translator chat.Translator
	if m.locale != nil {
		translator = m.locale
	}
	cmds := chat.QuickCommands(translator)

	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(cmds) {
		texts := make([]string, 0, len(cmds))
		for i, q := range cmds {
			texts = append(texts, fmt.Sprintf("%d %s", i+1, q.Text))
		}
		m.showToast(chat.LevelInfo, strings.Join(texts, " · "))
		return
	}
	if !m.ctrl.Trigger().Fire(cmds[n-1].Text) {
		m.showToast(chat.LevelWarning, m.translate("tui.busy"))
	}
}

func (m *Model) toggleLocale() {
	if m.locale == nil {
		return
	}
	next := locale.Toggle(m.locale.Locale())
	if err := m.locale.SetLocale(context.Background(), next); err != nil {
		m.logger.Warn("Locale not changed", log.FieldLocale, next, log.FieldError, err)
		m.showToast(chat.LevelError, m.translate("locale.failed"))
		return
	}
	m.input.Placeholder = m.translate("chat.placeholder")
	m.showToast(chat.LevelInfo, m.translate("locale.name"))
	// Role labels changed.
	m.signature = ""
}

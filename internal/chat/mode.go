package chat

import "fmt"

// Mode selects the agent persona the backend answers with.
type Mode string

const (
	ModeAssistant Mode = "assistant"
	ModeAnalyst   Mode = "analyst"
	ModeEducator  Mode = "educator"
	ModeSimulator Mode = "simulator"
)

var modes = []Mode{ModeAssistant, ModeAnalyst, ModeEducator, ModeSimulator}

// Modes returns the supported modes in display order.
func Modes() []Mode {
	return append([]Mode(nil), modes...)
}

// ParseMode validates s. The empty string maps to ModeAssistant.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeAssistant, nil
	}
	for _, m := range modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown chat mode %q", s)
}

// LabelKey is the translation key of the mode's label.
func (m Mode) LabelKey() string {
	return "chat.mode." + string(m)
}

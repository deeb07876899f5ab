package chat

// Trigger is a stable handle for sending canned prompts. The handle never
// changes for a controller; Fire always reaches the controller's current send
// path, so holders such as quick-command buttons never act on stale state.
type Trigger struct {
	c *Controller
}

// Fire sends text without the staged attachment. It observes the same guard
// as Send and reports whether the message was accepted.
func (t *Trigger) Fire(text string) bool {
	h := t.c.handler.Load()
	if h == nil {
		return false
	}
	return (*h)(text)
}

// QuickCommand is a canned prompt offered next to the chat input.
type QuickCommand struct {
	Key  string
	Text string
}

var quickCommandKeys = []string{
	"quick.analyze",
	"quick.simulate",
	"quick.goals",
	"quick.add_expense",
}

// QuickCommands returns the canned prompts in the active language.
func QuickCommands(t Translator) []QuickCommand {
	out := make([]QuickCommand, 0, len(quickCommandKeys))
	for _, key := range quickCommandKeys {
		text := key
		if t != nil {
			text = t.Translate(key)
		}
		out = append(out, QuickCommand{Key: key, Text: text})
	}
	return out
}

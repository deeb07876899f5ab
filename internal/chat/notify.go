package chat

// Level is the severity of a transient notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a toast raised by the controller. Text is already
// translated; Key is kept for renderers that localize on their own.
type Notification struct {
	Level Level
	Key   string
	Text  string
}

// Notifier receives notifications. Implementations must not block.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Refresher is called after every successful answer with the mutations it
// reported, so dashboards can reload in the background.
type Refresher func(userID int, events []Event)

// Translator resolves interface strings.
type Translator interface {
	Translate(key string) string
}

var eventNotifications = map[Event]Notification{
	EventSaved:       {Level: LevelSuccess, Key: "chat.toast.saved"},
	EventGoalUpdated: {Level: LevelSuccess, Key: "chat.toast.goal_updated"},
}

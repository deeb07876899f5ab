package chat

import "strings"

// Event is a data mutation the assistant reported in its answer.
type Event string

const (
	EventSaved       Event = "saved"
	EventGoalUpdated Event = "goal_updated"
)

var (
	saveKeywords     = []string{"registad", "adicionad", "salv", "saved", "added", "recorded"}
	goalKeywords     = []string{"meta", "goal"}
	mutationKeywords = []string{"criad", "atualiz", "created", "updated"}
)

// DetectActions scans an assistant answer for save and goal-update keywords in
// Portuguese and English.
func DetectActions(text string) []Event {
	lower := strings.ToLower(text)

	var events []Event
	if containsAny(lower, saveKeywords) {
		events = append(events, EventSaved)
	}
	if containsAny(lower, goalKeywords) && containsAny(lower, mutationKeywords) {
		events = append(events, EventGoalUpdated)
	}
	return events
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

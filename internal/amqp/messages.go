package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RoutingKey is the key every mutation event is published with. Each queue
// bound with it gets its own copy, so several web instances can listen.
const RoutingKey = "finance.mutation"

// MutationEvent announces that the assistant changed the data of a user, so
// any process showing that user's dashboard should reload it.
type MutationEvent struct {
	UserID     int       `json:"user_id"`
	Events     []string  `json:"events"`
	OccurredAt time.Time `json:"occurred_at"`
	// Origin identifies the publishing process so it can skip its own events.
	Origin string `json:"origin,omitempty"`
}

var ErrInvalidEvent = errors.New("invalid mutation event")

// NewMutationEvent creates an event stamped with the current time.
func NewMutationEvent(userID int, events []string, origin string) *MutationEvent {
	return &MutationEvent{
		UserID:     userID,
		Events:     events,
		OccurredAt: time.Now().UTC(),
		Origin:     origin,
	}
}

// ToJSON converts the event to JSON bytes
func (m *MutationEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MutationEventFromJSON decodes and validates an event.
func MutationEventFromJSON(data []byte) (*MutationEvent, error) {
	var msg MutationEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID < 1 {
		return nil, fmt.Errorf("%w: user id %d", ErrInvalidEvent, msg.UserID)
	}
	return &msg, nil
}

package domain

import "encoding/json"

// EventType is the discriminator of the realtime envelope. The backend may
// introduce new types at any time; anything not listed here decodes to
// EventUnknown and is skipped by the dispatcher.
type EventType string

const (
	EventSessionCreated   EventType = "session.created"
	EventSessionAssigned  EventType = "session.assigned"
	EventSessionEscalated EventType = "session.escalated"
	EventSessionRerouted  EventType = "session.rerouted"
	EventMessageCreated   EventType = "message.created"
	EventUnknown          EventType = "unknown"
)

// Event is the decoded realtime envelope. Exactly the fields matching the
// type are populated; Session events carry Session, message.created carries
// Message (and usually Session too, for badge updates).
type Event struct {
	Type           EventType
	Session        *Session
	Message        *Message
	DepartmentName string
}

// envelope is the raw wire shape: {type, session?, message?, department_name?}
type envelope struct {
	Type           string          `json:"type"`
	Session        json.RawMessage `json:"session,omitempty"`
	Message        json.RawMessage `json:"message,omitempty"`
	DepartmentName string          `json:"department_name,omitempty"`
}

// ParseEvent decodes one inbound realtime frame. Unknown type strings are not
// an error: they produce an Event with Type == EventUnknown so the caller can
// ignore them. Malformed JSON is an error and the frame must be dropped.
func ParseEvent(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Event{}, err
	}

	ev := Event{DepartmentName: env.DepartmentName}

	switch EventType(env.Type) {
	case EventSessionCreated, EventSessionAssigned, EventSessionEscalated, EventSessionRerouted:
		ev.Type = EventType(env.Type)
	case EventMessageCreated:
		ev.Type = EventMessageCreated
	default:
		ev.Type = EventUnknown
		return ev, nil
	}

	if len(env.Session) > 0 {
		var s Session
		if err := json.Unmarshal(env.Session, &s); err != nil {
			return Event{}, err
		}
		ev.Session = &s
	}
	if len(env.Message) > 0 {
		var m Message
		if err := json.Unmarshal(env.Message, &m); err != nil {
			return Event{}, err
		}
		ev.Message = &m
	}

	return ev, nil
}

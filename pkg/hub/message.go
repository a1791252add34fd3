// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern.
package hub

import "encoding/json"

// Event types pushed to subscribers.
const (
	EventResult  = "result"
	EventBackend = "backend"
)

// Message is a pre-encoded payload queued for every client.
type Message struct {
	Data []byte
}

// Event is the envelope every broadcast JSON payload travels in.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// NewEventMessage encodes an event envelope.
func NewEventMessage(eventType string, payload any) (Message, error) {
	data, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		return Message{}, err
	}
	return Message{Data: data}, nil
}

package stream

import (
	"encoding/json"
	"fmt"
)

// EventType names the wire-level SSE event kinds.
type EventType string

const (
	EventConnected EventType = "connected"
	EventMessage   EventType = "message"
	EventMetadata  EventType = "metadata"
	EventRetrieval EventType = "retrieval"
	EventPing      EventType = "ping"
	EventError     EventType = "error"
	EventDone      EventType = "done"
)

// Event is one unit of the merged output sequence for a session.
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// IsTerminal reports whether the event ends the stream.
func (e Event) IsTerminal() bool {
	return e.Type == EventDone || e.Type == EventError
}

// SSE renders the event in text/event-stream framing. Marshal failures
// degrade to a null payload rather than breaking the frame.
func (e Event) SSE() string {
	data, err := json.Marshal(e.Data)
	if err != nil {
		data = []byte("null")
	}
	return fmt.Sprintf("event: %s\ndata: %s\n\n", e.Type, data)
}

package events

import "time"

// Event types carried on the bus.
const (
	TypeQueryResolved   = "QUERY_RESOLVED"
	TypeQueryRefused    = "QUERY_REFUSED"
	TypeDocumentChanged = "DOCUMENT_CHANGED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "QUERY_RESOLVED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the default Event implementation.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// DocumentChanged is the payload of a DOCUMENT_CHANGED event.
type DocumentChanged struct {
	Course string `json:"course"`
	Path   string `json:"path,omitempty"`
	Origin string `json:"origin"`
}

// DocumentChanged origins.
const (
	OriginWatcher = "watcher"
	OriginNats    = "nats"
	OriginCluster = "cluster"
	OriginAdmin   = "admin"
	OriginCLI     = "cli"
)

func NewDocumentChangedEvent(dc DocumentChanged) BaseEvent {
	return BaseEvent{
		Type: TypeDocumentChanged,
		Data: map[string]interface{}{
			"course": dc.Course,
			"path":   dc.Path,
			"origin": dc.Origin,
		},
		OccurredAt: time.Now(),
	}
}

// DocumentChangedFromPayload reads a DOCUMENT_CHANGED payload back.
func DocumentChangedFromPayload(data map[string]interface{}) DocumentChanged {
	str := func(k string) string {
		if v, ok := data[k].(string); ok {
			return v
		}
		return ""
	}
	return DocumentChanged{Course: str("course"), Path: str("path"), Origin: str("origin")}
}

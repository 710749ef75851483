package core

import "github.com/vovakirdan/bookstore-server/internal/store"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventNewMessage delivers a persisted direct message.
	EventNewMessage EventKind = iota
	// EventError notifies a single client about a failed request.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind    EventKind
	Message *store.Message
	Error   *CoreError
}

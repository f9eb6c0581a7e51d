package interfaces

import "context"

// EventType names a session lifecycle event
type EventType string

const (
	// EventSessionUpdated carries a models.SessionView after every mutation
	EventSessionUpdated EventType = "session_updated"
	// EventExportStatus carries a models.ExportState when an export changes state
	EventExportStatus EventType = "export_status"
	// EventSessionClosed carries the session id of a closed or evicted session
	EventSessionClosed EventType = "session_closed"
)

// Event is one published occurrence for a session
type Event struct {
	Type      EventType
	SessionID string
	Payload   interface{}
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, event Event) error

// Subscription identifies one Subscribe call
type Subscription uint64

// EventService fans session events out to subscribers
type EventService interface {
	// Subscribe registers handler for eventType. The returned token is
	// the only way to remove it again.
	Subscribe(eventType EventType, handler EventHandler) (Subscription, error)

	Unsubscribe(sub Subscription) error

	// Publish delivers to every subscriber on its own goroutine
	Publish(ctx context.Context, event Event) error

	// PublishSync waits for all handlers and joins their errors
	PublishSync(ctx context.Context, event Event) error

	// Close drops all subscribers
	Close() error
}

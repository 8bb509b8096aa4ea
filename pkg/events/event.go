package events

import (
	"time"

	"screentosong-be/pkg/store"
)

// Event type codes published on the bus.
const (
	TypeVerseCreated    = "VERSE_CREATED"
	TypeRenderCompleted = "RENDER_COMPLETED"
	TypeSessionCleared  = "SESSION_CLEARED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "VERSE_CREATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent helps embed common logic if needed,
// strictly creating valid implementations is preferred though.
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

// NewVerseCreated signals that a verse was appended to a session's history.
func NewVerseCreated(sessionID string, verse store.Verse) Event {
	return BaseEvent{
		Type: TypeVerseCreated,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"verse_id":   verse.Id.String(),
			"lines":      verse.Lines,
			"genre":      verse.Genre,
			"created_at": verse.CreatedAt.Format(time.RFC3339),
		},
		OccurredAt: time.Now(),
	}
}

// NewRenderCompleted signals a finished audio or video render. Kind is
// "song" or "video"; path is relative to the output directory.
func NewRenderCompleted(sessionID, kind, path string) Event {
	return BaseEvent{
		Type: TypeRenderCompleted,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"kind":       kind,
			"path":       path,
		},
		OccurredAt: time.Now(),
	}
}

// NewSessionCleared signals a full session reset.
func NewSessionCleared(sessionID string) Event {
	return BaseEvent{
		Type:       TypeSessionCleared,
		Data:       map[string]interface{}{"session_id": sessionID},
		OccurredAt: time.Now(),
	}
}

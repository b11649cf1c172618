package events

import (
	"time"

	"github.com/deskworks/service-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventEntryCreated       EventType = "entry_created"
	EventEntryStatusChanged EventType = "entry_status_changed"
	EventTimelineNoteAdded  EventType = "timeline_note_added"
	EventVisitAssigned      EventType = "visit_assigned"
	EventVisitUnchanged     EventType = "visit_unchanged"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"display_name"`
	Role        domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string           `json:"id"`
	Type      EventType        `json:"type"`
	EntryID   string           `json:"entry_id"`
	Kind      domain.EntryKind `json:"kind"`
	PublicID  string           `json:"public_id"`
	Actor     Actor            `json:"actor"`
	Timestamp time.Time        `json:"timestamp"`
	Payload   interface{}      `json:"payload"`
}

// EntryCreatedPayload payload.
type EntryCreatedPayload struct {
	OwnerID          string     `json:"owner_id"`
	Title            string     `json:"title"`
	Category         string     `json:"category"`
	PreferredVisitAt *time.Time `json:"preferred_visit_at,omitempty"`
}

// EntryStatusChangedPayload payload.
type EntryStatusChangedPayload struct {
	OldStatus   domain.Status `json:"old_status"`
	NewStatus   domain.Status `json:"new_status"`
	AutoAdvance bool          `json:"auto_advance,omitempty"`
}

// TimelineNoteAddedPayload payload.
type TimelineNoteAddedPayload struct {
	TimelineIndex int         `json:"timeline_index"`
	AuthorRole    domain.Role `json:"author_role"`
	ImageCount    int         `json:"image_count"`
	HasQuote      bool        `json:"has_quote"`
	NotePreview   string      `json:"note_preview"`
}

// VisitAssignedPayload payload; Previous is nil on first assignment.
type VisitAssignedPayload struct {
	Previous  *time.Time `json:"previous,omitempty"`
	VisitAt   time.Time  `json:"visit_at"`
	SlotLabel string     `json:"slot_label,omitempty"`
}

// Package domain holds the event-scheduling data model shared by the
// gateway, the state store, and the search engine.
package domain

// EventStatus is the lifecycle status of an event.
// Transitions are unrestricted; any status may follow any other.
type EventStatus string

const (
	EventStatusActive    EventStatus = "Active"
	EventStatusCancelled EventStatus = "Cancelled"
	EventStatusPostponed EventStatus = "Postponed"
)

// Valid reports whether s is a known event status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusActive, EventStatusCancelled, EventStatusPostponed:
		return true
	}
	return false
}

// ResponseStatus is an invitee's answer to an invitation.
type ResponseStatus string

const (
	ResponsePending  ResponseStatus = "Pending"
	ResponseGoing    ResponseStatus = "Going"
	ResponseMaybe    ResponseStatus = "Maybe"
	ResponseNotGoing ResponseStatus = "Not Going"
)

// Valid reports whether s is a known response status.
func (s ResponseStatus) Valid() bool {
	switch s {
	case ResponsePending, ResponseGoing, ResponseMaybe, ResponseNotGoing:
		return true
	}
	return false
}

// Label returns the display label for a response. Unknown values read as Pending.
func (s ResponseStatus) Label() string {
	switch s {
	case ResponseGoing:
		return "Going"
	case ResponseMaybe:
		return "Maybe"
	case ResponseNotGoing:
		return "Not Going"
	default:
		return "Pending"
	}
}

// DefaultParticipantRole is assigned when the backend or the inviter omits a role.
const DefaultParticipantRole = "Attendee"

// Event is a scheduled event as returned by the backend.
// Date and Time are kept as the free text the backend sends.
type Event struct {
	ID          ID          `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
	Time        string      `json:"time"`
	Location    string      `json:"location"`
	Status      EventStatus `json:"status"`
	UserID      ID          `json:"userId"` // organizer
	CreatedAt   string      `json:"createdAt,omitempty"`
	UpdatedAt   string      `json:"updatedAt,omitempty"`
}

// InvitedEvent is an Event seen from an invitee's side, annotated with the
// viewer's own participation.
type InvitedEvent struct {
	Event
	ParticipantStatus ResponseStatus `json:"participantStatus"`
	ParticipantRole   string         `json:"participantRole"`
}

// WithDefaults fills in Pending / Attendee when the backend omitted them.
func (e InvitedEvent) WithDefaults() InvitedEvent {
	if e.ParticipantStatus == "" {
		e.ParticipantStatus = ResponsePending
	}
	if e.ParticipantRole == "" {
		e.ParticipantRole = DefaultParticipantRole
	}
	return e
}

// CreateEventRequest is the payload for creating an event.
type CreateEventRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Date        string `json:"date" validate:"required"`
	Time        string `json:"time" validate:"required"`
	Location    string `json:"location" validate:"required"`
}

// UpdateStatusRequest is the body of an organizer status change.
type UpdateStatusRequest struct {
	Status EventStatus `json:"status"`
}

// RespondRequest is the body of an invitee response.
type RespondRequest struct {
	Status ResponseStatus `json:"status"`
}

// InviteRequest invites a user to an event.
type InviteRequest struct {
	UserID int64  `json:"userId" validate:"required,gt=0"`
	Role   string `json:"role"`
}

// CloneEvents returns a copy of events that shares no backing array.
func CloneEvents(events []Event) []Event {
	if events == nil {
		return nil
	}
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

// CloneInvitedEvents returns a copy of events that shares no backing array.
func CloneInvitedEvents(events []InvitedEvent) []InvitedEvent {
	if events == nil {
		return nil
	}
	out := make([]InvitedEvent, len(events))
	copy(out, events)
	return out
}

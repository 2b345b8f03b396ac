// Package sse publishes store and search changes to in-process subscribers
// and to UI clients connected over Server-Sent Events.
package sse

import (
	"time"

	"github.com/eventdesk/eventdesk-client/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventOrganized carries the full organized-events collection after it changed.
	EventOrganized EventType = "events.organized"
	// EventInvited carries the full invited-events collection after it changed.
	EventInvited EventType = "events.invited"
	// EventSelected carries the selected event, or null when cleared.
	EventSelected EventType = "events.selected"
	// EventStatus carries the store's loading flag and last error.
	EventStatus EventType = "events.status"
	// EventSearchResults carries a view's displayed search results.
	EventSearchResults EventType = "search.results"
	// EventSession reports sign-in and sign-out.
	EventSession EventType = "session"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to subscribers.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// OrganizedEventData is the data payload for events.organized.
type OrganizedEventData struct {
	Events []domain.Event `json:"events"`
}

// InvitedEventData is the data payload for events.invited.
type InvitedEventData struct {
	Events []domain.InvitedEvent `json:"events"`
}

// SelectedEventData is the data payload for events.selected.
type SelectedEventData struct {
	Event *domain.Event `json:"event"`
}

// StatusEventData is the data payload for events.status.
type StatusEventData struct {
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// SearchResultsEventData is the data payload for search.results.
type SearchResultsEventData struct {
	ViewID     string                `json:"view_id"`
	Organized  []domain.Event        `json:"organized"`
	Invited    []domain.InvitedEvent `json:"invited"`
	Pagination *domain.Pagination    `json:"pagination,omitempty"`
	Filtered   bool                  `json:"filtered"`
}

// SessionEventData is the data payload for session events.
type SessionEventData struct {
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user,omitempty"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ClientTime time.Time `json:"client_time"`
}

// NewOrganizedEvent creates an events.organized event.
func NewOrganizedEvent(events []domain.Event) Event {
	return Event{
		Type:      EventOrganized,
		Data:      OrganizedEventData{Events: events},
		Timestamp: time.Now(),
	}
}

// NewInvitedEvent creates an events.invited event.
func NewInvitedEvent(events []domain.InvitedEvent) Event {
	return Event{
		Type:      EventInvited,
		Data:      InvitedEventData{Events: events},
		Timestamp: time.Now(),
	}
}

// NewSelectedEvent creates an events.selected event. A nil event means the
// selection was cleared.
func NewSelectedEvent(event *domain.Event) Event {
	return Event{
		Type:      EventSelected,
		Data:      SelectedEventData{Event: event},
		Timestamp: time.Now(),
	}
}

// NewStatusEvent creates an events.status event.
func NewStatusEvent(loading bool, errMsg string) Event {
	return Event{
		Type:      EventStatus,
		Data:      StatusEventData{Loading: loading, Error: errMsg},
		Timestamp: time.Now(),
	}
}

// NewSearchResultsEvent creates a search.results event.
func NewSearchResultsEvent(data SearchResultsEventData) Event {
	return Event{
		Type:      EventSearchResults,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// NewSessionEvent creates a session event. A nil user means signed out.
func NewSessionEvent(user *domain.User) Event {
	return Event{
		Type:      EventSession,
		Data:      SessionEventData{Authenticated: user != nil, User: user},
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type: EventHeartbeat,
		Data: HeartbeatEventData{
			ClientTime: time.Now(),
		},
		Timestamp: time.Now(),
	}
}

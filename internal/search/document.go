// Package search filters events. The Engine runs remote searches and splits
// the results into organizer and invitee views; the Index mirrors the local
// snapshot in Bleve so cached events can be filtered without a remote call.
package search

import (
	"github.com/eventdesk/eventdesk-client/internal/domain"
)

// View names a role-partitioned collection.
type View string

const (
	ViewOrganized View = "organized"
	ViewInvited   View = "invited"
)

// Valid reports whether v is a known view.
func (v View) Valid() bool {
	return v == ViewOrganized || v == ViewInvited
}

// Document is one cached event in the index. The same event may be indexed
// once per view.
type Document struct {
	ID          string // "<view>:<event id>"
	View        View
	EventID     domain.ID
	Title       string
	Description string
	Location    string
	Date        string
	EventStatus domain.EventStatus
	UserStatus  domain.ResponseStatus
	Role        string
}

func docID(view View, eventID domain.ID) string {
	return string(view) + ":" + eventID.String()
}

// OrganizedDocument builds the document for an organized event.
func OrganizedDocument(e domain.Event) *Document {
	return &Document{
		ID:          docID(ViewOrganized, e.ID),
		View:        ViewOrganized,
		EventID:     e.ID,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		Date:        e.Date,
		EventStatus: e.Status,
	}
}

// InvitedDocument builds the document for an invited event.
func InvitedDocument(e domain.InvitedEvent) *Document {
	doc := OrganizedDocument(e.Event)
	doc.ID = docID(ViewInvited, e.ID)
	doc.View = ViewInvited
	doc.UserStatus = e.ParticipantStatus
	doc.Role = e.ParticipantRole
	return doc
}

// ToMap converts the document to the field names of the index mapping.
// Filter fields are folded.
func (d *Document) ToMap() map[string]any {
	m := map[string]any{
		"view":        string(d.View),
		"event_id":    d.EventID.String(),
		"title":       d.Title,
		"description": d.Description,
		"location":    d.Location,
		"date":        fold(d.Date),
	}
	if d.EventStatus != "" {
		m["event_status"] = fold(string(d.EventStatus))
	}
	if d.UserStatus != "" {
		m["user_status"] = fold(string(d.UserStatus))
	}
	if d.Role != "" {
		m["role"] = fold(d.Role)
	}
	return m
}

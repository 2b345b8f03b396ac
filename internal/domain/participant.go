package domain

import "strings"

// Permissions are the organizer-level capabilities a participant holds on an event.
type Permissions struct {
	CanManageEvent  bool `json:"canManageEvent"`
	CanInviteOthers bool `json:"canInviteOthers"`
	CanDeleteEvent  bool `json:"canDeleteEvent"`
}

// Participant links a user to an event. It is a separate record from the
// Event itself; an event's invitee list is never embedded in the Event.
type Participant struct {
	UserID       ID             `json:"userId"`
	EventID      ID             `json:"eventId"`
	Role         string         `json:"role"`
	Status       ResponseStatus `json:"status"`
	InvitedAt    string         `json:"invitedAt"`
	RespondedAt  *string        `json:"respondedAt"`
	HasResponded bool           `json:"hasResponded"`
	Permissions  Permissions    `json:"permissions"`
}

// ParticipantUser is a user listed as a participant of an event.
type ParticipantUser struct {
	ID        ID      `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	FullName  string  `json:"fullName"`
	IsActive  bool    `json:"isActive"`
	CreatedAt string  `json:"createdAt"`
	LastLogin *string `json:"lastLogin"`
}

// WithFullName recomputes FullName from the first and last name.
func (u ParticipantUser) WithFullName() ParticipantUser {
	u.FullName = strings.TrimSpace(u.FirstName + " " + u.LastName)
	return u
}

package gateway

import (
	"bytes"
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/eventdesk/eventdesk-client/internal/domain"
)

const eventsPath = "events"

// EventDetail is the data of a get-by-id response.
type EventDetail struct {
	Event     domain.Event        `json:"event"`
	Organizer *domain.Participant `json:"organizers,omitempty"`
}

// EventSummary is the abbreviated event some mutation responses echo back.
type EventSummary struct {
	ID       domain.ID `json:"id"`
	Title    string    `json:"title"`
	Date     string    `json:"date"`
	Time     string    `json:"time"`
	Location string    `json:"location"`
}

// StatusUpdate is the data of a status-change or response call.
type StatusUpdate struct {
	Participant *domain.Participant `json:"participant,omitempty"`
	Event       *EventSummary       `json:"event,omitempty"`
	Message     string              `json:"message,omitempty"`
}

// UserSummary identifies the user an invitation was sent to.
type UserSummary struct {
	ID       domain.ID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	FullName string    `json:"fullName"`
}

// Invitation is the data of an invite call.
type Invitation struct {
	Invitation  *domain.Participant `json:"invitation,omitempty"`
	Event       *EventSummary       `json:"event,omitempty"`
	InvitedUser *UserSummary        `json:"invitedUser,omitempty"`
}

// OrganizedEvents lists events the current user organizes.
func (c *Client) OrganizedEvents(ctx context.Context) (*Result[[]domain.Event], error) {
	return call(ctx, c, request{
		op:     "get-organized-events",
		method: http.MethodGet,
		path:   []string{eventsPath, "organizer"},
	}, decodeList[domain.Event])
}

// InvitedEvents lists events the current user is invited to.
func (c *Client) InvitedEvents(ctx context.Context) (*Result[[]domain.InvitedEvent], error) {
	return call(ctx, c, request{
		op:     "get-invited-events",
		method: http.MethodGet,
		path:   []string{eventsPath, "invited"},
	}, decodeList[domain.InvitedEvent])
}

// Event fetches a single event.
func (c *Client) Event(ctx context.Context, eventID domain.ID) (*Result[EventDetail], error) {
	return call(ctx, c, request{
		op:     "get-event",
		method: http.MethodGet,
		path:   []string{eventsPath, eventID.String()},
	}, decodeEventDetail)
}

// CreateEvent creates an event and returns it as stored by the backend.
func (c *Client) CreateEvent(ctx context.Context, payload domain.CreateEventRequest) (*Result[domain.Event], error) {
	return call(ctx, c, request{
		op:     "create-event",
		method: http.MethodPost,
		path:   []string{eventsPath},
		body:   payload,
	}, decodeSingleEvent)
}

// UpdateEventStatus changes an event's status as its organizer.
func (c *Client) UpdateEventStatus(ctx context.Context, eventID domain.ID, status domain.EventStatus) (*Result[StatusUpdate], error) {
	return call(ctx, c, request{
		op:     "update-event-status",
		method: http.MethodPatch,
		path:   []string{eventsPath, eventID.String(), "response"},
		body:   domain.UpdateStatusRequest{Status: status},
	}, decodeObject[StatusUpdate])
}

// RespondToInvitation records the current user's answer to an invitation.
// It shares its path with UpdateEventStatus; the verb tells them apart.
func (c *Client) RespondToInvitation(ctx context.Context, eventID domain.ID, status domain.ResponseStatus) (*Result[StatusUpdate], error) {
	return call(ctx, c, request{
		op:     "respond-to-invitation",
		method: http.MethodPut,
		path:   []string{eventsPath, eventID.String(), "response"},
		body:   domain.RespondRequest{Status: status},
	}, decodeObject[StatusUpdate])
}

// DeleteEvent deletes an event.
func (c *Client) DeleteEvent(ctx context.Context, eventID domain.ID) (*Result[struct{}], error) {
	return call[struct{}](ctx, c, request{
		op:     "delete-event",
		method: http.MethodDelete,
		path:   []string{eventsPath, eventID.String()},
	}, nil)
}

// Participants lists the users taking part in an event. FullName is
// recomputed from first and last name.
func (c *Client) Participants(ctx context.Context, eventID domain.ID) (*Result[[]domain.ParticipantUser], error) {
	res, err := call(ctx, c, request{
		op:     "get-participants",
		method: http.MethodGet,
		path:   []string{eventsPath, eventID.String(), "participants"},
	}, decodeParticipants)
	if err != nil {
		return nil, err
	}
	for i := range res.Data {
		res.Data[i] = res.Data[i].WithFullName()
	}
	return res, nil
}

// InviteUser invites a user to an event.
func (c *Client) InviteUser(ctx context.Context, eventID domain.ID, invite domain.InviteRequest) (*Result[Invitation], error) {
	return call(ctx, c, request{
		op:     "invite-user",
		method: http.MethodPost,
		path:   []string{eventsPath, eventID.String(), "invite"},
		body:   invite,
	}, decodeObject[Invitation])
}

// Search runs a unified search. Every non-empty criterion becomes a query
// parameter; the keyword is trimmed first.
func (c *Client) Search(ctx context.Context, criteria domain.SearchCriteria) (*Result[[]domain.SearchHit], error) {
	return call(ctx, c, request{
		op:     "search",
		method: http.MethodGet,
		path:   []string{eventsPath, "search"},
		query:  criteriaQuery(criteria),
	}, decodeList[domain.SearchHit])
}

// SearchLegacy runs a search with the older single-field filter shape.
//
// Deprecated: use Search.
func (c *Client) SearchLegacy(ctx context.Context, filters domain.LegacyFilters) (*Result[[]domain.SearchHit], error) {
	return call(ctx, c, request{
		op:     "search-legacy",
		method: http.MethodGet,
		path:   []string{eventsPath, "search"},
		query:  legacyQuery(filters),
	}, decodeList[domain.SearchHit])
}

func criteriaQuery(criteria domain.SearchCriteria) url.Values {
	q := url.Values{}
	set := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}
	set("keyword", strings.TrimSpace(criteria.Keyword))
	set("date", criteria.Date)
	set("userStatus", string(criteria.UserStatus))
	set("eventStatus", string(criteria.EventStatus))
	set("role", criteria.Role)
	return q
}

func legacyQuery(f domain.LegacyFilters) url.Values {
	q := url.Values{}
	set := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}
	set("keyword", strings.TrimSpace(f.Keyword))
	set("startDate", f.StartDate)
	set("endDate", f.EndDate)
	set("status", f.Status)
	set("role", f.Role)
	set("userId", f.UserID)
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	return q
}

// decodeList accepts the three list shapes the backend uses: a bare array,
// {"eventsData": [...]}, or {"events": [...]}. Anything else decodes to an
// empty list.
func decodeList[T any](raw jsontext.Value) ([]T, error) {
	if isNull(raw) {
		return []T{}, nil
	}

	if bytes.TrimSpace(raw)[0] == '[' {
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var wrapped struct {
		EventsData []T `json:"eventsData"`
		Events     []T `json:"events"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	switch {
	case wrapped.EventsData != nil:
		return wrapped.EventsData, nil
	case wrapped.Events != nil:
		return wrapped.Events, nil
	}
	return []T{}, nil
}

func decodeParticipants(raw jsontext.Value) ([]domain.ParticipantUser, error) {
	if isNull(raw) {
		return []domain.ParticipantUser{}, nil
	}
	if bytes.TrimSpace(raw)[0] == '[' {
		var users []domain.ParticipantUser
		err := json.Unmarshal(raw, &users)
		return users, err
	}
	var wrapped struct {
		ParticipantsData []domain.ParticipantUser `json:"participantsData"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.ParticipantsData == nil {
		return []domain.ParticipantUser{}, nil
	}
	return wrapped.ParticipantsData, nil
}

// decodeEventDetail accepts {"event": {...}, "organizers": {...}} or a bare event.
func decodeEventDetail(raw jsontext.Value) (EventDetail, error) {
	var detail EventDetail
	if isNull(raw) {
		return detail, errUnexpectedShape
	}

	var probe struct {
		Event jsontext.Value `json:"event"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return detail, err
	}
	if isNull(probe.Event) {
		err := json.Unmarshal(raw, &detail.Event)
		return detail, err
	}
	err := json.Unmarshal(raw, &detail)
	return detail, err
}

func decodeSingleEvent(raw jsontext.Value) (domain.Event, error) {
	detail, err := decodeEventDetail(raw)
	return detail.Event, err
}

func decodeObject[T any](raw jsontext.Value) (T, error) {
	var v T
	if isNull(raw) {
		return v, nil
	}
	err := json.Unmarshal(raw, &v)
	return v, err
}

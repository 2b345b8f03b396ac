package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/eventdesk/eventdesk-client/internal/domain"
	"github.com/eventdesk/eventdesk-client/internal/gateway"
)

func (s *Server) registerEventRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listOrganizedEvents",
		Method:      http.MethodGet,
		Path:        "/api/v1/events/organized",
		Summary:     "List organized events",
		Description: "Returns the cached events the user organizes; reload=true fetches them first",
		Tags:        []string{"Events"},
	}, s.handleListOrganized)

	huma.Register(s.api, huma.Operation{
		OperationID: "listInvitedEvents",
		Method:      http.MethodGet,
		Path:        "/api/v1/events/invited",
		Summary:     "List invited events",
		Description: "Returns the cached events the user is invited to; reload=true fetches them first",
		Tags:        []string{"Events"},
	}, s.handleListInvited)

	huma.Register(s.api, huma.Operation{
		OperationID: "getEvent",
		Method:      http.MethodGet,
		Path:        "/api/v1/events/{id}",
		Summary:     "Get event",
		Description: "Loads an event and makes it the selected event",
		Tags:        []string{"Events"},
	}, s.handleGetEvent)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createEvent",
		Method:        http.MethodPost,
		Path:          "/api/v1/events",
		Summary:       "Create event",
		Description:   "Creates an event and prepends it to the organized events",
		Tags:          []string{"Events"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateEvent)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateEventStatus",
		Method:      http.MethodPatch,
		Path:        "/api/v1/events/{id}/status",
		Summary:     "Update event status",
		Description: "Changes the status of an event the user organizes",
		Tags:        []string{"Events"},
	}, s.handleUpdateEventStatus)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteEvent",
		Method:        http.MethodDelete,
		Path:          "/api/v1/events/{id}",
		Summary:       "Delete event",
		Description:   "Deletes an event and removes it from the organized events",
		Tags:          []string{"Events"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteEvent)

	huma.Register(s.api, huma.Operation{
		OperationID: "listParticipants",
		Method:      http.MethodGet,
		Path:        "/api/v1/events/{id}/participants",
		Summary:     "List participants",
		Description: "Returns the users taking part in an event",
		Tags:        []string{"Events"},
	}, s.handleListParticipants)
}

// === DTOs ===

// ListEventsInput selects between the cache and a reload.
type ListEventsInput struct {
	Reload bool `query:"reload" doc:"Fetch from the backend before answering"`
}

// EventIDInput identifies an event by path.
type EventIDInput struct {
	ID string `path:"id" doc:"Event ID"`
}

// OrganizedEventsOutput wraps organized events for Huma.
type OrganizedEventsOutput struct {
	Body []domain.Event
}

// InvitedEventsOutput wraps invited events for Huma.
type InvitedEventsOutput struct {
	Body []domain.InvitedEvent
}

// EventDetailOutput wraps a loaded event for Huma.
type EventDetailOutput struct {
	Body gateway.EventDetail
}

// CreateEventInput wraps the create request for Huma.
type CreateEventInput struct {
	Body domain.CreateEventRequest
}

// EventOutput wraps a single event for Huma.
type EventOutput struct {
	Body domain.Event
}

// UpdateStatusInput wraps a status change for Huma.
type UpdateStatusInput struct {
	ID   string `path:"id" doc:"Event ID"`
	Body struct {
		Status domain.EventStatus `json:"status" enum:"Active,Cancelled,Postponed" doc:"New event status"`
	}
}

// StatusUpdateOutput wraps the backend's status change reply for Huma.
type StatusUpdateOutput struct {
	Body gateway.StatusUpdate
}

// ParticipantsOutput wraps participants for Huma.
type ParticipantsOutput struct {
	Body []domain.ParticipantUser
}

// === Handlers ===

func (s *Server) handleListOrganized(ctx context.Context, input *ListEventsInput) (*OrganizedEventsOutput, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	if input.Reload {
		err := s.run(ctx, func(ctx context.Context) error {
			_, err := s.services.Store.LoadOrganizedEvents(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	return &OrganizedEventsOutput{Body: nonNil(s.services.Store.OrganizedEvents())}, nil
}

func (s *Server) handleListInvited(ctx context.Context, input *ListEventsInput) (*InvitedEventsOutput, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	if input.Reload {
		err := s.run(ctx, func(ctx context.Context) error {
			_, err := s.services.Store.LoadInvitedEvents(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	return &InvitedEventsOutput{Body: nonNil(s.services.Store.InvitedEvents())}, nil
}

func (s *Server) handleGetEvent(ctx context.Context, input *EventIDInput) (*EventDetailOutput, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	var detail *gateway.EventDetail
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		detail, err = s.services.Store.LoadEvent(ctx, domain.ID(input.ID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &EventDetailOutput{Body: *detail}, nil
}

func (s *Server) handleCreateEvent(ctx context.Context, input *CreateEventInput) (*EventOutput, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	var created *domain.Event
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.services.Store.CreateEvent(ctx, input.Body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &EventOutput{Body: *created}, nil
}

func (s *Server) handleUpdateEventStatus(ctx context.Context, input *UpdateStatusInput) (*StatusUpdateOutput, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	var update *gateway.StatusUpdate
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		update, err = s.services.Store.UpdateEventStatus(ctx, domain.ID(input.ID), input.Body.Status)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &StatusUpdateOutput{Body: *update}, nil
}

func (s *Server) handleDeleteEvent(ctx context.Context, input *EventIDInput) (*struct{}, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	err := s.run(ctx, func(ctx context.Context) error {
		return s.services.Store.DeleteEvent(ctx, domain.ID(input.ID))
	})
	if err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleListParticipants(ctx context.Context, input *EventIDInput) (*ParticipantsOutput, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	var users []domain.ParticipantUser
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		users, err = s.services.Store.Participants(ctx, domain.ID(input.ID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &ParticipantsOutput{Body: users}, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

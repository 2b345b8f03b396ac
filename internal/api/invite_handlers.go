package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/eventdesk/eventdesk-client/internal/domain"
	"github.com/eventdesk/eventdesk-client/internal/gateway"
	"github.com/eventdesk/eventdesk-client/internal/invite"
)

func (s *Server) registerInviteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "inviteUser",
		Method:      http.MethodPost,
		Path:        "/api/v1/events/{id}/invite",
		Summary:     "Invite user",
		Description: "Invites a user to an event. The role defaults to Attendee.",
		Tags:        []string{"Invitations"},
	}, s.handleInviteUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "respondToInvitation",
		Method:      http.MethodPut,
		Path:        "/api/v1/events/{id}/response",
		Summary:     "Respond to invitation",
		Description: "Records the user's answer to an invitation",
		Tags:        []string{"Invitations"},
	}, s.handleRespond)

	huma.Register(s.api, huma.Operation{
		OperationID: "listResponses",
		Method:      http.MethodGet,
		Path:        "/api/v1/responses",
		Summary:     "List recorded responses",
		Description: "Returns the answers given during this run, keyed by event ID. They are not reconciled with the invited events.",
		Tags:        []string{"Invitations"},
	}, s.handleListResponses)
}

// === DTOs ===

// InviteInput wraps an invitation for Huma. A missing userId fails locally.
type InviteInput struct {
	ID   string `path:"id" doc:"Event ID"`
	Body struct {
		UserID int64  `json:"userId,omitempty" doc:"User to invite"`
		Role   string `json:"role,omitempty" doc:"Participant role (default Attendee)"`
	}
}

// InviteResponse is the backend's invitation plus the message to show.
type InviteResponse struct {
	Invitation *gateway.Invitation `json:"invitation" doc:"Invitation as recorded by the backend"`
	Notice     invite.Notice       `json:"notice" doc:"Message to show"`
}

// InviteOutput wraps the invite response for Huma.
type InviteOutput struct {
	Body InviteResponse
}

// RespondInput wraps an invitation answer for Huma.
type RespondInput struct {
	ID   string `path:"id" doc:"Event ID"`
	Body struct {
		Status domain.ResponseStatus `json:"status" enum:"Pending,Going,Maybe,Not Going" doc:"Answer"`
	}
}

// RespondResponse reports a saved answer.
type RespondResponse struct {
	EventID domain.ID             `json:"eventId" doc:"Event ID"`
	Status  domain.ResponseStatus `json:"status" doc:"Recorded answer"`
	Notice  invite.Notice         `json:"notice" doc:"Message to show"`
}

// RespondOutput wraps the respond response for Huma.
type RespondOutput struct {
	Body RespondResponse
}

// ResponsesOutput wraps recorded answers for Huma.
type ResponsesOutput struct {
	Body map[domain.ID]domain.ResponseStatus
}

// === Handlers ===

func (s *Server) handleInviteUser(ctx context.Context, input *InviteInput) (*InviteOutput, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}

	composer := invite.NewComposer(s.services.Store, s.services.Validator, s.logger)
	composer.Open(domain.ID(input.ID))
	composer.SetTarget(input.Body.UserID, input.Body.Role)

	var inv *gateway.Invitation
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		inv, err = composer.Send(ctx)
		return err
	})
	if err != nil {
		apiErr := toAPIError(err)
		apiErr.Message = composer.Notice().Text
		return nil, apiErr
	}

	return &InviteOutput{Body: InviteResponse{Invitation: inv, Notice: composer.Notice()}}, nil
}

func (s *Server) handleRespond(ctx context.Context, input *RespondInput) (*RespondOutput, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}

	eventID := domain.ID(input.ID)
	err := s.run(ctx, func(ctx context.Context) error {
		return s.services.Responder.Respond(ctx, eventID, input.Body.Status)
	})
	if err != nil {
		apiErr := toAPIError(err)
		if n := s.services.Responder.Notice(); n.Kind == invite.NoticeError {
			apiErr.Message = n.Text
		}
		return nil, apiErr
	}

	return &RespondOutput{Body: RespondResponse{
		EventID: eventID,
		Status:  input.Body.Status,
		Notice:  s.services.Responder.Notice(),
	}}, nil
}

func (s *Server) handleListResponses(_ context.Context, _ *struct{}) (*ResponsesOutput, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	return &ResponsesOutput{Body: s.services.Responder.Responded()}, nil
}

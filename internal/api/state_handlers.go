package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/eventdesk/eventdesk-client/internal/domain"
	"github.com/eventdesk/eventdesk-client/internal/store"
)

func (s *Server) registerStateRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getState",
		Method:      http.MethodGet,
		Path:        "/api/v1/state",
		Summary:     "Current state",
		Description: "Returns the cached events, selection, loading flag, last error, and session",
		Tags:        []string{"State"},
	}, s.handleGetState)

	huma.Register(s.api, huma.Operation{
		OperationID: "refresh",
		Method:      http.MethodPost,
		Path:        "/api/v1/refresh",
		Summary:     "Refresh events",
		Description: "Reloads organized and invited events concurrently",
		Tags:        []string{"State"},
	}, s.handleRefresh)

	huma.Register(s.api, huma.Operation{
		OperationID: "clearError",
		Method:      http.MethodDelete,
		Path:        "/api/v1/state/error",
		Summary:     "Clear last error",
		Description: "Dismisses the last recorded error and returns the state",
		Tags:        []string{"State"},
	}, s.handleClearError)
}

// SessionResponse describes who is signed in.
type SessionResponse struct {
	Authenticated bool         `json:"authenticated" doc:"Whether a user is signed in"`
	User          *domain.User `json:"user,omitempty" doc:"Signed-in user"`
}

// StateResponse is the store snapshot plus the session.
type StateResponse struct {
	store.Snapshot
	Session SessionResponse `json:"session" doc:"Current session"`
}

// StateOutput wraps the state response for Huma.
type StateOutput struct {
	Body StateResponse
}

func (s *Server) handleGetState(_ context.Context, _ *struct{}) (*StateOutput, error) {
	return &StateOutput{Body: s.state()}, nil
}

func (s *Server) handleRefresh(ctx context.Context, _ *struct{}) (*StateOutput, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	if err := s.run(ctx, s.services.Store.Refresh); err != nil {
		return nil, err
	}
	return &StateOutput{Body: s.state()}, nil
}

func (s *Server) handleClearError(_ context.Context, _ *struct{}) (*StateOutput, error) {
	s.services.Store.ClearError()
	return &StateOutput{Body: s.state()}, nil
}

func (s *Server) state() StateResponse {
	resp := StateResponse{Snapshot: s.services.Store.Snapshot()}
	if s.services.Auth != nil {
		resp.Session = SessionResponse{
			Authenticated: s.services.Auth.Authenticated(),
			User:          s.services.Auth.CurrentUser(),
		}
	}
	return resp
}

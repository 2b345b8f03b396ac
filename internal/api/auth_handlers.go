package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/eventdesk/eventdesk-client/internal/domain"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "User login",
		Description: "Signs in against the backend and persists the session",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/register",
		Summary:       "Register new user",
		Description:   "Creates an account on the backend and signs it in",
		Tags:          []string{"Authentication"},
		DefaultStatus: http.StatusCreated,
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Logout",
		Description: "Clears the session and the cached events",
		Tags:        []string{"Authentication"},
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/me",
		Summary:     "Current user",
		Description: "Returns the signed-in user",
		Tags:        []string{"Authentication"},
	}, s.handleGetCurrentUser)
}

// === DTOs ===

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body domain.LoginRequest
}

// RegisterInput wraps the register request for Huma.
type RegisterInput struct {
	Body domain.SignupRequest
}

// UserOutput wraps a user for Huma.
type UserOutput struct {
	Body domain.User
}

// MessageResponse contains a simple message.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// === Handlers ===

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*UserOutput, error) {
	var user *domain.User
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.services.Auth.Login(ctx, input.Body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: *user}, nil
}

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*UserOutput, error) {
	var user *domain.User
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.services.Auth.Register(ctx, input.Body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: *user}, nil
}

func (s *Server) handleLogout(_ context.Context, _ *struct{}) (*MessageOutput, error) {
	if err := s.services.Auth.Logout(); err != nil {
		return nil, toAPIError(err)
	}
	return &MessageOutput{Body: MessageResponse{Message: "Logged out"}}, nil
}

func (s *Server) handleGetCurrentUser(_ context.Context, _ *struct{}) (*UserOutput, error) {
	user := s.services.Auth.CurrentUser()
	if user == nil || !s.services.Auth.Authenticated() {
		return nil, huma.Error401Unauthorized("Authentication required")
	}
	return &UserOutput{Body: *user}, nil
}

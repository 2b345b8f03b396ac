// Package auth signs the user in and out against the backend and keeps the
// session store in step. Tokens are issued by the backend; this package only
// stores and forwards them.
package auth

import (
	"context"
	"log/slog"

	"github.com/eventdesk/eventdesk-client/internal/domain"
	domainerrors "github.com/eventdesk/eventdesk-client/internal/errors"
	"github.com/eventdesk/eventdesk-client/internal/gateway"
	"github.com/eventdesk/eventdesk-client/internal/session"
	"github.com/eventdesk/eventdesk-client/internal/sse"
	"github.com/eventdesk/eventdesk-client/internal/validation"
)

const (
	msgLoginFailed    = "Login failed"
	msgRegisterFailed = "Registration failed"
	msgSessionExpired = "Session expired. Please log in again."
)

// Backend is the part of the gateway the service calls.
type Backend interface {
	Login(ctx context.Context, creds domain.LoginRequest) (*gateway.Result[gateway.AuthPayload], error)
	Register(ctx context.Context, signup domain.SignupRequest) (*gateway.Result[gateway.AuthPayload], error)
	Verify(ctx context.Context) (*gateway.Verification, error)
	Refresh(ctx context.Context, refreshToken string) (*gateway.Result[gateway.AuthPayload], error)
}

// Resetter drops cached state that belongs to the signed-in user.
type Resetter interface {
	Reset()
}

// Emitter publishes session changes.
type Emitter interface {
	Emit(event any)
}

// Options configures a Service.
type Options struct {
	Reset     Resetter
	Emitter   Emitter
	Validator *validation.Validator
	Logger    *slog.Logger
}

// Service handles sign-in, sign-out, and token checks.
type Service struct {
	backend   Backend
	session   *session.Store
	reset     Resetter
	emitter   Emitter
	validator *validation.Validator
	logger    *slog.Logger
}

// NewService creates an auth service over an opened session store.
func NewService(backend Backend, sess *session.Store, opts Options) *Service {
	if opts.Validator == nil {
		opts.Validator = validation.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		backend:   backend,
		session:   sess,
		reset:     opts.Reset,
		emitter:   opts.Emitter,
		validator: opts.Validator,
		logger:    opts.Logger,
	}
}

// Login exchanges credentials for a session.
func (s *Service) Login(ctx context.Context, creds domain.LoginRequest) (*domain.User, error) {
	if err := s.validator.Validate(creds); err != nil {
		return nil, err
	}
	res, err := s.backend.Login(ctx, creds)
	return s.establish(res, err, msgLoginFailed)
}

// Register creates an account and signs it in.
func (s *Service) Register(ctx context.Context, signup domain.SignupRequest) (*domain.User, error) {
	if err := s.validator.Validate(signup); err != nil {
		return nil, err
	}
	res, err := s.backend.Register(ctx, signup)
	return s.establish(res, err, msgRegisterFailed)
}

// establish saves a successful auth response. A response missing the user
// or the token is an error and leaves the session as it was.
func (s *Service) establish(res *gateway.Result[gateway.AuthPayload], err error, fallback string) (*domain.User, error) {
	if err != nil {
		return nil, err
	}
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = fallback
		}
		return nil, domainerrors.Rejected(msg)
	}
	if res.Data.User == nil || res.Data.Token == "" {
		s.logger.Error("auth response is missing user or token")
		return nil, domainerrors.Internal("auth response is missing user or token")
	}

	user := *res.Data.User
	if err := s.session.Save(res.Data.Token, user); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "save session")
	}
	s.logger.Info("signed in", "user_id", user.ID)
	s.emit(&user)
	return &user, nil
}

// Logout ends the session and drops the signed-in user's cached events.
func (s *Service) Logout() error {
	if err := s.session.Clear(); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "clear session")
	}
	if s.reset != nil {
		s.reset.Reset()
	}
	s.logger.Info("signed out")
	s.emit(nil)
	return nil
}

// Verify asks the backend whether the saved token is still accepted. A
// rejected token ends the session.
func (s *Service) Verify(ctx context.Context) (*domain.User, error) {
	if !s.session.Authenticated() {
		return nil, domainerrors.Unauthorized(msgSessionExpired)
	}

	v, err := s.backend.Verify(ctx)
	if err != nil {
		return nil, err
	}
	if !v.Valid {
		if logoutErr := s.Logout(); logoutErr != nil {
			return nil, logoutErr
		}
		return nil, domainerrors.Unauthorized(msgSessionExpired)
	}

	if v.User != nil {
		if err := s.session.Save(s.session.Token(), *v.User); err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "save session")
		}
	}
	return s.session.User(), nil
}

// Refresh trades refreshToken for a new access token and keeps the user.
func (s *Service) Refresh(ctx context.Context, refreshToken string) error {
	if !s.session.Authenticated() {
		return domainerrors.Unauthorized(msgSessionExpired)
	}
	res, err := s.backend.Refresh(ctx, refreshToken)
	if err != nil {
		return err
	}
	if !res.Success || res.Data.Token == "" {
		return domainerrors.Rejected(msgSessionExpired)
	}
	if err := s.session.SetToken(res.Data.Token); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "save token")
	}
	return nil
}

// Unauthorized ends the session after the backend answered 401.
func (s *Service) Unauthorized() {
	if s.session.Token() == "" && s.session.UserID() == "" {
		return
	}
	s.logger.Warn("backend rejected the session token, signing out")
	if err := s.Logout(); err != nil {
		s.logger.Error("failed to clear session", "error", err)
	}
}

// CurrentUser returns the signed-in user, or nil.
func (s *Service) CurrentUser() *domain.User {
	return s.session.User()
}

// CurrentUserID returns the signed-in user's ID, or "".
func (s *Service) CurrentUserID() domain.ID {
	return s.session.UserID()
}

// Authenticated reports whether a usable session exists.
func (s *Service) Authenticated() bool {
	return s.session.Authenticated()
}

func (s *Service) emit(user *domain.User) {
	if s.emitter != nil {
		s.emitter.Emit(sse.NewSessionEvent(user))
	}
}

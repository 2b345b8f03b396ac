package gateway

import (
	"context"
	"encoding/json/v2"
	"net/http"

	"github.com/eventdesk/eventdesk-client/internal/domain"
	domainerrors "github.com/eventdesk/eventdesk-client/internal/errors"
)

const authPath = "auth"

// AuthPayload is the data of a login, register, or refresh response.
type AuthPayload struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// Verification is the body of a token verification response. Unlike the
// other endpoints it is not wrapped in an envelope.
type Verification struct {
	Valid bool         `json:"valid"`
	User  *domain.User `json:"user,omitempty"`
}

// Login exchanges credentials for a token. Sent without Authorization.
func (c *Client) Login(ctx context.Context, creds domain.LoginRequest) (*Result[AuthPayload], error) {
	return call(ctx, c, request{
		op:        "login",
		method:    http.MethodPost,
		path:      []string{authPath, "login"},
		body:      creds,
		anonymous: true,
	}, decodeObject[AuthPayload])
}

// Register creates an account and returns its first token. Sent without Authorization.
func (c *Client) Register(ctx context.Context, signup domain.SignupRequest) (*Result[AuthPayload], error) {
	return call(ctx, c, request{
		op:        "register",
		method:    http.MethodPost,
		path:      []string{authPath, "register"},
		body:      signup,
		anonymous: true,
	}, decodeObject[AuthPayload])
}

// Verify asks the backend whether the current token is still valid.
func (c *Client) Verify(ctx context.Context) (*Verification, error) {
	req := request{
		op:     "verify-token",
		method: http.MethodGet,
		path:   []string{authPath, "verify"},
	}
	status, raw, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	var v Verification
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, c.wrap(req, status, domainerrors.Wrap(err, domainerrors.CodeInternal, "decode response"))
	}
	return &v, nil
}

// Refresh exchanges a refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Result[AuthPayload], error) {
	return call(ctx, c, request{
		op:     "refresh-token",
		method: http.MethodPost,
		path:   []string{authPath, "refresh"},
		body:   map[string]string{"refreshToken": refreshToken},
	}, decodeObject[AuthPayload])
}

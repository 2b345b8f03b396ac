package invite

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/eventdesk/eventdesk-client/internal/domain"
	domainerrors "github.com/eventdesk/eventdesk-client/internal/errors"
	"github.com/eventdesk/eventdesk-client/internal/gateway"
	"github.com/eventdesk/eventdesk-client/internal/validation"
)

const (
	msgInvalidTarget  = "Please enter a valid User ID"
	msgInviteSent     = "Invitation sent successfully!"
	msgInviteFallback = "Failed to send invitation"
)

// Draft is the invitation being composed.
type Draft struct {
	EventID domain.ID `json:"eventId,omitempty"`
	UserID  int64     `json:"userId,omitempty"`
	Role    string    `json:"role"`
	Open    bool      `json:"open"`
}

// Composer builds and sends one invitation at a time. Opening, closing, and
// a successful send all reset the draft; a failed send keeps it so the user
// can correct and retry.
type Composer struct {
	backend   Backend
	validator *validation.Validator
	logger    *slog.Logger

	mu     sync.Mutex
	draft  Draft
	notice Notice
}

// NewComposer creates a closed composer.
func NewComposer(backend Backend, v *validation.Validator, logger *slog.Logger) *Composer {
	if v == nil {
		v = validation.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		backend:   backend,
		validator: v,
		logger:    logger,
		draft:     Draft{Role: domain.DefaultParticipantRole},
	}
}

// Open starts a fresh invitation for eventID.
func (c *Composer) Open(eventID domain.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = Draft{EventID: eventID, Role: domain.DefaultParticipantRole, Open: true}
	c.notice = Notice{}
}

// SetTarget sets who to invite. An empty role keeps the default.
func (c *Composer) SetTarget(userID int64, role string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.UserID = userID
	if role = strings.TrimSpace(role); role != "" {
		c.draft.Role = role
	} else {
		c.draft.Role = domain.DefaultParticipantRole
	}
}

// Close discards the draft.
func (c *Composer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = Draft{Role: domain.DefaultParticipantRole}
}

// Draft returns the current draft.
func (c *Composer) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Notice returns the message of the last send.
func (c *Composer) Notice() Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notice
}

// Send submits the draft. Without an open draft or a target user it fails
// locally with a VALIDATION error and nothing is sent.
func (c *Composer) Send(ctx context.Context) (*gateway.Invitation, error) {
	c.mu.Lock()
	draft := c.draft
	c.mu.Unlock()

	req := domain.InviteRequest{UserID: draft.UserID, Role: draft.Role}
	if !draft.Open || draft.EventID == "" || c.validator.Validate(req) != nil {
		c.setNotice(failure(msgInvalidTarget))
		return nil, domainerrors.Validation(msgInvalidTarget)
	}

	c.logger.Debug("sending invitation", "event_id", draft.EventID, "user_id", draft.UserID, "role", draft.Role)

	inv, err := c.backend.InviteUser(ctx, draft.EventID, req)
	if err != nil {
		c.setNotice(failure(msgInviteFallback + ": " + domainerrors.UserMessage(err, msgInviteFallback)))
		return nil, err
	}

	c.mu.Lock()
	// A draft reopened for another event while the call was out stays.
	if c.draft == draft {
		c.draft = Draft{Role: domain.DefaultParticipantRole}
	}
	c.notice = success(msgInviteSent)
	c.mu.Unlock()
	return inv, nil
}

func (c *Composer) setNotice(n Notice) {
	c.mu.Lock()
	c.notice = n
	c.mu.Unlock()
}

// Package invite holds the short-lived state behind inviting a user to an
// event and answering an invitation. Neither flow touches the event
// snapshot; they forward to the store and remember the outcome for display.
package invite

import (
	"context"

	"github.com/eventdesk/eventdesk-client/internal/domain"
	"github.com/eventdesk/eventdesk-client/internal/gateway"
)

// Backend is the part of the store the workflows call.
type Backend interface {
	InviteUser(ctx context.Context, eventID domain.ID, invite domain.InviteRequest) (*gateway.Invitation, error)
	RespondToInvitation(ctx context.Context, eventID domain.ID, status domain.ResponseStatus) (*gateway.StatusUpdate, error)
}

// NoticeKind classifies a Notice.
type NoticeKind string

const (
	NoticeNone    NoticeKind = ""
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is the message a view shows after a workflow step.
type Notice struct {
	Kind NoticeKind `json:"kind,omitempty"`
	Text string     `json:"text,omitempty"`
}

func success(text string) Notice { return Notice{Kind: NoticeSuccess, Text: text} }
func failure(text string) Notice { return Notice{Kind: NoticeError, Text: text} }

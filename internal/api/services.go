package api

import (
	"github.com/eventdesk/eventdesk-client/internal/auth"
	"github.com/eventdesk/eventdesk-client/internal/call"
	"github.com/eventdesk/eventdesk-client/internal/invite"
	"github.com/eventdesk/eventdesk-client/internal/search"
	"github.com/eventdesk/eventdesk-client/internal/sse"
	"github.com/eventdesk/eventdesk-client/internal/store"
	"github.com/eventdesk/eventdesk-client/internal/validation"
)

// Services groups the components the bridge drives.
type Services struct {
	Store     *store.Store
	Search    *search.Engine
	Index     *search.Index // optional, reported by /health
	Auth      *auth.Service
	Responder *invite.Responder
	Validator *validation.Validator
	Calls     *call.Group
	Broker    *sse.Manager
}

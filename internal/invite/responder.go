package invite

import (
	"context"
	"log/slog"
	"maps"
	"sync"

	"github.com/eventdesk/eventdesk-client/internal/domain"
	domainerrors "github.com/eventdesk/eventdesk-client/internal/errors"
)

const msgRespondFailed = "Failed to send response. Please try again."

// Responder records the current user's answers to invitations.
//
// The responded map is presentational: it is set only after the backend
// accepts a response and is never reconciled with the store's invited
// events or the server. It lives as long as the Responder.
type Responder struct {
	backend Backend
	logger  *slog.Logger

	mu         sync.Mutex
	responded  map[domain.ID]domain.ResponseStatus
	responding map[domain.ID]int
	notice     Notice
}

// NewResponder creates a Responder with no recorded responses.
func NewResponder(backend Backend, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{
		backend:    backend,
		logger:     logger,
		responded:  make(map[domain.ID]domain.ResponseStatus),
		responding: make(map[domain.ID]int),
	}
}

// Respond sends status for eventID. On success the answer is recorded and
// the notice reads "Response saved: <label>".
func (r *Responder) Respond(ctx context.Context, eventID domain.ID, status domain.ResponseStatus) error {
	if eventID == "" || !status.Valid() {
		return domainerrors.Validationf("invalid response %q", status)
	}

	r.mu.Lock()
	r.responding[eventID]++
	r.notice = Notice{}
	r.mu.Unlock()

	_, err := r.backend.RespondToInvitation(ctx, eventID, status)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.responding[eventID]--; r.responding[eventID] <= 0 {
		delete(r.responding, eventID)
	}
	if err != nil {
		r.notice = failure(msgRespondFailed)
		r.logger.Debug("response not saved", "event_id", eventID, "status", status, "error", err)
		return err
	}
	r.responded[eventID] = status
	r.notice = success("Response saved: " + status.Label())
	return nil
}

// Status returns the recorded answer for eventID.
func (r *Responder) Status(eventID domain.ID) (domain.ResponseStatus, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.responded[eventID]
	return s, ok
}

// HasResponded reports whether an answer for eventID was recorded.
func (r *Responder) HasResponded(eventID domain.ID) bool {
	_, ok := r.Status(eventID)
	return ok
}

// Responding reports whether a response for eventID is in flight.
func (r *Responder) Responding(eventID domain.ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.responding[eventID] > 0
}

// Responded returns a copy of every recorded answer.
func (r *Responder) Responded() map[domain.ID]domain.ResponseStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.responded)
}

// Notice returns the message of the last response.
func (r *Responder) Notice() Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.notice
}

package store

import (
	"context"
	"strings"

	domainerrors "github.com/eventdesk/eventdesk-client/internal/errors"
	"github.com/eventdesk/eventdesk-client/internal/gateway"
)

// Per-operation fallback messages, used when the failure carries no
// server message.
const (
	msgLoadEvents        = "Failed to load events"
	msgLoadInvitedEvents = "Failed to load invited events"
	msgLoadEvent         = "Failed to load event"
	msgCreateEvent       = "Failed to create event"
	msgUpdateStatus      = "Failed to update event status"
	msgDeleteEvent       = "Failed to delete event"
	msgLoadParticipants  = "Failed to load participants"
	msgInviteUser        = "Failed to invite user"
	msgSubmitResponse    = "Failed to submit response"
	msgSearchEvents      = "Failed to search events"
)

// begin marks an operation in flight, clears the last error, and issues a
// ticket for key ("" for calls that never touch the snapshot).
func (s *Store) begin(key string) ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inflight++
	s.lastErr = ""
	s.publishStatusLocked()
	return s.seq.next(key)
}

// endLocked clears this operation's share of the loading flag.
func (s *Store) endLocked() {
	s.inflight--
	s.publishStatusLocked()
}

// end is endLocked for callers that do not hold the lock.
func (s *Store) end() {
	s.mu.Lock()
	s.endLocked()
	s.mu.Unlock()
}

// fail ends the operation and records err's user message. Cancellation is
// not recorded.
func (s *Store) fail(op string, err error, fallback string) error {
	msg := failureMessage(err, fallback)

	s.mu.Lock()
	if domainerrors.CodeOf(err) != domainerrors.CodeCanceled {
		s.lastErr = msg
	}
	s.endLocked()
	s.mu.Unlock()

	s.logger.Warn("event operation failed",
		"op", op,
		"status", gateway.StatusCode(err),
		"error", err,
	)
	return err
}

// admitLocked decides whether a successful result may still be applied.
func (s *Store) admitLocked(ctx context.Context, t ticket) error {
	if err := ctx.Err(); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeCanceled, "call canceled before its result was applied")
	}
	if !s.seq.admit(t) {
		return domainerrors.ErrSuperseded
	}
	return nil
}

// discardLocked ends an operation whose result was not applied.
func (s *Store) discardLocked(op string, err error) error {
	s.endLocked()
	s.logger.Debug("discarding result", "op", op, "reason", err)
	return err
}

// settle turns a backend reply into an error: transport and HTTP failures
// pass through, and a success=false envelope becomes a rejection carrying
// the envelope message.
func settle[T any](res *gateway.Result[T], err error, fallback string) error {
	if err != nil {
		return err
	}
	if res == nil {
		return domainerrors.Internal("empty backend result")
	}
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = fallback
		}
		return domainerrors.Rejected(msg)
	}
	return nil
}

// failureMessage is the text recorded for err. Field errors from the
// backend are listed under the validation summary.
func failureMessage(err error, fallback string) string {
	if lines := domainerrors.FieldMessages(domainerrors.FieldErrors(err)); len(lines) > 0 {
		return domainerrors.ValidationSummary + "\n" + strings.Join(lines, "\n")
	}
	return domainerrors.UserMessage(err, fallback)
}

package store

import (
	"context"
	"net/http"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/eventdesk/eventdesk-client/internal/domain"
	domainerrors "github.com/eventdesk/eventdesk-client/internal/errors"
	"github.com/eventdesk/eventdesk-client/internal/gateway"
)

// LoadOrganizedEvents replaces the organized collection with the backend's.
func (s *Store) LoadOrganizedEvents(ctx context.Context) ([]domain.Event, error) {
	t := s.begin(keyOrganized)

	res, err := s.backend.OrganizedEvents(ctx)
	if err = settle(res, err, msgLoadEvents); err != nil {
		return nil, s.fail("load-organized-events", err, msgLoadEvents)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.admitLocked(ctx, t); err != nil {
		return nil, s.discardLocked("load-organized-events", err)
	}

	s.organized = nonNil(domain.CloneEvents(res.Data))
	s.index("replace-organized", func() error { return s.indexer.ReplaceOrganized(ctx, s.organized) })
	s.publishOrganizedLocked()
	s.endLocked()

	return domain.CloneEvents(s.organized), nil
}

// LoadInvitedEvents replaces the invited collection with the backend's.
// A missing participant status reads as Pending and a missing role as
// Attendee.
func (s *Store) LoadInvitedEvents(ctx context.Context) ([]domain.InvitedEvent, error) {
	t := s.begin(keyInvited)

	res, err := s.backend.InvitedEvents(ctx)
	if err = settle(res, err, msgLoadInvitedEvents); err != nil {
		return nil, s.fail("load-invited-events", err, msgLoadInvitedEvents)
	}

	invited := make([]domain.InvitedEvent, len(res.Data))
	for i, e := range res.Data {
		invited[i] = e.WithDefaults()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.admitLocked(ctx, t); err != nil {
		return nil, s.discardLocked("load-invited-events", err)
	}

	s.invited = invited
	s.index("replace-invited", func() error { return s.indexer.ReplaceInvited(ctx, s.invited) })
	s.publishInvitedLocked()
	s.endLocked()

	return domain.CloneInvitedEvents(s.invited), nil
}

// LoadEvent fetches one event and makes it the selected event.
func (s *Store) LoadEvent(ctx context.Context, eventID domain.ID) (*gateway.EventDetail, error) {
	t := s.begin(keySelected)

	res, err := s.backend.Event(ctx, eventID)
	if err = settle(res, err, msgLoadEvent); err != nil {
		return nil, s.fail("load-event", err, msgLoadEvent)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.admitLocked(ctx, t); err != nil {
		return nil, s.discardLocked("load-event", err)
	}

	selected := res.Data.Event
	s.selected = &selected
	s.publishSelectedLocked()
	s.endLocked()

	detail := res.Data
	return &detail, nil
}

// CreateEvent validates payload locally, creates the event, and prepends the
// stored event to the organized collection. A payload that fails local
// validation never reaches the backend and leaves the store untouched.
func (s *Store) CreateEvent(ctx context.Context, payload domain.CreateEventRequest) (*domain.Event, error) {
	if err := s.validator.Validate(payload); err != nil {
		return nil, err
	}

	t := s.begin("")

	res, err := s.backend.CreateEvent(ctx, payload)
	if err = settle(res, err, msgCreateEvent); err != nil {
		return nil, s.fail("create-event", err, msgCreateEvent)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.admitLocked(ctx, t); err != nil {
		return nil, s.discardLocked("create-event", err)
	}

	created := res.Data
	s.organized = slices.Insert(s.organized, 0, created)
	s.index("index-organized", func() error { return s.indexer.IndexOrganized(ctx, created) })
	s.publishOrganizedLocked()
	s.endLocked()

	s.logger.Info("event created", "event_id", created.ID)
	return &created, nil
}

// UpdateEventStatus changes an event's status on the backend, then sets the
// status (and nothing else) on every organized event with that id and on the
// selected event if it matches. Invited events are not touched.
func (s *Store) UpdateEventStatus(ctx context.Context, eventID domain.ID, status domain.EventStatus) (*gateway.StatusUpdate, error) {
	t := s.begin(keyStatus(eventID))

	res, err := s.backend.UpdateEventStatus(ctx, eventID, status)
	if err = settle(res, err, msgUpdateStatus); err != nil {
		return nil, s.fail("update-event-status", err, msgUpdateStatus)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.admitLocked(ctx, t); err != nil {
		return nil, s.discardLocked("update-event-status", err)
	}

	for i := range s.organized {
		if s.organized[i].ID == eventID {
			s.organized[i].Status = status
			updated := s.organized[i]
			s.index("index-organized", func() error { return s.indexer.IndexOrganized(ctx, updated) })
		}
	}
	s.publishOrganizedLocked()

	if s.selected != nil && s.selected.ID == eventID {
		s.selected.Status = status
		s.publishSelectedLocked()
	}
	s.endLocked()

	update := res.Data
	return &update, nil
}

// DeleteEvent deletes an event on the backend, then removes it from the
// organized collection and clears the selection if it was selected.
// Removing an id that is not cached is not an error.
func (s *Store) DeleteEvent(ctx context.Context, eventID domain.ID) error {
	t := s.begin("")

	res, err := s.backend.DeleteEvent(ctx, eventID)
	if err = settle(res, err, msgDeleteEvent); err != nil {
		return s.fail("delete-event", err, msgDeleteEvent)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.admitLocked(ctx, t); err != nil {
		return s.discardLocked("delete-event", err)
	}

	s.organized = slices.DeleteFunc(s.organized, func(e domain.Event) bool { return e.ID == eventID })
	s.index("delete-organized", func() error { return s.indexer.DeleteOrganized(ctx, eventID) })
	s.publishOrganizedLocked()

	if s.selected != nil && s.selected.ID == eventID {
		s.selected = nil
		s.seq.bump(keySelected)
		s.publishSelectedLocked()
	}
	s.endLocked()

	s.logger.Info("event deleted", "event_id", eventID)
	return nil
}

// Participants lists the users taking part in an event. The snapshot is not
// changed.
func (s *Store) Participants(ctx context.Context, eventID domain.ID) ([]domain.ParticipantUser, error) {
	s.begin("")

	res, err := s.backend.Participants(ctx, eventID)
	if err = settle(res, err, msgLoadParticipants); err != nil {
		return nil, s.fail("get-participants", err, msgLoadParticipants)
	}
	s.end()
	return nonNil(res.Data), nil
}

// InviteUser forwards an invitation. The snapshot is not changed.
func (s *Store) InviteUser(ctx context.Context, eventID domain.ID, invite domain.InviteRequest) (*gateway.Invitation, error) {
	s.begin("")

	res, err := s.backend.InviteUser(ctx, eventID, invite)
	if err = settle(res, err, msgInviteUser); err != nil {
		return nil, s.fail("invite-user", err, msgInviteUser)
	}
	s.end()

	inv := res.Data
	return &inv, nil
}

// RespondToInvitation forwards the current user's response. The snapshot is
// not changed; reload invited events to see the new status.
func (s *Store) RespondToInvitation(ctx context.Context, eventID domain.ID, status domain.ResponseStatus) (*gateway.StatusUpdate, error) {
	s.begin("")

	res, err := s.backend.RespondToInvitation(ctx, eventID, status)
	if err = settle(res, err, msgSubmitResponse); err != nil {
		return nil, s.fail("respond-to-invitation", err, msgSubmitResponse)
	}
	s.end()

	update := res.Data
	return &update, nil
}

// SearchResult is one page of unified search hits.
type SearchResult struct {
	Hits       []domain.SearchHit
	Pagination *domain.Pagination
}

// Search runs a unified search through the store so it shows as loading and
// records failures. A 400 is returned but not recorded. The snapshot is not
// changed.
func (s *Store) Search(ctx context.Context, criteria domain.SearchCriteria) (*SearchResult, error) {
	s.begin("")

	res, err := s.backend.Search(ctx, criteria)
	if gateway.StatusCode(err) == http.StatusBadRequest {
		s.end()
		s.logger.Debug("search rejected by backend", "error", err)
		return nil, err
	}
	if err = settle(res, err, msgSearchEvents); err != nil {
		return nil, s.fail("search", err, msgSearchEvents)
	}
	s.end()

	return &SearchResult{Hits: nonNil(res.Data), Pagination: res.Pagination}, nil
}

// Refresh reloads the organized and invited collections concurrently. Each
// load applies on its own; the first failure is returned.
func (s *Store) Refresh(ctx context.Context) error {
	var g errgroup.Group
	var organizedErr, invitedErr error
	g.Go(func() error {
		_, organizedErr = s.LoadOrganizedEvents(ctx)
		return organizedErr
	})
	g.Go(func() error {
		_, invitedErr = s.LoadInvitedEvents(ctx)
		return invitedErr
	})

	err := g.Wait()
	if err == nil {
		return nil
	}

	// The sibling load may have cleared the error recorded by the failed one.
	fallback := msgLoadEvents
	failed := organizedErr
	if failed == nil {
		fallback, failed = msgLoadInvitedEvents, invitedErr
	}
	switch domainerrors.CodeOf(failed) {
	case domainerrors.CodeCanceled, domainerrors.CodeSuperseded:
	default:
		s.mu.Lock()
		if s.lastErr == "" {
			s.lastErr = failureMessage(failed, fallback)
			s.publishStatusLocked()
		}
		s.mu.Unlock()
	}
	return err
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// Package store holds the local snapshot of the signed-in user's events and
// keeps it consistent with the backend across every mutation.
//
// Every operation marks the store loading and clears the last error before
// calling the backend. On success the relevant collection is updated and
// re-published; on failure the error message is recorded and the error is
// returned. Nothing is updated optimistically.
package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/eventdesk/eventdesk-client/internal/domain"
	"github.com/eventdesk/eventdesk-client/internal/gateway"
	"github.com/eventdesk/eventdesk-client/internal/sse"
	"github.com/eventdesk/eventdesk-client/internal/validation"
)

// Backend is the subset of the gateway the store calls.
// *gateway.Client implements it.
type Backend interface {
	OrganizedEvents(ctx context.Context) (*gateway.Result[[]domain.Event], error)
	InvitedEvents(ctx context.Context) (*gateway.Result[[]domain.InvitedEvent], error)
	Event(ctx context.Context, eventID domain.ID) (*gateway.Result[gateway.EventDetail], error)
	CreateEvent(ctx context.Context, payload domain.CreateEventRequest) (*gateway.Result[domain.Event], error)
	UpdateEventStatus(ctx context.Context, eventID domain.ID, status domain.EventStatus) (*gateway.Result[gateway.StatusUpdate], error)
	RespondToInvitation(ctx context.Context, eventID domain.ID, status domain.ResponseStatus) (*gateway.Result[gateway.StatusUpdate], error)
	DeleteEvent(ctx context.Context, eventID domain.ID) (*gateway.Result[struct{}], error)
	Participants(ctx context.Context, eventID domain.ID) (*gateway.Result[[]domain.ParticipantUser], error)
	InviteUser(ctx context.Context, eventID domain.ID, invite domain.InviteRequest) (*gateway.Result[gateway.Invitation], error)
	Search(ctx context.Context, criteria domain.SearchCriteria) (*gateway.Result[[]domain.SearchHit], error)
}

// EventEmitter is the interface for emitting SSE events.
// Store uses this to broadcast changes without depending on SSE implementation details.
type EventEmitter interface {
	Emit(event any)
}

// NoopEmitter is a no-op implementation of EventEmitter for testing.
type NoopEmitter struct{}

// Emit implements EventEmitter.Emit as a no-op.
func (NoopEmitter) Emit(_ any) {}

// Indexer mirrors the snapshot into a local search index.
// Failures are logged and never fail the store operation.
type Indexer interface {
	ReplaceOrganized(ctx context.Context, events []domain.Event) error
	ReplaceInvited(ctx context.Context, events []domain.InvitedEvent) error
	IndexOrganized(ctx context.Context, event domain.Event) error
	DeleteOrganized(ctx context.Context, eventID domain.ID) error
}

// NoopIndexer is a no-op implementation for testing.
type NoopIndexer struct{}

// ReplaceOrganized is a no-op.
func (NoopIndexer) ReplaceOrganized(context.Context, []domain.Event) error { return nil }

// ReplaceInvited is a no-op.
func (NoopIndexer) ReplaceInvited(context.Context, []domain.InvitedEvent) error { return nil }

// IndexOrganized is a no-op.
func (NoopIndexer) IndexOrganized(context.Context, domain.Event) error { return nil }

// DeleteOrganized is a no-op.
func (NoopIndexer) DeleteOrganized(context.Context, domain.ID) error { return nil }

// Options configures a Store.
type Options struct {
	Emitter   EventEmitter
	Indexer   Indexer
	Validator *validation.Validator
	Logger    *slog.Logger

	// DisableStaleGuard applies results in the order they resolve instead of
	// discarding those issued before an already-applied one.
	DisableStaleGuard bool
}

// Snapshot is a copy of the store state. It shares no memory with the store.
type Snapshot struct {
	Organized []domain.Event        `json:"organized"`
	Invited   []domain.InvitedEvent `json:"invited"`
	Selected  *domain.Event         `json:"selected"`
	Loading   bool                  `json:"loading"`
	Error     string                `json:"error,omitempty"`
}

// Store is the single owner of the local event snapshot. It is safe for
// concurrent use.
type Store struct {
	backend   Backend
	emitter   EventEmitter
	indexer   Indexer
	validator *validation.Validator
	logger    *slog.Logger

	mu        sync.Mutex
	organized []domain.Event
	invited   []domain.InvitedEvent
	selected  *domain.Event
	inflight  int
	lastErr   string
	seq       *sequencer
}

// New creates a Store over backend.
func New(backend Backend, opts Options) *Store {
	if opts.Emitter == nil {
		opts.Emitter = NoopEmitter{}
	}
	if opts.Indexer == nil {
		opts.Indexer = NoopIndexer{}
	}
	if opts.Validator == nil {
		opts.Validator = validation.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Store{
		backend:   backend,
		emitter:   opts.Emitter,
		indexer:   opts.Indexer,
		validator: opts.Validator,
		logger:    opts.Logger,
		organized: []domain.Event{},
		invited:   []domain.InvitedEvent{},
		seq:       newSequencer(!opts.DisableStaleGuard),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Organized: domain.CloneEvents(s.organized),
		Invited:   domain.CloneInvitedEvents(s.invited),
		Selected:  cloneEvent(s.selected),
		Loading:   s.inflight > 0,
		Error:     s.lastErr,
	}
}

// OrganizedEvents returns a copy of the organized collection.
func (s *Store) OrganizedEvents() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneEvents(s.organized)
}

// InvitedEvents returns a copy of the invited collection.
func (s *Store) InvitedEvents() []domain.InvitedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneInvitedEvents(s.invited)
}

// SelectedEvent returns a copy of the selected event, or nil.
func (s *Store) SelectedEvent() *domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneEvent(s.selected)
}

// Loading reports whether any operation is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight > 0
}

// Error returns the last recorded error message, or "".
func (s *Store) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// SetSelectedEvent selects event without contacting the backend.
func (s *Store) SetSelectedEvent(event domain.Event) {
	s.mu.Lock()
	s.selected = &event
	s.seq.bump(keySelected)
	s.publishSelectedLocked()
	s.mu.Unlock()
}

// ClearSelectedEvent clears the selection.
func (s *Store) ClearSelectedEvent() {
	s.mu.Lock()
	s.selected = nil
	s.seq.bump(keySelected)
	s.publishSelectedLocked()
	s.mu.Unlock()
}

// ClearError clears the last recorded error.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.lastErr = ""
	s.publishStatusLocked()
	s.mu.Unlock()
}

// Reset empties the snapshot, e.g. after sign-out. Results of calls issued
// before Reset are discarded.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.organized = []domain.Event{}
	s.invited = []domain.InvitedEvent{}
	s.selected = nil
	s.lastErr = ""
	s.seq.reset()

	ctx := context.Background()
	s.index("replace-organized", func() error { return s.indexer.ReplaceOrganized(ctx, nil) })
	s.index("replace-invited", func() error { return s.indexer.ReplaceInvited(ctx, nil) })

	s.publishOrganizedLocked()
	s.publishInvitedLocked()
	s.publishSelectedLocked()
	s.publishStatusLocked()
}

func (s *Store) publishOrganizedLocked() {
	s.emitter.Emit(sse.NewOrganizedEvent(domain.CloneEvents(s.organized)))
}

func (s *Store) publishInvitedLocked() {
	s.emitter.Emit(sse.NewInvitedEvent(domain.CloneInvitedEvents(s.invited)))
}

func (s *Store) publishSelectedLocked() {
	s.emitter.Emit(sse.NewSelectedEvent(cloneEvent(s.selected)))
}

func (s *Store) publishStatusLocked() {
	s.emitter.Emit(sse.NewStatusEvent(s.inflight > 0, s.lastErr))
}

// index runs an indexer update. The caller holds s.mu so updates reach the
// index in the order they reached the snapshot.
func (s *Store) index(op string, fn func() error) {
	if err := fn(); err != nil {
		s.logger.Warn("search index update failed", "op", op, "error", err)
	}
}

func cloneEvent(e *domain.Event) *domain.Event {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

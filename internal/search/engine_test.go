package search_test

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventdesk/eventdesk-client/internal/domain"
	domainerrors "github.com/eventdesk/eventdesk-client/internal/errors"
	"github.com/eventdesk/eventdesk-client/internal/gateway/gatewaytest"
	"github.com/eventdesk/eventdesk-client/internal/search"
	"github.com/eventdesk/eventdesk-client/internal/sse"
	"github.com/eventdesk/eventdesk-client/internal/store"
)

const viewerID = domain.ID("1")

type recordingEmitter struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recordingEmitter) Emit(event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event.(sse.Event))
}

func (r *recordingEmitter) count(t sse.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

type fixture struct {
	srv     *gatewaytest.Server
	store   *store.Store
	engine  *search.Engine
	emitter *recordingEmitter
}

func setup(t *testing.T, opts ...func(*search.Options)) *fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	idx, err := search.NewIndex(search.IndexOptions{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	srv := gatewaytest.NewServer(t)
	st := store.New(srv.Client(t, nil), store.Options{Indexer: idx, Logger: logger})

	emitter := &recordingEmitter{}
	o := search.Options{Emitter: emitter, Logger: logger, Index: idx}
	for _, fn := range opts {
		fn(&o)
	}
	engine := search.NewEngine(st, func() domain.ID { return viewerID }, o)

	return &fixture{srv: srv, store: st, engine: engine, emitter: emitter}
}

func hit(id, title string, organizer domain.ID, status domain.ResponseStatus, role string) domain.SearchHit {
	return domain.SearchHit{
		Event: domain.Event{
			ID:     domain.ID(id),
			Title:  title,
			Date:   "2025-06-01",
			Status: domain.EventStatusActive,
			UserID: organizer,
		},
		UserStatus: status,
		UserRole:   role,
	}
}

func eventIDs(events []domain.Event) []domain.ID {
	out := make([]domain.ID, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func invitedIDs(events []domain.InvitedEvent) []domain.ID {
	out := make([]domain.ID, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func TestEngine_EmptyCriteriaShowsCache(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.srv.SetOrganized(domain.Event{ID: "1", Title: "Standup", UserID: viewerID})
	f.srv.SetInvited(domain.InvitedEvent{Event: domain.Event{ID: "9", Title: "Offsite", UserID: "2"}})
	require.NoError(t, f.store.Refresh(ctx))

	res, err := f.engine.Search(ctx, "dashboard", domain.SearchCriteria{Keyword: "   "})
	require.NoError(t, err)

	assert.Equal(t, []domain.ID{"1"}, eventIDs(res.Organized))
	assert.Equal(t, []domain.ID{"9"}, invitedIDs(res.Invited))
	assert.False(t, res.Filtered)
	assert.Zero(t, f.srv.Count(gatewaytest.RouteSearch))
}

func TestEngine_ShortKeywordIsSuppressed(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.srv.SetSearchHits(hit("1", "Planning", viewerID, "", ""))

	first, err := f.engine.Search(ctx, "dashboard", domain.SearchCriteria{Keyword: "plan"})
	require.NoError(t, err)
	require.Len(t, first.Organized, 1)

	res, err := f.engine.Search(ctx, "dashboard", domain.SearchCriteria{Keyword: " p "})
	require.NoError(t, err)

	assert.Equal(t, first, res)
	assert.Equal(t, 1, f.srv.Count(gatewaytest.RouteSearch))
}

func TestEngine_MinKeywordLengthOption(t *testing.T) {
	f := setup(t, func(o *search.Options) { o.MinKeywordLength = 4 })

	_, err := f.engine.Search(context.Background(), "dashboard", domain.SearchCriteria{Keyword: "abc"})
	require.NoError(t, err)
	assert.Zero(t, f.srv.Count(gatewaytest.RouteSearch))
}

func TestEngine_SendsNonEmptyCriteria(t *testing.T) {
	f := setup(t)

	_, err := f.engine.Search(context.Background(), "dashboard", domain.SearchCriteria{
		Keyword:     "  retro ",
		EventStatus: domain.EventStatusActive,
		Role:        "Speaker",
	})
	require.NoError(t, err)

	req, ok := f.srv.Last(gatewaytest.RouteSearch)
	require.True(t, ok)
	assert.Equal(t, map[string]string{
		"keyword":     "retro",
		"eventStatus": "Active",
		"role":        "Speaker",
	}, req.Query)
}

func TestEngine_PartitionsByViewer(t *testing.T) {
	f := setup(t)
	f.srv.SetSearchHits(
		hit("1", "Mine", viewerID, "", ""),
		hit("2", "Theirs", "2", domain.ResponseGoing, "Speaker"),
		hit("3", "Unanswered", "3", "", ""),
	)

	res, err := f.engine.Search(context.Background(), "dashboard", domain.SearchCriteria{Date: "2025-06-01"})
	require.NoError(t, err)

	assert.True(t, res.Filtered)
	assert.Equal(t, []domain.ID{"1"}, eventIDs(res.Organized))
	require.Len(t, res.Invited, 2)
	assert.Equal(t, domain.ResponseGoing, res.Invited[0].ParticipantStatus)
	assert.Equal(t, "Speaker", res.Invited[0].ParticipantRole)
	assert.Equal(t, domain.ResponsePending, res.Invited[1].ParticipantStatus)
	assert.Equal(t, domain.DefaultParticipantRole, res.Invited[1].ParticipantRole)
}

func TestEngine_SignedOutViewerOrganizesNothing(t *testing.T) {
	srv := gatewaytest.NewServer(t)
	st := store.New(srv.Client(t, nil), store.Options{Logger: slog.New(slog.DiscardHandler)})
	engine := search.NewEngine(st, nil, search.Options{Logger: slog.New(slog.DiscardHandler)})
	srv.SetSearchHits(hit("1", "Orphan", "", "", ""))

	res, err := engine.Search(context.Background(), "v", domain.SearchCriteria{Keyword: "orphan"})
	require.NoError(t, err)
	assert.Empty(t, res.Organized)
	assert.Equal(t, []domain.ID{"1"}, invitedIDs(res.Invited))
}

func TestEngine_RoleReappliedToInvited(t *testing.T) {
	f := setup(t)
	f.srv.SetSearchHits(
		hit("1", "Mine", viewerID, "", ""),
		hit("2", "Talk", "2", domain.ResponseGoing, "Speaker"),
		hit("3", "Listen", "2", domain.ResponseMaybe, "Attendee"),
	)

	res, err := f.engine.Search(context.Background(), "dashboard", domain.SearchCriteria{Role: "speaker"})
	require.NoError(t, err)

	assert.Equal(t, []domain.ID{"1"}, eventIDs(res.Organized))
	assert.Equal(t, []domain.ID{"2"}, invitedIDs(res.Invited))
}

func TestEngine_RoleFilterSkipsHitsWithoutRole(t *testing.T) {
	f := setup(t)
	f.srv.SetSearchHits(
		hit("2", "Unassigned", "2", domain.ResponseGoing, ""),
		hit("3", "Listen", "2", domain.ResponseMaybe, "Attendee"),
	)

	res, err := f.engine.Search(context.Background(), "dashboard", domain.SearchCriteria{Role: domain.DefaultParticipantRole})
	require.NoError(t, err)

	assert.Equal(t, []domain.ID{"3"}, invitedIDs(res.Invited))
}

func TestEngine_ResponseShapes(t *testing.T) {
	for _, shape := range []string{"array", "eventsData", "events"} {
		t.Run(shape, func(t *testing.T) {
			f := setup(t)
			f.srv.SetSearchShape(shape)
			f.srv.SetSearchHits(hit("1", "Mine", viewerID, "", ""), hit("2", "Theirs", "2", "", ""))

			res, err := f.engine.Search(context.Background(), "dashboard", domain.SearchCriteria{Keyword: "event"})
			require.NoError(t, err)

			assert.Len(t, res.Organized, 1)
			assert.Len(t, res.Invited, 1)
			if shape == "array" {
				require.NotNil(t, res.Pagination)
				assert.Equal(t, 2, res.Pagination.Total)
			} else {
				assert.Nil(t, res.Pagination)
			}
		})
	}
}

func TestEngine_BadRequestIsSilent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.srv.SetSearchHits(hit("1", "Mine", viewerID, "", ""))
	before, err := f.engine.Search(ctx, "dashboard", domain.SearchCriteria{Keyword: "mine"})
	require.NoError(t, err)

	f.srv.Fail(gatewaytest.RouteSearch, http.StatusBadRequest, `{"success":false,"message":"bad keyword"}`)
	res, err := f.engine.Search(ctx, "dashboard", domain.SearchCriteria{Keyword: "mi?ne"})

	require.NoError(t, err)
	assert.Equal(t, before, res)
	assert.Equal(t, before, f.engine.Results("dashboard"))
	assert.Empty(t, f.store.Error())
	assert.False(t, f.store.Loading())
}

func TestEngine_ServerErrorKeepsResults(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.srv.SetSearchHits(hit("1", "Mine", viewerID, "", ""))
	before, err := f.engine.Search(ctx, "dashboard", domain.SearchCriteria{Keyword: "mine"})
	require.NoError(t, err)

	f.srv.Fail(gatewaytest.RouteSearch, http.StatusInternalServerError, `{"success":false,"message":"index offline"}`)
	res, err := f.engine.Search(ctx, "dashboard", domain.SearchCriteria{Keyword: "other"})

	require.Error(t, err)
	assert.Equal(t, before, res)
	assert.Equal(t, "index offline", f.store.Error())
}

func TestEngine_RejectedEnvelopeKeepsResults(t *testing.T) {
	f := setup(t)
	f.srv.Reject(gatewaytest.RouteSearch, "search disabled")

	res, err := f.engine.Search(context.Background(), "dashboard", domain.SearchCriteria{Keyword: "mine"})

	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrRejected))
	assert.Equal(t, search.Results{}, res)
}

func TestEngine_InvalidEnumNeverCallsBackend(t *testing.T) {
	f := setup(t)

	_, err := f.engine.Search(context.Background(), "dashboard", domain.SearchCriteria{EventStatus: "Archived"})

	require.Error(t, err)
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))
	assert.Zero(t, f.srv.Count(gatewaytest.RouteSearch))
}

func TestEngine_ViewsAreIndependent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.srv.SetSearchHits(hit("1", "Mine", viewerID, "", ""))

	_, err := f.engine.Search(ctx, "dashboard", domain.SearchCriteria{Keyword: "mine"})
	require.NoError(t, err)

	assert.Len(t, f.engine.Results("dashboard").Organized, 1)
	assert.Equal(t, search.Results{}, f.engine.Results("invitations"))

	f.engine.ClearView("dashboard")
	assert.Equal(t, search.Results{}, f.engine.Results("dashboard"))
}

func TestEngine_ResetDiscardsInFlight(t *testing.T) {
	f := setup(t)
	f.srv.SetSearchHits(hit("1", "Mine", viewerID, "", ""))
	release := f.srv.Hold(gatewaytest.RouteSearch)

	done := make(chan error, 1)
	go func() {
		_, err := f.engine.Search(context.Background(), "dashboard", domain.SearchCriteria{Keyword: "mine"})
		done <- err
	}()
	require.Eventually(t, func() bool { return f.srv.Count(gatewaytest.RouteSearch) == 1 }, time.Second, 5*time.Millisecond)

	f.engine.Reset()
	release()

	err := <-done
	assert.True(t, domainerrors.Is(err, domainerrors.ErrSuperseded))
	assert.Equal(t, search.Results{}, f.engine.Results("dashboard"))
}

func TestEngine_EmitsResults(t *testing.T) {
	f := setup(t)

	_, err := f.engine.Search(context.Background(), "dashboard", domain.SearchCriteria{Keyword: "mine"})
	require.NoError(t, err)

	assert.Equal(t, 1, f.emitter.count(sse.EventSearchResults))
}

func TestEngine_StaleResultIsDiscarded(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	releaseFirst := f.srv.Hold(gatewaytest.RouteSearch)
	releaseSecond := f.srv.Hold(gatewaytest.RouteSearch)

	firstErr := make(chan error, 1)
	go func() {
		_, err := f.engine.Search(ctx, "dashboard", domain.SearchCriteria{Keyword: "first"})
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return f.srv.Count(gatewaytest.RouteSearch) == 1 }, time.Second, 5*time.Millisecond)

	secondErr := make(chan error, 1)
	go func() {
		_, err := f.engine.Search(ctx, "dashboard", domain.SearchCriteria{Keyword: "second"})
		secondErr <- err
	}()
	require.Eventually(t, func() bool { return f.srv.Count(gatewaytest.RouteSearch) == 2 }, time.Second, 5*time.Millisecond)

	f.srv.SetSearchHits(hit("2", "Second", viewerID, "", ""))
	releaseSecond()
	require.NoError(t, <-secondErr)

	f.srv.SetSearchHits(hit("1", "First", viewerID, "", ""))
	releaseFirst()
	err := <-firstErr
	assert.True(t, domainerrors.Is(err, domainerrors.ErrSuperseded))

	assert.Equal(t, []domain.ID{"2"}, eventIDs(f.engine.Results("dashboard").Organized))
}

func TestEngine_StaleGuardDisabled(t *testing.T) {
	f := setup(t, func(o *search.Options) { o.DisableStaleGuard = true })
	ctx := context.Background()

	releaseFirst := f.srv.Hold(gatewaytest.RouteSearch)
	releaseSecond := f.srv.Hold(gatewaytest.RouteSearch)

	firstErr := make(chan error, 1)
	go func() {
		_, err := f.engine.Search(ctx, "dashboard", domain.SearchCriteria{Keyword: "first"})
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return f.srv.Count(gatewaytest.RouteSearch) == 1 }, time.Second, 5*time.Millisecond)

	secondErr := make(chan error, 1)
	go func() {
		_, err := f.engine.Search(ctx, "dashboard", domain.SearchCriteria{Keyword: "second"})
		secondErr <- err
	}()
	require.Eventually(t, func() bool { return f.srv.Count(gatewaytest.RouteSearch) == 2 }, time.Second, 5*time.Millisecond)

	f.srv.SetSearchHits(hit("2", "Second", viewerID, "", ""))
	releaseSecond()
	require.NoError(t, <-secondErr)

	f.srv.SetSearchHits(hit("1", "First", viewerID, "", ""))
	releaseFirst()
	require.NoError(t, <-firstErr)

	assert.Equal(t, []domain.ID{"1"}, eventIDs(f.engine.Results("dashboard").Organized))
}

func TestEngine_FilterCached(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.srv.SetOrganized(
		domain.Event{ID: "1", Title: "Team Standup", Location: "Office", UserID: viewerID},
		domain.Event{ID: "2", Title: "Quarterly Planning", Location: "Berlin", UserID: viewerID},
	)
	f.srv.SetInvited(
		domain.InvitedEvent{Event: domain.Event{ID: "9", Title: "Hackathon", Location: "Berlin", UserID: "2"}, ParticipantRole: "Judge"},
	)
	require.NoError(t, f.store.Refresh(ctx))

	res, err := f.engine.FilterCached(ctx, search.ViewOrganized, domain.SearchCriteria{Keyword: "berl"})
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{"2"}, eventIDs(res.Organized))
	assert.Empty(t, res.Invited)
	assert.True(t, res.Filtered)

	res, err = f.engine.FilterCached(ctx, search.ViewInvited, domain.SearchCriteria{Role: "judge"})
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{"9"}, invitedIDs(res.Invited))

	// Invited events loaded without a status are indexed as Pending.
	res, err = f.engine.FilterCached(ctx, search.ViewInvited, domain.SearchCriteria{UserStatus: domain.ResponsePending})
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{"9"}, invitedIDs(res.Invited))

	assert.Zero(t, f.srv.Count(gatewaytest.RouteSearch))
	assert.Equal(t, search.Results{}, f.engine.Results("dashboard"))
}

func TestEngine_FilterCachedFollowsStore(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.srv.SetOrganized(domain.Event{ID: "1", Title: "Retro", UserID: viewerID})
	_, err := f.store.LoadOrganizedEvents(ctx)
	require.NoError(t, err)

	_, err = f.store.CreateEvent(ctx, domain.CreateEventRequest{
		Title: "Retro Two", Description: "d", Date: "2025-09-01", Time: "10:00", Location: "Lisbon",
	})
	require.NoError(t, err)

	res, err := f.engine.FilterCached(ctx, search.ViewOrganized, domain.SearchCriteria{Keyword: "retro"})
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{"101", "1"}, eventIDs(res.Organized))

	require.NoError(t, f.store.DeleteEvent(ctx, "1"))
	res, err = f.engine.FilterCached(ctx, search.ViewOrganized, domain.SearchCriteria{Keyword: "retro"})
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{"101"}, eventIDs(res.Organized))
}

func TestEngine_FilterCachedUnknownView(t *testing.T) {
	f := setup(t)

	_, err := f.engine.FilterCached(context.Background(), search.View("archived"), domain.SearchCriteria{})
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))
}

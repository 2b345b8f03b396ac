package invite_test

import (
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventdesk/eventdesk-client/internal/domain"
	domainerrors "github.com/eventdesk/eventdesk-client/internal/errors"
	"github.com/eventdesk/eventdesk-client/internal/gateway/gatewaytest"
	"github.com/eventdesk/eventdesk-client/internal/invite"
	"github.com/eventdesk/eventdesk-client/internal/store"
)

func setup(t *testing.T) (*gatewaytest.Server, *store.Store) {
	t.Helper()
	srv := gatewaytest.NewServer(t)
	st := store.New(srv.Client(t, nil), store.Options{Logger: slog.New(slog.DiscardHandler)})
	return srv, st
}

func TestComposer_Send(t *testing.T) {
	srv, st := setup(t)
	c := invite.NewComposer(st, nil, slog.New(slog.DiscardHandler))

	c.Open("7")
	c.SetTarget(42, "Speaker")
	inv, err := c.Send(context.Background())

	require.NoError(t, err)
	require.NotNil(t, inv.Invitation)
	req, ok := srv.Last(gatewaytest.RouteInvite)
	require.True(t, ok)
	assert.Equal(t, "/api/events/7/invite", req.Path)
	assert.JSONEq(t, `{"userId":42,"role":"Speaker"}`, req.Body)

	assert.Equal(t, invite.Draft{Role: "Attendee"}, c.Draft())
	assert.Equal(t, invite.Notice{Kind: invite.NoticeSuccess, Text: "Invitation sent successfully!"}, c.Notice())
}

func TestComposer_DefaultRole(t *testing.T) {
	srv, st := setup(t)
	c := invite.NewComposer(st, nil, nil)

	c.Open("7")
	assert.Equal(t, "Attendee", c.Draft().Role)
	c.SetTarget(42, "  ")
	_, err := c.Send(context.Background())
	require.NoError(t, err)

	req, _ := srv.Last(gatewaytest.RouteInvite)
	assert.JSONEq(t, `{"userId":42,"role":"Attendee"}`, req.Body)
}

func TestComposer_MissingTargetIsLocal(t *testing.T) {
	srv, st := setup(t)
	c := invite.NewComposer(st, nil, nil)

	c.Open("7")
	_, err := c.Send(context.Background())

	require.Error(t, err)
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))
	assert.Equal(t, "Please enter a valid User ID", c.Notice().Text)
	assert.Zero(t, srv.Count(gatewaytest.RouteInvite))
	assert.Empty(t, st.Error())
	assert.True(t, c.Draft().Open)
}

func TestComposer_SendWithoutOpen(t *testing.T) {
	srv, st := setup(t)
	c := invite.NewComposer(st, nil, nil)

	c.SetTarget(42, "")
	_, err := c.Send(context.Background())

	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))
	assert.Zero(t, srv.Count(gatewaytest.RouteInvite))
}

func TestComposer_OpenResets(t *testing.T) {
	_, st := setup(t)
	c := invite.NewComposer(st, nil, nil)

	c.Open("7")
	c.SetTarget(42, "Speaker")
	c.Open("8")

	assert.Equal(t, invite.Draft{EventID: "8", Role: "Attendee", Open: true}, c.Draft())

	c.Close()
	assert.False(t, c.Draft().Open)
}

func TestComposer_ServerFailureKeepsDraft(t *testing.T) {
	srv, st := setup(t)
	c := invite.NewComposer(st, nil, nil)
	srv.Fail(gatewaytest.RouteInvite, http.StatusForbidden, `{"success":false,"message":"Only organizers can invite"}`)

	c.Open("7")
	c.SetTarget(42, "")
	_, err := c.Send(context.Background())

	require.Error(t, err)
	assert.Equal(t, invite.Notice{Kind: invite.NoticeError, Text: "Failed to send invitation: Only organizers can invite"}, c.Notice())
	assert.Equal(t, int64(42), c.Draft().UserID)
	assert.Equal(t, "Only organizers can invite", st.Error())
}

func TestComposer_DoesNotTouchSnapshot(t *testing.T) {
	srv, st := setup(t)
	srv.SetOrganized(domain.Event{ID: "7", Title: "Retro"})
	_, err := st.LoadOrganizedEvents(context.Background())
	require.NoError(t, err)
	before := st.Snapshot()

	c := invite.NewComposer(st, nil, nil)
	c.Open("7")
	c.SetTarget(42, "")
	_, err = c.Send(context.Background())
	require.NoError(t, err)

	assert.Equal(t, before, st.Snapshot())
}

func TestResponder_Respond(t *testing.T) {
	srv, st := setup(t)
	srv.SetInvited(domain.InvitedEvent{Event: domain.Event{ID: "9", Title: "Offsite"}})
	_, err := st.LoadInvitedEvents(context.Background())
	require.NoError(t, err)

	r := invite.NewResponder(st, nil)
	require.NoError(t, r.Respond(context.Background(), "9", domain.ResponseNotGoing))

	status, ok := r.Status("9")
	require.True(t, ok)
	assert.Equal(t, domain.ResponseNotGoing, status)
	assert.True(t, r.HasResponded("9"))
	assert.False(t, r.Responding("9"))
	assert.Equal(t, invite.Notice{Kind: invite.NoticeSuccess, Text: "Response saved: Not Going"}, r.Notice())

	req, _ := srv.Last(gatewaytest.RouteRespond)
	assert.JSONEq(t, `{"status":"Not Going"}`, req.Body)

	// The store's copy still reads Pending until invited events are reloaded.
	assert.Equal(t, domain.ResponsePending, st.InvitedEvents()[0].ParticipantStatus)
}

func TestResponder_FailureLeavesMapUnchanged(t *testing.T) {
	srv, st := setup(t)
	r := invite.NewResponder(st, nil)

	err := r.Respond(context.Background(), "404", domain.ResponseGoing)

	require.Error(t, err)
	assert.False(t, r.HasResponded("404"))
	assert.Empty(t, r.Responded())
	assert.Equal(t, invite.Notice{Kind: invite.NoticeError, Text: "Failed to send response. Please try again."}, r.Notice())
	assert.Equal(t, 1, srv.Count(gatewaytest.RouteRespond))
}

func TestResponder_InvalidStatusIsLocal(t *testing.T) {
	srv, st := setup(t)
	r := invite.NewResponder(st, nil)

	err := r.Respond(context.Background(), "9", "Perhaps")

	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))
	assert.Zero(t, srv.Count(gatewaytest.RouteRespond))
}

func TestResponder_LatestAnswerWins(t *testing.T) {
	srv, st := setup(t)
	srv.SetInvited(domain.InvitedEvent{Event: domain.Event{ID: "9"}})
	r := invite.NewResponder(st, nil)
	ctx := context.Background()

	require.NoError(t, r.Respond(ctx, "9", domain.ResponseMaybe))
	require.NoError(t, r.Respond(ctx, "9", domain.ResponseGoing))

	responded := r.Responded()
	assert.Equal(t, map[domain.ID]domain.ResponseStatus{"9": domain.ResponseGoing}, responded)

	responded["9"] = domain.ResponseNotGoing
	status, _ := r.Status("9")
	assert.Equal(t, domain.ResponseGoing, status)
}

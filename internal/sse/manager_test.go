package sse

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventdesk/eventdesk-client/internal/domain"
)

func newTestManager(t *testing.T) (*Manager, context.CancelFunc) {
	t.Helper()
	m := NewManager(slog.New(slog.DiscardHandler))
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	t.Cleanup(cancel)
	return m, cancel
}

func receive(t *testing.T, sub *Subscriber) Event {
	t.Helper()
	select {
	case evt := <-sub.Events:
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestManager_EmitReachesSubscriber(t *testing.T) {
	m, _ := newTestManager(t)

	sub, err := m.Subscribe()
	require.NoError(t, err)

	m.Emit(NewOrganizedEvent([]domain.Event{{ID: "1", Title: "Standup"}}))

	evt := receive(t, sub)
	assert.Equal(t, EventOrganized, evt.Type)
	data, ok := evt.Data.(OrganizedEventData)
	require.True(t, ok)
	require.Len(t, data.Events, 1)
	assert.Equal(t, "Standup", data.Events[0].Title)
}

func TestManager_TypeFilter(t *testing.T) {
	m, _ := newTestManager(t)

	sub, err := m.Subscribe(EventSearchResults)
	require.NoError(t, err)

	m.Emit(NewOrganizedEvent(nil))
	m.Emit(NewSearchResultsEvent(SearchResultsEventData{ViewID: "view-1"}))

	evt := receive(t, sub)
	assert.Equal(t, EventSearchResults, evt.Type)
}

func TestSubscriber_WantsHeartbeat(t *testing.T) {
	sub := &Subscriber{types: []EventType{EventInvited}}

	assert.True(t, sub.Wants(EventHeartbeat))
	assert.True(t, sub.Wants(EventInvited))
	assert.False(t, sub.Wants(EventOrganized))
}

func TestManager_IgnoresForeignValues(t *testing.T) {
	m, _ := newTestManager(t)

	sub, err := m.Subscribe()
	require.NoError(t, err)

	m.Emit("not an event")
	m.Emit(NewStatusEvent(true, ""))

	evt := receive(t, sub)
	assert.Equal(t, EventStatus, evt.Type)
}

func TestManager_Unsubscribe(t *testing.T) {
	m, _ := newTestManager(t)

	sub, err := m.Subscribe()
	require.NoError(t, err)
	assert.Equal(t, 1, m.SubscriberCount())

	m.Unsubscribe(sub.ID)
	assert.Equal(t, 0, m.SubscriberCount())

	_, open := <-sub.Done
	assert.False(t, open)

	// Second call is a no-op.
	m.Unsubscribe(sub.ID)
}

func TestManager_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	m := NewManager(slog.New(slog.DiscardHandler))
	sub, err := m.Subscribe()
	require.NoError(t, err)

	for range subscriberBuffer + 10 {
		m.broadcast(NewStatusEvent(false, ""))
	}
	assert.Len(t, sub.Events, subscriberBuffer)
}

func TestManager_ShutdownDrainsAndCloses(t *testing.T) {
	m := NewManager(slog.New(slog.DiscardHandler))
	sub, err := m.Subscribe()
	require.NoError(t, err)

	m.Emit(NewSelectedEvent(nil))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))

	evt, ok := <-sub.Events
	require.True(t, ok)
	assert.Equal(t, EventSelected, evt.Type)

	_, ok = <-sub.Events
	assert.False(t, ok)
	assert.Equal(t, 0, m.SubscriberCount())

	// Emit after shutdown is dropped without panicking.
	m.Emit(NewStatusEvent(false, ""))
	assert.NoError(t, m.Shutdown(ctx))
}

func TestManager_Heartbeat(t *testing.T) {
	m := NewManager(slog.New(slog.DiscardHandler))
	m.SetHeartbeatInterval(10 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := m.Subscribe(EventOrganized)
	require.NoError(t, err)
	go m.Start(ctx)

	evt := receive(t, sub)
	assert.Equal(t, EventHeartbeat, evt.Type)
}

func TestParseTypes(t *testing.T) {
	assert.Nil(t, parseTypes(""))
	assert.Equal(t,
		[]EventType{EventOrganized, EventSearchResults},
		parseTypes("events.organized, search.results,"))
}

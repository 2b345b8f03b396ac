package sse

import (
	"context"
	"iter"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/eventdesk/eventdesk-client/internal/id"
)

const (
	defaultHeartbeatInterval = 30 * time.Second
	queueSize                = 1000
	subscriberBuffer         = 100
)

// Subscriber receives broadcast events.
type Subscriber struct {
	ConnectedAt time.Time
	Events      chan Event
	Done        chan struct{}
	ID          string
	// types restricts delivery; empty means every type.
	types []EventType
}

// Wants reports whether the subscriber accepts events of type t.
// Heartbeats are delivered to everyone.
func (s *Subscriber) Wants(t EventType) bool {
	if len(s.types) == 0 || t == EventHeartbeat {
		return true
	}
	return slices.Contains(s.types, t)
}

// Manager fans events out to subscribers.
type Manager struct {
	subscribers       map[string]*Subscriber
	events            chan Event
	logger            *slog.Logger
	wg                sync.WaitGroup
	heartbeatInterval time.Duration
	mu                sync.RWMutex

	// Shutdown state - protected by shutdownMu
	shutdownMu sync.RWMutex
	shutdown   bool
}

// NewManager creates a new SSE Manager.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		subscribers:       make(map[string]*Subscriber),
		events:            make(chan Event, queueSize),
		logger:            logger,
		heartbeatInterval: defaultHeartbeatInterval,
	}
}

// SetHeartbeatInterval changes the heartbeat period. Call before Start.
func (m *Manager) SetHeartbeatInterval(d time.Duration) {
	m.heartbeatInterval = d
}

// Start runs the broadcast loop until ctx is done or Shutdown drains the
// queue. Run it in its own goroutine.
func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	defer m.wg.Done()

	m.logger.Info("SSE manager starting")

	heartbeatTicker := time.NewTicker(m.heartbeatInterval)
	defer heartbeatTicker.Stop()

	for {
		select {
		case event, ok := <-m.events:
			if !ok {
				m.logger.Info("SSE manager drained")
				return
			}
			m.broadcast(event)

		case <-heartbeatTicker.C:
			m.broadcast(NewHeartbeatEvent())

		case <-ctx.Done():
			m.logger.Info("SSE manager stopping")
			m.closeAllSubscribers()
			return
		}
	}
}

// Shutdown stops accepting events, waits for the broadcast loop to deliver
// what is queued, and closes every subscriber.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.shutdownMu.Lock()
	if m.shutdown {
		m.shutdownMu.Unlock()
		return nil
	}
	m.shutdown = true
	close(m.events)
	m.shutdownMu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		// Deliver whatever the loop left behind, or everything if it never ran.
		for event := range m.events {
			m.broadcast(event)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("SSE event drain timeout, some events may be lost")
	}

	m.closeAllSubscribers()
	m.logger.Info("SSE manager shutdown complete")
	return nil
}

func (m *Manager) broadcast(event Event) {
	var delivered, dropped, filtered int

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		if !sub.Wants(event.Type) {
			filtered++
			continue
		}

		// Non-blocking send (drop if subscriber is slow/stuck).
		select {
		case sub.Events <- event:
			delivered++
		default:
			dropped++
			m.logger.Warn("dropped event for slow subscriber",
				slog.String("subscriber_id", sub.ID),
				slog.String("event_type", string(event.Type)))
		}
	}

	if event.Type != EventHeartbeat {
		m.logger.Debug("event broadcast",
			slog.String("event_type", string(event.Type)),
			slog.Group("stats",
				slog.Int("delivered", delivered),
				slog.Int("filtered", filtered),
				slog.Int("dropped", dropped)))
	}
}

// Subscribe registers a subscriber. With no types it receives every event.
func (m *Manager) Subscribe(types ...EventType) (*Subscriber, error) {
	subID, err := id.Generate(id.PrefixSubscriber)
	if err != nil {
		return nil, err
	}

	sub := &Subscriber{
		ID:          subID,
		Events:      make(chan Event, subscriberBuffer),
		Done:        make(chan struct{}),
		ConnectedAt: time.Now(),
		types:       slices.Clone(types),
	}

	m.mu.Lock()
	m.subscribers[sub.ID] = sub
	total := len(m.subscribers)
	m.mu.Unlock()

	m.logger.Info("subscriber connected",
		slog.String("subscriber_id", subID),
		slog.Int("total_subscribers", total))
	return sub, nil
}

// Unsubscribe removes a subscriber and closes its channels.
func (m *Manager) Unsubscribe(subscriberID string) {
	m.mu.Lock()
	sub, ok := m.subscribers[subscriberID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.subscribers, subscriberID)
	total := len(m.subscribers)
	m.mu.Unlock()

	close(sub.Done)
	close(sub.Events)

	m.logger.Info("subscriber disconnected",
		slog.String("subscriber_id", subscriberID),
		slog.Duration("duration", time.Since(sub.ConnectedAt)),
		slog.Int("total_subscribers", total))
}

// Emit queues an event for broadcasting. Values that are not an Event are
// logged and dropped. This implements the store.EventEmitter interface.
func (m *Manager) Emit(event any) {
	evt, ok := event.(Event)
	if !ok {
		m.logger.Error("invalid event type emitted")
		return
	}

	// Hold read lock through the send so Shutdown cannot close the channel under us.
	m.shutdownMu.RLock()
	defer m.shutdownMu.RUnlock()

	if m.shutdown {
		return
	}

	select {
	case m.events <- evt:
	default:
		m.logger.Error("SSE event channel full, dropping event",
			slog.String("event_type", string(evt.Type)))
	}
}

// Subscribers returns an iterator over the registered subscribers.
func (m *Manager) Subscribers() iter.Seq[*Subscriber] {
	return func(yield func(*Subscriber) bool) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		for _, sub := range m.subscribers {
			if !yield(sub) {
				return
			}
		}
	}
}

// SubscriberCount returns the number of registered subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscribers)
}

func (m *Manager) closeAllSubscribers() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sub := range m.subscribers {
		close(sub.Done)
		close(sub.Events)
	}
	m.subscribers = make(map[string]*Subscriber)
}

// Package call runs store and search operations as cancelable handles so a
// view can abandon its outstanding work on teardown.
package call

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/eventdesk/eventdesk-client/internal/id"
)

// ErrClosed is returned by Go after Close.
var ErrClosed = errors.New("call group closed")

// Handle is one running operation.
type Handle struct {
	ID string

	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Cancel asks the operation to stop. Its result, if any, is not applied.
func (h *Handle) Cancel() {
	h.cancel()
}

// Done is closed when the operation returns.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the operation returns and reports its error.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Group tracks outstanding handles.
type Group struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	mu      sync.Mutex
	handles map[string]*Handle
	closed  bool
	wg      sync.WaitGroup
}

// NewGroup creates a group whose operations derive from parent.
func NewGroup(parent context.Context, logger *slog.Logger) *Group {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Group{
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
		handles: make(map[string]*Handle),
	}
}

// Go starts fn in its own goroutine. fn must honor ctx.
func (g *Group) Go(fn func(ctx context.Context) error) (*Handle, error) {
	handleID, err := id.Generate(id.PrefixCall)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil, ErrClosed
	}
	ctx, cancel := context.WithCancel(g.ctx)
	h := &Handle{
		ID:     handleID,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	g.handles[h.ID] = h
	g.wg.Add(1)
	g.mu.Unlock()

	go func() {
		defer g.wg.Done()
		defer cancel()

		h.err = fn(ctx)
		close(h.done)

		g.mu.Lock()
		delete(g.handles, h.ID)
		g.mu.Unlock()
	}()

	return h, nil
}

// Run starts fn and waits for it. It is Go followed by Wait.
func (g *Group) Run(fn func(ctx context.Context) error) error {
	h, err := g.Go(fn)
	if err != nil {
		return err
	}
	return h.Wait()
}

// Cancel cancels the handle with the given ID. It reports whether the
// handle was still outstanding.
func (g *Group) Cancel(handleID string) bool {
	g.mu.Lock()
	h, ok := g.handles[handleID]
	g.mu.Unlock()
	if ok {
		h.Cancel()
	}
	return ok
}

// Len returns the number of outstanding handles.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.handles)
}

// Close cancels every outstanding handle and waits for them to return.
// Later calls to Go fail with ErrClosed.
func (g *Group) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	outstanding := len(g.handles)
	g.mu.Unlock()

	g.cancel()
	g.wg.Wait()

	if outstanding > 0 {
		g.logger.Debug("canceled outstanding calls", "count", outstanding)
	}
}

// Shutdown implements do.Shutdownable.
func (g *Group) Shutdown() error {
	g.Close()
	return nil
}

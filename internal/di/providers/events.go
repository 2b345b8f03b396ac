package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/eventdesk/eventdesk-client/internal/config"
	"github.com/eventdesk/eventdesk-client/internal/logger"
	"github.com/eventdesk/eventdesk-client/internal/search"
	"github.com/eventdesk/eventdesk-client/internal/sse"
	"github.com/eventdesk/eventdesk-client/internal/store"
	"github.com/eventdesk/eventdesk-client/internal/validation"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Manager.Shutdown(ctx)
	h.cancel()
	return err
}

// ProvideSSEManager provides the event broker.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Component("sse"))

	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{Manager: manager, cancel: cancel}, nil
}

// SearchIndexHandle wraps the cache index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the bleve index over the cached collections.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewIndex(search.IndexOptions{
		Path:   cfg.Search.IndexPath,
		Logger: log.Component("index"),
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "path", cfg.Search.IndexPath, "documents", docCount)

	return &SearchIndexHandle{Index: index}, nil
}

// ProvideStore provides the event state store. Every change is indexed and
// broadcast.
func ProvideStore(i do.Injector) (*store.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	gw := do.MustInvoke[*GatewayHandle](i)
	broker := do.MustInvoke[*SSEManagerHandle](i)
	index := do.MustInvoke[*SearchIndexHandle](i)
	v := do.MustInvoke[*validation.Validator](i)

	return store.New(gw.Client, store.Options{
		Emitter:           broker.Manager,
		Indexer:           index.Index,
		Validator:         v,
		Logger:            log.Component("store"),
		DisableStaleGuard: cfg.Store.DisableStaleGuard,
	}), nil
}

// ProvideSearchEngine provides the search engine. The viewer is resolved at
// call time so sign-ins after startup are seen.
func ProvideSearchEngine(i do.Injector) (*search.Engine, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	st := do.MustInvoke[*store.Store](i)
	sess := do.MustInvoke[*SessionHandle](i)
	broker := do.MustInvoke[*SSEManagerHandle](i)
	index := do.MustInvoke[*SearchIndexHandle](i)
	v := do.MustInvoke[*validation.Validator](i)

	return search.NewEngine(st, sess.UserID, search.Options{
		MinKeywordLength:  cfg.Search.MinKeywordLength,
		Emitter:           broker.Manager,
		Logger:            log.Component("search"),
		Index:             index.Index,
		Validator:         v,
		DisableStaleGuard: cfg.Store.DisableStaleGuard,
	}), nil
}

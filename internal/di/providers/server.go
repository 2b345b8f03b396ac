package providers

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/eventdesk/eventdesk-client/internal/api"
	"github.com/eventdesk/eventdesk-client/internal/auth"
	"github.com/eventdesk/eventdesk-client/internal/call"
	"github.com/eventdesk/eventdesk-client/internal/config"
	"github.com/eventdesk/eventdesk-client/internal/invite"
	"github.com/eventdesk/eventdesk-client/internal/logger"
	"github.com/eventdesk/eventdesk-client/internal/search"
	"github.com/eventdesk/eventdesk-client/internal/store"
	"github.com/eventdesk/eventdesk-client/internal/validation"
)

// ProvideCallGroup provides the group that tracks bridge-initiated calls.
// Shutting it down cancels whatever is still outstanding.
func ProvideCallGroup(i do.Injector) (*call.Group, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return call.NewGroup(context.Background(), log.Component("call")), nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the loopback bridge and starts serving it.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	broker := do.MustInvoke[*SSEManagerHandle](i)
	index := do.MustInvoke[*SearchIndexHandle](i)

	services := &api.Services{
		Store:     do.MustInvoke[*store.Store](i),
		Search:    do.MustInvoke[*search.Engine](i),
		Index:     index.Index,
		Auth:      do.MustInvoke[*auth.Service](i),
		Responder: do.MustInvoke[*invite.Responder](i),
		Validator: do.MustInvoke[*validation.Validator](i),
		Calls:     do.MustInvoke[*call.Group](i),
		Broker:    broker.Manager,
	}

	handler := api.NewServer(services, api.Options{AllowedOrigins: cfg.Bridge.AllowedOrigins}, log.Component("bridge"))

	srv := &http.Server{
		Addr:         net.JoinHostPort("127.0.0.1", cfg.Bridge.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Bridge.ReadTimeout,
		WriteTimeout: cfg.Bridge.WriteTimeout,
		IdleTimeout:  cfg.Bridge.IdleTimeout,
	}

	// Open streams never go idle; closing the broker ends them.
	srv.RegisterOnShutdown(func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = broker.Manager.Shutdown(ctx)
	})

	// Bind before returning so a busy port fails startup.
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return nil, err
	}

	go func() {
		log.Info("Bridge starting", "addr", srv.Addr)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Bridge server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}

package providers

import (
	"github.com/samber/do/v2"

	"github.com/eventdesk/eventdesk-client/internal/auth"
	"github.com/eventdesk/eventdesk-client/internal/config"
	"github.com/eventdesk/eventdesk-client/internal/gateway"
	"github.com/eventdesk/eventdesk-client/internal/logger"
	"github.com/eventdesk/eventdesk-client/internal/session"
)

// SessionHandle wraps the session store with shutdown capability.
type SessionHandle struct {
	*session.Store
}

// Shutdown implements do.Shutdownable.
func (h *SessionHandle) Shutdown() error {
	return h.Close()
}

// ProvideSession opens the persisted session.
func ProvideSession(i do.Injector) (*SessionHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	sess, err := session.Open(session.Options{
		Path:     cfg.Session.DataPath,
		InMemory: cfg.Session.InMemory,
		Logger:   log.Component("session"),
	})
	if err != nil {
		return nil, err
	}

	log.Info("Session store opened",
		"path", cfg.Session.DataPath,
		"in_memory", cfg.Session.InMemory,
		"authenticated", sess.Authenticated(),
	)

	return &SessionHandle{Store: sess}, nil
}

// ProvideUnauthorizedHook provides the hook the gateway fires on 401. The
// auth service binds itself to it once built.
func ProvideUnauthorizedHook(i do.Injector) (*auth.UnauthorizedHook, error) {
	return &auth.UnauthorizedHook{}, nil
}

// GatewayHandle wraps the backend client with shutdown capability.
type GatewayHandle struct {
	*gateway.Client
}

// Shutdown implements do.Shutdownable.
func (h *GatewayHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideGateway provides the rate-limited backend client.
func ProvideGateway(i do.Injector) (*GatewayHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sess := do.MustInvoke[*SessionHandle](i)
	hook := do.MustInvoke[*auth.UnauthorizedHook](i)

	client, err := gateway.New(gateway.Options{
		BaseURL:           cfg.API.BaseURL,
		Timeout:           cfg.API.Timeout,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Burst:             cfg.API.Burst,
		UserAgent:         cfg.API.UserAgent,
		Tokens:            sess.Store,
		OnUnauthorized:    hook.Fire,
		Logger:            log.Component("gateway"),
	})
	if err != nil {
		return nil, err
	}

	return &GatewayHandle{Client: client}, nil
}

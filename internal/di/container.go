// Package di provides dependency injection configuration for the EventDesk client.
package di

import (
	"github.com/samber/do/v2"

	"github.com/eventdesk/eventdesk-client/internal/auth"
	"github.com/eventdesk/eventdesk-client/internal/call"
	"github.com/eventdesk/eventdesk-client/internal/config"
	"github.com/eventdesk/eventdesk-client/internal/di/providers"
	"github.com/eventdesk/eventdesk-client/internal/invite"
	"github.com/eventdesk/eventdesk-client/internal/logger"
	"github.com/eventdesk/eventdesk-client/internal/search"
	"github.com/eventdesk/eventdesk-client/internal/store"
	"github.com/eventdesk/eventdesk-client/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()
	Register(injector)
	return injector
}

// Register adds every provider to injector.
func Register(injector do.Injector) {
	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Session and backend
	do.Provide(injector, providers.ProvideSession)
	do.Provide(injector, providers.ProvideUnauthorizedHook)
	do.Provide(injector, providers.ProvideGateway)

	// State layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchEngine)

	// Workflows
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideResponder)

	// Bridge
	do.Provide(injector, providers.ProvideCallGroup)
	do.Provide(injector, providers.ProvideHTTPServer)
}

// Bootstrap initializes all services and starts the bridge.
// This triggers lazy initialization of all core services.
func Bootstrap(injector do.Injector) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*providers.SessionHandle](injector)
	_ = do.MustInvoke[*providers.GatewayHandle](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*store.Store](injector)
	_ = do.MustInvoke[*search.Engine](injector)
	_ = do.MustInvoke[*auth.Service](injector)
	_ = do.MustInvoke[*invite.Responder](injector)
	_ = do.MustInvoke[*call.Group](injector)

	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	providers.RestoreSession(injector)

	return nil
}

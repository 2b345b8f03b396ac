package providers

import (
	"github.com/samber/do/v2"

	"github.com/eventdesk/eventdesk-client/internal/auth"
	"github.com/eventdesk/eventdesk-client/internal/invite"
	"github.com/eventdesk/eventdesk-client/internal/logger"
	"github.com/eventdesk/eventdesk-client/internal/search"
	"github.com/eventdesk/eventdesk-client/internal/store"
	"github.com/eventdesk/eventdesk-client/internal/validation"
)

// resetters clears every piece of per-user state on sign-out.
type resetters []auth.Resetter

func (r resetters) Reset() {
	for _, x := range r {
		x.Reset()
	}
}

// ProvideAuthService provides the auth service and binds the gateway's
// unauthorized hook to it.
func ProvideAuthService(i do.Injector) (*auth.Service, error) {
	log := do.MustInvoke[*logger.Logger](i)
	gw := do.MustInvoke[*GatewayHandle](i)
	sess := do.MustInvoke[*SessionHandle](i)
	hook := do.MustInvoke[*auth.UnauthorizedHook](i)
	st := do.MustInvoke[*store.Store](i)
	engine := do.MustInvoke[*search.Engine](i)
	broker := do.MustInvoke[*SSEManagerHandle](i)
	v := do.MustInvoke[*validation.Validator](i)

	svc := auth.NewService(gw.Client, sess.Store, auth.Options{
		Reset:     resetters{st, engine},
		Emitter:   broker.Manager,
		Validator: v,
		Logger:    log.Component("auth"),
	})
	hook.Bind(svc)

	return svc, nil
}

// ProvideResponder provides the invitation responder.
func ProvideResponder(i do.Injector) (*invite.Responder, error) {
	log := do.MustInvoke[*logger.Logger](i)
	st := do.MustInvoke[*store.Store](i)

	return invite.NewResponder(st, log.Component("invite")), nil
}

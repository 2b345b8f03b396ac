package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/eventdesk/eventdesk-client/internal/auth"
	"github.com/eventdesk/eventdesk-client/internal/call"
	"github.com/eventdesk/eventdesk-client/internal/logger"
	"github.com/eventdesk/eventdesk-client/internal/store"
)

// RestoreSession checks a session restored from disk against the backend
// in the background and, when it is still valid, loads both collections.
// An invalid token signs the user out.
func RestoreSession(i do.Injector) {
	svc := do.MustInvoke[*auth.Service](i)
	if !svc.Authenticated() {
		return
	}
	st := do.MustInvoke[*store.Store](i)
	calls := do.MustInvoke[*call.Group](i)
	log := do.MustInvoke[*logger.Logger](i)

	go func() {
		err := calls.Run(func(ctx context.Context) error {
			if _, err := svc.Verify(ctx); err != nil {
				return err
			}
			return st.Refresh(ctx)
		})
		if err != nil {
			log.Warn("Restored session not usable", "error", err)
			return
		}
		log.Info("Session restored", "user_id", svc.CurrentUserID())
	}()
}

package auth

import "sync/atomic"

// UnauthorizedHook carries 401 notifications from the gateway to a Service
// that is built after the gateway.
type UnauthorizedHook struct {
	svc atomic.Pointer[Service]
}

// Bind routes later notifications to svc.
func (h *UnauthorizedHook) Bind(svc *Service) {
	h.svc.Store(svc)
}

// Fire signs out the bound service. It does nothing before Bind.
func (h *UnauthorizedHook) Fire() {
	if svc := h.svc.Load(); svc != nil {
		svc.Unauthorized()
	}
}

package posauth

import (
	"context"

	"github.com/retailcore/posauth/permission"
	"github.com/retailcore/posauth/session"
)

// Logout tears the session down unconditionally: the generation bump
// invalidates every in-flight lookup, all engine-owned keys are removed from
// the store, in-memory state is reset to anonymous, and the cached logo is
// released. The configured teardown hook runs last.
//
// Logout is idempotent and never fails. A second call on an already
// anonymous session repeats the teardown harmlessly.
func (e *Engine) Logout(ctx context.Context) {
	if e.closed.Load() {
		return
	}

	e.gen.Add(1)

	e.mu.Lock()
	userID := e.identity.ID
	e.identity = Identity{}
	e.business = BusinessContext{}
	e.permSet = permission.NewSet(nil)
	// The post-logout state is anonymous-ready, not un-hydrated: capability
	// checks must answer deny immediately, not report a pending hydration.
	e.permsHydrated = true
	e.hydrated = true
	e.mu.Unlock()

	e.store.RemoveAll(ctx, session.OwnedKeys())
	e.assets.Clear()

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, formatUserID(userID), nil, nil)

	if e.teardown != nil {
		e.teardown()
	}
}

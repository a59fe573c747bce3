package posauth

import (
	"context"
	"time"

	"github.com/retailcore/posauth/session"
)

// Login runs the login transaction: authenticate, persist the token and
// response hints, then resolve canonical identity, business context, logo,
// and permissions before marking the session hydrated.
//
// Only the credential check can fail the transaction. Every later step is
// allowed to degrade: a dead business endpoint or asset host yields a
// logged-in session with null business context, never a failed login.
func (e *Engine) Login(ctx context.Context, username, password string) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}

	gen := e.gen.Load()
	start := time.Now()

	authCtx, cancel := context.WithTimeout(ctx, e.config.Hydration.LookupTimeout)
	auth, err := e.backend.Authenticate(authCtx, username, password)
	cancel()
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", err, func() map[string]string {
			return map[string]string{"username": username}
		})
		return err
	}

	applied := e.commit(ctx, gen, func() {
		e.store.Set(ctx, session.FieldToken.Canonical, auth.Token)
		if auth.TerminalID != "" {
			e.store.Set(ctx, session.FieldTerminalID.Canonical, auth.TerminalID)
		}
		if auth.BusinessProfileID != "" {
			e.store.Set(ctx, session.FieldBusinessID.Canonical, auth.BusinessProfileID)
		}
		seed := Identity{Username: auth.Username}
		if auth.Role != "" {
			seed.Roles = []string{auth.Role}
		}
		e.identity = seed
		e.persistIdentity(ctx, seed)
	})
	if !applied {
		// Torn down while authenticating; the token was never persisted.
		return ErrEngineClosed
	}

	userID := e.refreshIdentity(ctx, gen, 0)

	if userID != 0 {
		e.refreshBusiness(ctx, gen, userID, true)
	} else {
		e.commit(ctx, gen, func() { e.clearBusiness(ctx) })
	}
	if ref := e.CurrentBusiness().LogoRef; ref != "" {
		e.refreshAsset(ctx, ref)
	}

	e.refreshPermissions(ctx, gen)

	applied = e.commit(ctx, gen, func() {
		e.permsHydrated = true
		e.hydrated = true
	})
	if applied {
		e.metricInc(MetricLoginSuccess)
		e.metricObserve(MetricLoginLatency, time.Since(start))
		e.emitAudit(ctx, auditEventLoginSuccess, true, formatUserID(userID), nil, func() map[string]string {
			return map[string]string{"username": username}
		})
	}
	return nil
}

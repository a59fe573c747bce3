package posauth

import (
	"context"
	"strconv"
	"time"

	"github.com/retailcore/posauth/permission"
	"github.com/retailcore/posauth/session"
)

// Hydrate resolves the persisted session into live engine state. Without a
// usable token it settles anonymously and never touches the backend. With
// one it seeds state from the store immediately, then refreshes identity,
// business context, logo, and permissions from the backend.
//
// Hydration never fails the session: every remote lookup is allowed to
// degrade, leaving the persisted values in place. The hydration flags flip
// to true exactly once per session generation and the permission flag is
// never observable behind the identity flag.
func (e *Engine) Hydrate(ctx context.Context) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}

	gen := e.gen.Load()
	start := time.Now()

	rec := e.resolver.Resolve(ctx)
	if !rec.Authenticated() {
		applied := e.commit(ctx, gen, func() {
			e.identity = Identity{}
			e.business = BusinessContext{}
			e.permSet = permission.NewSet(nil)
			e.permsHydrated = true
			e.hydrated = true
		})
		if applied {
			e.metricInc(MetricAnonymousBoot)
			e.emitAudit(ctx, auditEventAnonymousBoot, true, "", nil, nil)
		}
		return nil
	}

	// Seed from the store before any remote call so capability checks are
	// answerable while lookups are in flight.
	e.commit(ctx, gen, func() { e.applyRecord(rec) })

	userID := e.refreshIdentity(ctx, gen, rec.UserID)

	if userID != 0 {
		e.refreshBusiness(ctx, gen, userID, false)
	}
	if ref := e.CurrentBusiness().LogoRef; ref != "" {
		e.refreshAsset(ctx, ref)
	}

	e.refreshPermissions(ctx, gen)

	applied := e.commit(ctx, gen, func() {
		e.permsHydrated = true
		e.hydrated = true
	})
	if applied {
		e.metricInc(MetricHydrationCompleted)
		e.metricObserve(MetricHydrateLatency, time.Since(start))
		e.emitAudit(ctx, auditEventHydrationCompleted, true, formatUserID(userID), nil, nil)
	}
	return nil
}

// refreshIdentity fetches the canonical identity and persists it. On failure
// the seeded identity stands and the session continues degraded. Returns the
// best-known user id.
func (e *Engine) refreshIdentity(ctx context.Context, gen uint64, fallback int64) int64 {
	var rec IdentityRecord
	err := e.lookup(ctx, func(ctx context.Context) error {
		var err error
		rec, err = e.backend.FetchIdentity(ctx)
		return err
	})
	if err != nil {
		e.logger.Error(err, "identity refresh degraded, keeping seeded identity")
		e.metricInc(MetricIdentityRefreshFailure)
		e.emitAudit(ctx, auditEventIdentityDegraded, false, formatUserID(fallback), err, nil)
		return fallback
	}

	e.commit(ctx, gen, func() {
		e.identity = Identity{
			ID:       rec.ID,
			Username: rec.Username,
			Roles:    append([]string(nil), rec.Roles...),
		}
		e.persistIdentity(ctx, e.identity)
	})
	return rec.ID
}

// refreshBusiness fetches the business profile for userID. clearOnFailure
// selects the login behavior, where a failed lookup persists an explicitly
// null context; hydration keeps whatever the store already holds.
func (e *Engine) refreshBusiness(ctx context.Context, gen uint64, userID int64, clearOnFailure bool) {
	var profile BusinessProfile
	err := e.lookup(ctx, func(ctx context.Context) error {
		var err error
		profile, err = e.backend.FetchBusinessProfile(ctx, userID)
		return err
	})
	if err != nil {
		e.logger.Error(err, "business profile lookup degraded", "userID", userID)
		e.metricInc(MetricBusinessLookupFailure)
		e.emitAudit(ctx, auditEventBusinessDegraded, false, formatUserID(userID), err, nil)
		if clearOnFailure {
			e.commit(ctx, gen, func() { e.clearBusiness(ctx) })
		}
		return
	}

	e.commit(ctx, gen, func() {
		e.business = BusinessContext{
			ID:      session.ParseValue(profile.BusinessID),
			Name:    profile.Name,
			LogoRef: profile.LogoRef,
		}
		e.persistBusiness(ctx, e.business)
	})
}

// refreshAsset replaces the cached logo. The cache performs its own
// staleness accounting, so no generation is threaded through.
func (e *Engine) refreshAsset(ctx context.Context, ref string) {
	if _, err := e.assets.Refresh(ctx, ref); err != nil {
		e.logger.Error(err, "asset fetch failed", "ref", ref)
		e.metricInc(MetricAssetFetchFailure)
		e.emitAudit(ctx, auditEventAssetFetchFailure, false, "", err, func() map[string]string {
			return map[string]string{"ref": ref}
		})
		return
	}
	e.metricInc(MetricAssetFetchSuccess)
}

// refreshPermissions fetches the permission set and persists it under the
// canonical key. Reports whether the result was applied.
func (e *Engine) refreshPermissions(ctx context.Context, gen uint64) bool {
	var perms []string
	err := e.lookup(ctx, func(ctx context.Context) error {
		var err error
		perms, err = e.backend.FetchPermissions(ctx)
		return err
	})
	if err != nil {
		e.logger.Error(err, "permission refresh degraded, keeping current set")
		e.metricInc(MetricPermissionRefreshFailure)
		e.emitAudit(ctx, auditEventPermissionsDegraded, false, "", err, nil)
		return false
	}

	applied := e.commit(ctx, gen, func() {
		e.permSet = permission.NewSet(perms)
		e.store.Set(ctx, session.FieldPermissions.Canonical, session.EncodeList(perms))
	})
	if applied {
		e.metricInc(MetricPermissionRefreshSuccess)
		e.emitAudit(ctx, auditEventPermissionsRefreshed, true, "", nil, nil)
	}
	return applied
}

// RefreshPermissions re-fetches the permission set for the current session,
// for callers reacting to a server-side role change. Failures leave the
// current set untouched.
func (e *Engine) RefreshPermissions(ctx context.Context) {
	if e.closed.Load() {
		return
	}
	e.refreshPermissions(ctx, e.gen.Load())
}

func formatUserID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

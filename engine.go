package posauth

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"

	"github.com/retailcore/posauth/asset"
	"github.com/retailcore/posauth/internal"
	"github.com/retailcore/posauth/permission"
	"github.com/retailcore/posauth/session"
)

// Engine is the session and authorization engine. It owns the durable
// session store, the in-memory identity view derived from it, the permission
// resolver, and the authenticated asset cache.
//
// All state transitions are guarded by a generation counter: long-running
// lookups snapshot the generation before suspending and their results are
// discarded if a logout or Close bumped it in the meantime. Capability
// checks never block on the network.
type Engine struct {
	config   Config
	logger   logr.Logger
	store    *session.Store
	resolver *session.Resolver
	perms    *permission.Resolver
	backend  Backend
	assets   *asset.Cache
	audit    *auditDispatcher
	metrics  *Metrics
	teardown func()

	gen    atomic.Uint64
	closed atomic.Bool

	mu            sync.RWMutex
	identity      Identity
	business      BusinessContext
	permSet       permission.Set
	permsHydrated bool
	hydrated      bool
}

// commit applies fn under the state lock if the generation still matches.
// Every remote result flows through here so stale results from a torn-down
// session never touch state or storage.
func (e *Engine) commit(ctx context.Context, gen uint64, fn func()) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed.Load() || e.gen.Load() != gen {
		e.metricInc(MetricStaleResultDiscarded)
		e.emitAudit(ctx, auditEventStaleResultDiscarded, false, "", nil, nil)
		return false
	}
	fn()
	return true
}

// lookup wraps a backend call with the configured per-attempt timeout and
// bounded retry. Login's credential check does not use it.
func (e *Engine) lookup(ctx context.Context, fn func(context.Context) error) error {
	return internal.Retry(ctx, e.config.Hydration.RetryAttempts, e.config.Hydration.RetryBackoff,
		func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, e.config.Hydration.LookupTimeout)
			defer cancel()
			return fn(ctx)
		})
}

func (e *Engine) metricInc(id MetricID) {
	if e.metrics != nil {
		e.metrics.Inc(id)
	}
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	if e.metrics != nil {
		e.metrics.Observe(id, d)
	}
}

// IsAuthenticated reports whether a usable token is persisted. It consults
// the store, not the hydration flags, so it is accurate before hydration
// completes.
func (e *Engine) IsAuthenticated(ctx context.Context) bool {
	if e.closed.Load() {
		return false
	}
	return e.resolver.Token(ctx) != ""
}

// IsHydrated reports whether the identity resolution pass has completed for
// the current session, successfully or degraded.
func (e *Engine) IsHydrated() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.hydrated
}

// PermissionsHydrated reports whether the permission set is settled. It
// never trails IsHydrated: when IsHydrated is true this is true as well.
func (e *Engine) PermissionsHydrated() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.permsHydrated
}

// Can resolves a capability check against the in-memory permission state.
// It never blocks on the network; before hydration it answers from whatever
// the persisted session seeded.
func (e *Engine) Can(resource, action string) bool {
	e.mu.RLock()
	roles := e.identity.Roles
	set := e.permSet
	e.mu.RUnlock()

	allowed := e.perms.Can(roles, set, resource, action)
	if allowed {
		e.metricInc(MetricAccessGranted)
	} else {
		e.metricInc(MetricAccessDenied)
	}
	return allowed
}

// CurrentIdentity returns a copy of the in-memory identity view.
func (e *Engine) CurrentIdentity() Identity {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := e.identity
	out.Roles = append([]string(nil), e.identity.Roles...)
	return out
}

// CurrentBusiness returns the resolved business display context.
func (e *Engine) CurrentBusiness() BusinessContext {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.business
}

// TerminalID resolves the active terminal identifier from the session store.
func (e *Engine) TerminalID(ctx context.Context) session.Value {
	return e.resolver.TerminalID(ctx)
}

// SetTerminal persists the terminal identifier under its canonical key.
func (e *Engine) SetTerminal(ctx context.Context, id string) {
	e.store.Set(ctx, session.FieldTerminalID.Canonical, id)
}

// SetBusiness persists and applies a business context, typically after the
// operator switches business profiles without re-authenticating.
func (e *Engine) SetBusiness(ctx context.Context, profile BusinessProfile) {
	gen := e.gen.Load()
	e.commit(ctx, gen, func() {
		e.business = BusinessContext{
			ID:      session.ParseValue(profile.BusinessID),
			Name:    profile.Name,
			LogoRef: profile.LogoRef,
		}
		e.persistBusiness(ctx, e.business)
	})
}

// Logo returns the current cached logo handle, or nil when none is loaded.
// The handle stays valid until the next refresh or logout releases it.
func (e *Engine) Logo() *asset.Handle {
	return e.assets.Current()
}

// Metrics exposes the engine's counters for exporters. Nil when metrics are
// disabled.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// MetricsSnapshot returns a point-in-time copy of all counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e.metrics == nil {
		return MetricsSnapshot{}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	return e.audit.Dropped()
}

// Close stops background dispatch and invalidates in-flight lookups. It does
// not clear the persisted session; use Logout for teardown.
func (e *Engine) Close() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	e.gen.Add(1)
	e.audit.Close()
}

// persistIdentity writes the identity fields under their canonical keys.
// Callers hold the state lock via commit.
func (e *Engine) persistIdentity(ctx context.Context, id Identity) {
	if id.ID != 0 {
		e.store.Set(ctx, session.FieldUserID.Canonical, strconv.FormatInt(id.ID, 10))
	}
	if id.Username != "" {
		e.store.Set(ctx, session.FieldUsername.Canonical, id.Username)
	}
	if len(id.Roles) > 0 {
		e.store.Set(ctx, session.FieldRoles.Canonical, session.EncodeList(id.Roles))
	}
}

func (e *Engine) persistBusiness(ctx context.Context, b BusinessContext) {
	e.store.Set(ctx, session.FieldBusinessID.Canonical, b.ID.String())
	e.store.Set(ctx, session.FieldBusinessName.Canonical, b.Name)
	e.store.Set(ctx, session.FieldBusinessLogo.Canonical, b.LogoRef)
}

// clearBusiness persists an explicitly null business context so a stale one
// from a previous session cannot resurface on the next boot.
func (e *Engine) clearBusiness(ctx context.Context) {
	e.business = BusinessContext{}
	e.store.Remove(ctx, session.FieldBusinessID.Canonical)
	e.store.Remove(ctx, session.FieldBusinessName.Canonical)
	e.store.Remove(ctx, session.FieldBusinessLogo.Canonical)
}

// applyRecord replaces the in-memory view with the persisted session state.
// Callers hold the state lock via commit.
func (e *Engine) applyRecord(rec session.Record) {
	e.identity = Identity{
		ID:       rec.UserID,
		Username: rec.Username,
		Roles:    append([]string(nil), rec.Roles...),
	}
	e.business = BusinessContext{
		ID:      rec.BusinessID,
		Name:    rec.BusinessName,
		LogoRef: rec.BusinessLogoRef,
	}
	e.permSet = permission.NewSet(rec.Permissions)
}

package posauth

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/redis/go-redis/v9"

	"github.com/retailcore/posauth/asset"
	"github.com/retailcore/posauth/jwt"
	"github.com/retailcore/posauth/permission"
	"github.com/retailcore/posauth/session"
)

// Builder assembles an [Engine]. A Builder is single-use: Build consumes it.
type Builder struct {
	config Config

	redis    redis.UniversalClient
	backend  Backend
	logger   logr.Logger
	sink     AuditSink
	grants   map[string][]permission.Grant
	teardown func()

	built bool
}

// New returns a Builder seeded with defaults.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
		logger: logr.Discard(),
	}
}

// WithConfig replaces the full configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the durable store. Without one the
// store runs on its in-process mirror alone and the session does not survive
// restarts.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithBackend sets the remote backend. Required.
func (b *Builder) WithBackend(backend Backend) *Builder {
	b.backend = backend
	return b
}

// WithLogger sets the structured logger. Defaults to logr.Discard.
func (b *Builder) WithLogger(logger logr.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the audit destination. Events are dispatched
// asynchronously; see AuditConfig for backpressure behavior.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithRoleGrants registers the role-to-grant table consulted when a
// capability check falls through the explicit permission set. A role mapped
// to the grant {"*", ""} implies every capability.
func (b *Builder) WithRoleGrants(grants map[string][]permission.Grant) *Builder {
	b.grants = grants
	return b
}

// WithTeardownHook sets a function invoked at the end of Logout, after state
// and storage are cleared. Hosts use it to route the operator back to the
// login surface.
func (b *Builder) WithTeardownHook(fn func()) *Builder {
	b.teardown = fn
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles login and hydration latency recording.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, assembles the engine, and seeds its
// in-memory state from the persisted session. It does not hydrate: callers
// run Hydrate themselves, typically right after Build.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, fmt.Errorf("%w: builder already used", ErrBuilderIncomplete)
	}
	b.built = true

	if b.backend == nil {
		return nil, fmt.Errorf("%w: backend required", ErrBuilderIncomplete)
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// -------- PERMISSION TABLE --------
	table := permission.NewTable()
	for role, grants := range b.grants {
		if err := table.RegisterRole(role, grants); err != nil {
			return nil, err
		}
	}
	table.Freeze()

	// -------- SESSION STORE --------
	store := session.NewStore(b.redis, cfg.Store.Namespace, b.logger)

	var tokenCheck session.TokenCheck
	if cfg.Token.RejectExpired {
		inspector := jwt.NewInspector(cfg.Token.Leeway)
		tokenCheck = inspector.Usable
	}
	resolver := session.NewResolver(store, tokenCheck)

	engine := &Engine{
		config:   cfg,
		logger:   b.logger,
		store:    store,
		resolver: resolver,
		perms:    permission.NewResolver(table, cfg.Permission.AdminRoles),
		backend:  b.backend,
		assets:   asset.NewCache(cfg.HTTP.BaseURL, b.backend.FetchBinary),
		audit:    newAuditDispatcher(cfg.Audit, b.sink),
		metrics:  NewMetrics(cfg.Metrics),
		teardown: b.teardown,
	}
	store.SetErrorHook(func() { engine.metricInc(MetricStorageFailure) })

	// Seed synchronously so capability checks answer from the persisted
	// session before the first Hydrate completes.
	rec := resolver.Resolve(context.Background())
	if rec.Authenticated() {
		engine.applyRecord(rec)
	} else {
		engine.permSet = permission.NewSet(nil)
	}

	return engine, nil
}

// SessionResolver exposes the engine's session resolver for wiring the
// outbound HTTP transport. The resolver is read-only and safe to share.
func (e *Engine) SessionResolver() *session.Resolver {
	return e.resolver
}

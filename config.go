package posauth

import (
	"fmt"
	"time"
)

/*==================== STORE ====================*/

// StoreConfig controls the durable session store.
type StoreConfig struct {
	// Namespace prefixes every persisted key. Defaults to "posauth".
	Namespace string
}

/*==================== TOKEN ====================*/

// TokenConfig controls how persisted tokens are judged on boot.
type TokenConfig struct {
	// RejectExpired treats a persisted JWT whose exp has passed as
	// absent, forcing an anonymous boot instead of a doomed hydration.
	// Opaque (non-JWT) tokens are never rejected. Defaults to true.
	RejectExpired bool

	// Leeway is the clock-skew allowance applied to exp checks.
	Leeway time.Duration
}

/*==================== PERMISSION ====================*/

// PermissionConfig controls the permission resolution step.
type PermissionConfig struct {
	// AdminRoles short-circuit every capability check to allow.
	// Defaults to ["ADMIN"].
	AdminRoles []string
}

/*==================== HYDRATION ====================*/

// HydrationConfig bounds the remote lookups performed during session
// hydration and login.
type HydrationConfig struct {
	// LookupTimeout caps each individual backend lookup.
	LookupTimeout time.Duration

	// RetryAttempts is the number of retries after the first failure of
	// a non-fatal lookup. The credential check in Login is never retried.
	RetryAttempts int

	// RetryBackoff is the delay between retry attempts.
	RetryBackoff time.Duration
}

/*==================== HTTP ====================*/

// HTTPConfig carries the remote surface the engine and its transport share.
type HTTPConfig struct {
	// BaseURL resolves relative asset references and anchors the remote
	// client. Required.
	BaseURL string

	// PublicPaths are request-path prefixes that must never carry
	// credentials. The outbound transport strips identity headers on them.
	PublicPaths []string
}

/*==================== AUDIT ====================*/

// AuditConfig controls asynchronous audit dispatch.
type AuditConfig struct {
	Enabled bool

	// BufferSize is the dispatch channel capacity. Defaults to 1024.
	BufferSize int

	// DropIfFull drops events instead of blocking when the buffer is
	// full. Dropped counts are observable via Engine.AuditDropped.
	DropIfFull bool
}

/*==================== METRICS ====================*/

// MetricsConfig controls the in-process counters and histograms.
type MetricsConfig struct {
	Enabled bool

	// EnableLatencyHistograms additionally records login and hydration
	// latency distributions.
	EnableLatencyHistograms bool
}

/*==================== ROOT ====================*/

// Config aggregates all engine settings. Zero values are filled from
// defaultConfig by the builder; Validate runs after merging.
type Config struct {
	Store      StoreConfig
	Token      TokenConfig
	Permission PermissionConfig
	Hydration  HydrationConfig
	HTTP       HTTPConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

func defaultConfig() Config {
	return Config{
		Store: StoreConfig{
			Namespace: "posauth",
		},
		Token: TokenConfig{
			RejectExpired: true,
			Leeway:        30 * time.Second,
		},
		Permission: PermissionConfig{
			AdminRoles: []string{"ADMIN"},
		},
		Hydration: HydrationConfig{
			LookupTimeout: 10 * time.Second,
			RetryAttempts: 1,
			RetryBackoff:  250 * time.Millisecond,
		},
		Audit: AuditConfig{
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate rejects configurations that would misbehave silently.
func (c *Config) Validate() error {
	if c.Store.Namespace == "" {
		return fmt.Errorf("store: namespace must not be empty")
	}
	if c.Token.Leeway < 0 {
		return fmt.Errorf("token: leeway must not be negative")
	}
	if c.Hydration.LookupTimeout <= 0 {
		return fmt.Errorf("hydration: lookup timeout must be positive")
	}
	if c.Hydration.RetryAttempts < 0 {
		return fmt.Errorf("hydration: retry attempts must not be negative")
	}
	if c.Hydration.RetryBackoff < 0 {
		return fmt.Errorf("hydration: retry backoff must not be negative")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return fmt.Errorf("audit: buffer size must be positive when enabled")
	}
	return nil
}

// cloneConfig deep-copies c so callers cannot mutate engine state after
// Build.
func cloneConfig(c Config) Config {
	out := c
	out.Permission.AdminRoles = append([]string(nil), c.Permission.AdminRoles...)
	out.HTTP.PublicPaths = append([]string(nil), c.HTTP.PublicPaths...)
	return out
}

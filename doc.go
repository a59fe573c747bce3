// Package posauth provides the client-side session and authorization engine
// for retail point-of-sale admin surfaces: a Redis-backed durable session
// store, canonical-with-legacy key resolution, layered permission checks,
// a race-free hydration state machine, and an authenticated asset cache.
//
// The package is designed for concurrent UI workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// posauth is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (Identity, BusinessContext, MetricsSnapshot, etc.). Field
// naming, list encoding, and key precedence live under session/; grant
// matching under permission/; token inspection under jwt/.
//
// # What this package must NOT do
//
//   - Expose Redis clients, store internals, or key-name details in its
//     public API.
//   - Block a capability check on the network. Can answers from in-memory
//     state only.
//   - Apply a remote result without a generation check (see Engine.commit).
//
// # Performance contract
//
// Can is the hot path. It must not allocate beyond the normalization of its
// two inputs and must complete without store or Redis round-trips. Login and
// Hydrate are allowed one backend call per resolution step.
package posauth

// Package session provides the durable namespaced key/value store and the
// token/identity resolver for the posauth engine.
//
// # Store semantics
//
// [Store] is a dumb string store: no validation, no interpretation. Writes go
// to an in-process mirror first and are replicated to Redis best-effort, so a
// storage outage degrades durability but never correctness — the mirror stays
// authoritative for the process lifetime and reads observe writes immediately.
//
// # Legacy key tolerance
//
// Every logical field has one canonical key plus an ordered list of legacy
// aliases, declared centrally in keys.go. [Resolver] reads candidates in
// declaration order and returns the first usable value, so alias precedence is
// auditable in one place rather than scattered through call sites.
//
// # Architecture boundaries
//
// This package owns persistence and resolution only. It does NOT evaluate
// permissions, run the login transaction, or interpret token contents — the
// engine injects a validity hook when token inspection is wanted.
//
// # What this package must NOT do
//
//   - Import posauth, permission, or remote (no upward imports).
//   - Throw storage failures past the caller.
//   - Keep a second source of truth beyond the declared legacy aliases.
package session

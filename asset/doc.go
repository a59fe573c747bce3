// Package asset manages the lifetime of authenticated binary assets fetched
// behind bearer auth, currently the business logo.
//
// # Release discipline
//
// The cache holds at most one live [Handle] per slot. The previous handle is
// released before a new fetch starts, on any fetch failure, and on teardown.
// Release is idempotent: exactly one caller observes the true return. This is
// the only part of the engine managing a scarce resource, so the discipline
// is explicit rather than left to the garbage collector.
//
// # What this package must NOT do
//
//   - Hold two live handles for one slot.
//   - Commit a fetch result issued before a teardown (generation check).
//   - Import any other posauth package.
package asset

// Package permission implements normalization-tolerant authority resolution for the
// posauth engine: authority-string normalization, variant expansion, normalized
// permission sets, and role-implied grant tables.
//
// # Authority variants
//
// Backend authority naming is inconsistent across endpoints and migrations
// (colon vs underscore separators, PERM_/PERMISSION_ prefixes, :ALLOW suffixes).
// [Variants] expands a resource/action pair into every tolerated spelling from a
// single template table so no call site hardcodes a spelling.
//
// # Architecture boundaries
//
// This package is a pure in-memory data structure with no I/O. [Resolver.Can] is
// synchronous, deterministic given its inputs, and safe to call on every render.
//
// # What this package must NOT do
//
//   - Access Redis, storage, or the network.
//   - Import posauth, session, or remote.
//   - Mutate a [Table] after [Table.Freeze].
package permission

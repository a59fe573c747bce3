// Package jwt provides unverified inspection of persisted bearer tokens.
//
// The posauth engine is a token consumer, not an issuer: signature
// verification belongs to the backend that minted the token. Inspection here
// exists for exactly one purpose — detecting that a token persisted by a
// previous process lifetime has already expired, so boot can short-circuit to
// an anonymous session instead of issuing doomed authenticated calls.
//
// # What this package must NOT do
//
//   - Treat an inspected token as proof of identity.
//   - Reject opaque (non-JWT) tokens; those pass through untouched.
//   - Import any other posauth package.
package jwt

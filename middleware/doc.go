// Package middleware exposes the outbound HTTP boundary of the posauth
// engine: an [http.RoundTripper] that stamps every request the application
// makes with the current session identity.
//
// # Header contract
//
// Authenticated requests carry Authorization: Bearer plus identity headers in
// both spellings the backend fleet accepts (userId/UserId, terminalId/
// TerminalId, businessId/BusinessId) and an X-Request-Id correlation id. On
// endpoints designated public (login, registration) any stale authorization
// or identity header is actively stripped, not merely omitted.
//
// # Architecture boundaries
//
// The transport consults the session resolver on every request, so outbound
// headers can never disagree with boot-time seeding. It makes no
// authorization decisions of its own.
//
// # What this package must NOT do
//
//   - Cache resolved identity across requests.
//   - Mutate the caller's request in place.
//   - Interpret response bodies.
package middleware

// Package remote implements the posauth Backend over the POS admin HTTP
// API. It owns endpoint paths, payload decoding, and status-to-error
// mapping; the engine never sees HTTP details.
//
// Requests go through middleware.Transport, so every call automatically
// carries the bearer token and dual-cased identity headers the legacy API
// expects, and credential-free public paths stay credential-free.
package remote

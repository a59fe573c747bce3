package session

import (
	"context"
	"strconv"
)

// Stringified nulls leaked into persistence by earlier releases. Treated as
// absent, never as values.
func usable(v string) bool {
	return v != "" && v != "null" && v != "undefined"
}

// TokenCheck decides whether a resolved token is still usable. The engine
// injects an expiry inspector; a nil check accepts every non-empty token.
type TokenCheck func(token string) bool

// Resolver derives authoritative per-field values from the store, honoring
// canonical-before-legacy key precedence. Resolution is pure: two calls with
// no intervening writes return identical results, which lets boot seeding and
// per-request header attachment share one code path without disagreeing.
type Resolver struct {
	store      *Store
	tokenCheck TokenCheck
}

// NewResolver creates a [Resolver] over the store. tokenCheck may be nil.
func NewResolver(store *Store, tokenCheck TokenCheck) *Resolver {
	return &Resolver{store: store, tokenCheck: tokenCheck}
}

// field returns the first usable candidate value for the field.
func (r *Resolver) field(ctx context.Context, f Field) (string, bool) {
	for _, key := range f.Candidates() {
		if v, ok := r.store.Get(ctx, key); ok && usable(v) {
			return v, true
		}
	}
	return "", false
}

// Token resolves the bearer token, applying the validity check. An expired or
// unusable token resolves as absent.
func (r *Resolver) Token(ctx context.Context) string {
	v, ok := r.field(ctx, FieldToken)
	if !ok {
		return ""
	}
	if r.tokenCheck != nil && !r.tokenCheck(v) {
		return ""
	}
	return v
}

// TerminalID resolves the terminal identifier with numeric coercion.
func (r *Resolver) TerminalID(ctx context.Context) Value {
	v, _ := r.field(ctx, FieldTerminalID)
	return ParseValue(v)
}

// BusinessID resolves the business identifier with numeric coercion.
func (r *Resolver) BusinessID(ctx context.Context) Value {
	v, _ := r.field(ctx, FieldBusinessID)
	return ParseValue(v)
}

// UserID resolves the numeric user identifier; zero means unset.
func (r *Resolver) UserID(ctx context.Context) int64 {
	v, ok := r.field(ctx, FieldUserID)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Resolve reads every engine-owned field and returns the assembled [Record].
func (r *Resolver) Resolve(ctx context.Context) Record {
	rec := Record{
		Token:      r.Token(ctx),
		UserID:     r.UserID(ctx),
		TerminalID: r.TerminalID(ctx),
		BusinessID: r.BusinessID(ctx),
	}

	if v, ok := r.field(ctx, FieldUsername); ok {
		rec.Username = v
	}
	if v, ok := r.field(ctx, FieldRoles); ok {
		rec.Roles = DecodeList(v)
	}
	if v, ok := r.field(ctx, FieldPermissions); ok {
		rec.Permissions = DecodeList(v)
	}
	if v, ok := r.field(ctx, FieldBusinessName); ok {
		rec.BusinessName = v
	}
	if v, ok := r.field(ctx, FieldBusinessLogo); ok {
		rec.BusinessLogoRef = v
	}

	return rec
}

package posauth

import (
	"context"

	"github.com/retailcore/posauth/session"
)

// AuthResponse is returned by [Backend.Authenticate]. Token is the only
// guaranteed field; the rest are hints that seed the session until the
// canonical identity lookup lands.
type AuthResponse struct {
	Token             string
	Username          string
	Role              string
	BusinessProfileID string
	TerminalID        string
}

// IdentityRecord is the canonical identity returned by
// [Backend.FetchIdentity].
type IdentityRecord struct {
	ID       int64
	Username string
	Roles    []string
}

// BusinessProfile is the business context returned by
// [Backend.FetchBusinessProfile]. LogoRef is a server-side reference,
// possibly relative, consumed by the asset cache.
type BusinessProfile struct {
	BusinessID string
	Name       string
	LogoRef    string
}

// Backend is the remote contract the engine depends on. remote.Client is
// the production implementation; tests substitute scriptable stubs.
//
// Every method is a suspension point under the engine's concurrency model:
// results are applied only after a generation check, so implementations may
// return arbitrarily late without corrupting a torn-down session.
type Backend interface {
	Authenticate(ctx context.Context, username, password string) (AuthResponse, error)
	FetchIdentity(ctx context.Context) (IdentityRecord, error)
	FetchPermissions(ctx context.Context) ([]string, error)
	FetchBusinessProfile(ctx context.Context, userID int64) (BusinessProfile, error)
	FetchBinary(ctx context.Context, url string) ([]byte, string, error)
}

// Identity is the in-memory identity view derived from the session record.
// It is never persisted independently of it.
type Identity struct {
	ID       int64
	Username string
	Roles    []string
}

// Anonymous reports whether the identity is unset.
func (i Identity) Anonymous() bool { return i.ID == 0 && i.Username == "" }

// BusinessContext is the resolved business display context.
type BusinessContext struct {
	ID      session.Value
	Name    string
	LogoRef string
}

// Empty reports whether no business context is resolved.
func (b BusinessContext) Empty() bool {
	return b.ID.IsZero() && b.Name == "" && b.LogoRef == ""
}

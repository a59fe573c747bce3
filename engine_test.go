package posauth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-logr/logr"
	"github.com/redis/go-redis/v9"

	"github.com/retailcore/posauth/permission"
	"github.com/retailcore/posauth/session"
)

func testLogger() logr.Logger { return logr.Discard() }

func newTestRedis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

// stubBackend scripts every Backend method. Zero value answers a fixed
// cashier identity; tests override fields or install hooks for failures and
// timing control.
type stubBackend struct {
	mu sync.Mutex

	authErr     error
	authResp    AuthResponse
	identity    IdentityRecord
	identityErr error
	perms       []string
	permsErr    error
	profile     BusinessProfile
	profileErr  error
	binary      []byte
	binaryErr   error

	// Optional per-call hooks, consulted before the scripted fields.
	onPermissions func(ctx context.Context) ([]string, error)

	permCalls int
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		authResp: AuthResponse{Token: "tok-1", Username: "clerk", Role: "CASHIER"},
		identity: IdentityRecord{ID: 7, Username: "clerk", Roles: []string{"CASHIER"}},
		perms:    []string{"SALES:CREATE"},
		profile:  BusinessProfile{BusinessID: "42", Name: "Corner Mart", LogoRef: ""},
		binary:   []byte{0x89, 'P', 'N', 'G'},
	}
}

func (b *stubBackend) Authenticate(ctx context.Context, username, password string) (AuthResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.authErr != nil {
		return AuthResponse{}, b.authErr
	}
	return b.authResp, nil
}

func (b *stubBackend) FetchIdentity(ctx context.Context) (IdentityRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.identityErr != nil {
		return IdentityRecord{}, b.identityErr
	}
	return b.identity, nil
}

func (b *stubBackend) FetchPermissions(ctx context.Context) ([]string, error) {
	b.mu.Lock()
	b.permCalls++
	hook := b.onPermissions
	perms, err := b.perms, b.permsErr
	b.mu.Unlock()

	if hook != nil {
		return hook(ctx)
	}
	if err != nil {
		return nil, err
	}
	return append([]string(nil), perms...), nil
}

func (b *stubBackend) FetchBusinessProfile(ctx context.Context, userID int64) (BusinessProfile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.profileErr != nil {
		return BusinessProfile{}, b.profileErr
	}
	return b.profile, nil
}

func (b *stubBackend) FetchBinary(ctx context.Context, url string) ([]byte, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.binaryErr != nil {
		return nil, "", b.binaryErr
	}
	return append([]byte(nil), b.binary...), "image/png", nil
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.Hydration.LookupTimeout = 2 * time.Second
	cfg.Hydration.RetryAttempts = 0
	cfg.Hydration.RetryBackoff = time.Millisecond
	return cfg
}

func testGrants() map[string][]permission.Grant {
	return map[string][]permission.Grant{
		"CASHIER": {{Resource: "SALES", Action: "CREATE"}},
		"MANAGER": {{Resource: "*"}},
	}
}

func buildTestEngine(t *testing.T, backend Backend, client redis.UniversalClient) *Engine {
	t.Helper()
	engine, err := New().
		WithConfig(testConfig()).
		WithRedis(client).
		WithBackend(backend).
		WithRoleGrants(testGrants()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func TestBuildRequiresBackend(t *testing.T) {
	if _, err := New().Build(); err == nil {
		t.Fatal("expected error for missing backend")
	}
}

func TestBuildSeedsFromPersistedSession(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)

	// A previous process left a complete session behind.
	seedStore := session.NewStore(client, "posauth", testLogger())
	seedStore.Set(ctx, session.FieldToken.Canonical, "tok-1")
	seedStore.Set(ctx, session.FieldUserID.Canonical, "7")
	seedStore.Set(ctx, session.FieldUsername.Canonical, "clerk")
	seedStore.Set(ctx, session.FieldRoles.Canonical, session.EncodeList([]string{"CASHIER"}))
	seedStore.Set(ctx, session.FieldPermissions.Canonical, session.EncodeList([]string{"REPORTS:VIEW"}))

	engine := buildTestEngine(t, newStubBackend(), client)

	if !engine.IsAuthenticated(ctx) {
		t.Fatal("expected seeded session to be authenticated")
	}
	if engine.IsHydrated() {
		t.Fatal("seeding must not mark the session hydrated")
	}
	if !engine.Can("REPORTS", "VIEW") {
		t.Fatal("expected seeded permission to answer before hydration")
	}
	id := engine.CurrentIdentity()
	if id.ID != 7 || id.Username != "clerk" {
		t.Fatalf("unexpected seeded identity: %+v", id)
	}
}

func TestCloseIdempotent(t *testing.T) {
	_, client := newTestRedis(t)
	engine := buildTestEngine(t, newStubBackend(), client)
	engine.Close()
	engine.Close()

	if err := engine.Hydrate(context.Background()); err != ErrEngineClosed {
		t.Fatalf("expected ErrEngineClosed, got %v", err)
	}
}

func TestSetTerminalPersists(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	engine := buildTestEngine(t, newStubBackend(), client)

	engine.SetTerminal(ctx, "TILL-03")
	if got := engine.TerminalID(ctx).String(); got != "TILL-03" {
		t.Fatalf("expected TILL-03, got %q", got)
	}

	engine.SetTerminal(ctx, "12")
	if n, ok := engine.TerminalID(ctx).Int64(); !ok || n != 12 {
		t.Fatalf("expected numeric terminal 12, got %v %v", n, ok)
	}
}

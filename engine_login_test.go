package posauth

import (
	"context"
	"errors"
	"testing"

	"github.com/retailcore/posauth/session"
)

func TestLoginSuccessFullResolution(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	backend := newStubBackend()
	backend.profile.LogoRef = "/assets/logo.png"
	engine := buildTestEngine(t, backend, client)

	if err := engine.Login(ctx, "clerk", "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if !engine.IsAuthenticated(ctx) {
		t.Fatal("expected authenticated session")
	}
	if !engine.IsHydrated() || !engine.PermissionsHydrated() {
		t.Fatal("expected hydrated flags after login")
	}

	id := engine.CurrentIdentity()
	if id.ID != 7 || id.Username != "clerk" {
		t.Fatalf("unexpected identity: %+v", id)
	}

	biz := engine.CurrentBusiness()
	if biz.ID.String() != "42" || biz.Name != "Corner Mart" {
		t.Fatalf("unexpected business context: %+v", biz)
	}

	if !engine.Can("SALES", "CREATE") {
		t.Fatal("expected explicit permission grant")
	}
	if engine.Can("INVENTORY", "DELETE") {
		t.Fatal("unexpected grant")
	}

	logo := engine.Logo()
	if logo == nil {
		t.Fatal("expected cached logo handle")
	}
	if _, err := logo.Bytes(); err != nil {
		t.Fatalf("logo handle unusable: %v", err)
	}
}

func TestLoginInvalidCredentialsCommitsNothing(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	backend := newStubBackend()
	backend.authErr = ErrInvalidCredentials
	engine := buildTestEngine(t, backend, client)

	err := engine.Login(ctx, "clerk", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if engine.IsAuthenticated(ctx) {
		t.Fatal("failed login must not persist a token")
	}
	if engine.IsHydrated() {
		t.Fatal("failed login must not mark the session hydrated")
	}
	if got := engine.MetricsSnapshot().Counters[MetricLoginFailure]; got != 1 {
		t.Fatalf("expected 1 login failure, got %d", got)
	}
}

func TestLoginBusinessLookupFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	backend := newStubBackend()
	backend.profileErr = errors.New("profile endpoint returned 500")
	engine := buildTestEngine(t, backend, client)

	if err := engine.Login(ctx, "clerk", "pw"); err != nil {
		t.Fatalf("Login must tolerate business lookup failure, got %v", err)
	}

	if !engine.IsAuthenticated(ctx) {
		t.Fatal("expected authenticated session despite degraded business lookup")
	}
	if !engine.IsHydrated() {
		t.Fatal("expected hydrated session despite degraded business lookup")
	}
	if !engine.CurrentBusiness().Empty() {
		t.Fatalf("expected null business context, got %+v", engine.CurrentBusiness())
	}
	if !engine.Can("SALES", "CREATE") {
		t.Fatal("permissions must still resolve")
	}
	if got := engine.MetricsSnapshot().Counters[MetricBusinessLookupFailure]; got != 1 {
		t.Fatalf("expected 1 business lookup failure, got %d", got)
	}
}

func TestLoginIdentityLookupFailureKeepsAuthHints(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	backend := newStubBackend()
	backend.identityErr = errors.New("identity endpoint down")
	engine := buildTestEngine(t, backend, client)

	if err := engine.Login(ctx, "clerk", "pw"); err != nil {
		t.Fatalf("Login must tolerate identity lookup failure, got %v", err)
	}

	id := engine.CurrentIdentity()
	if id.Username != "clerk" {
		t.Fatalf("expected username from auth response, got %+v", id)
	}
	if len(id.Roles) != 1 || id.Roles[0] != "CASHIER" {
		t.Fatalf("expected role hint from auth response, got %v", id.Roles)
	}
	if !engine.Can("SALES", "CREATE") {
		t.Fatal("role-implied grant must still resolve from the hinted role")
	}
}

func TestLoginPersistsCanonicalKeys(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	backend := newStubBackend()
	backend.authResp.TerminalID = "TILL-03"
	engine := buildTestEngine(t, backend, client)

	if err := engine.Login(ctx, "clerk", "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	for _, key := range []string{
		"posauth:" + session.FieldToken.Canonical,
		"posauth:" + session.FieldUserID.Canonical,
		"posauth:" + session.FieldTerminalID.Canonical,
		"posauth:" + session.FieldPermissions.Canonical,
	} {
		if !mr.Exists(key) {
			t.Fatalf("expected %s to be persisted", key)
		}
	}
	if got, _ := mr.Get("posauth:" + session.FieldTerminalID.Canonical); got != "TILL-03" {
		t.Fatalf("unexpected terminal value %q", got)
	}
}

func TestLoginAdminRoleShortCircuits(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	backend := newStubBackend()
	backend.identity.Roles = []string{"admin"}
	backend.perms = nil
	engine := buildTestEngine(t, backend, client)

	if err := engine.Login(ctx, "boss", "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !engine.Can("ANYTHING", "AT_ALL") {
		t.Fatal("admin role must short-circuit every check")
	}
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-logr/logr"

	"github.com/retailcore/posauth/session"
)

func newTestResolver(t *testing.T) (*session.Store, *session.Resolver) {
	t.Helper()
	store := session.NewStore(nil, "pa", logr.Discard())
	return store, session.NewResolver(store, nil)
}

func captureRequest(t *testing.T, transport *Transport, path string) *http.Request {
	t.Helper()

	var captured *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(context.Background())
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := &http.Client{Transport: transport}
	resp, err := client.Get(server.URL + path)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()
	return captured
}

func TestTransportAttachesIdentityHeaders(t *testing.T) {
	store, resolver := newTestResolver(t)
	ctx := context.Background()
	store.Set(ctx, session.FieldToken.Canonical, "tok-1")
	store.Set(ctx, session.FieldUserID.Canonical, "12")
	store.Set(ctx, session.FieldTerminalID.Canonical, "TILL-03")
	store.Set(ctx, session.FieldBusinessID.Canonical, "7")

	transport := NewTransport(nil, resolver, []string{"/api/auth/login"})
	req := captureRequest(t, transport, "/api/products")

	if got := req.Header.Get("Authorization"); got != "Bearer tok-1" {
		t.Fatalf("authorization header: %q", got)
	}
	// Both casings must arrive.
	for _, name := range []string{"userId", "UserId"} {
		if got := req.Header.Get(name); got != "12" {
			t.Fatalf("header %s = %q, want 12", name, got)
		}
	}
	for _, name := range []string{"terminalId", "TerminalId"} {
		if got := req.Header.Get(name); got != "TILL-03" {
			t.Fatalf("header %s = %q, want TILL-03", name, got)
		}
	}
	for _, name := range []string{"businessId", "BusinessId"} {
		if got := req.Header.Get(name); got != "7" {
			t.Fatalf("header %s = %q, want 7", name, got)
		}
	}
	if req.Header.Get("X-Request-Id") == "" {
		t.Fatalf("missing request correlation id")
	}
}

func TestTransportStripsAuthOnPublicEndpoints(t *testing.T) {
	store, resolver := newTestResolver(t)
	ctx := context.Background()
	store.Set(ctx, session.FieldToken.Canonical, "stale-token")
	store.Set(ctx, session.FieldUserID.Canonical, "12")

	transport := NewTransport(nil, resolver, []string{"/api/auth/"})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("authorization leaked to public endpoint: %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("userId") != "" || r.Header.Get("UserId") != "" {
			t.Errorf("identity header leaked to public endpoint")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	// A stale header set by the caller must be removed, not merely omitted.
	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/auth/login", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer stale-token")

	client := &http.Client{Transport: transport}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()
}

func TestTransportStripsCanonicalizedIdentityHeaders(t *testing.T) {
	store, resolver := newTestResolver(t)
	store.Set(context.Background(), session.FieldToken.Canonical, "tok-1")

	transport := NewTransport(nil, resolver, []string{"/api/auth/"})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for name := range r.Header {
			switch name {
			case "Userid", "Terminalid", "Businessid":
				t.Errorf("canonicalized identity header %s leaked to public endpoint", name)
			}
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	// Header.Set stores the canonicalized spelling (userId becomes Userid),
	// which the literal stamped names never match.
	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/auth/login", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("userId", "12")
	req.Header.Set("terminalId", "TILL-03")
	req.Header.Set("businessId", "7")

	client := &http.Client{Transport: transport}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()
}

func TestTransportAnonymousRequestHasNoIdentity(t *testing.T) {
	_, resolver := newTestResolver(t)
	transport := NewTransport(nil, resolver, nil)
	req := captureRequest(t, transport, "/api/products")

	if req.Header.Get("Authorization") != "" {
		t.Fatalf("anonymous request carried authorization")
	}
	if req.Header.Get("userId") != "" {
		t.Fatalf("anonymous request carried identity")
	}
}

func TestTransportDoesNotMutateCallerRequest(t *testing.T) {
	store, resolver := newTestResolver(t)
	store.Set(context.Background(), session.FieldToken.Canonical, "tok-1")
	transport := NewTransport(nil, resolver, nil)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL+"/x", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	client := &http.Client{Transport: transport}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()

	if req.Header.Get("Authorization") != "" {
		t.Fatalf("caller request mutated")
	}
}

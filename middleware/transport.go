package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/retailcore/posauth/session"
)

// Header names stamped on outbound requests. The backend fleet is
// inconsistent about casing across services, so identity headers are sent in
// both accepted spellings. Non-canonical names are written into the header
// map directly to survive Go's canonicalization.
var identityHeaderNames = [][2]string{
	{"userId", "UserId"},
	{"terminalId", "TerminalId"},
	{"businessId", "BusinessId"},
}

const (
	headerAuthorization = "Authorization"
	headerRequestID     = "X-Request-Id"
)

// Transport is an [http.RoundTripper] that attaches the current session
// identity to every outbound request and strips it on public endpoints.
type Transport struct {
	base        http.RoundTripper
	resolver    *session.Resolver
	publicPaths []string
}

// NewTransport wraps base (nil means [http.DefaultTransport]) with identity
// stamping. publicPaths are URL path prefixes, such as "/api/auth/login",
// where authorization must be actively removed.
func NewTransport(base http.RoundTripper, resolver *session.Resolver, publicPaths []string) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{
		base:        base,
		resolver:    resolver,
		publicPaths: publicPaths,
	}
}

// RoundTrip implements [http.RoundTripper].
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	if out.Header == nil {
		out.Header = make(http.Header)
	}

	if out.Header.Get(headerRequestID) == "" {
		out.Header.Set(headerRequestID, uuid.NewString())
	}

	if t.isPublic(out.URL.Path) {
		t.strip(out.Header)
		return t.base.RoundTrip(out)
	}

	rec := t.resolver.Resolve(out.Context())
	if rec.Token != "" {
		out.Header.Set(headerAuthorization, "Bearer "+rec.Token)
	}
	if rec.UserID != 0 {
		setDualCased(out.Header, identityHeaderNames[0], strconv.FormatInt(rec.UserID, 10))
	}
	if !rec.TerminalID.IsZero() {
		setDualCased(out.Header, identityHeaderNames[1], rec.TerminalID.String())
	}
	if !rec.BusinessID.IsZero() {
		setDualCased(out.Header, identityHeaderNames[2], rec.BusinessID.String())
	}

	return t.base.RoundTrip(out)
}

func (t *Transport) isPublic(path string) bool {
	for _, p := range t.publicPaths {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (t *Transport) strip(h http.Header) {
	h.Del(headerAuthorization)
	for _, names := range identityHeaderNames {
		// Del removes the canonicalized spelling Header.Set stores;
		// the map deletes cover the two literal spellings this
		// transport stamps itself.
		h.Del(names[0])
		delete(h, names[0])
		delete(h, names[1])
	}
}

func setDualCased(h http.Header, names [2]string, value string) {
	h[names[0]] = []string{value}
	h[names[1]] = []string{value}
}

package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned when the token does not parse as a JWT at all.
var ErrNotJWT = errors.New("token is not a jwt")

// Claims are the unverified claim hints extracted from a token.
type Claims struct {
	Subject   string
	Username  string
	ExpiresAt time.Time
}

// Inspector parses tokens without verifying signatures.
//
// Inspector instances are intended to be configured during initialization and
// then treated as immutable.
type Inspector struct {
	leeway time.Duration
	now    func() time.Time
}

type tokenClaims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// NewInspector creates an [Inspector] with the given expiry leeway. A
// non-positive leeway means exact expiry.
func NewInspector(leeway time.Duration) *Inspector {
	if leeway < 0 {
		leeway = 0
	}
	return &Inspector{leeway: leeway, now: time.Now}
}

// Inspect extracts claim hints from the token. Returns [ErrNotJWT] for
// opaque tokens.
func (i *Inspector) Inspect(token string) (Claims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())

	var claims tokenClaims
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return Claims{}, ErrNotJWT
	}

	out := Claims{
		Subject:  claims.Subject,
		Username: claims.Username,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// Usable reports whether the token should still be treated as resolvable.
// Opaque tokens and JWTs without an exp claim are usable; a JWT expired
// beyond the leeway is not.
func (i *Inspector) Usable(token string) bool {
	claims, err := i.Inspect(token)
	if err != nil {
		return true
	}
	if claims.ExpiresAt.IsZero() {
		return true
	}
	return i.now().Before(claims.ExpiresAt.Add(i.leeway))
}

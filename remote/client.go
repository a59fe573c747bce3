package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/retailcore/posauth"
	"github.com/retailcore/posauth/middleware"
	"github.com/retailcore/posauth/session"
)

const (
	pathLogin           = "/api/auth/login"
	pathIdentity        = "/api/auth/me"
	pathPermissions     = "/api/auth/permissions"
	pathBusinessProfile = "/api/business-profiles/"

	maxBodySize = 16 << 20
	dialTimeout = 30 * time.Second
)

// PublicPaths lists the credential-free endpoints of the POS admin API.
// Pass it to the engine config so the transport strips identity headers on
// them.
var PublicPaths = []string{pathLogin}

// Client talks to the POS admin API and implements posauth.Backend.
type Client struct {
	http    *http.Client
	baseURL string
	logger  logr.Logger
}

// NewClient builds a Client rooted at baseURL. The resolver feeds the
// outbound transport; it is the same one the engine exposes via
// Engine.SessionResolver.
func NewClient(baseURL string, resolver *session.Resolver, logger logr.Logger) *Client {
	return &Client{
		http: &http.Client{
			Timeout:   dialTimeout,
			Transport: middleware.NewTransport(nil, resolver, PublicPaths),
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// scalarID accepts an identifier serialized as either a JSON string or a
// JSON number. The POS admin API mixes both: terminal ids are strings like
// "TILL-03", business profile ids are numeric.
type scalarID string

func (s *scalarID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = scalarID(v)
		return nil
	}
	var v json.Number
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = scalarID(v.String())
	return nil
}

type loginPayload struct {
	Token             string   `json:"token"`
	Username          string   `json:"username"`
	Role              string   `json:"role"`
	BusinessProfileID scalarID `json:"businessProfileId"`
	TerminalID        scalarID `json:"terminalId"`
}

// Authenticate posts credentials to the login endpoint. A 401 or 403 maps
// to posauth.ErrInvalidCredentials; any other failure is a backend
// availability problem.
func (c *Client) Authenticate(ctx context.Context, username, password string) (posauth.AuthResponse, error) {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return posauth.AuthResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathLogin, bytes.NewReader(body))
	if err != nil {
		return posauth.AuthResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return posauth.AuthResponse{}, fmt.Errorf("%w: %v", posauth.ErrBackendUnavailable, err)
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return posauth.AuthResponse{}, posauth.ErrInvalidCredentials
	case resp.StatusCode != http.StatusOK:
		return posauth.AuthResponse{}, statusError("login", resp.StatusCode)
	}

	var payload loginPayload
	if err := decode(resp.Body, &payload); err != nil {
		return posauth.AuthResponse{}, fmt.Errorf("%w: decoding login response: %v", posauth.ErrBackendUnavailable, err)
	}
	return posauth.AuthResponse{
		Token:             payload.Token,
		Username:          payload.Username,
		Role:              payload.Role,
		BusinessProfileID: string(payload.BusinessProfileID),
		TerminalID:        string(payload.TerminalID),
	}, nil
}

type identityPayload struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	Role     string   `json:"role"`
}

// FetchIdentity retrieves the canonical identity for the active token.
func (c *Client) FetchIdentity(ctx context.Context) (posauth.IdentityRecord, error) {
	var payload identityPayload
	if err := c.getJSON(ctx, pathIdentity, &payload); err != nil {
		return posauth.IdentityRecord{}, err
	}

	roles := payload.Roles
	// Older API builds send a single "role" field.
	if len(roles) == 0 && payload.Role != "" {
		roles = []string{payload.Role}
	}
	return posauth.IdentityRecord{
		ID:       payload.ID,
		Username: payload.Username,
		Roles:    roles,
	}, nil
}

type permissionsPayload struct {
	Permissions []string `json:"permissions"`
}

// FetchPermissions retrieves the explicit permission strings for the active
// token.
func (c *Client) FetchPermissions(ctx context.Context) ([]string, error) {
	var payload permissionsPayload
	if err := c.getJSON(ctx, pathPermissions, &payload); err != nil {
		return nil, err
	}
	return payload.Permissions, nil
}

type businessPayload struct {
	BusinessID scalarID `json:"businessId"`
	Name       string   `json:"name"`
	LogoRef    string   `json:"logoUrl"`
}

// FetchBusinessProfile retrieves the business context owned by userID.
func (c *Client) FetchBusinessProfile(ctx context.Context, userID int64) (posauth.BusinessProfile, error) {
	var payload businessPayload
	path := pathBusinessProfile + strconv.FormatInt(userID, 10)
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return posauth.BusinessProfile{}, err
	}
	return posauth.BusinessProfile{
		BusinessID: string(payload.BusinessID),
		Name:       payload.Name,
		LogoRef:    payload.LogoRef,
	}, nil
}

// FetchBinary retrieves an authenticated binary asset, returning the body
// and its content type. url must already be absolute; the asset cache
// resolves relative references before calling.
func (c *Client) FetchBinary(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", posauth.ErrBackendUnavailable, err)
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, "", statusError("asset", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, "", fmt.Errorf("%w: reading asset body: %v", posauth.ErrBackendUnavailable, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", posauth.ErrBackendUnavailable, err)
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return posauth.ErrNotAuthenticated
	case resp.StatusCode != http.StatusOK:
		return statusError(path, resp.StatusCode)
	}

	if err := decode(resp.Body, out); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", posauth.ErrBackendUnavailable, path, err)
	}
	return nil
}

func decode(r io.Reader, out any) error {
	dec := json.NewDecoder(io.LimitReader(r, maxBodySize))
	dec.UseNumber()
	return dec.Decode(out)
}

func statusError(op string, code int) error {
	return fmt.Errorf("%w: %s returned %d", posauth.ErrBackendUnavailable, op, code)
}

// drain discards the remaining body so the transport can reuse the
// connection.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
	_ = resp.Body.Close()
}

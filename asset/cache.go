package asset

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrHandleReleased is returned by [Handle.Bytes] after release.
var ErrHandleReleased = errors.New("asset handle released")

// FetchFunc performs the authenticated binary fetch for an absolute URL and
// returns the payload and its content type.
type FetchFunc func(ctx context.Context, url string) ([]byte, string, error)

// Handle is a locally-dereferenceable reference to one fetched asset. Handles
// are created only by [Cache.Refresh] and must be released exactly once,
// either by the cache itself or by teardown.
type Handle struct {
	id          string
	contentType string

	mu       sync.Mutex
	data     []byte
	released bool
}

// ID returns the unique handle identity.
func (h *Handle) ID() string { return h.id }

// ContentType returns the asset content type reported by the backend.
func (h *Handle) ContentType() string { return h.contentType }

// Bytes returns the asset payload, or [ErrHandleReleased] after release.
func (h *Handle) Bytes() ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil, ErrHandleReleased
	}
	return h.data, nil
}

// Release frees the payload. Returns true on the first call only; callers
// counting releases use the return to detect double-release bugs.
func (h *Handle) Release() bool {
	if h == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return false
	}
	h.released = true
	h.data = nil
	return true
}

// Cache is the single-slot authenticated asset cache.
type Cache struct {
	fetch   FetchFunc
	baseURL string

	mu      sync.Mutex
	current *Handle
	gen     uint64
}

// NewCache creates a [Cache] resolving relative references against baseURL.
func NewCache(baseURL string, fetch FetchFunc) *Cache {
	return &Cache{fetch: fetch, baseURL: strings.TrimRight(baseURL, "/")}
}

// ResolveURL turns a possibly-relative server-side reference into an absolute
// fetchable URL.
func (c *Cache) ResolveURL(ref string) string {
	if ref == "" {
		return ""
	}
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		return ref
	}
	return c.baseURL + "/" + strings.TrimLeft(ref, "/")
}

// Refresh releases any held handle, then fetches ref and installs the result
// as the new handle. An empty ref or a fetch failure leaves the slot empty.
// A teardown racing the fetch wins: the late result is released and
// discarded, never installed.
func (c *Cache) Refresh(ctx context.Context, ref string) (*Handle, error) {
	c.mu.Lock()
	if c.current != nil {
		c.current.Release()
		c.current = nil
	}
	gen := c.gen
	c.mu.Unlock()

	if ref == "" || c.fetch == nil {
		return nil, nil
	}

	data, contentType, err := c.fetch(ctx, c.ResolveURL(ref))
	if err != nil {
		return nil, err
	}

	handle := &Handle{
		id:          uuid.NewString(),
		contentType: contentType,
		data:        data,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		handle.Release()
		return nil, nil
	}
	// A concurrent Refresh may have installed a handle since the release
	// phase above; it loses to this install and must not stay live.
	if c.current != nil {
		c.current.Release()
	}
	c.current = handle
	return handle, nil
}

// Current returns the live handle, or nil when the slot is empty.
func (c *Cache) Current() *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Clear releases any held handle and invalidates in-flight fetches.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if c.current != nil {
		c.current.Release()
		c.current = nil
	}
}

// ABOUTME: API client wiring the session layer to resource operations
// ABOUTME: Holds the shared pagination envelope and the dedupe cache for polled GETs

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/chatforge/botadmin/internal/dedupe"
	"github.com/chatforge/botadmin/internal/session"
)

// Defaults for the response cache on polled endpoints.
const (
	defaultCacheTTL  = 30 * time.Second
	defaultCacheSize = 256
)

// Client exposes the backend's admin resources on top of an authenticated
// session.
type Client struct {
	session *session.Session
	cache   *dedupe.Cache
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithCache replaces the default response cache settings.
func WithCache(ttl time.Duration, maxSize int) Option {
	return func(c *Client) {
		c.cache.Close()
		c.cache = dedupe.New(ttl, maxSize)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates an API client over the given session.
func New(s *session.Session, opts ...Option) *Client {
	c := &Client{
		session: s,
		cache:   dedupe.New(defaultCacheTTL, defaultCacheSize),
		logger:  slog.Default().With("component", "api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases the response cache.
func (c *Client) Close() {
	c.cache.Close()
}

// Page selects a slice of a paginated listing. Zero values fall back to the
// backend defaults (first page, 50 items).
type Page struct {
	Page    int
	PerPage int
}

func (p Page) query() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(p.PerPage))
	}
	return q
}

// List is the backend's pagination envelope. Items stay opaque.
type List struct {
	Items []json.RawMessage `json:"items"`
	Total int               `json:"total"`
}

// list fetches a paginated collection.
func (c *Client) list(ctx context.Context, path string, q url.Values) (*List, error) {
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out List
	if err := c.session.GetJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// cachedGetJSON routes hot polled GETs through the dedupe cache so that
// concurrent identical requests share one upstream call.
func (c *Client) cachedGetJSON(ctx context.Context, path string, out any) error {
	payload, err := c.cache.Do("GET "+path, func() ([]byte, error) {
		return c.session.GetRaw(ctx, path)
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decoding cached response: %w", err)
	}
	return nil
}

// ABOUTME: Authenticated HTTP client wrapping every backend call
// ABOUTME: Injects bearer and CSRF tokens, retries once on CSRF rejection, tears down on auth failure

package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	csrfHeader        = "X-CSRF-Token"
	idempotencyHeader = "X-Idempotency-Key"
	csrfPath          = "/csrf-token"

	// maxBodyBytes caps how much of an error or JSON body is read.
	maxBodyBytes = 1 << 20
)

// Hooks let a UI surface react to session lifecycle events without the
// session layer depending on any presentation code.
type Hooks struct {
	// OnAuthRequired fires whenever the session is torn down. Repeated
	// invocations carry the most recent reason; subscribers should update
	// their prompt rather than stack new ones.
	OnAuthRequired func(reason string)

	// OnLoginSuccess fires after a new token has been persisted.
	OnLoginSuccess func(token string)
}

// Session performs authenticated requests against the botadmin backend.
// All mutable state (stored token, CSRF cache, in-flight CSRF fetch) hangs
// off this struct; there are no package-level globals.
type Session struct {
	baseURL   string
	store     TokenStore
	client    *http.Client
	logger    *slog.Logger
	hooks     Hooks
	now       func() time.Time
	lookahead time.Duration
	limiter   *rate.Limiter

	mu     sync.Mutex
	csrf   string
	flight singleflight.Group
}

// Option configures a Session.
type Option func(*Session)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Session) { s.client = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithHooks subscribes lifecycle hooks.
func WithHooks(h Hooks) Option {
	return func(s *Session) { s.hooks = h }
}

// WithClock injects the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithLookahead sets the expiring-soon window.
func WithLookahead(d time.Duration) Option {
	return func(s *Session) { s.lookahead = d }
}

// WithRateLimit throttles outgoing requests to rps with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Session) { s.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// New creates a session for the backend at baseURL using the given token
// store.
func New(baseURL string, store TokenStore, opts ...Option) *Session {
	s := &Session{
		baseURL:   strings.TrimRight(baseURL, "/"),
		store:     store,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    slog.Default().With("component", "session"),
		now:       time.Now,
		lookahead: DefaultLookahead,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BaseURL returns the backend base URL the session talks to.
func (s *Session) BaseURL() string {
	return s.baseURL
}

// RequestOption customizes a single outgoing request.
type RequestOption func(*http.Request)

// WithHeader sets a header on the request. Supplying an explicit
// X-CSRF-Token header suppresses the automatic CSRF fetch.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

// Do performs an authenticated request against path (relative to the base
// URL, query string included). The local token is validated before any
// network call: a missing or expired token fails fast with ErrAuthRequired.
// Mutating verbs carry a CSRF token; a CSRF-specific 403 is retried exactly
// once with a fresh token. Any other 401/403 tears the session down and
// returns *AuthFailedError. Transport errors propagate untouched and leave
// the stored token alone.
func (s *Session) Do(ctx context.Context, method, path string, body []byte, opts ...RequestOption) (*http.Response, error) {
	token, err := s.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading stored token: %w", err)
	}
	if IsExpired(token, s.now()) {
		reason := "not signed in"
		if token != "" {
			reason = "session expired"
		}
		s.ForceLogout(ctx, reason)
		return nil, ErrAuthRequired
	}

	mutating := isMutating(method)
	idemKey := ""
	if mutating {
		// Same key on the CSRF retry so the backend can collapse both
		// attempts into one logical operation
		idemKey = uuid.NewString()
	}

	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		for _, opt := range opts {
			opt(req)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if idemKey != "" {
			req.Header.Set(idempotencyHeader, idemKey)
		}

		if mutating && req.Header.Get(csrfHeader) == "" {
			csrf, err := s.csrfToken(ctx, token, attempt > 0)
			if err != nil {
				return nil, err
			}
			req.Header.Set(csrfHeader, csrf)
		}

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := s.client.Do(req)
		if err != nil {
			// Transport failure: a flaky network must not log the admin
			// out, so the stored token stays untouched.
			return nil, err
		}

		switch resp.StatusCode {
		case http.StatusForbidden:
			payload := readBody(resp)
			if attempt == 0 && isCSRFRejection(payload) {
				s.invalidateCSRF()
				s.logger.Debug("csrf token rejected, retrying once", "method", method, "path", path)
				continue
			}
			msg := authMessage(payload, resp.StatusCode)
			s.ForceLogout(ctx, msg)
			return nil, &AuthFailedError{Message: msg}
		case http.StatusUnauthorized:
			msg := authMessage(readBody(resp), resp.StatusCode)
			s.ForceLogout(ctx, msg)
			return nil, &AuthFailedError{Message: msg}
		default:
			// Business-level statuses are the caller's concern
			return resp, nil
		}
	}

	// Both attempts ended in a retried CSRF rejection; the second pass
	// always returns above, so this is unreachable in practice.
	return nil, &AuthFailedError{Message: "csrf retry exhausted"}
}

// GetJSON performs an authenticated GET and decodes the JSON response.
func (s *Session) GetJSON(ctx context.Context, path string, out any) error {
	return s.DoJSON(ctx, http.MethodGet, path, nil, out)
}

// DoJSON performs an authenticated request with a JSON body and decodes a
// JSON response. Non-2xx statuses are returned as *APIError.
func (s *Session) DoJSON(ctx context.Context, method, path string, in, out any, opts ...RequestOption) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		opts = append(opts, WithHeader("Content-Type", "application/json"))
	}

	resp, err := s.Do(ctx, method, path, body, opts...)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding response body: %w", err)
		}
	}
	return nil
}

// GetRaw performs an authenticated GET and returns the raw response body.
// Used by callers that cache responses.
func (s *Session) GetRaw(ctx context.Context, path string, opts ...RequestOption) ([]byte, error) {
	resp, err := s.Do(ctx, http.MethodGet, path, nil, opts...)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return data, nil
}

// Token returns the currently stored bearer token.
func (s *Session) Token(ctx context.Context) (string, error) {
	return s.store.Get(ctx)
}

// SetToken persists a new token (or clears it with an empty string) and
// invalidates the cached CSRF token: the CSRF token is meaningless once the
// identity changes.
func (s *Session) SetToken(ctx context.Context, token string) error {
	if err := s.store.Set(ctx, token); err != nil {
		return fmt.Errorf("persisting token: %w", err)
	}
	s.invalidateCSRF()
	if token != "" && s.hooks.OnLoginSuccess != nil {
		s.hooks.OnLoginSuccess(token)
	}
	return nil
}

// State computes the current session state from the stored token.
func (s *Session) State(ctx context.Context) (State, error) {
	token, err := s.store.Get(ctx)
	if err != nil {
		return StateNoToken, fmt.Errorf("reading stored token: %w", err)
	}
	return StateOf(token, s.now(), s.lookahead), nil
}

// ForceLogout clears the stored token, drops the cached CSRF token, and
// notifies the OnAuthRequired hook with the given reason. All auth failures
// funnel through here so the prompt and message stay consistent regardless
// of which call triggered them.
func (s *Session) ForceLogout(ctx context.Context, reason string) {
	if err := s.store.Set(ctx, ""); err != nil {
		s.logger.Warn("clearing stored token", "error", err)
	}
	s.invalidateCSRF()
	s.logger.Info("session torn down", "reason", reason)
	if s.hooks.OnAuthRequired != nil {
		s.hooks.OnAuthRequired(reason)
	}
}

// csrfToken returns the cached CSRF token, fetching it from the backend if
// needed. Concurrent fetches coalesce into a single backend call. force
// drops the cache first, used on the retry after a CSRF rejection.
func (s *Session) csrfToken(ctx context.Context, token string, force bool) (string, error) {
	if force {
		s.invalidateCSRF()
	} else {
		s.mu.Lock()
		if s.csrf != "" {
			cached := s.csrf
			s.mu.Unlock()
			return cached, nil
		}
		s.mu.Unlock()
	}

	v, err, _ := s.flight.Do("csrf", func() (any, error) {
		// A coalesced caller may have populated the cache already
		s.mu.Lock()
		if s.csrf != "" {
			cached := s.csrf
			s.mu.Unlock()
			return cached, nil
		}
		s.mu.Unlock()
		return s.fetchCSRF(ctx, token)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// fetchCSRF retrieves a fresh CSRF token using the bearer credential.
func (s *Session) fetchCSRF(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+csrfPath, nil)
	if err != nil {
		return "", fmt.Errorf("building csrf request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	payload := readBody(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusUnauthorized, http.StatusForbidden:
		msg := authMessage(payload, resp.StatusCode)
		s.ForceLogout(ctx, msg)
		return "", &AuthFailedError{Message: msg}
	default:
		return "", &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}

	var decoded struct {
		CSRFToken string `json:"csrf_token"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", fmt.Errorf("decoding csrf response: %w", err)
	}
	if decoded.CSRFToken == "" {
		return "", fmt.Errorf("csrf response missing csrf_token")
	}

	s.mu.Lock()
	s.csrf = decoded.CSRFToken
	s.mu.Unlock()
	return decoded.CSRFToken, nil
}

// invalidateCSRF drops the cached CSRF token and forgets any coalesced
// fetch so the next caller gets a fresh one.
func (s *Session) invalidateCSRF() {
	s.mu.Lock()
	s.csrf = ""
	s.mu.Unlock()
	s.flight.Forget("csrf")
}

// isMutating reports whether the HTTP method requires a CSRF token.
func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	default:
		return false
	}
}

// readBody drains and closes a response body, capped at maxBodyBytes.
func readBody(resp *http.Response) []byte {
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil
	}
	return data
}

// isCSRFRejection reports whether a 403 body indicates a CSRF-specific
// failure rather than a general authorization failure.
func isCSRFRejection(body []byte) bool {
	return strings.Contains(strings.ToLower(string(body)), "csrf")
}

// authMessage extracts a human-readable message from an auth failure body,
// falling back to a generic message keyed by status.
func authMessage(body []byte, status int) string {
	var decoded struct {
		Error   string `json:"error"`
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &decoded); err == nil {
		for _, msg := range []string{decoded.Error, decoded.Detail, decoded.Message} {
			if msg != "" {
				return msg
			}
		}
	}
	return fmt.Sprintf("request rejected with status %d", status)
}

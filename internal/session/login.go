// ABOUTME: Login flows for acquiring the admin bearer token
// ABOUTME: Email/password login plus OAuth-style redirect token pickup

package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const loginPath = "/admin/auth/login"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	Error       string `json:"error"`
}

// Login exchanges email/password credentials for a bearer token and
// persists it. This is the one unauthenticated call in the package: no
// bearer or CSRF header is attached.
func (s *Session) Login(ctx context.Context, email, password string) error {
	payload, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return fmt.Errorf("encoding login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+loginPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	body := readBody(resp)

	var decoded loginResponse
	if err := json.Unmarshal(body, &decoded); err != nil && resp.StatusCode == http.StatusOK {
		return fmt.Errorf("decoding login response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || decoded.AccessToken == "" {
		msg := decoded.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return &LoginError{Message: msg}
	}

	return s.SetToken(ctx, decoded.AccessToken)
}

// Logout clears the stored token. User-initiated, so no OnAuthRequired
// prompt is raised.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.store.Set(ctx, ""); err != nil {
		return fmt.Errorf("clearing stored token: %w", err)
	}
	s.invalidateCSRF()
	return nil
}

// TokenFromRedirectURL extracts the bearer token an OAuth-style flow embeds
// in the redirect URL ("token" or "access_token" query parameter) and
// returns the URL with both parameters stripped. An empty token means the
// URL carried none.
func TokenFromRedirectURL(raw string) (token, cleaned string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parsing redirect URL: %w", err)
	}

	q := u.Query()
	token = q.Get("token")
	if token == "" {
		token = q.Get("access_token")
	}
	q.Del("token")
	q.Del("access_token")
	u.RawQuery = q.Encode()

	return token, u.String(), nil
}

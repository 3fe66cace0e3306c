// ABOUTME: Tests for the login flows
// ABOUTME: Covers credential exchange, rejection mapping, and redirect-URL token pickup

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_PersistsTokenAndFiresHook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/admin/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"), "login is the unauthenticated call")
		assert.Empty(t, r.Header.Get("X-CSRF-Token"))

		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "admin@example.com", body.Email)
		assert.Equal(t, "hunter2", body.Password)

		fmt.Fprint(w, `{"access_token":"issued-token"}`)
	}))
	defer server.Close()

	rec := &hookRecorder{}
	store := NewMemoryStore("")
	s := New(server.URL, store, WithHooks(rec.hooks()))

	require.NoError(t, s.Login(context.Background(), "admin@example.com", "hunter2"))

	token, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "issued-token", token)
	assert.Equal(t, []string{"issued-token"}, rec.logins)
}

func TestLogin_RejectionReturnsLoginError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{
			name:    "backend message",
			status:  http.StatusUnauthorized,
			body:    `{"error":"invalid credentials"}`,
			wantMsg: "invalid credentials",
		},
		{
			name:    "no message in body",
			status:  http.StatusBadGateway,
			body:    ``,
			wantMsg: "status 502",
		},
		{
			name:    "ok status but empty token",
			status:  http.StatusOK,
			body:    `{"access_token":""}`,
			wantMsg: "status 200",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			store := NewMemoryStore("")
			s := New(server.URL, store)

			err := s.Login(context.Background(), "admin@example.com", "wrong")

			var loginErr *LoginError
			require.ErrorAs(t, err, &loginErr)
			assert.Equal(t, tt.wantMsg, loginErr.Message)

			token, getErr := store.Get(context.Background())
			require.NoError(t, getErr)
			assert.Empty(t, token, "a rejected login must not persist anything")
		})
	}
}

func TestLogout_ClearsTokenWithoutPrompt(t *testing.T) {
	rec := &hookRecorder{}
	store := NewMemoryStore(mintToken(t, time.Now().Add(time.Hour)))
	s := New("http://localhost:0", store, WithHooks(rec.hooks()))

	require.NoError(t, s.Logout(context.Background()))

	token, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Empty(t, rec.authReasons(), "user-initiated logout raises no sign-in prompt")
}

func TestTokenFromRedirectURL(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantToken   string
		wantCleaned string
	}{
		{
			name:        "token parameter",
			raw:         "https://console.example.com/callback?token=abc123",
			wantToken:   "abc123",
			wantCleaned: "https://console.example.com/callback",
		},
		{
			name:        "access_token parameter",
			raw:         "https://console.example.com/callback?access_token=xyz789",
			wantToken:   "xyz789",
			wantCleaned: "https://console.example.com/callback",
		},
		{
			name:        "token wins over access_token",
			raw:         "https://console.example.com/callback?token=abc&access_token=xyz",
			wantToken:   "abc",
			wantCleaned: "https://console.example.com/callback",
		},
		{
			name:        "other parameters survive",
			raw:         "https://console.example.com/callback?state=s1&token=abc",
			wantToken:   "abc",
			wantCleaned: "https://console.example.com/callback?state=s1",
		},
		{
			name:        "no token present",
			raw:         "https://console.example.com/callback?state=s1",
			wantToken:   "",
			wantCleaned: "https://console.example.com/callback?state=s1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, cleaned, err := TokenFromRedirectURL(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, token)
			assert.Equal(t, tt.wantCleaned, cleaned)
		})
	}
}

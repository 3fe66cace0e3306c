// ABOUTME: Tests for the API client resource operations
// ABOUTME: Covers pagination, mutating calls with CSRF, and the cached usage GETs

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatforge/botadmin/internal/session"
)

func testToken(t *testing.T) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": "admin-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s := session.New(server.URL, session.NewMemoryStore(testToken(t)))
	c := New(s)
	t.Cleanup(c.Close)
	return c, server
}

func TestListUsers_Pagination(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/users", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "25", r.URL.Query().Get("per_page"))
		fmt.Fprint(w, `{"items":[{"id":"u-1"},{"id":"u-2"}],"total":52}`)
	})
	c, _ := newTestClient(t, mux)

	list, err := c.ListUsers(context.Background(), Page{Page: 2, PerPage: 25})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)
	assert.Equal(t, 52, list.Total)
}

func TestListUsers_ZeroPageOmitsParams(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/users", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery, "zero page values use the backend defaults")
		fmt.Fprint(w, `{"items":[],"total":0}`)
	})
	c, _ := newTestClient(t, mux)

	_, err := c.ListUsers(context.Background(), Page{})
	require.NoError(t, err)
}

func TestUpdateUserStatus_SendsPatchWithCSRF(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/csrf-token", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"csrf_token":"csrf-1"}`)
	})
	mux.HandleFunc("/admin/users/u-1", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "csrf-1", r.Header.Get("X-CSRF-Token"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "suspended", body["status"])
		fmt.Fprint(w, `{"id":"u-1","status":"suspended"}`)
	})
	c, _ := newTestClient(t, mux)

	require.NoError(t, c.UpdateUserStatus(context.Background(), "u-1", "suspended"))
}

func TestRefundOrder_PostsReasonAndReturnsRecord(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/csrf-token", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"csrf_token":"csrf-1"}`)
	})
	mux.HandleFunc("/admin/orders/ord-1/refund", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		assert.NotEmpty(t, r.Header.Get("X-Idempotency-Key"), "refunds must carry an idempotency key")

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "duplicate charge", body["reason"])
		fmt.Fprint(w, `{"id":"ord-1","status":"refunded"}`)
	})
	c, _ := newTestClient(t, mux)

	record, err := c.RefundOrder(context.Background(), "ord-1", "duplicate charge")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"ord-1","status":"refunded"}`, string(record))
}

func TestRefundOrder_BusinessErrorSurfacesAsAPIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/csrf-token", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"csrf_token":"csrf-1"}`)
	})
	mux.HandleFunc("/admin/orders/ord-1/refund", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"error":"already refunded"}`)
	})
	c, _ := newTestClient(t, mux)

	_, err := c.RefundOrder(context.Background(), "ord-1", "duplicate charge")

	var apiErr *session.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
}

func TestUsageSummary_ServedFromCacheWithinTTL(t *testing.T) {
	var calls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/usage/summary", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"active_users":42}`)
	})
	c, _ := newTestClient(t, mux)
	ctx := context.Background()

	first, err := c.UsageSummary(ctx)
	require.NoError(t, err)
	second, err := c.UsageSummary(ctx)
	require.NoError(t, err)

	assert.JSONEq(t, string(first), string(second))
	assert.Equal(t, int64(1), calls.Load(), "the second poll must hit the cache")
}

func TestUsageSeries_KeysCacheByQuery(t *testing.T) {
	var calls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/usage/series", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "messages", r.URL.Query().Get("metric"))
		fmt.Fprintf(w, `{"metric":%q,"points":[]}`, r.URL.Query().Get("metric"))
	})
	c, _ := newTestClient(t, mux)
	ctx := context.Background()

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)

	_, err := c.UsageSeries(ctx, "messages", from, to)
	require.NoError(t, err)
	_, err = c.UsageSeries(ctx, "messages", from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(1), calls.Load())

	// A different window is a different cache key
	_, err = c.UsageSeries(ctx, "messages", from, to.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestGetMe(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/me", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"adm-1","email":"root@example.com","name":"Root","role":"owner","team":"ops"}`)
	})
	c, _ := newTestClient(t, mux)

	me, err := c.GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "adm-1", me.ID)
	assert.Equal(t, "root@example.com", me.Email)
	assert.Equal(t, "owner", me.Role)
	assert.Contains(t, string(me.Raw), `"team":"ops"`, "unmodeled fields survive in Raw")
}

func TestListConversations_UserFilter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/conversations", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "u-1", r.URL.Query().Get("user_id"))
		fmt.Fprint(w, `{"items":[{"id":"c-1"}],"total":1}`)
	})
	c, _ := newTestClient(t, mux)

	list, err := c.ListConversations(context.Background(), Page{}, "u-1")
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
}

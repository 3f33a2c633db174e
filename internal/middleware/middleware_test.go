package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/baharkarakas/h2credits-backend/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
}

func TestAuth(t *testing.T) {
	tm := auth.NewTokenManager("a", "r", time.Minute, time.Hour)
	pair, err := tm.GeneratePair(7, "0x7", "admin")
	require.NoError(t, err)

	var uid int64
	var role string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, _ = UserID(r.Context())
		role, _ = Role(r.Context())
	})

	cases := []struct {
		name   string
		env    string
		header string
		status int
		uid    int64
		role   string
	}{
		{"missing", "prod", "", http.StatusUnauthorized, 0, ""},
		{"not bearer", "prod", "Basic xyz", http.StatusUnauthorized, 0, ""},
		{"access token", "prod", "Bearer " + pair.AccessToken, http.StatusOK, 7, "admin"},
		{"lower-case scheme", "prod", "bearer " + pair.AccessToken, http.StatusOK, 7, "admin"},
		{"refresh token", "prod", "Bearer " + pair.RefreshToken, http.StatusUnauthorized, 0, ""},
		{"dev token in dev", "dev", "Bearer dev-12", http.StatusOK, 12, "user"},
		{"dev token in prod", "prod", "Bearer dev-12", http.StatusUnauthorized, 0, ""},
		{"bad dev token", "dev", "Bearer dev-x", http.StatusUnauthorized, 0, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uid, role = 0, ""
			h := NewAuthMiddleware(tm, tc.env).Auth(next)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.uid, uid)
			assert.Equal(t, tc.role, role)
		})
	}
}

func TestRequireRole(t *testing.T) {
	h := RequireRole("admin")(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithUser(req.Context(), 1, "user")))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithUser(req.Context(), 1, "admin")))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRateLimitPerClient(t *testing.T) {
	h := RateLimit(0.001, 2, nil)(okHandler)
	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, call("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.2"))

	off := RateLimit(0, 0, nil)(okHandler)
	rec := httptest.NewRecorder()
	off.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestClientIDForwardedHeadersOnlyFromTrustedProxy(t *testing.T) {
	trusted := parseProxies([]string{"10.0.0.0/8", "192.0.2.7", "not-an-ip"})
	require.Len(t, trusted, 2)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	req.Header.Set("X-Real-IP", "198.51.100.4")
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "192.0.2.1", clientID(req, trusted))

	req.RemoteAddr = "192.0.2.7:1234"
	assert.Equal(t, "198.51.100.4", clientID(req, trusted))

	req.RemoteAddr = "10.1.2.3:80"
	req.Header.Set("X-Real-IP", "garbage")
	assert.Equal(t, "203.0.113.9", clientID(req, trusted))

	req.Header.Del("X-Forwarded-For")
	assert.Equal(t, "10.1.2.3", clientID(req, trusted))
}

func TestRateLimitIgnoresSpoofedClientHeaders(t *testing.T) {
	h := RateLimit(0.001, 1, nil)(okHandler)
	call := func(realIP string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.1:5555"
		req.Header.Set("X-Real-IP", realIP)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusNoContent, call("198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("198.51.100.2"))
}

func TestRecover(t *testing.T) {
	h := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("oops") }))
	rec := httptest.NewRecorder()
	require.NotPanics(t, func() { h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil)) })
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_error")
}

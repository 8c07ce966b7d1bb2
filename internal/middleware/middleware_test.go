package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/portfolio-api/internal/config"
	"github.com/iliyamo/portfolio-api/internal/logging"
	"github.com/iliyamo/portfolio-api/internal/utils"
)

func serve(t *testing.T, mw echo.MiddlewareFunc, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		return c.String(http.StatusOK, CurrentUser(c))
	}, mw)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	code, _ := body["error"].(string)
	return code
}

func TestJWTAuth(t *testing.T) {
	issuedAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := issuedAt
	tokens := utils.NewTokenService("secret", 24*time.Hour).WithClock(func() time.Time { return now })
	tok, err := tokens.Issue("admin")
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		at       time.Time
		wantCode int
		wantErr  string
		wantUser string
	}{
		{name: "no header", at: issuedAt, wantCode: http.StatusUnauthorized, wantErr: "missing_token"},
		{name: "scheme only", header: "Bearer", at: issuedAt, wantCode: http.StatusUnauthorized, wantErr: "missing_token"},
		{name: "garbage", header: "Bearer abc.def", at: issuedAt, wantCode: http.StatusUnauthorized, wantErr: "invalid_token"},
		{name: "valid", header: "Bearer " + tok.Token, at: issuedAt, wantCode: http.StatusOK, wantUser: "admin"},
		{name: "any scheme word", header: "Token " + tok.Token, at: issuedAt, wantCode: http.StatusOK, wantUser: "admin"},
		{name: "just before expiry", header: "Bearer " + tok.Token, at: issuedAt.Add(24*time.Hour - time.Second), wantCode: http.StatusOK, wantUser: "admin"},
		{name: "expired", header: "Bearer " + tok.Token, at: issuedAt.Add(24*time.Hour + time.Second), wantCode: http.StatusUnauthorized, wantErr: "invalid_token"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			now = tc.at
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tc.header)
			}
			rec := serve(t, JWTAuth(tokens), req)
			assert.Equal(t, tc.wantCode, rec.Code)
			if tc.wantErr != "" {
				assert.Equal(t, tc.wantErr, errorCode(t, rec))
			} else {
				assert.Equal(t, tc.wantUser, rec.Body.String())
			}
		})
	}
}

// memCounter is a WindowCounter without expiry.
type memCounter struct {
	mu   sync.Mutex
	hits map[string]int64
	err  error
}

func (m *memCounter) Hit(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if m.err != nil {
		return 0, 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hits == nil {
		m.hits = map[string]int64{}
	}
	m.hits[key]++
	return m.hits[key], window, nil
}

func TestFixedWindow_BlocksAfterMax(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, Max: 2, Window: time.Minute, KeyStrategy: "ip", Prefix: "rl"}
	counter := &memCounter{}
	mw := NewFixedWindow(cfg, counter, logging.Nop())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := serve(t, mw, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := serve(t, mw, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "too_many_requests", errorCode(t, rec))
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	other := httptest.NewRequest(http.MethodGet, "/protected", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	assert.Equal(t, http.StatusOK, serve(t, mw, other).Code)
}

func TestFixedWindow_PassThrough(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, Max: 1, Window: time.Minute}

	for name, mw := range map[string]echo.MiddlewareFunc{
		"no counter":    NewFixedWindow(cfg, nil, logging.Nop()),
		"counter error": NewFixedWindow(cfg, &memCounter{err: errors.New("redis down")}, logging.Nop()),
	} {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 3; i++ {
				rec := serve(t, mw, httptest.NewRequest(http.MethodGet, "/protected", nil))
				assert.Equal(t, http.StatusOK, rec.Code)
			}
		})
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/posts", nil)
	req.RemoteAddr = "192.0.2.7:999"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/posts")

	assert.Equal(t, "rl:ip:192.0.2.7", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}, c))
	assert.Equal(t, "rl:user:anon", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c))
	c.Set(UserIDKey, "admin")
	assert.Equal(t, "rl:user:admin", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c))
	assert.Equal(t, "rl:ip:192.0.2.7:route:POST /posts", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_route"}, c))
}

func TestRedisWindowCounter(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	counter := NewRedisWindowCounter(rdb)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		n, resetIn, err := counter.Hit(ctx, "rl:ip:10.0.0.1", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
		assert.Equal(t, time.Minute, resetIn)
	}

	// the window is fixed from the first hit, later hits do not extend it
	mr.FastForward(20 * time.Second)
	n, resetIn, err := counter.Hit(ctx, "rl:ip:10.0.0.1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, 40*time.Second, resetIn)

	mr.FastForward(41 * time.Second)
	n, resetIn, err = counter.Hit(ctx, "rl:ip:10.0.0.1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, time.Minute, resetIn)
}

func TestRedisWindowCounter_RestoresMissingExpiry(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	require.NoError(t, mr.Set("rl:ip:10.0.0.1", "5"))

	n, resetIn, err := NewRedisWindowCounter(rdb).Hit(context.Background(), "rl:ip:10.0.0.1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)
	assert.Equal(t, time.Minute, resetIn)
	assert.Equal(t, time.Minute, mr.TTL("rl:ip:10.0.0.1"))
}

func TestFixedWindow_Redis(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	cfg := config.RateLimitConfig{Enabled: true, Max: 2, Window: time.Minute, KeyStrategy: "ip", Prefix: "rl"}
	mw := NewFixedWindow(cfg, NewRedisWindowCounter(rdb), logging.Nop())

	hit := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		return serve(t, mw, req)
	}

	assert.Equal(t, http.StatusOK, hit().Code)
	rec := hit()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = hit()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "too_many_requests", errorCode(t, rec))
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	mr.FastForward(45 * time.Second)
	rec = hit()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "15", rec.Header().Get("Retry-After"))

	mr.FastForward(16 * time.Second)
	assert.Equal(t, http.StatusOK, hit().Code)
}

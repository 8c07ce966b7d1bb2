package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/portfolio-api/internal/config"
	"github.com/iliyamo/portfolio-api/internal/logging"
	"github.com/iliyamo/portfolio-api/internal/middleware"
	"github.com/iliyamo/portfolio-api/internal/model"
	"github.com/iliyamo/portfolio-api/internal/repository/memory"
	"github.com/iliyamo/portfolio-api/internal/utils"
)

const testSecret = "e2e-secret"

type counter struct {
	mu   sync.Mutex
	hits map[string]int64
}

func (c *counter) Hit(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits[key]++
	return c.hits[key], window, nil
}

func newApp(t *testing.T, rl config.RateLimitConfig, wc *counter) *echo.Echo {
	t.Helper()
	d := Deps{
		Config: config.Config{
			Env:                 "test",
			AllowedOrigin:       "https://cv.example.com",
			BcryptCost:          4,
			RegistrationEnabled: true,
		},
		RateLimit: rl,
		Log:       logging.Nop(),
		Stores:    memory.NewStores(),
		Tokens:    utils.NewTokenService(testSecret, 24*time.Hour),
	}
	if wc != nil {
		d.Counter = wc
	}
	return New(d)
}

type call struct {
	method, path, body, token string
}

func (c call) do(e *echo.Echo) *httptest.ResponseRecorder {
	req := httptest.NewRequest(c.method, c.path, strings.NewReader(c.body))
	if c.body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if c.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+c.token)
	}
	req.RemoteAddr = "203.0.113.9:5555"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func login(t *testing.T, e *echo.Echo, prefix string) string {
	t.Helper()
	creds := `{"username":"admin","password":"secret123"}`
	rec := call{method: http.MethodPost, path: prefix + "/auth/register", body: creds}.do(e)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call{method: http.MethodPost, path: prefix + "/auth/login", body: creds}.do(e)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Token    string `json:"token"`
		Username string `json:"username"`
	}
	jsonBody(t, rec, &resp)
	require.Equal(t, "admin", resp.Username)
	return resp.Token
}

func TestPostLifecycle(t *testing.T) {
	for _, prefix := range Prefixes {
		t.Run("prefix="+prefix, func(t *testing.T) {
			e := newApp(t, config.RateLimitConfig{}, nil)
			token := login(t, e, prefix)

			body := `{"title":"First post","content":"` + strings.Repeat("a", 120) + `","tags":["go"]}`
			rec := call{method: http.MethodPost, path: prefix + "/posts", body: body, token: token}.do(e)
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			var created model.Post
			jsonBody(t, rec, &created)
			require.NotEmpty(t, created.ID)

			rec = call{method: http.MethodGet, path: prefix + "/posts/" + created.ID}.do(e)
			require.Equal(t, http.StatusOK, rec.Code)
			var fetched model.Post
			jsonBody(t, rec, &fetched)
			assert.Equal(t, "First post", fetched.Title)
			assert.Equal(t, "Admin", fetched.Author)

			rec = call{method: http.MethodGet, path: prefix + "/posts"}.do(e)
			require.Equal(t, http.StatusOK, rec.Code)
			var list []model.Post
			jsonBody(t, rec, &list)
			require.Len(t, list, 1)
			assert.Equal(t, created.ID, list[0].ID)

			rec = call{method: http.MethodGet, path: prefix + "/auth/me", token: token}.do(e)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"username":"admin"}`, rec.Body.String())
		})
	}
}

func TestGate(t *testing.T) {
	e := newApp(t, config.RateLimitConfig{}, nil)
	education := `{"institution":"UNAM","degree":"BSc"}`

	rec := call{method: http.MethodPost, path: "/estudios", body: education}.do(e)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"missing_token"`)

	stale, err := utils.NewTokenService(testSecret, 24*time.Hour).
		WithClock(func() time.Time { return time.Now().Add(-25 * time.Hour) }).
		Issue("admin")
	require.NoError(t, err)
	rec = call{method: http.MethodPost, path: "/api/estudios", body: education, token: stale.Token}.do(e)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"invalid_token"`)

	forged, err := utils.NewTokenService("other-secret", time.Hour).Issue("admin")
	require.NoError(t, err)
	rec = call{method: http.MethodDelete, path: "/experience/x", token: forged.Token}.do(e)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call{method: http.MethodGet, path: "/estudios"}.do(e)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAliasesShareStore(t *testing.T) {
	e := newApp(t, config.RateLimitConfig{}, nil)
	token := login(t, e, "")

	body := `{"company":"Acme","position":"Engineer","startDate":"Enero 2020","description":"Built things"}`
	rec := call{method: http.MethodPost, path: "/experiencia", body: body, token: token}.do(e)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var list []model.Experience
	jsonBody(t, call{method: http.MethodGet, path: "/api/experience"}.do(e), &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Acme", list[0].Company)

	rec = call{method: http.MethodDelete, path: "/api/experiencia/does-not-exist", token: token}.do(e)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call{method: http.MethodPost, path: "/experience", body: `{"company":"Acme"}`, token: token}.do(e)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"position"`)
	assert.Contains(t, rec.Body.String(), `"startDate"`)
	assert.Contains(t, rec.Body.String(), `"description"`)
}

func TestRateLimit(t *testing.T) {
	rl := config.RateLimitConfig{Enabled: true, Max: 3, Window: 15 * time.Minute, KeyStrategy: "ip", Prefix: "rl"}
	e := newApp(t, rl, &counter{hits: map[string]int64{}})

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, call{method: http.MethodGet, path: "/api/posts"}.do(e).Code)
	}
	rec := call{method: http.MethodGet, path: "/api/posts"}.do(e)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "900", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, call{method: http.MethodGet, path: "/healthz"}.do(e).Code)
}

func TestGlobalMiddleware(t *testing.T) {
	e := newApp(t, config.RateLimitConfig{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
	req.Header.Set(echo.HeaderOrigin, "https://cv.example.com")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "https://cv.example.com", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	rec = call{method: http.MethodGet, path: "/"}.do(e)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get(echo.HeaderXContentTypeOptions))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = call{method: http.MethodGet, path: "/api/unknown"}.do(e)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"not_found"`)
}

// newRedisApp runs the full stack with Redis-backed caching and rate limiting.
func newRedisApp(t *testing.T) (*echo.Echo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	e := New(Deps{
		Config: config.Config{
			Env:                 "test",
			AllowedOrigin:       "https://cv.example.com",
			BcryptCost:          4,
			RegistrationEnabled: true,
		},
		RateLimit: config.RateLimitConfig{Enabled: true, Max: 100, Window: 15 * time.Minute, KeyStrategy: "ip", Prefix: "rl"},
		Log:       logging.Nop(),
		Stores:    memory.NewStores(),
		Tokens:    utils.NewTokenService(testSecret, 24*time.Hour),
		Cache:     middleware.NewResponseCache(config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "cache"}, rdb, logging.Nop()),
		Counter:   middleware.NewRedisWindowCounter(rdb),
	})
	return e, mr
}

func browserGet(e *echo.Echo, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set(echo.HeaderOrigin, "https://cv.example.com")
	req.RemoteAddr = "203.0.113.9:5555"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCachedResponseHeaders(t *testing.T) {
	e, _ := newRedisApp(t)

	miss := browserGet(e, "/api/posts")
	require.Equal(t, http.StatusOK, miss.Code)
	require.Equal(t, "MISS", miss.Header().Get("X-Cache"))

	hit := browserGet(e, "/api/posts")
	require.Equal(t, http.StatusOK, hit.Code)
	require.Equal(t, "HIT", hit.Header().Get("X-Cache"))
	assert.JSONEq(t, `[]`, hit.Body.String())

	for _, k := range []string{
		echo.HeaderAccessControlAllowOrigin,
		echo.HeaderVary,
		echo.HeaderXRequestID,
		echo.HeaderXContentTypeOptions,
		"X-RateLimit-Remaining",
	} {
		assert.Len(t, hit.Header().Values(k), len(miss.Header().Values(k)), k)
		assert.LessOrEqual(t, len(hit.Header().Values(k)), 1, k)
	}
	assert.Equal(t, []string{"https://cv.example.com"}, hit.Header().Values(echo.HeaderAccessControlAllowOrigin))
	assert.NotEqual(t, miss.Header().Get(echo.HeaderXRequestID), hit.Header().Get(echo.HeaderXRequestID))
	assert.Equal(t, "98", hit.Header().Get("X-RateLimit-Remaining"))
}

func TestWriteInvalidatesCache(t *testing.T) {
	e, mr := newRedisApp(t)
	token := login(t, e, "/api")

	for _, path := range []string{"/api/posts", "/posts"} {
		browserGet(e, path)
		require.Equal(t, "HIT", browserGet(e, path).Header().Get("X-Cache"), path)
	}
	browserGet(e, "/api/estudios")

	body := `{"title":"Cached","content":"` + strings.Repeat("c", 120) + `"}`
	rec := call{method: http.MethodPost, path: "/api/posts", body: body, token: token}.do(e)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	for _, k := range mr.Keys() {
		assert.False(t, strings.HasPrefix(k, "cache:posts:"), k)
	}

	for _, path := range []string{"/api/posts", "/posts"} {
		rec := browserGet(e, path)
		assert.Equal(t, "MISS", rec.Header().Get("X-Cache"), path)
		var list []model.Post
		jsonBody(t, rec, &list)
		require.Len(t, list, 1, path)
		assert.Equal(t, "Cached", list[0].Title)
	}
	assert.Equal(t, "HIT", browserGet(e, "/api/estudios").Header().Get("X-Cache"))
}

package router

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fintrack/config"
	"fintrack/database"
	"fintrack/middleware"
	"fintrack/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	db, err := database.OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := &config.Config{
		Server: config.ServerConfig{
			Mode:           "test",
			BaseURL:        "http://localhost:8080",
			AllowedOrigins: []string{"https://app.example.com"},
		},
		JWT:      config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
		Ledger:   config.LedgerConfig{Consistency: config.ConsistencyAtomic, MaxRetries: 3, AccountDeletePolicy: config.DeletePolicyBlock},
		Security: config.SecurityConfig{LoginMaxAttempts: 2, LoginWindowSeconds: 60},
	}
	config.GlobalConfig = cfg
	middleware.InitJWT(cfg)
	t.Cleanup(func() { config.GlobalConfig = nil })

	return SetupRouter(cfg, NewServices(cfg, repository.NewStore(db)))
}

func TestRouter_HealthAndPages(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "ok")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/dashboard", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/accounts/123", nil))
	assert.Equal(t, http.StatusFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/login", nil))
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	token, _, err := middleware.GenerateToken("u-1", "anna@example.com", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest("GET", "/login", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AuthCookieName, Value: token})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestRouter_APIRequiresSession(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/accounts", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/icons", nil))
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "QuestionMarkCircle")
}

func TestRouter_LoginRateLimited(t *testing.T) {
	r := newTestRouter(t)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewBufferString(`{"email":"x@example.com","password":"secret123"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "10.0.0.1:1234"
		last = httptest.NewRecorder()
		r.ServeHTTP(last, req)
	}
	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Contains(t, last.Body.String(), "Zbyt wiele prób logowania")
}

func TestRouter_CORSAllowList(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	// 未列出的来源拿不到 CORS 头，浏览器会拦截响应
	for _, method := range []string{"GET", "OPTIONS"} {
		req = httptest.NewRequest(method, "/api/v1/accounts", nil)
		req.Header.Set("Origin", "https://evil.example")
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"), method)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"), method)
	}
}

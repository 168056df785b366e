package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestLoginLimiter_Window(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewLoginLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"), "limits are per client")
	assert.Equal(t, 2, l.Tracked())

	now = now.Add(61 * time.Second)
	assert.Equal(t, 0, l.Tracked())
	assert.True(t, l.Allow("10.0.0.1"))
}

func TestLoginRateLimit_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	limit := LoginRateLimit(2, time.Minute)
	router.POST("/login", limit, func(c *gin.Context) { c.String(200, "ok") })
	router.POST("/register", limit, func(c *gin.Context) { c.String(200, "ok") })

	doReq := func(path, ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", path, nil)
		req.RemoteAddr = ip + ":12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, 200, doReq("/login", "192.168.1.1").Code)
	assert.Equal(t, 200, doReq("/register", "192.168.1.1").Code)

	// 共用计数，第三次请求被拒绝
	w := doReq("/login", "192.168.1.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Zbyt wiele prób logowania")

	assert.Equal(t, 200, doReq("/login", "192.168.1.2").Code)
}

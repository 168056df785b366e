package api

import (
	"net/http"
	"time"

	"fintrack/config"
	"fintrack/middleware"

	"github.com/gin-gonic/gin"
)

const oauthStateCookie = "oauth-state"

// getCookieOptions 根据运行模式返回 Cookie 的安全选项
// release 模式下启用 Secure（仅 HTTPS 传输）
func getCookieOptions() (secure bool, sameSite http.SameSite) {
	cfg := config.GetConfig()
	if cfg != nil && cfg.Server.Mode == "release" {
		secure = true
	}
	// SameSite=Lax: 跨站 POST 不携带 Cookie，同站导航正常
	sameSite = http.SameSiteLaxMode
	return
}

func setCookie(c *gin.Context, name, value string, maxAge int, httpOnly bool) {
	secure, sameSite := getCookieOptions()
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   secure,
		HttpOnly: httpOnly,
		SameSite: sameSite,
	})
}

// cookieMarker 把会话标记写入 auth-token Cookie，供页面守卫读取
type cookieMarker struct {
	c *gin.Context
}

func (m cookieMarker) SetMarker(token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	setCookie(m.c, middleware.AuthCookieName, token, maxAge, false)
}

func (m cookieMarker) ClearMarker() {
	setCookie(m.c, middleware.AuthCookieName, "", -1, false)
}

func setOAuthState(c *gin.Context, state string) {
	setCookie(c, oauthStateCookie, state, int((10 * time.Minute).Seconds()), true)
}

// consumeOAuthState 读取并清除 state Cookie
func consumeOAuthState(c *gin.Context) string {
	state, _ := c.Cookie(oauthStateCookie)
	setCookie(c, oauthStateCookie, "", -1, true)
	return state
}

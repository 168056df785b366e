package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Decision 页面守卫的判定结果
type Decision int

const (
	Allow Decision = iota
	RedirectToLogin
	RedirectToDashboard
)

func (d Decision) String() string {
	switch d {
	case RedirectToLogin:
		return "redirect_to_login"
	case RedirectToDashboard:
		return "redirect_to_dashboard"
	default:
		return "allow"
	}
}

const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

// ProtectedPaths 需要登录的页面前缀
var ProtectedPaths = []string{"/dashboard", "/accounts", "/transactions", "/categories"}

// AuthOnlyPaths 仅未登录可访问的页面
var AuthOnlyPaths = []string{"/login", "/register", "/reset-password"}

// Decide 纯函数：只依据路径与是否持有会话标记
func Decide(path string, hasMarker bool) Decision {
	switch {
	case matchAny(path, ProtectedPaths) && !hasMarker:
		return RedirectToLogin
	case matchAny(path, AuthOnlyPaths) && hasMarker:
		return RedirectToDashboard
	default:
		return Allow
	}
}

// matchAny 按整段匹配，/dashboardx 不命中 /dashboard
func matchAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// HasSessionMarker 持有可解析且未过期的会话 Cookie
func HasSessionMarker(c *gin.Context) bool {
	token, err := c.Cookie(AuthCookieName)
	if err != nil || token == "" {
		return false
	}
	_, err = ParseToken(token)
	return err == nil
}

// RouteGuard 页面路由守卫
func RouteGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch Decide(c.Request.URL.Path, HasSessionMarker(c)) {
		case RedirectToLogin:
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
		case RedirectToDashboard:
			c.Redirect(http.StatusFound, DashboardPath)
			c.Abort()
		default:
			c.Next()
		}
	}
}

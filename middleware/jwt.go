package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"fintrack/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthCookieName 会话标记 Cookie，页面守卫与 API 共用
const AuthCookieName = "auth-token"

const contextUserIDKey = "userID"

var jwtSecret []byte

// Claims 会话令牌载荷
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// InitJWT 读取签名密钥
func InitJWT(cfg *config.Config) {
	jwtSecret = []byte(cfg.JWT.Secret)
}

// GenerateToken 签发令牌，返回令牌及过期时间
func GenerateToken(userID, email string, expire time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(expire)
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ParseToken 校验签名与有效期
func ParseToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("empty token")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// TokenFromRequest 优先取 Authorization: Bearer，其次取会话 Cookie
func TokenFromRequest(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			return "", false
		}
		return strings.TrimSpace(parts[1]), true
	}
	if cookie, err := c.Cookie(AuthCookieName); err == nil && cookie != "" {
		return cookie, true
	}
	return "", false
}

// JWTAuth 校验会话令牌并写入当前用户 ID
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := TokenFromRequest(c)
		if !ok {
			abortUnauthorized(c, "Zaloguj się, aby kontynuować.")
			return
		}
		claims, err := ParseToken(token)
		if err != nil {
			abortUnauthorized(c, "Sesja wygasła. Zaloguj się ponownie.")
			return
		}
		c.Set(contextUserIDKey, claims.UserID)
		c.Next()
	}
}

// GetCurrentUserID 当前用户 ID，未登录时为空串
func GetCurrentUserID(c *gin.Context) string {
	return c.GetString(contextUserIDKey)
}

// SetCurrentUserID 供测试与内部调用注入当前用户
func SetCurrentUserID(c *gin.Context, id string) {
	c.Set(contextUserIDKey, id)
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    http.StatusUnauthorized,
		"message": message,
	})
}

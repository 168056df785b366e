package api

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"fintrack/config"
	"fintrack/middleware"
	"fintrack/models"
	"fintrack/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	cfg  *config.Config
	auth *service.AuthService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg *config.Config, auth *service.AuthService) *AuthHandler {
	return &AuthHandler{cfg: cfg, auth: auth}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email       string `json:"email" example:"anna@example.com"`
	Password    string `json:"password" example:"secret123"`
	DisplayName string `json:"display_name" example:"Anna"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" example:"anna@example.com"`
	Password string `json:"password" example:"secret123"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token    string       `json:"token"`
	UserInfo *models.User `json:"user_info"`
}

// RequestResetRequest 请求重置密码
type RequestResetRequest struct {
	Email string `json:"email" example:"anna@example.com"`
}

// ResetPasswordRequest 使用邮件中的代码设置新密码
type ResetPasswordRequest struct {
	OobCode     string `json:"oobCode"`
	NewPassword string `json:"new_password"`
}

func (h *AuthHandler) issuer() service.TokenIssuer {
	return service.TokenIssuerFunc(func(u *models.User) (string, time.Time, error) {
		return middleware.GenerateToken(u.ID, u.Email, h.cfg.JWT.ExpireTime)
	})
}

// session 由请求携带的会话标记恢复会话
func (h *AuthHandler) session(c *gin.Context) *service.Session {
	var user *models.User
	if token, ok := middleware.TokenFromRequest(c); ok {
		if claims, err := middleware.ParseToken(token); err == nil {
			user = &models.User{ID: claims.UserID, Email: claims.Email}
		}
	}
	return service.NewSession(cookieMarker{c: c}, h.issuer(), user)
}

// Register 用户注册
// @Summary 用户注册
// @Description 使用邮箱和密码创建账号，成功后直接登录并写入会话 Cookie
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "注册信息"
// @Success 200 {object} Response{data=LoginResponse} "注册成功"
// @Failure 400 {object} Response "邮箱格式错误或密码过短"
// @Failure 409 {object} Response "邮箱已被使用"
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Nieprawidłowe dane formularza.")
		return
	}

	sess := h.session(c)
	user, err := h.auth.SignUpWithPassword(c.Request.Context(), sess, req.Email, req.Password, req.DisplayName)
	if err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "Konto zostało utworzone pomyślnie", LoginResponse{Token: sess.Token(), UserInfo: user})
}

// Login 用户登录
// @Summary 用户登录
// @Description 邮箱密码登录，返回令牌并写入会话 Cookie
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录信息"
// @Success 200 {object} Response{data=LoginResponse} "登录成功"
// @Failure 401 {object} Response "邮箱或密码错误"
// @Failure 429 {object} Response "尝试次数过多"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Nieprawidłowe dane formularza.")
		return
	}

	sess := h.session(c)
	user, err := h.auth.SignInWithPassword(c.Request.Context(), sess, req.Email, req.Password)
	if err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "Pomyślnie zalogowano", LoginResponse{Token: sess.Token(), UserInfo: user})
}

// GoogleLogin 跳转到 Google 授权页
// @Summary Google 登录
// @Description 重定向到 Google 授权页面
// @Tags 认证
// @Success 302 "跳转到授权页"
// @Failure 403 {object} Response "未启用 Google 登录"
// @Router /api/v1/auth/google [get]
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	state := uuid.NewString()
	target, err := h.auth.BeginFederated(state)
	if err != nil {
		RespondError(c, err)
		return
	}
	setOAuthState(c, state)
	c.Redirect(http.StatusFound, target)
}

// GoogleCallback Google 授权回调
// @Summary Google 登录回调
// @Description 校验 state 后完成登录，成功跳转到首页，失败跳转回登录页并附带错误原因
// @Tags 认证
// @Param code query string false "授权码"
// @Param state query string true "state"
// @Success 302 "跳转"
// @Router /api/v1/auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	expected := consumeOAuthState(c)
	if expected == "" || c.Query("state") != expected {
		redirectLoginWithError(c, service.ReasonInvalidActionCode)
		return
	}

	sess := h.session(c)
	// 用户拒绝授权时 Google 只返回 error 参数，code 为空
	if _, err := h.auth.CompleteFederated(c.Request.Context(), sess, c.Query("code")); err != nil {
		reason := service.ReasonUnknown
		var ae *service.AuthError
		if errors.As(err, &ae) {
			reason = ae.Reason
		}
		redirectLoginWithError(c, reason)
		return
	}
	c.Redirect(http.StatusFound, middleware.DashboardPath)
}

func redirectLoginWithError(c *gin.Context, reason service.AuthReason) {
	q := url.Values{"error": {string(reason)}}
	c.Redirect(http.StatusFound, middleware.LoginPath+"?"+q.Encode())
}

// RequestPasswordReset 请求密码重置
// @Summary 请求密码重置
// @Description 发送重置链接。无论邮箱是否注册都返回成功
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RequestResetRequest true "邮箱地址"
// @Success 200 {object} Response "请求成功"
// @Failure 400 {object} Response "邮箱格式错误"
// @Router /api/v1/auth/password/request-reset [post]
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req RequestResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Nieprawidłowe dane formularza.")
		return
	}
	if err := h.auth.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "Link do resetowania hasła został wysłany na podany adres email", nil)
}

// ResetPassword 使用重置代码设置新密码
// @Summary 重置密码
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "重置代码与新密码"
// @Success 200 {object} Response "修改成功"
// @Failure 400 {object} Response "代码无效、已过期或密码过短"
// @Router /api/v1/auth/password/reset [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Nieprawidłowe dane formularza.")
		return
	}
	if err := h.auth.ConfirmPasswordReset(c.Request.Context(), req.OobCode, req.NewPassword); err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "Hasło zostało zmienione pomyślnie", nil)
}

// Logout 登出
// @Summary 登出
// @Description 清除会话 Cookie
// @Tags 认证
// @Produce json
// @Success 200 {object} Response "已登出"
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	sess := h.session(c)
	if sess.State() == service.StateAuthenticated {
		h.auth.SignOut(sess)
	} else {
		// 标记已失效时也清除残留 Cookie
		cookieMarker{c: c}.ClearMarker()
	}
	SuccessWithMessage(c, "Wylogowano", nil)
}

// GetProfile 获取当前用户信息
// @Summary 获取当前用户信息
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=models.User} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/auth/profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	user, err := h.auth.CurrentUser(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, user)
}

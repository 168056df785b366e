package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"sync"
	"time"

	"fintrack/models"
	"fintrack/repository"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength 密码最短长度
const MinPasswordLength = 6

// comparePassword 校验密码哈希
var comparePassword = bcrypt.CompareHashAndPassword

// dummyPasswordHash 未注册邮箱也执行一次同等成本的比对，响应时间不泄露邮箱是否存在
var dummyPasswordHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("fintrack-dummy-password"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return hash
})

// Mailer 发送密码重置邮件
type Mailer interface {
	SendPasswordResetEmail(toEmail, displayName, resetLink string) error
}

// AuthService 身份服务：注册、登录、联合登录、密码重置、登出
type AuthService struct {
	store     *repository.Store
	mailer    Mailer
	federated FederatedProvider
	baseURL   string
	debug     bool
	now       func() time.Time
	log       *slog.Logger
}

// AuthOption 可选配置
type AuthOption func(*AuthService)

// WithFederatedProvider 启用联合登录
func WithFederatedProvider(p FederatedProvider) AuthOption {
	return func(s *AuthService) { s.federated = p }
}

// WithDebug 开发模式下在日志中输出重置链接
func WithDebug(debug bool) AuthOption {
	return func(s *AuthService) { s.debug = debug }
}

// WithClock 替换时钟
func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

// NewAuthService 创建身份服务；baseURL 用于拼接重置链接
func NewAuthService(store *repository.Store, mailer Mailer, baseURL string, opts ...AuthOption) *AuthService {
	s := &AuthService{
		store:   store,
		mailer:  mailer,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
		log:     slog.Default().With("component", "auth"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FederatedEnabled 是否配置了联合登录
func (s *AuthService) FederatedEnabled() bool {
	return s.federated != nil
}

// SignUpWithPassword 注册并进入已认证状态
func (s *AuthService) SignUpWithPassword(ctx context.Context, sess *Session, email, password, displayName string) (*models.User, error) {
	if err := sess.begin(); err != nil {
		return nil, newAuthError(ReasonTooManyRequests, err)
	}
	user, err := s.signUp(ctx, email, password, displayName)
	return s.finish(sess, "sign_up", user, err)
}

func (s *AuthService) signUp(ctx context.Context, email, password, displayName string) (*models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len([]rune(password)) < MinPasswordLength {
		return nil, newAuthError(ReasonWeakPassword, nil)
	}

	existing, err := s.store.Users.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.Provider != models.ProviderPassword:
		return nil, newAuthError(ReasonAccountExistsDifferentCred, nil)
	case err == nil:
		return nil, newAuthError(ReasonEmailAlreadyInUse, nil)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, remoteAuthError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, newAuthError(ReasonUnknown, err)
	}
	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(displayName),
		Provider:     models.ProviderPassword,
		Status:       models.UserStatusActive,
	}
	if err := s.store.Users.Create(ctx, user); err != nil {
		return nil, remoteAuthError(err)
	}
	return user, nil
}

// SignInWithPassword 邮箱密码登录
func (s *AuthService) SignInWithPassword(ctx context.Context, sess *Session, email, password string) (*models.User, error) {
	if err := sess.begin(); err != nil {
		return nil, newAuthError(ReasonTooManyRequests, err)
	}
	user, err := s.signIn(ctx, email, password)
	return s.finish(sess, "sign_in", user, err)
}

func (s *AuthService) signIn(ctx context.Context, email, password string) (*models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	user, err := s.store.Users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		_ = comparePassword(dummyPasswordHash(), []byte(password))
		return nil, newAuthError(ReasonInvalidCredential, nil)
	}
	if err != nil {
		return nil, remoteAuthError(err)
	}
	if user.Provider != models.ProviderPassword || user.PasswordHash == "" {
		return nil, newAuthError(ReasonAccountExistsDifferentCred, nil)
	}
	if err := comparePassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, newAuthError(ReasonInvalidCredential, nil)
	}
	if !user.Active() {
		return nil, newAuthError(ReasonUserDisabled, nil)
	}
	return user, nil
}

// BeginFederated 返回外部授权页地址
func (s *AuthService) BeginFederated(state string) (string, error) {
	if s.federated == nil {
		return "", newAuthError(ReasonOperationNotAllowed, nil)
	}
	return s.federated.AuthCodeURL(state), nil
}

// CompleteFederated 处理授权回调；code 为空表示用户取消了授权
func (s *AuthService) CompleteFederated(ctx context.Context, sess *Session, code string) (*models.User, error) {
	if s.federated == nil {
		return nil, newAuthError(ReasonOperationNotAllowed, nil)
	}
	if err := sess.begin(); err != nil {
		return nil, newAuthError(ReasonTooManyRequests, err)
	}
	user, err := s.completeFederated(ctx, code)
	return s.finish(sess, "sign_in_federated", user, err)
}

func (s *AuthService) completeFederated(ctx context.Context, code string) (*models.User, error) {
	if code == "" {
		return nil, newAuthError(ReasonPopupClosedByUser, nil)
	}
	identity, err := s.federated.Exchange(ctx, code)
	if err != nil {
		var ae *AuthError
		if errors.As(err, &ae) {
			return nil, ae
		}
		return nil, newAuthError(ReasonNetworkRequestFailed, err)
	}

	user, err := s.store.Users.GetByProvider(ctx, identity.Provider, identity.UID)
	if err == nil {
		if !user.Active() {
			return nil, newAuthError(ReasonUserDisabled, nil)
		}
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, remoteAuthError(err)
	}

	email, err := normalizeEmail(identity.Email)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Users.GetByEmail(ctx, email); err == nil {
		return nil, newAuthError(ReasonAccountExistsDifferentCred, nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, remoteAuthError(err)
	}

	uid := identity.UID
	user = &models.User{
		Email:       email,
		DisplayName: identity.Name,
		Provider:    identity.Provider,
		ProviderUID: &uid,
		Status:      models.UserStatusActive,
	}
	if err := s.store.Users.Create(ctx, user); err != nil {
		return nil, remoteAuthError(err)
	}
	return user, nil
}

// RequestPasswordReset 发送重置链接；邮箱未注册时同样返回成功
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	user, err := s.store.Users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.Info("password reset requested for unknown email", "operation", "request_password_reset")
		return nil
	}
	if err != nil {
		return remoteAuthError(err)
	}
	if user.Provider != models.ProviderPassword || !user.Active() {
		s.log.Info("password reset skipped", "operation", "request_password_reset", "user_id", user.ID, "provider", user.Provider)
		return nil
	}

	code, hash, err := models.GenerateResetCode()
	if err != nil {
		return newAuthError(ReasonUnknown, err)
	}
	reset := &models.PasswordReset{
		UserID:    user.ID,
		CodeHash:  hash,
		ExpiresAt: s.now().Add(models.PasswordResetTTL),
	}
	if err := s.store.PasswordResets.Create(ctx, reset); err != nil {
		return remoteAuthError(err)
	}

	link := s.baseURL + "/reset-password?oobCode=" + url.QueryEscape(code)
	if err := s.mailer.SendPasswordResetEmail(user.Email, user.DisplayName, link); err != nil {
		attrs := []any{"operation", "request_password_reset", "user_id", user.ID, "error", err}
		if s.debug {
			attrs = append(attrs, "reset_link", link)
		}
		s.log.Warn("password reset email not sent", attrs...)
		return nil
	}
	s.log.Info("password reset email sent", "operation", "request_password_reset", "user_id", user.ID)
	return nil
}

// ConfirmPasswordReset 校验重置码并设置新密码；不改变当前会话
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, code, newPassword string) error {
	if len([]rune(newPassword)) < MinPasswordLength {
		return newAuthError(ReasonWeakPassword, nil)
	}
	if code == "" {
		return newAuthError(ReasonInvalidActionCode, nil)
	}

	reset, err := s.store.PasswordResets.GetByHash(ctx, models.HashResetCode(code))
	if errors.Is(err, repository.ErrNotFound) {
		return newAuthError(ReasonInvalidActionCode, nil)
	}
	if err != nil {
		return remoteAuthError(err)
	}
	now := s.now()
	if reset.UsedAt != nil {
		return newAuthError(ReasonInvalidActionCode, nil)
	}
	if reset.IsExpired(now) {
		return newAuthError(ReasonExpiredActionCode, nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return newAuthError(ReasonUnknown, err)
	}
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.PasswordResets.MarkUsed(ctx, reset.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return newAuthError(ReasonInvalidActionCode, nil)
			}
			return err
		}
		return tx.Users.UpdatePassword(ctx, reset.UserID, string(hash))
	})
	if err != nil {
		var ae *AuthError
		if errors.As(err, &ae) {
			return ae
		}
		return remoteAuthError(err)
	}
	s.log.Info("password reset confirmed", "operation", "confirm_password_reset", "user_id", reset.UserID)
	return nil
}

// SignOut 清除会话
func (s *AuthService) SignOut(sess *Session) {
	if u := sess.User(); u != nil {
		s.log.Info("signed out", "operation", "sign_out", "user_id", u.ID)
	}
	sess.signOut()
}

// CurrentUser 按 ID 读取当前用户
func (s *AuthService) CurrentUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.Users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.Active() {
		return nil, newAuthError(ReasonUserDisabled, nil)
	}
	return user, nil
}

// finish 根据结果推进会话状态
func (s *AuthService) finish(sess *Session, op string, user *models.User, err error) (*models.User, error) {
	if err == nil {
		err = sess.complete(user)
		if err != nil {
			err = newAuthError(ReasonUnknown, err)
		}
	}
	if err != nil {
		sess.fail()
		var ae *AuthError
		if errors.As(err, &ae) {
			s.log.Info("authentication failed", "operation", op, "reason", string(ae.Reason))
		}
		return nil, err
	}
	s.log.Info("authenticated", "operation", op, "user_id", user.ID)
	return user, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return "", newAuthError(ReasonInvalidEmail, err)
	}
	return email, nil
}

// remoteAuthError 存储不可用时归为网络失败，其余归为通用错误
func remoteAuthError(err error) error {
	if errors.Is(err, repository.ErrRemoteUnavailable) {
		return newAuthError(ReasonNetworkRequestFailed, err)
	}
	return newAuthError(ReasonUnknown, err)
}

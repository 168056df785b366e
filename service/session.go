package service

import (
	"errors"
	"sync"
	"time"

	"fintrack/models"
)

// SessionState 会话状态
type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateAuthenticating
	StateAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unauthenticated"
}

// MarkerSink 会话标记的落点（HTTP 中即 auth-token Cookie）
type MarkerSink interface {
	SetMarker(token string, expiresAt time.Time)
	ClearMarker()
}

// TokenIssuer 为已认证用户签发会话标记
type TokenIssuer interface {
	Issue(user *models.User) (token string, expiresAt time.Time, err error)
}

// TokenIssuerFunc 函数适配器
type TokenIssuerFunc func(user *models.User) (string, time.Time, error)

func (f TokenIssuerFunc) Issue(user *models.User) (string, time.Time, error) {
	return f(user)
}

var errSessionBusy = errors.New("authentication already in progress")

// Session 单个请求方的会话状态机
// 进入 Authenticated 时写入会话标记，离开时清除。
type Session struct {
	mu     sync.Mutex
	state  SessionState
	user   *models.User
	token  string
	marked bool // 标记已写出
	sink   MarkerSink
	issuer TokenIssuer
}

// NewSession 创建未认证的会话；user 非空时表示已由标记恢复的会话
func NewSession(sink MarkerSink, issuer TokenIssuer, user *models.User) *Session {
	s := &Session{sink: sink, issuer: issuer}
	if user != nil {
		s.state = StateAuthenticated
		s.user = user
		s.marked = true
	}
	return s
}

// State 当前状态
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User 当前用户，未认证时为 nil
func (s *Session) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Token 最近一次签发的会话标记
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAuthenticating {
		return errSessionBusy
	}
	s.state = StateAuthenticating
	return nil
}

// complete Authenticating -> Authenticated，签发并写入标记
func (s *Session) complete(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, expiresAt, err := s.issuer.Issue(user)
	if err != nil {
		s.reset()
		return err
	}
	s.state = StateAuthenticated
	s.user = user
	s.token = token
	s.marked = true
	s.sink.SetMarker(token, expiresAt)
	return nil
}

// fail Authenticating -> Unauthenticated
func (s *Session) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAuthenticating {
		s.reset()
	}
}

// signOut 任意状态 -> Unauthenticated，清除标记
func (s *Session) signOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = true
	s.reset()
}

// reset 调用方持有锁
func (s *Session) reset() {
	s.state = StateUnauthenticated
	s.user = nil
	s.token = ""
	if s.marked {
		s.marked = false
		s.sink.ClearMarker()
	}
}

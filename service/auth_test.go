package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"fintrack/models"
	"fintrack/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordingSink struct {
	token   string
	expires time.Time
	sets    int
	clears  int
}

func (r *recordingSink) SetMarker(token string, expiresAt time.Time) {
	r.token = token
	r.expires = expiresAt
	r.sets++
}

func (r *recordingSink) ClearMarker() {
	r.token = ""
	r.clears++
}

var testIssuer = TokenIssuerFunc(func(u *models.User) (string, time.Time, error) {
	return "token-" + u.ID, time.Now().Add(time.Hour), nil
})

type fakeMailer struct {
	to   string
	link string
	err  error
}

func (m *fakeMailer) SendPasswordResetEmail(to, _, link string) error {
	m.to = to
	m.link = link
	return m.err
}

type fakeProvider struct {
	identity *FederatedIdentity
	err      error
}

func (p *fakeProvider) Name() string { return "google" }
func (p *fakeProvider) AuthCodeURL(state string) string { return "https://accounts.example.com/auth?state=" + state }
func (p *fakeProvider) Exchange(context.Context, string) (*FederatedIdentity, error) {
	return p.identity, p.err
}

func newTestAuth(t *testing.T, opts ...AuthOption) (*AuthService, *repository.Store, *fakeMailer) {
	t.Helper()
	store := newTestStore(t)
	mailer := &fakeMailer{}
	return NewAuthService(store, mailer, "http://localhost:8080/", opts...), store, mailer
}

func newTestSession() (*Session, *recordingSink) {
	sink := &recordingSink{}
	return NewSession(sink, testIssuer, nil), sink
}

func TestAuth_SignUpAndSignIn(t *testing.T) {
	auth, _, _ := newTestAuth(t)
	ctx := context.Background()

	sess, sink := newTestSession()
	user, err := auth.SignUpWithPassword(ctx, sess, " Anna@Example.com ", "secret1", "Anna")
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", user.Email)
	assert.Equal(t, StateAuthenticated, sess.State())
	assert.Equal(t, "token-"+user.ID, sink.token)
	assert.Equal(t, 1, sink.sets)

	auth.SignOut(sess)
	assert.Equal(t, StateUnauthenticated, sess.State())
	assert.Empty(t, sink.token)
	assert.Equal(t, 1, sink.clears)

	sess2, sink2 := newTestSession()
	got, err := auth.SignInWithPassword(ctx, sess2, "anna@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "token-"+user.ID, sink2.token)
}

func TestAuth_SignUpErrors(t *testing.T) {
	auth, _, _ := newTestAuth(t)
	ctx := context.Background()

	sess, _ := newTestSession()
	_, err := auth.SignUpWithPassword(ctx, sess, "anna@example.com", "secret1", "")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		reason   AuthReason
	}{
		{"invalid email", "not-an-email", "secret1", ReasonInvalidEmail},
		{"weak password", "bob@example.com", "12345", ReasonWeakPassword},
		{"duplicate", "ANNA@example.com", "secret1", ReasonEmailAlreadyInUse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, sink := newTestSession()
			_, err := auth.SignUpWithPassword(ctx, sess, tt.email, tt.password, "")
			assert.True(t, IsAuthReason(err, tt.reason), "got %v", err)
			assert.Equal(t, StateUnauthenticated, sess.State())
			assert.Zero(t, sink.sets)
		})
	}
}

func TestAuth_SignInErrors(t *testing.T) {
	auth, store, _ := newTestAuth(t)
	ctx := context.Background()

	sess, _ := newTestSession()
	user, err := auth.SignUpWithPassword(ctx, sess, "anna@example.com", "secret1", "")
	require.NoError(t, err)

	sess, _ = newTestSession()
	_, err = auth.SignInWithPassword(ctx, sess, "anna@example.com", "wrong-password")
	assert.True(t, IsAuthReason(err, ReasonInvalidCredential))

	_, err = auth.SignInWithPassword(ctx, sess, "nobody@example.com", "secret1")
	assert.True(t, IsAuthReason(err, ReasonInvalidCredential), "unknown email is indistinguishable from a wrong password")

	require.NoError(t, store.DB().Model(&models.User{}).Where("id = ?", user.ID).Update("status", models.UserStatusDisabled).Error)
	_, err = auth.SignInWithPassword(ctx, sess, "anna@example.com", "secret1")
	assert.True(t, IsAuthReason(err, ReasonUserDisabled))
	assert.Equal(t, StateUnauthenticated, sess.State())
}

func TestAuth_SignInUnknownEmailComparesHash(t *testing.T) {
	auth, _, _ := newTestAuth(t)
	ctx := context.Background()

	var compared [][]byte
	orig := comparePassword
	comparePassword = func(hash, password []byte) error {
		compared = append(compared, hash)
		return orig(hash, password)
	}
	t.Cleanup(func() { comparePassword = orig })

	sess, _ := newTestSession()
	_, err := auth.SignInWithPassword(ctx, sess, "nobody@example.com", "secret1")
	assert.True(t, IsAuthReason(err, ReasonInvalidCredential))

	// 未注册邮箱同样执行一次默认成本的 bcrypt 比对
	require.Len(t, compared, 1)
	cost, err := bcrypt.Cost(compared[0])
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestAuth_FailedReauthClearsMarker(t *testing.T) {
	auth, _, _ := newTestAuth(t)
	ctx := context.Background()

	sess, sink := newTestSession()
	_, err := auth.SignUpWithPassword(ctx, sess, "anna@example.com", "secret1", "")
	require.NoError(t, err)
	require.NotEmpty(t, sink.token)

	_, err = auth.SignInWithPassword(ctx, sess, "anna@example.com", "bad-password")
	require.Error(t, err)
	assert.Equal(t, StateUnauthenticated, sess.State())
	assert.Empty(t, sink.token)
}

func TestAuth_Federated(t *testing.T) {
	provider := &fakeProvider{identity: &FederatedIdentity{Provider: "google", UID: "g-1", Email: "jan@example.com", Name: "Jan"}}
	auth, _, _ := newTestAuth(t, WithFederatedProvider(provider))
	ctx := context.Background()

	u, err := auth.BeginFederated("state-1")
	require.NoError(t, err)
	assert.Contains(t, u, "state-1")

	sess, sink := newTestSession()
	_, err = auth.CompleteFederated(ctx, sess, "")
	assert.True(t, IsAuthReason(err, ReasonPopupClosedByUser))
	assert.Equal(t, StateUnauthenticated, sess.State())

	user, err := auth.CompleteFederated(ctx, sess, "code")
	require.NoError(t, err)
	assert.Equal(t, models.ProviderGoogle, user.Provider)
	assert.Equal(t, "Jan", user.DisplayName)
	assert.NotEmpty(t, sink.token)

	// 再次登录命中同一用户
	sess2, _ := newTestSession()
	again, err := auth.CompleteFederated(ctx, sess2, "code")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	// 联合登录账户不能用密码登录
	_, err = auth.SignInWithPassword(ctx, sess2, "jan@example.com", "whatever")
	assert.True(t, IsAuthReason(err, ReasonAccountExistsDifferentCred))

	// 邮箱已被密码账户占用
	sess3, _ := newTestSession()
	_, err = auth.SignUpWithPassword(ctx, sess3, "ola@example.com", "secret1", "")
	require.NoError(t, err)
	provider.identity = &FederatedIdentity{Provider: "google", UID: "g-2", Email: "ola@example.com"}
	_, err = auth.CompleteFederated(ctx, sess3, "code")
	assert.True(t, IsAuthReason(err, ReasonAccountExistsDifferentCred))

	provider.err = errors.New("dial tcp: timeout")
	_, err = auth.CompleteFederated(ctx, sess3, "code")
	assert.True(t, IsAuthReason(err, ReasonNetworkRequestFailed))
}

func TestAuth_FederatedDisabled(t *testing.T) {
	auth, _, _ := newTestAuth(t)
	_, err := auth.BeginFederated("s")
	assert.True(t, IsAuthReason(err, ReasonOperationNotAllowed))
	assert.False(t, auth.FederatedEnabled())
}

func TestAuth_PasswordReset(t *testing.T) {
	now := time.Now()
	auth, _, mailer := newTestAuth(t, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	sess, _ := newTestSession()
	_, err := auth.SignUpWithPassword(ctx, sess, "anna@example.com", "secret1", "")
	require.NoError(t, err)

	// 未注册邮箱同样成功且不发邮件
	require.NoError(t, auth.RequestPasswordReset(ctx, "nobody@example.com"))
	assert.Empty(t, mailer.to)

	require.NoError(t, auth.RequestPasswordReset(ctx, "anna@example.com"))
	assert.Equal(t, "anna@example.com", mailer.to)
	require.True(t, strings.HasPrefix(mailer.link, "http://localhost:8080/reset-password?oobCode="))
	parsed, err := url.Parse(mailer.link)
	require.NoError(t, err)
	code := parsed.Query().Get("oobCode")
	require.NotEmpty(t, code)

	err = auth.ConfirmPasswordReset(ctx, code, "123")
	assert.True(t, IsAuthReason(err, ReasonWeakPassword))
	err = auth.ConfirmPasswordReset(ctx, "bogus", "newsecret")
	assert.True(t, IsAuthReason(err, ReasonInvalidActionCode))

	require.NoError(t, auth.ConfirmPasswordReset(ctx, code, "newsecret"))
	err = auth.ConfirmPasswordReset(ctx, code, "another1")
	assert.True(t, IsAuthReason(err, ReasonInvalidActionCode), "codes are single use")

	sess2, _ := newTestSession()
	_, err = auth.SignInWithPassword(ctx, sess2, "anna@example.com", "secret1")
	assert.True(t, IsAuthReason(err, ReasonInvalidCredential))
	_, err = auth.SignInWithPassword(ctx, sess2, "anna@example.com", "newsecret")
	assert.NoError(t, err)

	// 过期
	require.NoError(t, auth.RequestPasswordReset(ctx, "anna@example.com"))
	parsed, err = url.Parse(mailer.link)
	require.NoError(t, err)
	now = now.Add(models.PasswordResetTTL + time.Minute)
	err = auth.ConfirmPasswordReset(ctx, parsed.Query().Get("oobCode"), "newsecret2")
	assert.True(t, IsAuthReason(err, ReasonExpiredActionCode))
}

func TestAuth_PasswordResetMailFailureIsSilent(t *testing.T) {
	auth, _, mailer := newTestAuth(t)
	ctx := context.Background()
	sess, _ := newTestSession()
	_, err := auth.SignUpWithPassword(ctx, sess, "anna@example.com", "secret1", "")
	require.NoError(t, err)

	mailer.err = ErrEmailDisabled
	assert.NoError(t, auth.RequestPasswordReset(ctx, "anna@example.com"))

	err = auth.RequestPasswordReset(ctx, "bad email")
	assert.True(t, IsAuthReason(err, ReasonInvalidEmail))
}

func TestAuthMessages(t *testing.T) {
	assert.Equal(t, "Nieprawidłowy email lub hasło.", AuthMessage(ReasonInvalidCredential))
	assert.Equal(t, "Zbyt wiele prób logowania. Spróbuj ponownie później.", AuthMessage(ReasonTooManyRequests))
	assert.Equal(t, "Wystąpił nieoczekiwany błąd. Spróbuj ponownie później.", AuthMessage("auth/something-new"))

	err := newAuthError(ReasonEmailAlreadyInUse, nil)
	assert.Equal(t, 409, err.HTTPStatus())
	assert.Equal(t, 401, newAuthError(ReasonInvalidCredential, nil).HTTPStatus())
	assert.Equal(t, 500, newAuthError(ReasonUnknown, nil).HTTPStatus())
}

func TestSession_RestoredFromMarker(t *testing.T) {
	sink := &recordingSink{}
	sess := NewSession(sink, testIssuer, &models.User{ID: "u1"})
	assert.Equal(t, StateAuthenticated, sess.State())
	assert.Equal(t, "u1", sess.User().ID)

	sess.signOut()
	assert.Equal(t, StateUnauthenticated, sess.State())
	assert.Nil(t, sess.User())
	assert.Equal(t, 1, sink.clears)
	assert.Equal(t, "unauthenticated", sess.State().String())
}

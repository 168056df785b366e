package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fintrack/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// FederatedIdentity 联合登录返回的外部身份
type FederatedIdentity struct {
	Provider      string
	UID           string
	Email         string
	EmailVerified bool
	Name          string
}

// FederatedProvider 外部身份提供方（OAuth2 授权码流程）
type FederatedProvider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*FederatedIdentity, error)
}

// GoogleProvider Google OAuth2 + userinfo
type GoogleProvider struct {
	oauth *oauth2.Config
}

// NewGoogleProvider 根据配置创建；未启用时返回 nil
func NewGoogleProvider(cfg config.GoogleOAuthConfig) *GoogleProvider {
	if !cfg.Enabled {
		return nil
	}
	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", oauth2api.UserinfoEmailScope, oauth2api.UserinfoProfileScope},
		},
	}
}

func (p *GoogleProvider) Name() string {
	return "google"
}

// AuthCodeURL 跳转到 Google 授权页
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Exchange 用授权码换取令牌并查询用户信息
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*FederatedIdentity, error) {
	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return nil, newAuthError(ReasonInvalidCredential, err)
		}
		return nil, newAuthError(ReasonNetworkRequestFailed, err)
	}

	svc, err := oauth2api.NewService(ctx, option.WithTokenSource(p.oauth.TokenSource(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("create userinfo client: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, newAuthError(ReasonNetworkRequestFailed, err)
	}

	return &FederatedIdentity{
		Provider:      p.Name(),
		UID:           info.Id,
		Email:         strings.ToLower(info.Email),
		EmailVerified: info.VerifiedEmail != nil && *info.VerifiedEmail,
		Name:          info.Name,
	}, nil
}

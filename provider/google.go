package provider

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/aloks98/authcore"
)

const googleAPIBase = "https://openidconnect.googleapis.com"

// Google signs users in with Google accounts.
type Google struct {
	conf    *oauth2.Config
	apiBase string
}

// NewGoogle creates a Google provider.
func NewGoogle(cfg *Config) *Google {
	base := cfg.APIBase
	if base == "" {
		base = googleAPIBase
	}
	return &Google{
		conf:    cfg.clientConfig(google.Endpoint, []string{"openid", "email", "profile"}),
		apiBase: base,
	}
}

// Name returns "google".
func (g *Google) Name() string { return NameGoogle }

// AuthCodeURL returns the consent page URL.
func (g *Google) AuthCodeURL(state string) string {
	return g.conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Exchange trades code for a token and loads the OpenID user info.
func (g *Google) Exchange(ctx context.Context, code string) (*authcore.OAuthProfile, error) {
	tok, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google: exchange code: %w", err)
	}

	var info googleUserInfo
	if err := getJSON(ctx, g.conf.Client(ctx, tok), g.apiBase+"/v1/userinfo", &info); err != nil {
		return nil, fmt.Errorf("google: %w", err)
	}
	if info.Email == "" || !info.EmailVerified {
		return nil, fmt.Errorf("google: %w", ErrEmailUnavailable)
	}

	return &authcore.OAuthProfile{
		Provider:   NameGoogle,
		ExternalID: info.Sub,
		Email:      info.Email,
		Name:       info.Name,
		Picture:    info.Picture,
	}, nil
}

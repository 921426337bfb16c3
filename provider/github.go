package provider

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/aloks98/authcore"
)

const githubAPIBase = "https://api.github.com"

// GitHub signs users in with GitHub accounts.
type GitHub struct {
	conf    *oauth2.Config
	apiBase string
}

// NewGitHub creates a GitHub provider.
func NewGitHub(cfg *Config) *GitHub {
	base := cfg.APIBase
	if base == "" {
		base = githubAPIBase
	}
	return &GitHub{
		conf:    cfg.clientConfig(github.Endpoint, []string{"read:user", "user:email"}),
		apiBase: base,
	}
}

// Name returns "github".
func (g *GitHub) Name() string { return NameGitHub }

// AuthCodeURL returns the authorization page URL.
func (g *GitHub) AuthCodeURL(state string) string {
	return g.conf.AuthCodeURL(state)
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// Exchange trades code for a token and loads the user. A private profile
// email falls back to the primary verified address.
func (g *GitHub) Exchange(ctx context.Context, code string) (*authcore.OAuthProfile, error) {
	tok, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("github: exchange code: %w", err)
	}
	client := g.conf.Client(ctx, tok)

	var user githubUser
	if err := getJSON(ctx, client, g.apiBase+"/user", &user); err != nil {
		return nil, fmt.Errorf("github: %w", err)
	}

	email := user.Email
	if email == "" {
		email, err = g.primaryEmail(ctx, client)
		if err != nil {
			return nil, err
		}
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}

	return &authcore.OAuthProfile{
		Provider:   NameGitHub,
		ExternalID: strconv.FormatInt(user.ID, 10),
		Email:      email,
		Name:       name,
		Picture:    user.AvatarURL,
	}, nil
}

func (g *GitHub) primaryEmail(ctx context.Context, client *http.Client) (string, error) {
	var emails []githubEmail
	if err := getJSON(ctx, client, g.apiBase+"/user/emails", &emails); err != nil {
		return "", fmt.Errorf("github: %w", err)
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	return "", fmt.Errorf("github: %w", ErrEmailUnavailable)
}

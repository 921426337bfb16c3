// Package provider exchanges OAuth2 authorization codes with third-party
// identity providers and maps their user info to authcore.OAuthProfile.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/aloks98/authcore"
	"github.com/aloks98/authcore/internal/crypto"
)

// Provider names. They are the keys under store.User.Services.
const (
	NameGoogle = "google"
	NameGitHub = "github"
)

// Errors returned by providers.
var (
	ErrUnknownProvider  = errors.New("provider: unknown provider")
	ErrEmailUnavailable = errors.New("provider: no verified email")
	ErrUserInfo         = errors.New("provider: user info request failed")
)

// Provider completes an OAuth2 authorization code flow.
type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*authcore.OAuthProfile, error)
}

// Config holds the OAuth2 client registration.
type Config struct {
	ClientID     string `koanf:"client_id" env:"CLIENT_ID"`
	ClientSecret string `koanf:"client_secret" env:"CLIENT_SECRET"`
	RedirectURL  string `koanf:"redirect_url" env:"REDIRECT_URL"`

	// Scopes overrides the provider's default scopes.
	Scopes []string `koanf:"scopes" env:"SCOPES"`

	// Endpoint overrides the provider's OAuth2 endpoints.
	Endpoint *oauth2.Endpoint `koanf:"-"`

	// APIBase overrides the user info API root.
	APIBase string `koanf:"api_base" env:"API_BASE"`
}

func (c *Config) clientConfig(endpoint oauth2.Endpoint, scopes []string) *oauth2.Config {
	if c.Endpoint != nil {
		endpoint = *c.Endpoint
	}
	if len(c.Scopes) > 0 {
		scopes = c.Scopes
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Endpoint:     endpoint,
		Scopes:       scopes,
	}
}

// New builds the named provider.
func New(name string, cfg *Config) (Provider, error) {
	switch name {
	case NameGoogle:
		return NewGoogle(cfg), nil
	case NameGitHub:
		return NewGitHub(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
}

// StateToken returns a random value for the OAuth2 state parameter.
func StateToken() (string, error) {
	return crypto.GenerateURLToken(32)
}

// getJSON fetches url with client and decodes the body into v.
func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUserInfo, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s: %s", ErrUserInfo, resp.Status, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUserInfo, err)
	}
	return nil
}

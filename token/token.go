// Package token provides JWT access token issuance and refresh token management.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Defaults applied when the corresponding Config field is zero.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
	DefaultSigningMethod   = "HS256"
)

// Config holds configuration shared by AccessIssuer and RefreshManager.
type Config struct {
	// Secret is the HMAC signing key. Fixed for the lifetime of the issuer.
	Secret string

	// SigningMethod is one of HS256, HS384 or HS512.
	SigningMethod string

	// AccessTokenTTL is the access token lifetime.
	AccessTokenTTL time.Duration

	// RefreshTokenTTL is the refresh token lifetime.
	RefreshTokenTTL time.Duration

	// ClockSkew allows for clock differences between servers.
	ClockSkew time.Duration

	// Now is the time source. Defaults to time.Now.
	Now func() time.Time
}

func (c *Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Config) accessTTL() time.Duration {
	if c.AccessTokenTTL > 0 {
		return c.AccessTokenTTL
	}
	return DefaultAccessTokenTTL
}

func (c *Config) refreshTTL() time.Duration {
	if c.RefreshTokenTTL > 0 {
		return c.RefreshTokenTTL
	}
	return DefaultRefreshTokenTTL
}

// signingMethod resolves the configured HMAC method.
func signingMethod(name string) (*jwt.SigningMethodHMAC, error) {
	switch name {
	case "", "HS256":
		return jwt.SigningMethodHS256, nil
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSigningMethod, name)
	}
}

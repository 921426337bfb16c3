package authcore

import (
	"fmt"
	"time"

	"github.com/aloks98/authcore/password"
)

// SigningMethod represents the JWT signing algorithm.
type SigningMethod string

const (
	// SigningMethodHS256 uses HMAC-SHA256 for signing (symmetric).
	SigningMethodHS256 SigningMethod = "HS256"

	// SigningMethodHS384 uses HMAC-SHA384 for signing (symmetric).
	SigningMethodHS384 SigningMethod = "HS384"

	// SigningMethodHS512 uses HMAC-SHA512 for signing (symmetric).
	SigningMethodHS512 SigningMethod = "HS512"
)

// Default configuration values.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
	DefaultCleanupInterval = 1 * time.Hour

	// MinSecretLength is the minimum required length for the secret key.
	MinSecretLength = 32
)

// Config holds all configuration for a Service.
type Config struct {
	// Secret is the key used for signing access tokens.
	Secret string `koanf:"secret" env:"SECRET"`

	// SigningMethod is the JWT signing algorithm to use.
	SigningMethod SigningMethod `koanf:"signing_method" env:"SIGNING_METHOD"`

	// AccessTokenTTL is how long access tokens are valid.
	AccessTokenTTL time.Duration `koanf:"access_token_ttl" env:"ACCESS_TOKEN_TTL"`

	// RefreshTokenTTL is how long refresh tokens are valid.
	RefreshTokenTTL time.Duration `koanf:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL"`

	// BcryptCost is the work factor used outside test mode.
	BcryptCost int `koanf:"bcrypt_cost" env:"BCRYPT_COST"`

	// TestMode selects the cheapest password hashing cost.
	TestMode bool `koanf:"test_mode" env:"TEST_MODE"`

	// CleanupInterval is how often expired refresh tokens are removed.
	// Set to 0 to disable background cleanup.
	CleanupInterval time.Duration `koanf:"cleanup_interval" env:"CLEANUP_INTERVAL"`
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		SigningMethod:   SigningMethodHS256,
		AccessTokenTTL:  DefaultAccessTokenTTL,
		RefreshTokenTTL: DefaultRefreshTokenTTL,
		BcryptCost:      password.DefaultCost,
		CleanupInterval: DefaultCleanupInterval,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.SigningMethod {
	case SigningMethodHS256, SigningMethodHS384, SigningMethodHS512:
	default:
		return fmt.Errorf("%w: unsupported signing method: %s", ErrConfigInvalid, c.SigningMethod)
	}

	if c.Secret == "" {
		return fmt.Errorf("%w: secret is required for HMAC signing", ErrConfigInvalid)
	}
	if len(c.Secret) < MinSecretLength {
		return fmt.Errorf("%w: secret must be at least %d characters", ErrConfigInvalid, MinSecretLength)
	}

	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("%w: access token TTL must be positive", ErrConfigInvalid)
	}
	if c.RefreshTokenTTL <= c.AccessTokenTTL {
		return fmt.Errorf("%w: refresh token TTL must be greater than access token TTL", ErrConfigInvalid)
	}

	if c.BcryptCost < password.TestCost || c.BcryptCost > password.MaxCost {
		return fmt.Errorf("%w: bcrypt cost must be between %d and %d", ErrConfigInvalid, password.TestCost, password.MaxCost)
	}

	if c.CleanupInterval < 0 {
		return fmt.Errorf("%w: cleanup interval cannot be negative", ErrConfigInvalid)
	}

	return nil
}

// EffectiveBcryptCost is the cost actually used for hashing.
func (c *Config) EffectiveBcryptCost() int {
	return password.ConfigFor(c.BcryptCost, c.TestMode).Cost
}

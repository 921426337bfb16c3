package authcore

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aloks98/authcore/password"
	"github.com/aloks98/authcore/ratelimit"
)

// Option is a function that modifies the service options.
type Option func(*options)

type options struct {
	config   *Config
	hasher   password.Hasher
	logger   *slog.Logger
	registry prometheus.Registerer
	limiter  ratelimit.Limiter
	now      func() time.Time
}

func newOptions(opts ...Option) *options {
	o := &options{
		config: NewConfig(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithConfig replaces the whole configuration. Options applied after it
// still override individual fields.
func WithConfig(cfg *Config) Option {
	return func(o *options) {
		c := *cfg
		o.config = &c
	}
}

// WithSecret sets the secret key for HMAC signing.
// The secret must be at least 32 characters long.
func WithSecret(secret string) Option {
	return func(o *options) {
		o.config.Secret = secret
	}
}

// WithAccessTokenTTL sets the access token time-to-live.
func WithAccessTokenTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.config.AccessTokenTTL = ttl
	}
}

// WithAccessTokenMinutes sets the access token time-to-live in minutes.
func WithAccessTokenMinutes(minutes int) Option {
	return WithAccessTokenTTL(time.Duration(minutes) * time.Minute)
}

// WithRefreshTokenTTL sets the refresh token time-to-live.
func WithRefreshTokenTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.config.RefreshTokenTTL = ttl
	}
}

// WithSigningMethod sets the JWT signing algorithm.
func WithSigningMethod(method SigningMethod) Option {
	return func(o *options) {
		o.config.SigningMethod = method
	}
}

// WithBcryptCost sets the bcrypt work factor used outside test mode.
func WithBcryptCost(cost int) Option {
	return func(o *options) {
		o.config.BcryptCost = cost
	}
}

// WithTestMode switches password hashing to the cheapest cost.
func WithTestMode(enabled bool) Option {
	return func(o *options) {
		o.config.TestMode = enabled
	}
}

// WithCleanupInterval sets how often expired refresh tokens are removed.
func WithCleanupInterval(interval time.Duration) Option {
	return func(o *options) {
		o.config.CleanupInterval = interval
	}
}

// WithPasswordHasher sets the password hashing algorithm. It takes
// precedence over BcryptCost and TestMode.
func WithPasswordHasher(hasher password.Hasher) Option {
	return func(o *options) {
		o.hasher = hasher
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics registers the service counters on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithLoginLimiter throttles password logins per email.
func WithLoginLimiter(limiter ratelimit.Limiter) Option {
	return func(o *options) {
		o.limiter = limiter
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

package authcore

import (
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aloks98/authcore/password"
	"github.com/aloks98/authcore/ratelimit"
)

func TestWithSecret(t *testing.T) {
	o := newOptions(WithSecret("my-secret"))

	if o.config.Secret != "my-secret" {
		t.Errorf("Secret = %q, want %q", o.config.Secret, "my-secret")
	}
}

func TestWithAccessTokenTTL(t *testing.T) {
	o := newOptions(WithAccessTokenTTL(30 * time.Minute))

	if o.config.AccessTokenTTL != 30*time.Minute {
		t.Errorf("AccessTokenTTL = %v, want %v", o.config.AccessTokenTTL, 30*time.Minute)
	}
}

func TestWithAccessTokenMinutes(t *testing.T) {
	o := newOptions(WithAccessTokenMinutes(5))

	if o.config.AccessTokenTTL != 5*time.Minute {
		t.Errorf("AccessTokenTTL = %v, want %v", o.config.AccessTokenTTL, 5*time.Minute)
	}
}

func TestWithRefreshTokenTTL(t *testing.T) {
	o := newOptions(WithRefreshTokenTTL(24 * time.Hour))

	if o.config.RefreshTokenTTL != 24*time.Hour {
		t.Errorf("RefreshTokenTTL = %v, want %v", o.config.RefreshTokenTTL, 24*time.Hour)
	}
}

func TestWithSigningMethod(t *testing.T) {
	o := newOptions(WithSigningMethod(SigningMethodHS384))

	if o.config.SigningMethod != SigningMethodHS384 {
		t.Errorf("SigningMethod = %v, want %v", o.config.SigningMethod, SigningMethodHS384)
	}
}

func TestWithBcryptCostAndTestMode(t *testing.T) {
	o := newOptions(WithBcryptCost(12), WithTestMode(true))

	if o.config.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", o.config.BcryptCost)
	}
	if !o.config.TestMode {
		t.Error("TestMode should be true")
	}
}

func TestWithCleanupInterval(t *testing.T) {
	o := newOptions(WithCleanupInterval(2 * time.Hour))

	if o.config.CleanupInterval != 2*time.Hour {
		t.Errorf("CleanupInterval = %v, want %v", o.config.CleanupInterval, 2*time.Hour)
	}
}

func TestWithConfig_Copies(t *testing.T) {
	cfg := NewConfig()
	cfg.Secret = "original"

	o := newOptions(WithConfig(cfg), WithSecret("override"))
	if o.config.Secret != "override" {
		t.Errorf("Secret = %q, want %q", o.config.Secret, "override")
	}
	if cfg.Secret != "original" {
		t.Error("WithConfig should not alias the caller's config")
	}
}

func TestWithDependencies(t *testing.T) {
	hasher := password.NewArgon2Hasher(password.TestArgon2Config())
	logger := slog.New(slog.DiscardHandler)
	reg := prometheus.NewRegistry()
	limiter := ratelimit.NewMemoryLimiter(5, time.Minute)
	defer limiter.Close()
	fixed := time.Unix(1700000000, 0)

	o := newOptions(
		WithPasswordHasher(hasher),
		WithLogger(logger),
		WithMetrics(reg),
		WithLoginLimiter(limiter),
		WithClock(func() time.Time { return fixed }),
	)

	if o.hasher != hasher {
		t.Error("hasher not set")
	}
	if o.logger != logger {
		t.Error("logger not set")
	}
	if o.registry != reg {
		t.Error("registry not set")
	}
	if o.limiter != limiter {
		t.Error("limiter not set")
	}
	if !o.now().Equal(fixed) {
		t.Errorf("now() = %v, want %v", o.now(), fixed)
	}
}

func TestOptionDefaults(t *testing.T) {
	o := newOptions()

	if o.now == nil {
		t.Fatal("now should default to time.Now")
	}
	if o.hasher != nil || o.limiter != nil || o.registry != nil {
		t.Error("optional dependencies should default to nil")
	}
}

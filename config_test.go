package authcore

import (
	"errors"
	"testing"
	"time"

	"github.com/aloks98/authcore/password"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if cfg.AccessTokenTTL != DefaultAccessTokenTTL {
		t.Errorf("AccessTokenTTL = %v, want %v", cfg.AccessTokenTTL, DefaultAccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != DefaultRefreshTokenTTL {
		t.Errorf("RefreshTokenTTL = %v, want %v", cfg.RefreshTokenTTL, DefaultRefreshTokenTTL)
	}
	if cfg.SigningMethod != SigningMethodHS256 {
		t.Errorf("SigningMethod = %v, want %v", cfg.SigningMethod, SigningMethodHS256)
	}
	if cfg.BcryptCost != password.DefaultCost {
		t.Errorf("BcryptCost = %d, want %d", cfg.BcryptCost, password.DefaultCost)
	}
	if cfg.CleanupInterval != DefaultCleanupInterval {
		t.Errorf("CleanupInterval = %v, want %v", cfg.CleanupInterval, DefaultCleanupInterval)
	}
	if cfg.TestMode {
		t.Error("TestMode should default to false")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{
			name:    "valid config",
			modify:  func(c *Config) { c.Secret = "this-is-a-32-character-secret!!!" },
			wantErr: nil,
		},
		{
			name:    "missing secret",
			modify:  func(c *Config) {},
			wantErr: ErrConfigInvalid,
		},
		{
			name:    "secret too short",
			modify:  func(c *Config) { c.Secret = "short" },
			wantErr: ErrConfigInvalid,
		},
		{
			name: "unsupported signing method",
			modify: func(c *Config) {
				c.Secret = "this-is-a-32-character-secret!!!"
				c.SigningMethod = "RS256"
			},
			wantErr: ErrConfigInvalid,
		},
		{
			name: "HS512",
			modify: func(c *Config) {
				c.Secret = "this-is-a-32-character-secret!!!"
				c.SigningMethod = SigningMethodHS512
			},
			wantErr: nil,
		},
		{
			name: "zero access TTL",
			modify: func(c *Config) {
				c.Secret = "this-is-a-32-character-secret!!!"
				c.AccessTokenTTL = 0
			},
			wantErr: ErrConfigInvalid,
		},
		{
			name: "refresh TTL not above access TTL",
			modify: func(c *Config) {
				c.Secret = "this-is-a-32-character-secret!!!"
				c.RefreshTokenTTL = c.AccessTokenTTL
			},
			wantErr: ErrConfigInvalid,
		},
		{
			name: "bcrypt cost too low",
			modify: func(c *Config) {
				c.Secret = "this-is-a-32-character-secret!!!"
				c.BcryptCost = 3
			},
			wantErr: ErrConfigInvalid,
		},
		{
			name: "bcrypt cost too high",
			modify: func(c *Config) {
				c.Secret = "this-is-a-32-character-secret!!!"
				c.BcryptCost = 32
			},
			wantErr: ErrConfigInvalid,
		},
		{
			name: "negative cleanup interval",
			modify: func(c *Config) {
				c.Secret = "this-is-a-32-character-secret!!!"
				c.CleanupInterval = -time.Second
			},
			wantErr: ErrConfigInvalid,
		},
		{
			name: "cleanup disabled",
			modify: func(c *Config) {
				c.Secret = "this-is-a-32-character-secret!!!"
				c.CleanupInterval = 0
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.modify(cfg)
			err := cfg.Validate()

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_EffectiveBcryptCost(t *testing.T) {
	cfg := NewConfig()
	cfg.BcryptCost = 12

	if got := cfg.EffectiveBcryptCost(); got != 12 {
		t.Errorf("EffectiveBcryptCost() = %d, want 12", got)
	}

	cfg.TestMode = true
	if got := cfg.EffectiveBcryptCost(); got != password.TestCost {
		t.Errorf("EffectiveBcryptCost() in test mode = %d, want %d", got, password.TestCost)
	}
}

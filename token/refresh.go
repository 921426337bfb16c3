package token

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aloks98/authcore/internal/crypto"
	"github.com/aloks98/authcore/internal/hash"
	"github.com/aloks98/authcore/store"
)

// refreshSecretLen is the hex length of the random part of a refresh token.
const refreshSecretLen = crypto.RefreshTokenBytes * 2

// RefreshManager generates, persists and validates refresh tokens.
// Tokens are not revoked on use.
type RefreshManager struct {
	config *Config
	store  store.RefreshTokenStore
}

// NewRefreshManager creates a refresh token manager backed by s.
func NewRefreshManager(cfg *Config, s store.RefreshTokenStore) *RefreshManager {
	if cfg == nil {
		cfg = &Config{}
	}
	return &RefreshManager{config: cfg, store: s}
}

// Generate mints a refresh token for user and persists it.
func (m *RefreshManager) Generate(ctx context.Context, user *store.User) (*store.RefreshToken, error) {
	if user == nil || user.ID == "" {
		return nil, ErrMissingSubject
	}

	secret, err := crypto.GenerateRandomHex(crypto.RefreshTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	rt := &store.RefreshToken{
		Token:     user.ID + "." + secret,
		UserID:    user.ID,
		UserEmail: user.Email,
		ExpiresAt: m.config.now().Add(m.config.refreshTTL()),
	}

	if err := m.store.Insert(ctx, rt); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return rt, nil
}

// Validate accepts rt only when it belongs to email and expires strictly
// after now.
func (m *RefreshManager) Validate(rt *store.RefreshToken, email string) error {
	if rt == nil || !hash.ConstantTimeCompare(rt.UserEmail, email) || rt.IsExpiredAt(m.config.now()) {
		return ErrRefreshTokenInvalid
	}
	return nil
}

// OwnerID extracts the user id embedded in a refresh token value. It is a
// routing hint only; ownership is confirmed against the stored record.
func (m *RefreshManager) OwnerID(token string) (string, bool) {
	return ParseOwnerID(token)
}

// ParseOwnerID splits "{userID}.{hex}" and returns userID.
func ParseOwnerID(token string) (string, bool) {
	i := strings.LastIndexByte(token, '.')
	if i <= 0 {
		return "", false
	}
	secret := token[i+1:]
	if len(secret) != refreshSecretLen || strings.Trim(secret, "0123456789abcdef") != "" {
		return "", false
	}
	return token[:i], true
}

// Lookup loads the stored record for a refresh token value.
func (m *RefreshManager) Lookup(ctx context.Context, token string) (*store.RefreshToken, error) {
	if token == "" {
		return nil, ErrRefreshTokenNotFound
	}
	rt, err := m.store.Get(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrRefreshTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	return rt, nil
}

// Revoke deletes a refresh token. Missing tokens are ignored.
func (m *RefreshManager) Revoke(ctx context.Context, token string) error {
	if err := m.store.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

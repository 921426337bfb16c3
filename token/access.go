package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessIssuer mints and verifies signed access tokens. The token carries
// only the user id as subject plus issue and expiry times.
type AccessIssuer struct {
	config *Config
	method *jwt.SigningMethodHMAC
	secret []byte
}

// NewAccessIssuer creates an issuer. The secret is copied and cannot be
// changed afterwards.
func NewAccessIssuer(cfg *Config) (*AccessIssuer, error) {
	if cfg == nil || cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	method, err := signingMethod(cfg.SigningMethod)
	if err != nil {
		return nil, err
	}
	return &AccessIssuer{
		config: cfg,
		method: method,
		secret: []byte(cfg.Secret),
	}, nil
}

// TTL returns the lifetime of issued tokens.
func (a *AccessIssuer) TTL() time.Duration {
	return a.config.accessTTL()
}

// Issue signs a token for userID and returns it with its expiry.
func (a *AccessIssuer) Issue(userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, ErrMissingSubject
	}

	now := a.config.now()
	expiresAt := now.Add(a.config.accessTTL())

	claims := &jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(a.method, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	// NumericDate truncates to seconds.
	return signed, claims.ExpiresAt.Time, nil
}

// Verify checks the algorithm family, signature and expiry and returns the
// subject.
func (a *AccessIssuer) Verify(signed string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(signed, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalidSig
		}
		return a.secret, nil
	},
		jwt.WithLeeway(a.config.ClockSkew),
		jwt.WithTimeFunc(a.config.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", mapJWTError(err)
	}

	if !token.Valid || claims.Subject == "" {
		return "", ErrTokenMalformed
	}

	return claims.Subject, nil
}

// mapJWTError maps JWT library errors to our error types.
func mapJWTError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return ErrTokenNotYetValid
	case errors.Is(err, jwt.ErrTokenMalformed), errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrSignatureInvalid),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenInvalidSig
	}
	return ErrTokenMalformed
}

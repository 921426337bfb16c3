package token

import "errors"

// Token-related errors.
var (
	// ErrTokenExpired indicates the token has expired.
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenNotYetValid indicates the token is not yet valid (iat in future).
	ErrTokenNotYetValid = errors.New("token is not yet valid")

	// ErrTokenMalformed indicates the token format is invalid.
	ErrTokenMalformed = errors.New("token is malformed")

	// ErrTokenInvalidSig indicates the token signature is invalid.
	ErrTokenInvalidSig = errors.New("token signature is invalid")

	// ErrMissingSubject indicates a token was requested without a user id.
	ErrMissingSubject = errors.New("token subject is required")

	// ErrRefreshTokenInvalid indicates the refresh token does not belong to
	// the presented email or has expired.
	ErrRefreshTokenInvalid = errors.New("Invalid refresh token") //nolint:staticcheck // surfaced verbatim to clients

	// ErrRefreshTokenNotFound indicates no refresh token with that value exists.
	ErrRefreshTokenNotFound = errors.New("refresh token not found")

	// ErrUnsupportedSigningMethod indicates a non-HMAC signing method was configured.
	ErrUnsupportedSigningMethod = errors.New("unsupported signing method")

	// ErrMissingSecret indicates the signing secret is empty.
	ErrMissingSecret = errors.New("signing secret is required")
)

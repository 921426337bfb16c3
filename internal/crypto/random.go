// Package crypto provides cryptographic randomness helpers.
package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
)

// RefreshTokenBytes is the amount of entropy carried by a refresh token suffix.
const RefreshTokenBytes = 40

// GenerateRandomBytes returns n bytes read from crypto/rand.
func GenerateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// GenerateRandomHex returns byteLength random bytes hex encoded.
// The result is 2*byteLength characters long.
func GenerateRandomHex(byteLength int) (string, error) {
	b, err := GenerateRandomBytes(byteLength)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateURLToken returns byteLength random bytes encoded as unpadded base64url.
// Used for OAuth state values that travel through redirect URLs.
func GenerateURLToken(byteLength int) (string, error) {
	b, err := GenerateRandomBytes(byteLength)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Package password provides one-way salted password hashing and verification.
package password

// Hasher defines the interface for password hashing algorithms.
//
// Verify must report a non-matching password as (false, nil). An error is
// reserved for hashes that cannot be parsed or a failing backend.
type Hasher interface {
	// Hash creates a salted hash from a plaintext password.
	Hash(password string) (string, error)

	// Verify checks if a password matches a hash.
	Verify(password, hash string) (bool, error)

	// NeedsRehash reports whether hash was produced with different parameters
	// than the hasher is configured with.
	NeedsRehash(hash string) bool
}

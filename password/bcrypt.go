package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the production bcrypt cost factor.
	DefaultCost = 10

	// TestCost is the cheapest cost bcrypt accepts. Only test mode selects it.
	TestCost = bcrypt.MinCost

	// MaxCost is the most expensive cost bcrypt accepts.
	MaxCost = bcrypt.MaxCost
)

// BcryptConfig holds the configuration for bcrypt hashing.
type BcryptConfig struct {
	// Cost is the bcrypt cost factor (4-31).
	Cost int
}

// DefaultBcryptConfig returns the production bcrypt parameters.
func DefaultBcryptConfig() *BcryptConfig {
	return &BcryptConfig{Cost: DefaultCost}
}

// ConfigFor returns the bcrypt configuration for the given cost, switching to
// TestCost when testMode is set.
func ConfigFor(cost int, testMode bool) *BcryptConfig {
	if testMode {
		return &BcryptConfig{Cost: TestCost}
	}
	return &BcryptConfig{Cost: cost}
}

// BcryptHasher implements Hasher using bcrypt.
type BcryptHasher struct {
	config *BcryptConfig
}

// NewBcryptHasher creates a bcrypt hasher. A nil config uses DefaultBcryptConfig.
// The cost is clamped into bcrypt's valid range.
func NewBcryptHasher(config *BcryptConfig) *BcryptHasher {
	if config == nil {
		config = DefaultBcryptConfig()
	}
	cost := config.Cost
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{config: &BcryptConfig{Cost: cost}}
}

// Cost returns the effective cost factor.
func (h *BcryptHasher) Cost() int {
	return h.config.Cost
}

// Hash creates a bcrypt hash from a password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.config.Cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify checks if a password matches a bcrypt hash.
func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// NeedsRehash checks if a hash was created with a different cost.
func (h *BcryptHasher) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost != h.config.Cost
}

var _ Hasher = (*BcryptHasher)(nil)

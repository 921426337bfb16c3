package store

import (
	"time"
)

// Role is the authorization level of a user account.
type Role string

const (
	// RoleUser is assigned to every account unless stated otherwise.
	RoleUser Role = "user"

	// RoleAdmin grants access to user management.
	RoleAdmin Role = "admin"
)

// Roles lists every role a user can hold.
var Roles = []Role{RoleUser, RoleAdmin}

// Valid reports whether r is one of Roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// User is a persisted user account.
type User struct {
	// ID is assigned by the store on Create.
	ID string `db:"id" json:"id"`

	// Email is unique across all users. Comparison is case-sensitive.
	Email string `db:"email" json:"email"`

	// PasswordHash is the encoded output of a password.Hasher. Accounts
	// created through a third-party login carry the hash of a generated secret.
	PasswordHash string `db:"password_hash" json:"-"`

	Name    string `db:"name" json:"name,omitempty"`
	Picture string `db:"picture" json:"picture,omitempty"`
	Role    Role   `db:"role" json:"role"`

	// Services maps an identity provider name to the user's external id there.
	Services map[string]string `db:"services" json:"services,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// PublicUser is the projection of a User that is safe to hand to callers.
type PublicUser struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name,omitempty" yaml:"name,omitempty"`
	Email     string    `json:"email" yaml:"email"`
	Picture   string    `json:"picture,omitempty" yaml:"picture,omitempty"`
	Role      Role      `json:"role" yaml:"role"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

// Public returns the caller-safe fields of u. The password hash and
// provider links are never included.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Picture:   u.Picture,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Services != nil {
		c.Services = make(map[string]string, len(u.Services))
		for k, v := range u.Services {
			c.Services[k] = v
		}
	}
	return &c
}

// LinkService records the user's external id at provider.
func (u *User) LinkService(provider, externalID string) {
	if u.Services == nil {
		u.Services = make(map[string]string)
	}
	u.Services[provider] = externalID
}

// RefreshToken is a persisted refresh token. Records are never mutated
// after insert.
type RefreshToken struct {
	// Token is the opaque value handed to the client: "{userID}.{hex}".
	Token string `db:"token" json:"token"`

	// UserID is the owner of the token.
	UserID string `db:"user_id" json:"userId"`

	// UserEmail is the owner's email at issue time. Redemption requires
	// the caller to present the same email.
	UserEmail string `db:"user_email" json:"userEmail"`

	// ExpiresAt is when the token stops being accepted.
	ExpiresAt time.Time `db:"expires_at" json:"expires"`
}

// IsExpired returns true if the token has expired.
func (t *RefreshToken) IsExpired() bool {
	return t.IsExpiredAt(time.Now())
}

// IsExpiredAt reports whether the token is no longer valid at now.
// A token expiring exactly at now is expired.
func (t *RefreshToken) IsExpiredAt(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

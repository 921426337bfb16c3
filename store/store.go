// Package store defines the persistence interfaces used by authcore.
package store

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors returned by store implementations.
var (
	// ErrNotFound is returned when a record does not exist or the id is
	// malformed for the backend.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict is matched by every *ConflictError.
	ErrConflict = errors.New("store: unique constraint violated")

	// ErrInvalidPagination is returned by NewPage for non-positive values.
	ErrInvalidPagination = errors.New("store: invalid pagination")
)

// ConflictError reports a uniqueness violation on Field.
type ConflictError struct {
	Field string
	Err   error
}

func (e *ConflictError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("store: duplicate %s: %v", e.Field, e.Err)
	}
	return "store: duplicate " + e.Field
}

// Is makes errors.Is(err, ErrConflict) match.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// ListFilter restricts List to users whose non-nil fields match exactly.
type ListFilter struct {
	Name  *string
	Email *string
	Role  *string
}

// Pagination defaults.
const (
	DefaultPage    = 1
	DefaultPerPage = 30
	MaxPerPage     = 100
)

// Page is a validated page request.
type Page struct {
	Number  int
	PerPage int
}

// NewPage applies defaults for zero values and rejects negative numbers
// or a page size above MaxPerPage.
func NewPage(page, perPage int) (Page, error) {
	if page == 0 {
		page = DefaultPage
	}
	if perPage == 0 {
		perPage = DefaultPerPage
	}
	if page < 1 {
		return Page{}, fmt.Errorf("%w: page must be positive, got %d", ErrInvalidPagination, page)
	}
	if perPage < 1 || perPage > MaxPerPage {
		return Page{}, fmt.Errorf("%w: perPage must be between 1 and %d, got %d", ErrInvalidPagination, MaxPerPage, perPage)
	}
	return Page{Number: page, PerPage: perPage}, nil
}

// Offset is the number of records to skip.
func (p Page) Offset() int {
	return p.PerPage * (p.Number - 1)
}

// UserStore persists user accounts. All methods should be safe for
// concurrent use.
type UserStore interface {
	// GetByID returns ErrNotFound when the id is absent or malformed.
	GetByID(ctx context.Context, id string) (*User, error)

	// FindByEmail returns (nil, nil) when no user has the email.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByServiceOrEmail returns the first user linked to externalID at
	// provider or holding email. Returns (nil, nil) when neither matches.
	FindByServiceOrEmail(ctx context.Context, provider, externalID, email string) (*User, error)

	// Create assigns ID and CreatedAt when empty and persists the user.
	// A duplicate email yields a *ConflictError with Field "email".
	Create(ctx context.Context, user *User) error

	// Update persists the mutable fields of an existing user.
	Update(ctx context.Context, user *User) error

	// List returns one page of users ordered by CreatedAt descending,
	// ties broken by ID descending.
	List(ctx context.Context, filter ListFilter, page Page) ([]*User, error)
}

// RefreshTokenStore persists refresh tokens.
type RefreshTokenStore interface {
	Insert(ctx context.Context, token *RefreshToken) error

	// Get returns ErrNotFound when the token does not exist.
	Get(ctx context.Context, token string) (*RefreshToken, error)

	// Delete removes a token. Deleting a missing token is not an error.
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes expired tokens and returns how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)
}

// Lifecycle is implemented by stores that hold external resources.
type Lifecycle interface {
	Close() error
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
}

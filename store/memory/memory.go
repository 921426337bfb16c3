// Package memory provides an in-memory store implementation for testing.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/aloks98/authcore/store"
)

// Store is an in-memory implementation of store.UserStore and
// store.RefreshTokenStore. It is intended for testing and development purposes.
type Store struct {
	mu sync.RWMutex

	users         map[string]*store.User
	emails        map[string]string
	refreshTokens map[string]*store.RefreshToken

	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for CreatedAt and expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a new in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		users:         make(map[string]*store.User),
		emails:        make(map[string]string),
		refreshTokens: make(map[string]*store.RefreshToken),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close is a no-op for the memory store.
func (s *Store) Close() error {
	return nil
}

// Ping checks if the store is available.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(ctx context.Context) error {
	return nil
}

// GetByID retrieves a user by id.
func (s *Store) GetByID(ctx context.Context, id string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u.Clone(), nil
}

// FindByEmail retrieves a user by email.
func (s *Store) FindByEmail(ctx context.Context, email string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[email]
	if !ok {
		return nil, nil
	}
	return s.users[id].Clone(), nil
}

// FindByServiceOrEmail prefers a provider link over an email match.
func (s *Store) FindByServiceOrEmail(ctx context.Context, provider, externalID, email string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if externalID != "" {
		for _, u := range s.users {
			if u.Services[provider] == externalID {
				return u.Clone(), nil
			}
		}
	}
	if id, ok := s.emails[email]; ok {
		return s.users[id].Clone(), nil
	}
	return nil, nil
}

// Create saves a new user.
func (s *Store) Create(ctx context.Context, user *store.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.emails[user.Email]; taken {
		return &store.ConflictError{Field: "email"}
	}
	if _, taken := s.users[user.ID]; taken && user.ID != "" {
		return &store.ConflictError{Field: "id"}
	}
	if user.ID == "" {
		user.ID = ulid.Make().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}
	s.users[user.ID] = user.Clone()
	s.emails[user.Email] = user.ID
	return nil
}

// Update replaces a stored user.
func (s *Store) Update(ctx context.Context, user *store.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[user.ID]
	if !ok {
		return store.ErrNotFound
	}
	if owner, taken := s.emails[user.Email]; taken && owner != user.ID {
		return &store.ConflictError{Field: "email"}
	}
	delete(s.emails, existing.Email)
	updated := user.Clone()
	updated.CreatedAt = existing.CreatedAt
	s.users[user.ID] = updated
	s.emails[user.Email] = user.ID
	return nil
}

// List returns one page of users matching filter.
func (s *Store) List(ctx context.Context, filter store.ListFilter, page store.Page) ([]*store.User, error) {
	s.mu.RLock()
	matched := make([]*store.User, 0, len(s.users))
	for _, u := range s.users {
		if matches(u, filter) {
			matched = append(matched, u.Clone())
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b *store.User) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})

	offset := page.Offset()
	if offset >= len(matched) {
		return []*store.User{}, nil
	}
	end := min(offset+page.PerPage, len(matched))
	return matched[offset:end], nil
}

func matches(u *store.User, f store.ListFilter) bool {
	if f.Name != nil && u.Name != *f.Name {
		return false
	}
	if f.Email != nil && u.Email != *f.Email {
		return false
	}
	if f.Role != nil && string(u.Role) != *f.Role {
		return false
	}
	return true
}

// Insert saves a refresh token.
func (s *Store) Insert(ctx context.Context, token *store.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt := *token
	s.refreshTokens[token.Token] = &rt
	return nil
}

// Get retrieves a refresh token by its value.
func (s *Store) Get(ctx context.Context, token string) (*store.RefreshToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rt, ok := s.refreshTokens[token]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *rt
	return &c, nil
}

// Delete removes a refresh token.
func (s *Store) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.refreshTokens, token)
	return nil
}

// DeleteExpired removes expired tokens.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	now := s.now()
	for key, token := range s.refreshTokens {
		if token.IsExpiredAt(now) {
			delete(s.refreshTokens, key)
			count++
		}
	}
	return count, nil
}

// Verify Store implements the store interfaces
var (
	_ store.UserStore         = (*Store)(nil)
	_ store.RefreshTokenStore = (*Store)(nil)
	_ store.Lifecycle         = (*Store)(nil)
)

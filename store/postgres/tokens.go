package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/aloks98/authcore/store"
)

// Insert saves a refresh token. Reinserting a token value overwrites it.
func (s *Store) Insert(ctx context.Context, token *store.RefreshToken) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (token, user_id, user_email, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (token) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			user_email = EXCLUDED.user_email,
			expires_at = EXCLUDED.expires_at
	`, token.Token, token.UserID, token.UserEmail, token.ExpiresAt)
	if err != nil {
		return oops.With("operation", "insert refresh token").With("user_id", token.UserID).Wrap(err)
	}
	return nil
}

// Get retrieves a refresh token by its value.
func (s *Store) Get(ctx context.Context, token string) (*store.RefreshToken, error) {
	var rt store.RefreshToken
	err := s.pool.QueryRow(ctx, `
		SELECT token, user_id, user_email, expires_at
		FROM refresh_tokens WHERE token = $1
	`, token).Scan(&rt.Token, &rt.UserID, &rt.UserEmail, &rt.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, oops.With("operation", "get refresh token").Wrap(err)
	}
	return &rt, nil
}

// Delete removes a refresh token.
func (s *Store) Delete(ctx context.Context, token string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token); err != nil {
		return oops.With("operation", "delete refresh token").Wrap(err)
	}
	return nil
}

// DeleteExpired removes every token whose expiry is not after now.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, s.now())
	if err != nil {
		return 0, oops.With("operation", "delete expired refresh tokens").Wrap(err)
	}
	return tag.RowsAffected(), nil
}

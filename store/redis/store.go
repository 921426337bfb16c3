// Package redis provides a Redis refresh token store for authcore.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/aloks98/authcore/internal/hash"
	"github.com/aloks98/authcore/store"
)

// Default key prefix.
const DefaultPrefix = "authcore:"

// Store implements store.RefreshTokenStore using Redis. Each token is a
// JSON value whose TTL is the time left until expiry. Keys are derived
// from the SHA256 of the token so raw values never appear in key names.
type Store struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// Config holds Redis store configuration.
type Config struct {
	// Client is an existing Redis client.
	// If provided, other options are ignored.
	Client redis.UniversalClient

	// Addr is the Redis server address (host:port).
	Addr string

	// Password is the Redis password.
	Password string

	// DB is the Redis database number.
	DB int

	// PoolSize is the maximum number of connections.
	PoolSize int

	// Prefix namespaces every key. Defaults to DefaultPrefix.
	Prefix string

	// Now overrides the clock used for TTLs and DeleteExpired.
	Now func() time.Time
}

type tokenRecord struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	UserEmail string    `json:"userEmail"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// New creates a new Redis store.
func New(cfg *Config) (*Store, error) {
	var client redis.UniversalClient

	if cfg.Client != nil {
		client = cfg.Client
	} else {
		if cfg.Addr == "" {
			return nil, oops.Errorf("redis address is required")
		}
		opts := &redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
		if cfg.PoolSize > 0 {
			opts.PoolSize = cfg.PoolSize
		}
		client = redis.NewClient(opts)
	}

	s := &Store{client: client, prefix: cfg.Prefix, now: cfg.Now}
	if s.prefix == "" {
		s.prefix = DefaultPrefix
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping verifies the Redis connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Migrate is a no-op: Redis has no schema.
func (s *Store) Migrate(ctx context.Context) error {
	return nil
}

func (s *Store) tokenKey(token string) string {
	return s.prefix + "refresh_token:" + hash.SHA256(token)
}

func (s *Store) userKey(userID string) string {
	return s.prefix + "user_tokens:" + userID
}

func (s *Store) expiryKey() string {
	return s.prefix + "refresh_expiry"
}

// Insert persists a refresh token. Tokens already expired are not stored.
func (s *Store) Insert(ctx context.Context, token *store.RefreshToken) error {
	ttl := token.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(tokenRecord{
		Token:     token.Token,
		UserID:    token.UserID,
		UserEmail: token.UserEmail,
		ExpiresAt: token.ExpiresAt,
	})
	if err != nil {
		return oops.With("operation", "encode refresh token").Wrap(err)
	}

	key := s.tokenKey(token.Token)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, data, ttl)
	pipe.SAdd(ctx, s.userKey(token.UserID), key)
	// The newest token outlives the others, so its TTL bounds the index.
	pipe.Expire(ctx, s.userKey(token.UserID), ttl)
	pipe.ZAdd(ctx, s.expiryKey(), redis.Z{Score: float64(token.ExpiresAt.UnixMilli()), Member: key})

	if _, err := pipe.Exec(ctx); err != nil {
		return oops.With("operation", "insert refresh token").With("user_id", token.UserID).Wrap(err)
	}
	return nil
}

// Get retrieves a refresh token by its value.
func (s *Store) Get(ctx context.Context, token string) (*store.RefreshToken, error) {
	data, err := s.client.Get(ctx, s.tokenKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, oops.With("operation", "get refresh token").Wrap(err)
	}

	var rec tokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, oops.With("operation", "decode refresh token").Wrap(err)
	}
	return &store.RefreshToken{
		Token:     rec.Token,
		UserID:    rec.UserID,
		UserEmail: rec.UserEmail,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

// Delete removes a refresh token.
func (s *Store) Delete(ctx context.Context, token string) error {
	rt, err := s.Get(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	key := s.tokenKey(token)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, s.userKey(rt.UserID), key)
	pipe.ZRem(ctx, s.expiryKey(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return oops.With("operation", "delete refresh token").Wrap(err)
	}
	return nil
}

// DeleteByUser removes every refresh token issued to userID and returns
// how many were removed.
func (s *Store) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	keys, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return 0, oops.With("operation", "list user refresh tokens").With("user_id", userID).Wrap(err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	members := make([]any, len(keys))
	for i, k := range keys {
		members[i] = k
	}

	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, keys...)
	pipe.Del(ctx, s.userKey(userID))
	pipe.ZRem(ctx, s.expiryKey(), members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, oops.With("operation", "delete user refresh tokens").With("user_id", userID).Wrap(err)
	}
	return del.Val(), nil
}

// DeleteExpired drops index entries whose expiry is not after now and
// deletes any value still present. Redis expires the values themselves,
// so the count is of index entries removed.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	maxScore := strconv.FormatInt(s.now().UnixMilli(), 10)

	keys, err := s.client.ZRangeByScore(ctx, s.expiryKey(), &redis.ZRangeBy{Min: "-inf", Max: maxScore}).Result()
	if err != nil {
		return 0, oops.With("operation", "scan expired refresh tokens").Wrap(err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, keys...)
	removed := pipe.ZRemRangeByScore(ctx, s.expiryKey(), "-inf", maxScore)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, oops.With("operation", "delete expired refresh tokens").Wrap(err)
	}
	return removed.Val(), nil
}

var (
	_ store.RefreshTokenStore = (*Store)(nil)
	_ store.Lifecycle         = (*Store)(nil)
)

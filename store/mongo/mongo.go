// Package mongo implements the authcore stores on MongoDB.
package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/aloks98/authcore/store"
)

// Collection names.
const (
	UsersCollection         = "users"
	RefreshTokensCollection = "refresh_tokens"
)

// Config holds connection settings.
type Config struct {
	// URI is a mongodb:// or mongodb+srv:// connection string.
	URI string

	// Database defaults to "authcore".
	Database string

	// Timeout bounds server selection and connection. Zero keeps the
	// driver default.
	Timeout time.Duration
}

// Store implements store.UserStore and store.RefreshTokenStore.
type Store struct {
	client *mongo.Client
	users  *mongo.Collection
	tokens *mongo.Collection
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for CreatedAt and expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New connects to MongoDB. The client is not verified until Ping.
// Migrate must run before the store is used: the unique email index it
// creates is the only guard against duplicate accounts.
func New(cfg *Config, opts ...Option) (*Store, error) {
	clientOpts := options.Client().ApplyURI(cfg.URI)
	if cfg.Timeout > 0 {
		clientOpts.SetConnectTimeout(cfg.Timeout).SetServerSelectionTimeout(cfg.Timeout)
	}

	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return nil, oops.With("operation", "connect").Wrap(err)
	}

	name := cfg.Database
	if name == "" {
		name = "authcore"
	}
	db := client.Database(name)

	s := &Store{
		client: client,
		users:  db.Collection(UsersCollection),
		tokens: db.Collection(RefreshTokensCollection),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		return oops.With("operation", "disconnect").Wrap(err)
	}
	return nil
}

// Ping verifies the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return oops.With("operation", "ping").Wrap(err)
	}
	return nil
}

// Migrate creates the indexes the store relies on.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
	})
	if err != nil {
		return oops.With("operation", "create user indexes").Wrap(err)
	}

	_, err = s.tokens.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "expiresAt", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}}},
	})
	if err != nil {
		return oops.With("operation", "create refresh token indexes").Wrap(err)
	}
	return nil
}

func notFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

var (
	_ store.UserStore         = (*Store)(nil)
	_ store.RefreshTokenStore = (*Store)(nil)
	_ store.Lifecycle         = (*Store)(nil)
)

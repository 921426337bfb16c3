package mongo

import (
	"context"
	"time"

	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/aloks98/authcore/store"
)

type refreshTokenDoc struct {
	Token     string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	UserEmail string    `bson:"userEmail"`
	ExpiresAt time.Time `bson:"expiresAt"`
}

// Insert saves a refresh token. Reinserting a token value overwrites it.
func (s *Store) Insert(ctx context.Context, token *store.RefreshToken) error {
	doc := &refreshTokenDoc{
		Token:     token.Token,
		UserID:    token.UserID,
		UserEmail: token.UserEmail,
		ExpiresAt: token.ExpiresAt,
	}
	_, err := s.tokens.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: token.Token}},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return oops.With("operation", "insert refresh token").With("user_id", token.UserID).Wrap(err)
	}
	return nil
}

// Get retrieves a refresh token by its value.
func (s *Store) Get(ctx context.Context, token string) (*store.RefreshToken, error) {
	var doc refreshTokenDoc
	err := s.tokens.FindOne(ctx, bson.D{{Key: "_id", Value: token}}).Decode(&doc)
	if notFound(err) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, oops.With("operation", "get refresh token").Wrap(err)
	}
	return &store.RefreshToken{
		Token:     doc.Token,
		UserID:    doc.UserID,
		UserEmail: doc.UserEmail,
		ExpiresAt: doc.ExpiresAt,
	}, nil
}

// Delete removes a refresh token.
func (s *Store) Delete(ctx context.Context, token string) error {
	if _, err := s.tokens.DeleteOne(ctx, bson.D{{Key: "_id", Value: token}}); err != nil {
		return oops.With("operation", "delete refresh token").Wrap(err)
	}
	return nil
}

// DeleteExpired removes every token whose expiry is not after now.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.tokens.DeleteMany(ctx, bson.D{
		{Key: "expiresAt", Value: bson.D{{Key: "$lte", Value: s.now()}}},
	})
	if err != nil {
		return 0, oops.With("operation", "delete expired refresh tokens").Wrap(err)
	}
	return res.DeletedCount, nil
}

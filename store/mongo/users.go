package mongo

import (
	"context"
	"strings"
	"time"

	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/aloks98/authcore/store"
)

type userDoc struct {
	ID           bson.ObjectID     `bson:"_id"`
	Email        string            `bson:"email"`
	PasswordHash string            `bson:"passwordHash"`
	Name         string            `bson:"name"`
	Picture      string            `bson:"picture"`
	Role         string            `bson:"role"`
	Services     map[string]string `bson:"services,omitempty"`
	CreatedAt    time.Time         `bson:"createdAt"`
}

func (d *userDoc) user() *store.User {
	return &store.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Name:         d.Name,
		Picture:      d.Picture,
		Role:         store.Role(d.Role),
		Services:     d.Services,
		CreatedAt:    d.CreatedAt,
	}
}

// mutableFields is the $set document for Update.
func mutableFields(u *store.User) bson.D {
	return bson.D{
		{Key: "email", Value: u.Email},
		{Key: "passwordHash", Value: u.PasswordHash},
		{Key: "name", Value: u.Name},
		{Key: "picture", Value: u.Picture},
		{Key: "role", Value: string(u.Role)},
		{Key: "services", Value: u.Services},
	}
}

func listFilter(f store.ListFilter) bson.D {
	filter := bson.D{}
	if f.Name != nil {
		filter = append(filter, bson.E{Key: "name", Value: *f.Name})
	}
	if f.Email != nil {
		filter = append(filter, bson.E{Key: "email", Value: *f.Email})
	}
	if f.Role != nil {
		filter = append(filter, bson.E{Key: "role", Value: *f.Role})
	}
	return filter
}

func (s *Store) findOne(ctx context.Context, filter any) (*store.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, err
	}
	return doc.user(), nil
}

// GetByID retrieves a user by its hex ObjectID.
func (s *Store) GetByID(ctx context.Context, id string) (*store.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, oops.With("id", id).Wrap(store.ErrNotFound)
	}

	u, err := s.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if notFound(err) {
		return nil, oops.With("id", id).Wrap(store.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get user").With("id", id).Wrap(err)
	}
	return u, nil
}

// FindByEmail retrieves a user by email.
func (s *Store) FindByEmail(ctx context.Context, email string) (*store.User, error) {
	u, err := s.findOne(ctx, bson.D{{Key: "email", Value: email}})
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.With("operation", "find user by email").Wrap(err)
	}
	return u, nil
}

// FindByServiceOrEmail prefers a provider link over an email match.
func (s *Store) FindByServiceOrEmail(ctx context.Context, provider, externalID, email string) (*store.User, error) {
	u, err := s.findOne(ctx, bson.D{{Key: "services." + provider, Value: externalID}})
	if err == nil {
		return u, nil
	}
	if !notFound(err) {
		return nil, oops.With("operation", "find user by service").With("provider", provider).Wrap(err)
	}
	return s.FindByEmail(ctx, email)
}

// Create inserts a user. An empty ID gets a fresh ObjectID.
func (s *Store) Create(ctx context.Context, user *store.User) error {
	oid := bson.NewObjectID()
	if user.ID != "" {
		parsed, err := bson.ObjectIDFromHex(user.ID)
		if err != nil {
			return oops.With("operation", "create user").With("id", user.ID).Errorf("id is not an ObjectID")
		}
		oid = parsed
	}
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	doc := &userDoc{
		ID:           oid,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Name:         user.Name,
		Picture:      user.Picture,
		Role:         string(user.Role),
		Services:     user.Services,
		CreatedAt:    createdAt,
	}

	_, err := s.users.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return duplicateKey(err)
	}
	if err != nil {
		return oops.With("operation", "create user").Wrap(err)
	}

	user.ID = oid.Hex()
	user.CreatedAt = createdAt
	return nil
}

// Update writes every mutable field. CreatedAt is never changed.
func (s *Store) Update(ctx context.Context, user *store.User) error {
	oid, err := bson.ObjectIDFromHex(user.ID)
	if err != nil {
		return oops.With("id", user.ID).Wrap(store.ErrNotFound)
	}

	res, err := s.users.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: mutableFields(user)}},
	)
	if mongo.IsDuplicateKeyError(err) {
		return duplicateKey(err)
	}
	if err != nil {
		return oops.With("operation", "update user").With("id", user.ID).Wrap(err)
	}
	if res.MatchedCount == 0 {
		return oops.With("id", user.ID).Wrap(store.ErrNotFound)
	}
	return nil
}

// List returns one page of users matching filter, newest first.
func (s *Store) List(ctx context.Context, filter store.ListFilter, page store.Page) ([]*store.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.PerPage))

	cur, err := s.users.Find(ctx, listFilter(filter), opts)
	if err != nil {
		return nil, oops.With("operation", "list users").Wrap(err)
	}
	defer cur.Close(ctx)

	users := []*store.User{}
	for cur.Next(ctx) {
		var doc userDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, oops.With("operation", "decode user").Wrap(err)
		}
		users = append(users, doc.user())
	}
	if err := cur.Err(); err != nil {
		return nil, oops.With("operation", "iterate users").Wrap(err)
	}
	return users, nil
}

// duplicateKey names the field behind a duplicate key error. The server
// reports the violated index in the message, "_id_" for the primary key.
func duplicateKey(err error) *store.ConflictError {
	if strings.Contains(err.Error(), "index: _id_ ") {
		return &store.ConflictError{Field: "id", Err: err}
	}
	return &store.ConflictError{Field: "email", Err: err}
}

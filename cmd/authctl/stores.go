package main

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/aloks98/authcore"
	"github.com/aloks98/authcore/store"
	"github.com/aloks98/authcore/store/memory"
	"github.com/aloks98/authcore/store/mongo"
	"github.com/aloks98/authcore/store/postgres"
	"github.com/aloks98/authcore/store/redis"
)

// backends holds the opened stores. users and tokens may be one value.
type backends struct {
	users  store.UserStore
	tokens store.RefreshTokenStore
	opened []store.Lifecycle
}

// Close releases every opened store.
func (b *backends) Close() error {
	var errs []error
	for _, l := range b.opened {
		errs = append(errs, l.Close())
	}
	return errors.Join(errs...)
}

type userTokenStore interface {
	store.UserStore
	store.RefreshTokenStore
	store.Lifecycle
}

func (a *app) openBackend(ctx context.Context, kind string) (userTokenStore, error) {
	switch kind {
	case StoreMemory:
		return memory.New(), nil
	case StorePostgres:
		if a.cfg.PostgresDSN == "" {
			return nil, oops.Code("CONFIG_INVALID").Errorf("postgres_dsn is required for the postgres store")
		}
		s, err := postgres.New(ctx, &postgres.Config{DSN: a.cfg.PostgresDSN})
		if err != nil {
			return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "connect to postgres").Wrap(err)
		}
		return s, nil
	case StoreMongo:
		if a.cfg.MongoURI == "" {
			return nil, oops.Code("CONFIG_INVALID").Errorf("mongo_uri is required for the mongo store")
		}
		s, err := mongo.New(&mongo.Config{URI: a.cfg.MongoURI, Database: a.cfg.MongoDatabase})
		if err != nil {
			return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "connect to mongo").Wrap(err)
		}
		// Index creation is idempotent and carries the email uniqueness.
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, oops.Code("MIGRATION_FAILED").With("operation", "create mongo indexes").Wrap(err)
		}
		return s, nil
	default:
		return nil, oops.Code("CONFIG_INVALID").With("store", kind).Errorf("unknown store %q", kind)
	}
}

// openStores opens the configured user store and refresh token store.
func (a *app) openStores(ctx context.Context) (*backends, error) {
	primary, err := a.openBackend(ctx, a.cfg.Store)
	if err != nil {
		return nil, err
	}
	b := &backends{users: primary, tokens: primary, opened: []store.Lifecycle{primary}}

	switch a.cfg.TokenStore {
	case a.cfg.Store:
	case StoreRedis:
		if a.cfg.RedisAddr == "" {
			_ = b.Close()
			return nil, oops.Code("CONFIG_INVALID").Errorf("redis_addr is required for the redis token store")
		}
		rs, err := redis.New(&redis.Config{Addr: a.cfg.RedisAddr})
		if err != nil {
			_ = b.Close()
			return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "connect to redis").Wrap(err)
		}
		b.tokens = rs
		b.opened = append(b.opened, rs)
	default:
		tokens, err := a.openBackend(ctx, a.cfg.TokenStore)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.tokens = tokens
		b.opened = append(b.opened, tokens)
	}

	return b, nil
}

// service opens the stores and builds a Service over them. The caller
// closes the returned backends.
func (a *app) service(ctx context.Context) (*authcore.Service, *backends, error) {
	b, err := a.openStores(ctx)
	if err != nil {
		return nil, nil, err
	}

	cfg := a.cfg.Config
	svc, err := authcore.New(b.users, b.tokens,
		authcore.WithConfig(&cfg),
		authcore.WithLogger(a.logger),
	)
	if err != nil {
		_ = b.Close()
		return nil, nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return svc, b, nil
}

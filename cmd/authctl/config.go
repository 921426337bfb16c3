package main

import (
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/aloks98/authcore"
)

// EnvPrefix namespaces every environment variable.
const EnvPrefix = "AUTHCORE_"

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
	StoreRedis    = "redis"
)

type cliConfig struct {
	authcore.Config `koanf:",squash"`

	// Env set to "test" enables the cheap password hashing cost.
	Env string `koanf:"env" env:"ENV"`

	// Store is the user store backend.
	Store string `koanf:"store" env:"STORE"`

	// TokenStore is the refresh token backend. Empty means Store.
	TokenStore string `koanf:"token_store" env:"TOKEN_STORE"`

	PostgresDSN   string `koanf:"postgres_dsn" env:"POSTGRES_DSN"`
	MongoURI      string `koanf:"mongo_uri" env:"MONGO_URI"`
	MongoDatabase string `koanf:"mongo_database" env:"MONGO_DATABASE"`
	RedisAddr     string `koanf:"redis_addr" env:"REDIS_ADDR"`

	LogLevel  string `koanf:"log_level" env:"LOG_LEVEL"`
	LogFormat string `koanf:"log_format" env:"LOG_FORMAT"`
}

func defaultConfig() *cliConfig {
	return &cliConfig{
		Config:    *authcore.NewConfig(),
		Store:     StoreMemory,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// loadConfig layers, lowest first: defaults, the YAML file at path, the
// AUTHCORE_ environment and flags the user set explicitly.
func loadConfig(path string, flags *pflag.FlagSet, environ map[string]string) (*cliConfig, error) {
	cfg := defaultConfig()

	if path != "" {
		k := koanf.New(".")
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
		}
		if err := k.Unmarshal("", cfg); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix, Environment: environ}); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "parse environment").Wrap(err)
	}

	if flags != nil {
		k := koanf.New(".")
		changed := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		})
		if err := k.Load(changed, nil); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("operation", "load flags").Wrap(err)
		}
		if err := k.Unmarshal("", cfg); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("operation", "load flags").Wrap(err)
		}
	}

	if strings.EqualFold(cfg.Env, "test") {
		cfg.TestMode = true
	}
	if cfg.TokenStore == "" {
		cfg.TokenStore = cfg.Store
	}
	return cfg, nil
}

// bindFlags registers the flags loadConfig understands.
func bindFlags(fs *pflag.FlagSet) {
	d := defaultConfig()

	fs.String("config", "", "YAML config file path")
	fs.String("store", d.Store, "user store: memory, postgres or mongo")
	fs.String("token-store", "", "refresh token store: memory, postgres, mongo or redis (defaults to --store)")
	fs.String("postgres-dsn", "", "PostgreSQL connection string")
	fs.String("mongo-uri", "", "MongoDB connection URI")
	fs.String("mongo-database", "", "MongoDB database name")
	fs.String("redis-addr", "", "Redis host:port for the redis token store")
	fs.String("secret", "", "HMAC signing secret (at least 32 characters)")
	fs.String("signing-method", string(d.SigningMethod), "HS256, HS384 or HS512")
	fs.Duration("access-token-ttl", d.AccessTokenTTL, "access token lifetime")
	fs.Duration("refresh-token-ttl", d.RefreshTokenTTL, "refresh token lifetime")
	fs.Int("bcrypt-cost", d.BcryptCost, "bcrypt work factor")
	fs.Bool("test-mode", false, "use the minimum bcrypt cost")
	fs.String("log-level", d.LogLevel, "debug, info, warn or error")
	fs.String("log-format", d.LogFormat, "text or json")
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aloks98/authcore"
	"github.com/aloks98/authcore/password"
	"github.com/aloks98/authcore/store"
)

const testSecret = "test-secret-key-that-is-32-chars!"

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	if a == nil {
		a = &app{}
	}
	if a.stdin == nil {
		a.stdin = strings.NewReader("")
	}

	cmd := newRootCmd(a)
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	out, err := run(t, nil, "--help")
	require.NoError(t, err)

	for _, sub := range []string{"hash", "token", "users", "gc", "migrate"} {
		assert.Contains(t, out, sub, "Help missing %q command", sub)
	}
}

func TestRootCommand_VersionFlag(t *testing.T) {
	cmd := NewRootCmd()
	cmd.Version = "test-version"
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "test-version")
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig("", nil, map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, StoreMemory, cfg.TokenStore)
	assert.Equal(t, authcore.SigningMethodHS256, cfg.SigningMethod)
	assert.Equal(t, authcore.DefaultAccessTokenTTL, cfg.AccessTokenTTL)
	assert.Equal(t, password.DefaultCost, cfg.BcryptCost)
	assert.False(t, cfg.TestMode)
}

func TestLoadConfig_Layering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authctl.yaml")
	yml := `secret: from-file-secret-that-is-long-enough
signing_method: HS512
access_token_ttl: 5m
bcrypt_cost: 11
store: postgres
postgres_dsn: postgres://file
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	environ := map[string]string{
		"AUTHCORE_ACCESS_TOKEN_TTL": "10m",
		"AUTHCORE_POSTGRES_DSN":     "postgres://env",
		"AUTHCORE_TOKEN_STORE":      "redis",
	}

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	bindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--config", path, "--bcrypt-cost", "12"}))

	cfg, err := loadConfig(path, fs, environ)
	require.NoError(t, err)

	assert.Equal(t, "from-file-secret-that-is-long-enough", cfg.Secret)
	assert.Equal(t, authcore.SigningMethodHS512, cfg.SigningMethod, "unchanged flag defaults must not override the file")
	assert.Equal(t, 10*time.Minute, cfg.AccessTokenTTL, "environment overrides the file")
	assert.Equal(t, "postgres://env", cfg.PostgresDSN)
	assert.Equal(t, 12, cfg.BcryptCost, "flags override everything")
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, StoreRedis, cfg.TokenStore)
}

func TestLoadConfig_TestEnvironment(t *testing.T) {
	cfg, err := loadConfig("", nil, map[string]string{"AUTHCORE_ENV": "test"})
	require.NoError(t, err)
	assert.True(t, cfg.TestMode)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil, map[string]string{})
	assert.Error(t, err)
}

func TestHashCommand(t *testing.T) {
	out, err := run(t, nil, "--test-mode", "hash", "--password", "correct horse")
	require.NoError(t, err)

	encoded := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(encoded, "$2a$04$"), "got %q", encoded)

	ok, err := password.NewBcryptHasher(nil).Verify("correct horse", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	out, err = run(t, nil, "--test-mode", "hash", "--password", "correct horse", "--check", encoded)
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)

	_, err = run(t, nil, "--test-mode", "hash", "--password", "wrong", "--check", encoded)
	assert.Error(t, err)
}

func TestHashCommand_Stdin(t *testing.T) {
	a := &app{stdin: strings.NewReader("from stdin\n")}
	out, err := run(t, a, "--test-mode", "hash", "--algorithm", "argon2")
	require.NoError(t, err)

	encoded := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$"), "got %q", encoded)

	ok, err := password.NewArgon2Hasher(nil).Verify("from stdin", encoded)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHashCommand_UnknownAlgorithm(t *testing.T) {
	_, err := run(t, nil, "hash", "--password", "x", "--algorithm", "md5")
	assert.ErrorContains(t, err, "unknown algorithm")
}

func TestTokenCommand_RoundTrip(t *testing.T) {
	out, err := run(t, nil, "--secret", testSecret, "token", "issue", "--sub", "user-1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "expires "))

	out, err = run(t, nil, "--secret", testSecret, "token", "verify", lines[0])
	require.NoError(t, err)
	assert.Equal(t, "user-1\n", out)

	_, err = run(t, nil, "--secret", strings.Repeat("x", 32), "token", "verify", lines[0])
	assert.Error(t, err, "a different secret must reject the token")
}

func TestTokenCommand_RequiresSecret(t *testing.T) {
	_, err := run(t, nil, "token", "issue", "--sub", "user-1")
	assert.ErrorIs(t, err, authcore.ErrConfigInvalid)
}

func TestUsersCommand_MemoryStore(t *testing.T) {
	out, err := run(t, nil, "--secret", testSecret, "--test-mode",
		"users", "create", "--email", "ada@example.com", "--password", "password123", "--name", "Ada", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "email: ada@example.com")
	assert.Contains(t, out, "name: Ada")
	assert.NotContains(t, out, "password")

	// Each invocation opens a fresh memory store.
	out, err = run(t, nil, "--secret", testSecret, "users", "list")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestUsersListCommand_DefaultPageSize(t *testing.T) {
	cmd := newUsersListCmd(&app{})
	f := cmd.Flags().Lookup("per-page")
	require.NotNil(t, f)
	assert.Equal(t, strconv.Itoa(store.DefaultPerPage), f.DefValue)
	assert.Equal(t, "30", f.DefValue)
}

func TestUsersCommand_Errors(t *testing.T) {
	_, err := run(t, nil, "--secret", testSecret, "--test-mode",
		"users", "create", "--email", "ada@example.com", "--password", "abc")
	assert.True(t, authcore.IsKind(err, authcore.KindBadRequest), "got %v", err)

	_, err = run(t, nil, "--secret", testSecret, "users", "list", "--page", "-1")
	assert.Error(t, err)

	_, err = run(t, nil, "--secret", testSecret, "users", "list", "-o", "xml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestGCCommand(t *testing.T) {
	out, err := run(t, nil, "gc")
	require.NoError(t, err)
	assert.Equal(t, "deleted 0 expired refresh tokens\n", out)
}

func TestMigrateCommand(t *testing.T) {
	out, err := run(t, nil, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrations applied successfully")
}

func TestStores_Validation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown store", []string{"--store", "sqlite", "gc"}, "unknown store"},
		{"postgres without dsn", []string{"--store", "postgres", "gc"}, "postgres_dsn is required"},
		{"mongo without uri", []string{"--store", "mongo", "gc"}, "mongo_uri is required"},
		{"redis without addr", []string{"--token-store", "redis", "gc"}, "redis_addr is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, nil, tt.args...)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

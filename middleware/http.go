package middleware

import (
	"context"
	"net/http"
	"slices"

	"github.com/aloks98/authcore/store"
)

// Authenticator resolves a bearer token to its user. *authcore.Service
// implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*store.User, error)
}

// Authenticate creates a middleware that rejects requests without a valid
// access token and stores the token's user in the request context.
func Authenticate(auth Authenticator, cfg *Config) func(http.Handler) http.Handler {
	cfg = cfg.withDefaults()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ShouldSkip(r, cfg.SkipPaths) {
				next.ServeHTTP(w, r)
				return
			}

			token := cfg.TokenExtractor(r)
			if token == "" {
				cfg.ErrorHandler(w, r, ErrMissingToken)
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				cfg.ErrorHandler(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(SetUser(r.Context(), user)))
		})
	}
}

// OptionalAuthenticate stores the user when a valid token is present and
// lets every request through.
func OptionalAuthenticate(auth Authenticator, cfg *Config) func(http.Handler) http.Handler {
	cfg = cfg.withDefaults()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := cfg.TokenExtractor(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(SetUser(r.Context(), user)))
		})
	}
}

// RequireRole allows only authenticated users holding one of roles. It
// must run after Authenticate.
func RequireRole(cfg *Config, roles ...store.Role) func(http.Handler) http.Handler {
	cfg = cfg.withDefaults()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r.Context())
			if user == nil {
				cfg.ErrorHandler(w, r, ErrMissingToken)
				return
			}
			if !slices.Contains(roles, user.Role) {
				cfg.ErrorHandler(w, r, ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

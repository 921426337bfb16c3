// Package chi adapts the authcore middleware to Chi routers. Chi uses
// standard net/http middleware, so this package provides aliases and
// router helpers.
package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aloks98/authcore/middleware"
	"github.com/aloks98/authcore/store"
)

// Config is an alias for middleware.Config.
type Config = middleware.Config

// Authenticator is an alias for middleware.Authenticator.
type Authenticator = middleware.Authenticator

// DefaultConfig returns a default middleware configuration.
func DefaultConfig() *Config {
	return middleware.DefaultConfig()
}

// Authenticate creates a Chi middleware that requires a valid access token.
func Authenticate(auth Authenticator, cfg *Config) func(http.Handler) http.Handler {
	return middleware.Authenticate(auth, cfg)
}

// OptionalAuthenticate creates a Chi middleware that loads the user when a
// valid token is present.
func OptionalAuthenticate(auth Authenticator, cfg *Config) func(http.Handler) http.Handler {
	return middleware.OptionalAuthenticate(auth, cfg)
}

// RequireRole creates a Chi middleware that admits only the given roles.
func RequireRole(cfg *Config, roles ...store.Role) func(http.Handler) http.Handler {
	return middleware.RequireRole(cfg, roles...)
}

// Protected returns a sub-router whose routes require a valid token.
func Protected(r chi.Router, auth Authenticator, cfg *Config) chi.Router {
	return r.With(Authenticate(auth, cfg))
}

// Admin returns a sub-router whose routes require an admin token.
func Admin(r chi.Router, auth Authenticator, cfg *Config) chi.Router {
	return r.With(Authenticate(auth, cfg), RequireRole(cfg, store.RoleAdmin))
}

// User retrieves the authenticated user from the request context.
func User(r *http.Request) *store.User {
	return middleware.GetUser(r.Context())
}

// UserID retrieves the authenticated user id from the request context.
func UserID(r *http.Request) string {
	return middleware.GetUserID(r.Context())
}

// URLParam returns a URL parameter from Chi's route context.
func URLParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

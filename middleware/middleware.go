// Package middleware provides net/http middleware that authenticates
// bearer access tokens issued by authcore.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aloks98/authcore"
	"github.com/aloks98/authcore/store"
)

// contextKey is a type for context keys to avoid collisions.
type contextKey string

// UserKey is the context key for the authenticated *store.User.
const UserKey contextKey = "authcore_user"

// Errors reported to the ErrorHandler.
var (
	ErrMissingToken = authcore.Unauthorized("Missing authentication token", nil)
	ErrForbidden    = errors.New("forbidden")
)

// TokenExtractor extracts a token from an HTTP request.
type TokenExtractor func(r *http.Request) string

// ErrorHandler handles authentication errors.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Config holds middleware configuration.
type Config struct {
	// TokenExtractor extracts the token from the request.
	// Defaults to extracting from Authorization header.
	TokenExtractor TokenExtractor

	// ErrorHandler handles authentication errors.
	// Defaults to DefaultErrorHandler.
	ErrorHandler ErrorHandler

	// SkipPaths are paths that skip authentication.
	SkipPaths []string
}

// DefaultConfig returns a default middleware configuration.
func DefaultConfig() *Config {
	return &Config{
		TokenExtractor: ExtractFromHeader("Authorization", "Bearer"),
		ErrorHandler:   DefaultErrorHandler,
	}
}

func (c *Config) withDefaults() *Config {
	if c == nil {
		return DefaultConfig()
	}
	out := *c
	if out.TokenExtractor == nil {
		out.TokenExtractor = ExtractFromHeader("Authorization", "Bearer")
	}
	if out.ErrorHandler == nil {
		out.ErrorHandler = DefaultErrorHandler
	}
	return &out
}

// ExtractFromHeader creates a TokenExtractor that extracts from a header.
func ExtractFromHeader(header, scheme string) TokenExtractor {
	return func(r *http.Request) string {
		auth := r.Header.Get(header)
		if auth == "" {
			return ""
		}

		if scheme != "" {
			prefix := scheme + " "
			if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
				return strings.TrimSpace(auth[len(prefix):])
			}
			return ""
		}

		return auth
	}
}

// ExtractFromQuery creates a TokenExtractor that extracts from a query parameter.
func ExtractFromQuery(param string) TokenExtractor {
	return func(r *http.Request) string {
		return r.URL.Query().Get(param)
	}
}

// ExtractFromCookie creates a TokenExtractor that extracts from a cookie.
func ExtractFromCookie(name string) TokenExtractor {
	return func(r *http.Request) string {
		cookie, err := r.Cookie(name)
		if err != nil {
			return ""
		}
		return cookie.Value
	}
}

// ChainExtractors chains multiple extractors, returning the first non-empty result.
func ChainExtractors(extractors ...TokenExtractor) TokenExtractor {
	return func(r *http.Request) string {
		for _, extractor := range extractors {
			if token := extractor(r); token != "" {
				return token
			}
		}
		return ""
	}
}

// ErrorBody is the JSON document written by DefaultErrorHandler.
type ErrorBody struct {
	Message string                `json:"message"`
	Errors  []authcore.FieldError `json:"errors,omitempty"`
}

// DefaultErrorHandler writes err as JSON with the status of its kind.
// Internal errors never expose their message.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	code, body := errorResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func errorResponse(err error) (int, ErrorBody) {
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden, ErrorBody{Message: http.StatusText(http.StatusForbidden)}
	}

	var e *authcore.Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError, ErrorBody{Message: authcore.MsgInternalServerError}
	}
	return authcore.HTTPStatus(e.Kind), ErrorBody{Message: e.PublicMessage(), Errors: e.Fields}
}

// ShouldSkip checks if the request path should skip authentication.
func ShouldSkip(r *http.Request, skipPaths []string) bool {
	path := r.URL.Path
	for _, skip := range skipPaths {
		if matchPath(skip, path) {
			return true
		}
	}
	return false
}

// matchPath checks if a path matches a pattern.
// Supports * as a wildcard for path segments. A trailing "/*" matches the
// prefix itself and anything below it, never a sibling such as "/authz"
// for "/auth/*".
func matchPath(pattern, path string) bool {
	if pattern == path {
		return true
	}

	if strings.HasSuffix(pattern, "/*") {
		prefix := pattern[:len(pattern)-2]
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}

	if strings.Contains(pattern, "*") {
		patternParts := strings.Split(pattern, "/")
		pathParts := strings.Split(path, "/")

		if len(patternParts) != len(pathParts) {
			return false
		}

		for i, part := range patternParts {
			if part != "*" && part != pathParts[i] {
				return false
			}
		}
		return true
	}

	return false
}

// SetUser stores the authenticated user in the request context.
func SetUser(ctx context.Context, user *store.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// GetUser returns the authenticated user, or nil.
func GetUser(ctx context.Context) *store.User {
	u, _ := ctx.Value(UserKey).(*store.User)
	return u
}

// GetUserID returns the authenticated user's id, or "".
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.ID
	}
	return ""
}

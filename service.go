// Package authcore issues and validates access credentials, manages refresh
// tokens, hashes passwords and reconciles third-party identities.
//
// Basic usage:
//
//	users := memory.New()
//	svc, err := authcore.New(users, users,
//	    authcore.WithSecret("your-256-bit-secret-at-least-32-chars"),
//	)
//	res, err := svc.Login(ctx, "ann@example.com", "hunter22")
package authcore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aloks98/authcore/cleanup"
	"github.com/aloks98/authcore/internal/crypto"
	"github.com/aloks98/authcore/internal/hash"
	"github.com/aloks98/authcore/internal/metrics"
	"github.com/aloks98/authcore/password"
	"github.com/aloks98/authcore/ratelimit"
	"github.com/aloks98/authcore/store"
	"github.com/aloks98/authcore/token"
)

// Service is the entry point for authentication operations. It is safe for
// concurrent use.
type Service struct {
	config  *Config
	users   store.UserStore
	tokens  store.RefreshTokenStore
	hasher  password.Hasher
	access  *token.AccessIssuer
	refresh *token.RefreshManager
	limiter ratelimit.Limiter
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	// dummyHash is verified against when an email is unknown so both
	// failure paths cost one hash comparison.
	dummyHash string
}

// TokenResult is returned by a successful Login or Refresh.
type TokenResult struct {
	User        *store.User
	AccessToken string
	ExpiresAt   time.Time
}

// OAuthProfile is an identity asserted by a third-party provider.
type OAuthProfile struct {
	Provider   string
	ExternalID string
	Email      string
	Name       string
	Picture    string
}

// NewUser holds registration input.
type NewUser struct {
	Email    string
	Password string
	Name     string
	Role     store.Role
}

// UserUpdate holds the fields to change. Nil fields are left untouched.
type UserUpdate struct {
	Name     *string
	Email    *string
	Picture  *string
	Role     *store.Role
	Password *string
}

// New creates a Service. users and tokens may be the same value when a
// backend implements both interfaces.
func New(users store.UserStore, tokens store.RefreshTokenStore, opts ...Option) (*Service, error) {
	o := newOptions(opts...)
	cfg := o.config

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if users == nil || tokens == nil {
		return nil, ErrStoreRequired
	}

	hasher := o.hasher
	if hasher == nil {
		hasher = password.NewBcryptHasher(password.ConfigFor(cfg.BcryptCost, cfg.TestMode))
	}

	tokenCfg := &token.Config{
		Secret:          cfg.Secret,
		SigningMethod:   string(cfg.SigningMethod),
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		Now:             o.now,
	}
	access, err := token.NewAccessIssuer(tokenCfg)
	if err != nil {
		return nil, err
	}

	secret, err := crypto.GenerateURLToken(32)
	if err != nil {
		return nil, err
	}
	dummy, err := hasher.Hash(secret)
	if err != nil {
		return nil, err
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	var m *metrics.Metrics
	if o.registry != nil {
		m = metrics.New(o.registry)
	}

	return &Service{
		config:    cfg,
		users:     users,
		tokens:    tokens,
		hasher:    hasher,
		access:    access,
		refresh:   token.NewRefreshManager(tokenCfg, tokens),
		limiter:   o.limiter,
		logger:    logger,
		metrics:   m,
		now:       o.now,
		dummyHash: dummy,
	}, nil
}

// Config returns a copy of the effective configuration.
func (s *Service) Config() Config {
	return *s.config
}

// Login authenticates an email and password and issues an access token.
// Unknown emails and wrong passwords fail identically.
func (s *Service) Login(ctx context.Context, email, plaintext string) (*TokenResult, error) {
	if email == "" {
		return nil, BadRequest(MsgEmailRequired, nil)
	}

	if err := s.throttle(ctx, email); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.metrics.Login(metrics.GrantPassword, metrics.OutcomeError)
		return nil, s.internal(ctx, "login", err)
	}

	encoded := s.dummyHash
	if user != nil {
		encoded = user.PasswordHash
	}

	ok, err := s.verify(plaintext, encoded)
	if err != nil && user != nil {
		s.metrics.Login(metrics.GrantPassword, metrics.OutcomeError)
		return nil, s.internal(ctx, "login", err)
	}
	if user == nil || !ok {
		s.metrics.Login(metrics.GrantPassword, metrics.OutcomeInvalid)
		s.logger.InfoContext(ctx, "login rejected",
			slog.String("grant", metrics.GrantPassword),
			slog.String("email_hash", emailHash(email)),
		)
		return nil, Unauthorized(MsgIncorrectCredentials, nil)
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, limiterKey(email)); err != nil {
			s.logger.WarnContext(ctx, "login limiter reset failed", slog.String("error", err.Error()))
		}
	}

	res, err := s.grant(ctx, "login", user)
	if err != nil {
		s.metrics.Login(metrics.GrantPassword, metrics.OutcomeError)
		return nil, err
	}
	s.metrics.Login(metrics.GrantPassword, metrics.OutcomeSuccess)
	return res, nil
}

// Refresh exchanges a refresh token record for a new access token. The
// record is not consumed and no new refresh token is minted.
func (s *Service) Refresh(ctx context.Context, email string, rt *store.RefreshToken) (*TokenResult, error) {
	if email == "" {
		return nil, BadRequest(MsgEmailRequired, nil)
	}
	if rt == nil || rt.UserEmail != email {
		s.metrics.Login(metrics.GrantRefresh, metrics.OutcomeInvalid)
		return nil, Unauthorized(MsgIncorrectRefreshToken, nil)
	}
	if err := s.refresh.Validate(rt, email); err != nil {
		s.metrics.Login(metrics.GrantRefresh, metrics.OutcomeInvalid)
		return nil, Unauthorized(MsgInvalidRefreshToken, err)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.metrics.Login(metrics.GrantRefresh, metrics.OutcomeError)
		return nil, s.internal(ctx, "refresh", err)
	}
	if user == nil {
		s.metrics.Login(metrics.GrantRefresh, metrics.OutcomeInvalid)
		return nil, Unauthorized(MsgIncorrectRefreshToken, nil)
	}

	res, err := s.grant(ctx, "refresh", user)
	if err != nil {
		s.metrics.Login(metrics.GrantRefresh, metrics.OutcomeError)
		return nil, err
	}
	s.metrics.Login(metrics.GrantRefresh, metrics.OutcomeSuccess)
	return res, nil
}

// RefreshWithToken loads the refresh token record by its value and calls
// Refresh.
func (s *Service) RefreshWithToken(ctx context.Context, email, refreshToken string) (*TokenResult, error) {
	if email == "" {
		return nil, BadRequest(MsgEmailRequired, nil)
	}

	rt, err := s.refresh.Lookup(ctx, refreshToken)
	if errors.Is(err, token.ErrRefreshTokenNotFound) {
		s.metrics.Login(metrics.GrantRefresh, metrics.OutcomeInvalid)
		return nil, Unauthorized(MsgIncorrectRefreshToken, err)
	}
	if err != nil {
		s.metrics.Login(metrics.GrantRefresh, metrics.OutcomeError)
		return nil, s.internal(ctx, "refresh", err)
	}

	return s.Refresh(ctx, email, rt)
}

// IssueRefreshToken mints and persists a refresh token for user.
func (s *Service) IssueRefreshToken(ctx context.Context, user *store.User) (*store.RefreshToken, error) {
	rt, err := s.refresh.Generate(ctx, user)
	if err != nil {
		return nil, s.internal(ctx, "issue_refresh_token", err)
	}
	s.metrics.RefreshIssued()
	return rt, nil
}

// RevokeRefreshToken deletes a refresh token. Tokens are never deleted
// implicitly.
func (s *Service) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	if err := s.refresh.Revoke(ctx, refreshToken); err != nil {
		return s.internal(ctx, "revoke_refresh_token", err)
	}
	return nil
}

// VerifyAccessToken validates a bearer token and returns the user id it
// was issued for.
func (s *Service) VerifyAccessToken(ctx context.Context, accessToken string) (string, error) {
	sub, err := s.access.Verify(accessToken)
	if err != nil {
		return "", Unauthorized(MsgInvalidAccessToken, err)
	}
	return sub, nil
}

// Authenticate verifies a bearer token and loads its user. A token whose
// user no longer exists is rejected.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*store.User, error) {
	sub, err := s.VerifyAccessToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, sub)
	if errors.Is(err, store.ErrNotFound) {
		return nil, Unauthorized(MsgInvalidAccessToken, err)
	}
	if err != nil {
		return nil, s.internal(ctx, "authenticate", err)
	}
	return user, nil
}

// OAuthLogin finds the account linked to the provider identity or holding
// its email, links the provider and backfills an empty name and picture.
// When no account matches a new one is created with an unusable password.
func (s *Service) OAuthLogin(ctx context.Context, p OAuthProfile) (*store.User, error) {
	if p.Provider == "" || p.ExternalID == "" {
		return nil, BadRequest(msgProviderIdentityRequired, nil)
	}
	if p.Email == "" {
		return nil, BadRequest(MsgEmailRequired, nil)
	}

	user, err := s.users.FindByServiceOrEmail(ctx, p.Provider, p.ExternalID, p.Email)
	if err != nil {
		s.metrics.OAuthLogin(p.Provider, metrics.OutcomeError)
		return nil, s.internal(ctx, "oauth_login", err)
	}
	if user != nil {
		return s.linkProfile(ctx, user, p)
	}

	secretHash, err := s.hash(uuid.NewString())
	if err != nil {
		s.metrics.OAuthLogin(p.Provider, metrics.OutcomeError)
		return nil, s.internal(ctx, "oauth_login", err)
	}

	user = &store.User{
		Email:        p.Email,
		PasswordHash: secretHash,
		Name:         p.Name,
		Picture:      p.Picture,
		Role:         store.RoleUser,
		Services:     map[string]string{p.Provider: p.ExternalID},
	}

	err = s.users.Create(ctx, user)
	if errors.Is(err, store.ErrConflict) {
		// Lost a create race for this email; link the winner instead.
		existing, findErr := s.users.FindByServiceOrEmail(ctx, p.Provider, p.ExternalID, p.Email)
		if findErr != nil {
			s.metrics.OAuthLogin(p.Provider, metrics.OutcomeError)
			return nil, s.internal(ctx, "oauth_login", findErr)
		}
		if existing == nil {
			s.metrics.OAuthLogin(p.Provider, metrics.OutcomeError)
			return nil, s.internal(ctx, "oauth_login", err)
		}
		return s.linkProfile(ctx, existing, p)
	}
	if err != nil {
		s.metrics.OAuthLogin(p.Provider, metrics.OutcomeError)
		return nil, s.internal(ctx, "oauth_login", err)
	}

	s.metrics.OAuthLogin(p.Provider, metrics.OutcomeCreated)
	s.logger.InfoContext(ctx, "oauth account created",
		slog.String("provider", p.Provider),
		slog.String("user_id", user.ID),
	)
	return user, nil
}

func (s *Service) linkProfile(ctx context.Context, user *store.User, p OAuthProfile) (*store.User, error) {
	user.LinkService(p.Provider, p.ExternalID)
	if user.Name == "" {
		user.Name = p.Name
	}
	if user.Picture == "" {
		user.Picture = p.Picture
	}

	if err := s.users.Update(ctx, user); err != nil {
		s.metrics.OAuthLogin(p.Provider, metrics.OutcomeError)
		return nil, s.storeError(ctx, "oauth_login", err)
	}

	s.metrics.OAuthLogin(p.Provider, metrics.OutcomeLinked)
	return user, nil
}

// ListUsers returns one page of users matching filter, newest first.
// Zero page or perPage select the defaults.
func (s *Service) ListUsers(ctx context.Context, filter store.ListFilter, page, perPage int) ([]*store.User, error) {
	p, err := store.NewPage(page, perPage)
	if err != nil {
		return nil, BadRequest(msgInvalidPagination, err)
	}
	if filter.Role != nil && !store.Role(*filter.Role).Valid() {
		return nil, validationError("role", msgRoleInvalid)
	}

	users, err := s.users.List(ctx, filter, p)
	if err != nil {
		return nil, s.internal(ctx, "list_users", err)
	}
	return users, nil
}

// Register creates a password account.
func (s *Service) Register(ctx context.Context, in NewUser) (*store.User, error) {
	if in.Email == "" {
		return nil, validationError("email", msgEmailFieldRequired)
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = store.RoleUser
	}
	if !role.Valid() {
		return nil, validationError("role", msgRoleInvalid)
	}

	encoded, err := s.hash(in.Password)
	if err != nil {
		return nil, s.internal(ctx, "register", err)
	}

	user := &store.User{
		Email:        in.Email,
		PasswordHash: encoded,
		Name:         in.Name,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, s.storeError(ctx, "register", err)
	}
	return user, nil
}

// GetUser loads a user by id.
func (s *Service) GetUser(ctx context.Context, id string) (*store.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(ctx, "get_user", err)
	}
	return user, nil
}

// UpdateUser applies the non-nil fields of in. The password is rehashed
// only when in.Password is set.
func (s *Service) UpdateUser(ctx context.Context, id string, in UserUpdate) (*store.User, error) {
	if in.Email != nil && *in.Email == "" {
		return nil, validationError("email", msgEmailFieldRequired)
	}
	if in.Role != nil && !in.Role.Valid() {
		return nil, validationError("role", msgRoleInvalid)
	}
	if in.Password != nil {
		if err := validatePassword(*in.Password); err != nil {
			return nil, err
		}
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(ctx, "update_user", err)
	}

	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.Picture != nil {
		user.Picture = *in.Picture
	}
	if in.Role != nil {
		user.Role = *in.Role
	}
	if in.Password != nil {
		encoded, err := s.hash(*in.Password)
		if err != nil {
			return nil, s.internal(ctx, "update_user", err)
		}
		user.PasswordHash = encoded
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, s.storeError(ctx, "update_user", err)
	}
	return user, nil
}

// CleanupWorker returns a worker that purges expired refresh tokens every
// CleanupInterval. The caller owns Start and Stop. Returns nil when
// cleanup is disabled.
func (s *Service) CleanupWorker() *cleanup.Worker {
	if s.config.CleanupInterval == 0 {
		return nil
	}
	return cleanup.NewWorker(&cleanup.Config{
		Store:    s.tokens,
		Interval: s.config.CleanupInterval,
		Logger:   s.logger,
	})
}

func (s *Service) grant(ctx context.Context, op string, user *store.User) (*TokenResult, error) {
	signed, expiresAt, err := s.access.Issue(user.ID)
	if err != nil {
		return nil, s.internal(ctx, op, err)
	}
	return &TokenResult{User: user, AccessToken: signed, ExpiresAt: expiresAt}, nil
}

func (s *Service) throttle(ctx context.Context, email string) error {
	if s.limiter == nil {
		return nil
	}
	allowed, err := s.limiter.Allow(ctx, limiterKey(email))
	if err != nil {
		// Fail open.
		s.logger.WarnContext(ctx, "login limiter unavailable", slog.String("error", err.Error()))
		return nil
	}
	if !allowed {
		s.metrics.Login(metrics.GrantPassword, metrics.OutcomeRateLimited)
		return TooManyRequests(MsgTooManyLoginAttempts, ratelimit.ErrRateLimited)
	}
	return nil
}

func (s *Service) hash(plaintext string) (string, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveHash("hash", time.Since(start)) }()
	return s.hasher.Hash(plaintext)
}

func (s *Service) verify(plaintext, encoded string) (bool, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveHash("verify", time.Since(start)) }()
	return s.hasher.Verify(plaintext, encoded)
}

// storeError maps store sentinels to public kinds and everything else to
// an opaque internal error.
func (s *Service) storeError(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return NotFound(MsgUserNotFound, err)
	case errors.Is(err, store.ErrConflict):
		var ce *store.ConflictError
		if errors.As(err, &ce) && ce.Field != "" {
			return fieldConflict(ce.Field, err)
		}
		return emailConflict(err)
	default:
		return s.internal(ctx, op, err)
	}
}

func (s *Service) internal(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, "authcore operation failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
	return Internal(op+" failed", err)
}

func validatePassword(plaintext string) error {
	switch {
	case plaintext == "":
		return validationError("password", msgPasswordRequired)
	case len(plaintext) < MinPasswordLength:
		return validationError("password", msgPasswordTooShort)
	case len(plaintext) > MaxPasswordLength:
		return validationError("password", msgPasswordTooLong)
	}
	return nil
}

func limiterKey(email string) string {
	return "login:" + hash.SHA256(email)
}

func emailHash(email string) string {
	return hash.SHA256(email)[:16]
}

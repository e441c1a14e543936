package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/upb/task-tracker/google"
	"github.com/upb/task-tracker/internal/auth"
	"github.com/upb/task-tracker/internal/observability"
	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/repositories"
	"go.uber.org/zap"
)

// IdentityVerifier verifies a Google ID token and returns the identity it asserts
type IdentityVerifier interface {
	Verify(ctx context.Context, rawToken string) (*google.Identity, error)
}

// UserResolver maps a verified identity to a local user
type UserResolver interface {
	ResolveOrCreate(ctx context.Context, identity *google.Identity) (*models.User, bool, error)
}

// SessionMinter issues local session tokens
type SessionMinter interface {
	Issue(subject auth.SessionSubject) (string, time.Time, error)
}

// LoginResult is the outcome of a successful sign-in
type LoginResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
	Created   bool
}

// AuthService exchanges Google ID tokens for session tokens
type AuthService struct {
	verifier IdentityVerifier
	resolver UserResolver
	minter   SessionMinter
	users    repositories.UserRepository
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewAuthService creates a new AuthService. verifier and minter are nil when
// sign-in is not configured; LoginWithGoogle then fails with ErrAuthNotConfigured.
func NewAuthService(
	verifier IdentityVerifier,
	resolver UserResolver,
	minter SessionMinter,
	users repositories.UserRepository,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *AuthService {
	return &AuthService{
		verifier: verifier,
		resolver: resolver,
		minter:   minter,
		users:    users,
		logger:   logger,
		metrics:  metrics,
	}
}

// LoginWithGoogle verifies rawToken, resolves or registers the user and
// mints a session token for them. Missing configuration is reported before
// a missing token.
func (s *AuthService) LoginWithGoogle(ctx context.Context, rawToken string) (*LoginResult, error) {
	if s.verifier == nil || s.minter == nil {
		s.logger.Error("google sign-in is not configured")
		s.metrics.RecordLogin(observability.LoginMisconfigured)
		return nil, ErrAuthNotConfigured
	}

	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, ErrMissingIdentityToken
	}

	identity, err := s.verifier.Verify(ctx, rawToken)
	if err != nil {
		s.logger.Info("google id token rejected", zap.Error(err))
		s.metrics.RecordLogin(observability.LoginInvalidToken)
		return nil, ErrInvalidIdentityToken.Wrap(err)
	}
	if identity.Email == "" {
		s.metrics.RecordLogin(observability.LoginInvalidToken)
		return nil, ErrInvalidIdentityToken
	}

	user, created, err := s.resolver.ResolveOrCreate(ctx, identity)
	if err != nil {
		if IsConflictError(err) {
			s.metrics.RecordLogin(observability.LoginConflict)
		} else {
			s.metrics.RecordLogin(observability.LoginError)
		}
		return nil, err
	}

	token, expiresAt, err := s.minter.Issue(auth.SessionSubject{
		UserID:   user.ID,
		Email:    user.Email,
		RoleID:   user.RoleID,
		RoleName: user.RoleName,
	})
	if err != nil {
		s.logger.Error("failed to issue session token", zap.Int64("user_id", user.ID), zap.Error(err))
		s.metrics.RecordLogin(observability.LoginError)
		return nil, ErrInternal.Wrap(err)
	}

	if user.RoleName == "" {
		user.RoleName = auth.NoRoleName
	}

	s.metrics.RecordLogin(observability.LoginSucceeded)
	s.logger.Info("user signed in",
		zap.Int64("user_id", user.ID),
		zap.String("role", user.RoleName),
		zap.Bool("created", created),
	)

	return &LoginResult{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
		Created:   created,
	}, nil
}

// Me returns the caller's stored profile. The role name reported is the one
// carried by the session token.
func (s *AuthService) Me(ctx context.Context, principal auth.Principal) (*models.User, error) {
	user, err := s.users.GetByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUnauthorized.Wrap(err)
		}
		return nil, ErrInternal.Wrap(err)
	}

	user.RoleName = principal.RoleName
	return user, nil
}

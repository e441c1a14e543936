package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultSessionTTL is the session lifetime used when none is configured
const DefaultSessionTTL = 24 * time.Hour

// NoRoleName is embedded in tokens of users without a role
const NoRoleName = "N/A"

var (
	// ErrTokenMissing is returned when no session token was presented
	ErrTokenMissing = errors.New("session token missing")

	// ErrTokenExpired is returned when the current time is at or past the token expiry
	ErrTokenExpired = errors.New("session token expired")

	// ErrTokenInvalid is returned when the signature or structure check fails
	ErrTokenInvalid = errors.New("session token invalid")
)

// Principal is the authenticated caller, as carried by a validated session token.
// The role is the one embedded at issue time; a role change applies on the next login.
type Principal struct {
	UserID   int64
	Email    string
	RoleID   *int64
	RoleName string
}

// SessionSubject is the user snapshot a session token is minted from
type SessionSubject struct {
	UserID   int64
	Email    string
	RoleID   *int64
	RoleName string
}

// SessionClaims is the claim set of a local session token
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"app_user_id"`
	Email    string `json:"email"`
	RoleID   *int64 `json:"roleId"`
	RoleName string `json:"roleName"`
}

// Principal returns the caller described by the claims
func (c *SessionClaims) Principal() Principal {
	return Principal{
		UserID:   c.UserID,
		Email:    c.Email,
		RoleID:   c.RoleID,
		RoleName: c.RoleName,
	}
}

// SessionIssuer mints and validates HS256 session tokens with a single shared secret.
// It holds no mutable state and is safe for concurrent use.
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a SessionIssuer
type Option func(*SessionIssuer)

// WithClock overrides the time source used for issuing and expiry checks
func WithClock(now func() time.Time) Option {
	return func(i *SessionIssuer) {
		i.now = now
	}
}

// NewSessionIssuer creates a SessionIssuer. A non-positive ttl falls back to DefaultSessionTTL.
func NewSessionIssuer(secret string, ttl time.Duration, opts ...Option) (*SessionIssuer, error) {
	if secret == "" {
		return nil, errors.New("session signing secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	i := &SessionIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// TTL returns the configured session lifetime
func (i *SessionIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue mints a session token for the subject. The expiry is issue time plus the TTL,
// truncated to whole seconds as carried in the token.
func (i *SessionIssuer) Issue(subject SessionSubject) (string, time.Time, error) {
	if subject.UserID == 0 {
		return "", time.Time{}, errors.New("session subject has no user id")
	}

	roleName := subject.RoleName
	if roleName == "" {
		roleName = NoRoleName
	}

	issuedAt := jwt.NewNumericDate(i.now())
	expiresAt := jwt.NewNumericDate(issuedAt.Add(i.ttl))

	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  issuedAt,
			ExpiresAt: expiresAt,
		},
		UserID:   subject.UserID,
		Email:    subject.Email,
		RoleID:   subject.RoleID,
		RoleName: roleName,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	return token, expiresAt.Time, nil
}

// Validate verifies the token signature and expiry and returns its claims.
// It never consults the user store.
func (i *SessionIssuer) Validate(token string) (*SessionClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenMissing
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) {
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !parsed.Valid || claims.UserID == 0 {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

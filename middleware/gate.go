package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/upb/task-tracker/internal/auth"
	"github.com/upb/task-tracker/internal/observability"
	"github.com/upb/task-tracker/services"
	"github.com/upb/task-tracker/utils"
	"go.uber.org/zap"
)

// SessionValidator defines the interface for validating session tokens
type SessionValidator interface {
	// Validate checks signature and expiry and returns the token claims
	Validate(token string) (*auth.SessionClaims, error)
}

// AccessGate authenticates the bearer session token and checks the caller's
// role against a per-route allow-list. Verdicts are never cached.
type AccessGate struct {
	validator SessionValidator
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// NewAccessGate creates a new AccessGate
func NewAccessGate(validator SessionValidator, logger *zap.Logger, metrics *observability.Metrics) *AccessGate {
	return &AccessGate{
		validator: validator,
		logger:    logger,
		metrics:   metrics,
	}
}

// Require returns middleware admitting only callers whose role is in roles.
// The admitted principal is stored in the request context.
func (g *AccessGate) Require(roles ...string) func(http.Handler) http.Handler {
	allowed := append([]string(nil), roles...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestIDFromContext(ctx)

			token := extractBearerToken(r)
			if token == "" {
				g.logger.Debug("missing bearer token",
					zap.String("request_id", requestID))
				g.deny(w, services.ErrTokenMissing, observability.GateUnauthorized)
				return
			}

			claims, err := g.validator.Validate(token)
			if err != nil {
				g.logger.Debug("session token rejected",
					zap.String("request_id", requestID),
					zap.Error(err))
				if errors.Is(err, auth.ErrTokenExpired) {
					g.deny(w, services.ErrTokenExpired, observability.GateUnauthorized)
				} else {
					g.deny(w, services.ErrTokenInvalid, observability.GateUnauthorized)
				}
				return
			}

			principal := claims.Principal()
			if !auth.RoleAllowed(principal.RoleName, allowed) {
				g.logger.Info("insufficient role",
					zap.String("request_id", requestID),
					zap.Int64("user_id", principal.UserID),
					zap.String("role", principal.RoleName),
					zap.Strings("allowed", allowed))
				g.deny(w, services.ErrForbidden, observability.GateForbidden)
				return
			}

			g.metrics.RecordGateDecision(observability.GateAdmitted)
			markAdmitted(ctx, principal.UserID)

			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
		})
	}
}

// Guard wraps a single handler with Require(roles...)
func (g *AccessGate) Guard(roles []string, handler http.Handler) http.Handler {
	return g.Require(roles...)(handler)
}

func (g *AccessGate) deny(w http.ResponseWriter, reason *services.DomainError, verdict string) {
	g.metrics.RecordGateDecision(verdict)

	status := http.StatusUnauthorized
	if verdict == observability.GateForbidden {
		status = http.StatusForbidden
	}
	if err := utils.WriteError(w, status, reason.Code, reason.Message, nil); err != nil {
		g.logger.Error("failed to write gate response", zap.Error(err))
	}
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

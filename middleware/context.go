package middleware

import (
	"context"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/task-tracker/internal/auth"
)

// Context key type to avoid collisions
type contextKey string

const (
	// PrincipalKey is the context key for the admitted caller
	PrincipalKey contextKey = "principal"

	// requestInfoKey carries per-request facts back out to the request logger
	requestInfoKey contextKey = "request_info"
)

// requestInfo is filled in by inner middleware and read by RequestLogger
type requestInfo struct {
	userID int64
}

// GetRequestIDFromContext retrieves the request ID assigned by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	return chimiddleware.GetReqID(ctx)
}

// WithPrincipal adds the admitted caller to the context
func WithPrincipal(ctx context.Context, principal auth.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, principal)
}

// PrincipalFromContext retrieves the caller admitted by the access gate
func PrincipalFromContext(ctx context.Context) (auth.Principal, bool) {
	principal, ok := ctx.Value(PrincipalKey).(auth.Principal)
	return principal, ok
}

func withRequestInfo(ctx context.Context, info *requestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey, info)
}

// markAdmitted records the admitted user for the request log line
func markAdmitted(ctx context.Context, userID int64) {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		info.userID = userID
	}
}

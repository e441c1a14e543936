package handlers

import (
	"context"
	"net/http"

	"github.com/upb/task-tracker/internal/auth"
	"github.com/upb/task-tracker/middleware"
	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/services"
	"go.uber.org/zap"
)

// AuthService defines the sign-in operations the handler depends on
type AuthService interface {
	LoginWithGoogle(ctx context.Context, rawToken string) (*services.LoginResult, error)
	Me(ctx context.Context, principal auth.Principal) (*models.User, error)
}

// GoogleLoginRequest is the body of POST /auth/google
type GoogleLoginRequest struct {
	Token string `json:"token"`
}

// ProfileResponse is the signed-in user's profile
type ProfileResponse struct {
	ID       int64   `json:"id"`
	GoogleID *string `json:"googleId"`
	Email    string  `json:"email"`
	Name     *string `json:"name"`
	Picture  *string `json:"picture"`
	RoleID   *int64  `json:"roleId"`
	RoleName string  `json:"roleName"`
}

// LoginResponse is the body of a successful POST /auth/google
type LoginResponse struct {
	Message string          `json:"message"`
	User    ProfileResponse `json:"user"`
	Token   string          `json:"token"`
}

// MeResponse is the body of GET /auth/me
type MeResponse struct {
	User ProfileResponse `json:"user"`
}

func newProfileResponse(user *models.User) ProfileResponse {
	return ProfileResponse{
		ID:       user.ID,
		GoogleID: user.GoogleID,
		Email:    user.Email,
		Name:     user.Name,
		Picture:  user.Picture,
		RoleID:   user.RoleID,
		RoleName: user.RoleName,
	}
}

// AuthHandler handles Google sign-in and the current user profile
type AuthHandler struct {
	service AuthService
	logger  *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

// HandleGoogleLogin handles POST /auth/google. An unreadable body counts as a
// missing token, which the service reports after its configuration check.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req GoogleLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Debug("unreadable login body",
			zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
			zap.Error(err))
		req.Token = ""
	}

	result, err := h.service.LoginWithGoogle(ctx, req.Token)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeOK(w, h.logger, LoginResponse{
		Message: "Authentication successful.",
		User:    newProfileResponse(result.User),
		Token:   result.Token,
	})
}

// HandleMe handles GET /auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, ok := middleware.PrincipalFromContext(ctx)
	if !ok {
		HandleServiceError(w, services.ErrUnauthorized, h.logger)
		return
	}

	user, err := h.service.Me(ctx, principal)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeOK(w, h.logger, MeResponse{User: newProfileResponse(user)})
}

package handlers

import (
	"context"
	"net/http"

	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/services"
	"go.uber.org/zap"
)

// UserService defines the user operations the handler depends on
type UserService interface {
	List(ctx context.Context) ([]*models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	Create(ctx context.Context, input services.CreateUserInput) (*models.User, error)
	Update(ctx context.Context, id int64, patch services.UserPatch) error
	Delete(ctx context.Context, id int64) error
}

// CreateUserRequest is the body of POST /users/
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,max=80"`
	Email    string `json:"email" validate:"required,email,max=120"`
	RoleID   *int64 `json:"role_id" validate:"omitempty,gt=0"`
}

// UserResponse is the listing shape of a user; roleName is null without a role
type UserResponse struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	RoleID   *int64  `json:"role_id"`
	RoleName *string `json:"roleName"`
}

func newUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		RoleID:   user.RoleID,
		RoleName: models.StringPtr(user.RoleName),
	}
}

// UserHandler handles user CRUD
type UserHandler struct {
	service UserService
	logger  *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// HandleList handles GET /users/
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	response := make([]UserResponse, 0, len(users))
	for _, user := range users {
		response = append(response, newUserResponse(user))
	}
	writeOK(w, h.logger, response)
}

// HandleGet handles GET /users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, services.ErrUserNotFound)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, h.logger, newUserResponse(user))
}

// HandleCreate handles POST /users/. The user links to Google on first sign-in.
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := validateRequest(&req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	user, err := h.service.Create(r.Context(), services.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		RoleID:   req.RoleID,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeCreated(w, h.logger, "User created successfully", "user_id", user.ID)
}

// HandleUpdate handles PUT /users/{id}. The Google link is never writable here.
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, services.ErrUserNotFound)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	patch, err := userPatchFrom(w, r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := h.service.Update(r.Context(), id, patch); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeMessage(w, h.logger, http.StatusOK, "User updated successfully")
}

// HandleDelete handles DELETE /users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, services.ErrUserNotFound)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeMessage(w, h.logger, http.StatusOK, "User deleted successfully")
}

func userPatchFrom(w http.ResponseWriter, r *http.Request) (services.UserPatch, error) {
	var patch services.UserPatch

	fields, err := decodeFields(w, r)
	if err != nil {
		return patch, err
	}

	if patch.Username, err = stringField(fields, "username"); err != nil {
		return patch, err
	}
	if patch.Email, err = stringField(fields, "email"); err != nil {
		return patch, err
	}
	if patch.Name, err = stringField(fields, "name"); err != nil {
		return patch, err
	}
	if patch.Picture, err = stringField(fields, "picture"); err != nil {
		return patch, err
	}
	if patch.RoleID, err = intField(fields, "role_id"); err != nil {
		return patch, err
	}
	return patch, nil
}

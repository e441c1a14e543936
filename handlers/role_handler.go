package handlers

import (
	"context"
	"net/http"

	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/services"
	"go.uber.org/zap"
)

// RoleService defines the role operations the handler depends on
type RoleService interface {
	List(ctx context.Context) ([]*models.Role, error)
	Get(ctx context.Context, id int64) (*models.Role, error)
	Create(ctx context.Context, name string) (*models.Role, error)
	Update(ctx context.Context, id int64, name services.Field[string]) error
	Delete(ctx context.Context, id int64) error
}

// CreateRoleRequest is the body of POST /roles/
type CreateRoleRequest struct {
	Name string `json:"name" validate:"required,max=80"`
}

// RoleHandler handles role CRUD
type RoleHandler struct {
	service RoleService
	logger  *zap.Logger
}

// NewRoleHandler creates a new RoleHandler
func NewRoleHandler(service RoleService, logger *zap.Logger) *RoleHandler {
	return &RoleHandler{
		service: service,
		logger:  logger,
	}
}

// HandleList handles GET /roles/
func (h *RoleHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.List(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, h.logger, roles)
}

// HandleGet handles GET /roles/{id}
func (h *RoleHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, services.ErrRoleNotFound)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	role, err := h.service.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, h.logger, role)
}

// HandleCreate handles POST /roles/
func (h *RoleHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := validateRequest(&req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	role, err := h.service.Create(r.Context(), req.Name)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeCreated(w, h.logger, "Role created successfully", "role_id", role.ID)
}

// HandleUpdate handles PUT /roles/{id}; only name is writable
func (h *RoleHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, services.ErrRoleNotFound)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	fields, err := decodeFields(w, r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	name, err := stringField(fields, "name")
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := h.service.Update(r.Context(), id, name); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeMessage(w, h.logger, http.StatusOK, "Role updated successfully")
}

// HandleDelete handles DELETE /roles/{id}
func (h *RoleHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, services.ErrRoleNotFound)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeMessage(w, h.logger, http.StatusOK, "Role deleted successfully")
}

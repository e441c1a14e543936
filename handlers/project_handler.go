package handlers

import (
	"context"
	"net/http"

	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/services"
	"go.uber.org/zap"
)

// ProjectService defines the project operations the handler depends on
type ProjectService interface {
	List(ctx context.Context) ([]*models.Project, error)
	Get(ctx context.Context, id int64) (*models.Project, error)
	Create(ctx context.Context, input services.CreateProjectInput) (*models.Project, error)
	Update(ctx context.Context, id int64, patch services.ProjectPatch) error
	Delete(ctx context.Context, id int64) error
}

// CreateProjectRequest is the body of POST /projects/
type CreateProjectRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	OwnerID     *int64  `json:"owner_id" validate:"omitempty,gt=0"`
}

// ProjectHandler handles project CRUD
type ProjectHandler struct {
	service ProjectService
	logger  *zap.Logger
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(service ProjectService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		service: service,
		logger:  logger,
	}
}

// HandleList handles GET /projects/
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.List(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, h.logger, projects)
}

// HandleGet handles GET /projects/{id}
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, services.ErrProjectNotFound)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	project, err := h.service.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, h.logger, project)
}

// HandleCreate handles POST /projects/
func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := validateRequest(&req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	startDate, err := optionalDate("start_date", req.StartDate)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	endDate, err := optionalDate("end_date", req.EndDate)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	project, err := h.service.Create(r.Context(), services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   startDate,
		EndDate:     endDate,
		OwnerID:     req.OwnerID,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeCreated(w, h.logger, "Project created successfully", "project_id", project.ID)
}

// HandleUpdate handles PUT /projects/{id}. Only keys present in the body change.
func (h *ProjectHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, services.ErrProjectNotFound)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	patch, err := projectPatchFrom(w, r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := h.service.Update(r.Context(), id, patch); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeMessage(w, h.logger, http.StatusOK, "Project updated successfully")
}

// HandleDelete handles DELETE /projects/{id}
func (h *ProjectHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, services.ErrProjectNotFound)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeMessage(w, h.logger, http.StatusOK, "Project deleted successfully")
}

func projectPatchFrom(w http.ResponseWriter, r *http.Request) (services.ProjectPatch, error) {
	var patch services.ProjectPatch

	fields, err := decodeFields(w, r)
	if err != nil {
		return patch, err
	}

	if patch.Name, err = stringField(fields, "name"); err != nil {
		return patch, err
	}
	if patch.Description, err = stringField(fields, "description"); err != nil {
		return patch, err
	}
	if patch.StartDate, err = dateField(fields, "start_date"); err != nil {
		return patch, err
	}
	if patch.EndDate, err = dateField(fields, "end_date"); err != nil {
		return patch, err
	}
	if patch.OwnerID, err = intField(fields, "owner_id"); err != nil {
		return patch, err
	}
	return patch, nil
}

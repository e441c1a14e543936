package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/upb/task-tracker/internal/auth"
	"github.com/upb/task-tracker/middleware"
	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/services"
	"go.uber.org/zap"
)

// TaskService defines the task operations the handler depends on
type TaskService interface {
	List(ctx context.Context) ([]*models.Task, error)
	Get(ctx context.Context, id int64) (*models.Task, error)
	Create(ctx context.Context, caller auth.Principal, input services.CreateTaskInput) (*models.Task, error)
	AuthorizeUpdate(ctx context.Context, caller auth.Principal, id int64, keys []string) error
	Update(ctx context.Context, caller auth.Principal, id int64, patch services.TaskPatch) error
	Delete(ctx context.Context, id int64) error
}

// CreateTaskRequest is the body of POST /tasks/
type CreateTaskRequest struct {
	Description string  `json:"description" validate:"required"`
	DueDate     *string `json:"due_date"`
	Status      *string `json:"status" validate:"omitempty,max=50"`
	OwnerID     *int64  `json:"owner_id" validate:"omitempty,gt=0"`
	ProjectID   *int64  `json:"project_id" validate:"omitempty,gt=0"`
}

// TaskHandler handles task CRUD
type TaskHandler struct {
	service TaskService
	logger  *zap.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(service TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service: service,
		logger:  logger,
	}
}

// HandleList handles GET /tasks/
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.List(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, h.logger, tasks)
}

// HandleGet handles GET /tasks/{id}
func (h *TaskHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, services.ErrTaskNotFound)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	task, err := h.service.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, h.logger, task)
}

// HandleCreate handles POST /tasks/
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		HandleServiceError(w, services.ErrUnauthorized, h.logger)
		return
	}

	var req CreateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := validateRequest(&req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	dueDate, err := optionalDate("due_date", req.DueDate)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	task, err := h.service.Create(r.Context(), caller, services.CreateTaskInput{
		Description: req.Description,
		DueDate:     dueDate,
		Status:      req.Status,
		OwnerID:     req.OwnerID,
		ProjectID:   req.ProjectID,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeCreated(w, h.logger, "Task created successfully", "task_id", task.ID)
}

// HandleUpdate handles PUT /tasks/{id}. Read Only callers may send only status.
// The role check runs on the raw payload keys, so a refused caller gets 403
// whatever the field values hold.
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		HandleServiceError(w, services.ErrUnauthorized, h.logger)
		return
	}

	id, err := pathID(r, services.ErrTaskNotFound)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	fields, err := decodeFields(w, r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := h.service.AuthorizeUpdate(r.Context(), caller, id, keys(fields)); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	patch, err := taskPatchFrom(fields)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := h.service.Update(r.Context(), caller, id, patch); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeMessage(w, h.logger, http.StatusOK, "Task updated successfully")
}

// HandleDelete handles DELETE /tasks/{id}
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, services.ErrTaskNotFound)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeMessage(w, h.logger, http.StatusOK, "Task deleted successfully")
}

func taskPatchFrom(fields map[string]json.RawMessage) (services.TaskPatch, error) {
	var (
		patch = services.TaskPatch{Keys: keys(fields)}
		err   error
	)

	if patch.Description, err = stringField(fields, "description"); err != nil {
		return patch, err
	}
	if patch.Status, err = stringField(fields, "status"); err != nil {
		return patch, err
	}
	if patch.DueDate, err = dateField(fields, "due_date"); err != nil {
		return patch, err
	}
	if patch.OwnerID, err = intField(fields, "owner_id"); err != nil {
		return patch, err
	}
	if patch.ProjectID, err = intField(fields, "project_id"); err != nil {
		return patch, err
	}
	return patch, nil
}

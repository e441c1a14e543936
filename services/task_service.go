package services

import (
	"context"

	"github.com/upb/task-tracker/internal/auth"
	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/repositories"
	"go.uber.org/zap"
)

const maxTaskStatusLength = 50

// CreateTaskInput holds the fields of a new task
type CreateTaskInput struct {
	Description string
	DueDate     *models.Date
	Status      *string
	OwnerID     *int64
	ProjectID   *int64
}

// TaskPatch is a partial task update. Keys lists every top-level key of the
// request payload, recognised or not, and drives the Read Only field check.
type TaskPatch struct {
	Keys        []string
	Description Field[string]
	DueDate     Field[models.Date]
	Status      Field[string]
	OwnerID     Field[int64]
	ProjectID   Field[int64]
}

func (p TaskPatch) changes() map[string]interface{} {
	changes := make(map[string]interface{})
	p.Description.apply(changes, "description")
	p.DueDate.apply(changes, "due_date")
	p.Status.apply(changes, "status")
	p.OwnerID.apply(changes, "owner_id")
	p.ProjectID.apply(changes, "project_id")
	return changes
}

// TaskService manages tasks
type TaskService struct {
	tasks  repositories.TaskRepository
	logger *zap.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(tasks repositories.TaskRepository, logger *zap.Logger) *TaskService {
	return &TaskService{
		tasks:  tasks,
		logger: logger,
	}
}

// List returns every task ordered by ID
func (s *TaskService) List(ctx context.Context) ([]*models.Task, error) {
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		return nil, translateRepoError(err, ErrTaskNotFound)
	}
	return tasks, nil
}

// Get returns a single task
func (s *TaskService) Get(ctx context.Context, id int64) (*models.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, ErrTaskNotFound)
	}
	return task, nil
}

// Create stores a new task. Without an explicit owner the caller owns it.
func (s *TaskService) Create(ctx context.Context, caller auth.Principal, input CreateTaskInput) (*models.Task, error) {
	if err := requireText("description", SetTo(input.Description), 0); err != nil {
		return nil, err
	}
	if input.Status != nil {
		if err := limitText("status", *input.Status, maxTaskStatusLength); err != nil {
			return nil, err
		}
	}

	task := models.NewTask(input.Description)
	task.DueDate = input.DueDate
	task.Status = input.Status
	task.OwnerID = input.OwnerID
	task.ProjectID = input.ProjectID
	if task.OwnerID == nil {
		ownerID := caller.UserID
		task.OwnerID = &ownerID
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, translateRepoError(err, ErrTaskNotFound)
	}

	s.logger.Info("task created",
		zap.Int64("task_id", task.ID),
		zap.Int64("created_by", caller.UserID),
	)
	return task, nil
}

// AuthorizeUpdate decides whether caller may update the task with a payload
// carrying keys. A missing task is reported before the role checks, and both
// run before any field value is parsed.
func (s *TaskService) AuthorizeUpdate(ctx context.Context, caller auth.Principal, id int64, keys []string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if !auth.HasPermission(caller, auth.ResourceTask, auth.ActionUpdate) {
		return ErrForbidden
	}

	if !auth.CanUpdateTaskFields(caller.RoleName, keys) {
		s.logger.Info("task update denied",
			zap.Int64("task_id", id),
			zap.Int64("user_id", caller.UserID),
			zap.Strings("fields", keys),
		)
		return ErrReadOnlyTaskUpdate
	}
	return nil
}

// Update applies patch to the task after AuthorizeUpdate accepts its keys
func (s *TaskService) Update(ctx context.Context, caller auth.Principal, id int64, patch TaskPatch) error {
	if err := s.AuthorizeUpdate(ctx, caller, id, patch.Keys); err != nil {
		return err
	}

	if err := requireText("description", patch.Description, 0); err != nil {
		return err
	}
	if patch.Status.Set && patch.Status.Value != nil {
		if err := limitText("status", *patch.Status.Value, maxTaskStatusLength); err != nil {
			return err
		}
	}

	if err := s.tasks.Update(ctx, id, patch.changes()); err != nil {
		return translateRepoError(err, ErrTaskNotFound)
	}

	s.logger.Info("task updated", zap.Int64("task_id", id), zap.Int64("updated_by", caller.UserID))
	return nil
}

// Delete removes the task
func (s *TaskService) Delete(ctx context.Context, id int64) error {
	if err := s.tasks.Delete(ctx, id); err != nil {
		return translateRepoError(err, ErrTaskNotFound)
	}

	s.logger.Info("task deleted", zap.Int64("task_id", id))
	return nil
}

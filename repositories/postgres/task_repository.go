package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/repositories"
	"go.uber.org/zap"
)

const selectTaskColumns = `
		SELECT id, description, due_date, status, owner_id, project_id
		FROM tasks
	`

var taskColumns = map[string]bool{
	"description": true,
	"due_date":    true,
	"status":      true,
	"owner_id":    true,
	"project_id":  true,
}

// TaskRepository implements the repositories.TaskRepository interface
type TaskRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB, logger *zap.Logger) repositories.TaskRepository {
	return &TaskRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new task
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	query, args, err := psql.Insert("tasks").
		Columns("description", "due_date", "status", "owner_id", "project_id").
		Values(task.Description, task.DueDate, task.Status, task.OwnerID, task.ProjectID).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build task insert: %w", err)
	}

	executor := GetExecutor(ctx, r.db)
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&task.ID); err != nil {
		return fmt.Errorf("failed to create task: %w", classifyError(err))
	}

	r.logger.Debug("task created", zap.Int64("id", task.ID))
	return nil
}

// GetByID retrieves a task by ID
func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	executor := GetExecutor(ctx, r.db)
	task := &models.Task{}

	err := executor.QueryRowContext(ctx, selectTaskColumns+"WHERE id = $1", id).Scan(
		&task.ID,
		&task.Description,
		&task.DueDate,
		&task.Status,
		&task.OwnerID,
		&task.ProjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", classifyError(err))
	}

	return task, nil
}

// List retrieves all tasks ordered by ID
func (r *TaskRepository) List(ctx context.Context) ([]*models.Task, error) {
	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, selectTaskColumns+"ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		task := &models.Task{}
		if err := rows.Scan(
			&task.ID,
			&task.Description,
			&task.DueDate,
			&task.Status,
			&task.OwnerID,
			&task.ProjectID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// Update applies the given column changes to a task
func (r *TaskRepository) Update(ctx context.Context, id int64, changes map[string]interface{}) error {
	if err := checkColumns("tasks", taskColumns, changes); err != nil {
		return err
	}
	if len(changes) == 0 {
		return nil
	}

	query, args, err := psql.Update("tasks").
		SetMap(changes).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build task update: %w", err)
	}

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", classifyError(err))
	}
	if err := requireAffected(result); err != nil {
		return fmt.Errorf("failed to update task %d: %w", id, err)
	}

	r.logger.Debug("task updated", zap.Int64("id", id))
	return nil
}

// Delete deletes a task
func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", classifyError(err))
	}
	if err := requireAffected(result); err != nil {
		return fmt.Errorf("failed to delete task %d: %w", id, err)
	}

	r.logger.Debug("task deleted", zap.Int64("id", id))
	return nil
}

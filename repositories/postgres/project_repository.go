package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/repositories"
	"go.uber.org/zap"
)

const selectProjectColumns = `
		SELECT id, name, description, start_date, end_date, owner_id
		FROM projects
	`

var projectColumns = map[string]bool{
	"name":        true,
	"description": true,
	"start_date":  true,
	"end_date":    true,
	"owner_id":    true,
}

// ProjectRepository implements the repositories.ProjectRepository interface
type ProjectRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *DB, logger *zap.Logger) repositories.ProjectRepository {
	return &ProjectRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new project
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	query, args, err := psql.Insert("projects").
		Columns("name", "description", "start_date", "end_date", "owner_id").
		Values(project.Name, project.Description, project.StartDate, project.EndDate, project.OwnerID).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build project insert: %w", err)
	}

	executor := GetExecutor(ctx, r.db)
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&project.ID); err != nil {
		return fmt.Errorf("failed to create project: %w", classifyError(err))
	}

	r.logger.Debug("project created", zap.Int64("id", project.ID))
	return nil
}

// GetByID retrieves a project by ID
func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	executor := GetExecutor(ctx, r.db)
	project := &models.Project{}

	err := executor.QueryRowContext(ctx, selectProjectColumns+"WHERE id = $1", id).Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.StartDate,
		&project.EndDate,
		&project.OwnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", classifyError(err))
	}

	return project, nil
}

// List retrieves all projects ordered by ID
func (r *ProjectRepository) List(ctx context.Context) ([]*models.Project, error) {
	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, selectProjectColumns+"ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]*models.Project, 0)
	for rows.Next() {
		project := &models.Project{}
		if err := rows.Scan(
			&project.ID,
			&project.Name,
			&project.Description,
			&project.StartDate,
			&project.EndDate,
			&project.OwnerID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}

// Update applies the given column changes to a project
func (r *ProjectRepository) Update(ctx context.Context, id int64, changes map[string]interface{}) error {
	if err := checkColumns("projects", projectColumns, changes); err != nil {
		return err
	}
	if len(changes) == 0 {
		return nil
	}

	query, args, err := psql.Update("projects").
		SetMap(changes).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build project update: %w", err)
	}

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", classifyError(err))
	}
	if err := requireAffected(result); err != nil {
		return fmt.Errorf("failed to update project %d: %w", id, err)
	}

	r.logger.Debug("project updated", zap.Int64("id", id))
	return nil
}

// Delete deletes a project; its tasks are detached
func (r *ProjectRepository) Delete(ctx context.Context, id int64) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, "DELETE FROM projects WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", classifyError(err))
	}
	if err := requireAffected(result); err != nil {
		return fmt.Errorf("failed to delete project %d: %w", id, err)
	}

	r.logger.Debug("project deleted", zap.Int64("id", id))
	return nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/repositories"
	"go.uber.org/zap"
)

// RoleRepository implements the repositories.RoleRepository interface
type RoleRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *DB, logger *zap.Logger) repositories.RoleRepository {
	return &RoleRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new role
func (r *RoleRepository) Create(ctx context.Context, role *models.Role) error {
	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx,
		"INSERT INTO roles (name) VALUES ($1) RETURNING id", role.Name,
	).Scan(&role.ID)
	if err != nil {
		return fmt.Errorf("failed to create role: %w", classifyError(err))
	}

	r.logger.Debug("role created", zap.Int64("id", role.ID), zap.String("name", role.Name))
	return nil
}

// EnsureByName inserts the role if it does not exist yet and returns the stored row
func (r *RoleRepository) EnsureByName(ctx context.Context, name string) (*models.Role, error) {
	executor := GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx,
		"INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING", name,
	); err != nil {
		return nil, fmt.Errorf("failed to ensure role %q: %w", name, classifyError(err))
	}

	return r.GetByName(ctx, name)
}

// GetByID retrieves a role by ID
func (r *RoleRepository) GetByID(ctx context.Context, id int64) (*models.Role, error) {
	return r.getOne(ctx, "SELECT id, name FROM roles WHERE id = $1", id)
}

// GetByName retrieves a role by exact name
func (r *RoleRepository) GetByName(ctx context.Context, name string) (*models.Role, error) {
	return r.getOne(ctx, "SELECT id, name FROM roles WHERE name = $1", name)
}

func (r *RoleRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.Role, error) {
	executor := GetExecutor(ctx, r.db)
	role := &models.Role{}

	if err := executor.QueryRowContext(ctx, query, arg).Scan(&role.ID, &role.Name); err != nil {
		return nil, fmt.Errorf("failed to get role: %w", classifyError(err))
	}
	return role, nil
}

// List retrieves all roles ordered by ID
func (r *RoleRepository) List(ctx context.Context) ([]*models.Role, error) {
	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, "SELECT id, name FROM roles ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	roles := make([]*models.Role, 0)
	for rows.Next() {
		role := &models.Role{}
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roles: %w", err)
	}

	return roles, nil
}

// Update renames a role
func (r *RoleRepository) Update(ctx context.Context, id int64, name string) error {
	query, args, err := psql.Update("roles").
		Set("name", name).
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build role update: %w", err)
	}

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", classifyError(err))
	}
	if err := requireAffected(result); err != nil {
		return fmt.Errorf("failed to update role %d: %w", id, err)
	}

	r.logger.Debug("role updated", zap.Int64("id", id))
	return nil
}

// Delete deletes a role; users holding it are left without a role
func (r *RoleRepository) Delete(ctx context.Context, id int64) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, "DELETE FROM roles WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", classifyError(err))
	}
	if err := requireAffected(result); err != nil {
		return fmt.Errorf("failed to delete role %d: %w", id, err)
	}

	r.logger.Debug("role deleted", zap.Int64("id", id))
	return nil
}

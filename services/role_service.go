package services

import (
	"context"

	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/repositories"
	"go.uber.org/zap"
)

const maxRoleNameLength = 80

// RoleService manages roles
type RoleService struct {
	roles  repositories.RoleRepository
	logger *zap.Logger
}

// NewRoleService creates a new RoleService
func NewRoleService(roles repositories.RoleRepository, logger *zap.Logger) *RoleService {
	return &RoleService{
		roles:  roles,
		logger: logger,
	}
}

// List returns every role ordered by ID
func (s *RoleService) List(ctx context.Context) ([]*models.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, translateRepoError(err, ErrRoleNotFound)
	}
	return roles, nil
}

// Get returns a single role
func (s *RoleService) Get(ctx context.Context, id int64) (*models.Role, error) {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, ErrRoleNotFound)
	}
	return role, nil
}

// Create stores a new role
func (s *RoleService) Create(ctx context.Context, name string) (*models.Role, error) {
	if err := requireText("name", SetTo(name), maxRoleNameLength); err != nil {
		return nil, err
	}

	role := models.NewRole(name)
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, translateRepoError(err, ErrRoleNotFound)
	}

	s.logger.Info("role created", zap.Int64("role_id", role.ID), zap.String("name", name))
	return role, nil
}

// Update renames the role. An unset name leaves it unchanged.
func (s *RoleService) Update(ctx context.Context, id int64, name Field[string]) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if !name.Set {
		return nil
	}
	if err := requireText("name", name, maxRoleNameLength); err != nil {
		return err
	}

	if err := s.roles.Update(ctx, id, *name.Value); err != nil {
		return translateRepoError(err, ErrRoleNotFound)
	}

	s.logger.Info("role updated", zap.Int64("role_id", id))
	return nil
}

// Delete removes the role; its users are left without a role
func (s *RoleService) Delete(ctx context.Context, id int64) error {
	if err := s.roles.Delete(ctx, id); err != nil {
		return translateRepoError(err, ErrRoleNotFound)
	}

	s.logger.Info("role deleted", zap.Int64("role_id", id))
	return nil
}

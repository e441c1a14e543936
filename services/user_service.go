package services

import (
	"context"

	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/repositories"
	"go.uber.org/zap"
)

const (
	maxUsernameLength = 80
	maxEmailLength    = 120
)

// CreateUserInput holds the fields of an administratively created user
type CreateUserInput struct {
	Username string
	Email    string
	RoleID   *int64
}

// UserPatch is a partial user update. The Google subject is not updatable.
type UserPatch struct {
	Username Field[string]
	Email    Field[string]
	Name     Field[string]
	Picture  Field[string]
	RoleID   Field[int64]
}

func (p UserPatch) changes() map[string]interface{} {
	changes := make(map[string]interface{})
	p.Username.apply(changes, "username")
	p.Email.apply(changes, "email")
	p.Name.apply(changes, "name")
	p.Picture.apply(changes, "picture")
	p.RoleID.apply(changes, "role_id")
	return changes
}

// UserService manages users
type UserService struct {
	users  repositories.UserRepository
	logger *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(users repositories.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{
		users:  users,
		logger: logger,
	}
}

// List returns every user with its role name
func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, translateRepoError(err, ErrUserNotFound)
	}
	return users, nil
}

// Get returns a single user with its role name
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, ErrUserNotFound)
	}
	return user, nil
}

// Create stores a user that is not yet linked to a Google account
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	if err := requireText("username", SetTo(input.Username), maxUsernameLength); err != nil {
		return nil, err
	}
	if err := requireText("email", SetTo(input.Email), maxEmailLength); err != nil {
		return nil, err
	}

	user := models.NewUser(input.Username, input.Email)
	user.RoleID = input.RoleID

	if err := s.users.Create(ctx, user); err != nil {
		return nil, translateRepoError(err, ErrUserNotFound)
	}

	s.logger.Info("user created", zap.Int64("user_id", user.ID))
	return user, nil
}

// Update applies patch to the user
func (s *UserService) Update(ctx context.Context, id int64, patch UserPatch) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := requireText("username", patch.Username, maxUsernameLength); err != nil {
		return err
	}
	if err := requireText("email", patch.Email, maxEmailLength); err != nil {
		return err
	}

	if err := s.users.Update(ctx, id, patch.changes()); err != nil {
		return translateRepoError(err, ErrUserNotFound)
	}

	s.logger.Info("user updated", zap.Int64("user_id", id))
	return nil
}

// Delete removes the user; owned projects and tasks are detached
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return translateRepoError(err, ErrUserNotFound)
	}

	s.logger.Info("user deleted", zap.Int64("user_id", id))
	return nil
}

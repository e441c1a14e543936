package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/upb/task-tracker/models"
)

// ErrNotFound is returned when a lookup or targeted write matches no row
var ErrNotFound = errors.New("record not found")

// ConstraintKind classifies integrity violations reported by the store
type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintForeignKey ConstraintKind = "foreign_key"
)

// ConstraintError reports a violated unique or foreign key constraint
type ConstraintError struct {
	Kind       ConstraintKind
	Constraint string
	Err        error
}

// Error implements the error interface
func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s constraint %q violated: %v", e.Kind, e.Constraint, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// AsConstraintError returns the constraint violation carried by err, if any
func AsConstraintError(err error) (*ConstraintError, bool) {
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns a context carrying the transaction; repositories called
	// with it run their statements inside the transaction
	Context() context.Context
}

// UserRepository handles user data operations
type UserRepository interface {
	// Create inserts a user and sets its ID
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user with its role name
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByGoogleID retrieves a user by Google subject
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// List retrieves all users ordered by ID
	List(ctx context.Context) ([]*models.User, error)

	// Count returns the number of users
	Count(ctx context.Context) (int64, error)

	// Update applies the given column changes to a user
	Update(ctx context.Context, id int64, changes map[string]interface{}) error

	// Delete deletes a user
	Delete(ctx context.Context, id int64) error

	// LockRegistration serialises first-login user creation until the
	// surrounding transaction ends
	LockRegistration(ctx context.Context) error
}

// RoleRepository handles role data operations
type RoleRepository interface {
	// Create inserts a role and sets its ID
	Create(ctx context.Context, role *models.Role) error

	// EnsureByName inserts the role if missing and returns the stored row
	EnsureByName(ctx context.Context, name string) (*models.Role, error)

	// GetByID retrieves a role by ID
	GetByID(ctx context.Context, id int64) (*models.Role, error)

	// GetByName retrieves a role by exact name
	GetByName(ctx context.Context, name string) (*models.Role, error)

	// List retrieves all roles ordered by ID
	List(ctx context.Context) ([]*models.Role, error)

	// Update renames a role
	Update(ctx context.Context, id int64, name string) error

	// Delete deletes a role
	Delete(ctx context.Context, id int64) error
}

// ProjectRepository handles project data operations
type ProjectRepository interface {
	// Create inserts a project and sets its ID
	Create(ctx context.Context, project *models.Project) error

	// GetByID retrieves a project by ID
	GetByID(ctx context.Context, id int64) (*models.Project, error)

	// List retrieves all projects ordered by ID
	List(ctx context.Context) ([]*models.Project, error)

	// Update applies the given column changes to a project
	Update(ctx context.Context, id int64, changes map[string]interface{}) error

	// Delete deletes a project
	Delete(ctx context.Context, id int64) error
}

// TaskRepository handles task data operations
type TaskRepository interface {
	// Create inserts a task and sets its ID
	Create(ctx context.Context, task *models.Task) error

	// GetByID retrieves a task by ID
	GetByID(ctx context.Context, id int64) (*models.Task, error)

	// List retrieves all tasks ordered by ID
	List(ctx context.Context) ([]*models.Task, error)

	// Update applies the given column changes to a task
	Update(ctx context.Context, id int64, changes map[string]interface{}) error

	// Delete deletes a task
	Delete(ctx context.Context, id int64) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users    UserRepository
	Roles    RoleRepository
	Projects ProjectRepository
	Tasks    TaskRepository
}
